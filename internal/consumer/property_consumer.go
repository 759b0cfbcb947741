package consumer

import (
	"context"
	"encoding/json"
	"log"

	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/models"
	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/repository"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
)

// PropertyEvent is the catalog's property.created / property.updated payload.
type PropertyEvent struct {
	ID              uint            `json:"id"`
	OwnerID         string          `json:"owner_id"`
	Title           string          `json:"title"`
	MonthlyRent     decimal.Decimal `json:"monthly_rent"`
	SecurityDeposit decimal.Decimal `json:"security_deposit"`
	LockInMonths    int             `json:"lock_in_months"`
}

type PropertyConsumer struct {
	repo repository.PropertyRepository
}

func NewPropertyConsumer(repo repository.PropertyRepository) *PropertyConsumer {
	return &PropertyConsumer{repo: repo}
}

// Start listens for messages and upserts properties into the local read model.
func (pc *PropertyConsumer) Start(ctx context.Context, msgs <-chan amqp.Delivery) {
	go func() {
		for msg := range msgs {
			pc.handleMessage(ctx, msg)
		}
		log.Println("[PropertyConsumer] channel closed, stopping consumer")
	}()
}

func (pc *PropertyConsumer) handleMessage(ctx context.Context, msg amqp.Delivery) {
	switch msg.RoutingKey {
	case "property.created", "property.updated":
	default:
		// deletions are refused upstream while a tenancy exists, nothing to sync
		log.Printf("[PropertyConsumer] ignoring %s", msg.RoutingKey)
		msg.Ack(false)
		return
	}

	var event PropertyEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		log.Printf("[PropertyConsumer] failed to unmarshal: %v", err)
		msg.Nack(false, false)
		return
	}
	if event.ID == 0 || event.OwnerID == "" {
		log.Printf("[PropertyConsumer] dropping property event without id or owner")
		msg.Nack(false, false)
		return
	}

	property := &models.Property{
		ID:              event.ID,
		OwnerID:         event.OwnerID,
		Title:           event.Title,
		MonthlyRent:     event.MonthlyRent,
		SecurityDeposit: event.SecurityDeposit,
		LockInMonths:    event.LockInMonths,
	}
	if err := pc.repo.Upsert(ctx, property); err != nil {
		log.Printf("[PropertyConsumer] failed to upsert property %d: %v", event.ID, err)
		msg.Nack(false, true) // requeue
		return
	}

	log.Printf("[PropertyConsumer] synced property %d: %s", event.ID, event.Title)
	msg.Ack(false)
}
