// Package notify publishes the service's outbound events to the broker:
// user notifications and booking cancellations for the appointment service.
package notify

import (
	"context"
	"time"

	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/service"
)

const (
	NotificationRoutingKey     = "notification.created"
	BookingCancelledRoutingKey = "booking.cancelled"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

type NotificationEvent struct {
	Recipient string    `json:"recipient"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Link      string    `json:"link,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type BookingCancelledEvent struct {
	BookingID   uint      `json:"booking_id"`
	CancelledAt time.Time `json:"cancelled_at"`
}

// Broker implements service.Notifier and service.AppointmentCanceller on top
// of a Publisher.
type Broker struct {
	pub Publisher
	now func() time.Time
}

var (
	_ service.Notifier             = (*Broker)(nil)
	_ service.AppointmentCanceller = (*Broker)(nil)
)

func NewBroker(pub Publisher) *Broker {
	return &Broker{pub: pub, now: time.Now}
}

func (b *Broker) Notify(ctx context.Context, n service.Notification) error {
	return b.pub.Publish(ctx, NotificationRoutingKey, NotificationEvent{
		Recipient: n.Recipient,
		Title:     n.Title,
		Message:   n.Message,
		Link:      n.Link,
		CreatedAt: b.now().UTC(),
	})
}

// CancelAppointments asks the appointment service to cancel the pending and
// confirmed viewings tied to bookingID.
func (b *Broker) CancelAppointments(ctx context.Context, bookingID uint) error {
	return b.pub.Publish(ctx, BookingCancelledRoutingKey, BookingCancelledEvent{
		BookingID:   bookingID,
		CancelledAt: b.now().UTC(),
	})
}
