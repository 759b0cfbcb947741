package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/models"
	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/repository"
)

// MaxMessageLength bounds a single message body, in characters.
const MaxMessageLength = 4000

type MessageService interface {
	PostMessage(ctx context.Context, bookingID uint, senderID, content string) (*models.BookingMessage, error)
	ListMessages(ctx context.Context, bookingID uint, viewerID string) ([]models.BookingMessage, error)
	MarkRead(ctx context.Context, bookingID uint, viewerID string) (int64, error)
	UnreadCount(ctx context.Context, bookingID uint, viewerID string) (int64, error)
}

type messageService struct {
	messageRepo  repository.MessageRepository
	bookingRepo  repository.BookingRepository
	propertyRepo repository.PropertyRepository
	options
}

func NewMessageService(messageRepo repository.MessageRepository, bookingRepo repository.BookingRepository, propertyRepo repository.PropertyRepository, opts ...Option) MessageService {
	return &messageService{
		messageRepo:  messageRepo,
		bookingRepo:  bookingRepo,
		propertyRepo: propertyRepo,
		options:      buildOptions(opts),
	}
}

// participants returns the booking's property and the other party in the
// thread, or ErrForbidden when actorID is neither tenant nor owner.
func (s *messageService) participants(ctx context.Context, bookingID uint, actorID string) (*models.Property, string, error) {
	booking, err := s.bookingRepo.FindByID(ctx, nil, bookingID)
	if err != nil {
		return nil, "", notFound(err, "booking")
	}
	property, err := s.propertyRepo.FindByID(ctx, nil, booking.PropertyID)
	if err != nil {
		return nil, "", notFound(err, "property")
	}
	switch {
	case booking.IsTenant(actorID):
		return property, property.OwnerID, nil
	case property.IsOwner(actorID):
		return property, booking.TenantID, nil
	default:
		return nil, "", fmt.Errorf("%w: not a participant of this booking", ErrForbidden)
	}
}

func (s *messageService) PostMessage(ctx context.Context, bookingID uint, senderID, content string) (*models.BookingMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: message content is required", ErrValidation)
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return nil, fmt.Errorf("%w: message exceeds %d characters", ErrValidation, MaxMessageLength)
	}

	property, other, err := s.participants(ctx, bookingID, senderID)
	if err != nil {
		return nil, err
	}

	msg := &models.BookingMessage{
		BookingID: bookingID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: s.now(),
	}
	if err := s.messageRepo.Append(ctx, msg); err != nil {
		return nil, err
	}

	notifyAll(ctx, s.notifier, "MessageService", Notification{
		Recipient: other,
		Title:     "New message",
		Message:   fmt.Sprintf("You have a new message about '%s'.", property.Title),
		Link:      bookingLink(bookingID) + "/messages",
	})
	return msg, nil
}

func (s *messageService) ListMessages(ctx context.Context, bookingID uint, viewerID string) ([]models.BookingMessage, error) {
	if _, _, err := s.participants(ctx, bookingID, viewerID); err != nil {
		return nil, err
	}
	return s.messageRepo.ListByBooking(ctx, bookingID)
}

func (s *messageService) MarkRead(ctx context.Context, bookingID uint, viewerID string) (int64, error) {
	if _, _, err := s.participants(ctx, bookingID, viewerID); err != nil {
		return 0, err
	}
	return s.messageRepo.MarkReadFor(ctx, bookingID, viewerID)
}

func (s *messageService) UnreadCount(ctx context.Context, bookingID uint, viewerID string) (int64, error) {
	if _, _, err := s.participants(ctx, bookingID, viewerID); err != nil {
		return 0, err
	}
	return s.messageRepo.CountUnreadFor(ctx, bookingID, viewerID)
}
