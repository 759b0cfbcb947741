package repository

import (
	"context"

	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/models"
	"gorm.io/gorm"
)

// MessageRepository exposes no update or delete for message content; marking
// read is the only mutation.
type MessageRepository interface {
	Append(ctx context.Context, msg *models.BookingMessage) error
	ListByBooking(ctx context.Context, bookingID uint) ([]models.BookingMessage, error)
	MarkReadFor(ctx context.Context, bookingID uint, viewerID string) (int64, error)
	CountUnreadFor(ctx context.Context, bookingID uint, viewerID string) (int64, error)
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Append(ctx context.Context, msg *models.BookingMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *messageRepository) ListByBooking(ctx context.Context, bookingID uint) ([]models.BookingMessage, error) {
	var msgs []models.BookingMessage
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// MarkReadFor marks every message in the thread not sent by viewerID as read.
func (r *messageRepository) MarkReadFor(ctx context.Context, bookingID uint, viewerID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.BookingMessage{}).
		Where("booking_id = ? AND sender_id <> ? AND is_read = ?", bookingID, viewerID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

func (r *messageRepository) CountUnreadFor(ctx context.Context, bookingID uint, viewerID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.BookingMessage{}).
		Where("booking_id = ? AND sender_id <> ? AND is_read = ?", bookingID, viewerID, false).
		Count(&count).Error
	return count, err
}
