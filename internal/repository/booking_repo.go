package repository

import (
	"context"
	"time"

	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/interval"
	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/models"
	"gorm.io/gorm"
)

type BookingRepository interface {
	Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error
	FindByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Booking, error)
	FindByPropertyID(ctx context.Context, propertyID uint, status *models.BookingStatus) ([]models.Booking, error)
	FindByTenantID(ctx context.Context, tenantID string) ([]models.Booking, error)
	FindBlocking(ctx context.Context, tx *gorm.DB, propertyID uint, r interval.Range, excludeID uint) ([]models.Booking, error)
	FindEndedRentals(ctx context.Context, tx *gorm.DB, today time.Time) ([]models.Booking, error)
	FindTerminatedEarly(ctx context.Context, tx *gorm.DB, today time.Time) ([]models.Booking, error)
	ExistsWithStatus(ctx context.Context, propertyID uint, statuses []models.BookingStatus) (bool, error)
	Update(ctx context.Context, tx *gorm.DB, bookingID uint, fields map[string]any) error
	GetDB() *gorm.DB
}

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *bookingRepository) Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	return tx.WithContext(ctx).Create(booking).Error
}

func (r *bookingRepository) FindByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := r.conn(tx).WithContext(ctx).First(&booking, id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindByPropertyID(ctx context.Context, propertyID uint, status *models.BookingStatus) ([]models.Booking, error) {
	var bookings []models.Booking
	q := r.db.WithContext(ctx).Where("property_id = ?", propertyID)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	if err := q.Order("start_date ASC, id ASC").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) FindByTenantID(ctx context.Context, tenantID string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("start_date DESC, id DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// FindBlocking returns pending/approved bookings of the property whose range
// intersects r: start_date < r.End AND end_date > r.Start.
func (r *bookingRepository) FindBlocking(ctx context.Context, tx *gorm.DB, propertyID uint, rg interval.Range, excludeID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	q := r.conn(tx).WithContext(ctx).
		Where("property_id = ? AND status IN ?", propertyID, models.BlockingStatuses).
		Where("start_date < ? AND end_date > ?", rg.End, rg.Start)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Order("start_date ASC").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

// FindEndedRentals returns rented-out bookings whose lease has run out by today.
func (r *bookingRepository) FindEndedRentals(ctx context.Context, tx *gorm.DB, today time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.conn(tx).WithContext(ctx).
		Where("status = ? AND end_date <= ?", models.StatusRentedOut, today).
		Order("id ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// FindTerminatedEarly returns approved bookings whose early exit ended the
// lease and whose move-out date has been reached.
func (r *bookingRepository) FindTerminatedEarly(ctx context.Context, tx *gorm.DB, today time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.conn(tx).WithContext(ctx).
		Joins("JOIN early_exit_requests ON early_exit_requests.booking_id = bookings.id").
		Where("bookings.status = ? AND early_exit_requests.status = ? AND early_exit_requests.desired_move_out <= ?",
			models.StatusApproved, models.ExitLeaseTerminated, today).
		Order("bookings.id ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) ExistsWithStatus(ctx context.Context, propertyID uint, statuses []models.BookingStatus) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("property_id = ? AND status IN ?", propertyID, statuses).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}

func (r *bookingRepository) Update(ctx context.Context, tx *gorm.DB, bookingID uint, fields map[string]any) error {
	return r.conn(tx).WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", bookingID).
		Updates(fields).Error
}

func (r *bookingRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}
