package repository

import (
	"context"

	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EarlyExitRepository interface {
	Create(ctx context.Context, tx *gorm.DB, exit *models.EarlyExitRequest) error
	FindByID(ctx context.Context, tx *gorm.DB, id uint) (*models.EarlyExitRequest, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.EarlyExitRequest, error)
	FindByBookingID(ctx context.Context, tx *gorm.DB, bookingID uint) (*models.EarlyExitRequest, error)
	FindDetailed(ctx context.Context, id uint) (*models.EarlyExitRequest, error)
	Save(ctx context.Context, tx *gorm.DB, exit *models.EarlyExitRequest) error

	CreateInspection(ctx context.Context, tx *gorm.DB, report *models.InspectionReport) error
	FindInspection(ctx context.Context, tx *gorm.DB, exitID uint) (*models.InspectionReport, error)
	SaveInspection(ctx context.Context, tx *gorm.DB, report *models.InspectionReport) error

	CreateSettlement(ctx context.Context, tx *gorm.DB, s *models.Settlement) error
	FindSettlement(ctx context.Context, tx *gorm.DB, exitID uint) (*models.Settlement, error)
	SaveSettlement(ctx context.Context, tx *gorm.DB, s *models.Settlement) error

	GetDB() *gorm.DB
}

type earlyExitRepository struct {
	db *gorm.DB
}

func NewEarlyExitRepository(db *gorm.DB) EarlyExitRepository {
	return &earlyExitRepository{db: db}
}

func (r *earlyExitRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *earlyExitRepository) Create(ctx context.Context, tx *gorm.DB, exit *models.EarlyExitRequest) error {
	return tx.WithContext(ctx).Omit(clause.Associations).Create(exit).Error
}

func (r *earlyExitRepository) FindByID(ctx context.Context, tx *gorm.DB, id uint) (*models.EarlyExitRequest, error) {
	var exit models.EarlyExitRequest
	if err := r.conn(tx).WithContext(ctx).Preload("Booking").First(&exit, id).Error; err != nil {
		return nil, err
	}
	return &exit, nil
}

// FindByIDForUpdate locks the exit request row so workflow steps on the same
// request are applied one at a time.
func (r *earlyExitRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.EarlyExitRequest, error) {
	var exit models.EarlyExitRequest
	q := tx.WithContext(ctx)
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.Preload("Booking").First(&exit, id).Error; err != nil {
		return nil, err
	}
	return &exit, nil
}

func (r *earlyExitRepository) FindByBookingID(ctx context.Context, tx *gorm.DB, bookingID uint) (*models.EarlyExitRequest, error) {
	var exit models.EarlyExitRequest
	if err := r.conn(tx).WithContext(ctx).Where("booking_id = ?", bookingID).First(&exit).Error; err != nil {
		return nil, err
	}
	return &exit, nil
}

// FindDetailed loads the request with its booking, inspection (and images) and settlement.
func (r *earlyExitRepository) FindDetailed(ctx context.Context, id uint) (*models.EarlyExitRequest, error) {
	var exit models.EarlyExitRequest
	err := r.db.WithContext(ctx).
		Preload("Booking").
		Preload("Inspection.Images").
		Preload("Settlement").
		First(&exit, id).Error
	if err != nil {
		return nil, err
	}
	return &exit, nil
}

func (r *earlyExitRepository) Save(ctx context.Context, tx *gorm.DB, exit *models.EarlyExitRequest) error {
	return tx.WithContext(ctx).Omit(clause.Associations).Save(exit).Error
}

func (r *earlyExitRepository) CreateInspection(ctx context.Context, tx *gorm.DB, report *models.InspectionReport) error {
	return tx.WithContext(ctx).Create(report).Error
}

func (r *earlyExitRepository) FindInspection(ctx context.Context, tx *gorm.DB, exitID uint) (*models.InspectionReport, error) {
	var report models.InspectionReport
	if err := r.conn(tx).WithContext(ctx).Where("exit_request_id = ?", exitID).First(&report).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

// SaveInspection updates the report and inserts any new images attached to it.
func (r *earlyExitRepository) SaveInspection(ctx context.Context, tx *gorm.DB, report *models.InspectionReport) error {
	return tx.WithContext(ctx).Save(report).Error
}

func (r *earlyExitRepository) CreateSettlement(ctx context.Context, tx *gorm.DB, s *models.Settlement) error {
	return tx.WithContext(ctx).Create(s).Error
}

func (r *earlyExitRepository) FindSettlement(ctx context.Context, tx *gorm.DB, exitID uint) (*models.Settlement, error) {
	var s models.Settlement
	if err := r.conn(tx).WithContext(ctx).Where("exit_request_id = ?", exitID).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *earlyExitRepository) SaveSettlement(ctx context.Context, tx *gorm.DB, s *models.Settlement) error {
	return tx.WithContext(ctx).Save(s).Error
}

func (r *earlyExitRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}
