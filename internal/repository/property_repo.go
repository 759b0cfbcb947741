package repository

import (
	"context"

	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PropertyRepository interface {
	FindByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Property, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Property, error)
	Upsert(ctx context.Context, property *models.Property) error
}

type propertyRepository struct {
	db *gorm.DB
}

func NewPropertyRepository(db *gorm.DB) PropertyRepository {
	return &propertyRepository{db: db}
}

func (r *propertyRepository) FindByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Property, error) {
	var property models.Property
	if tx == nil {
		tx = r.db
	}
	if err := tx.WithContext(ctx).First(&property, id).Error; err != nil {
		return nil, err
	}
	return &property, nil
}

// FindByIDForUpdate acquires a row-level lock on the property within the given
// transaction. Every conflict check on the property's bookings runs behind it.
// SQLite has no row locks; its pool is capped at one connection instead.
func (r *propertyRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Property, error) {
	var property models.Property
	q := tx.WithContext(ctx)
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.First(&property, id).Error; err != nil {
		return nil, err
	}
	return &property, nil
}

// Upsert inserts or refreshes a property synced from the catalog.
func (r *propertyRepository) Upsert(ctx context.Context, property *models.Property) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"owner_id", "title", "monthly_rent", "security_deposit", "lock_in_months", "updated_at"}),
	}).Create(property).Error
}
