package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusApproved  BookingStatus = "approved"
	StatusRejected  BookingStatus = "rejected"
	StatusCancelled BookingStatus = "cancelled"
	StatusRentedOut BookingStatus = "rented_out"
	StatusCompleted BookingStatus = "completed"
)

// BlockingStatuses are the statuses whose date range reserves the property.
var BlockingStatuses = []BookingStatus{StatusPending, StatusApproved}

// TenancyStatuses lock the property against catalog edits and deletion.
var TenancyStatuses = []BookingStatus{StatusApproved, StatusRentedOut}

func (s BookingStatus) Blocking() bool {
	return s == StatusPending || s == StatusApproved
}

// Booking reserves [StartDate, EndDate) of a property for a tenant. MonthlyRent,
// SecurityDeposit and LockInMonths are copied from the property at creation and
// never change afterwards.
type Booking struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	TenantID           string          `gorm:"not null;index" json:"tenant_id"`
	PropertyID         uint            `gorm:"not null;index:idx_booking_property_range,priority:1" json:"property_id"`
	StartDate          time.Time       `gorm:"type:date;not null;index:idx_booking_property_range,priority:2" json:"start_date"`
	EndDate            time.Time       `gorm:"type:date;not null" json:"end_date"`
	MonthlyRent        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"monthly_rent"`
	SecurityDeposit    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"security_deposit"`
	LockInMonths       int             `gorm:"not null;default:0" json:"lock_in_months"`
	Status             BookingStatus   `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CancellationReason *string         `gorm:"type:text" json:"cancellation_reason,omitempty"`
	DecidedAt          *time.Time      `json:"decided_at,omitempty"`
	FinalizedAt        *time.Time      `json:"finalized_at,omitempty"`
	CompletedAt        *time.Time      `json:"completed_at,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`

	Property *Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
}

func (b *Booking) IsTenant(actorID string) bool {
	return actorID != "" && b.TenantID == actorID
}
