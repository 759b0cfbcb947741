package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Property is the local read model of a catalog listing, kept in sync from the
// property.* topic. Lifecycle operations only read it.
type Property struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	OwnerID         string          `gorm:"not null;index" json:"owner_id"`
	Title           string          `gorm:"not null" json:"title"`
	MonthlyRent     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"monthly_rent"`
	SecurityDeposit decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"security_deposit"`
	LockInMonths    int             `gorm:"not null;default:0" json:"lock_in_months"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (p *Property) IsOwner(actorID string) bool {
	return actorID != "" && p.OwnerID == actorID
}
