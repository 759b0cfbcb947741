package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type ExitStatus string

const (
	ExitRequested           ExitStatus = "requested"
	ExitOwnerApproved       ExitStatus = "owner_approved"
	ExitOwnerRejected       ExitStatus = "owner_rejected"
	ExitInspectionScheduled ExitStatus = "inspection_scheduled"
	ExitInspectionCompleted ExitStatus = "inspection_completed"
	ExitDisputed            ExitStatus = "disputed"
	ExitLeaseTerminated     ExitStatus = "lease_terminated"
)

// EarlyExitRequest is the tenant's request to leave an approved booking before
// its end date. One per booking.
type EarlyExitRequest struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	BookingID         uint            `gorm:"not null;uniqueIndex" json:"booking_id"`
	RequestDate       time.Time       `gorm:"type:date;not null" json:"request_date"`
	DesiredMoveOut    time.Time       `gorm:"type:date;not null" json:"desired_move_out"`
	NoticeGivenDays   int             `gorm:"not null" json:"notice_given_days"`
	Status            ExitStatus      `gorm:"type:varchar(30);not null;default:'requested';index" json:"status"`
	OwnerComments     string          `gorm:"type:text" json:"owner_comments,omitempty"`
	OwnerResponseDate *time.Time      `json:"owner_response_date,omitempty"`
	PenaltyAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"penalty_amount"`
	Deductions        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"deductions"`
	RefundAmount      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"refund_amount"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`

	Booking    *Booking          `gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE" json:"booking,omitempty"`
	Inspection *InspectionReport `gorm:"foreignKey:ExitRequestID;constraint:OnDelete:CASCADE" json:"inspection,omitempty"`
	Settlement *Settlement       `gorm:"foreignKey:ExitRequestID;constraint:OnDelete:CASCADE" json:"settlement,omitempty"`
}

type InspectionStatus string

const (
	InspectionPending   InspectionStatus = "pending"
	InspectionCompleted InspectionStatus = "completed"
)

type InspectionReport struct {
	ID                   uint              `gorm:"primaryKey" json:"id"`
	ExitRequestID        uint              `gorm:"not null;uniqueIndex" json:"exit_request_id"`
	ScheduledDate        time.Time         `gorm:"type:date;not null" json:"scheduled_date"`
	InspectorID          *string           `json:"inspector_id,omitempty"`
	Status               InspectionStatus  `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Checklist            datatypes.JSONMap `json:"checklist,omitempty"`
	Notes                string            `gorm:"type:text" json:"notes,omitempty"`
	DamageAssessedAmount decimal.Decimal   `gorm:"type:decimal(12,2);not null;default:0" json:"damage_assessed_amount"`
	SubmittedBy          *string           `json:"submitted_by,omitempty"`
	CompletedAt          *time.Time        `json:"completed_at,omitempty"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`

	Images []InspectionImage `gorm:"foreignKey:ReportID;constraint:OnDelete:CASCADE" json:"images,omitempty"`
}

type InspectionImage struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ReportID   uint      `gorm:"not null;index" json:"report_id"`
	URL        string    `gorm:"not null" json:"url"`
	UploadedAt time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
}

type SettlementStatus string

const (
	SettlementDraft          SettlementStatus = "draft"
	SettlementTenantAccepted SettlementStatus = "tenant_accepted"
	SettlementOwnerAccepted  SettlementStatus = "owner_accepted"
	SettlementAccepted       SettlementStatus = "accepted"
	SettlementDisputed       SettlementStatus = "disputed"
)

// Settlement reconciles the deposit against the penalty and inspection
// deductions. The amount columns are derived and only written through
// settlement.Apply.
type Settlement struct {
	ID                uint             `gorm:"primaryKey" json:"id"`
	ExitRequestID     uint             `gorm:"not null;uniqueIndex" json:"exit_request_id"`
	TotalDue          decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"total_due"`
	TotalCredit       decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"total_credit"`
	NetRefundToTenant decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"net_refund_to_tenant"`
	NetPayableToOwner decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"net_payable_to_owner"`
	Status            SettlementStatus `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`
	TenantAccepted    bool             `gorm:"not null;default:false" json:"tenant_accepted"`
	OwnerAccepted     bool             `gorm:"not null;default:false" json:"owner_accepted"`
	DisputeComments   string           `gorm:"type:text" json:"dispute_comments,omitempty"`
	AcceptedAt        *time.Time       `json:"accepted_at,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}
