package dto

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Date is a calendar date carried on the wire as YYYY-MM-DD.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string in YYYY-MM-DD format")
	}
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("date %q is not in YYYY-MM-DD format", s)
	}
	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(time.DateOnly))
}

type CreateBookingRequest struct {
	StartDate Date `json:"start_date"`
	EndDate   Date `json:"end_date"`
}

type DecisionRequest struct {
	Decision string `json:"decision"`
	Comments string `json:"comments"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason"`
}

type MoveOutRequest struct {
	DesiredMoveOut Date `json:"desired_move_out"`
}

type ScheduleInspectionRequest struct {
	ScheduledDate Date    `json:"scheduled_date"`
	InspectorID   *string `json:"inspector_id"`
}

type SubmitInspectionRequest struct {
	Checklist    map[string]any  `json:"checklist"`
	Notes        string          `json:"notes"`
	DamageAmount decimal.Decimal `json:"damage_amount"`
	ImageURLs    []string        `json:"image_urls"`
}

type SettlementReviewRequest struct {
	Action   string `json:"action"`
	Comments string `json:"comments"`
}

type ReviseDeductionsRequest struct {
	Deductions decimal.Decimal `json:"deductions"`
	Note       string          `json:"note"`
}

type MessageRequest struct {
	Content string `json:"content"`
}
