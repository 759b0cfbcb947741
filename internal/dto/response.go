package dto

import (
	"time"

	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/interval"
	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/models"
	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/service"
	"github.com/shopspring/decimal"
)

type BookingResponse struct {
	ID                 uint                 `json:"id"`
	PropertyID         uint                 `json:"property_id"`
	TenantID           string               `json:"tenant_id"`
	StartDate          Date                 `json:"start_date"`
	EndDate            Date                 `json:"end_date"`
	MonthlyRent        decimal.Decimal      `json:"monthly_rent"`
	SecurityDeposit    decimal.Decimal      `json:"security_deposit"`
	LockInMonths       int                  `json:"lock_in_months"`
	Status             models.BookingStatus `json:"status"`
	CancellationReason *string              `json:"cancellation_reason,omitempty"`
	DecidedAt          *time.Time           `json:"decided_at,omitempty"`
	FinalizedAt        *time.Time           `json:"finalized_at,omitempty"`
	CompletedAt        *time.Time           `json:"completed_at,omitempty"`
	CreatedAt          time.Time            `json:"created_at"`
}

type RangeResponse struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

type PropertyStatusResponse struct {
	PropertyID uint             `json:"property_id"`
	Title      string           `json:"title"`
	Counts     map[string]int64 `json:"counts"`
	Blocked    []RangeResponse  `json:"blocked"`
	Locked     bool             `json:"locked"`
}

type TenancyLockResponse struct {
	PropertyID uint `json:"property_id"`
	Locked     bool `json:"locked"`
}

type InspectionResponse struct {
	ID                   uint                    `json:"id"`
	ScheduledDate        Date                    `json:"scheduled_date"`
	InspectorID          *string                 `json:"inspector_id,omitempty"`
	Status               models.InspectionStatus `json:"status"`
	Checklist            map[string]any          `json:"checklist,omitempty"`
	Notes                string                  `json:"notes,omitempty"`
	DamageAssessedAmount decimal.Decimal         `json:"damage_assessed_amount"`
	SubmittedBy          *string                 `json:"submitted_by,omitempty"`
	CompletedAt          *time.Time              `json:"completed_at,omitempty"`
	ImageURLs            []string                `json:"image_urls"`
}

type SettlementResponse struct {
	ID                uint                    `json:"id"`
	TotalDue          decimal.Decimal         `json:"total_due"`
	TotalCredit       decimal.Decimal         `json:"total_credit"`
	NetRefundToTenant decimal.Decimal         `json:"net_refund_to_tenant"`
	NetPayableToOwner decimal.Decimal         `json:"net_payable_to_owner"`
	Status            models.SettlementStatus `json:"status"`
	TenantAccepted    bool                    `json:"tenant_accepted"`
	OwnerAccepted     bool                    `json:"owner_accepted"`
	DisputeComments   string                  `json:"dispute_comments,omitempty"`
	AcceptedAt        *time.Time              `json:"accepted_at,omitempty"`
}

type EarlyExitResponse struct {
	ID                uint                `json:"id"`
	BookingID         uint                `json:"booking_id"`
	RequestDate       Date                `json:"request_date"`
	DesiredMoveOut    Date                `json:"desired_move_out"`
	NoticeGivenDays   int                 `json:"notice_given_days"`
	Status            models.ExitStatus   `json:"status"`
	OwnerComments     string              `json:"owner_comments,omitempty"`
	OwnerResponseDate *time.Time          `json:"owner_response_date,omitempty"`
	PenaltyAmount     decimal.Decimal     `json:"penalty_amount"`
	Deductions        decimal.Decimal     `json:"deductions"`
	RefundAmount      decimal.Decimal     `json:"refund_amount"`
	Inspection        *InspectionResponse `json:"inspection,omitempty"`
	Settlement        *SettlementResponse `json:"settlement,omitempty"`
}

type MessageResponse struct {
	ID        uint      `json:"id"`
	BookingID uint      `json:"booking_id"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

type ThreadResponse struct {
	Messages []MessageResponse `json:"messages"`
	Unread   int64             `json:"unread"`
}

type MarkReadResponse struct {
	Marked int64 `json:"marked"`
}

type ErrorResponse struct {
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
}

func ToBookingResponse(b *models.Booking) BookingResponse {
	return BookingResponse{
		ID:                 b.ID,
		PropertyID:         b.PropertyID,
		TenantID:           b.TenantID,
		StartDate:          Date{b.StartDate},
		EndDate:            Date{b.EndDate},
		MonthlyRent:        b.MonthlyRent,
		SecurityDeposit:    b.SecurityDeposit,
		LockInMonths:       b.LockInMonths,
		Status:             b.Status,
		CancellationReason: b.CancellationReason,
		DecidedAt:          b.DecidedAt,
		FinalizedAt:        b.FinalizedAt,
		CompletedAt:        b.CompletedAt,
		CreatedAt:          b.CreatedAt,
	}
}

func ToBookingResponses(bookings []models.Booking) []BookingResponse {
	out := make([]BookingResponse, 0, len(bookings))
	for i := range bookings {
		out = append(out, ToBookingResponse(&bookings[i]))
	}
	return out
}

func ToPropertyStatusResponse(s *service.PropertyStatus) PropertyStatusResponse {
	resp := PropertyStatusResponse{
		PropertyID: s.Property.ID,
		Title:      s.Property.Title,
		Counts:     make(map[string]int64, len(s.Counts)),
		Blocked:    make([]RangeResponse, 0, len(s.Blocked)),
		Locked:     s.Locked,
	}
	for status, n := range s.Counts {
		resp.Counts[string(status)] = n
	}
	for _, r := range s.Blocked {
		resp.Blocked = append(resp.Blocked, toRange(r))
	}
	return resp
}

func toRange(r interval.Range) RangeResponse {
	return RangeResponse{Start: Date{r.Start}, End: Date{r.End}}
}

func ToInspectionResponse(r *models.InspectionReport) *InspectionResponse {
	if r == nil {
		return nil
	}
	urls := make([]string, 0, len(r.Images))
	for _, img := range r.Images {
		urls = append(urls, img.URL)
	}
	return &InspectionResponse{
		ID:                   r.ID,
		ScheduledDate:        Date{r.ScheduledDate},
		InspectorID:          r.InspectorID,
		Status:               r.Status,
		Checklist:            r.Checklist,
		Notes:                r.Notes,
		DamageAssessedAmount: r.DamageAssessedAmount,
		SubmittedBy:          r.SubmittedBy,
		CompletedAt:          r.CompletedAt,
		ImageURLs:            urls,
	}
}

func ToSettlementResponse(s *models.Settlement) *SettlementResponse {
	if s == nil {
		return nil
	}
	return &SettlementResponse{
		ID:                s.ID,
		TotalDue:          s.TotalDue,
		TotalCredit:       s.TotalCredit,
		NetRefundToTenant: s.NetRefundToTenant,
		NetPayableToOwner: s.NetPayableToOwner,
		Status:            s.Status,
		TenantAccepted:    s.TenantAccepted,
		OwnerAccepted:     s.OwnerAccepted,
		DisputeComments:   s.DisputeComments,
		AcceptedAt:        s.AcceptedAt,
	}
}

func ToEarlyExitResponse(e *models.EarlyExitRequest) EarlyExitResponse {
	return EarlyExitResponse{
		ID:                e.ID,
		BookingID:         e.BookingID,
		RequestDate:       Date{e.RequestDate},
		DesiredMoveOut:    Date{e.DesiredMoveOut},
		NoticeGivenDays:   e.NoticeGivenDays,
		Status:            e.Status,
		OwnerComments:     e.OwnerComments,
		OwnerResponseDate: e.OwnerResponseDate,
		PenaltyAmount:     e.PenaltyAmount,
		Deductions:        e.Deductions,
		RefundAmount:      e.RefundAmount,
		Inspection:        ToInspectionResponse(e.Inspection),
		Settlement:        ToSettlementResponse(e.Settlement),
	}
}

func ToMessageResponses(msgs []models.BookingMessage) []MessageResponse {
	out := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, ToMessageResponse(&m))
	}
	return out
}

func ToMessageResponse(m *models.BookingMessage) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		BookingID: m.BookingID,
		SenderID:  m.SenderID,
		Content:   m.Content,
		IsRead:    m.IsRead,
		CreatedAt: m.CreatedAt,
	}
}
