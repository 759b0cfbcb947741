// Package settlement turns the early-exit penalty, the security deposit and
// inspection deductions into the amounts each party owes, and tracks how the
// tenant and owner respond to that proposal.
package settlement

import (
	"errors"
	"strings"
	"time"

	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/models"
	"github.com/shopspring/decimal"
)

var (
	ErrFinal         = errors.New("settlement already accepted by both parties")
	ErrUnknownParty  = errors.New("unknown settlement party")
	ErrUnknownAction = errors.New("unknown settlement action")
)

type Inputs struct {
	PenaltyAmount   decimal.Decimal
	SecurityDeposit decimal.Decimal
	Deductions      decimal.Decimal
}

type Amounts struct {
	TotalDue          decimal.Decimal
	TotalCredit       decimal.Decimal
	NetRefundToTenant decimal.Decimal
	NetPayableToOwner decimal.Decimal
}

// Calculate nets the deposit (less deductions) against the penalty. Unpaid
// rent is not part of the reconciliation.
func Calculate(in Inputs) Amounts {
	due := in.PenaltyAmount
	credit := in.SecurityDeposit.Sub(in.Deductions)

	return Amounts{
		TotalDue:          due,
		TotalCredit:       credit,
		NetRefundToTenant: decimal.Max(credit.Sub(due), decimal.Zero),
		NetPayableToOwner: decimal.Max(due.Sub(credit), decimal.Zero),
	}
}

// Apply writes freshly computed amounts onto s. Accepted settlements are frozen.
func Apply(s *models.Settlement, a Amounts) error {
	if s.Status == models.SettlementAccepted {
		return ErrFinal
	}
	s.TotalDue = a.TotalDue
	s.TotalCredit = a.TotalCredit
	s.NetRefundToTenant = a.NetRefundToTenant
	s.NetPayableToOwner = a.NetPayableToOwner
	return nil
}

// New builds a draft settlement for an exit request.
func New(exitRequestID uint, a Amounts) *models.Settlement {
	s := &models.Settlement{ExitRequestID: exitRequestID, Status: models.SettlementDraft}
	_ = Apply(s, a)
	return s
}

type Party int

const (
	Tenant Party = iota + 1
	Owner
)

func (p Party) String() string {
	switch p {
	case Tenant:
		return "tenant"
	case Owner:
		return "owner"
	default:
		return "unknown"
	}
}

type Action int

const (
	Accept Action = iota + 1
	Dispute
)

// ParseAction reads "accept" or "dispute".
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "accept":
		return Accept, nil
	case "dispute":
		return Dispute, nil
	default:
		return 0, ErrUnknownAction
	}
}

// Review applies one party's response. It reports whether the settlement
// became final, i.e. both parties have now accepted.
func Review(s *models.Settlement, p Party, action Action, comments string, now time.Time) (bool, error) {
	if s.Status == models.SettlementAccepted {
		return false, ErrFinal
	}
	if p != Tenant && p != Owner {
		return false, ErrUnknownParty
	}

	switch action {
	case Accept:
		return accept(s, p, now), nil
	case Dispute:
		dispute(s, p, comments)
		return false, nil
	default:
		return false, ErrUnknownAction
	}
}

func accept(s *models.Settlement, p Party, now time.Time) bool {
	if p == Tenant {
		s.TenantAccepted = true
	} else {
		s.OwnerAccepted = true
	}

	switch {
	case s.TenantAccepted && s.OwnerAccepted:
		s.Status = models.SettlementAccepted
		s.AcceptedAt = &now
		return true
	case s.TenantAccepted:
		s.Status = models.SettlementTenantAccepted
	default:
		s.Status = models.SettlementOwnerAccepted
	}
	return false
}

func dispute(s *models.Settlement, p Party, comments string) {
	s.TenantAccepted = false
	s.OwnerAccepted = false
	s.Status = models.SettlementDisputed
	if comments == "" {
		return
	}
	entry := p.String() + ": " + comments
	if s.DisputeComments != "" {
		s.DisputeComments += "\n" + entry
	} else {
		s.DisputeComments = entry
	}
}

// Reopen returns a settlement to draft after its inputs changed, clearing any
// acceptance given against the old amounts.
func Reopen(s *models.Settlement, a Amounts) error {
	if err := Apply(s, a); err != nil {
		return err
	}
	s.TenantAccepted = false
	s.OwnerAccepted = false
	s.Status = models.SettlementDraft
	return nil
}
