package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/interval"
	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/models"
	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/penalty"
	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/repository"
	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/settlement"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InspectionInput is what the tenant or owner records when an inspection is done.
type InspectionInput struct {
	Checklist    map[string]any
	Notes        string
	DamageAmount decimal.Decimal
	ImageURLs    []string
}

type EarlyExitService interface {
	RequestEarlyExit(ctx context.Context, bookingID uint, tenantID string, desiredMoveOut time.Time) (*models.EarlyExitRequest, error)
	ReviseMoveOut(ctx context.Context, exitID uint, tenantID string, desiredMoveOut time.Time) (*models.EarlyExitRequest, error)
	OwnerReviewExit(ctx context.Context, exitID uint, ownerID string, decision Decision, comments string) (*models.EarlyExitRequest, error)
	ScheduleInspection(ctx context.Context, exitID uint, ownerID string, scheduledDate time.Time, inspectorID *string) (*models.InspectionReport, error)
	SubmitInspection(ctx context.Context, exitID uint, actorID string, in InspectionInput) (*models.Settlement, error)
	ReviewSettlement(ctx context.Context, exitID uint, actorID string, action settlement.Action, comments string) (*models.Settlement, error)
	ReviseDeductions(ctx context.Context, exitID uint, ownerID string, deductions decimal.Decimal, note string) (*models.Settlement, error)
	GetEarlyExit(ctx context.Context, exitID uint, actorID string) (*models.EarlyExitRequest, error)
}

type earlyExitService struct {
	exitRepo     repository.EarlyExitRepository
	bookingRepo  repository.BookingRepository
	propertyRepo repository.PropertyRepository
	options
}

func NewEarlyExitService(exitRepo repository.EarlyExitRepository, bookingRepo repository.BookingRepository, propertyRepo repository.PropertyRepository, opts ...Option) EarlyExitService {
	return &earlyExitService{
		exitRepo:     exitRepo,
		bookingRepo:  bookingRepo,
		propertyRepo: propertyRepo,
		options:      buildOptions(opts),
	}
}

func (s *earlyExitService) today() time.Time {
	return interval.Day(s.now())
}

// validateMoveOut keeps the move-out date within [today, lease end].
func validateMoveOut(moveOut, today, leaseEnd time.Time) error {
	if moveOut.Before(today) {
		return fmt.Errorf("%w: move-out date cannot be in the past", ErrInvalidRange)
	}
	if moveOut.After(interval.Day(leaseEnd)) {
		return fmt.Errorf("%w: move-out date is after the lease end", ErrInvalidRange)
	}
	return nil
}

// reprice recomputes notice and penalty from the booking's snapshot terms.
func reprice(exit *models.EarlyExitRequest, booking *models.Booking) {
	res := penalty.Calculate(penalty.Terms{
		MonthlyRent:    booking.MonthlyRent,
		LeaseEnd:       booking.EndDate,
		DesiredMoveOut: exit.DesiredMoveOut,
		LockInMonths:   booking.LockInMonths,
	})
	exit.PenaltyAmount = res.Amount
	exit.NoticeGivenDays = penalty.NoticeDays(exit.RequestDate, exit.DesiredMoveOut)
}

func (s *earlyExitService) RequestEarlyExit(ctx context.Context, bookingID uint, tenantID string, desiredMoveOut time.Time) (*models.EarlyExitRequest, error) {
	var result *models.EarlyExitRequest
	var property *models.Property

	err := s.exitRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking, err := s.bookingRepo.FindByID(ctx, tx, bookingID)
		if err != nil {
			return notFound(err, "booking")
		}
		p, err := s.propertyRepo.FindByIDForUpdate(ctx, tx, booking.PropertyID)
		if err != nil {
			return notFound(err, "property")
		}
		property = p

		// the status read before the lock may predate a committed cancel
		booking, err = s.bookingRepo.FindByID(ctx, tx, bookingID)
		if err != nil {
			return notFound(err, "booking")
		}

		if !booking.IsTenant(tenantID) {
			return fmt.Errorf("%w: only the tenant can request an early exit", ErrForbidden)
		}
		if booking.Status != models.StatusApproved {
			return fmt.Errorf("%w: booking is %s", ErrInvalidState, booking.Status)
		}

		_, err = s.exitRepo.FindByBookingID(ctx, tx, booking.ID)
		if err == nil {
			return fmt.Errorf("%w: an early exit request already exists for this booking", ErrDuplicateRequest)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		today := s.today()
		moveOut := interval.Day(desiredMoveOut)
		if err := validateMoveOut(moveOut, today, booking.EndDate); err != nil {
			return err
		}

		exit := &models.EarlyExitRequest{
			BookingID:      booking.ID,
			RequestDate:    today,
			DesiredMoveOut: moveOut,
			Status:         models.ExitRequested,
		}
		reprice(exit, booking)
		if err := s.exitRepo.Create(ctx, tx, exit); err != nil {
			return translateWrite(err)
		}
		exit.Booking = booking
		result = exit
		return nil
	})
	if err != nil {
		return nil, err
	}

	notifyAll(ctx, s.notifier, "EarlyExitService", Notification{
		Recipient: property.OwnerID,
		Title:     "Early exit requested",
		Message:   fmt.Sprintf("The tenant of '%s' asked to move out on %s. Penalty: %s.", property.Title, dateString(result.DesiredMoveOut), result.PenaltyAmount.StringFixed(2)),
		Link:      exitLink(result.ID),
	})
	return result, nil
}

// exitContext is an exit request loaded under its row lock, with the booking
// and property it belongs to.
type exitContext struct {
	exit     *models.EarlyExitRequest
	booking  *models.Booking
	property *models.Property
}

func (c *exitContext) party(actorID string) settlement.Party {
	switch {
	case c.booking.IsTenant(actorID):
		return settlement.Tenant
	case c.property.IsOwner(actorID):
		return settlement.Owner
	default:
		return 0
	}
}

func (s *earlyExitService) loadExit(ctx context.Context, tx *gorm.DB, exitID uint) (*exitContext, error) {
	exit, err := s.exitRepo.FindByIDForUpdate(ctx, tx, exitID)
	if err != nil {
		return nil, notFound(err, "early exit request")
	}
	if exit.Booking == nil {
		return nil, fmt.Errorf("booking %w for early exit request %d", ErrNotFound, exitID)
	}
	property, err := s.propertyRepo.FindByID(ctx, tx, exit.Booking.PropertyID)
	if err != nil {
		return nil, notFound(err, "property")
	}
	return &exitContext{exit: exit, booking: exit.Booking, property: property}, nil
}

func (s *earlyExitService) ReviseMoveOut(ctx context.Context, exitID uint, tenantID string, desiredMoveOut time.Time) (*models.EarlyExitRequest, error) {
	var result *models.EarlyExitRequest
	var property *models.Property

	err := s.exitRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ec, err := s.loadExit(ctx, tx, exitID)
		if err != nil {
			return err
		}
		property = ec.property

		if ec.party(tenantID) != settlement.Tenant {
			return fmt.Errorf("%w: only the tenant can change the move-out date", ErrForbidden)
		}
		if ec.exit.Status != models.ExitRequested {
			return fmt.Errorf("%w: early exit is %s", ErrInvalidState, ec.exit.Status)
		}

		moveOut := interval.Day(desiredMoveOut)
		if err := validateMoveOut(moveOut, s.today(), ec.booking.EndDate); err != nil {
			return err
		}
		ec.exit.DesiredMoveOut = moveOut
		reprice(ec.exit, ec.booking)
		if err := s.exitRepo.Save(ctx, tx, ec.exit); err != nil {
			return err
		}
		result = ec.exit
		return nil
	})
	if err != nil {
		return nil, err
	}

	notifyAll(ctx, s.notifier, "EarlyExitService", Notification{
		Recipient: property.OwnerID,
		Title:     "Move-out date changed",
		Message:   fmt.Sprintf("The tenant of '%s' now wants to move out on %s. Penalty: %s.", property.Title, dateString(result.DesiredMoveOut), result.PenaltyAmount.StringFixed(2)),
		Link:      exitLink(result.ID),
	})
	return result, nil
}

func (s *earlyExitService) OwnerReviewExit(ctx context.Context, exitID uint, ownerID string, decision Decision, comments string) (*models.EarlyExitRequest, error) {
	var result *models.EarlyExitRequest
	var tenantID, title string

	err := s.exitRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ec, err := s.loadExit(ctx, tx, exitID)
		if err != nil {
			return err
		}
		tenantID, title = ec.booking.TenantID, ec.property.Title

		if ec.party(ownerID) != settlement.Owner {
			return fmt.Errorf("%w: only the property owner can review an early exit", ErrForbidden)
		}
		if ec.exit.Status != models.ExitRequested {
			return fmt.Errorf("%w: early exit is %s", ErrInvalidState, ec.exit.Status)
		}

		switch decision {
		case DecisionApprove:
			ec.exit.Status = models.ExitOwnerApproved
		case DecisionReject:
			ec.exit.Status = models.ExitOwnerRejected
		default:
			return fmt.Errorf("%w: unknown decision", ErrValidation)
		}
		now := s.now()
		ec.exit.OwnerComments = comments
		ec.exit.OwnerResponseDate = &now

		if err := s.exitRepo.Save(ctx, tx, ec.exit); err != nil {
			return err
		}
		result = ec.exit
		return nil
	})
	if err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("Your early exit request for '%s' was %s.", title, strings.ReplaceAll(string(result.Status), "owner_", ""))
	if comments != "" {
		msg += " Owner comments: " + comments
	}
	notifyAll(ctx, s.notifier, "EarlyExitService", Notification{
		Recipient: tenantID,
		Title:     "Early exit reviewed",
		Message:   msg,
		Link:      exitLink(result.ID),
	})
	return result, nil
}

func (s *earlyExitService) ScheduleInspection(ctx context.Context, exitID uint, ownerID string, scheduledDate time.Time, inspectorID *string) (*models.InspectionReport, error) {
	var result *models.InspectionReport
	var tenantID, title string

	err := s.exitRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ec, err := s.loadExit(ctx, tx, exitID)
		if err != nil {
			return err
		}
		tenantID, title = ec.booking.TenantID, ec.property.Title

		if ec.party(ownerID) != settlement.Owner {
			return fmt.Errorf("%w: only the property owner can schedule an inspection", ErrForbidden)
		}
		if ec.exit.Status != models.ExitOwnerApproved {
			return fmt.Errorf("%w: early exit is %s", ErrInvalidState, ec.exit.Status)
		}
		scheduled := interval.Day(scheduledDate)
		if scheduled.Before(s.today()) {
			return fmt.Errorf("%w: inspection date cannot be in the past", ErrInvalidRange)
		}
		if inspectorID != nil && strings.TrimSpace(*inspectorID) == "" {
			inspectorID = nil
		}

		report := &models.InspectionReport{
			ExitRequestID: ec.exit.ID,
			ScheduledDate: scheduled,
			InspectorID:   inspectorID,
			Status:        models.InspectionPending,
		}
		if err := s.exitRepo.CreateInspection(ctx, tx, report); err != nil {
			return translateWrite(err)
		}

		ec.exit.Status = models.ExitInspectionScheduled
		if err := s.exitRepo.Save(ctx, tx, ec.exit); err != nil {
			return err
		}
		result = report
		return nil
	})
	if err != nil {
		return nil, err
	}

	note := Notification{
		Title:   "Inspection scheduled",
		Message: fmt.Sprintf("The move-out inspection of '%s' is scheduled for %s.", title, dateString(result.ScheduledDate)),
		Link:    exitLink(exitID),
	}
	notes := []Notification{withRecipient(note, tenantID)}
	if result.InspectorID != nil {
		notes = append(notes, withRecipient(note, *result.InspectorID))
	}
	notifyAll(ctx, s.notifier, "EarlyExitService", notes...)
	return result, nil
}

func (s *earlyExitService) SubmitInspection(ctx context.Context, exitID uint, actorID string, in InspectionInput) (*models.Settlement, error) {
	if in.DamageAmount.IsNegative() {
		return nil, fmt.Errorf("%w: damage amount cannot be negative", ErrValidation)
	}

	var result *models.Settlement
	var ec *exitContext

	err := s.exitRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		ec, err = s.loadExit(ctx, tx, exitID)
		if err != nil {
			return err
		}

		if ec.party(actorID) == 0 {
			return fmt.Errorf("%w: only the tenant or owner can submit an inspection", ErrForbidden)
		}

		report, err := s.exitRepo.FindInspection(ctx, tx, ec.exit.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: no inspection has been scheduled", ErrInvalidState)
		}
		if err != nil {
			return err
		}
		if report.Status != models.InspectionPending {
			return fmt.Errorf("%w: inspection already %s", ErrInvalidState, report.Status)
		}

		// 1. Complete the report
		now := s.now()
		submitter := actorID
		report.Status = models.InspectionCompleted
		report.Checklist = in.Checklist
		report.Notes = in.Notes
		report.DamageAssessedAmount = in.DamageAmount
		report.SubmittedBy = &submitter
		report.CompletedAt = &now
		for _, url := range in.ImageURLs {
			if url = strings.TrimSpace(url); url != "" {
				report.Images = append(report.Images, models.InspectionImage{ReportID: report.ID, URL: url})
			}
		}
		if err := s.exitRepo.SaveInspection(ctx, tx, report); err != nil {
			return err
		}

		// 2. Draft the settlement from penalty, deposit and the assessed damage
		amounts := settlement.Calculate(settlement.Inputs{
			PenaltyAmount:   ec.exit.PenaltyAmount,
			SecurityDeposit: ec.booking.SecurityDeposit,
			Deductions:      in.DamageAmount,
		})
		draft := settlement.New(ec.exit.ID, amounts)
		if err := s.exitRepo.CreateSettlement(ctx, tx, draft); err != nil {
			return translateWrite(err)
		}

		// 3. Advance the exit request
		ec.exit.Deductions = in.DamageAmount
		ec.exit.RefundAmount = amounts.NetRefundToTenant
		ec.exit.Status = models.ExitInspectionCompleted
		if err := s.exitRepo.Save(ctx, tx, ec.exit); err != nil {
			return err
		}
		result = draft
		return nil
	})
	if err != nil {
		return nil, err
	}

	note := Notification{
		Title: "Settlement ready",
		Message: fmt.Sprintf("Inspection of '%s' is complete. Refund to tenant: %s, payable to owner: %s.",
			ec.property.Title, result.NetRefundToTenant.StringFixed(2), result.NetPayableToOwner.StringFixed(2)),
		Link: exitLink(exitID),
	}
	notifyAll(ctx, s.notifier, "EarlyExitService", withRecipient(note, ec.booking.TenantID), withRecipient(note, ec.property.OwnerID))
	return result, nil
}

func (s *earlyExitService) ReviewSettlement(ctx context.Context, exitID uint, actorID string, action settlement.Action, comments string) (*models.Settlement, error) {
	var result *models.Settlement
	var ec *exitContext
	var party settlement.Party

	err := s.exitRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		ec, err = s.loadExit(ctx, tx, exitID)
		if err != nil {
			return err
		}

		party = ec.party(actorID)
		if party == 0 {
			return fmt.Errorf("%w: only the tenant or owner can review the settlement", ErrForbidden)
		}

		st, err := s.exitRepo.FindSettlement(ctx, tx, ec.exit.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: no settlement has been generated", ErrInvalidState)
		}
		if err != nil {
			return err
		}

		final, err := settlement.Review(st, party, action, comments, s.now())
		switch {
		case errors.Is(err, settlement.ErrFinal):
			return fmt.Errorf("%w: %v", ErrInvalidState, err)
		case err != nil:
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
		if err := s.exitRepo.SaveSettlement(ctx, tx, st); err != nil {
			return err
		}

		switch {
		case final:
			ec.exit.Status = models.ExitLeaseTerminated
		case st.Status == models.SettlementDisputed:
			ec.exit.Status = models.ExitDisputed
		default:
			ec.exit.Status = models.ExitInspectionCompleted
		}
		if err := s.exitRepo.Save(ctx, tx, ec.exit); err != nil {
			return err
		}
		result = st
		return nil
	})
	if err != nil {
		return nil, err
	}

	other := ec.property.OwnerID
	if party == settlement.Owner {
		other = ec.booking.TenantID
	}
	note := Notification{
		Recipient: other,
		Title:     "Settlement " + string(result.Status),
		Message:   fmt.Sprintf("The %s responded to the settlement for '%s'. Status: %s.", party, ec.property.Title, result.Status),
		Link:      exitLink(exitID),
	}
	if result.Status == models.SettlementAccepted {
		note.Title = "Lease terminated"
		note.Message = fmt.Sprintf("Both parties accepted the settlement for '%s'. The lease ends on %s.", ec.property.Title, dateString(ec.exit.DesiredMoveOut))
		notifyAll(ctx, s.notifier, "EarlyExitService", note, withRecipient(note, actorID))
		return result, nil
	}
	notifyAll(ctx, s.notifier, "EarlyExitService", note)
	return result, nil
}

func (s *earlyExitService) ReviseDeductions(ctx context.Context, exitID uint, ownerID string, deductions decimal.Decimal, note string) (*models.Settlement, error) {
	if deductions.IsNegative() {
		return nil, fmt.Errorf("%w: deductions cannot be negative", ErrValidation)
	}

	var result *models.Settlement
	var ec *exitContext

	err := s.exitRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		ec, err = s.loadExit(ctx, tx, exitID)
		if err != nil {
			return err
		}
		if ec.party(ownerID) != settlement.Owner {
			return fmt.Errorf("%w: only the property owner can revise deductions", ErrForbidden)
		}

		st, err := s.exitRepo.FindSettlement(ctx, tx, ec.exit.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: no settlement has been generated", ErrInvalidState)
		}
		if err != nil {
			return err
		}

		amounts := settlement.Calculate(settlement.Inputs{
			PenaltyAmount:   ec.exit.PenaltyAmount,
			SecurityDeposit: ec.booking.SecurityDeposit,
			Deductions:      deductions,
		})
		if err := settlement.Reopen(st, amounts); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidState, err)
		}
		entry := "owner revised deductions to " + deductions.StringFixed(2)
		if note = strings.TrimSpace(note); note != "" {
			entry += ": " + note
		}
		if st.DisputeComments != "" {
			st.DisputeComments += "\n" + entry
		} else {
			st.DisputeComments = entry
		}
		if err := s.exitRepo.SaveSettlement(ctx, tx, st); err != nil {
			return err
		}

		ec.exit.Deductions = deductions
		ec.exit.RefundAmount = amounts.NetRefundToTenant
		ec.exit.Status = models.ExitInspectionCompleted
		if err := s.exitRepo.Save(ctx, tx, ec.exit); err != nil {
			return err
		}
		result = st
		return nil
	})
	if err != nil {
		return nil, err
	}

	notifyAll(ctx, s.notifier, "EarlyExitService", Notification{
		Recipient: ec.booking.TenantID,
		Title:     "Settlement revised",
		Message:   fmt.Sprintf("The owner of '%s' revised deductions to %s. Please review the settlement again.", ec.property.Title, deductions.StringFixed(2)),
		Link:      exitLink(exitID),
	})
	return result, nil
}

func (s *earlyExitService) GetEarlyExit(ctx context.Context, exitID uint, actorID string) (*models.EarlyExitRequest, error) {
	exit, err := s.exitRepo.FindDetailed(ctx, exitID)
	if err != nil {
		return nil, notFound(err, "early exit request")
	}
	if exit.Booking == nil {
		return nil, fmt.Errorf("booking %w for early exit request %d", ErrNotFound, exitID)
	}
	if exit.Booking.IsTenant(actorID) {
		return exit, nil
	}
	if exit.Inspection != nil && exit.Inspection.InspectorID != nil && *exit.Inspection.InspectorID == actorID {
		return exit, nil
	}
	property, err := s.propertyRepo.FindByID(ctx, nil, exit.Booking.PropertyID)
	if err != nil {
		return nil, notFound(err, "property")
	}
	if !property.IsOwner(actorID) {
		return nil, fmt.Errorf("%w: not a participant of this early exit", ErrForbidden)
	}
	return exit, nil
}

func withRecipient(n Notification, recipient string) Notification {
	n.Recipient = recipient
	return n
}

func exitLink(id uint) string {
	return fmt.Sprintf("/early-exits/%d", id)
}
