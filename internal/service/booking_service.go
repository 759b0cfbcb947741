package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/interval"
	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/models"
	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/repository"
	"gorm.io/gorm"
)

// MinStayDays is the shortest bookable stay.
const MinStayDays = 1

type BookingService interface {
	CreateBooking(ctx context.Context, tenantID string, propertyID uint, start, end time.Time) (*models.Booking, error)
	DecideBooking(ctx context.Context, bookingID uint, actorID string, decision Decision) (*models.Booking, error)
	CancelBooking(ctx context.Context, bookingID uint, actorID, reason string) (*models.Booking, error)
	FinalizeBooking(ctx context.Context, bookingID uint, actorID string) (*models.Booking, error)
	CompleteEndedLeases(ctx context.Context) (int, error)
	GetBooking(ctx context.Context, id uint, actorID string) (*models.Booking, error)
	ListPropertyBookings(ctx context.Context, propertyID uint, actorID string, status *models.BookingStatus) ([]models.Booking, error)
	ListTenantBookings(ctx context.Context, tenantID string) ([]models.Booking, error)
	PropertyStatus(ctx context.Context, propertyID uint) (*PropertyStatus, error)
	HasActiveTenancy(ctx context.Context, propertyID uint) (bool, error)
}

// PropertyStatus summarises a property's calendar.
type PropertyStatus struct {
	Property *models.Property
	Counts   map[models.BookingStatus]int64
	Blocked  []interval.Range
	Locked   bool
}

type bookingService struct {
	bookingRepo  repository.BookingRepository
	propertyRepo repository.PropertyRepository
	index        *interval.Index
	options
}

func NewBookingService(bookingRepo repository.BookingRepository, propertyRepo repository.PropertyRepository, opts ...Option) BookingService {
	return &bookingService{
		bookingRepo:  bookingRepo,
		propertyRepo: propertyRepo,
		index:        interval.NewIndex(bookingRepo.FindBlocking),
		options:      buildOptions(opts),
	}
}

func (s *bookingService) today() time.Time {
	return interval.Day(s.now())
}

// validateStay applies the date rules every new booking must satisfy.
func validateStay(r interval.Range, today time.Time) error {
	if r.Start.Before(today) {
		return fmt.Errorf("%w: cannot book dates in the past", ErrInvalidRange)
	}
	if !r.Start.Before(r.End) {
		return fmt.Errorf("%w: end date must be after start date", ErrInvalidRange)
	}
	if r.Days() < MinStayDays {
		return fmt.Errorf("%w: minimum booking duration is %d day", ErrInvalidRange, MinStayDays)
	}
	return nil
}

func (s *bookingService) CreateBooking(ctx context.Context, tenantID string, propertyID uint, start, end time.Time) (*models.Booking, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, fmt.Errorf("%w: tenant is required", ErrValidation)
	}
	stay := interval.NewRange(start, end)
	if err := validateStay(stay, s.today()); err != nil {
		return nil, err
	}

	var result *models.Booking
	var property *models.Property

	err := s.bookingRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. Lock the property row, serializing every check-then-write on its calendar
		p, err := s.propertyRepo.FindByIDForUpdate(ctx, tx, propertyID)
		if err != nil {
			return notFound(err, "property")
		}
		property = p

		if property.IsOwner(tenantID) {
			return fmt.Errorf("%w: owners cannot book their own property", ErrForbidden)
		}

		// 2. Check overlap with pending/approved bookings
		conflict, err := s.index.HasConflict(ctx, tx, propertyID, stay, 0)
		if err != nil {
			return err
		}
		if conflict {
			return ErrConflict
		}

		// 3. Snapshot the money terms and insert
		booking := &models.Booking{
			TenantID:        tenantID,
			PropertyID:      propertyID,
			StartDate:       stay.Start,
			EndDate:         stay.End,
			MonthlyRent:     property.MonthlyRent,
			SecurityDeposit: property.SecurityDeposit,
			LockInMonths:    property.LockInMonths,
			Status:          models.StatusPending,
		}
		if err := s.bookingRepo.Create(ctx, tx, booking); err != nil {
			return translateWrite(err)
		}
		result = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	notifyAll(ctx, s.notifier, "BookingService", Notification{
		Recipient: property.OwnerID,
		Title:     "New booking request",
		Message:   fmt.Sprintf("New booking request for '%s' from %s to %s.", property.Title, dateString(result.StartDate), dateString(result.EndDate)),
		Link:      bookingLink(result.ID),
	})
	return result, nil
}

// lockBooking loads a booking, locks its property and reloads the booking so
// the returned status is the one committed before the lock was taken.
func (s *bookingService) lockBooking(ctx context.Context, tx *gorm.DB, bookingID uint) (*models.Booking, *models.Property, error) {
	booking, err := s.bookingRepo.FindByID(ctx, tx, bookingID)
	if err != nil {
		return nil, nil, notFound(err, "booking")
	}
	property, err := s.propertyRepo.FindByIDForUpdate(ctx, tx, booking.PropertyID)
	if err != nil {
		return nil, nil, notFound(err, "property")
	}
	booking, err = s.bookingRepo.FindByID(ctx, tx, bookingID)
	if err != nil {
		return nil, nil, notFound(err, "booking")
	}
	return booking, property, nil
}

func (s *bookingService) DecideBooking(ctx context.Context, bookingID uint, actorID string, decision Decision) (*models.Booking, error) {
	var result *models.Booking
	var property *models.Property

	err := s.bookingRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking, p, err := s.lockBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		property = p

		if !property.IsOwner(actorID) {
			return fmt.Errorf("%w: only the property owner can decide on a booking", ErrForbidden)
		}
		if booking.Status != models.StatusPending {
			return fmt.Errorf("%w: booking is %s", ErrInvalidState, booking.Status)
		}

		var next models.BookingStatus
		switch decision {
		case DecisionApprove:
			// another booking may have been approved since this one was requested
			stay := interval.NewRange(booking.StartDate, booking.EndDate)
			conflict, err := s.index.HasConflict(ctx, tx, booking.PropertyID, stay, booking.ID)
			if err != nil {
				return err
			}
			if conflict {
				return ErrConflict
			}
			next = models.StatusApproved
		case DecisionReject:
			next = models.StatusRejected
		default:
			return fmt.Errorf("%w: unknown decision", ErrValidation)
		}

		now := s.now()
		if err := s.bookingRepo.Update(ctx, tx, booking.ID, map[string]any{
			"status":     next,
			"decided_at": now,
		}); err != nil {
			return translateWrite(err)
		}
		booking.Status = next
		booking.DecidedAt = &now
		result = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	notifyAll(ctx, s.notifier, "BookingService", Notification{
		Recipient: result.TenantID,
		Title:     "Booking " + string(result.Status),
		Message:   fmt.Sprintf("Your booking for '%s' was %s.", property.Title, result.Status),
		Link:      bookingLink(result.ID),
	})
	return result, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, bookingID uint, actorID, reason string) (*models.Booking, error) {
	var result *models.Booking
	var property *models.Property

	err := s.bookingRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking, p, err := s.lockBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		property = p

		if !booking.IsTenant(actorID) {
			return fmt.Errorf("%w: only the tenant can cancel a booking", ErrForbidden)
		}
		if booking.Status != models.StatusPending && booking.Status != models.StatusApproved {
			return fmt.Errorf("%w: booking is %s", ErrInvalidState, booking.Status)
		}
		if !interval.Day(booking.StartDate).After(s.today()) {
			return fmt.Errorf("%w: cannot cancel on or after the check-in date", ErrInvalidState)
		}
		if strings.TrimSpace(reason) == "" {
			return fmt.Errorf("%w: cancellation reason is required", ErrValidation)
		}

		if err := s.bookingRepo.Update(ctx, tx, booking.ID, map[string]any{
			"status":              models.StatusCancelled,
			"cancellation_reason": reason,
		}); err != nil {
			return err
		}
		booking.Status = models.StatusCancelled
		booking.CancellationReason = &reason
		result = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.appointments.CancelAppointments(ctx, result.ID); err != nil {
		log.Printf("[BookingService] failed to cancel appointments for booking %d: %v", result.ID, err)
	}
	notifyAll(ctx, s.notifier, "BookingService", Notification{
		Recipient: property.OwnerID,
		Title:     "Booking cancelled",
		Message:   fmt.Sprintf("The booking for '%s' starting %s was cancelled: %s", property.Title, dateString(result.StartDate), reason),
		Link:      bookingLink(result.ID),
	})
	return result, nil
}

func (s *bookingService) FinalizeBooking(ctx context.Context, bookingID uint, actorID string) (*models.Booking, error) {
	var result *models.Booking
	var property *models.Property

	err := s.bookingRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking, p, err := s.lockBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		property = p

		if !property.IsOwner(actorID) {
			return fmt.Errorf("%w: only the property owner can finalize a booking", ErrForbidden)
		}
		if booking.Status != models.StatusApproved {
			return fmt.Errorf("%w: booking is %s", ErrInvalidState, booking.Status)
		}

		now := s.now()
		if err := s.bookingRepo.Update(ctx, tx, booking.ID, map[string]any{
			"status":       models.StatusRentedOut,
			"finalized_at": now,
		}); err != nil {
			return err
		}
		booking.Status = models.StatusRentedOut
		booking.FinalizedAt = &now
		result = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	notifyAll(ctx, s.notifier, "BookingService", Notification{
		Recipient: result.TenantID,
		Title:     "Booking finalized",
		Message:   fmt.Sprintf("'%s' is now rented out to you.", property.Title),
		Link:      bookingLink(result.ID),
	})
	return result, nil
}

// CompleteEndedLeases closes every rented-out booking whose end date has passed,
// and every approved booking whose early exit terminated the lease once the
// move-out date is reached.
func (s *bookingService) CompleteEndedLeases(ctx context.Context) (int, error) {
	completed := 0
	today := s.today()

	err := s.bookingRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ended, err := s.bookingRepo.FindEndedRentals(ctx, tx, today)
		if err != nil {
			return err
		}
		exited, err := s.bookingRepo.FindTerminatedEarly(ctx, tx, today)
		if err != nil {
			return err
		}
		ended = append(ended, exited...)
		now := s.now()
		for _, b := range ended {
			if err := s.bookingRepo.Update(ctx, tx, b.ID, map[string]any{
				"status":       models.StatusCompleted,
				"completed_at": now,
			}); err != nil {
				return err
			}
			completed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return completed, nil
}

func (s *bookingService) GetBooking(ctx context.Context, id uint, actorID string) (*models.Booking, error) {
	booking, err := s.bookingRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, notFound(err, "booking")
	}
	if booking.IsTenant(actorID) {
		return booking, nil
	}
	property, err := s.propertyRepo.FindByID(ctx, nil, booking.PropertyID)
	if err != nil {
		return nil, notFound(err, "property")
	}
	if !property.IsOwner(actorID) {
		return nil, fmt.Errorf("%w: not a participant of this booking", ErrForbidden)
	}
	return booking, nil
}

func (s *bookingService) ListPropertyBookings(ctx context.Context, propertyID uint, actorID string, status *models.BookingStatus) ([]models.Booking, error) {
	property, err := s.propertyRepo.FindByID(ctx, nil, propertyID)
	if err != nil {
		return nil, notFound(err, "property")
	}
	if !property.IsOwner(actorID) {
		return nil, fmt.Errorf("%w: only the property owner can list its bookings", ErrForbidden)
	}
	return s.bookingRepo.FindByPropertyID(ctx, propertyID, status)
}

func (s *bookingService) ListTenantBookings(ctx context.Context, tenantID string) ([]models.Booking, error) {
	return s.bookingRepo.FindByTenantID(ctx, tenantID)
}

func (s *bookingService) PropertyStatus(ctx context.Context, propertyID uint) (*PropertyStatus, error) {
	property, err := s.propertyRepo.FindByID(ctx, nil, propertyID)
	if err != nil {
		return nil, notFound(err, "property")
	}

	bookings, err := s.bookingRepo.FindByPropertyID(ctx, propertyID, nil)
	if err != nil {
		return nil, err
	}

	status := &PropertyStatus{Property: property, Counts: map[models.BookingStatus]int64{}}
	for _, b := range bookings {
		status.Counts[b.Status]++
		if b.Status.Blocking() {
			status.Blocked = append(status.Blocked, interval.NewRange(b.StartDate, b.EndDate))
		}
		if b.Status == models.StatusApproved || b.Status == models.StatusRentedOut {
			status.Locked = true
		}
	}
	return status, nil
}

// HasActiveTenancy reports whether the property has an approved or rented-out
// booking. The catalog refuses edits and deletion while this holds.
func (s *bookingService) HasActiveTenancy(ctx context.Context, propertyID uint) (bool, error) {
	return s.bookingRepo.ExistsWithStatus(ctx, propertyID, models.TenancyStatuses)
}

func dateString(t time.Time) string {
	return t.Format(time.DateOnly)
}

func bookingLink(id uint) string {
	return fmt.Sprintf("/bookings/%d", id)
}
