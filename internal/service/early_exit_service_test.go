package service

import (
	"context"
	"testing"
	"time"

	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/models"
	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/repository"
	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/settlement"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// leaseFixture is a 120-day approved lease starting in five days:
// rent 1000, deposit 2000, three-month lock-in.
func leaseFixture(t *testing.T) (*testEnv, *models.Booking) {
	t.Helper()
	env := newTestEnv(t)
	env.addProperty(t, 1, "1000", "2000", 3)
	return env, env.approvedBooking(t, 1, day(5), day(125))
}

// scheduledExit walks a lease up to inspection_scheduled with the move-out
// 60 days before the lease end.
func scheduledExit(t *testing.T) (*testEnv, *models.EarlyExitRequest) {
	t.Helper()
	env, b := leaseFixture(t)
	ctx := context.Background()

	exit, err := env.exits.RequestEarlyExit(ctx, b.ID, tenant, day(65))
	require.NoError(t, err)
	_, err = env.exits.OwnerReviewExit(ctx, exit.ID, owner, DecisionApprove, "")
	require.NoError(t, err)
	inspector := "inspector-1"
	_, err = env.exits.ScheduleInspection(ctx, exit.ID, owner, day(66), &inspector)
	require.NoError(t, err)
	return env, exit
}

func (e *testEnv) reloadExit(t *testing.T, id uint) *models.EarlyExitRequest {
	t.Helper()
	var exit models.EarlyExitRequest
	require.NoError(t, e.db.First(&exit, id).Error)
	return &exit
}

func (e *testEnv) settlementCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&models.Settlement{}).Count(&n).Error)
	return n
}

func TestRequestEarlyExit_PenaltyAndNotice(t *testing.T) {
	env, b := leaseFixture(t)

	exit, err := env.exits.RequestEarlyExit(context.Background(), b.ID, tenant, day(65))

	require.NoError(t, err)
	assert.Equal(t, models.ExitRequested, exit.Status)
	assert.Equal(t, day(0), exit.RequestDate)
	assert.Equal(t, 65, exit.NoticeGivenDays)
	assertMoney(t, "3000", exit.PenaltyAmount, "penalty")

	stored := env.reloadExit(t, exit.ID)
	assertMoney(t, "3000", stored.PenaltyAmount, "stored penalty")

	notes := env.notifier.sentTo(owner)
	require.NotEmpty(t, notes)
	assert.Equal(t, "Early exit requested", notes[len(notes)-1].Title)
}

func TestRequestEarlyExit_MoveOutOnLeaseEnd(t *testing.T) {
	env, b := leaseFixture(t)

	exit, err := env.exits.RequestEarlyExit(context.Background(), b.ID, tenant, day(125))

	require.NoError(t, err)
	assert.True(t, exit.PenaltyAmount.IsZero())
}

func TestRequestEarlyExit_Rules(t *testing.T) {
	env, b := leaseFixture(t)
	ctx := context.Background()

	_, err := env.exits.RequestEarlyExit(ctx, b.ID, owner, day(65))
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.exits.RequestEarlyExit(ctx, b.ID, tenant, day(-1))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = env.exits.RequestEarlyExit(ctx, b.ID, tenant, day(126))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = env.exits.RequestEarlyExit(ctx, 999, tenant, day(65))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.exits.RequestEarlyExit(ctx, b.ID, tenant, day(65))
	require.NoError(t, err)

	_, err = env.exits.RequestEarlyExit(ctx, b.ID, tenant, day(70))
	assert.ErrorIs(t, err, ErrDuplicateRequest)
	assert.Equal(t, "duplicate_request", KindOf(err))
}

func TestRequestEarlyExit_RequiresApprovedBooking(t *testing.T) {
	env := newTestEnv(t)
	env.addProperty(t, 1, "1000", "2000", 3)
	ctx := context.Background()

	pending, err := env.bookings.CreateBooking(ctx, tenant, 1, day(5), day(125))
	require.NoError(t, err)
	_, err = env.exits.RequestEarlyExit(ctx, pending.ID, tenant, day(65))
	assert.ErrorIs(t, err, ErrInvalidState)

	rented := env.insertBooking(t, &models.Booking{
		TenantID: tenant, PropertyID: 1, StartDate: day(200), EndDate: day(300),
		MonthlyRent: money("1000"), SecurityDeposit: money("2000"), Status: models.StatusRentedOut,
	})
	_, err = env.exits.RequestEarlyExit(ctx, rented.ID, tenant, day(250))
	assert.ErrorIs(t, err, ErrInvalidState)
}

// cancelOnLock cancels the booking inside the caller's transaction right
// before the property lock is granted, as a cancel committed while the
// request was queued on the lock would appear.
type cancelOnLock struct {
	repository.PropertyRepository
	bookingID uint
}

func (r cancelOnLock) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Property, error) {
	err := tx.Model(&models.Booking{}).Where("id = ?", r.bookingID).Update("status", models.StatusCancelled).Error
	if err != nil {
		return nil, err
	}
	return r.PropertyRepository.FindByIDForUpdate(ctx, tx, id)
}

func TestRequestEarlyExit_BookingCancelledWhileWaitingForLock(t *testing.T) {
	env, b := leaseFixture(t)
	exits := NewEarlyExitService(
		repository.NewEarlyExitRepository(env.db),
		repository.NewBookingRepository(env.db),
		cancelOnLock{PropertyRepository: repository.NewPropertyRepository(env.db), bookingID: b.ID},
		WithClock(func() time.Time { return testNow }),
	)

	exit, err := exits.RequestEarlyExit(context.Background(), b.ID, tenant, day(65))

	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Nil(t, exit)
	var n int64
	require.NoError(t, env.db.Model(&models.EarlyExitRequest{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestReviseMoveOut(t *testing.T) {
	env, b := leaseFixture(t)
	ctx := context.Background()

	exit, err := env.exits.RequestEarlyExit(ctx, b.ID, tenant, day(65))
	require.NoError(t, err)

	_, err = env.exits.ReviseMoveOut(ctx, exit.ID, owner, day(95))
	assert.ErrorIs(t, err, ErrForbidden)

	revised, err := env.exits.ReviseMoveOut(ctx, exit.ID, tenant, day(95))
	require.NoError(t, err)
	assert.Equal(t, day(95), revised.DesiredMoveOut)
	assert.Equal(t, 95, revised.NoticeGivenDays)
	// 30 days left, still inside the lock-in: 1000 * 1 * 1.5
	assertMoney(t, "1500", revised.PenaltyAmount, "penalty")
	assertMoney(t, "1500", env.reloadExit(t, exit.ID).PenaltyAmount, "stored penalty")

	_, err = env.exits.OwnerReviewExit(ctx, exit.ID, owner, DecisionApprove, "")
	require.NoError(t, err)
	_, err = env.exits.ReviseMoveOut(ctx, exit.ID, tenant, day(80))
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestOwnerReviewExit_Reject(t *testing.T) {
	env, b := leaseFixture(t)
	ctx := context.Background()

	exit, err := env.exits.RequestEarlyExit(ctx, b.ID, tenant, day(65))
	require.NoError(t, err)

	_, err = env.exits.OwnerReviewExit(ctx, exit.ID, tenant, DecisionApprove, "")
	assert.ErrorIs(t, err, ErrForbidden)

	rejected, err := env.exits.OwnerReviewExit(ctx, exit.ID, owner, DecisionReject, "Lock-in applies")
	require.NoError(t, err)
	assert.Equal(t, models.ExitOwnerRejected, rejected.Status)
	assert.Equal(t, "Lock-in applies", rejected.OwnerComments)
	assert.NotNil(t, rejected.OwnerResponseDate)

	// rejection is terminal
	_, err = env.exits.OwnerReviewExit(ctx, exit.ID, owner, DecisionApprove, "")
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = env.exits.ScheduleInspection(ctx, exit.ID, owner, day(10), nil)
	assert.ErrorIs(t, err, ErrInvalidState)

	notes := env.notifier.sentTo(tenant)
	require.NotEmpty(t, notes)
	assert.Contains(t, notes[len(notes)-1].Message, "Lock-in applies")
}

func TestScheduleInspection_Rules(t *testing.T) {
	env, b := leaseFixture(t)
	ctx := context.Background()

	exit, err := env.exits.RequestEarlyExit(ctx, b.ID, tenant, day(65))
	require.NoError(t, err)

	_, err = env.exits.ScheduleInspection(ctx, exit.ID, owner, day(10), nil)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = env.exits.OwnerReviewExit(ctx, exit.ID, owner, DecisionApprove, "")
	require.NoError(t, err)

	_, err = env.exits.ScheduleInspection(ctx, exit.ID, tenant, day(10), nil)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.exits.ScheduleInspection(ctx, exit.ID, owner, day(-2), nil)
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = env.exits.SubmitInspection(ctx, exit.ID, tenant, InspectionInput{})
	assert.ErrorIs(t, err, ErrInvalidState)

	report, err := env.exits.ScheduleInspection(ctx, exit.ID, owner, day(10), nil)
	require.NoError(t, err)
	assert.Equal(t, models.InspectionPending, report.Status)
	assert.Nil(t, report.InspectorID)
	assert.Equal(t, models.ExitInspectionScheduled, env.reloadExit(t, exit.ID).Status)

	_, err = env.exits.ScheduleInspection(ctx, exit.ID, owner, day(11), nil)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestEarlyExit_EndToEnd(t *testing.T) {
	env, exit := scheduledExit(t)
	ctx := context.Background()

	st, err := env.exits.SubmitInspection(ctx, exit.ID, owner, InspectionInput{
		Checklist:    map[string]any{"walls": "ok", "keys_returned": true},
		Notes:        "Clean handover",
		DamageAmount: decimal.Zero,
		ImageURLs:    []string{"https://cdn.example.com/a.jpg", " ", "https://cdn.example.com/b.jpg"},
	})
	require.NoError(t, err)

	assert.Equal(t, models.SettlementDraft, st.Status)
	assertMoney(t, "3000", st.TotalDue, "total due")
	assertMoney(t, "2000", st.TotalCredit, "total credit")
	assertMoney(t, "0", st.NetRefundToTenant, "refund")
	assertMoney(t, "1000", st.NetPayableToOwner, "payable")

	stored := env.reloadExit(t, exit.ID)
	assert.Equal(t, models.ExitInspectionCompleted, stored.Status)
	assertMoney(t, "0", stored.Deductions, "deductions")
	assertMoney(t, "0", stored.RefundAmount, "refund amount")

	st, err = env.exits.ReviewSettlement(ctx, exit.ID, tenant, settlement.Accept, "")
	require.NoError(t, err)
	assert.Equal(t, models.SettlementTenantAccepted, st.Status)
	assert.Equal(t, models.ExitInspectionCompleted, env.reloadExit(t, exit.ID).Status)

	st, err = env.exits.ReviewSettlement(ctx, exit.ID, owner, settlement.Accept, "")
	require.NoError(t, err)
	assert.Equal(t, models.SettlementAccepted, st.Status)
	assert.True(t, st.TenantAccepted)
	assert.True(t, st.OwnerAccepted)
	assert.NotNil(t, st.AcceptedAt)
	assert.Equal(t, models.ExitLeaseTerminated, env.reloadExit(t, exit.ID).Status)

	detail, err := env.exits.GetEarlyExit(ctx, exit.ID, tenant)
	require.NoError(t, err)
	require.NotNil(t, detail.Inspection)
	assert.Equal(t, models.InspectionCompleted, detail.Inspection.Status)
	assert.Len(t, detail.Inspection.Images, 2)
	assert.Equal(t, "ok", detail.Inspection.Checklist["walls"])
	require.NotNil(t, detail.Inspection.SubmittedBy)
	assert.Equal(t, owner, *detail.Inspection.SubmittedBy)
	require.NotNil(t, detail.Settlement)
	assert.Equal(t, models.SettlementAccepted, detail.Settlement.Status)

	// the accepted settlement is frozen
	_, err = env.exits.ReviewSettlement(ctx, exit.ID, tenant, settlement.Dispute, "wait")
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = env.exits.ReviseDeductions(ctx, exit.ID, owner, money("100"), "")
	assert.ErrorIs(t, err, ErrInvalidState)

	assert.Len(t, env.notifier.sentTo("inspector-1"), 1)
}

func TestSubmitInspection_Twice(t *testing.T) {
	env, exit := scheduledExit(t)
	ctx := context.Background()

	_, err := env.exits.SubmitInspection(ctx, exit.ID, tenant, InspectionInput{DamageAmount: money("500")})
	require.NoError(t, err)

	_, err = env.exits.SubmitInspection(ctx, exit.ID, owner, InspectionInput{DamageAmount: money("900")})
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, int64(1), env.settlementCount(t))
	assertMoney(t, "500", env.reloadExit(t, exit.ID).Deductions, "deductions")
}

func TestSubmitInspection_Rules(t *testing.T) {
	env, exit := scheduledExit(t)
	ctx := context.Background()

	_, err := env.exits.SubmitInspection(ctx, exit.ID, stranger, InspectionInput{})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.exits.SubmitInspection(ctx, exit.ID, tenant, InspectionInput{DamageAmount: money("-1")})
	assert.ErrorIs(t, err, ErrValidation)

	assert.Zero(t, env.settlementCount(t))
}

func TestSettlement_DisputeAndRevise(t *testing.T) {
	env, exit := scheduledExit(t)
	ctx := context.Background()

	_, err := env.exits.SubmitInspection(ctx, exit.ID, owner, InspectionInput{DamageAmount: money("800")})
	require.NoError(t, err)

	_, err = env.exits.ReviewSettlement(ctx, exit.ID, owner, settlement.Accept, "")
	require.NoError(t, err)

	st, err := env.exits.ReviewSettlement(ctx, exit.ID, tenant, settlement.Dispute, "Scratches were there before")
	require.NoError(t, err)
	assert.Equal(t, models.SettlementDisputed, st.Status)
	assert.False(t, st.OwnerAccepted)
	assert.Equal(t, "tenant: Scratches were there before", st.DisputeComments)
	assert.Equal(t, models.ExitDisputed, env.reloadExit(t, exit.ID).Status)

	_, err = env.exits.ReviseDeductions(ctx, exit.ID, tenant, money("500"), "")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = env.exits.ReviseDeductions(ctx, exit.ID, owner, money("-5"), "")
	assert.ErrorIs(t, err, ErrValidation)

	st, err = env.exits.ReviseDeductions(ctx, exit.ID, owner, money("500"), "agreed on photos")
	require.NoError(t, err)
	assert.Equal(t, models.SettlementDraft, st.Status)
	assertMoney(t, "1500", st.TotalCredit, "total credit")
	assertMoney(t, "1500", st.NetPayableToOwner, "payable")
	assert.Contains(t, st.DisputeComments, "owner revised deductions to 500.00: agreed on photos")

	stored := env.reloadExit(t, exit.ID)
	assert.Equal(t, models.ExitInspectionCompleted, stored.Status)
	assertMoney(t, "500", stored.Deductions, "deductions")

	_, err = env.exits.ReviewSettlement(ctx, exit.ID, tenant, settlement.Accept, "")
	require.NoError(t, err)
	st, err = env.exits.ReviewSettlement(ctx, exit.ID, owner, settlement.Accept, "")
	require.NoError(t, err)
	assert.Equal(t, models.SettlementAccepted, st.Status)
	assert.Equal(t, models.ExitLeaseTerminated, env.reloadExit(t, exit.ID).Status)
}

func TestReviewSettlement_Rules(t *testing.T) {
	env, exit := scheduledExit(t)
	ctx := context.Background()

	_, err := env.exits.ReviewSettlement(ctx, exit.ID, tenant, settlement.Accept, "")
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = env.exits.SubmitInspection(ctx, exit.ID, tenant, InspectionInput{})
	require.NoError(t, err)

	_, err = env.exits.ReviewSettlement(ctx, exit.ID, stranger, settlement.Accept, "")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.exits.ReviewSettlement(ctx, exit.ID, tenant, settlement.Action(9), "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGetEarlyExit_Access(t *testing.T) {
	env, exit := scheduledExit(t)
	ctx := context.Background()

	for _, actor := range []string{tenant, owner, "inspector-1"} {
		_, err := env.exits.GetEarlyExit(ctx, exit.ID, actor)
		assert.NoError(t, err, actor)
	}

	_, err := env.exits.GetEarlyExit(ctx, exit.ID, stranger)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.exits.GetEarlyExit(ctx, 404, tenant)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCompleteEndedLeases_AfterEarlyExit(t *testing.T) {
	env, exit := scheduledExit(t)
	ctx := context.Background()

	_, err := env.exits.SubmitInspection(ctx, exit.ID, owner, InspectionInput{})
	require.NoError(t, err)
	_, err = env.exits.ReviewSettlement(ctx, exit.ID, tenant, settlement.Accept, "")
	require.NoError(t, err)
	_, err = env.exits.ReviewSettlement(ctx, exit.ID, owner, settlement.Accept, "")
	require.NoError(t, err)

	sweepOn := func(n int) BookingService {
		return NewBookingService(repository.NewBookingRepository(env.db), repository.NewPropertyRepository(env.db),
			WithClock(func() time.Time { return day(n) }))
	}

	// the tenant is still in until the move-out date
	completed, err := sweepOn(64).CompleteEndedLeases(ctx)
	require.NoError(t, err)
	assert.Zero(t, completed)
	locked, err := env.bookings.HasActiveTenancy(ctx, 1)
	require.NoError(t, err)
	assert.True(t, locked)

	completed, err = sweepOn(65).CompleteEndedLeases(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, completed)

	stored := env.reloadBooking(t, exit.BookingID)
	assert.Equal(t, models.StatusCompleted, stored.Status)
	assert.NotNil(t, stored.CompletedAt)
	locked, err = env.bookings.HasActiveTenancy(ctx, 1)
	require.NoError(t, err)
	assert.False(t, locked)
}
