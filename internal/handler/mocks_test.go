package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/middleware"
	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/models"
	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/service"
	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/settlement"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

const actorHeader = "X-Test-Actor"

type mockBookingService struct {
	createBookingFunc        func(ctx context.Context, tenantID string, propertyID uint, start, end time.Time) (*models.Booking, error)
	decideBookingFunc        func(ctx context.Context, bookingID uint, actorID string, decision service.Decision) (*models.Booking, error)
	cancelBookingFunc        func(ctx context.Context, bookingID uint, actorID, reason string) (*models.Booking, error)
	finalizeBookingFunc      func(ctx context.Context, bookingID uint, actorID string) (*models.Booking, error)
	getBookingFunc           func(ctx context.Context, id uint, actorID string) (*models.Booking, error)
	listPropertyBookingsFunc func(ctx context.Context, propertyID uint, actorID string, status *models.BookingStatus) ([]models.Booking, error)
	listTenantBookingsFunc   func(ctx context.Context, tenantID string) ([]models.Booking, error)
	propertyStatusFunc       func(ctx context.Context, propertyID uint) (*service.PropertyStatus, error)
	hasActiveTenancyFunc     func(ctx context.Context, propertyID uint) (bool, error)
}

func (m *mockBookingService) CreateBooking(ctx context.Context, tenantID string, propertyID uint, start, end time.Time) (*models.Booking, error) {
	return m.createBookingFunc(ctx, tenantID, propertyID, start, end)
}

func (m *mockBookingService) DecideBooking(ctx context.Context, bookingID uint, actorID string, decision service.Decision) (*models.Booking, error) {
	return m.decideBookingFunc(ctx, bookingID, actorID, decision)
}

func (m *mockBookingService) CancelBooking(ctx context.Context, bookingID uint, actorID, reason string) (*models.Booking, error) {
	return m.cancelBookingFunc(ctx, bookingID, actorID, reason)
}

func (m *mockBookingService) FinalizeBooking(ctx context.Context, bookingID uint, actorID string) (*models.Booking, error) {
	return m.finalizeBookingFunc(ctx, bookingID, actorID)
}

func (m *mockBookingService) CompleteEndedLeases(context.Context) (int, error) {
	return 0, nil
}

func (m *mockBookingService) GetBooking(ctx context.Context, id uint, actorID string) (*models.Booking, error) {
	return m.getBookingFunc(ctx, id, actorID)
}

func (m *mockBookingService) ListPropertyBookings(ctx context.Context, propertyID uint, actorID string, status *models.BookingStatus) ([]models.Booking, error) {
	return m.listPropertyBookingsFunc(ctx, propertyID, actorID, status)
}

func (m *mockBookingService) ListTenantBookings(ctx context.Context, tenantID string) ([]models.Booking, error) {
	return m.listTenantBookingsFunc(ctx, tenantID)
}

func (m *mockBookingService) PropertyStatus(ctx context.Context, propertyID uint) (*service.PropertyStatus, error) {
	return m.propertyStatusFunc(ctx, propertyID)
}

func (m *mockBookingService) HasActiveTenancy(ctx context.Context, propertyID uint) (bool, error) {
	return m.hasActiveTenancyFunc(ctx, propertyID)
}

type mockEarlyExitService struct {
	requestEarlyExitFunc   func(ctx context.Context, bookingID uint, tenantID string, desiredMoveOut time.Time) (*models.EarlyExitRequest, error)
	reviseMoveOutFunc      func(ctx context.Context, exitID uint, tenantID string, desiredMoveOut time.Time) (*models.EarlyExitRequest, error)
	ownerReviewExitFunc    func(ctx context.Context, exitID uint, ownerID string, decision service.Decision, comments string) (*models.EarlyExitRequest, error)
	scheduleInspectionFunc func(ctx context.Context, exitID uint, ownerID string, scheduledDate time.Time, inspectorID *string) (*models.InspectionReport, error)
	submitInspectionFunc   func(ctx context.Context, exitID uint, actorID string, in service.InspectionInput) (*models.Settlement, error)
	reviewSettlementFunc   func(ctx context.Context, exitID uint, actorID string, action settlement.Action, comments string) (*models.Settlement, error)
	reviseDeductionsFunc   func(ctx context.Context, exitID uint, ownerID string, deductions decimal.Decimal, note string) (*models.Settlement, error)
	getEarlyExitFunc       func(ctx context.Context, exitID uint, actorID string) (*models.EarlyExitRequest, error)
}

func (m *mockEarlyExitService) RequestEarlyExit(ctx context.Context, bookingID uint, tenantID string, desiredMoveOut time.Time) (*models.EarlyExitRequest, error) {
	return m.requestEarlyExitFunc(ctx, bookingID, tenantID, desiredMoveOut)
}

func (m *mockEarlyExitService) ReviseMoveOut(ctx context.Context, exitID uint, tenantID string, desiredMoveOut time.Time) (*models.EarlyExitRequest, error) {
	return m.reviseMoveOutFunc(ctx, exitID, tenantID, desiredMoveOut)
}

func (m *mockEarlyExitService) OwnerReviewExit(ctx context.Context, exitID uint, ownerID string, decision service.Decision, comments string) (*models.EarlyExitRequest, error) {
	return m.ownerReviewExitFunc(ctx, exitID, ownerID, decision, comments)
}

func (m *mockEarlyExitService) ScheduleInspection(ctx context.Context, exitID uint, ownerID string, scheduledDate time.Time, inspectorID *string) (*models.InspectionReport, error) {
	return m.scheduleInspectionFunc(ctx, exitID, ownerID, scheduledDate, inspectorID)
}

func (m *mockEarlyExitService) SubmitInspection(ctx context.Context, exitID uint, actorID string, in service.InspectionInput) (*models.Settlement, error) {
	return m.submitInspectionFunc(ctx, exitID, actorID, in)
}

func (m *mockEarlyExitService) ReviewSettlement(ctx context.Context, exitID uint, actorID string, action settlement.Action, comments string) (*models.Settlement, error) {
	return m.reviewSettlementFunc(ctx, exitID, actorID, action, comments)
}

func (m *mockEarlyExitService) ReviseDeductions(ctx context.Context, exitID uint, ownerID string, deductions decimal.Decimal, note string) (*models.Settlement, error) {
	return m.reviseDeductionsFunc(ctx, exitID, ownerID, deductions, note)
}

func (m *mockEarlyExitService) GetEarlyExit(ctx context.Context, exitID uint, actorID string) (*models.EarlyExitRequest, error) {
	return m.getEarlyExitFunc(ctx, exitID, actorID)
}

type mockMessageService struct {
	postMessageFunc  func(ctx context.Context, bookingID uint, senderID, content string) (*models.BookingMessage, error)
	listMessagesFunc func(ctx context.Context, bookingID uint, viewerID string) ([]models.BookingMessage, error)
	markReadFunc     func(ctx context.Context, bookingID uint, viewerID string) (int64, error)
	unreadCountFunc  func(ctx context.Context, bookingID uint, viewerID string) (int64, error)
}

func (m *mockMessageService) PostMessage(ctx context.Context, bookingID uint, senderID, content string) (*models.BookingMessage, error) {
	return m.postMessageFunc(ctx, bookingID, senderID, content)
}

func (m *mockMessageService) ListMessages(ctx context.Context, bookingID uint, viewerID string) ([]models.BookingMessage, error) {
	return m.listMessagesFunc(ctx, bookingID, viewerID)
}

func (m *mockMessageService) MarkRead(ctx context.Context, bookingID uint, viewerID string) (int64, error) {
	return m.markReadFunc(ctx, bookingID, viewerID)
}

func (m *mockMessageService) UnreadCount(ctx context.Context, bookingID uint, viewerID string) (int64, error) {
	return m.unreadCountFunc(ctx, bookingID, viewerID)
}

type routeRegistrar interface {
	RegisterRoutes(g *echo.Group)
}

// newServer mounts h the way main does, with the bearer check replaced by a
// header naming the actor.
func newServer(h routeRegistrar) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler
	g := e.Group("/api/v1", func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			middleware.SetActorID(c, c.Request().Header.Get(actorHeader))
			return next(c)
		}
	})
	h.RegisterRoutes(g)
	return e
}

func do(t *testing.T, e *echo.Echo, method, path, actor, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	req.Header.Set(actorHeader, actor)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}
