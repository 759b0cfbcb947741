package handler

import (
	"net/http"

	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/dto"
	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/middleware"
	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/models"
	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/service"
	"github.com/labstack/echo/v4"
)

type BookingHandler struct {
	svc service.BookingService
}

func NewBookingHandler(svc service.BookingService) *BookingHandler {
	return &BookingHandler{svc: svc}
}

func (h *BookingHandler) RegisterRoutes(g *echo.Group) {
	properties := g.Group("/properties")
	properties.GET("/:id/status", h.GetPropertyStatus)
	properties.GET("/:id/tenancy-lock", h.GetTenancyLock)
	properties.POST("/:id/bookings", h.CreateBooking)
	properties.GET("/:id/bookings", h.ListPropertyBookings)

	bookings := g.Group("/bookings")
	bookings.GET("/mine", h.ListMyBookings)
	bookings.GET("/:id", h.GetBooking)
	bookings.POST("/:id/decision", h.DecideBooking)
	bookings.POST("/:id/cancel", h.CancelBooking)
	bookings.POST("/:id/finalize", h.FinalizeBooking)
}

func (h *BookingHandler) CreateBooking(c echo.Context) error {
	propertyID, err := parseID(c, "property")
	if err != nil {
		return err
	}

	var req dto.CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		return badRequest("start_date and end_date are required")
	}

	booking, err := h.svc.CreateBooking(c.Request().Context(), middleware.ActorID(c), propertyID, req.StartDate.Time, req.EndDate.Time)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) DecideBooking(c echo.Context) error {
	id, err := parseID(c, "booking")
	if err != nil {
		return err
	}

	var req dto.DecisionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	decision, err := service.ParseDecision(req.Decision)
	if err != nil {
		return fail(err)
	}

	booking, err := h.svc.DecideBooking(c.Request().Context(), id, middleware.ActorID(c), decision)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) CancelBooking(c echo.Context) error {
	id, err := parseID(c, "booking")
	if err != nil {
		return err
	}

	var req dto.CancelBookingRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}

	booking, err := h.svc.CancelBooking(c.Request().Context(), id, middleware.ActorID(c), req.Reason)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) FinalizeBooking(c echo.Context) error {
	id, err := parseID(c, "booking")
	if err != nil {
		return err
	}

	booking, err := h.svc.FinalizeBooking(c.Request().Context(), id, middleware.ActorID(c))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) GetBooking(c echo.Context) error {
	id, err := parseID(c, "booking")
	if err != nil {
		return err
	}

	booking, err := h.svc.GetBooking(c.Request().Context(), id, middleware.ActorID(c))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) ListPropertyBookings(c echo.Context) error {
	propertyID, err := parseID(c, "property")
	if err != nil {
		return err
	}

	var status *models.BookingStatus
	if s := c.QueryParam("status"); s != "" {
		bs := models.BookingStatus(s)
		status = &bs
	}

	bookings, err := h.svc.ListPropertyBookings(c.Request().Context(), propertyID, middleware.ActorID(c), status)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, dto.ToBookingResponses(bookings))
}

func (h *BookingHandler) ListMyBookings(c echo.Context) error {
	bookings, err := h.svc.ListTenantBookings(c.Request().Context(), middleware.ActorID(c))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, dto.ToBookingResponses(bookings))
}

func (h *BookingHandler) GetPropertyStatus(c echo.Context) error {
	propertyID, err := parseID(c, "property")
	if err != nil {
		return err
	}

	status, err := h.svc.PropertyStatus(c.Request().Context(), propertyID)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, dto.ToPropertyStatusResponse(status))
}

// GetTenancyLock lets the catalog check whether a property may be edited or deleted.
func (h *BookingHandler) GetTenancyLock(c echo.Context) error {
	propertyID, err := parseID(c, "property")
	if err != nil {
		return err
	}

	locked, err := h.svc.HasActiveTenancy(c.Request().Context(), propertyID)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, dto.TenancyLockResponse{PropertyID: propertyID, Locked: locked})
}
