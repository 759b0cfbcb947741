package handler

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/dto"
	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/middleware"
	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/report"
	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/service"
	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/settlement"
	"github.com/labstack/echo/v4"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type EarlyExitHandler struct {
	svc service.EarlyExitService
}

func NewEarlyExitHandler(svc service.EarlyExitService) *EarlyExitHandler {
	return &EarlyExitHandler{svc: svc}
}

func (h *EarlyExitHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/bookings/:id/early-exit", h.RequestEarlyExit)

	exits := g.Group("/early-exits")
	exits.GET("/:id", h.GetEarlyExit)
	exits.PATCH("/:id", h.ReviseMoveOut)
	exits.POST("/:id/review", h.OwnerReview)
	exits.POST("/:id/inspection", h.ScheduleInspection)
	exits.POST("/:id/inspection/submit", h.SubmitInspection)
	exits.POST("/:id/settlement/review", h.ReviewSettlement)
	exits.PATCH("/:id/settlement", h.ReviseDeductions)
	exits.GET("/:id/settlement/statement", h.DownloadStatement)
}

func (h *EarlyExitHandler) RequestEarlyExit(c echo.Context) error {
	bookingID, err := parseID(c, "booking")
	if err != nil {
		return err
	}

	var req dto.MoveOutRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if req.DesiredMoveOut.IsZero() {
		return badRequest("desired_move_out is required")
	}

	exit, err := h.svc.RequestEarlyExit(c.Request().Context(), bookingID, middleware.ActorID(c), req.DesiredMoveOut.Time)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, dto.ToEarlyExitResponse(exit))
}

func (h *EarlyExitHandler) ReviseMoveOut(c echo.Context) error {
	id, err := parseID(c, "early exit")
	if err != nil {
		return err
	}

	var req dto.MoveOutRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if req.DesiredMoveOut.IsZero() {
		return badRequest("desired_move_out is required")
	}

	exit, err := h.svc.ReviseMoveOut(c.Request().Context(), id, middleware.ActorID(c), req.DesiredMoveOut.Time)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, dto.ToEarlyExitResponse(exit))
}

func (h *EarlyExitHandler) OwnerReview(c echo.Context) error {
	id, err := parseID(c, "early exit")
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

	exit, err := h.svc.OwnerReviewExit(c.Request().Context(), id, middleware.ActorID(c), decision, req.Comments)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, dto.ToEarlyExitResponse(exit))
}

func (h *EarlyExitHandler) ScheduleInspection(c echo.Context) error {
	id, err := parseID(c, "early exit")
	if err != nil {
		return err
	}

	var req dto.ScheduleInspectionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if req.ScheduledDate.IsZero() {
		return badRequest("scheduled_date is required")
	}

	inspection, err := h.svc.ScheduleInspection(c.Request().Context(), id, middleware.ActorID(c), req.ScheduledDate.Time, req.InspectorID)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, dto.ToInspectionResponse(inspection))
}

func (h *EarlyExitHandler) SubmitInspection(c echo.Context) error {
	id, err := parseID(c, "early exit")
	if err != nil {
		return err
	}

	var req dto.SubmitInspectionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}

	st, err := h.svc.SubmitInspection(c.Request().Context(), id, middleware.ActorID(c), service.InspectionInput{
		Checklist:    req.Checklist,
		Notes:        req.Notes,
		DamageAmount: req.DamageAmount,
		ImageURLs:    req.ImageURLs,
	})
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, dto.ToSettlementResponse(st))
}

func (h *EarlyExitHandler) ReviewSettlement(c echo.Context) error {
	id, err := parseID(c, "early exit")
	if err != nil {
		return err
	}

	var req dto.SettlementReviewRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	action, err := settlement.ParseAction(req.Action)
	if err != nil {
		return badRequest("action must be accept or dispute")
	}

	st, err := h.svc.ReviewSettlement(c.Request().Context(), id, middleware.ActorID(c), action, req.Comments)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, dto.ToSettlementResponse(st))
}

func (h *EarlyExitHandler) ReviseDeductions(c echo.Context) error {
	id, err := parseID(c, "early exit")
	if err != nil {
		return err
	}

	var req dto.ReviseDeductionsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}

	st, err := h.svc.ReviseDeductions(c.Request().Context(), id, middleware.ActorID(c), req.Deductions, req.Note)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, dto.ToSettlementResponse(st))
}

func (h *EarlyExitHandler) GetEarlyExit(c echo.Context) error {
	id, err := parseID(c, "early exit")
	if err != nil {
		return err
	}

	exit, err := h.svc.GetEarlyExit(c.Request().Context(), id, middleware.ActorID(c))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, dto.ToEarlyExitResponse(exit))
}

func (h *EarlyExitHandler) DownloadStatement(c echo.Context) error {
	id, err := parseID(c, "early exit")
	if err != nil {
		return err
	}

	exit, err := h.svc.GetEarlyExit(c.Request().Context(), id, middleware.ActorID(c))
	if err != nil {
		return fail(err)
	}

	var buf bytes.Buffer
	if err := report.WriteStatement(&buf, exit); err != nil {
		if errors.Is(err, report.ErrNoSettlement) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return err
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="settlement-%d.xlsx"`, id))
	return c.Blob(http.StatusOK, xlsxMIME, buf.Bytes())
}
