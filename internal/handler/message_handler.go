package handler

import (
	"net/http"

	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/dto"
	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/middleware"
	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/service"
	"github.com/labstack/echo/v4"
)

type MessageHandler struct {
	svc service.MessageService
}

func NewMessageHandler(svc service.MessageService) *MessageHandler {
	return &MessageHandler{svc: svc}
}

func (h *MessageHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/bookings/:id/messages", h.ListMessages)
	g.POST("/bookings/:id/messages", h.PostMessage)
	g.POST("/bookings/:id/messages/read", h.MarkRead)
}

func (h *MessageHandler) PostMessage(c echo.Context) error {
	bookingID, err := parseID(c, "booking")
	if err != nil {
		return err
	}

	var req dto.MessageRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}

	msg, err := h.svc.PostMessage(c.Request().Context(), bookingID, middleware.ActorID(c), req.Content)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, dto.ToMessageResponse(msg))
}

// ListMessages returns the thread oldest first together with the viewer's unread count.
func (h *MessageHandler) ListMessages(c echo.Context) error {
	bookingID, err := parseID(c, "booking")
	if err != nil {
		return err
	}
	ctx, viewer := c.Request().Context(), middleware.ActorID(c)

	msgs, err := h.svc.ListMessages(ctx, bookingID, viewer)
	if err != nil {
		return fail(err)
	}
	unread, err := h.svc.UnreadCount(ctx, bookingID, viewer)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, dto.ThreadResponse{Messages: dto.ToMessageResponses(msgs), Unread: unread})
}

func (h *MessageHandler) MarkRead(c echo.Context) error {
	bookingID, err := parseID(c, "booking")
	if err != nil {
		return err
	}

	n, err := h.svc.MarkRead(c.Request().Context(), bookingID, middleware.ActorID(c))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, dto.MarkReadResponse{Marked: n})
}
