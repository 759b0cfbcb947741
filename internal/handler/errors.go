package handler

import (
	"net/http"
	"strconv"

	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/service"
	"github.com/labstack/echo/v4"
)

var statusByKind = map[string]int{
	"invalid_range":     http.StatusBadRequest,
	"validation":        http.StatusBadRequest,
	"authorization":     http.StatusForbidden,
	"not_found":         http.StatusNotFound,
	"conflict":          http.StatusConflict,
	"duplicate_request": http.StatusConflict,
	"invalid_state":     http.StatusUnprocessableEntity,
}

// fail converts a service error into an HTTPError carrying err as Internal, so
// the error handler can report its kind.
func fail(err error) error {
	code, ok := statusByKind[service.KindOf(err)]
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}
	return echo.NewHTTPError(code, err.Error()).SetInternal(err)
}

func parseID(c echo.Context, what string) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+what+" id")
	}
	return uint(id), nil
}

func badRequest(msg string) error {
	return echo.NewHTTPError(http.StatusBadRequest, msg)
}
