package middleware

import (
	"errors"
	"log"
	"net/http"

	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/dto"
	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/service"
	"github.com/labstack/echo/v4"
)

// ErrorHandler renders every error as {"message", "kind"}. The kind comes from
// the service error wrapped in the HTTPError, when there is one.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := err.Error()
	kind := ""

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(code)
		}
		if he.Internal != nil {
			kind = service.KindOf(he.Internal)
		}
	}

	if code >= http.StatusInternalServerError {
		log.Printf("[HTTP] %s %s: %v", c.Request().Method, c.Request().URL.Path, err)
		msg = http.StatusText(code)
		kind = "internal"
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, dto.ErrorResponse{Message: msg, Kind: kind})
}
