package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const actorKey = "actor_id"

// Actor verifies the HS256 bearer token minted by the identity service and
// stores its subject as the acting user.
func Actor(secret string) echo.MiddlewareFunc {
	key := []byte(secret)
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
			if !ok || raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			token, err := parser.Parse(raw, func(*jwt.Token) (any, error) { return key, nil })
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			sub, err := token.Claims.GetSubject()
			if err != nil || sub == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "token has no subject")
			}

			c.Set(actorKey, sub)
			return next(c)
		}
	}
}

// ActorID returns the authenticated user id, or "" outside Actor.
func ActorID(c echo.Context) string {
	id, _ := c.Get(actorKey).(string)
	return id
}

// SetActorID is used by tests and by trusted internal callers.
func SetActorID(c echo.Context, id string) {
	c.Set(actorKey, id)
}
