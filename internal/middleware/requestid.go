package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// HeaderRequestID is the header the request identifier travels in,
// both inbound (honored if the client set one) and outbound.
const HeaderRequestID = "X-Request-ID"

// RequestID tags every request with an identifier so log lines from
// one request can be correlated. An inbound ID is kept; otherwise a
// fresh UUID is generated.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(HeaderRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			c.Set("request_id", id)
			c.Response().Header().Set(HeaderRequestID, id)
			return next(c)
		}
	}
}
