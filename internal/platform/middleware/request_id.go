package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// RequestIDHeader is the header used to propagate request ids across
// service boundaries.
const RequestIDHeader = "X-Request-ID"

// RequestID returns middleware that assigns every request a unique id.
// An incoming X-Request-ID header is honored so that ids propagate from
// upstream callers; otherwise a fresh UUID is generated. The id is stored
// on the echo context under "request_id" and echoed back in the response.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Request().Header.Get(RequestIDHeader)
			if rid == "" {
				rid = uuid.New().String()
			}

			c.Set("request_id", rid)
			c.Response().Header().Set(RequestIDHeader, rid)

			return next(c)
		}
	}
}
