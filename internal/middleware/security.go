package middleware

import (
	"github.com/labstack/echo/v4"
)

// apiSecurityHeaders suit a JSON API that serves no documents. Financial
// responses are never cacheable.
var apiSecurityHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Strict-Transport-Security", "max-age=31536000; includeSubDomains"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
	{"Referrer-Policy", "no-referrer"},
	{"Permissions-Policy", "geolocation=(), microphone=(), camera=()"},
	{"Cache-Control", "no-store"},
}

func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Response().Header()
			for _, kv := range apiSecurityHeaders {
				header.Set(kv[0], kv[1])
			}
			return next(c)
		}
	}
}
