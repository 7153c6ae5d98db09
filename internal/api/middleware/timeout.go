package middleware

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// SelectiveTimeoutConfig gives routes that wait on a model the long
// timeout and everything else the default one
func SelectiveTimeoutConfig(def, long time.Duration) echo.MiddlewareFunc {
	short := middleware.TimeoutWithConfig(middleware.TimeoutConfig{Timeout: def})
	extended := middleware.TimeoutWithConfig(middleware.TimeoutConfig{Timeout: long})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		shortNext := short(next)
		longNext := extended(next)
		return func(c echo.Context) error {
			if isLongRunning(c.Request().Method, c.Request().URL.Path) {
				return longNext(c)
			}
			return shortNext(c)
		}
	}
}

func isLongRunning(method, path string) bool {
	if method == echo.POST && strings.HasPrefix(path, "/api/v1/messages") {
		return true
	}
	return strings.HasSuffix(path, "/apply") || strings.HasSuffix(path, "/generate") ||
		(method == echo.POST && path == "/api/v1/tabs")
}
