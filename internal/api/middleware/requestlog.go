package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const requestIDHeader = "X-Request-ID"

// probePaths are logged only when their outcome changes or they fail.
var probePaths = map[string]struct{}{
	"/healthz": {},
	"/readyz":  {},
}

// RequestLog returns Echo middleware that logs requests with structured
// fields. It generates a request ID if none is provided and propagates it
// through the response header and echo context. Repeated successful probes
// are logged once; probe failures are always logged at warn level.
func RequestLog(log *slog.Logger) echo.MiddlewareFunc {
	var probeOK sync.Map // path -> bool

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			reqID := req.Header.Get(requestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			c.Set("request_id", reqID)
			c.Response().Header().Set(requestIDHeader, reqID)

			err := next(c)

			path := req.URL.Path
			status := c.Response().Status
			level := slog.LevelInfo
			if status >= 500 {
				level = slog.LevelWarn
			}

			if _, probe := probePaths[path]; probe {
				ok := status < 400
				prev, seen := probeOK.Swap(path, ok)
				if ok && seen && prev.(bool) {
					return err
				}
				if !ok {
					level = slog.LevelWarn
				}
			}

			log.Log(req.Context(), level, "request",
				"method", req.Method,
				"path", path,
				"route", c.Path(),
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", reqID,
			)
			return err
		}
	}
}
