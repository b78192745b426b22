package middleware

import (
	"time"

	"github.com/HSouheill/marketplace_backend/security"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// RequestLogger writes one access log entry per request.
func RequestLogger(logger *logrus.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			entry := logger.WithFields(logrus.Fields{
				"method":   req.Method,
				"path":     c.Path(),
				"uri":      req.RequestURI,
				"status":   c.Response().Status,
				"latency":  time.Since(start).String(),
				"ip":       c.RealIP(),
				"bytesOut": c.Response().Size,
			})
			if userID := GetUserIDFromToken(c); userID != "" {
				entry = entry.WithField("userId", userID)
			}

			if logger.IsLevelEnabled(logrus.TraceLevel) {
				entry = entry.WithField("headers", security.SanitizeHeaders(req.Header))
			}

			switch status := c.Response().Status; {
			case status >= 500:
				entry.WithError(err).Error("request failed")
			case status >= 400:
				entry.Warn("request rejected")
			default:
				entry.Debug("request served")
			}
			return nil
		}
	}
}
