package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/HSouheill/marketplace_backend/config"
	"github.com/HSouheill/marketplace_backend/middleware"
	"github.com/HSouheill/marketplace_backend/models"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const requestTimeout = 10 * time.Second

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

func statusForReason(reason string) int {
	switch reason {
	case models.ReasonNotFound:
		return http.StatusNotFound
	case models.ReasonConflict:
		return http.StatusConflict
	case models.ReasonUnavailable:
		return http.StatusServiceUnavailable
	case models.ReasonInternal:
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

// writeResult renders a mutating operation's result. err is the infrastructure failure behind
// a failed result; the service logged the details, here it only decides a 5xx status.
func writeResult(c echo.Context, logger *logrus.Logger, op string, okStatus int, res models.OperationResult, data interface{}, err error) error {
	if err != nil {
		logger.WithFields(logrus.Fields{
			"module":   "controllers",
			"funcName": op,
			"path":     c.Request().URL.Path,
		}).WithError(err).Warn("operation failed")
		res.Success = false
		if errors.Is(err, models.ErrTransient) {
			res.Reason = models.ReasonUnavailable
		} else {
			res.Reason = models.ReasonInternal
		}
	}

	status := okStatus
	if !res.Success {
		status = statusForReason(res.Reason)
	}
	return c.JSON(status, models.Response{
		Status:  status,
		Message: res.Message,
		Data:    data,
	})
}

// writeQuery renders a read. Expected errors keep their display message; anything else
// is logged and replaced by fallback.
func writeQuery(c echo.Context, logger *logrus.Logger, op string, data interface{}, err error, fallback string) error {
	if err == nil {
		return ok(c, data)
	}

	status := statusForReason(models.ReasonOf(err))
	if !models.IsExpected(err) {
		if !errors.Is(err, models.ErrTransient) {
			status = http.StatusInternalServerError
		}
		config.LogError(logger, "controllers", op, fallback, c.Request().URL.Path, err)
		return c.JSON(status, models.Response{Status: status, Message: fallback})
	}
	return c.JSON(status, models.Response{
		Status:  status,
		Message: models.MessageOf(err, fallback),
	})
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "OK",
		Data:    data,
	})
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, models.Response{
		Status:  http.StatusBadRequest,
		Message: message,
	})
}

// bindError binds the body into req and runs the registered validator. It returns the
// message to report, or "" when req is usable.
func bindError(c echo.Context, req interface{}) string {
	if err := c.Bind(req); err != nil {
		return "Invalid request body"
	}
	if err := c.Validate(req); err != nil {
		return "Invalid request: " + err.Error()
	}
	return ""
}

func currentUser(c echo.Context) (string, models.Role) {
	return middleware.GetUserIDFromToken(c), middleware.ExtractUserRole(c)
}

func queryInt(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
