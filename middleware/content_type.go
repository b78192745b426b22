package middleware

import (
	"net/http"

	"github.com/HSouheill/marketplace_backend/models"
	"github.com/HSouheill/marketplace_backend/security"
	"github.com/labstack/echo/v4"
)

// RequireContentType rejects request bodies that are neither JSON nor multipart.
// Empty bodies pass.
func RequireContentType() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.ContentLength == 0 || req.Method == http.MethodGet || req.Method == http.MethodHead {
				return next(c)
			}
			if !security.ValidateContentType(req.Header.Get(echo.HeaderContentType)) {
				return c.JSON(http.StatusUnsupportedMediaType, models.Response{
					Status:  http.StatusUnsupportedMediaType,
					Message: "Content-Type must be application/json or multipart/form-data",
				})
			}
			return next(c)
		}
	}
}
