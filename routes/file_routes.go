package routes

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/HSouheill/marketplace_backend/models"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// FileServer serves objects written by the local storage backend.
type FileServer struct {
	dir    string
	logger *logrus.Logger
}

func NewFileServer(dir string, logger *logrus.Logger) *FileServer {
	return &FileServer{dir: dir, logger: logger}
}

// RegisterFileRoutes sets up all file serving routes. Receipt images are private, so
// the uploads tree sits behind auth.
func RegisterFileRoutes(e *echo.Echo, auth echo.MiddlewareFunc, files *FileServer) {
	e.GET("/uploads/*", files.ServeFile, auth)
}

// ServeFile handles serving uploaded files with proper security checks
func (f *FileServer) ServeFile(c echo.Context) error {
	path := c.Param("*")
	if path == "" {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "File not found",
		})
	}

	// Clean the path to prevent directory traversal
	cleanPath := filepath.Clean("/" + path)
	if strings.Contains(cleanPath, "..") {
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Access denied - invalid path",
		})
	}
	fullPath := filepath.Join(f.dir, cleanPath)

	info, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "File not found",
			})
		}
		f.logger.WithError(err).WithField("path", fullPath).Error("error accessing file")
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Error accessing file",
		})
	}

	// Don't allow directory listing
	if info.IsDir() {
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Access denied - directory listing not allowed",
		})
	}

	c.Response().Header().Set("Cache-Control", "private, max-age=86400")
	return c.File(fullPath)
}
