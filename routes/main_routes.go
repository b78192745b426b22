package routes

import (
	"net/http"

	"github.com/HSouheill/marketplace_backend/controllers"
	"github.com/HSouheill/marketplace_backend/models"
	"github.com/HSouheill/marketplace_backend/websocket"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers bundles everything the routes dispatch to.
type Handlers struct {
	Commission *controllers.CommissionController
	Revenue    *controllers.RevenueController
	Receipt    *controllers.ReceiptController
	Seller     *controllers.SellerController
	Withdrawal *controllers.WithdrawalController
	Deposit    *controllers.DepositController
	WebSocket  *websocket.Handler
	Files      *FileServer
}

// SetupRoutes configures all API routes by calling individual route registration functions.
// auth must verify the caller and put the identity on the context.
func SetupRoutes(e *echo.Echo, auth echo.MiddlewareFunc, h Handlers) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, models.Response{Status: http.StatusOK, Message: "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api", auth)

	RegisterUserRoutes(api, h)
	RegisterAdminRoutes(api, h)
	RegisterSuperadminRoutes(api, h)
	if h.Files != nil {
		RegisterFileRoutes(e, auth, h.Files)
	}
}
