package routes

import (
	"github.com/HSouheill/marketplace_backend/middleware"
	"github.com/HSouheill/marketplace_backend/models"
	"github.com/labstack/echo/v4"
)

// RegisterUserRoutes sets up the routes every authenticated principal can reach
func RegisterUserRoutes(api *echo.Group, h Handlers) {
	submitters := middleware.RequireRole(models.RoleUser, models.RoleSeller)

	api.POST("/receipts", h.Receipt.SubmitReceipt, submitters)
	api.GET("/receipts/mine", h.Receipt.GetMyReceipts)

	api.POST("/withdrawals", h.Withdrawal.RequestWithdrawal, submitters)
	api.GET("/withdrawals/mine", h.Withdrawal.GetMyWithdrawals)

	revenue := api.Group("/revenue")
	revenue.GET("/monthly", h.Revenue.GetMonthly)
	revenue.GET("/yearly", h.Revenue.GetYearly)
	revenue.GET("/current", h.Revenue.GetCurrent)
}
