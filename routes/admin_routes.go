package routes

import (
	"github.com/HSouheill/marketplace_backend/middleware"
	"github.com/HSouheill/marketplace_backend/models"
	"github.com/labstack/echo/v4"
)

// RegisterAdminRoutes sets up all admin-related routes
func RegisterAdminRoutes(api *echo.Group, h Handlers) {
	admin := api.Group("/admin")

	// Admin only
	own := admin.Group("", middleware.RequireRole(models.RoleAdmin))
	own.GET("/commission/balance", h.Commission.GetBalance)
	own.GET("/commission/summary", h.Commission.GetSummary)
	own.GET("/sellers", h.Seller.GetMySellers)

	// Receipt review is shared with superadmins
	review := admin.Group("/receipts", middleware.RequireRole(models.RoleAdmin, models.RoleSuperadmin))
	review.GET("/pending", h.Receipt.GetPendingReceipts)
	review.POST("/:id/approve", h.Receipt.ApproveReceipt)
	review.POST("/:id/reject", h.Receipt.RejectReceipt)

	if h.WebSocket != nil {
		api.GET("/ws/commission", h.WebSocket.ServeCommission, middleware.RequireRole(models.RoleAdmin))
	}
}
