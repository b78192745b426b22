package routes

import (
	"github.com/HSouheill/marketplace_backend/middleware"
	"github.com/HSouheill/marketplace_backend/models"
	"github.com/labstack/echo/v4"
)

// RegisterSuperadminRoutes sets up the platform-wide ledger routes
func RegisterSuperadminRoutes(api *echo.Group, h Handlers) {
	superadmin := api.Group("/superadmin", middleware.RequireRole(models.RoleSuperadmin))

	commission := superadmin.Group("/commission")
	commission.POST("/deposit", h.Commission.RecordDeposit)
	commission.GET("/total", h.Commission.GetTotal)
	commission.POST("/reconcile", h.Commission.ReconcileAll)
	commission.POST("/:adminId/reconcile", h.Commission.Reconcile)

	superadmin.GET("/stats/monthly", h.Revenue.GetPlatformStats)

	sellers := superadmin.Group("/sellers")
	sellers.GET("/:id", h.Seller.GetSellerInfo)
	sellers.GET("/:id/migrations", h.Seller.GetMigrationHistory)
	sellers.POST("/:id/migrate", h.Seller.MigrateSeller)
	sellers.POST("/:id/dummy", h.Seller.ToggleDummyAccount)

	deposits := superadmin.Group("/deposits")
	deposits.POST("", h.Deposit.CreateDeposit)
	deposits.POST("/:id/complete", h.Deposit.CompleteDeposit)
	deposits.POST("/:id/cancel", h.Deposit.CancelDeposit)

	withdrawals := superadmin.Group("/withdrawals")
	withdrawals.POST("/:id/approve", h.Withdrawal.ApproveWithdrawal)
	withdrawals.POST("/:id/reject", h.Withdrawal.RejectWithdrawal)

	superadmin.POST("/orders/:id/transfer-profit", h.Deposit.TransferProfit)
}
