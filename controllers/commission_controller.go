package controllers

import (
	"net/http"

	"github.com/HSouheill/marketplace_backend/models"
	"github.com/HSouheill/marketplace_backend/services"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type CommissionController struct {
	commissions *services.CommissionService
	logger      *logrus.Logger
}

func NewCommissionController(commissions *services.CommissionService, logger *logrus.Logger) *CommissionController {
	return &CommissionController{commissions: commissions, logger: logger}
}

type recordDepositRequest struct {
	AdminID     string  `json:"adminId" validate:"required"`
	SellerID    string  `json:"sellerId" validate:"required"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Description string  `json:"description"`
}

// GetBalance returns the calling admin's cached commission balance.
func (cc *CommissionController) GetBalance(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	adminID, _ := currentUser(c)
	balance := cc.commissions.GetAdminCommissionBalance(ctx, adminID)
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "OK",
		Data:    map[string]interface{}{"adminId": adminID, "balance": balance},
	})
}

func (cc *CommissionController) GetSummary(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	adminID, _ := currentUser(c)
	summary, err := cc.commissions.GetAdminCommissionSummary(ctx, adminID)
	return writeQuery(c, cc.logger, "GetSummary", summary, err, "Failed to load commission summary")
}

// RecordDeposit accrues commission for a superadmin deposit made on a seller's behalf.
func (cc *CommissionController) RecordDeposit(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	var req recordDepositRequest
	if msg := bindError(c, &req); msg != "" {
		return badRequest(c, msg)
	}

	superadminID, _ := currentUser(c)
	res, err := cc.commissions.RecordSuperadminDeposit(ctx, req.AdminID, req.SellerID, req.Amount, superadminID, req.Description)
	return writeResult(c, cc.logger, "RecordDeposit", http.StatusCreated, res.OperationResult, res, err)
}

func (cc *CommissionController) GetTotal(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	total, err := cc.commissions.GetTotalCommissionBalance(ctx)
	return writeQuery(c, cc.logger, "GetTotal", total, err, "Failed to load commission totals")
}

// Reconcile compares one admin's cached balance with the transaction log.
// ?repair=true overwrites the cache with the log total.
func (cc *CommissionController) Reconcile(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	repair := c.QueryParam("repair") == "true"
	res, err := cc.commissions.ReconcileAdminCommission(ctx, c.Param("adminId"), repair)
	return writeResult(c, cc.logger, "Reconcile", http.StatusOK, res.OperationResult, res, err)
}

func (cc *CommissionController) ReconcileAll(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	repair := c.QueryParam("repair") == "true"
	results, err := cc.commissions.ReconcileAllAdminCommissions(ctx, repair)
	return writeQuery(c, cc.logger, "ReconcileAll", results, err, "Failed to reconcile commission balances")
}
