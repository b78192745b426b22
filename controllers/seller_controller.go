package controllers

import (
	"net/http"

	"github.com/HSouheill/marketplace_backend/services"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type SellerController struct {
	sellers *services.SellerManagementService
	logger  *logrus.Logger
}

func NewSellerController(sellers *services.SellerManagementService, logger *logrus.Logger) *SellerController {
	return &SellerController{sellers: sellers, logger: logger}
}

type migrateSellerRequest struct {
	NewAdminID string `json:"newAdminId" validate:"required"`
	Reason     string `json:"reason"`
}

type toggleDummyRequest struct {
	IsDummy *bool  `json:"isDummy" validate:"required"`
	Reason  string `json:"reason"`
}

// GetMySellers lists the sellers managed by the calling admin.
func (sc *SellerController) GetMySellers(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	adminID, _ := currentUser(c)
	sellers, err := sc.sellers.GetAdminSellers(ctx, adminID)
	return writeQuery(c, sc.logger, "GetMySellers", sellers, err, "Failed to load sellers")
}

func (sc *SellerController) GetSellerInfo(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	info, err := sc.sellers.GetSellerInfo(ctx, c.Param("id"))
	return writeQuery(c, sc.logger, "GetSellerInfo", info, err, "Failed to load seller")
}

func (sc *SellerController) GetMigrationHistory(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		return badRequest(c, "limit must be a number")
	}
	records, err := sc.sellers.GetMigrationHistory(ctx, c.Param("id"), limit)
	return writeQuery(c, sc.logger, "GetMigrationHistory", records, err, "Failed to load migration history")
}

func (sc *SellerController) MigrateSeller(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	var req migrateSellerRequest
	if msg := bindError(c, &req); msg != "" {
		return badRequest(c, msg)
	}

	performedBy, _ := currentUser(c)
	res, err := sc.sellers.MigrateSeller(ctx, c.Param("id"), req.NewAdminID, req.Reason, performedBy)
	return writeResult(c, sc.logger, "MigrateSeller", http.StatusOK, res.OperationResult, res, err)
}

func (sc *SellerController) ToggleDummyAccount(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	var req toggleDummyRequest
	if msg := bindError(c, &req); msg != "" {
		return badRequest(c, msg)
	}

	performedBy, _ := currentUser(c)
	res, err := sc.sellers.ToggleDummyAccount(ctx, c.Param("id"), *req.IsDummy, req.Reason, performedBy)
	return writeResult(c, sc.logger, "ToggleDummyAccount", http.StatusOK, res.OperationResult, res, err)
}
