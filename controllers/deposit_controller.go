package controllers

import (
	"net/http"

	"github.com/HSouheill/marketplace_backend/services"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// DepositController covers the superadmin money movements: deposits made for sellers
// and order profit transfers.
type DepositController struct {
	deposits *services.DepositService
	profits  *services.ProfitService
	logger   *logrus.Logger
}

func NewDepositController(deposits *services.DepositService, profits *services.ProfitService, logger *logrus.Logger) *DepositController {
	return &DepositController{deposits: deposits, profits: profits, logger: logger}
}

type createDepositRequest struct {
	SellerID string  `json:"sellerId" validate:"required"`
	Amount   float64 `json:"amount" validate:"required,gt=0"`
}

func (dc *DepositController) CreateDeposit(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	var req createDepositRequest
	if msg := bindError(c, &req); msg != "" {
		return badRequest(c, msg)
	}

	requestedBy, _ := currentUser(c)
	res, err := dc.deposits.CreateDeposit(ctx, req.SellerID, req.Amount, requestedBy)
	return writeResult(c, dc.logger, "CreateDeposit", http.StatusCreated, res.OperationResult, res, err)
}

func (dc *DepositController) CompleteDeposit(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	superadminID, _ := currentUser(c)
	res, err := dc.deposits.CompleteDeposit(ctx, c.Param("id"), superadminID)
	return writeResult(c, dc.logger, "CompleteDeposit", http.StatusOK, res.OperationResult, res, err)
}

func (dc *DepositController) CancelDeposit(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	performedBy, _ := currentUser(c)
	res, err := dc.deposits.CancelDeposit(ctx, c.Param("id"), performedBy)
	return writeResult(c, dc.logger, "CancelDeposit", http.StatusOK, *res, res, err)
}

// TransferProfit credits an order's profit to its seller, once per order.
func (dc *DepositController) TransferProfit(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	performedBy, _ := currentUser(c)
	res, err := dc.profits.TransferProfit(ctx, c.Param("id"), performedBy)
	return writeResult(c, dc.logger, "TransferProfit", http.StatusOK, res.OperationResult, res, err)
}
