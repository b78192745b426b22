package controllers

import (
	"net/http"

	"github.com/HSouheill/marketplace_backend/services"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type WithdrawalController struct {
	withdrawals *services.WithdrawalService
	logger      *logrus.Logger
}

func NewWithdrawalController(withdrawals *services.WithdrawalService, logger *logrus.Logger) *WithdrawalController {
	return &WithdrawalController{withdrawals: withdrawals, logger: logger}
}

type withdrawalRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Note   string  `json:"note" validate:"max=500"`
}

type approveWithdrawalRequest struct {
	Note string `json:"note" validate:"max=500"`
}

func (wc *WithdrawalController) RequestWithdrawal(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	var req withdrawalRequest
	if msg := bindError(c, &req); msg != "" {
		return badRequest(c, msg)
	}

	userID, _ := currentUser(c)
	res, err := wc.withdrawals.RequestWithdrawal(ctx, userID, req.Amount, req.Note)
	return writeResult(c, wc.logger, "RequestWithdrawal", http.StatusCreated, res.OperationResult, res, err)
}

func (wc *WithdrawalController) GetMyWithdrawals(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		return badRequest(c, "limit must be a number")
	}
	userID, _ := currentUser(c)
	withdrawals, err := wc.withdrawals.GetUserWithdrawals(ctx, userID, limit)
	return writeQuery(c, wc.logger, "GetMyWithdrawals", withdrawals, err, "Failed to load withdrawals")
}

func (wc *WithdrawalController) ApproveWithdrawal(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	var req approveWithdrawalRequest
	if msg := bindError(c, &req); msg != "" {
		return badRequest(c, msg)
	}

	approverID, _ := currentUser(c)
	res, err := wc.withdrawals.ApproveWithdrawal(ctx, c.Param("id"), approverID, req.Note)
	return writeResult(c, wc.logger, "ApproveWithdrawal", http.StatusOK, res.OperationResult, res, err)
}

func (wc *WithdrawalController) RejectWithdrawal(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	var req rejectRequest
	if msg := bindError(c, &req); msg != "" {
		return badRequest(c, msg)
	}

	approverID, _ := currentUser(c)
	res, err := wc.withdrawals.RejectWithdrawal(ctx, c.Param("id"), approverID, req.Reason)
	return writeResult(c, wc.logger, "RejectWithdrawal", http.StatusOK, res.OperationResult, res, err)
}
