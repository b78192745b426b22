package controllers

import (
	"io"
	"net/http"

	"github.com/HSouheill/marketplace_backend/services"
	"github.com/HSouheill/marketplace_backend/utils"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type ReceiptController struct {
	receipts *services.ReceiptService
	logger   *logrus.Logger
}

func NewReceiptController(receipts *services.ReceiptService, logger *logrus.Logger) *ReceiptController {
	return &ReceiptController{receipts: receipts, logger: logger}
}

type approveReceiptRequest struct {
	Notes string `json:"notes"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// SubmitReceipt accepts multipart form fields amount, referenceNumber and image.
func (rc *ReceiptController) SubmitReceipt(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	amount, err := utils.ParseFloat(c.FormValue("amount"))
	if err != nil {
		return badRequest(c, "Amount must be a number")
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return badRequest(c, "Receipt image is required")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return badRequest(c, "Receipt image could not be read")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, int64(utils.MaxFileSize)+1))
	if err != nil {
		return badRequest(c, "Receipt image could not be read")
	}

	userID, _ := currentUser(c)
	res, err := rc.receipts.SubmitReceipt(ctx, services.SubmitReceiptInput{
		UserID:          userID,
		Amount:          amount,
		ReferenceNumber: c.FormValue("referenceNumber"),
		Image:           data,
		Filename:        fileHeader.Filename,
		ContentType:     fileHeader.Header.Get(echo.HeaderContentType),
	})
	return writeResult(c, rc.logger, "SubmitReceipt", http.StatusCreated, res.OperationResult, res, err)
}

func (rc *ReceiptController) GetMyReceipts(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		return badRequest(c, "limit must be a number")
	}
	userID, _ := currentUser(c)
	receipts, err := rc.receipts.GetUserReceipts(ctx, userID, limit)
	return writeQuery(c, rc.logger, "GetMyReceipts", receipts, err, "Failed to load receipts")
}

func (rc *ReceiptController) GetPendingReceipts(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		return badRequest(c, "limit must be a number")
	}
	receipts, err := rc.receipts.GetPendingReceipts(ctx, limit)
	return writeQuery(c, rc.logger, "GetPendingReceipts", receipts, err, "Failed to load pending receipts")
}

// ApproveReceipt credits the submitter and accrues the referring admin's commission.
func (rc *ReceiptController) ApproveReceipt(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	var req approveReceiptRequest
	if msg := bindError(c, &req); msg != "" {
		return badRequest(c, msg)
	}

	approverID, _ := currentUser(c)
	res, err := rc.receipts.ApproveReceiptWithCommission(ctx, c.Param("id"), approverID, req.Notes)
	return writeResult(c, rc.logger, "ApproveReceipt", http.StatusOK, res.OperationResult, res, err)
}

func (rc *ReceiptController) RejectReceipt(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	var req rejectRequest
	if msg := bindError(c, &req); msg != "" {
		return badRequest(c, msg)
	}

	approverID, _ := currentUser(c)
	res, err := rc.receipts.RejectReceipt(ctx, c.Param("id"), approverID, req.Reason)
	return writeResult(c, rc.logger, "RejectReceipt", http.StatusOK, *res, res, err)
}
