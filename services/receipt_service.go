package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/HSouheill/marketplace_backend/metrics"
	"github.com/HSouheill/marketplace_backend/models"
	"github.com/HSouheill/marketplace_backend/repositories"
	"github.com/HSouheill/marketplace_backend/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type SubmitReceiptInput struct {
	UserID          string
	Amount          float64
	ReferenceNumber string
	Image           []byte
	Filename        string
	ContentType     string
}

// ReceiptService moves receipts from pending to approved or rejected. Approval credits the
// submitter and, when composed with commission, accrues the referring admin's commission in
// the same transaction.
type ReceiptService struct {
	base
	storage     ObjectStorage
	commissions *CommissionService
}

func NewReceiptService(d Deps, storage ObjectStorage, commissions *CommissionService) *ReceiptService {
	return &ReceiptService{base: newBase("receipt", d), storage: storage, commissions: commissions}
}

// SubmitReceipt uploads the receipt image and records a pending receipt.
// An upload failure writes nothing; a failed write removes the uploaded object.
func (s *ReceiptService) SubmitReceipt(ctx context.Context, in SubmitReceiptInput) (*models.SubmitReceiptResult, error) {
	in.ReferenceNumber = utils.SanitizeInput(in.ReferenceNumber)
	if err := s.validateSubmission(in); err != nil {
		return &models.SubmitReceiptResult{OperationResult: models.FailedFrom(err, "Invalid receipt")}, nil
	}

	if _, err := repositories.GetUser(ctx, s.Store, in.UserID); err != nil {
		res, err := s.failure("SubmitReceipt", notFoundAs(err, "User not found"), "Failed to submit receipt", in.UserID)
		return &models.SubmitReceiptResult{OperationResult: res}, err
	}

	image, err := utils.NormalizeReceiptImage(in.Image)
	if err != nil {
		s.Logger.WithError(err).WithField("userId", in.UserID).Info("rejected unreadable receipt image")
		return &models.SubmitReceiptResult{OperationResult: models.FailedFrom(models.Validation("Receipt image could not be read"), "")}, nil
	}

	objectPath := fmt.Sprintf("receipts/%s/%s.jpg", in.UserID, uuid.NewString())
	imageURL, err := s.storage.Upload(ctx, objectPath, image, "image/jpeg")
	if err != nil {
		res, err := s.failure("SubmitReceipt", err, "Failed to upload receipt image", in.UserID)
		return &models.SubmitReceiptResult{OperationResult: res}, err
	}

	var receiptID string
	err = s.runTx(ctx, "SubmitReceipt", func(ctx context.Context, tx repositories.Tx) error {
		now := s.now()
		id, err := tx.Create(ctx, repositories.CollectionReceipts, models.Receipt{
			UserID:          in.UserID,
			Amount:          utils.RoundMoney(in.Amount),
			ReferenceNumber: in.ReferenceNumber,
			ImageURL:        imageURL,
			ImagePath:       objectPath,
			Status:          models.ReceiptPending,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
		receiptID = id
		return err
	})
	if err != nil {
		if delErr := s.storage.Delete(ctx, objectPath); delErr != nil {
			s.Logger.WithError(delErr).WithField("objectPath", objectPath).Error("failed to remove orphaned receipt image")
		}
		res, err := s.failure("SubmitReceipt", err, "Failed to submit receipt", in.UserID)
		return &models.SubmitReceiptResult{OperationResult: res}, err
	}

	metrics.ReceiptTransitionsTotal.WithLabelValues(string(models.ReceiptPending)).Inc()
	return &models.SubmitReceiptResult{
		OperationResult: models.Succeeded("Receipt submitted successfully"),
		ReceiptID:       receiptID,
		ImageURL:        imageURL,
	}, nil
}

func (s *ReceiptService) validateSubmission(in SubmitReceiptInput) error {
	if err := requireID(in.UserID, "User ID is required"); err != nil {
		return err
	}
	if err := requirePositive(in.Amount, "Amount must be greater than zero"); err != nil {
		return err
	}
	if err := utils.ValidateImageFile(in.Filename, len(in.Image)); err != nil {
		return models.Validation(err.Error())
	}
	return nil
}

// ApproveReceipt credits the submitter with the receipt amount. It does not accrue commission.
func (s *ReceiptService) ApproveReceipt(ctx context.Context, receiptID, approverID, notes string) (*models.ApprovalResult, error) {
	return s.approve(ctx, "ApproveReceipt", receiptID, approverID, notes, false)
}

// ApproveReceiptWithCommission approves the receipt and accrues the receipt-approval commission
// to the submitter's referring admin in one transaction.
func (s *ReceiptService) ApproveReceiptWithCommission(ctx context.Context, receiptID, approverID, notes string) (*models.ApprovalResult, error) {
	return s.approve(ctx, "ApproveReceiptWithCommission", receiptID, approverID, notes, true)
}

func (s *ReceiptService) approve(ctx context.Context, op, receiptID, approverID, notes string, withCommission bool) (*models.ApprovalResult, error) {
	if err := requireID(receiptID, "Receipt ID is required"); err != nil {
		return &models.ApprovalResult{OperationResult: models.FailedFrom(err, "")}, nil
	}
	if err := requireID(approverID, "Approver ID is required"); err != nil {
		return &models.ApprovalResult{OperationResult: models.FailedFrom(err, "")}, nil
	}
	notes = utils.SanitizeInput(notes)

	var (
		receipt    models.Receipt
		result     models.ApprovalResult
		commission *models.CommissionTransaction
	)
	err := s.runTx(ctx, op, func(ctx context.Context, tx repositories.Tx) error {
		commission = nil
		result = models.ApprovalResult{}

		if err := tx.Get(ctx, repositories.CollectionReceipts, receiptID, &receipt); err != nil {
			return notFoundAs(err, "Receipt not found")
		}
		if receipt.Status != models.ReceiptPending {
			return models.Conflict(fmt.Sprintf("Receipt is already %s", receipt.Status))
		}
		user, err := repositories.GetUser(ctx, tx, receipt.UserID)
		if err != nil {
			return notFoundAs(err, "User not found")
		}

		now := s.now()
		newBalance := utils.AddMoney(user.Balance, receipt.Amount)
		if err := repositories.UpdateBalance(ctx, tx, user.ID, newBalance, now); err != nil {
			return err
		}

		fields := repositories.Fields{
			"status":             models.ReceiptApproved,
			"approvedBy":         approverID,
			"approvedAt":         now,
			"excludeFromRevenue": user.IsDummyAccount,
			"updatedAt":          now,
		}
		if notes != "" {
			fields["notes"] = notes
		}
		if err := tx.Update(ctx, repositories.CollectionReceipts, receiptID, fields); err != nil {
			return err
		}

		if withCommission && user.ReferredBy != "" {
			commission, err = s.commissions.RecordCommissionInTx(ctx, tx, CommissionInput{
				AdminID:        user.ReferredBy,
				SellerID:       user.ID,
				Type:           models.CommissionTypeReceiptApproval,
				OriginalAmount: receipt.Amount,
				ReceiptID:      receiptID,
				Description:    fmt.Sprintf("Commission from approved receipt of %.2f", receipt.Amount),
			})
			switch {
			case errors.Is(err, models.ErrNotFound):
				// The referring admin is gone; approve without commission. No commission row was written.
				s.Logger.WithFields(logrus.Fields{
					"module":    s.module,
					"receiptId": receiptID,
					"adminId":   user.ReferredBy,
				}).Warn("receipt approved without commission: referring admin not found")
				commission = nil
			case err != nil:
				return err
			}
		}

		if _, err := tx.Create(ctx, repositories.CollectionActivities, models.Activity{
			UserID:          receipt.UserID,
			Type:            models.ActivityReceiptApproved,
			Amount:          receipt.Amount,
			ReceiptID:       receiptID,
			PerformedBy:     approverID,
			ReferenceNumber: receipt.ReferenceNumber,
			Description:     fmt.Sprintf("Receipt of %.2f approved", receipt.Amount),
			CreatedAt:       now,
		}); err != nil {
			return err
		}

		result.NewBalance = newBalance
		if commission != nil {
			result.CommissionAmount = commission.CommissionAmount
			result.CommissionAdmin = commission.AdminID
		}
		return nil
	})
	if err != nil {
		res, err := s.failure(op, err, "Failed to approve receipt", receiptID)
		return &models.ApprovalResult{OperationResult: res}, err
	}

	metrics.ReceiptTransitionsTotal.WithLabelValues(string(models.ReceiptApproved)).Inc()
	if commission != nil {
		s.commissions.committed(ctx, commission)
	}
	s.publish(ctx, EventReceiptApproved, receiptID, map[string]interface{}{
		"receiptId":  receiptID,
		"userId":     receipt.UserID,
		"amount":     receipt.Amount,
		"approvedBy": approverID,
		"newBalance": result.NewBalance,
	})
	s.notify(ctx, receipt.UserID, models.Notification{
		Title:   "Receipt approved",
		Message: fmt.Sprintf("Your receipt of %.2f was approved. New balance: %.2f", receipt.Amount, result.NewBalance),
		Type:    models.NotificationReceiptApproved,
		Data:    map[string]string{"receiptId": receiptID},
	})

	result.OperationResult = models.Succeeded("Receipt approved successfully")
	return &result, nil
}

// RejectReceipt marks a pending receipt rejected. A reason is mandatory.
func (s *ReceiptService) RejectReceipt(ctx context.Context, receiptID, approverID, reason string) (*models.OperationResult, error) {
	reason = utils.SanitizeInput(reason)
	for _, check := range []error{
		requireID(receiptID, "Receipt ID is required"),
		requireID(approverID, "Approver ID is required"),
		requireID(reason, "Rejection reason is required"),
	} {
		if check != nil {
			res := models.FailedFrom(check, "")
			return &res, nil
		}
	}

	var receipt models.Receipt
	err := s.runTx(ctx, "RejectReceipt", func(ctx context.Context, tx repositories.Tx) error {
		if err := tx.Get(ctx, repositories.CollectionReceipts, receiptID, &receipt); err != nil {
			return notFoundAs(err, "Receipt not found")
		}
		if receipt.Status != models.ReceiptPending {
			return models.Conflict(fmt.Sprintf("Receipt is already %s", receipt.Status))
		}

		now := s.now()
		if err := tx.Update(ctx, repositories.CollectionReceipts, receiptID, repositories.Fields{
			"status":          models.ReceiptRejected,
			"rejectedBy":      approverID,
			"rejectedAt":      now,
			"rejectionReason": reason,
			"updatedAt":       now,
		}); err != nil {
			return err
		}
		_, err := tx.Create(ctx, repositories.CollectionActivities, models.Activity{
			UserID:          receipt.UserID,
			Type:            models.ActivityReceiptRejected,
			Amount:          receipt.Amount,
			ReceiptID:       receiptID,
			PerformedBy:     approverID,
			ReferenceNumber: receipt.ReferenceNumber,
			Description:     "Receipt rejected: " + reason,
			CreatedAt:       now,
		})
		return err
	})
	if err != nil {
		res, err := s.failure("RejectReceipt", err, "Failed to reject receipt", receiptID)
		return &res, err
	}

	metrics.ReceiptTransitionsTotal.WithLabelValues(string(models.ReceiptRejected)).Inc()
	s.publish(ctx, EventReceiptRejected, receiptID, map[string]interface{}{
		"receiptId":  receiptID,
		"userId":     receipt.UserID,
		"rejectedBy": approverID,
		"reason":     reason,
	})
	s.notify(ctx, receipt.UserID, models.Notification{
		Title:   "Receipt rejected",
		Message: "Your receipt was rejected: " + reason,
		Type:    models.NotificationReceiptRejected,
		Data:    map[string]string{"receiptId": receiptID},
	})

	res := models.Succeeded("Receipt rejected successfully")
	return &res, nil
}

// GetPendingReceipts returns the review queue, oldest first.
func (s *ReceiptService) GetPendingReceipts(ctx context.Context, limit int) ([]models.Receipt, error) {
	receipts := []models.Receipt{}
	err := s.Store.Find(ctx, repositories.CollectionReceipts, repositories.Query{
		Filters: []repositories.Filter{repositories.Where("status", repositories.OpEq, models.ReceiptPending)},
		OrderBy: "createdAt",
		Limit:   clampLimit(limit, 50, 200),
	}, &receipts)
	if err != nil {
		return nil, fmt.Errorf("failed to read pending receipts: %w", err)
	}
	return receipts, nil
}

// GetUserReceipts returns a user's receipts, newest first.
func (s *ReceiptService) GetUserReceipts(ctx context.Context, userID string, limit int) ([]models.Receipt, error) {
	if err := requireID(userID, "User ID is required"); err != nil {
		return nil, err
	}
	receipts := []models.Receipt{}
	err := s.Store.Find(ctx, repositories.CollectionReceipts, repositories.Query{
		Filters:    []repositories.Filter{repositories.Where("userId", repositories.OpEq, userID)},
		OrderBy:    "createdAt",
		Descending: true,
		Limit:      clampLimit(limit, 50, 200),
	}, &receipts)
	if err != nil {
		return nil, fmt.Errorf("failed to read receipts: %w", err)
	}
	return receipts, nil
}
