package services

import (
	"context"
	"fmt"

	"github.com/HSouheill/marketplace_backend/models"
	"github.com/HSouheill/marketplace_backend/repositories"
	"github.com/HSouheill/marketplace_backend/utils"
)

// WithdrawalService handles payouts from a user's balance. A request is accepted only when the
// balance minus the user's other pending withdrawals covers it; the balance is debited on approval.
type WithdrawalService struct {
	base
}

func NewWithdrawalService(d Deps) *WithdrawalService {
	return &WithdrawalService{base: newBase("withdrawal", d)}
}

func (s *WithdrawalService) RequestWithdrawal(ctx context.Context, userID string, amount float64, note string) (*models.WithdrawalResult, error) {
	note = utils.SanitizeInput(note)
	for _, check := range []error{
		requireID(userID, "User ID is required"),
		requirePositive(amount, "Amount must be greater than zero"),
	} {
		if check != nil {
			return &models.WithdrawalResult{OperationResult: models.FailedFrom(check, "")}, nil
		}
	}

	var withdrawalID string
	err := s.runTx(ctx, "RequestWithdrawal", func(ctx context.Context, tx repositories.Tx) error {
		user, err := repositories.GetUser(ctx, tx, userID)
		if err != nil {
			return notFoundAs(err, "User not found")
		}

		var pending []models.Withdrawal
		if err := tx.Find(ctx, repositories.CollectionWithdrawals, repositories.Query{
			Filters: []repositories.Filter{
				repositories.Where("userId", repositories.OpEq, userID),
				repositories.Where("status", repositories.OpEq, models.WithdrawalPending),
			},
		}, &pending); err != nil {
			return err
		}
		var reserved utils.Accumulator
		for _, w := range pending {
			reserved.Add(w.Amount)
		}
		if utils.SubMoney(user.Balance, reserved.Float64()) < utils.RoundMoney(amount) {
			return models.Conflict("Insufficient balance")
		}

		now := s.now()
		// Writing the user document makes two concurrent requests for the same user conflict.
		if err := repositories.TouchUser(ctx, tx, userID, now); err != nil {
			return err
		}
		withdrawalID, err = tx.Create(ctx, repositories.CollectionWithdrawals, models.Withdrawal{
			UserID:    userID,
			Amount:    utils.RoundMoney(amount),
			Status:    models.WithdrawalPending,
			UserNote:  note,
			CreatedAt: now,
			UpdatedAt: now,
		})
		return err
	})
	if err != nil {
		res, err := s.failure("RequestWithdrawal", err, "Failed to request withdrawal", userID)
		return &models.WithdrawalResult{OperationResult: res}, err
	}

	return &models.WithdrawalResult{
		OperationResult: models.Succeeded("Withdrawal requested successfully"),
		WithdrawalID:    withdrawalID,
	}, nil
}

func (s *WithdrawalService) ApproveWithdrawal(ctx context.Context, withdrawalID, approverID, note string) (*models.WithdrawalResult, error) {
	note = utils.SanitizeInput(note)
	for _, check := range []error{
		requireID(withdrawalID, "Withdrawal ID is required"),
		requireID(approverID, "Approver ID is required"),
	} {
		if check != nil {
			return &models.WithdrawalResult{OperationResult: models.FailedFrom(check, "")}, nil
		}
	}

	var (
		withdrawal models.Withdrawal
		newBalance float64
	)
	err := s.runTx(ctx, "ApproveWithdrawal", func(ctx context.Context, tx repositories.Tx) error {
		if err := tx.Get(ctx, repositories.CollectionWithdrawals, withdrawalID, &withdrawal); err != nil {
			return notFoundAs(err, "Withdrawal not found")
		}
		if withdrawal.Status != models.WithdrawalPending {
			return models.Conflict(fmt.Sprintf("Withdrawal is already %s", withdrawal.Status))
		}
		user, err := repositories.GetUser(ctx, tx, withdrawal.UserID)
		if err != nil {
			return notFoundAs(err, "User not found")
		}
		if user.Balance < withdrawal.Amount {
			return models.Conflict("Insufficient balance")
		}

		now := s.now()
		newBalance = utils.SubMoney(user.Balance, withdrawal.Amount)
		if err := repositories.UpdateBalance(ctx, tx, user.ID, newBalance, now); err != nil {
			return err
		}
		fields := repositories.Fields{
			"status":             models.WithdrawalApproved,
			"processedBy":        approverID,
			"processedDate":      now,
			"excludeFromRevenue": user.IsDummyAccount,
			"updatedAt":          now,
		}
		if note != "" {
			fields["adminNote"] = note
		}
		if err := tx.Update(ctx, repositories.CollectionWithdrawals, withdrawalID, fields); err != nil {
			return err
		}
		_, err = tx.Create(ctx, repositories.CollectionActivities, models.Activity{
			UserID:       user.ID,
			Type:         models.ActivityWithdrawalProcessed,
			Amount:       withdrawal.Amount,
			WithdrawalID: withdrawalID,
			PerformedBy:  approverID,
			Description:  fmt.Sprintf("Withdrawal of %.2f processed", withdrawal.Amount),
			CreatedAt:    now,
		})
		return err
	})
	if err != nil {
		res, err := s.failure("ApproveWithdrawal", err, "Failed to approve withdrawal", withdrawalID)
		return &models.WithdrawalResult{OperationResult: res}, err
	}

	s.publish(ctx, EventWithdrawalProcessed, withdrawalID, map[string]interface{}{
		"withdrawalId": withdrawalID,
		"userId":       withdrawal.UserID,
		"amount":       withdrawal.Amount,
		"status":       models.WithdrawalApproved,
		"processedBy":  approverID,
	})
	s.notify(ctx, withdrawal.UserID, models.Notification{
		Title:   "Withdrawal approved",
		Message: fmt.Sprintf("Your withdrawal of %.2f was processed", withdrawal.Amount),
		Type:    models.NotificationWithdrawalApproved,
		Data:    map[string]string{"withdrawalId": withdrawalID},
	})

	return &models.WithdrawalResult{
		OperationResult: models.Succeeded("Withdrawal approved successfully"),
		WithdrawalID:    withdrawalID,
		NewBalance:      newBalance,
	}, nil
}

func (s *WithdrawalService) RejectWithdrawal(ctx context.Context, withdrawalID, approverID, reason string) (*models.WithdrawalResult, error) {
	reason = utils.SanitizeInput(reason)
	for _, check := range []error{
		requireID(withdrawalID, "Withdrawal ID is required"),
		requireID(approverID, "Approver ID is required"),
		requireID(reason, "Rejection reason is required"),
	} {
		if check != nil {
			return &models.WithdrawalResult{OperationResult: models.FailedFrom(check, "")}, nil
		}
	}

	var withdrawal models.Withdrawal
	err := s.runTx(ctx, "RejectWithdrawal", func(ctx context.Context, tx repositories.Tx) error {
		if err := tx.Get(ctx, repositories.CollectionWithdrawals, withdrawalID, &withdrawal); err != nil {
			return notFoundAs(err, "Withdrawal not found")
		}
		if withdrawal.Status != models.WithdrawalPending {
			return models.Conflict(fmt.Sprintf("Withdrawal is already %s", withdrawal.Status))
		}
		now := s.now()
		if err := tx.Update(ctx, repositories.CollectionWithdrawals, withdrawalID, repositories.Fields{
			"status":          models.WithdrawalRejected,
			"processedBy":     approverID,
			"processedDate":   now,
			"rejectionReason": reason,
			"updatedAt":       now,
		}); err != nil {
			return err
		}
		_, err := tx.Create(ctx, repositories.CollectionActivities, models.Activity{
			UserID:       withdrawal.UserID,
			Type:         models.ActivityWithdrawalDeclined,
			Amount:       withdrawal.Amount,
			WithdrawalID: withdrawalID,
			PerformedBy:  approverID,
			Description:  "Withdrawal declined: " + reason,
			CreatedAt:    now,
		})
		return err
	})
	if err != nil {
		res, err := s.failure("RejectWithdrawal", err, "Failed to reject withdrawal", withdrawalID)
		return &models.WithdrawalResult{OperationResult: res}, err
	}

	s.publish(ctx, EventWithdrawalProcessed, withdrawalID, map[string]interface{}{
		"withdrawalId": withdrawalID,
		"userId":       withdrawal.UserID,
		"amount":       withdrawal.Amount,
		"status":       models.WithdrawalRejected,
		"processedBy":  approverID,
	})
	s.notify(ctx, withdrawal.UserID, models.Notification{
		Title:   "Withdrawal rejected",
		Message: "Your withdrawal was rejected: " + reason,
		Type:    models.NotificationWithdrawalRejected,
		Data:    map[string]string{"withdrawalId": withdrawalID},
	})

	return &models.WithdrawalResult{
		OperationResult: models.Succeeded("Withdrawal rejected successfully"),
		WithdrawalID:    withdrawalID,
	}, nil
}

func (s *WithdrawalService) GetUserWithdrawals(ctx context.Context, userID string, limit int) ([]models.Withdrawal, error) {
	if err := requireID(userID, "User ID is required"); err != nil {
		return nil, err
	}
	withdrawals := []models.Withdrawal{}
	err := s.Store.Find(ctx, repositories.CollectionWithdrawals, repositories.Query{
		Filters:    []repositories.Filter{repositories.Where("userId", repositories.OpEq, userID)},
		OrderBy:    "createdAt",
		Descending: true,
		Limit:      clampLimit(limit, 50, 200),
	}, &withdrawals)
	if err != nil {
		return nil, fmt.Errorf("failed to read withdrawals: %w", err)
	}
	return withdrawals, nil
}
