package services

import (
	"context"
	"fmt"

	"github.com/HSouheill/marketplace_backend/models"
	"github.com/HSouheill/marketplace_backend/repositories"
	"github.com/HSouheill/marketplace_backend/utils"
)

// DepositService handles superadmin deposits into seller accounts. A deposit is pending until
// completed, at which point the seller is credited and the commission is accrued to the
// seller's admin at that moment.
type DepositService struct {
	base
	commissions *CommissionService
}

func NewDepositService(d Deps, commissions *CommissionService) *DepositService {
	return &DepositService{base: newBase("deposit", d), commissions: commissions}
}

func (s *DepositService) CreateDeposit(ctx context.Context, sellerID string, amount float64, requestedBy string) (*models.DepositResult, error) {
	for _, check := range []error{
		requireID(sellerID, "Seller ID is required"),
		requireID(requestedBy, "Requester ID is required"),
		requirePositive(amount, "Amount must be greater than zero"),
	} {
		if check != nil {
			return &models.DepositResult{OperationResult: models.FailedFrom(check, "")}, nil
		}
	}

	var result models.DepositResult
	err := s.runTx(ctx, "CreateDeposit", func(ctx context.Context, tx repositories.Tx) error {
		seller, err := repositories.GetUserWithRole(ctx, tx, sellerID, models.RoleSeller)
		if err != nil {
			return notFoundAs(err, "Seller not found")
		}
		adminID := seller.CommissionAdmin()
		if adminID == "" {
			return models.Conflict("Seller is not assigned to an admin")
		}

		now := s.now()
		if err := repositories.TouchUser(ctx, tx, sellerID, now); err != nil {
			return err
		}
		deposit := models.PendingDeposit{
			SellerID:           sellerID,
			AdminID:            adminID,
			Amount:             utils.RoundMoney(amount),
			Status:             models.DepositPending,
			RequestedBy:        requestedBy,
			ExcludeFromRevenue: seller.IsDummyAccount,
			DummyMarked:        seller.IsDummyAccount,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		depositID, err := tx.Create(ctx, repositories.CollectionPendingDeposits, deposit)
		if err != nil {
			return err
		}

		expected := utils.MulMoney(amount, s.commissions.Rate())
		if _, err := tx.Create(ctx, repositories.CollectionCommissionHistory, models.CommissionHistory{
			AdminID:            adminID,
			SellerID:           sellerID,
			DepositID:          depositID,
			Amount:             expected,
			Status:             models.DepositPending,
			ExcludeFromRevenue: seller.IsDummyAccount,
			DummyMarked:        seller.IsDummyAccount,
			CreatedAt:          now,
			UpdatedAt:          now,
		}); err != nil {
			return err
		}

		result = models.DepositResult{DepositID: depositID, AdminID: adminID, CommissionAmount: expected}
		return nil
	})
	if err != nil {
		res, err := s.failure("CreateDeposit", err, "Failed to create deposit", sellerID)
		return &models.DepositResult{OperationResult: res}, err
	}

	result.OperationResult = models.Succeeded("Deposit created successfully")
	return &result, nil
}

// CompleteDeposit credits the seller and accrues the superadmin-deposit commission to the
// seller's current admin, which may differ from the admin recorded at creation after a migration.
func (s *DepositService) CompleteDeposit(ctx context.Context, depositID, superadminID string) (*models.DepositResult, error) {
	for _, check := range []error{
		requireID(depositID, "Deposit ID is required"),
		requireID(superadminID, "Superadmin ID is required"),
	} {
		if check != nil {
			return &models.DepositResult{OperationResult: models.FailedFrom(check, "")}, nil
		}
	}

	var (
		deposit    models.PendingDeposit
		result     models.DepositResult
		commission *models.CommissionTransaction
	)
	err := s.runTx(ctx, "CompleteDeposit", func(ctx context.Context, tx repositories.Tx) error {
		commission = nil
		if err := tx.Get(ctx, repositories.CollectionPendingDeposits, depositID, &deposit); err != nil {
			return notFoundAs(err, "Deposit not found")
		}
		if deposit.Status != models.DepositPending {
			return models.Conflict(fmt.Sprintf("Deposit is already %s", deposit.Status))
		}
		seller, err := repositories.GetUser(ctx, tx, deposit.SellerID)
		if err != nil {
			return notFoundAs(err, "Seller not found")
		}

		now := s.now()
		newBalance := utils.AddMoney(seller.Balance, deposit.Amount)
		if err := repositories.UpdateBalance(ctx, tx, seller.ID, newBalance, now); err != nil {
			return err
		}

		adminID := seller.CommissionAdmin()
		if adminID == "" {
			adminID = deposit.AdminID
		}
		commission, err = s.commissions.RecordCommissionInTx(ctx, tx, CommissionInput{
			AdminID:        adminID,
			SellerID:       seller.ID,
			Type:           models.CommissionTypeSuperadminDeposit,
			OriginalAmount: deposit.Amount,
			DepositedBy:    superadminID,
			DepositID:      depositID,
			Description:    fmt.Sprintf("Commission from superadmin deposit of %.2f", deposit.Amount),
		})
		if err != nil {
			return err
		}

		if err := tx.Update(ctx, repositories.CollectionPendingDeposits, depositID, repositories.Fields{
			"status":            models.DepositCompleted,
			"adminId":           adminID,
			"completedBy":       superadminID,
			"completedAt":       now,
			"commissionEntryId": commission.ID,
			"updatedAt":         now,
		}); err != nil {
			return err
		}
		if err := s.settleHistory(ctx, tx, depositID, repositories.Fields{
			"status":                  models.DepositCompleted,
			"adminId":                 adminID,
			"amount":                  commission.CommissionAmount,
			"commissionTransactionId": commission.ID,
			"updatedAt":               now,
		}); err != nil {
			return err
		}

		if _, err := tx.Create(ctx, repositories.CollectionActivities, models.Activity{
			UserID:      seller.ID,
			Type:        models.ActivityDepositCompleted,
			Amount:      deposit.Amount,
			DepositID:   depositID,
			PerformedBy: superadminID,
			Description: fmt.Sprintf("Deposit of %.2f completed", deposit.Amount),
			CreatedAt:   now,
		}); err != nil {
			return err
		}

		result = models.DepositResult{
			DepositID:        depositID,
			AdminID:          adminID,
			NewBalance:       newBalance,
			CommissionAmount: commission.CommissionAmount,
		}
		return nil
	})
	if err != nil {
		res, err := s.failure("CompleteDeposit", err, "Failed to complete deposit", depositID)
		return &models.DepositResult{OperationResult: res}, err
	}

	s.commissions.committed(ctx, commission)
	s.publish(ctx, EventDepositCompleted, depositID, result)
	s.notify(ctx, deposit.SellerID, models.Notification{
		Title:   "Deposit completed",
		Message: fmt.Sprintf("A deposit of %.2f was added to your balance", deposit.Amount),
		Type:    models.NotificationDepositCompleted,
		Data:    map[string]string{"depositId": depositID},
	})

	result.OperationResult = models.Succeeded("Deposit completed successfully")
	return &result, nil
}

func (s *DepositService) CancelDeposit(ctx context.Context, depositID, performedBy string) (*models.OperationResult, error) {
	for _, check := range []error{
		requireID(depositID, "Deposit ID is required"),
		requireID(performedBy, "Performer ID is required"),
	} {
		if check != nil {
			res := models.FailedFrom(check, "")
			return &res, nil
		}
	}

	err := s.runTx(ctx, "CancelDeposit", func(ctx context.Context, tx repositories.Tx) error {
		var deposit models.PendingDeposit
		if err := tx.Get(ctx, repositories.CollectionPendingDeposits, depositID, &deposit); err != nil {
			return notFoundAs(err, "Deposit not found")
		}
		if deposit.Status != models.DepositPending {
			return models.Conflict(fmt.Sprintf("Deposit is already %s", deposit.Status))
		}
		now := s.now()
		if err := tx.Update(ctx, repositories.CollectionPendingDeposits, depositID, repositories.Fields{
			"status":    models.DepositCancelled,
			"updatedAt": now,
		}); err != nil {
			return err
		}
		return s.settleHistory(ctx, tx, depositID, repositories.Fields{
			"status":    models.DepositCancelled,
			"updatedAt": now,
		})
	})
	if err != nil {
		res, err := s.failure("CancelDeposit", err, "Failed to cancel deposit", depositID)
		return &res, err
	}
	s.Logger.WithField("depositId", depositID).WithField("performedBy", performedBy).Info("deposit cancelled")
	res := models.Succeeded("Deposit cancelled successfully")
	return &res, nil
}

// settleHistory moves the deposit's pending commission history rows to their final state.
func (s *DepositService) settleHistory(ctx context.Context, tx repositories.Tx, depositID string, fields repositories.Fields) error {
	var rows []models.CommissionHistory
	if err := tx.Find(ctx, repositories.CollectionCommissionHistory, repositories.Query{
		Filters: []repositories.Filter{
			repositories.Where("depositId", repositories.OpEq, depositID),
			repositories.Where("status", repositories.OpEq, models.DepositPending),
		},
	}, &rows); err != nil {
		return err
	}
	for _, row := range rows {
		if err := tx.Update(ctx, repositories.CollectionCommissionHistory, row.ID, fields); err != nil {
			return err
		}
	}
	return nil
}
