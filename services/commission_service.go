package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/HSouheill/marketplace_backend/metrics"
	"github.com/HSouheill/marketplace_backend/models"
	"github.com/HSouheill/marketplace_backend/repositories"
	"github.com/HSouheill/marketplace_backend/utils"
)

// CommissionInput describes one commission event.
type CommissionInput struct {
	AdminID        string
	SellerID       string
	Type           models.CommissionType
	OriginalAmount float64
	DepositedBy    string
	ReceiptID      string
	DepositID      string
	Description    string
}

func (in CommissionInput) validate() error {
	if err := requireID(in.AdminID, "Admin ID is required"); err != nil {
		return err
	}
	if err := requireID(in.SellerID, "Seller ID is required"); err != nil {
		return err
	}
	switch in.Type {
	case models.CommissionTypeSuperadminDeposit:
	case models.CommissionTypeReceiptApproval:
		if err := requireID(in.ReceiptID, "Receipt ID is required"); err != nil {
			return err
		}
	default:
		return models.Validation(fmt.Sprintf("Unknown commission type %q", in.Type))
	}
	return requirePositive(in.OriginalAmount, "Amount must be greater than zero")
}

// CommissionService records commission events and keeps each admin's cached balance in step
// with the append-only commission transaction log.
type CommissionService struct {
	base
	rate float64
}

func NewCommissionService(d Deps, rate float64) *CommissionService {
	return &CommissionService{base: newBase("commission", d), rate: rate}
}

func (s *CommissionService) Rate() float64 {
	return s.rate
}

func (s *CommissionService) RecordSuperadminDeposit(ctx context.Context, adminID, sellerID string, depositAmount float64, depositedBy, description string) (*models.CommissionResult, error) {
	if description == "" {
		description = fmt.Sprintf("Commission from superadmin deposit of %.2f", depositAmount)
	}
	return s.record(ctx, "RecordSuperadminDeposit", CommissionInput{
		AdminID:        adminID,
		SellerID:       sellerID,
		Type:           models.CommissionTypeSuperadminDeposit,
		OriginalAmount: depositAmount,
		DepositedBy:    depositedBy,
		Description:    description,
	})
}

func (s *CommissionService) RecordReceiptApprovalCommission(ctx context.Context, adminID, sellerID string, receiptAmount float64, receiptID, description string) (*models.CommissionResult, error) {
	if description == "" {
		description = fmt.Sprintf("Commission from approved receipt of %.2f", receiptAmount)
	}
	return s.record(ctx, "RecordReceiptApprovalCommission", CommissionInput{
		AdminID:        adminID,
		SellerID:       sellerID,
		Type:           models.CommissionTypeReceiptApproval,
		OriginalAmount: receiptAmount,
		ReceiptID:      receiptID,
		Description:    description,
	})
}

func (s *CommissionService) record(ctx context.Context, op string, in CommissionInput) (*models.CommissionResult, error) {
	if err := in.validate(); err != nil {
		metrics.CommissionAccrualsTotal.WithLabelValues(string(in.Type), "rejected").Inc()
		return &models.CommissionResult{OperationResult: models.FailedFrom(err, "Invalid commission")}, nil
	}

	var recorded *models.CommissionTransaction
	err := s.runTx(ctx, op, func(ctx context.Context, tx repositories.Tx) error {
		var err error
		recorded, err = s.RecordCommissionInTx(ctx, tx, in)
		return err
	})
	if err != nil {
		outcome := "failed"
		if models.IsExpected(err) {
			outcome = "rejected"
		}
		metrics.CommissionAccrualsTotal.WithLabelValues(string(in.Type), outcome).Inc()
		res, err := s.failure(op, err, "Failed to record commission", in)
		return &models.CommissionResult{OperationResult: res}, err
	}

	s.committed(ctx, recorded)
	return &models.CommissionResult{
		OperationResult:  models.Succeeded("Commission recorded successfully"),
		CommissionAmount: recorded.CommissionAmount,
		TransactionID:    recorded.ID,
	}, nil
}

// RecordCommissionInTx writes one commission transaction and moves the admin's cached balance
// inside the caller's transaction. Callers that commit must call committed afterwards.
// A receipt-approval commission requires the receipt to be approved already, within the same
// transaction, and links the receipt to the new commission so it can never accrue twice.
func (s *CommissionService) RecordCommissionInTx(ctx context.Context, tx repositories.Tx, in CommissionInput) (*models.CommissionTransaction, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	if _, err := repositories.GetUserWithRole(ctx, tx, in.AdminID, models.RoleAdmin, models.RoleSuperadmin); err != nil {
		return nil, notFoundAs(err, "Admin not found")
	}
	seller, err := repositories.GetUser(ctx, tx, in.SellerID)
	if err != nil {
		return nil, notFoundAs(err, "Seller not found")
	}
	if in.Type == models.CommissionTypeReceiptApproval {
		if err := checkReceiptAccruable(ctx, tx, in); err != nil {
			return nil, err
		}
	}

	var balance models.CommissionBalance
	err = tx.Get(ctx, repositories.CollectionCommissionBalances, in.AdminID, &balance)
	exists := err == nil
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	now := s.now()
	// The dummy flag below is read from the seller; writing the seller makes a concurrent
	// dummy toggle conflict instead of missing this row.
	if err := repositories.TouchUser(ctx, tx, in.SellerID, now); err != nil {
		return nil, err
	}
	txn := &models.CommissionTransaction{
		AdminID:            in.AdminID,
		SellerID:           in.SellerID,
		Type:               in.Type,
		OriginalAmount:     utils.RoundMoney(in.OriginalAmount),
		CommissionAmount:   utils.MulMoney(in.OriginalAmount, s.rate),
		DepositedBy:        in.DepositedBy,
		ReceiptID:          in.ReceiptID,
		DepositID:          in.DepositID,
		Description:        in.Description,
		Status:             models.CommissionStatusCompleted,
		ExcludeFromRevenue: seller.IsDummyAccount,
		CreatedAt:          now,
	}
	id, err := tx.Create(ctx, repositories.CollectionCommissionTransactions, txn)
	if err != nil {
		return nil, err
	}
	txn.ID = id

	if exists {
		err = tx.Update(ctx, repositories.CollectionCommissionBalances, in.AdminID, repositories.Fields{
			"totalCommissionBalance": utils.AddMoney(balance.TotalCommissionBalance, txn.CommissionAmount),
			"lastUpdated":            now,
		})
	} else {
		err = tx.Set(ctx, repositories.CollectionCommissionBalances, in.AdminID, models.CommissionBalance{
			AdminID:                in.AdminID,
			TotalCommissionBalance: txn.CommissionAmount,
			LastUpdated:            now,
			CreatedAt:              now,
		})
	}
	if err != nil {
		return nil, err
	}

	if in.Type == models.CommissionTypeReceiptApproval {
		if err := tx.Update(ctx, repositories.CollectionReceipts, in.ReceiptID, repositories.Fields{
			"commissionTransactionId": txn.ID,
			"updatedAt":               now,
		}); err != nil {
			return nil, err
		}
	}
	return txn, nil
}

func checkReceiptAccruable(ctx context.Context, tx repositories.Tx, in CommissionInput) error {
	var receipt models.Receipt
	if err := tx.Get(ctx, repositories.CollectionReceipts, in.ReceiptID, &receipt); err != nil {
		return notFoundAs(err, "Receipt not found")
	}
	if receipt.Status != models.ReceiptApproved {
		return models.Conflict(fmt.Sprintf("Receipt is %s; commission accrues only on approved receipts", receipt.Status))
	}
	if receipt.CommissionTransactionID != "" {
		return models.Conflict("Commission already recorded for this receipt")
	}
	if receipt.UserID != in.SellerID {
		return models.Validation("Receipt does not belong to this seller")
	}
	if utils.RoundMoney(receipt.Amount) != utils.RoundMoney(in.OriginalAmount) {
		return models.Validation("Commission amount does not match the receipt")
	}
	return nil
}

// committed runs the post-commit side effects of a recorded commission.
func (s *CommissionService) committed(ctx context.Context, txn *models.CommissionTransaction) {
	if txn == nil {
		return
	}
	metrics.CommissionAccrualsTotal.WithLabelValues(string(txn.Type), "success").Inc()
	metrics.CommissionAmountTotal.WithLabelValues(string(txn.Type)).Add(txn.CommissionAmount)
	s.publish(ctx, EventCommissionRecorded, txn.AdminID, txn)
}

// GetAdminCommissionBalance returns the cached balance, or 0 when there is none or it cannot be read.
func (s *CommissionService) GetAdminCommissionBalance(ctx context.Context, adminID string) float64 {
	balance, err := s.readBalance(ctx, adminID)
	if err != nil {
		s.degraded("GetAdminCommissionBalance", err, adminID)
		return 0
	}
	return balance
}

func (s *CommissionService) readBalance(ctx context.Context, adminID string) (float64, error) {
	var balance models.CommissionBalance
	err := s.Store.Get(ctx, repositories.CollectionCommissionBalances, adminID, &balance)
	if errors.Is(err, models.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return balance.TotalCommissionBalance, nil
}

// GetAdminCommissionSummary recomputes the admin's totals from the transaction log and
// reports the cached balance next to them.
func (s *CommissionService) GetAdminCommissionSummary(ctx context.Context, adminID string) (*models.CommissionSummary, error) {
	if err := requireID(adminID, "Admin ID is required"); err != nil {
		return nil, err
	}

	var txns []models.CommissionTransaction
	err := s.Store.Find(ctx, repositories.CollectionCommissionTransactions, repositories.Query{
		Filters: []repositories.Filter{repositories.Where("adminId", repositories.OpEq, adminID)},
	}, &txns)
	if err != nil {
		return nil, fmt.Errorf("failed to read commission transactions: %w", err)
	}

	summary := &models.CommissionSummary{AdminID: adminID}
	var deposits, receipts utils.Accumulator
	for i := range txns {
		t := txns[i]
		switch t.Type {
		case models.CommissionTypeSuperadminDeposit:
			deposits.Add(t.CommissionAmount)
		case models.CommissionTypeReceiptApproval:
			receipts.Add(t.CommissionAmount)
		}
		if summary.LastTransactionAt == nil || t.CreatedAt.After(*summary.LastTransactionAt) {
			created := t.CreatedAt
			summary.LastTransactionAt = &created
		}
	}
	summary.TotalFromSuperadminDeposits = deposits.Float64()
	summary.TotalFromReceiptApprovals = receipts.Float64()
	summary.TotalCommission = utils.AddMoney(summary.TotalFromSuperadminDeposits, summary.TotalFromReceiptApprovals)
	summary.TransactionCount = len(txns)
	summary.CachedBalance = s.GetAdminCommissionBalance(ctx, adminID)
	return summary, nil
}

// GetTotalCommissionBalance sums every cached balance and recomputes the per-type breakdown
// across all transactions.
func (s *CommissionService) GetTotalCommissionBalance(ctx context.Context) (*models.TotalCommissionBalance, error) {
	var balances []models.CommissionBalance
	if err := s.Store.Find(ctx, repositories.CollectionCommissionBalances, repositories.Query{}, &balances); err != nil {
		return nil, fmt.Errorf("failed to read commission balances: %w", err)
	}
	var txns []models.CommissionTransaction
	if err := s.Store.Find(ctx, repositories.CollectionCommissionTransactions, repositories.Query{}, &txns); err != nil {
		return nil, fmt.Errorf("failed to read commission transactions: %w", err)
	}

	var total, deposits, receipts utils.Accumulator
	for _, b := range balances {
		total.Add(b.TotalCommissionBalance)
	}
	for _, t := range txns {
		switch t.Type {
		case models.CommissionTypeSuperadminDeposit:
			deposits.Add(t.CommissionAmount)
		case models.CommissionTypeReceiptApproval:
			receipts.Add(t.CommissionAmount)
		}
	}
	return &models.TotalCommissionBalance{
		AdminCount:                  len(balances),
		TotalBalance:                total.Float64(),
		TotalFromSuperadminDeposits: deposits.Float64(),
		TotalFromReceiptApprovals:   receipts.Float64(),
		TransactionCount:            len(txns),
	}, nil
}

// ReconcileAdminCommission compares the cached balance with the sum of the admin's log.
// With repair set, the cache is rewritten from the log in the same transaction.
func (s *CommissionService) ReconcileAdminCommission(ctx context.Context, adminID string, repair bool) (*models.ReconciliationResult, error) {
	if err := requireID(adminID, "Admin ID is required"); err != nil {
		return &models.ReconciliationResult{OperationResult: models.FailedFrom(err, ""), AdminID: adminID}, nil
	}

	result := &models.ReconciliationResult{AdminID: adminID}
	err := s.runTx(ctx, "ReconcileAdminCommission", func(ctx context.Context, tx repositories.Tx) error {
		var balance models.CommissionBalance
		err := tx.Get(ctx, repositories.CollectionCommissionBalances, adminID, &balance)
		exists := err == nil
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return err
		}

		var txns []models.CommissionTransaction
		if err := tx.Find(ctx, repositories.CollectionCommissionTransactions, repositories.Query{
			Filters: []repositories.Filter{repositories.Where("adminId", repositories.OpEq, adminID)},
		}, &txns); err != nil {
			return err
		}
		if !exists && len(txns) == 0 {
			return models.NotFound("No commission records for this admin")
		}

		var ledger utils.Accumulator
		for _, t := range txns {
			ledger.Add(t.CommissionAmount)
		}
		result.CachedBalance = balance.TotalCommissionBalance
		result.LedgerBalance = ledger.Float64()
		result.Drift = utils.SubMoney(result.CachedBalance, result.LedgerBalance)
		result.Repaired = false

		if !repair || (exists && result.Drift == 0) {
			return nil
		}
		now := s.now()
		createdAt := balance.CreatedAt
		if !exists {
			createdAt = now
		}
		result.Repaired = true
		return tx.Set(ctx, repositories.CollectionCommissionBalances, adminID, models.CommissionBalance{
			AdminID:                adminID,
			TotalCommissionBalance: result.LedgerBalance,
			LastUpdated:            now,
			CreatedAt:              createdAt,
		})
	})
	if err != nil {
		res, err := s.failure("ReconcileAdminCommission", err, "Failed to reconcile commission balance", adminID)
		return &models.ReconciliationResult{OperationResult: res, AdminID: adminID}, err
	}

	switch {
	case result.Repaired:
		s.Logger.WithField("adminId", adminID).WithField("drift", result.Drift).Warn("commission balance repaired from log")
		result.OperationResult = models.Succeeded("Commission balance repaired")
	case result.Drift != 0:
		result.OperationResult = models.Succeeded("Commission balance drift detected")
	default:
		result.OperationResult = models.Succeeded("Commission balance matches the transaction log")
	}
	return result, nil
}

// ReconcileAllAdminCommissions runs ReconcileAdminCommission for every admin that has a cached
// balance or a commission transaction.
func (s *CommissionService) ReconcileAllAdminCommissions(ctx context.Context, repair bool) ([]models.ReconciliationResult, error) {
	var balances []models.CommissionBalance
	if err := s.Store.Find(ctx, repositories.CollectionCommissionBalances, repositories.Query{}, &balances); err != nil {
		return nil, fmt.Errorf("failed to read commission balances: %w", err)
	}
	var txns []models.CommissionTransaction
	if err := s.Store.Find(ctx, repositories.CollectionCommissionTransactions, repositories.Query{}, &txns); err != nil {
		return nil, fmt.Errorf("failed to read commission transactions: %w", err)
	}

	seen := make(map[string]bool)
	var adminIDs []string
	for _, b := range balances {
		if !seen[b.AdminID] {
			seen[b.AdminID] = true
			adminIDs = append(adminIDs, b.AdminID)
		}
	}
	for _, t := range txns {
		if !seen[t.AdminID] {
			seen[t.AdminID] = true
			adminIDs = append(adminIDs, t.AdminID)
		}
	}

	results := make([]models.ReconciliationResult, 0, len(adminIDs))
	for _, adminID := range adminIDs {
		res, err := s.ReconcileAdminCommission(ctx, adminID, repair)
		if err != nil {
			return results, err
		}
		results = append(results, *res)
	}
	return results, nil
}

// recentTransactions returns the admin's latest transactions, newest first.
func (s *CommissionService) recentTransactions(ctx context.Context, adminID string, limit int) ([]models.CommissionTransaction, error) {
	var txns []models.CommissionTransaction
	err := s.Store.Find(ctx, repositories.CollectionCommissionTransactions, repositories.Query{
		Filters:    []repositories.Filter{repositories.Where("adminId", repositories.OpEq, adminID)},
		OrderBy:    "createdAt",
		Descending: true,
		Limit:      limit,
	}, &txns)
	if txns == nil {
		txns = []models.CommissionTransaction{}
	}
	return txns, err
}
