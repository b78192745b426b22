package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/HSouheill/marketplace_backend/models"
	"github.com/HSouheill/marketplace_backend/repositories"
	"github.com/HSouheill/marketplace_backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordSuperadminDeposit_CreatesBalanceLazilyAndAccumulates(t *testing.T) {
	// GIVEN an admin without a commission balance
	e := newEnv(t)
	e.standardUsers(t)
	ctx := context.Background()
	assert.Equal(t, 0.0, e.commissions.GetAdminCommissionBalance(ctx, "admin-a"))

	// WHEN two deposits are recorded
	first, err := e.commissions.RecordSuperadminDeposit(ctx, "admin-a", "seller-1", 100, "root", "")
	require.NoError(t, err)
	second, err := e.commissions.RecordSuperadminDeposit(ctx, "admin-a", "seller-1", 50.25, "root", "")
	require.NoError(t, err)

	// THEN both succeed and the balance is their sum
	assert.True(t, first.Success)
	assert.True(t, second.Success)
	assert.Equal(t, 100.0, first.CommissionAmount)
	assert.NotEmpty(t, first.TransactionID)
	assert.Equal(t, 150.25, e.commissions.GetAdminCommissionBalance(ctx, "admin-a"))

	txns := e.commissionTxns(t, "admin-a")
	require.Len(t, txns, 2)
	assert.Equal(t, models.CommissionTypeSuperadminDeposit, txns[0].Type)
	assert.Equal(t, "root", txns[0].DepositedBy)
	assert.Equal(t, models.CommissionStatusCompleted, txns[0].Status)
	assert.Contains(t, e.events.types(), EventCommissionRecorded)
}

func TestRecordCommission_AppliesConfiguredRate(t *testing.T) {
	e := newEnv(t)
	e.standardUsers(t)
	svc := NewCommissionService(e.deps, 0.1)
	e.receiptWithStatus(t, "receipt-1", "seller-1", 250, models.ReceiptApproved)

	res, err := svc.RecordReceiptApprovalCommission(context.Background(), "admin-a", "seller-1", 250, "receipt-1", "")

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 25.0, res.CommissionAmount)
	txns := e.commissionTxns(t, "admin-a")
	require.Len(t, txns, 1)
	assert.Equal(t, 250.0, txns[0].OriginalAmount)
	assert.Equal(t, "receipt-1", txns[0].ReceiptID)
	assert.Equal(t, res.TransactionID, e.receipt(t, "receipt-1").CommissionTransactionID)
}

func TestRecordCommission_InvalidInputWritesNothing(t *testing.T) {
	e := newEnv(t)
	e.standardUsers(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		adminID  string
		sellerID string
		amount   float64
		message  string
	}{
		{"missing admin", "", "seller-1", 10, "Admin ID is required"},
		{"missing seller", "admin-a", " ", 10, "Seller ID is required"},
		{"zero amount", "admin-a", "seller-1", 0, "Amount must be greater than zero"},
		{"negative amount", "admin-a", "seller-1", -5, "Amount must be greater than zero"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := e.commissions.RecordSuperadminDeposit(ctx, tc.adminID, tc.sellerID, tc.amount, "root", "")
			require.NoError(t, err)
			assert.False(t, res.Success)
			assert.Equal(t, tc.message, res.Message)
		})
	}
	assert.Empty(t, e.commissionTxns(t, "admin-a"))
}

func TestRecordCommission_UnknownPartiesAreNotFound(t *testing.T) {
	e := newEnv(t)
	e.standardUsers(t)
	ctx := context.Background()

	// a seller is not an admin
	res, err := e.commissions.RecordSuperadminDeposit(ctx, "seller-1", "seller-1", 10, "root", "")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Admin not found", res.Message)

	res, err = e.commissions.RecordSuperadminDeposit(ctx, "admin-a", "ghost", 10, "root", "")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Seller not found", res.Message)

	assert.Equal(t, 0.0, e.commissions.GetAdminCommissionBalance(ctx, "admin-a"))
}

func TestRecordCommission_RetriesTransientConflicts(t *testing.T) {
	// GIVEN a store whose first two transactions fail transiently
	e := newEnv(t)
	e.standardUsers(t)
	faulty := &faultyStore{Store: e.store}
	faulty.txFailures.Store(2)
	deps := e.deps
	deps.Store = faulty
	svc := NewCommissionService(deps, 1.0)

	// WHEN a commission is recorded
	res, err := svc.RecordSuperadminDeposit(context.Background(), "admin-a", "seller-1", 40, "root", "")

	// THEN the third attempt commits exactly one transaction
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, int32(3), faulty.txCalls.Load())
	assert.Len(t, e.commissionTxns(t, "admin-a"), 1)
	assert.Equal(t, 40.0, svc.GetAdminCommissionBalance(context.Background(), "admin-a"))
}

func TestRecordCommission_GivesUpAtRetryCeiling(t *testing.T) {
	e := newEnv(t)
	e.standardUsers(t)
	faulty := &faultyStore{Store: e.store}
	faulty.txFailures.Store(10)
	deps := e.deps
	deps.Store = faulty
	svc := NewCommissionService(deps, 1.0)

	res, err := svc.RecordSuperadminDeposit(context.Background(), "admin-a", "seller-1", 40, "root", "")

	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrTransient))
	assert.False(t, res.Success)
	assert.Equal(t, "Failed to record commission, please try again", res.Message)
	assert.Equal(t, int32(3), faulty.txCalls.Load())
	assert.Empty(t, e.commissionTxns(t, "admin-a"))
}

func TestRecordCommission_BalanceMatchesLogUnderConcurrentAccruals(t *testing.T) {
	// GIVEN three admins, each with a seller
	e := newEnv(t)
	admins := []string{"admin-1", "admin-2", "admin-3"}
	for _, a := range admins {
		e.seedUsers(t,
			models.User{ID: a, Role: models.RoleAdmin},
			models.User{ID: "seller-of-" + a, Role: models.RoleSeller, AdminID: a, ReferredBy: a},
		)
	}
	for i := 1; i < 30; i += 2 {
		admin := admins[i%len(admins)]
		e.receiptWithStatus(t, fmt.Sprintf("r-%d", i), "seller-of-"+admin, float64(i%7)+0.35, models.ReceiptApproved)
	}
	deps := e.deps
	deps.Retry = utils.RetryPolicy{MaxAttempts: 100, BaseDelay: 100 * time.Microsecond, MaxDelay: 2 * time.Millisecond}
	svc := NewCommissionService(deps, 1.0)

	// WHEN accruals of both types interleave across admins
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			admin := admins[i%len(admins)]
			amount := float64(i%7) + 0.35
			var (
				res *models.CommissionResult
				err error
			)
			if i%2 == 0 {
				res, err = svc.RecordSuperadminDeposit(ctx, admin, "seller-of-"+admin, amount, "root", "")
			} else {
				res, err = svc.RecordReceiptApprovalCommission(ctx, admin, "seller-of-"+admin, amount, fmt.Sprintf("r-%d", i), "")
			}
			assert.NoError(t, err)
			assert.True(t, res.Success, res.Message)
		}(i)
	}
	wg.Wait()

	// THEN every cached balance equals the sum of that admin's log
	for _, admin := range admins {
		var ledger utils.Accumulator
		txns := e.commissionTxns(t, admin)
		assert.Len(t, txns, 10)
		for _, txn := range txns {
			ledger.Add(txn.CommissionAmount)
		}
		assert.Equal(t, ledger.Float64(), svc.GetAdminCommissionBalance(ctx, admin), admin)

		rec, err := svc.ReconcileAdminCommission(ctx, admin, false)
		require.NoError(t, err)
		assert.Equal(t, 0.0, rec.Drift)
	}
}

func TestGetAdminCommissionSummary_RecomputesFromLog(t *testing.T) {
	e := newEnv(t)
	e.standardUsers(t)
	ctx := context.Background()
	_, err := e.commissions.RecordSuperadminDeposit(ctx, "admin-a", "seller-1", 100, "root", "")
	require.NoError(t, err)
	e.receiptWithStatus(t, "r-1", "seller-1", 20.5, models.ReceiptApproved)
	_, err = e.commissions.RecordReceiptApprovalCommission(ctx, "admin-a", "seller-1", 20.5, "r-1", "")
	require.NoError(t, err)

	summary, err := e.commissions.GetAdminCommissionSummary(ctx, "admin-a")

	require.NoError(t, err)
	assert.Equal(t, 100.0, summary.TotalFromSuperadminDeposits)
	assert.Equal(t, 20.5, summary.TotalFromReceiptApprovals)
	assert.Equal(t, 120.5, summary.TotalCommission)
	assert.Equal(t, 120.5, summary.CachedBalance)
	assert.Equal(t, 2, summary.TransactionCount)
	require.NotNil(t, summary.LastTransactionAt)
	assert.True(t, jan10.Equal(*summary.LastTransactionAt))
}

func TestGetTotalCommissionBalance_SumsAcrossAdmins(t *testing.T) {
	e := newEnv(t)
	e.standardUsers(t)
	e.seedUsers(t, models.User{ID: "seller-2", Role: models.RoleSeller, AdminID: "admin-b", ReferredBy: "admin-b"})
	ctx := context.Background()
	_, err := e.commissions.RecordSuperadminDeposit(ctx, "admin-a", "seller-1", 10, "root", "")
	require.NoError(t, err)
	e.receiptWithStatus(t, "r-1", "seller-2", 15, models.ReceiptApproved)
	_, err = e.commissions.RecordReceiptApprovalCommission(ctx, "admin-b", "seller-2", 15, "r-1", "")
	require.NoError(t, err)

	total, err := e.commissions.GetTotalCommissionBalance(ctx)

	require.NoError(t, err)
	assert.Equal(t, 2, total.AdminCount)
	assert.Equal(t, 25.0, total.TotalBalance)
	assert.Equal(t, 10.0, total.TotalFromSuperadminDeposits)
	assert.Equal(t, 15.0, total.TotalFromReceiptApprovals)
	assert.Equal(t, 2, total.TransactionCount)
}

func TestGetAdminCommissionBalance_ZeroOnReadFailure(t *testing.T) {
	e := newEnv(t)
	e.standardUsers(t)
	_, err := e.commissions.RecordSuperadminDeposit(context.Background(), "admin-a", "seller-1", 10, "root", "")
	require.NoError(t, err)

	faulty := &faultyStore{Store: e.store}
	faulty.failReads.Store(true)
	deps := e.deps
	deps.Store = faulty
	svc := NewCommissionService(deps, 1.0)

	assert.Equal(t, 0.0, svc.GetAdminCommissionBalance(context.Background(), "admin-a"))
}

func TestReconcileAdminCommission_DetectsAndRepairsDrift(t *testing.T) {
	// GIVEN a cached balance that drifted from the log
	e := newEnv(t)
	e.standardUsers(t)
	ctx := context.Background()
	_, err := e.commissions.RecordSuperadminDeposit(ctx, "admin-a", "seller-1", 60, "root", "")
	require.NoError(t, err)
	require.NoError(t, e.store.RunTransaction(ctx, func(ctx context.Context, tx repositories.Tx) error {
		return tx.Update(ctx, repositories.CollectionCommissionBalances, "admin-a", repositories.Fields{"totalCommissionBalance": 75.0})
	}))

	// WHEN reconciling without repair
	check, err := e.commissions.ReconcileAdminCommission(ctx, "admin-a", false)

	// THEN the drift is reported and left alone
	require.NoError(t, err)
	assert.True(t, check.Success)
	assert.Equal(t, 15.0, check.Drift)
	assert.False(t, check.Repaired)
	assert.Equal(t, 75.0, e.commissions.GetAdminCommissionBalance(ctx, "admin-a"))

	// WHEN reconciling with repair
	fixed, err := e.commissions.ReconcileAdminCommission(ctx, "admin-a", true)

	// THEN the cache is rebuilt from the log
	require.NoError(t, err)
	assert.True(t, fixed.Repaired)
	assert.Equal(t, 60.0, fixed.LedgerBalance)
	assert.Equal(t, 60.0, e.commissions.GetAdminCommissionBalance(ctx, "admin-a"))
}

func TestReconcileAdminCommission_UnknownAdmin(t *testing.T) {
	e := newEnv(t)

	res, err := e.commissions.ReconcileAdminCommission(context.Background(), "nobody", true)

	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "No commission records for this admin", res.Message)
}

func TestReconcileAllAdminCommissions_CoversEveryAdmin(t *testing.T) {
	e := newEnv(t)
	e.standardUsers(t)
	e.seedUsers(t, models.User{ID: "seller-2", Role: models.RoleSeller, AdminID: "admin-b", ReferredBy: "admin-b"})
	ctx := context.Background()
	_, err := e.commissions.RecordSuperadminDeposit(ctx, "admin-a", "seller-1", 10, "root", "")
	require.NoError(t, err)
	_, err = e.commissions.RecordSuperadminDeposit(ctx, "admin-b", "seller-2", 20, "root", "")
	require.NoError(t, err)

	results, err := e.commissions.ReconcileAllAdminCommissions(ctx, false)

	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.True(t, r.Success)
		assert.Equal(t, 0.0, r.Drift)
	}
}

func TestRecordReceiptApprovalCommission_OnlyForApprovedReceipts(t *testing.T) {
	// GIVEN a pending receipt and a rejected receipt from seller-1
	e := newEnv(t)
	e.standardUsers(t)
	ctx := context.Background()
	e.receiptWithStatus(t, "pending-1", "seller-1", 40, models.ReceiptPending)
	e.receiptWithStatus(t, "rejected-1", "seller-1", 60, models.ReceiptRejected)

	// WHEN commission is requested for each
	pending, err := e.commissions.RecordReceiptApprovalCommission(ctx, "admin-a", "seller-1", 40, "pending-1", "")
	require.NoError(t, err)
	rejected, err := e.commissions.RecordReceiptApprovalCommission(ctx, "admin-a", "seller-1", 60, "rejected-1", "")
	require.NoError(t, err)

	// THEN both are refused as conflicts and nothing accrues
	assert.False(t, pending.Success)
	assert.Equal(t, models.ReasonConflict, pending.Reason)
	assert.False(t, rejected.Success)
	assert.Equal(t, models.ReasonConflict, rejected.Reason)
	assert.Empty(t, e.commissionTxns(t, "admin-a"))
	assert.Equal(t, 0.0, e.commissions.GetAdminCommissionBalance(ctx, "admin-a"))
	assert.Empty(t, e.receipt(t, "pending-1").CommissionTransactionID)
}

func TestRecordReceiptApprovalCommission_AccruesOncePerReceipt(t *testing.T) {
	// GIVEN an approved receipt
	e := newEnv(t)
	e.standardUsers(t)
	ctx := context.Background()
	e.receiptWithStatus(t, "r-1", "seller-1", 60, models.ReceiptApproved)

	// WHEN commission is requested twice
	first, err := e.commissions.RecordReceiptApprovalCommission(ctx, "admin-a", "seller-1", 60, "r-1", "")
	require.NoError(t, err)
	second, err := e.commissions.RecordReceiptApprovalCommission(ctx, "admin-a", "seller-1", 60, "r-1", "")
	require.NoError(t, err)

	// THEN only the first accrues
	assert.True(t, first.Success)
	assert.False(t, second.Success)
	assert.Equal(t, models.ReasonConflict, second.Reason)
	assert.Equal(t, "Commission already recorded for this receipt", second.Message)
	assert.Len(t, e.commissionTxns(t, "admin-a"), 1)
	assert.Equal(t, 60.0, e.commissions.GetAdminCommissionBalance(ctx, "admin-a"))
}

func TestRecordReceiptApprovalCommission_RejectsMismatchedReceipt(t *testing.T) {
	e := newEnv(t)
	e.standardUsers(t)
	e.seedUsers(t, models.User{ID: "seller-2", Role: models.RoleSeller, AdminID: "admin-a", ReferredBy: "admin-a"})
	ctx := context.Background()
	e.receiptWithStatus(t, "r-1", "seller-2", 60, models.ReceiptApproved)

	cases := []struct {
		name      string
		sellerID  string
		amount    float64
		receiptID string
		reason    string
	}{
		{"other seller", "seller-1", 60, "r-1", models.ReasonValidation},
		{"other amount", "seller-2", 600, "r-1", models.ReasonValidation},
		{"unknown receipt", "seller-2", 60, "nope", models.ReasonNotFound},
		{"no receipt id", "seller-2", 60, "", models.ReasonValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := e.commissions.RecordReceiptApprovalCommission(ctx, "admin-a", tc.sellerID, tc.amount, tc.receiptID, "")
			require.NoError(t, err)
			assert.False(t, res.Success)
			assert.Equal(t, tc.reason, res.Reason)
		})
	}
	assert.Empty(t, e.commissionTxns(t, "admin-a"))
}
