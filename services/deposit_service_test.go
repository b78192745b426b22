package services

import (
	"context"
	"testing"

	"github.com/HSouheill/marketplace_backend/models"
	"github.com/HSouheill/marketplace_backend/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteDeposit_CreditsSellerAndAccruesCommission(t *testing.T) {
	// GIVEN a pending deposit
	e := newEnv(t)
	e.standardUsers(t)
	ctx := context.Background()
	svc := NewDepositService(e.deps, e.commissions)
	created, err := svc.CreateDeposit(ctx, "seller-1", 250, "root")
	require.NoError(t, err)
	require.True(t, created.Success, created.Message)

	// WHEN it is completed twice
	done, err := svc.CompleteDeposit(ctx, created.DepositID, "root")
	require.NoError(t, err)
	again, err := svc.CompleteDeposit(ctx, created.DepositID, "root")
	require.NoError(t, err)

	// THEN the seller is credited once and the commission accrues once
	assert.True(t, done.Success)
	assert.Equal(t, 250.0, done.NewBalance)
	assert.Equal(t, 250.0, done.CommissionAmount)
	assert.False(t, again.Success)
	assert.Equal(t, "Deposit is already completed", again.Message)
	assert.Equal(t, 250.0, e.user(t, "seller-1").Balance)

	txns := e.commissionTxns(t, "admin-a")
	require.Len(t, txns, 1)
	assert.Equal(t, created.DepositID, txns[0].DepositID)
	assert.Equal(t, "root", txns[0].DepositedBy)

	var deposit models.PendingDeposit
	require.NoError(t, e.store.Get(ctx, repositories.CollectionPendingDeposits, created.DepositID, &deposit))
	assert.Equal(t, models.DepositCompleted, deposit.Status)
	assert.Equal(t, txns[0].ID, deposit.CommissionEntryID)

	var history []models.CommissionHistory
	e.findAll(t, repositories.CollectionCommissionHistory, &history)
	require.Len(t, history, 1)
	assert.Equal(t, models.DepositCompleted, history[0].Status)
	assert.Equal(t, txns[0].ID, history[0].CommissionTransactionID)

	acts := e.activities(t, "seller-1")
	require.Len(t, acts, 1)
	assert.Equal(t, models.ActivityDepositCompleted, acts[0].Type)
	assert.Contains(t, e.events.types(), EventDepositCompleted)
}

func TestCreateDeposit_RequiresSeller(t *testing.T) {
	e := newEnv(t)
	e.standardUsers(t)
	svc := NewDepositService(e.deps, e.commissions)

	res, err := svc.CreateDeposit(context.Background(), "admin-a", 10, "root")
	require.NoError(t, err)
	assert.Equal(t, "Seller not found", res.Message)

	res, err = svc.CreateDeposit(context.Background(), "seller-1", -1, "root")
	require.NoError(t, err)
	assert.Equal(t, "Amount must be greater than zero", res.Message)
}

func TestCreateDeposit_DummySellerRowsAreMarked(t *testing.T) {
	e := newEnv(t)
	e.standardUsers(t)
	e.seedUsers(t, models.User{ID: "dummy", Role: models.RoleSeller, AdminID: "admin-a", ReferredBy: "admin-a", IsDummyAccount: true})
	svc := NewDepositService(e.deps, e.commissions)

	res, err := svc.CreateDeposit(context.Background(), "dummy", 10, "root")
	require.NoError(t, err)
	require.True(t, res.Success)

	var deposit models.PendingDeposit
	require.NoError(t, e.store.Get(context.Background(), repositories.CollectionPendingDeposits, res.DepositID, &deposit))
	assert.True(t, deposit.ExcludeFromRevenue)
	assert.True(t, deposit.DummyMarked)
}

func TestCancelDeposit_OnlyPending(t *testing.T) {
	e := newEnv(t)
	e.standardUsers(t)
	ctx := context.Background()
	svc := NewDepositService(e.deps, e.commissions)
	created, err := svc.CreateDeposit(ctx, "seller-1", 30, "root")
	require.NoError(t, err)

	cancelled, err := svc.CancelDeposit(ctx, created.DepositID, "root")
	require.NoError(t, err)
	assert.True(t, cancelled.Success)

	complete, err := svc.CompleteDeposit(ctx, created.DepositID, "root")
	require.NoError(t, err)
	assert.Equal(t, "Deposit is already cancelled", complete.Message)
	assert.Equal(t, 0.0, e.user(t, "seller-1").Balance)

	var history []models.CommissionHistory
	e.findAll(t, repositories.CollectionCommissionHistory, &history)
	require.Len(t, history, 1)
	assert.Equal(t, models.DepositCancelled, history[0].Status)

	missing, err := svc.CancelDeposit(ctx, "missing", "root")
	require.NoError(t, err)
	assert.Equal(t, "Deposit not found", missing.Message)
}

// interleavingStore runs beforeCommit once, after the first transaction body succeeded and
// before that transaction commits.
type interleavingStore struct {
	*repositories.MemoryStore
	beforeCommit func()
	attempts     int
}

func (s *interleavingStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Tx) error) error {
	return s.MemoryStore.RunTransaction(ctx, func(ctx context.Context, tx repositories.Tx) error {
		s.attempts++
		if err := fn(ctx, tx); err != nil {
			return err
		}
		if hook := s.beforeCommit; hook != nil {
			s.beforeCommit = nil
			hook()
		}
		return nil
	})
}

func TestCreateDeposit_DuringDummyToggleIsStillExcluded(t *testing.T) {
	// GIVEN a dummy toggle that has scanned seller-1's rows but not yet committed
	e := newEnv(t)
	e.standardUsers(t)
	ctx := context.Background()
	deposits := NewDepositService(e.deps, e.commissions)

	var deposit *models.DepositResult
	store := &interleavingStore{MemoryStore: e.store}
	store.beforeCommit = func() {
		var err error
		deposit, err = deposits.CreateDeposit(ctx, "seller-1", 25, "root")
		require.NoError(t, err)
	}
	toggleDeps := e.deps
	toggleDeps.Store = store
	sellers := NewSellerManagementService(toggleDeps)

	// WHEN a deposit for the seller commits in that window
	res, err := sellers.ToggleDummyAccount(ctx, "seller-1", true, "test account", "root")

	// THEN the toggle retries and the new deposit is excluded with the rest
	require.NoError(t, err)
	require.True(t, res.Success, res.Message)
	require.NotNil(t, deposit)
	require.True(t, deposit.Success, deposit.Message)
	assert.Equal(t, 2, store.attempts)
	assert.True(t, e.user(t, "seller-1").IsDummyAccount)

	var stored models.PendingDeposit
	require.NoError(t, e.store.Get(ctx, repositories.CollectionPendingDeposits, deposit.DepositID, &stored))
	assert.True(t, stored.ExcludeFromRevenue)
	assert.True(t, stored.DummyMarked)

	var history []models.CommissionHistory
	e.findAll(t, repositories.CollectionCommissionHistory, &history,
		repositories.Where("depositId", repositories.OpEq, deposit.DepositID))
	require.Len(t, history, 1)
	assert.True(t, history[0].ExcludeFromRevenue)
}
