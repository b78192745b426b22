package services

import (
	"context"
	"testing"
	"time"

	"github.com/HSouheill/marketplace_backend/models"
	"github.com/HSouheill/marketplace_backend/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *env) findAll(t *testing.T, collection string, out interface{}, filters ...repositories.Filter) {
	t.Helper()
	require.NoError(t, e.store.Find(context.Background(), collection, repositories.Query{Filters: filters}, out))
}

func TestMigrateSeller_IsProspectiveOnly(t *testing.T) {
	// GIVEN seller-1 under admin A with a completed commission and a pending deposit
	e := newEnv(t)
	e.standardUsers(t)
	ctx := context.Background()
	deposits := NewDepositService(e.deps, e.commissions)
	_, err := e.commissions.RecordSuperadminDeposit(ctx, "admin-a", "seller-1", 100, "root", "")
	require.NoError(t, err)
	pending, err := deposits.CreateDeposit(ctx, "seller-1", 40, "root")
	require.NoError(t, err)
	require.True(t, pending.Success)
	assert.Equal(t, "admin-a", pending.AdminID)

	// WHEN the seller is migrated to admin B
	svc := NewSellerManagementService(e.deps)
	e.clock.Set(jan10.Add(time.Hour))
	res, err := svc.MigrateSeller(ctx, "seller-1", "admin-b", "territory change", "root")

	// THEN ownership moves, history is kept and the pending deposit follows
	require.NoError(t, err)
	require.True(t, res.Success, res.Message)
	assert.NotEmpty(t, res.MigrationID)
	assert.Equal(t, 1, res.PendingDepositsUpdated)
	assert.Equal(t, 1, res.PendingCommissionsUpdated)

	seller := e.user(t, "seller-1")
	assert.Equal(t, "admin-b", seller.AdminID)
	assert.Equal(t, "admin-b", seller.ReferredBy)
	assert.Equal(t, "admin-a", seller.OriginalReferredBy)
	require.Len(t, seller.MigrationHistory, 1)
	assert.Equal(t, res.MigrationID, seller.MigrationHistory[0].MigrationID)

	historical := e.commissionTxns(t, "admin-a")
	require.Len(t, historical, 1)
	assert.Equal(t, 100.0, e.commissions.GetAdminCommissionBalance(ctx, "admin-a"))

	// AND a new deposit's commission goes to B
	done, err := deposits.CompleteDeposit(ctx, pending.DepositID, "root")
	require.NoError(t, err)
	require.True(t, done.Success, done.Message)
	assert.Equal(t, "admin-b", done.AdminID)
	assert.Len(t, e.commissionTxns(t, "admin-a"), 1)
	assert.Len(t, e.commissionTxns(t, "admin-b"), 1)
	assert.Equal(t, 40.0, e.commissions.GetAdminCommissionBalance(ctx, "admin-b"))

	// AND a second migration keeps the original referrer
	e.clock.Set(jan10.Add(2 * time.Hour))
	_, err = svc.MigrateSeller(ctx, "seller-1", "admin-a", "back again", "root")
	require.NoError(t, err)
	assert.Equal(t, "admin-a", e.user(t, "seller-1").OriginalReferredBy)

	records, err := svc.GetMigrationHistory(ctx, "seller-1", 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "admin-a", records[1].FromAdminID)
	assert.Equal(t, "admin-b", records[1].ToAdminID)
}

func TestMigrateSeller_SameAdminIsRejectedWithoutWrites(t *testing.T) {
	e := newEnv(t)
	e.standardUsers(t)
	svc := NewSellerManagementService(e.deps)
	before := e.user(t, "seller-1")

	res, err := svc.MigrateSeller(context.Background(), "seller-1", "admin-a", "no-op", "root")

	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Seller is already under this admin", res.Message)
	assert.Equal(t, before, e.user(t, "seller-1"))
	var records []models.MigrationRecord
	e.findAll(t, repositories.CollectionSellerMigrations, &records)
	assert.Empty(t, records)
}

func TestMigrateSeller_Validation(t *testing.T) {
	e := newEnv(t)
	e.standardUsers(t)
	svc := NewSellerManagementService(e.deps)
	ctx := context.Background()

	res, err := svc.MigrateSeller(ctx, "seller-1", "admin-b", "", "root")
	require.NoError(t, err)
	assert.Equal(t, "Migration reason is required", res.Message)

	res, err = svc.MigrateSeller(ctx, "seller-1", "ghost", "reason", "root")
	require.NoError(t, err)
	assert.Equal(t, "Admin not found", res.Message)

	res, err = svc.MigrateSeller(ctx, "admin-a", "admin-b", "reason", "root")
	require.NoError(t, err)
	assert.Equal(t, "Seller not found", res.Message)
}

func TestMigrateSeller_CapsEmbeddedHistory(t *testing.T) {
	e := newEnv(t)
	e.standardUsers(t)
	svc := NewSellerManagementService(e.deps)
	ctx := context.Background()

	targets := []string{"admin-b", "admin-a"}
	for i := 0; i < maxEmbeddedHistory+5; i++ {
		res, err := svc.MigrateSeller(ctx, "seller-1", targets[i%2], "rotation", "root")
		require.NoError(t, err)
		require.True(t, res.Success, res.Message)
	}

	assert.Len(t, e.user(t, "seller-1").MigrationHistory, maxEmbeddedHistory)
	records, err := svc.GetMigrationHistory(ctx, "seller-1", 500)
	require.NoError(t, err)
	assert.Len(t, records, maxEmbeddedHistory+5)
}

func TestToggleDummyAccount_ExcludesWhileMarkedOnly(t *testing.T) {
	// GIVEN a normal seller with one commission
	e := newEnv(t)
	e.standardUsers(t)
	ctx := context.Background()
	svc := NewSellerManagementService(e.deps)
	revenue := NewMonthlyRevenueService(e.deps)
	_, err := e.commissions.RecordSuperadminDeposit(ctx, "admin-a", "seller-1", 10, "root", "")
	require.NoError(t, err)

	// WHEN the seller is marked dummy and earns more commission
	res, err := svc.ToggleDummyAccount(ctx, "seller-1", true, "test account", "root")
	require.NoError(t, err)
	require.True(t, res.Success, res.Message)
	_, err = e.commissions.RecordSuperadminDeposit(ctx, "admin-a", "seller-1", 1000, "root", "")
	require.NoError(t, err)

	// THEN the dummy-era commission is excluded from revenue
	months := revenue.GetMonthlyRevenue(ctx, "admin-a", models.RoleAdmin, 12)
	require.Len(t, months, 1)
	assert.Equal(t, 10.0, months[0].TotalRevenue)

	// WHEN unmarked and more commission arrives
	res, err = svc.ToggleDummyAccount(ctx, "seller-1", false, "real after all", "root")
	require.NoError(t, err)
	require.True(t, res.Success, res.Message)
	_, err = e.commissions.RecordSuperadminDeposit(ctx, "admin-a", "seller-1", 5, "root", "")
	require.NoError(t, err)

	// THEN new events count again while the dummy-era one stays excluded
	months = revenue.GetMonthlyRevenue(ctx, "admin-a", models.RoleAdmin, 12)
	require.Len(t, months, 1)
	assert.Equal(t, 15.0, months[0].TotalRevenue)

	// AND the cached balance still includes every accrual
	assert.Equal(t, 1015.0, e.commissions.GetAdminCommissionBalance(ctx, "admin-a"))

	seller := e.user(t, "seller-1")
	assert.False(t, seller.IsDummyAccount)
	assert.Len(t, seller.DummyAccountHistory, 2)
}

func TestToggleDummyAccount_OnlyRestoresRowsItMarked(t *testing.T) {
	e := newEnv(t)
	e.standardUsers(t)
	ctx := context.Background()
	e.seed(t, repositories.CollectionPendingDeposits,
		models.PendingDeposit{SellerID: "seller-1", AdminID: "admin-a", Amount: 10, Status: models.DepositPending},
		models.PendingDeposit{SellerID: "seller-1", AdminID: "admin-a", Amount: 20, Status: models.DepositPending, ExcludeFromRevenue: true},
	)
	e.seed(t, repositories.CollectionCommissionHistory,
		models.CommissionHistory{SellerID: "seller-1", AdminID: "admin-a", Amount: 10, Status: models.DepositPending},
	)
	svc := NewSellerManagementService(e.deps)

	on, err := svc.ToggleDummyAccount(ctx, "seller-1", true, "", "root")
	require.NoError(t, err)
	assert.Equal(t, 2, on.RowsUpdated)

	var marked []models.PendingDeposit
	e.findAll(t, repositories.CollectionPendingDeposits, &marked, repositories.Where("dummyMarked", repositories.OpEq, true))
	require.Len(t, marked, 1)
	assert.Equal(t, 10.0, marked[0].Amount)

	off, err := svc.ToggleDummyAccount(ctx, "seller-1", false, "", "root")
	require.NoError(t, err)
	assert.Equal(t, 2, off.RowsUpdated)

	var excluded []models.PendingDeposit
	e.findAll(t, repositories.CollectionPendingDeposits, &excluded, repositories.Where("excludeFromRevenue", repositories.OpEq, true))
	require.Len(t, excluded, 1)
	assert.Equal(t, 20.0, excluded[0].Amount)

	var changes []models.DummyAccountChange
	e.findAll(t, repositories.CollectionDummyAccountChanges, &changes)
	assert.Len(t, changes, 2)
}

func TestToggleDummyAccount_SameValueIsConflict(t *testing.T) {
	e := newEnv(t)
	e.standardUsers(t)
	svc := NewSellerManagementService(e.deps)

	res, err := svc.ToggleDummyAccount(context.Background(), "seller-1", false, "", "root")

	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Seller is not marked as a dummy account", res.Message)
}

func TestGetSellerInfoAndAdminSellers(t *testing.T) {
	e := newEnv(t)
	e.standardUsers(t)
	e.seedUsers(t, models.User{ID: "seller-2", Role: models.RoleSeller, AdminID: "admin-b", ReferredBy: "admin-b"})
	svc := NewSellerManagementService(e.deps)
	ctx := context.Background()

	info, err := svc.GetSellerInfo(ctx, "seller-1")
	require.NoError(t, err)
	assert.Equal(t, "admin-a", info.CurrentAdminID)
	assert.Equal(t, "admin-a", info.ReferredByAdminID)
	assert.NotNil(t, info.MigrationHistory)

	_, err = svc.GetSellerInfo(ctx, "admin-a")
	assert.ErrorIs(t, err, models.ErrNotFound)

	sellers, err := svc.GetAdminSellers(ctx, "admin-b")
	require.NoError(t, err)
	require.Len(t, sellers, 1)
	assert.Equal(t, "seller-2", sellers[0].SellerID)
}
