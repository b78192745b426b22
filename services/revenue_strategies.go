package services

import (
	"context"
	"time"

	"github.com/HSouheill/marketplace_backend/models"
	"github.com/HSouheill/marketplace_backend/repositories"
)

type entryKind int

const (
	entryCommission entryKind = iota
	entryProfit
	entryDeposit
	entryWithdrawal
)

// revenueEntry is one revenue-relevant event, already attributed to its timestamp.
type revenueEntry struct {
	At     time.Time
	Amount float64
	Kind   entryKind
}

// window limits a scan to [From, To). A zero bound is open.
type window struct {
	From time.Time
	To   time.Time
}

func (w window) contains(t time.Time) bool {
	if !w.From.IsZero() && t.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && !t.Before(w.To) {
		return false
	}
	return true
}

func (w window) filters(field string) []repositories.Filter {
	var f []repositories.Filter
	if !w.From.IsZero() {
		f = append(f, repositories.Where(field, repositories.OpGte, w.From))
	}
	if !w.To.IsZero() {
		f = append(f, repositories.Where(field, repositories.OpLt, w.To))
	}
	return f
}

// RevenueStrategy collects the revenue events one role's dashboard is built from.
type RevenueStrategy interface {
	Collect(ctx context.Context, r repositories.Reader, userID string, w window) ([]revenueEntry, error)
}

var notExcluded = repositories.Where("excludeFromRevenue", repositories.OpNe, true)

// adminRevenueStrategy: the admin's commission transactions by createdAt.
type adminRevenueStrategy struct{}

func (adminRevenueStrategy) Collect(ctx context.Context, r repositories.Reader, userID string, w window) ([]revenueEntry, error) {
	filters := append([]repositories.Filter{
		repositories.Where("adminId", repositories.OpEq, userID),
		notExcluded,
	}, w.filters("createdAt")...)

	var txns []models.CommissionTransaction
	if err := r.Find(ctx, repositories.CollectionCommissionTransactions, repositories.Query{Filters: filters}, &txns); err != nil {
		return nil, err
	}
	entries := make([]revenueEntry, 0, len(txns))
	for _, t := range txns {
		entries = append(entries, revenueEntry{At: t.CreatedAt, Amount: t.CommissionAmount, Kind: entryCommission})
	}
	return entries, nil
}

// sellerRevenueStrategy: profit transferred to the seller by profitTransferredDate.
type sellerRevenueStrategy struct{}

func (sellerRevenueStrategy) Collect(ctx context.Context, r repositories.Reader, userID string, w window) ([]revenueEntry, error) {
	filters := append([]repositories.Filter{
		repositories.Where("sellerId", repositories.OpEq, userID),
		repositories.Where("profitTransferredAmount", repositories.OpGt, 0),
		notExcluded,
	}, w.filters("profitTransferredDate")...)

	var orders []models.Order
	if err := r.Find(ctx, repositories.CollectionOrders, repositories.Query{Filters: filters}, &orders); err != nil {
		return nil, err
	}
	entries := make([]revenueEntry, 0, len(orders))
	for _, o := range orders {
		if o.ProfitTransferredDate == nil {
			continue
		}
		entries = append(entries, revenueEntry{At: *o.ProfitTransferredDate, Amount: o.ProfitTransferredAmount, Kind: entryProfit})
	}
	return entries, nil
}

// superadminRevenueStrategy: platform-wide approved receipts (+, by createdAt) and approved
// withdrawals (-, by processedDate or createdAt for rows without one).
type superadminRevenueStrategy struct{}

func (superadminRevenueStrategy) Collect(ctx context.Context, r repositories.Reader, _ string, w window) ([]revenueEntry, error) {
	receiptFilters := append([]repositories.Filter{
		repositories.Where("status", repositories.OpEq, models.ReceiptApproved),
		notExcluded,
	}, w.filters("createdAt")...)

	var receipts []models.Receipt
	if err := r.Find(ctx, repositories.CollectionReceipts, repositories.Query{Filters: receiptFilters}, &receipts); err != nil {
		return nil, err
	}

	// The window is applied after the read because the bucketing timestamp differs per row.
	var withdrawals []models.Withdrawal
	if err := r.Find(ctx, repositories.CollectionWithdrawals, repositories.Query{
		Filters: []repositories.Filter{
			repositories.Where("status", repositories.OpEq, models.WithdrawalApproved),
			notExcluded,
		},
	}, &withdrawals); err != nil {
		return nil, err
	}

	entries := make([]revenueEntry, 0, len(receipts)+len(withdrawals))
	for _, rc := range receipts {
		entries = append(entries, revenueEntry{At: rc.CreatedAt, Amount: rc.Amount, Kind: entryDeposit})
	}
	for i := range withdrawals {
		at := withdrawals[i].RevenueTime()
		if !w.contains(at) {
			continue
		}
		entries = append(entries, revenueEntry{At: at, Amount: withdrawals[i].Amount, Kind: entryWithdrawal})
	}
	return entries, nil
}

func defaultRevenueStrategies() map[models.Role]RevenueStrategy {
	return map[models.Role]RevenueStrategy{
		models.RoleAdmin:      adminRevenueStrategy{},
		models.RoleSeller:     sellerRevenueStrategy{},
		models.RoleSuperadmin: superadminRevenueStrategy{},
	}
}
