package services

import (
	"context"
	"errors"
	"time"

	"github.com/HSouheill/marketplace_backend/models"
	"github.com/HSouheill/marketplace_backend/repositories"
	"github.com/HSouheill/marketplace_backend/utils"
)

// PlatformStatsService builds the superadmin dashboard for the current month.
// Like the revenue views, it scans without a transaction.
type PlatformStatsService struct {
	base
	cache StatsCache
}

func NewPlatformStatsService(d Deps, cache StatsCache) *PlatformStatsService {
	if cache == nil {
		cache = NewMemoryStatsCache()
	}
	return &PlatformStatsService{base: newBase("platform_stats", d), cache: cache}
}

// GetMonthlyPlatformStats never fails. When the store cannot be read it returns the last
// stats cached for this month, or zeroed stats, flagged as degraded.
func (s *PlatformStatsService) GetMonthlyPlatformStats(ctx context.Context) *models.PlatformStats {
	now := s.now()
	from, to := utils.MonthBounds(now, s.Location)
	local := from.In(s.Location)
	month := models.MonthKey(local.Year(), local.Month())

	stats, err := s.compute(ctx, from, to)
	if err == nil {
		stats.Month = month
		stats.LastUpdated = now
		if cacheErr := s.cache.Set(ctx, stats); cacheErr != nil {
			s.Logger.WithError(cacheErr).WithField("month", month).Warn("failed to cache platform stats")
		}
		return stats
	}

	s.degraded("GetMonthlyPlatformStats", err, month)
	cached, cacheErr := s.cache.Get(ctx, month)
	if cacheErr == nil {
		cached.Degraded = true
		return cached
	}
	if !errors.Is(cacheErr, ErrStatsCacheMiss) {
		s.Logger.WithError(cacheErr).WithField("month", month).Warn("failed to read cached platform stats")
	}
	return &models.PlatformStats{Month: month, LastUpdated: now, Degraded: true}
}

func (s *PlatformStatsService) compute(ctx context.Context, from, to time.Time) (*models.PlatformStats, error) {
	var receipts []models.Receipt
	if err := s.Store.Find(ctx, repositories.CollectionReceipts, repositories.Query{
		Filters: []repositories.Filter{
			repositories.Where("status", repositories.OpEq, models.ReceiptApproved),
			notExcluded,
			repositories.Where("createdAt", repositories.OpGte, from),
			repositories.Where("createdAt", repositories.OpLt, to),
		},
	}, &receipts); err != nil {
		return nil, err
	}

	var withdrawals []models.Withdrawal
	if err := s.Store.Find(ctx, repositories.CollectionWithdrawals, repositories.Query{
		Filters: []repositories.Filter{
			repositories.Where("status", repositories.OpEq, models.WithdrawalApproved),
			notExcluded,
			repositories.Where("processedDate", repositories.OpGte, from),
			repositories.Where("processedDate", repositories.OpLt, to),
		},
	}, &withdrawals); err != nil {
		return nil, err
	}

	var deposits, paid utils.Accumulator
	for _, r := range receipts {
		deposits.Add(r.Amount)
	}
	for _, w := range withdrawals {
		paid.Add(w.Amount)
	}

	stats := &models.PlatformStats{
		DepositsAccepted:     deposits.Float64(),
		WithdrawalsProcessed: paid.Float64(),
		TotalTransactions:    len(receipts) + len(withdrawals),
	}
	stats.TotalMonthlyRevenue = utils.SubMoney(stats.DepositsAccepted, stats.WithdrawalsProcessed)
	stats.AveragePerTransaction = utils.DivMoney(stats.TotalMonthlyRevenue, stats.TotalTransactions)
	return stats, nil
}
