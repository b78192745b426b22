package services

import (
	"context"
	"sort"
	"time"

	"github.com/HSouheill/marketplace_backend/models"
	"github.com/HSouheill/marketplace_backend/utils"
	"github.com/sirupsen/logrus"
)

const defaultRevenueMonths = 12

// MonthlyRevenueService derives monthly revenue by replaying the event collections of a role.
// It never writes. Scans are not transactional: an event committing during a scan may or may
// not be counted by that call.
type MonthlyRevenueService struct {
	base
	strategies map[models.Role]RevenueStrategy
}

func NewMonthlyRevenueService(d Deps) *MonthlyRevenueService {
	return &MonthlyRevenueService{
		base:       newBase("revenue", d),
		strategies: defaultRevenueStrategies(),
	}
}

// GetMonthlyRevenue returns the most recent limitMonths months with activity, newest first.
// An unknown role or a failed read yields an empty list.
func (s *MonthlyRevenueService) GetMonthlyRevenue(ctx context.Context, userID string, role models.Role, limitMonths int) []models.MonthlyRevenue {
	if limitMonths <= 0 {
		limitMonths = defaultRevenueMonths
	}
	months := s.collect(ctx, "GetMonthlyRevenue", userID, role, window{})
	if len(months) > limitMonths {
		months = months[:limitMonths]
	}
	return months
}

// GetYearlyRevenueSummary summarises the months of one calendar year.
func (s *MonthlyRevenueService) GetYearlyRevenueSummary(ctx context.Context, userID string, role models.Role, year int) *models.YearlyRevenueSummary {
	from, to := utils.YearBounds(year, s.Location)
	months := s.collect(ctx, "GetYearlyRevenueSummary", userID, role, window{From: from, To: to})

	summary := &models.YearlyRevenueSummary{Year: year, Months: months}
	var total utils.Accumulator
	active := 0
	for i := range months {
		m := months[i]
		total.Add(m.TotalRevenue)
		summary.TransactionCount += m.TransactionCount
		if m.TransactionCount == 0 {
			continue
		}
		active++
		if summary.BestMonth == nil || m.TotalRevenue > summary.BestMonth.TotalRevenue {
			summary.BestMonth = &months[i]
		}
	}
	summary.TotalRevenue = total.Float64()
	summary.AverageMonthlyRevenue = utils.DivMoney(summary.TotalRevenue, active)
	return summary
}

// GetCurrentMonthRevenue returns this month's bucket, zeroed when nothing happened yet.
// Live dashboards poll this.
func (s *MonthlyRevenueService) GetCurrentMonthRevenue(ctx context.Context, userID string, role models.Role) models.MonthlyRevenue {
	now := s.now()
	from, to := utils.MonthBounds(now, s.Location)
	months := s.collect(ctx, "GetCurrentMonthRevenue", userID, role, window{From: from, To: to})
	if len(months) > 0 {
		return months[0]
	}
	local := now.In(s.Location)
	return models.MonthlyRevenue{
		Year:        local.Year(),
		Month:       int(local.Month()),
		MonthKey:    models.MonthKey(local.Year(), local.Month()),
		LastUpdated: now,
	}
}

func (s *MonthlyRevenueService) collect(ctx context.Context, op, userID string, role models.Role, w window) []models.MonthlyRevenue {
	strategy, ok := s.strategies[role]
	if !ok || userID == "" && role != models.RoleSuperadmin {
		s.Logger.WithFields(logrus.Fields{"module": s.module, "funcName": op, "role": role}).Debug("no revenue strategy for role")
		return []models.MonthlyRevenue{}
	}

	entries, err := strategy.Collect(ctx, s.Store, userID, w)
	if err != nil {
		s.degraded(op, err, map[string]interface{}{"userId": userID, "role": role})
		return []models.MonthlyRevenue{}
	}
	return bucketByMonth(entries, s.Location, s.now())
}

type monthTotals struct {
	year       int
	month      time.Month
	total      utils.Accumulator
	profit     utils.Accumulator
	commission utils.Accumulator
	deposit    utils.Accumulator
	withdrawal utils.Accumulator
	count      int
}

// bucketByMonth groups entries by calendar month in loc, newest month first.
func bucketByMonth(entries []revenueEntry, loc *time.Location, now time.Time) []models.MonthlyRevenue {
	buckets := make(map[string]*monthTotals)
	for _, e := range entries {
		local := e.At.In(loc)
		key := models.MonthKey(local.Year(), local.Month())
		b, ok := buckets[key]
		if !ok {
			b = &monthTotals{year: local.Year(), month: local.Month()}
			buckets[key] = b
		}
		b.count++
		switch e.Kind {
		case entryCommission:
			b.commission.Add(e.Amount)
			b.total.Add(e.Amount)
		case entryProfit:
			b.profit.Add(e.Amount)
			b.total.Add(e.Amount)
		case entryDeposit:
			b.deposit.Add(e.Amount)
			b.total.Add(e.Amount)
		case entryWithdrawal:
			b.withdrawal.Add(e.Amount)
			b.total.Sub(e.Amount)
		}
	}

	months := make([]models.MonthlyRevenue, 0, len(buckets))
	for key, b := range buckets {
		months = append(months, models.MonthlyRevenue{
			Year:              b.year,
			Month:             int(b.month),
			MonthKey:          key,
			TotalRevenue:      b.total.Float64(),
			ProfitRevenue:     b.profit.Float64(),
			CommissionRevenue: b.commission.Float64(),
			DepositRevenue:    b.deposit.Float64(),
			WithdrawalAmount:  b.withdrawal.Float64(),
			TransactionCount:  b.count,
			LastUpdated:       now,
		})
	}
	sort.Slice(months, func(i, j int) bool { return months[i].MonthKey > months[j].MonthKey })
	return months
}
