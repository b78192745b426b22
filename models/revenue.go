package models

import (
	"fmt"
	"time"
)

// MonthlyRevenue is derived by replaying event collections; it is never stored.
type MonthlyRevenue struct {
	Year              int       `json:"year"`
	Month             int       `json:"month"`
	MonthKey          string    `json:"monthKey"`
	TotalRevenue      float64   `json:"totalRevenue"`
	ProfitRevenue     float64   `json:"profitRevenue"`
	CommissionRevenue float64   `json:"commissionRevenue"`
	DepositRevenue    float64   `json:"depositRevenue"`
	WithdrawalAmount  float64   `json:"withdrawalAmount"`
	TransactionCount  int       `json:"transactionCount"`
	LastUpdated       time.Time `json:"lastUpdated"`
}

func MonthKey(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

// YearlyRevenueSummary is computed from the monthly buckets of one year.
type YearlyRevenueSummary struct {
	Year                  int              `json:"year"`
	TotalRevenue          float64          `json:"totalRevenue"`
	AverageMonthlyRevenue float64          `json:"averageMonthlyRevenue"`
	BestMonth             *MonthlyRevenue  `json:"bestMonth,omitempty"`
	TransactionCount      int              `json:"transactionCount"`
	Months                []MonthlyRevenue `json:"months"`
}

// PlatformStats is the current-month platform dashboard.
type PlatformStats struct {
	Month                 string    `json:"month"`
	TotalMonthlyRevenue   float64   `json:"totalMonthlyRevenue"`
	DepositsAccepted      float64   `json:"depositsAccepted"`
	WithdrawalsProcessed  float64   `json:"withdrawalsProcessed"`
	TotalTransactions     int       `json:"totalTransactions"`
	AveragePerTransaction float64   `json:"averagePerTransaction"`
	LastUpdated           time.Time `json:"lastUpdated"`
	Degraded              bool      `json:"degraded"`
}
