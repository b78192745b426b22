package utils

import (
	"github.com/shopspring/decimal"
)

// Amounts cross the API as float64; every sum and product goes through decimal and is rounded to cents.

func RoundMoney(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

func AddMoney(a, b float64) float64 {
	f, _ := decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).Round(2).Float64()
	return f
}

func SubMoney(a, b float64) float64 {
	f, _ := decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Round(2).Float64()
	return f
}

func MulMoney(amount, rate float64) float64 {
	f, _ := decimal.NewFromFloat(amount).Mul(decimal.NewFromFloat(rate)).Round(2).Float64()
	return f
}

func DivMoney(a float64, n int) float64 {
	if n == 0 {
		return 0
	}
	f, _ := decimal.NewFromFloat(a).Div(decimal.NewFromInt(int64(n))).Round(2).Float64()
	return f
}

// Accumulator sums amounts without float drift.
type Accumulator struct {
	sum decimal.Decimal
}

func (a *Accumulator) Add(v float64) {
	a.sum = a.sum.Add(decimal.NewFromFloat(v))
}

func (a *Accumulator) Sub(v float64) {
	a.sum = a.sum.Sub(decimal.NewFromFloat(v))
}

func (a *Accumulator) Float64() float64 {
	f, _ := a.sum.Round(2).Float64()
	return f
}
