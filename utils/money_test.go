package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMoneyArithmeticRoundsToCents(t *testing.T) {
	assert.Equal(t, 0.3, AddMoney(0.1, 0.2))
	assert.Equal(t, 70.0, SubMoney(100, 30))
	assert.Equal(t, 12.35, MulMoney(123.45, 0.1))
	assert.Equal(t, 33.33, DivMoney(100, 3))
	assert.Equal(t, 0.0, DivMoney(100, 0))
}

func TestAccumulator(t *testing.T) {
	var acc Accumulator
	for i := 0; i < 10; i++ {
		acc.Add(0.1)
	}
	acc.Sub(0.5)
	assert.Equal(t, 0.5, acc.Float64())
}
