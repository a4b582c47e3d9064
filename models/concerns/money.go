// Package concerns holds the integer money arithmetic shared by the ledger.
// Inputs are exact decimals; every result is floored back to whole VND.
package concerns

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// FloorDiv returns floor(value / divisor) for non-negative value and positive divisor.
func FloorDiv(value decimal.Decimal, divisor decimal.Decimal) int64 {
	if !value.IsPositive() || !divisor.IsPositive() {
		return 0
	}

	q, _ := value.QuoRem(divisor, 0)
	return q.IntPart()
}

// PercentOf returns floor(amount * percent / 100). Negative amounts yield 0.
func PercentOf(amount int64, percent decimal.Decimal) int64 {
	return FloorDiv(decimal.NewFromInt(amount).Mul(percent), hundred)
}

// MulDiv returns floor(amount * numerator / denominator) without overflowing int64.
func MulDiv(amount, numerator, denominator int64) int64 {
	if denominator <= 0 {
		return 0
	}

	return FloorDiv(decimal.NewFromInt(amount).Mul(decimal.NewFromInt(numerator)), decimal.NewFromInt(denominator))
}

// IsPercentage reports whether value lies in [0, 100].
func IsPercentage(value decimal.Decimal) bool {
	return !value.IsNegative() && value.LessThanOrEqual(hundred)
}
