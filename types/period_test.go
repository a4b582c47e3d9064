package types

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodBounds(t *testing.T) {
	start, end, err := Period{Kind: PeriodQuarter, Value: "2024-Q4"}.Bounds()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), end)

	start, end, err = Period{Kind: PeriodMonth, Value: "2024-11"}.Bounds()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), end)

	_, _, err = Period{Kind: PeriodQuarter, Value: "2024-Q5"}.Bounds()
	assert.True(t, errors.Is(err, ErrValidation))

	_, _, err = Period{Kind: "week", Value: "2024-01"}.Bounds()
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestPreviousQuarter(t *testing.T) {
	assert.Equal(t, "2024-Q4", PreviousQuarter(time.Date(2025, 1, 1, 1, 0, 0, 0, time.UTC)).Value)
	assert.Equal(t, "2025-Q1", PreviousQuarter(time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC)).Value)
	assert.Equal(t, "2025-Q3", QuarterOf(time.Date(2025, 9, 30, 23, 0, 0, 0, time.UTC)).Value)
}

func TestDepositTransitions(t *testing.T) {
	assert.NoError(t, DepositTransitions.Validate("deposit_request", "d1", DepositPending, DepositApproved))

	err := DepositTransitions.Validate("deposit_request", "d1", DepositApproved, DepositRejected)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidState))
	assert.Equal(t, "cannot move deposit_request d1 from approved to rejected", err.Error())
	assert.True(t, DepositTransitions.IsTerminal(DepositRejected))
}
