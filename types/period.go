package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type PeriodKind = string

const (
	PeriodMonth   PeriodKind = "month"
	PeriodQuarter PeriodKind = "quarter"
	PeriodYear    PeriodKind = "year"
)

// Period identifies an accounting window, e.g. {quarter, 2024-Q4}.
type Period struct {
	Kind  PeriodKind `json:"period"`
	Value string     `json:"period_value"`
}

func (p Period) String() string {
	return p.Kind + ":" + p.Value
}

// Bounds returns the half-open interval [start, end) in UTC.
func (p Period) Bounds() (time.Time, time.Time, error) {
	switch p.Kind {
	case PeriodQuarter:
		parts := strings.Split(p.Value, "-Q")
		if len(parts) != 2 {
			return time.Time{}, time.Time{}, NewValidationError("period_value", "quarter must look like 2024-Q4")
		}
		year, err := strconv.Atoi(parts[0])
		if err != nil || year < 1 {
			return time.Time{}, time.Time{}, NewValidationError("period_value", "invalid year "+parts[0])
		}
		quarter, err := strconv.Atoi(parts[1])
		if err != nil || quarter < 1 || quarter > 4 {
			return time.Time{}, time.Time{}, NewValidationError("period_value", "quarter must be between 1 and 4")
		}
		start := time.Date(year, time.Month((quarter-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 3, 0), nil
	case PeriodMonth:
		start, err := time.Parse("2006-01", p.Value)
		if err != nil {
			return time.Time{}, time.Time{}, NewValidationError("period_value", "month must look like 2024-11")
		}
		return start, start.AddDate(0, 1, 0), nil
	case PeriodYear:
		start, err := time.Parse("2006", p.Value)
		if err != nil {
			return time.Time{}, time.Time{}, NewValidationError("period_value", "year must look like 2024")
		}
		return start, start.AddDate(1, 0, 0), nil
	}

	return time.Time{}, time.Time{}, NewValidationError("period", fmt.Sprintf("unknown period %q", p.Kind))
}

func (p Period) Validate() error {
	_, _, err := p.Bounds()
	return err
}

// QuarterOf returns the quarter that contains t.
func QuarterOf(t time.Time) Period {
	t = t.UTC()
	return Period{Kind: PeriodQuarter, Value: fmt.Sprintf("%d-Q%d", t.Year(), (int(t.Month())-1)/3+1)}
}

// PreviousQuarter returns the quarter before the one containing t.
func PreviousQuarter(t time.Time) Period {
	start := time.Date(t.UTC().Year(), t.UTC().Month(), 1, 0, 0, 0, 0, time.UTC)
	return QuarterOf(start.AddDate(0, -3, 0))
}
