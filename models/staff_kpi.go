package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/volatiletech/null"

	"github.com/phuanduong/ledger/types"
)

type StaffKpi struct {
	ID                string          `json:"id" gorm:"primaryKey"`
	StaffID           string          `json:"staff_id" gorm:"uniqueIndex:idx_staff_kpi_period"`
	Period            string          `json:"period" gorm:"uniqueIndex:idx_staff_kpi_period"`
	PeriodValue       string          `json:"period_value" gorm:"uniqueIndex:idx_staff_kpi_period"`
	CardSales         int64           `json:"card_sales"`
	CustomerRetention decimal.Decimal `json:"customer_retention"`
	TotalPoints       decimal.Decimal `json:"total_points"`
	SlotsEarned       int64           `json:"slots_earned"`
	SharesAwarded     int64           `json:"shares_awarded"`
	State             types.KpiState  `json:"state" gorm:"default:recorded"`
	ProcessedAt       null.Time       `json:"processed_at"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (k *StaffKpi) IsProcessed() bool {
	return k.State == types.KpiProcessed
}

func (k *StaffKpi) GetPeriod() types.Period {
	return types.Period{Kind: k.Period, Value: k.PeriodValue}
}
