package queries

import (
	"github.com/shopspring/decimal"

	"github.com/phuanduong/ledger/controllers/helpers"
	"github.com/phuanduong/ledger/models/concerns"
	"github.com/phuanduong/ledger/types"
)

type PeriodQuery struct {
	Period      string `json:"period" query:"period" form:"period" validate:"required|in:quarter,month,year"`
	PeriodValue string `json:"period_value" query:"period_value" form:"period_value" validate:"required"`
}

func (p PeriodQuery) Messages() map[string]string {
	return helpers.VaildateMessage("ledger.period")
}

func (p PeriodQuery) ToPeriod() types.Period {
	return types.Period{Kind: p.Period, Value: p.PeriodValue}
}

type RecordKpiParams struct {
	StaffID           string          `json:"staff_id" form:"staff_id" validate:"required"`
	Period            string          `json:"period" form:"period" validate:"required|in:quarter,month,year"`
	PeriodValue       string          `json:"period_value" form:"period_value" validate:"required"`
	CardSales         int64           `json:"card_sales" form:"card_sales" validate:"ValidateNonNegative"`
	CustomerRetention decimal.Decimal `json:"customer_retention" form:"customer_retention" validate:"ValidatePercentage"`
}

func (p RecordKpiParams) ValidatePercentage(val decimal.Decimal) bool {
	return concerns.IsPercentage(val)
}

func (p RecordKpiParams) ValidateNonNegative(val int64) bool {
	return val >= 0
}

func (p RecordKpiParams) Messages() map[string]string {
	m := helpers.VaildateMessage("ledger.kpi")
	m["ValidateNonNegative"] = "ledger.kpi.negative_{field}"
	m["ValidatePercentage"] = "ledger.kpi.invalid_{field}"
	return m
}

type ProcessProfitParams struct {
	Period        string `json:"period" form:"period" validate:"required|in:quarter,month,year"`
	PeriodValue   string `json:"period_value" form:"period_value" validate:"required"`
	RespectMaxout *bool  `json:"respect_maxout" form:"respect_maxout"`
}

func (p ProcessProfitParams) Messages() map[string]string {
	return helpers.VaildateMessage("ledger.profit")
}

// Maxout defaults to true when the flag is omitted.
func (p ProcessProfitParams) Maxout() bool {
	return p.RespectMaxout == nil || *p.RespectMaxout
}
