package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/volatiletech/null"

	"github.com/phuanduong/ledger/types"
)

type ProfitSharing struct {
	ID                  string             `json:"id" gorm:"primaryKey"`
	Period              string             `json:"period" gorm:"uniqueIndex:idx_profit_sharing_period"`
	PeriodValue         string             `json:"period_value" gorm:"uniqueIndex:idx_profit_sharing_period"`
	Revenue             int64              `json:"revenue"`
	Expenses            int64              `json:"expenses"`
	Profit              int64              `json:"profit"`
	ProfitShareRate     decimal.Decimal    `json:"profit_share_rate"`
	DistributableAmount int64              `json:"distributable_amount"`
	CorporateTax        int64              `json:"corporate_tax"`
	TotalShares         int64              `json:"total_shares"`
	RespectMaxout       bool               `json:"respect_maxout"`
	Status              types.SharingState `json:"status" gorm:"default:calculated"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

func (s *ProfitSharing) GetPeriod() types.Period {
	return types.Period{Kind: s.Period, Value: s.PeriodValue}
}

type ProfitDistribution struct {
	ID              string    `json:"id" gorm:"primaryKey"`
	ProfitSharingID string    `json:"profit_sharing_id" gorm:"index"`
	ShareholderID   string    `json:"shareholder_id" gorm:"index"`
	ShareCount      int64     `json:"share_count"`
	RawEntitlement  int64     `json:"raw_entitlement"`
	CappedAmount    int64     `json:"capped_amount"`
	Paid            bool      `json:"paid"`
	PaidAt          null.Time `json:"paid_at"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
