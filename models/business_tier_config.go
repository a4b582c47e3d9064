package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/volatiletech/null"

	"github.com/phuanduong/ledger/types"
)

type BusinessTierConfig struct {
	TierName            types.TierName  `json:"tier_name" gorm:"primaryKey" yaml:"tier_name"`
	MinInvestmentAmount int64           `json:"min_investment_amount" yaml:"min_investment_amount"`
	ShareMultiplier     decimal.Decimal `json:"share_multiplier" yaml:"-"`
	MaxShares           null.Int64      `json:"max_shares" yaml:"-"`
	Description         string          `json:"description" yaml:"description"`
	Benefits            string          `json:"benefits" yaml:"benefits"`
	CreatedAt           time.Time       `json:"created_at" yaml:"-"`
	UpdatedAt           time.Time       `json:"updated_at" yaml:"-"`
}

// Unlimited reports whether the tier has no share ceiling.
func (c *BusinessTierConfig) Unlimited() bool {
	return !c.MaxShares.Valid
}
