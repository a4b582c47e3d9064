package queries

import (
	"github.com/shopspring/decimal"

	"github.com/phuanduong/ledger/controllers/helpers"
)

type UpdateSettingParams struct {
	Value       string `json:"value" form:"value" validate:"required"`
	Description string `json:"description" form:"description"`
}

func (p UpdateSettingParams) Messages() map[string]string {
	return helpers.VaildateMessage("ledger.settings")
}

type UpdateTierParams struct {
	MinInvestmentAmount int64           `json:"min_investment_amount" form:"min_investment_amount"`
	ShareMultiplier     decimal.Decimal `json:"share_multiplier" form:"share_multiplier"`
	MaxShares           *int64          `json:"max_shares" form:"max_shares"`
	Description         string          `json:"description" form:"description"`
	Benefits            string          `json:"benefits" form:"benefits"`
}

type CreateUserParams struct {
	Name         string `json:"name" form:"name" validate:"required"`
	Email        string `json:"email" form:"email" validate:"email"`
	Role         string `json:"role" form:"role"`
	BusinessTier string `json:"business_tier" form:"business_tier"`
	CardPrice    int64  `json:"card_price" form:"card_price"`
}

func (p CreateUserParams) Messages() map[string]string {
	m := helpers.VaildateMessage("ledger.user")
	m["email"] = "ledger.user.invalid_email"
	return m
}
