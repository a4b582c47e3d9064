package queries

import (
	"github.com/phuanduong/ledger/controllers/helpers"
	"github.com/phuanduong/ledger/services/tiers"
)

type CreateDepositParams struct {
	UserID       string `json:"user_id" form:"user_id" validate:"required"`
	Amount       int64  `json:"amount" form:"amount" validate:"required|min:1"`
	BusinessTier string `json:"business_tier" form:"business_tier" validate:"required|ValidateTier"`
	Notes        string `json:"notes" form:"notes"`
}

func (p CreateDepositParams) ValidateTier(val string) bool {
	return tiers.Investable(val)
}

func (p CreateDepositParams) Messages() map[string]string {
	m := helpers.VaildateMessage("ledger.deposit")
	m["ValidateTier"] = "ledger.deposit.invalid_business_tier"
	return m
}

type ReasonParams struct {
	Reason string `json:"reason" form:"reason" validate:"required"`
}

func (p ReasonParams) Messages() map[string]string {
	return helpers.VaildateMessage("ledger.review")
}
