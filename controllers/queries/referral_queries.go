package queries

import (
	"github.com/shopspring/decimal"

	"github.com/phuanduong/ledger/controllers/helpers"
)

type CreateReferralParams struct {
	ReferrerID        string              `json:"referrer_id" form:"referrer_id" validate:"required"`
	ReferralCode      string              `json:"referral_code" form:"referral_code"`
	CustomerName      string              `json:"customer_name" form:"customer_name"`
	ContributionValue int64               `json:"contribution_value" form:"contribution_value" validate:"required|min:1"`
	CommissionRate    decimal.NullDecimal `json:"commission_rate" form:"commission_rate"`
}

func (p CreateReferralParams) Messages() map[string]string {
	return helpers.VaildateMessage("ledger.referral")
}

type FirstTransactionParams struct {
	TransactionID string `json:"transaction_id" form:"transaction_id" validate:"required"`
}

func (p FirstTransactionParams) Messages() map[string]string {
	return helpers.VaildateMessage("ledger.referral")
}

type AmountParams struct {
	Amount int64 `json:"amount" form:"amount" validate:"required|min:1"`
}

func (p AmountParams) Messages() map[string]string {
	return helpers.VaildateMessage("ledger.payment")
}
