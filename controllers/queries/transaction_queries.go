package queries

import (
	"github.com/phuanduong/ledger/controllers/helpers"
)

type CreateTransactionParams struct {
	UserID      string `json:"user_id" form:"user_id" validate:"required"`
	Type        string `json:"type" form:"type" validate:"required|in:income,expense,withdrawal"`
	Amount      int64  `json:"amount" form:"amount" validate:"required|min:1"`
	Description string `json:"description" form:"description"`
	Notes       string `json:"notes" form:"notes"`
}

func (p CreateTransactionParams) Messages() map[string]string {
	return helpers.VaildateMessage("ledger.transaction")
}

type CreateWithdrawalParams struct {
	UserID      string `json:"user_id" form:"user_id" validate:"required"`
	Amount      int64  `json:"amount" form:"amount" validate:"required|min:1"`
	Description string `json:"description" form:"description"`
}

func (p CreateWithdrawalParams) Messages() map[string]string {
	return helpers.VaildateMessage("ledger.withdrawal")
}

type TransactionFilters struct {
	UserID string `query:"user_id"`
	Type   string `query:"type" validate:"in:income,expense,withdrawal"`
}

func (p TransactionFilters) Messages() map[string]string {
	return helpers.VaildateMessage("ledger.transaction")
}
