package models

import (
	"time"

	"github.com/volatiletech/null"

	"github.com/phuanduong/ledger/types"
)

type Transaction struct {
	ID          string                  `json:"id" gorm:"primaryKey"`
	UserID      string                  `json:"user_id" gorm:"index"`
	Type        types.TransactionType   `json:"type"`
	Amount      int64                   `json:"amount"`
	Tax         int64                   `json:"tax" gorm:"default:0"`
	NetAmount   int64                   `json:"net_amount"`
	Status      types.TransactionStatus `json:"status" gorm:"default:pending"`
	Description string                  `json:"description"`
	ApprovedBy  null.String             `json:"approved_by"`
	ApprovedAt  null.Time               `json:"approved_at"`
	Notes       string                  `json:"notes"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

func (t *Transaction) IsWithdrawal() bool {
	return t.Type == types.TransactionWithdrawal
}
