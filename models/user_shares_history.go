package models

import (
	"time"

	"github.com/phuanduong/ledger/types"
)

// UserSharesHistory is append-only.
type UserSharesHistory struct {
	ID            string                `json:"id" gorm:"primaryKey"`
	UserID        string                `json:"user_id" gorm:"index"`
	ChangeAmount  int64                 `json:"change_amount"`
	ChangeType    types.ShareChangeType `json:"change_type"`
	Description   string                `json:"description"`
	TransactionID string                `json:"transaction_id"`
	Timestamp     time.Time             `json:"timestamp"`
}

func (UserSharesHistory) TableName() string {
	return "user_shares_history"
}
