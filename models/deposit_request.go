package models

import (
	"time"

	"github.com/volatiletech/null"

	"github.com/phuanduong/ledger/types"
)

type DepositRequest struct {
	ID           string             `json:"id" gorm:"primaryKey"`
	UserID       string             `json:"user_id"`
	Amount       int64              `json:"amount"`
	BusinessTier types.TierName     `json:"business_tier"`
	Status       types.DepositState `json:"status" gorm:"default:pending"`
	ApprovedBy   null.String        `json:"approved_by"`
	ApprovedAt   null.Time          `json:"approved_at"`
	Notes        string             `json:"notes"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}
