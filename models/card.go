package models

import (
	"time"

	"github.com/volatiletech/null"

	"github.com/phuanduong/ledger/types"
)

// Card is a prepaid membership card. The prices of a holder's non-cancelled
// cards add up to User.CardPrice.
type Card struct {
	ID                string          `json:"id" gorm:"primaryKey"`
	CardNumber        string          `json:"card_number" gorm:"uniqueIndex"`
	CardType          string          `json:"card_type"`
	CustomerName      string          `json:"customer_name"`
	UserID            null.String     `json:"user_id" gorm:"index"`
	Price             int64           `json:"price"`
	RemainingSessions int64           `json:"remaining_sessions"`
	Status            types.CardState `json:"status" gorm:"default:active"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// CountsTowardMaxout reports whether the card still backs its holder's cap.
func (c *Card) CountsTowardMaxout() bool {
	return c.UserID.Valid && c.Status != types.CardCancelled
}

type QrCheckin struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	CardID      string    `json:"card_id" gorm:"index"`
	SessionType string    `json:"session_type"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
}
