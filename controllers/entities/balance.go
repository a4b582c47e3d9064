package entities

import (
	"github.com/phuanduong/ledger/models"
	"github.com/phuanduong/ledger/services/maxout"
)

type Balance struct {
	UserID           string        `json:"user_id"`
	AvailableBalance int64         `json:"available_balance"`
	TotalShares      int64         `json:"total_shares"`
	TotalPayout      int64         `json:"total_payout"`
	MaxoutReached    bool          `json:"maxout_reached"`
	Maxout           maxout.Status `json:"maxout"`
}

func BalanceToEntity(balance *models.UserBalance, status maxout.Status) *Balance {
	return &Balance{
		UserID:           balance.UserID,
		AvailableBalance: balance.AvailableBalance,
		TotalShares:      balance.TotalShares,
		TotalPayout:      balance.TotalPayout,
		MaxoutReached:    balance.MaxoutReached,
		Maxout:           status,
	}
}
