package models

import (
	"errors"
	"strconv"
	"time"
)

type UserBalance struct {
	UserID           string    `json:"user_id" gorm:"primaryKey"`
	AvailableBalance int64     `json:"available_balance" gorm:"default:0"`
	TotalShares      int64     `json:"total_shares" gorm:"default:0"`
	TotalPayout      int64     `json:"total_payout" gorm:"default:0"`
	MaxoutReached    bool      `json:"maxout_reached"`
	Description      string    `json:"description"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (b *UserBalance) PlusFunds(amount int64, description string) error {
	if amount <= 0 {
		return errors.New("Cannot add funds (user id: " + b.UserID + ", amount: " + strconv.FormatInt(amount, 10) + ", balance: " + strconv.FormatInt(b.AvailableBalance, 10) + ").")
	}

	b.AvailableBalance += amount
	b.Description = description
	return nil
}

func (b *UserBalance) SubFunds(amount int64, description string) error {
	if amount <= 0 || amount > b.AvailableBalance {
		return errors.New("Cannot subtract funds (user id: " + b.UserID + ", amount: " + strconv.FormatInt(amount, 10) + ", balance: " + strconv.FormatInt(b.AvailableBalance, 10) + ").")
	}

	b.AvailableBalance -= amount
	b.Description = description
	return nil
}

func (b *UserBalance) PlusShares(delta int64) error {
	if b.TotalShares+delta < 0 {
		return errors.New("Cannot change shares (user id: " + b.UserID + ", delta: " + strconv.FormatInt(delta, 10) + ", shares: " + strconv.FormatInt(b.TotalShares, 10) + ").")
	}

	b.TotalShares += delta
	return nil
}
