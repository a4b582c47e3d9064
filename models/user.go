package models

import (
	"time"

	"github.com/volatiletech/null"

	"github.com/phuanduong/ledger/types"
)

type User struct {
	ID               string         `json:"id" gorm:"primaryKey"`
	Name             string         `json:"name"`
	Email            string         `json:"email"`
	Role             string         `json:"role" gorm:"default:user"`
	BusinessTier     types.TierName `json:"business_tier"`
	InvestmentAmount int64          `json:"investment_amount" gorm:"default:0"`
	CardPrice        int64          `json:"card_price" gorm:"default:0"`
	ReferralCode     null.String    `json:"referral_code"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func (u *User) IsStaff() bool {
	return u.BusinessTier == types.TierStaff
}
