package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/volatiletech/null"

	"github.com/phuanduong/ledger/types"
)

type Referral struct {
	ID                 string              `json:"id" gorm:"primaryKey"`
	ReferrerID         string              `json:"referrer_id" gorm:"index"`
	ReferredUserID     null.String         `json:"referred_user_id"`
	ReferralCode       string              `json:"referral_code" gorm:"uniqueIndex"`
	CustomerName       string              `json:"customer_name"`
	FirstTransactionID null.String         `json:"first_transaction_id"`
	ContributionValue  int64               `json:"contribution_value"`
	CommissionRate     decimal.Decimal     `json:"commission_rate"`
	CommissionAmount   int64               `json:"commission_amount"`
	CommissionPaid     int64               `json:"commission_paid" gorm:"default:0"`
	Status             types.ReferralState `json:"status" gorm:"default:pending"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// Outstanding is the unpaid part of the commission.
func (r *Referral) Outstanding() int64 {
	if r.CommissionPaid >= r.CommissionAmount {
		return 0
	}

	return r.CommissionAmount - r.CommissionPaid
}
