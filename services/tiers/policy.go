package tiers

import (
	"github.com/phuanduong/ledger/models"
	"github.com/phuanduong/ledger/models/concerns"
	"github.com/phuanduong/ledger/services/settings"
	"github.com/phuanduong/ledger/types"
)

type CapBasis int

const (
	CapNone CapBasis = iota
	CapCardPrice
	CapInvestment
)

// AngelCapPercent is the angel payout ceiling as a percentage of investment.
const AngelCapPercent int64 = 500

// Policy is the per-tier behaviour resolved once per operation.
type Policy struct {
	Name                 types.TierName
	CapBasis             CapBasis
	CapMultiplierPercent int64
	Investable           bool
}

func PolicyFor(tier types.TierName, snap settings.Snapshot) Policy {
	switch tier {
	case types.TierFounder:
		return Policy{Name: tier, CapBasis: CapNone, Investable: true}
	case types.TierAngel:
		return Policy{Name: tier, CapBasis: CapInvestment, CapMultiplierPercent: AngelCapPercent, Investable: true}
	case types.TierCustomer:
		return Policy{Name: tier, CapBasis: CapCardPrice, CapMultiplierPercent: snap.MaxoutLimitPercentage, Investable: true}
	default:
		return Policy{Name: tier, CapBasis: CapNone}
	}
}

func (p Policy) Unlimited() bool {
	return p.CapBasis == CapNone
}

// Limit returns the cumulative payout ceiling of user under p. ok is false
// when the tier is unlimited.
func (p Policy) Limit(user *models.User) (limit int64, ok bool) {
	switch p.CapBasis {
	case CapCardPrice:
		return concerns.MulDiv(user.CardPrice, p.CapMultiplierPercent, 100), true
	case CapInvestment:
		return concerns.MulDiv(user.InvestmentAmount, p.CapMultiplierPercent, 100), true
	default:
		return 0, false
	}
}

// Investable reports whether a tier can be reached through investment alone.
// Branch, staff and affiliate are assigned, never derived.
func Investable(tier types.TierName) bool {
	return tier == types.TierFounder || tier == types.TierAngel || tier == types.TierCustomer
}
