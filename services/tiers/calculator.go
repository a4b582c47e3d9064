package tiers

import (
	rbt "github.com/emirpasic/gods/trees/redblacktree"
	"github.com/emirpasic/gods/utils"
	"github.com/shopspring/decimal"

	"github.com/phuanduong/ledger/models"
	"github.com/phuanduong/ledger/models/concerns"
	"github.com/phuanduong/ledger/types"
)

var sharePrice = decimal.NewFromInt(types.SharePrice)

// Calculator resolves tiers and share counts from a fixed set of tier configs.
type Calculator struct {
	configs    map[types.TierName]*models.BusinessTierConfig
	thresholds *rbt.Tree
}

func NewCalculator(configs []*models.BusinessTierConfig) *Calculator {
	c := &Calculator{
		configs:    make(map[types.TierName]*models.BusinessTierConfig, len(configs)),
		thresholds: rbt.NewWith(utils.Int64Comparator),
	}
	for _, cfg := range configs {
		c.configs[cfg.TierName] = cfg
	}

	// walk in canonical order so an earlier tier keeps a shared threshold
	for _, name := range types.TierOrder {
		cfg, ok := c.configs[name]
		if !ok || !Investable(name) {
			continue
		}
		if _, taken := c.thresholds.Get(cfg.MinInvestmentAmount); taken {
			continue
		}
		c.thresholds.Put(cfg.MinInvestmentAmount, name)
	}

	return c
}

// DetermineTier returns the highest investable tier whose minimum investment
// is covered by amount, falling back to customer.
func (c *Calculator) DetermineTier(amount int64) types.TierName {
	node, found := c.thresholds.Floor(amount)
	if !found {
		return types.TierCustomer
	}

	return node.Value.(types.TierName)
}

func (c *Calculator) Config(tier types.TierName) (*models.BusinessTierConfig, error) {
	cfg, ok := c.configs[tier]
	if !ok {
		return nil, types.NewNotFoundError("business_tier_config", tier)
	}

	return cfg, nil
}

// CalculateShares returns floor(amount / 1,000,000 * multiplier) clamped to the
// tier's MaxShares. Negative amounts yield 0.
func CalculateShares(cfg *models.BusinessTierConfig, amount int64) int64 {
	if cfg == nil || amount <= 0 {
		return 0
	}

	shares := concerns.FloorDiv(decimal.NewFromInt(amount).Mul(cfg.ShareMultiplier), sharePrice)
	if cfg.MaxShares.Valid && shares > cfg.MaxShares.Int64 {
		shares = cfg.MaxShares.Int64
	}

	return shares
}

// ShareRoom returns how many more shares a holder of current shares may
// receive under cfg. ok is false when the tier has no ceiling.
func ShareRoom(cfg *models.BusinessTierConfig, current int64) (room int64, ok bool) {
	if cfg == nil || cfg.Unlimited() {
		return 0, false
	}

	room = cfg.MaxShares.Int64 - current
	if room < 0 {
		room = 0
	}

	return room, true
}
