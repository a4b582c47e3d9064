package config

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/volatiletech/null"
	"gopkg.in/yaml.v2"

	"github.com/phuanduong/ledger/models"
	"github.com/phuanduong/ledger/types"
)

//go:embed seed.yml
var defaultSeed []byte

type SeedSetting struct {
	Key         string `yaml:"key"`
	Value       string `yaml:"value"`
	Description string `yaml:"description"`
}

type SeedTier struct {
	TierName            string `yaml:"tier_name"`
	MinInvestmentAmount int64  `yaml:"min_investment_amount"`
	ShareMultiplier     string `yaml:"share_multiplier"`
	MaxShares           *int64 `yaml:"max_shares"`
	Description         string `yaml:"description"`
	Benefits            string `yaml:"benefits"`
}

type Seed struct {
	Settings []SeedSetting `yaml:"settings"`
	Tiers    []SeedTier    `yaml:"tiers"`
}

// LoadSeed reads a seed file; an empty path yields the built-in defaults.
func LoadSeed(path string) (*Seed, error) {
	buf := defaultSeed
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		buf = b
	}

	return ParseSeed(buf)
}

func ParseSeed(buf []byte) (*Seed, error) {
	seed := &Seed{}
	if err := yaml.Unmarshal(buf, seed); err != nil {
		return nil, err
	}

	for _, tier := range seed.Tiers {
		if !types.IsTier(tier.TierName) {
			return nil, fmt.Errorf("seed: unknown tier %q", tier.TierName)
		}
	}

	return seed, nil
}

func (t SeedTier) ToModel() (*models.BusinessTierConfig, error) {
	multiplier, err := decimal.NewFromString(t.ShareMultiplier)
	if err != nil {
		return nil, fmt.Errorf("seed: tier %s share_multiplier: %w", t.TierName, err)
	}

	cfg := &models.BusinessTierConfig{
		TierName:            t.TierName,
		MinInvestmentAmount: t.MinInvestmentAmount,
		ShareMultiplier:     multiplier,
		Description:         t.Description,
		Benefits:            t.Benefits,
	}
	if t.MaxShares != nil {
		cfg.MaxShares = null.Int64From(*t.MaxShares)
	}

	return cfg, nil
}
