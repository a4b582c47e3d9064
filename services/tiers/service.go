// Package tiers classifies users into business tiers and converts investment
// into shares.
package tiers

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/volatiletech/null"

	"github.com/phuanduong/ledger/models"
	"github.com/phuanduong/ledger/services/audit"
	"github.com/phuanduong/ledger/store"
	"github.com/phuanduong/ledger/types"
)

type Service struct {
	store  store.Store
	hook   audit.Hook
	logger *logrus.Entry
}

func NewService(s store.Store, hook audit.Hook, logger *logrus.Entry) *Service {
	return &Service{store: s, hook: hook, logger: logger}
}

// Calculator loads the current tier configs through tx.
func (s *Service) Calculator(ctx context.Context, tx store.Store) (*Calculator, error) {
	configs, err := tx.ListBusinessTierConfigs(ctx)
	if err != nil {
		return nil, err
	}

	return NewCalculator(configs), nil
}

func (s *Service) GetBusinessTierConfigs(ctx context.Context) ([]*models.BusinessTierConfig, error) {
	return s.store.ListBusinessTierConfigs(ctx)
}

// UpgradeUserBusinessTier sets the user's tier and cumulative investment.
// It must run inside the caller's transaction.
func (s *Service) UpgradeUserBusinessTier(ctx context.Context, tx store.Store, userID string, tier types.TierName, investment int64) (*models.User, error) {
	if !types.IsTier(tier) {
		return nil, types.NewValidationError("business_tier", "unknown tier "+tier)
	}
	if investment < 0 {
		return nil, types.NewValidationError("investment_amount", "must not be negative")
	}

	user, err := tx.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.BusinessTier = tier
	user.InvestmentAmount = investment
	if err := tx.UpdateUser(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// CalculateUserShares returns the shares the user's cumulative investment is
// worth under their current tier.
func (s *Service) CalculateUserShares(ctx context.Context, userID string) (int64, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	calc, err := s.Calculator(ctx, s.store)
	if err != nil {
		return 0, err
	}

	tier := user.BusinessTier
	if tier == "" {
		tier = calc.DetermineTier(user.InvestmentAmount)
	}

	cfg, err := calc.Config(tier)
	if err != nil {
		return 0, err
	}

	return CalculateShares(cfg, user.InvestmentAmount), nil
}

type TierConfigInput struct {
	TierName            types.TierName
	MinInvestmentAmount int64
	ShareMultiplier     decimal.Decimal
	MaxShares           null.Int64
	Description         string
	Benefits            string
}

func (in TierConfigInput) Validate() error {
	if !types.IsTier(in.TierName) {
		return types.NewValidationError("tier_name", "unknown tier "+in.TierName)
	}
	if in.MinInvestmentAmount < 0 {
		return types.NewValidationError("min_investment_amount", "must not be negative")
	}
	if in.ShareMultiplier.IsNegative() {
		return types.NewValidationError("share_multiplier", "must not be negative")
	}
	if in.MaxShares.Valid && in.MaxShares.Int64 < 0 {
		return types.NewValidationError("max_shares", "must not be negative")
	}

	return nil
}

func (s *Service) UpdateBusinessTierConfig(ctx context.Context, actorID string, in TierConfigInput) (*models.BusinessTierConfig, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var before *models.BusinessTierConfig
	cfg := &models.BusinessTierConfig{
		TierName:            in.TierName,
		MinInvestmentAmount: in.MinInvestmentAmount,
		ShareMultiplier:     in.ShareMultiplier,
		MaxShares:           in.MaxShares,
		Description:         in.Description,
		Benefits:            in.Benefits,
	}

	err := s.store.Atomic(ctx, func(tx store.Store) error {
		prev, err := tx.GetBusinessTierConfig(ctx, in.TierName)
		if err == nil {
			before = prev
			cfg.CreatedAt = prev.CreatedAt
		}

		return tx.SaveBusinessTierConfig(ctx, cfg)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithField("tier_name", cfg.TierName).Info("Business tier config updated")
	audit.Notify(ctx, s.hook, s.logger, audit.Entry{
		ActorID:    actorID,
		Action:     "tier.update",
		TargetType: "business_tier_config",
		TargetID:   cfg.TierName,
		Before:     before,
		After:      cfg,
	})

	return cfg, nil
}
