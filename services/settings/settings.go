// Package settings owns the SystemConfig key/value table. Workflows never read
// the table directly: they receive a Snapshot taken once per invocation.
package settings

import (
	"context"
	"errors"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/phuanduong/ledger/config"
	"github.com/phuanduong/ledger/models"
	"github.com/phuanduong/ledger/models/concerns"
	"github.com/phuanduong/ledger/services/audit"
	"github.com/phuanduong/ledger/store"
	"github.com/phuanduong/ledger/types"
)

const (
	KeyMaxoutLimitPercentage  = "maxout_limit_percentage"
	KeyKpiThresholdPoints     = "kpi_threshold_points"
	KeyProfitShareRate        = "profit_share_rate"
	KeyWithdrawalMinimum      = "withdrawal_minimum"
	KeyWithdrawalTaxRate      = "withdrawal_tax_rate"
	KeyCorporateTaxRate       = "corporate_tax_rate"
	KeyReferralCommissionRate = "referral_commission_rate"
	KeySharesPerSlot          = "shares_per_slot"
)

type valueKind int

const (
	kindPercentage valueKind = iota
	kindPositiveInt
)

var keys = map[string]valueKind{
	KeyMaxoutLimitPercentage:  kindPositiveInt,
	KeyKpiThresholdPoints:     kindPositiveInt,
	KeyProfitShareRate:        kindPercentage,
	KeyWithdrawalMinimum:      kindPositiveInt,
	KeyWithdrawalTaxRate:      kindPercentage,
	KeyCorporateTaxRate:       kindPercentage,
	KeyReferralCommissionRate: kindPercentage,
	KeySharesPerSlot:          kindPositiveInt,
}

// Snapshot is an immutable view of the business settings. Rates are whole
// percentages (49 means 49%).
type Snapshot struct {
	MaxoutLimitPercentage  int64
	KpiThresholdPoints     int64
	ProfitShareRate        decimal.Decimal
	WithdrawalMinimum      int64
	WithdrawalTaxRate      decimal.Decimal
	CorporateTaxRate       decimal.Decimal
	ReferralCommissionRate decimal.Decimal
	SharesPerSlot          int64
}

func Defaults() Snapshot {
	return Snapshot{
		MaxoutLimitPercentage:  210,
		KpiThresholdPoints:     50,
		ProfitShareRate:        decimal.NewFromInt(49),
		WithdrawalMinimum:      5_000_000,
		WithdrawalTaxRate:      decimal.NewFromInt(10),
		CorporateTaxRate:       decimal.NewFromInt(20),
		ReferralCommissionRate: decimal.NewFromInt(8),
		SharesPerSlot:          50,
	}
}

// ValidateValue checks value against the rules of key.
func ValidateValue(key, value string) error {
	kind, ok := keys[key]
	if !ok {
		return types.NewValidationError("config_key", "unknown key "+key)
	}

	switch kind {
	case kindPercentage:
		d, err := decimal.NewFromString(value)
		if err != nil || !concerns.IsPercentage(d) {
			return types.NewValidationError(key, "must be a percentage between 0 and 100")
		}
	case kindPositiveInt:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n <= 0 {
			return types.NewValidationError(key, "must be a positive integer")
		}
	}

	return nil
}

// Apply overlays one stored value on the snapshot.
func (s *Snapshot) Apply(key, value string) error {
	if err := ValidateValue(key, value); err != nil {
		return err
	}

	switch key {
	case KeyMaxoutLimitPercentage:
		s.MaxoutLimitPercentage, _ = strconv.ParseInt(value, 10, 64)
	case KeyKpiThresholdPoints:
		s.KpiThresholdPoints, _ = strconv.ParseInt(value, 10, 64)
	case KeyWithdrawalMinimum:
		s.WithdrawalMinimum, _ = strconv.ParseInt(value, 10, 64)
	case KeySharesPerSlot:
		s.SharesPerSlot, _ = strconv.ParseInt(value, 10, 64)
	case KeyProfitShareRate:
		s.ProfitShareRate = decimal.RequireFromString(value)
	case KeyWithdrawalTaxRate:
		s.WithdrawalTaxRate = decimal.RequireFromString(value)
	case KeyCorporateTaxRate:
		s.CorporateTaxRate = decimal.RequireFromString(value)
	case KeyReferralCommissionRate:
		s.ReferralCommissionRate = decimal.RequireFromString(value)
	}

	return nil
}

type Service struct {
	store  store.Store
	hook   audit.Hook
	logger *logrus.Entry
}

func NewService(s store.Store, hook audit.Hook, logger *logrus.Entry) *Service {
	return &Service{store: s, hook: hook, logger: logger}
}

// Load returns the defaults overlaid with every stored row. A stored row that
// fails validation is skipped and the default kept.
func (s *Service) Load(ctx context.Context) (Snapshot, error) {
	snap := Defaults()

	rows, err := s.store.ListSystemConfigs(ctx)
	if err != nil {
		return snap, err
	}

	for _, row := range rows {
		if _, ok := keys[row.ConfigKey]; !ok {
			continue
		}
		if err := snap.Apply(row.ConfigKey, row.ConfigValue); err != nil {
			s.logger.WithField("config_key", row.ConfigKey).Warnf("Ignoring stored setting, error: %v", err)
		}
	}

	return snap, nil
}

func (s *Service) GetSystemConfigs(ctx context.Context) ([]*models.SystemConfig, error) {
	return s.store.ListSystemConfigs(ctx)
}

func (s *Service) UpdateSystemConfig(ctx context.Context, key, value, description, updatedBy string) (*models.SystemConfig, error) {
	if err := ValidateValue(key, value); err != nil {
		return nil, err
	}

	var before, after *models.SystemConfig
	err := s.store.Atomic(ctx, func(tx store.Store) error {
		row, err := tx.GetSystemConfig(ctx, key)
		if err != nil && !errors.Is(err, types.ErrNotFound) {
			return err
		}
		if row == nil {
			row = &models.SystemConfig{ConfigKey: key}
		} else {
			prev := *row
			before = &prev
		}

		row.ConfigValue = value
		if description != "" {
			row.Description = description
		}
		row.UpdatedBy = updatedBy

		if err := tx.SaveSystemConfig(ctx, row); err != nil {
			return err
		}
		after = row
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"config_key": key, "config_value": value}).Info("System config updated")
	audit.Notify(ctx, s.hook, s.logger, audit.Entry{
		ActorID:    updatedBy,
		Action:     "settings.update",
		TargetType: "system_config",
		TargetID:   key,
		Before:     before,
		After:      after,
	})

	return after, nil
}

// Seed writes the seed settings and tier configs that are not stored yet.
// Existing rows are left untouched.
func (s *Service) Seed(ctx context.Context, seed *config.Seed) error {
	return s.store.Atomic(ctx, func(tx store.Store) error {
		for _, setting := range seed.Settings {
			if err := ValidateValue(setting.Key, setting.Value); err != nil {
				return err
			}
			if _, err := tx.GetSystemConfig(ctx, setting.Key); err == nil {
				continue
			} else if !errors.Is(err, types.ErrNotFound) {
				return err
			}

			if err := tx.SaveSystemConfig(ctx, &models.SystemConfig{
				ConfigKey:   setting.Key,
				ConfigValue: setting.Value,
				Description: setting.Description,
				UpdatedBy:   "seed",
			}); err != nil {
				return err
			}
		}

		for _, tier := range seed.Tiers {
			if _, err := tx.GetBusinessTierConfig(ctx, tier.TierName); err == nil {
				continue
			} else if !errors.Is(err, types.ErrNotFound) {
				return err
			}

			cfg, err := tier.ToModel()
			if err != nil {
				return err
			}
			if err := tx.SaveBusinessTierConfig(ctx, cfg); err != nil {
				return err
			}
		}

		return nil
	})
}
