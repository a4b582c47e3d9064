package settings

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/phuanduong/ledger/config"
	"github.com/phuanduong/ledger/models"
	"github.com/phuanduong/ledger/services/audit"
	"github.com/phuanduong/ledger/store/memory"
	"github.com/phuanduong/ledger/types"
)

type SettingsSuite struct {
	suite.Suite
	ctx     context.Context
	store   *memory.Store
	service *Service
}

func (s *SettingsSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.New()
	logger := logrus.NewEntry(logrus.New())
	s.service = NewService(s.store, &audit.StoreHook{Store: s.store}, logger)
}

func (s *SettingsSuite) TestLoadDefaults() {
	snap, err := s.service.Load(s.ctx)
	s.Require().NoError(err)
	s.Equal(Defaults(), snap)
}

func (s *SettingsSuite) TestSeedThenLoad() {
	seed, err := config.LoadSeed("")
	s.Require().NoError(err)
	s.Require().NoError(s.service.Seed(s.ctx, seed))

	snap, err := s.service.Load(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(210), snap.MaxoutLimitPercentage)
	s.True(snap.ProfitShareRate.Equal(decimal.NewFromInt(49)))
	s.Equal(int64(50), snap.SharesPerSlot)

	founder, err := s.store.GetBusinessTierConfig(s.ctx, types.TierFounder)
	s.Require().NoError(err)
	s.Equal(int64(245_000_000), founder.MinInvestmentAmount)
}

func (s *SettingsSuite) TestSeedKeepsExistingRows() {
	s.Require().NoError(s.store.SaveSystemConfig(s.ctx, &models.SystemConfig{ConfigKey: KeyProfitShareRate, ConfigValue: "30"}))

	seed, err := config.LoadSeed("")
	s.Require().NoError(err)
	s.Require().NoError(s.service.Seed(s.ctx, seed))

	row, err := s.store.GetSystemConfig(s.ctx, KeyProfitShareRate)
	s.Require().NoError(err)
	s.Equal("30", row.ConfigValue)
}

func (s *SettingsSuite) TestUpdateSystemConfig() {
	row, err := s.service.UpdateSystemConfig(s.ctx, KeyWithdrawalTaxRate, "12.5", "", "admin-1")
	s.Require().NoError(err)
	s.Equal("admin-1", row.UpdatedBy)

	snap, err := s.service.Load(s.ctx)
	s.Require().NoError(err)
	s.True(snap.WithdrawalTaxRate.Equal(decimal.RequireFromString("12.5")))

	logs, err := s.store.ListAuditLogs(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(logs, 1)
	s.Equal("settings.update", logs[0].Action)
}

func (s *SettingsSuite) TestUpdateRejectsInvalidValues() {
	for key, value := range map[string]string{
		KeyProfitShareRate:       "101",
		KeyCorporateTaxRate:      "-1",
		KeyKpiThresholdPoints:    "0",
		KeySharesPerSlot:         "1.5",
		KeyWithdrawalMinimum:     "abc",
		"unknown_setting":        "1",
		KeyMaxoutLimitPercentage: "",
	} {
		_, err := s.service.UpdateSystemConfig(s.ctx, key, value, "", "admin-1")
		s.ErrorIs(err, types.ErrValidation, key)
	}

	configs, err := s.service.GetSystemConfigs(s.ctx)
	s.Require().NoError(err)
	s.Empty(configs)
}

func (s *SettingsSuite) TestLoadSkipsInvalidStoredRow() {
	s.Require().NoError(s.store.SaveSystemConfig(s.ctx, &models.SystemConfig{ConfigKey: KeySharesPerSlot, ConfigValue: "-4"}))

	snap, err := s.service.Load(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(50), snap.SharesPerSlot)
}

func TestSettingsSuite(t *testing.T) {
	suite.Run(t, new(SettingsSuite))
}

func TestValidateValue(t *testing.T) {
	require.NoError(t, ValidateValue(KeyReferralCommissionRate, "0"))
	require.NoError(t, ValidateValue(KeyReferralCommissionRate, "100"))
	assert.ErrorIs(t, ValidateValue(KeyReferralCommissionRate, "100.5"), types.ErrValidation)
}
