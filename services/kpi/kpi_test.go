package kpi

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/phuanduong/ledger/locker"
	"github.com/phuanduong/ledger/models"
	"github.com/phuanduong/ledger/services/audit"
	"github.com/phuanduong/ledger/services/balances"
	"github.com/phuanduong/ledger/services/settings"
	"github.com/phuanduong/ledger/store/memory"
	"github.com/phuanduong/ledger/types"
)

var q4 = types.Period{Kind: types.PeriodQuarter, Value: "2024-Q4"}

func TestEvaluate(t *testing.T) {
	score := Evaluate(10, decimal.RequireFromString("78.9"), settings.Defaults())

	assert.True(t, score.Points.Equal(decimal.RequireFromString("128.9")), score.Points.String())
	assert.Equal(t, int64(2), score.Slots)
	assert.Equal(t, int64(100), score.Shares)

	low := Evaluate(9, decimal.RequireFromString("4.99"), settings.Defaults())
	assert.Equal(t, int64(0), low.Slots)
	assert.Equal(t, int64(0), low.Shares)
}

type KpiSuite struct {
	suite.Suite
	ctx     context.Context
	store   *memory.Store
	service *Service
	snap    settings.Snapshot
	staff   *models.User
}

func (s *KpiSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.New()
	s.snap = settings.Defaults()

	logger := logrus.NewEntry(logrus.New())
	s.service = NewService(s.store, locker.NewKeyed(), balances.NewService(s.store, logger), &audit.StoreHook{Store: s.store}, logger)

	s.staff = &models.User{Name: "Chi", BusinessTier: types.TierStaff}
	s.Require().NoError(s.store.CreateUser(s.ctx, s.staff))
}

func (s *KpiSuite) record(staffID string, sales int64, retention string) *models.StaffKpi {
	record, err := s.service.RecordStaffKpi(s.ctx, s.snap, "admin-1", RecordInput{
		StaffID:           staffID,
		Period:            q4,
		CardSales:         sales,
		CustomerRetention: decimal.RequireFromString(retention),
	})
	s.Require().NoError(err)

	return record
}

func (s *KpiSuite) TestRecordFillsDerivedFields() {
	record := s.record(s.staff.ID, 10, "78.9")

	s.Equal(types.KpiRecorded, record.State)
	s.True(record.TotalPoints.Equal(decimal.RequireFromString("128.9")))
	s.Equal(int64(2), record.SlotsEarned)
	s.Equal(int64(100), record.SharesAwarded)

	score, err := s.service.CalculateStaffKpiPoints(s.ctx, s.snap, s.staff.ID, q4)
	s.Require().NoError(err)
	s.Equal(int64(2), score.Slots)
}

func (s *KpiSuite) TestRecordAgainReplacesUntilProcessed() {
	first := s.record(s.staff.ID, 1, "0")
	second := s.record(s.staff.ID, 20, "0")

	s.Equal(first.ID, second.ID)
	s.Equal(int64(100), second.TotalPoints.IntPart())

	_, err := s.service.ProcessQuarterlyShares(s.ctx, s.snap, q4)
	s.Require().NoError(err)

	_, err = s.service.RecordStaffKpi(s.ctx, s.snap, "admin-1", RecordInput{StaffID: s.staff.ID, Period: q4, CardSales: 1})
	s.ErrorIs(err, types.ErrInvalidState)
}

func (s *KpiSuite) TestRecordValidation() {
	_, err := s.service.RecordStaffKpi(s.ctx, s.snap, "admin-1", RecordInput{StaffID: s.staff.ID, Period: types.Period{Kind: types.PeriodQuarter, Value: "2024-Q5"}})
	s.ErrorIs(err, types.ErrValidation)

	_, err = s.service.RecordStaffKpi(s.ctx, s.snap, "admin-1", RecordInput{StaffID: s.staff.ID, Period: q4, CardSales: -1})
	s.ErrorIs(err, types.ErrValidation)

	for _, retention := range []string{"-0.1", "100.01", "5000"} {
		_, err = s.service.RecordStaffKpi(s.ctx, s.snap, "admin-1", RecordInput{StaffID: s.staff.ID, Period: q4, CustomerRetention: decimal.RequireFromString(retention)})
		s.ErrorIs(err, types.ErrValidation, retention)
	}

	full := s.record(s.staff.ID, 0, "100")
	s.True(full.TotalPoints.Equal(decimal.NewFromInt(100)))

	_, err = s.service.RecordStaffKpi(s.ctx, s.snap, "admin-1", RecordInput{StaffID: "ghost", Period: q4})
	s.ErrorIs(err, types.ErrNotFound)
}

func (s *KpiSuite) TestProcessQuarterlySharesIsIdempotent() {
	other := &models.User{Name: "Dung", BusinessTier: types.TierStaff}
	s.Require().NoError(s.store.CreateUser(s.ctx, other))

	s.record(s.staff.ID, 10, "78.9")
	s.record(other.ID, 2, "5")

	result, err := s.service.ProcessQuarterlyShares(s.ctx, s.snap, q4)
	s.Require().NoError(err)
	s.Equal(2, result.Processed)
	s.Equal(0, result.Skipped)
	s.Equal(int64(100), result.SharesAwarded)

	again, err := s.service.ProcessQuarterlyShares(s.ctx, s.snap, q4)
	s.Require().NoError(err)
	s.Equal(0, again.Processed)
	s.Equal(2, again.Skipped)

	balance, err := s.store.GetUserBalance(s.ctx, s.staff.ID)
	s.Require().NoError(err)
	s.Equal(int64(100), balance.TotalShares)

	history, err := s.store.ListUserSharesHistory(s.ctx, s.staff.ID)
	s.Require().NoError(err)
	s.Require().Len(history, 1)
	s.Equal(types.ChangeKpiAward, history[0].ChangeType)

	records, err := s.service.GetStaffKpis(s.ctx, q4)
	s.Require().NoError(err)
	for _, record := range records {
		s.True(record.IsProcessed())
		s.True(record.ProcessedAt.Valid)
	}
}

func (s *KpiSuite) TestProcessUsesCurrentSettings() {
	s.record(s.staff.ID, 10, "78.9")

	snap := s.snap
	snap.KpiThresholdPoints = 40
	snap.SharesPerSlot = 10

	result, err := s.service.ProcessQuarterlyShares(s.ctx, snap, q4)
	s.Require().NoError(err)
	s.Equal(int64(30), result.SharesAwarded)

	mine, err := s.service.GetStaffKpisByStaff(s.ctx, s.staff.ID)
	s.Require().NoError(err)
	s.Require().Len(mine, 1)
	s.Equal(int64(3), mine[0].SlotsEarned)
}

func (s *KpiSuite) TestConcurrentProcessingAwardsOnce() {
	s.record(s.staff.ID, 10, "78.9")

	const runs = 8
	results := make([]Result, runs)
	errs := make([]error, runs)

	var wg sync.WaitGroup
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.service.ProcessQuarterlyShares(s.ctx, s.snap, q4)
		}(i)
	}
	wg.Wait()

	var processed int
	var awarded int64
	for i := 0; i < runs; i++ {
		s.Require().NoError(errs[i])
		processed += results[i].Processed
		awarded += results[i].SharesAwarded
	}
	s.Equal(1, processed)
	s.Equal(int64(100), awarded)

	balance, err := s.store.GetUserBalance(s.ctx, s.staff.ID)
	s.Require().NoError(err)
	s.Equal(int64(100), balance.TotalShares)

	history, err := s.store.ListUserSharesHistory(s.ctx, s.staff.ID)
	s.Require().NoError(err)
	s.Len(history, 1)
}

func TestKpiSuite(t *testing.T) {
	suite.Run(t, new(KpiSuite))
}
