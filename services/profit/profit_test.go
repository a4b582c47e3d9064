package profit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"

	"github.com/phuanduong/ledger/locker"
	"github.com/phuanduong/ledger/models"
	"github.com/phuanduong/ledger/services/audit"
	"github.com/phuanduong/ledger/services/balances"
	"github.com/phuanduong/ledger/services/maxout"
	"github.com/phuanduong/ledger/services/settings"
	"github.com/phuanduong/ledger/store/memory"
	"github.com/phuanduong/ledger/types"
)

var (
	q3 = types.Period{Kind: types.PeriodQuarter, Value: "2024-Q3"}
	q4 = types.Period{Kind: types.PeriodQuarter, Value: "2024-Q4"}
)

type ProfitSuite struct {
	suite.Suite
	ctx     context.Context
	store   *memory.Store
	service *Service
	snap    settings.Snapshot

	founder  *models.User
	angel    *models.User
	customer *models.User
}

func (s *ProfitSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.New()
	s.snap = settings.Defaults()

	logger := logrus.NewEntry(logrus.New())
	s.service = NewService(
		s.store,
		locker.NewKeyed(),
		balances.NewService(s.store, logger),
		maxout.NewService(s.store, logger),
		&audit.StoreHook{Store: s.store},
		logger,
	)

	s.founder = s.holder(types.TierFounder, 300_000_000, 0, 300)
	s.angel = s.holder(types.TierAngel, 100_000_000, 0, 100)
	s.customer = s.holder(types.TierCustomer, 0, 0, 100)

	s.transaction(types.TransactionIncome, 570_000_000, types.TransactionApproved, time.Date(2024, 11, 5, 9, 0, 0, 0, time.UTC))
	s.transaction(types.TransactionExpense, 200_000_000, types.TransactionApproved, time.Date(2024, 12, 31, 23, 59, 0, 0, time.UTC))
	s.transaction(types.TransactionIncome, 999_000_000, types.TransactionPending, time.Date(2024, 11, 6, 9, 0, 0, 0, time.UTC))
	s.transaction(types.TransactionIncome, 40_000_000, types.TransactionApproved, time.Date(2024, 9, 30, 23, 59, 0, 0, time.UTC))
	s.transaction(types.TransactionIncome, 1_000_000, types.TransactionApproved, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
}

func (s *ProfitSuite) holder(tier types.TierName, investment, cardPrice, shares int64) *models.User {
	user := &models.User{BusinessTier: tier, InvestmentAmount: investment, CardPrice: cardPrice}
	s.Require().NoError(s.store.CreateUser(s.ctx, user))
	s.Require().NoError(s.store.SaveUserBalance(s.ctx, &models.UserBalance{UserID: user.ID, TotalShares: shares}))

	return user
}

func (s *ProfitSuite) transaction(kind types.TransactionType, amount int64, status types.TransactionStatus, at time.Time) {
	s.Require().NoError(s.store.CreateTransaction(s.ctx, &models.Transaction{
		UserID:    "company",
		Type:      kind,
		Amount:    amount,
		NetAmount: amount,
		Status:    status,
		CreatedAt: at,
	}))
}

func (s *ProfitSuite) distributionOf(outcome *Outcome, userID string) *models.ProfitDistribution {
	for _, d := range outcome.Distributions {
		if d.ShareholderID == userID {
			return d
		}
	}
	s.FailNow("no distribution for " + userID)

	return nil
}

func (s *ProfitSuite) TestCalculateQuarterlyProfit() {
	summary, err := s.service.CalculateQuarterlyProfit(s.ctx, q4)
	s.Require().NoError(err)
	s.Equal(int64(570_000_000), summary.Revenue)
	s.Equal(int64(200_000_000), summary.Expenses)
	s.Equal(int64(370_000_000), summary.Profit)

	_, err = s.service.CalculateQuarterlyProfit(s.ctx, types.Period{Kind: "week", Value: "1"})
	s.ErrorIs(err, types.ErrValidation)
}

func (s *ProfitSuite) TestProcessAllocatesWithMaxout() {
	outcome, err := s.service.ProcessQuarterlyProfitSharing(s.ctx, s.snap, q4, "admin-1")
	s.Require().NoError(err)

	sharing := outcome.Sharing
	s.Equal(int64(181_300_000), sharing.DistributableAmount)
	s.Equal(int64(74_000_000), sharing.CorporateTax)
	s.Equal(int64(500), sharing.TotalShares)
	s.Equal(types.SharingCalculated, sharing.Status)
	s.True(sharing.RespectMaxout)

	s.Equal(int64(108_780_000), s.distributionOf(outcome, s.founder.ID).CappedAmount)
	s.Equal(int64(36_260_000), s.distributionOf(outcome, s.angel.ID).CappedAmount)

	customer := s.distributionOf(outcome, s.customer.ID)
	s.Equal(int64(36_260_000), customer.RawEntitlement)
	s.Equal(int64(0), customer.CappedAmount)

	var total int64
	for _, d := range outcome.Distributions {
		s.LessOrEqual(d.CappedAmount, d.RawEntitlement)
		total += d.CappedAmount
	}
	s.LessOrEqual(total, sharing.DistributableAmount)

	stored, err := s.service.GetProfitSharingByPeriod(s.ctx, q4)
	s.Require().NoError(err)
	s.Equal(sharing.ID, stored.ID)
}

func (s *ProfitSuite) TestProcessTwiceFails() {
	_, err := s.service.ProcessQuarterlyProfitSharing(s.ctx, s.snap, q4, "admin-1")
	s.Require().NoError(err)

	_, err = s.service.ProcessQuarterlyProfitSharing(s.ctx, s.snap, q4, "admin-1")
	s.ErrorIs(err, types.ErrInvalidState)

	sharings, err := s.service.GetProfitSharings(s.ctx)
	s.Require().NoError(err)
	s.Len(sharings, 1)

	rows, err := s.service.GetProfitDistributionsBySharing(s.ctx, sharings[0].ID)
	s.Require().NoError(err)
	s.Len(rows, 3)
}

func (s *ProfitSuite) TestProcessWithoutMaxout() {
	outcome, err := s.service.ProcessQuarterlyProfitSharingWithMaxout(s.ctx, s.snap, q3, "admin-1", false)
	s.Require().NoError(err)

	s.Equal(int64(19_600_000), outcome.Sharing.DistributableAmount)
	customer := s.distributionOf(outcome, s.customer.ID)
	s.Equal(customer.RawEntitlement, customer.CappedAmount)
	s.Equal(int64(3_920_000), customer.CappedAmount)
}

func (s *ProfitSuite) TestLossDistributesNothing() {
	s.transaction(types.TransactionExpense, 900_000_000, types.TransactionApproved, time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC))

	outcome, err := s.service.ProcessQuarterlyProfitSharing(s.ctx, s.snap, q3, "admin-1")
	s.Require().NoError(err)
	s.Equal(int64(-860_000_000), outcome.Sharing.Profit)
	s.Equal(int64(0), outcome.Sharing.DistributableAmount)
	s.Equal(int64(0), outcome.Sharing.CorporateTax)
	for _, d := range outcome.Distributions {
		s.Equal(int64(0), d.CappedAmount)
	}
}

func (s *ProfitSuite) TestPayAllDistributions() {
	outcome, err := s.service.ProcessQuarterlyProfitSharing(s.ctx, s.snap, q4, "admin-1")
	s.Require().NoError(err)

	result, err := s.service.ProcessAllDistributionPayments(s.ctx, s.snap, outcome.Sharing.ID, "admin-1")
	s.Require().NoError(err)
	s.Equal(3, result.Paid)
	s.Equal(int64(145_040_000), result.TotalPaid)

	balance, err := s.store.GetUserBalance(s.ctx, s.founder.ID)
	s.Require().NoError(err)
	s.Equal(int64(108_780_000), balance.AvailableBalance)
	s.Equal(int64(108_780_000), balance.TotalPayout)

	sharing, err := s.service.GetProfitSharing(s.ctx, outcome.Sharing.ID)
	s.Require().NoError(err)
	s.Equal(types.SharingDistributed, sharing.Status)

	again, err := s.service.ProcessAllDistributionPayments(s.ctx, s.snap, outcome.Sharing.ID, "admin-1")
	s.Require().NoError(err)
	s.Equal(0, again.Paid)
	s.Equal(3, again.Skipped)
	s.Equal(int64(0), again.TotalPaid)

	_, err = s.service.MarkDistributionPaid(s.ctx, s.snap, outcome.Distributions[0].ID, "admin-1")
	s.ErrorIs(err, types.ErrInvalidState)
}

func (s *ProfitSuite) TestPaymentClampedWhenPayoutsGrewSinceAllocation() {
	outcome, err := s.service.ProcessQuarterlyProfitSharing(s.ctx, s.snap, q4, "admin-1")
	s.Require().NoError(err)

	balance, err := s.store.GetUserBalance(s.ctx, s.angel.ID)
	s.Require().NoError(err)
	balance.TotalPayout = 480_000_000
	s.Require().NoError(s.store.SaveUserBalance(s.ctx, balance))

	paid, err := s.service.MarkDistributionPaid(s.ctx, s.snap, s.distributionOf(outcome, s.angel.ID).ID, "admin-1")
	s.Require().NoError(err)
	s.True(paid.Paid)
	s.Equal(int64(20_000_000), paid.CappedAmount)

	balance, err = s.store.GetUserBalance(s.ctx, s.angel.ID)
	s.Require().NoError(err)
	s.Equal(int64(500_000_000), balance.TotalPayout)
	s.True(balance.MaxoutReached)

	sharing, err := s.service.GetProfitSharing(s.ctx, outcome.Sharing.ID)
	s.Require().NoError(err)
	s.Equal(types.SharingCalculated, sharing.Status)
}

func (s *ProfitSuite) TestConcurrentProcessingCreatesOneSharing() {
	const workers = 8

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.service.ProcessQuarterlyProfitSharing(s.ctx, s.snap, q4, "admin-1")

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, types.ErrInvalidState):
				rejected++
			}
		}()
	}
	wg.Wait()

	s.Equal(1, succeeded)
	s.Equal(workers-1, rejected)

	sharings, err := s.service.GetProfitSharings(s.ctx)
	s.Require().NoError(err)
	s.Len(sharings, 1)

	distributions, err := s.service.GetProfitDistributionsBySharing(s.ctx, sharings[0].ID)
	s.Require().NoError(err)
	s.Len(distributions, 3)
}

func (s *ProfitSuite) TestConcurrentPaymentsPayEachDistributionOnce() {
	outcome, err := s.service.ProcessQuarterlyProfitSharing(s.ctx, s.snap, q4, "admin-1")
	s.Require().NoError(err)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int64
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := s.service.ProcessAllDistributionPayments(s.ctx, s.snap, outcome.Sharing.ID, "admin-1")
			s.NoError(err)

			mu.Lock()
			total += result.TotalPaid
			mu.Unlock()
		}()
	}
	for _, row := range outcome.Distributions {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := s.service.MarkDistributionPaid(s.ctx, s.snap, id, "admin-1")
			if err != nil {
				s.ErrorIs(err, types.ErrInvalidState)
			}
		}(row.ID)
	}
	wg.Wait()

	s.LessOrEqual(total, int64(145_040_000))

	balance, err := s.store.GetUserBalance(s.ctx, s.founder.ID)
	s.Require().NoError(err)
	s.Equal(int64(108_780_000), balance.AvailableBalance)
	s.Equal(int64(108_780_000), balance.TotalPayout)
}

func (s *ProfitSuite) TestMissingSharing() {
	_, err := s.service.ProcessAllDistributionPayments(s.ctx, s.snap, "ghost", "admin-1")
	s.ErrorIs(err, types.ErrNotFound)

	_, err = s.service.MarkDistributionPaid(s.ctx, s.snap, "ghost", "admin-1")
	s.ErrorIs(err, types.ErrNotFound)
}

func TestProfitSuite(t *testing.T) {
	suite.Run(t, new(ProfitSuite))
}
