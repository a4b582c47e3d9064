package deposits

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
	"github.com/volatiletech/null"

	"github.com/phuanduong/ledger/config"
	"github.com/phuanduong/ledger/locker"
	"github.com/phuanduong/ledger/models"
	"github.com/phuanduong/ledger/services/audit"
	"github.com/phuanduong/ledger/services/balances"
	"github.com/phuanduong/ledger/services/tiers"
	"github.com/phuanduong/ledger/store/memory"
	"github.com/phuanduong/ledger/types"
)

type DepositSuite struct {
	suite.Suite
	ctx     context.Context
	store   *memory.Store
	service *Service
	user    *models.User
}

func (s *DepositSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.New()

	seed, err := config.LoadSeed("")
	s.Require().NoError(err)
	for _, tier := range seed.Tiers {
		cfg, err := tier.ToModel()
		s.Require().NoError(err)
		s.Require().NoError(s.store.SaveBusinessTierConfig(s.ctx, cfg))
	}

	logger := logrus.NewEntry(logrus.New())
	hook := &audit.StoreHook{Store: s.store}
	s.service = NewService(
		s.store,
		locker.NewKeyed(),
		balances.NewService(s.store, logger),
		tiers.NewService(s.store, hook, logger),
		hook,
		logger,
	)

	s.user = &models.User{Name: "Binh"}
	s.Require().NoError(s.store.CreateUser(s.ctx, s.user))
}

func (s *DepositSuite) create(amount int64, tier types.TierName) *models.DepositRequest {
	req, err := s.service.CreateDepositRequest(s.ctx, CreateInput{UserID: s.user.ID, Amount: amount, BusinessTier: tier})
	s.Require().NoError(err)
	s.Equal(types.DepositPending, req.Status)

	return req
}

func (s *DepositSuite) TestApproveFounderDeposit() {
	req := s.create(245_000_000, types.TierFounder)

	approved, err := s.service.ApproveDepositRequest(s.ctx, req.ID, "admin-1")
	s.Require().NoError(err)
	s.Equal(types.DepositApproved, approved.Status)
	s.Equal("admin-1", approved.ApprovedBy.String)
	s.True(approved.ApprovedAt.Valid)

	user, err := s.store.GetUser(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Equal(types.TierFounder, user.BusinessTier)
	s.Equal(int64(245_000_000), user.InvestmentAmount)

	balance, err := s.store.GetUserBalance(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Equal(int64(245_000_000), balance.AvailableBalance)
	s.Equal(int64(245), balance.TotalShares)

	history, err := s.store.ListUserSharesHistory(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Require().Len(history, 1)
	s.Equal(types.ChangeDeposit, history[0].ChangeType)
	s.Equal(int64(245), history[0].ChangeAmount)
	s.Equal(req.ID, history[0].TransactionID)
}

func (s *DepositSuite) TestApproveFallsBackToDerivedTier() {
	req := s.create(120_000_000, types.TierFounder)

	_, err := s.service.ApproveDepositRequest(s.ctx, req.ID, "admin-1")
	s.Require().NoError(err)

	user, err := s.store.GetUser(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Equal(types.TierAngel, user.BusinessTier)

	second := s.create(130_000_000, types.TierFounder)
	_, err = s.service.ApproveDepositRequest(s.ctx, second.ID, "admin-1")
	s.Require().NoError(err)

	user, err = s.store.GetUser(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Equal(types.TierFounder, user.BusinessTier)
	s.Equal(int64(250_000_000), user.InvestmentAmount)

	balance, err := s.store.GetUserBalance(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Equal(int64(250), balance.TotalShares)
}

func (s *DepositSuite) TestSharesClampedToCeiling() {
	cfg, err := s.store.GetBusinessTierConfig(s.ctx, types.TierCustomer)
	s.Require().NoError(err)
	cfg.MaxShares = null.Int64From(50)
	s.Require().NoError(s.store.SaveBusinessTierConfig(s.ctx, cfg))

	first := s.create(30_000_000, types.TierCustomer)
	_, err = s.service.ApproveDepositRequest(s.ctx, first.ID, "admin-1")
	s.Require().NoError(err)

	second := s.create(30_000_000, types.TierCustomer)
	_, err = s.service.ApproveDepositRequest(s.ctx, second.ID, "admin-1")
	s.Require().NoError(err)

	balance, err := s.store.GetUserBalance(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Equal(int64(50), balance.TotalShares)
	s.Equal(int64(60_000_000), balance.AvailableBalance)
}

func (s *DepositSuite) TestRequestedTierDoesNotOverrideDerivedTier() {
	req := s.create(300_000_000, types.TierCustomer)

	_, err := s.service.ApproveDepositRequest(s.ctx, req.ID, "admin-1")
	s.Require().NoError(err)

	user, err := s.store.GetUser(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Equal(types.TierFounder, user.BusinessTier)

	small := &models.User{Name: "Tuan"}
	s.Require().NoError(s.store.CreateUser(s.ctx, small))
	tiny, err := s.service.CreateDepositRequest(s.ctx, CreateInput{UserID: small.ID, Amount: 1_000_000, BusinessTier: types.TierAngel})
	s.Require().NoError(err)
	_, err = s.service.ApproveDepositRequest(s.ctx, tiny.ID, "admin-1")
	s.Require().NoError(err)

	small, err = s.store.GetUser(s.ctx, small.ID)
	s.Require().NoError(err)
	s.Equal(types.TierCustomer, small.BusinessTier)
}

func (s *DepositSuite) TestAssignedTiersCannotBeRequested() {
	for _, tier := range []types.TierName{types.TierBranch, types.TierStaff, types.TierAffiliate} {
		_, err := s.service.CreateDepositRequest(s.ctx, CreateInput{UserID: s.user.ID, Amount: 1, BusinessTier: tier})
		s.ErrorIs(err, types.ErrValidation, tier)
	}

	list, err := s.service.GetUserDepositRequests(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Empty(list)
}

func (s *DepositSuite) TestApproveTwiceFails() {
	req := s.create(10_000_000, types.TierCustomer)

	_, err := s.service.ApproveDepositRequest(s.ctx, req.ID, "admin-1")
	s.Require().NoError(err)

	_, err = s.service.ApproveDepositRequest(s.ctx, req.ID, "admin-1")
	s.ErrorIs(err, types.ErrInvalidState)

	balance, err := s.store.GetUserBalance(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Equal(int64(10_000_000), balance.AvailableBalance)
}

func (s *DepositSuite) TestConcurrentApprovalsCreditEveryDeposit() {
	requests := make([]*models.DepositRequest, 6)
	for i := range requests {
		requests[i] = s.create(10_000_000, types.TierCustomer)
	}

	var wg sync.WaitGroup
	for _, req := range requests {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := s.service.ApproveDepositRequest(s.ctx, id, "admin-1")
			s.NoError(err)
		}(req.ID)
	}
	wg.Wait()

	balance, err := s.store.GetUserBalance(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Equal(int64(60_000_000), balance.AvailableBalance)
	s.Equal(int64(60), balance.TotalShares)

	user, err := s.store.GetUser(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Equal(int64(60_000_000), user.InvestmentAmount)

	history, err := s.store.ListUserSharesHistory(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Len(history, 6)
}

func (s *DepositSuite) TestConcurrentApprovalOfOneRequestCreditsOnce() {
	req := s.create(20_000_000, types.TierCustomer)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.service.ApproveDepositRequest(s.ctx, req.ID, "admin-1")
			if err != nil && !errors.Is(err, types.ErrInvalidState) {
				s.Fail("unexpected error", err.Error())
			}

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			}
		}()
	}
	wg.Wait()

	s.Equal(1, succeeded)

	balance, err := s.store.GetUserBalance(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Equal(int64(20_000_000), balance.AvailableBalance)
	s.Equal(int64(20), balance.TotalShares)
}

func (s *DepositSuite) TestReject() {
	req := s.create(10_000_000, types.TierCustomer)

	_, err := s.service.RejectDepositRequest(s.ctx, req.ID, "admin-1", "  ")
	s.ErrorIs(err, types.ErrValidation)

	rejected, err := s.service.RejectDepositRequest(s.ctx, req.ID, "admin-1", "missing receipt")
	s.Require().NoError(err)
	s.Equal(types.DepositRejected, rejected.Status)
	s.Equal("missing receipt", rejected.Notes)

	_, err = s.service.ApproveDepositRequest(s.ctx, req.ID, "admin-1")
	s.ErrorIs(err, types.ErrInvalidState)

	_, err = s.store.GetUserBalance(s.ctx, s.user.ID)
	s.ErrorIs(err, types.ErrNotFound)
}

func (s *DepositSuite) TestCreateValidation() {
	_, err := s.service.CreateDepositRequest(s.ctx, CreateInput{UserID: s.user.ID, Amount: 0, BusinessTier: types.TierAngel})
	s.ErrorIs(err, types.ErrValidation)

	_, err = s.service.CreateDepositRequest(s.ctx, CreateInput{UserID: s.user.ID, Amount: 5, BusinessTier: "gold"})
	s.ErrorIs(err, types.ErrValidation)

	_, err = s.service.CreateDepositRequest(s.ctx, CreateInput{UserID: "ghost", Amount: 5, BusinessTier: types.TierAngel})
	s.ErrorIs(err, types.ErrNotFound)

	_, err = s.service.ApproveDepositRequest(s.ctx, "ghost", "admin-1")
	s.ErrorIs(err, types.ErrNotFound)
}

func (s *DepositSuite) TestListing() {
	s.create(10_000_000, types.TierCustomer)
	s.create(20_000_000, types.TierCustomer)

	all, err := s.service.GetDepositRequests(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 2)

	mine, err := s.service.GetUserDepositRequests(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Len(mine, 2)
}

func TestDepositSuite(t *testing.T) {
	suite.Run(t, new(DepositSuite))
}
