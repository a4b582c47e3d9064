package withdrawals

import (
	"context"
	"testing"

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

func TestCalculateWithdrawalTax(t *testing.T) {
	snap := settings.Defaults()

	assert.Equal(t, int64(0), CalculateWithdrawalTax(snap, 5_000_000))
	assert.Equal(t, int64(0), CalculateWithdrawalTax(snap, 10_000_000))
	assert.Equal(t, int64(1_000_000), CalculateWithdrawalTax(snap, 10_000_001))
	assert.Equal(t, int64(2_500_000), CalculateWithdrawalTax(snap, 25_000_000))
}

type WithdrawalSuite struct {
	suite.Suite
	ctx     context.Context
	store   *memory.Store
	service *Service
	snap    settings.Snapshot
	user    *models.User
}

func (s *WithdrawalSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.New()
	s.snap = settings.Defaults()

	logger := logrus.NewEntry(logrus.New())
	s.service = NewService(
		s.store,
		locker.NewKeyed(),
		balances.NewService(s.store, logger),
		&audit.StoreHook{Store: s.store},
		logger,
	)

	s.user = &models.User{Name: "Khanh", BusinessTier: types.TierFounder}
	s.Require().NoError(s.store.CreateUser(s.ctx, s.user))
	s.Require().NoError(s.store.SaveUserBalance(s.ctx, &models.UserBalance{UserID: s.user.ID, AvailableBalance: 30_000_000}))
}

func (s *WithdrawalSuite) TestValidateWithdrawalBalance() {
	v, err := s.service.ValidateWithdrawalBalance(s.ctx, s.snap, s.user.ID, 20_000_000)
	s.Require().NoError(err)
	s.True(v.Valid)
	s.Equal(int64(30_000_000), v.AvailableBalance)

	v, err = s.service.ValidateWithdrawalBalance(s.ctx, s.snap, s.user.ID, 4_999_999)
	s.Require().NoError(err)
	s.False(v.Valid)

	v, err = s.service.ValidateWithdrawalBalance(s.ctx, s.snap, s.user.ID, 30_000_001)
	s.Require().NoError(err)
	s.False(v.Valid)
}

func (s *WithdrawalSuite) TestWithdrawalLifecycle() {
	request, err := s.service.CreateWithdrawalRequest(s.ctx, s.snap, s.user.ID, 20_000_000, "cash out")
	s.Require().NoError(err)
	s.Equal(types.TransactionPending, request.Status)
	s.Equal(int64(2_000_000), request.Tax)
	s.Equal(int64(18_000_000), request.NetAmount)

	balance, err := s.store.GetUserBalance(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Equal(int64(30_000_000), balance.AvailableBalance)

	pending, err := s.service.GetPendingTransactions(s.ctx)
	s.Require().NoError(err)
	s.Len(pending, 1)

	approved, err := s.service.ApproveCashFlowTransaction(s.ctx, request.ID, "admin-1")
	s.Require().NoError(err)
	s.Equal(types.TransactionApproved, approved.Status)
	s.Equal("admin-1", approved.ApprovedBy.String)

	balance, err = s.store.GetUserBalance(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Equal(int64(10_000_000), balance.AvailableBalance)

	_, err = s.service.ApproveCashFlowTransaction(s.ctx, request.ID, "admin-1")
	s.ErrorIs(err, types.ErrInvalidState)
}

func (s *WithdrawalSuite) TestApprovalFailsWhenBalanceDropped() {
	first, err := s.service.CreateWithdrawalRequest(s.ctx, s.snap, s.user.ID, 20_000_000, "")
	s.Require().NoError(err)
	second, err := s.service.CreateWithdrawalRequest(s.ctx, s.snap, s.user.ID, 20_000_000, "")
	s.Require().NoError(err)

	_, err = s.service.ApproveCashFlowTransaction(s.ctx, first.ID, "admin-1")
	s.Require().NoError(err)

	_, err = s.service.ApproveCashFlowTransaction(s.ctx, second.ID, "admin-1")
	s.ErrorIs(err, types.ErrInsufficientFunds)

	stored, err := s.service.GetTransaction(s.ctx, second.ID)
	s.Require().NoError(err)
	s.Equal(types.TransactionPending, stored.Status)
}

func (s *WithdrawalSuite) TestWithdrawalLeavesPayoutUntouched() {
	balance, err := s.store.GetUserBalance(s.ctx, s.user.ID)
	s.Require().NoError(err)
	balance.TotalPayout = 12_000_000
	s.Require().NoError(s.store.SaveUserBalance(s.ctx, balance))

	request, err := s.service.CreateWithdrawalRequest(s.ctx, s.snap, s.user.ID, 25_000_000, "")
	s.Require().NoError(err)
	_, err = s.service.ApproveCashFlowTransaction(s.ctx, request.ID, "admin-1")
	s.Require().NoError(err)

	balance, err = s.store.GetUserBalance(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Equal(int64(5_000_000), balance.AvailableBalance)
	s.Equal(int64(12_000_000), balance.TotalPayout)
	s.False(balance.MaxoutReached)
}

func (s *WithdrawalSuite) TestCreateWithdrawalRefused() {
	_, err := s.service.CreateWithdrawalRequest(s.ctx, s.snap, s.user.ID, 1_000_000, "")
	s.ErrorIs(err, types.ErrInsufficientFunds)

	_, err = s.service.CreateWithdrawalRequest(s.ctx, s.snap, s.user.ID, 40_000_000, "")
	s.ErrorIs(err, types.ErrInsufficientFunds)

	_, err = s.service.CreateWithdrawalRequest(s.ctx, s.snap, "ghost", 6_000_000, "")
	s.ErrorIs(err, types.ErrNotFound)
}

func (s *WithdrawalSuite) TestRejectNeedsReasonAndKeepsBalance() {
	request, err := s.service.CreateWithdrawalRequest(s.ctx, s.snap, s.user.ID, 6_000_000, "")
	s.Require().NoError(err)

	_, err = s.service.RejectCashFlowTransaction(s.ctx, request.ID, "admin-1", "")
	s.ErrorIs(err, types.ErrValidation)

	rejected, err := s.service.RejectCashFlowTransaction(s.ctx, request.ID, "admin-1", "duplicate")
	s.Require().NoError(err)
	s.Equal(types.TransactionRejected, rejected.Status)
	s.Equal("duplicate", rejected.Notes)

	balance, err := s.store.GetUserBalance(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Equal(int64(30_000_000), balance.AvailableBalance)
}

func (s *WithdrawalSuite) TestCashFlowBookkeeping() {
	income, err := s.service.CreateTransaction(s.ctx, "admin-1", TransactionInput{UserID: "company", Type: types.TransactionIncome, Amount: 50_000_000})
	s.Require().NoError(err)
	s.Equal(types.TransactionApproved, income.Status)

	_, err = s.service.CreateTransaction(s.ctx, "admin-1", TransactionInput{UserID: "company", Type: types.TransactionWithdrawal, Amount: 1})
	s.ErrorIs(err, types.ErrValidation)

	expense, err := s.service.CreateCashFlowTransaction(s.ctx, s.snap, "admin-1", TransactionInput{UserID: "company", Type: types.TransactionExpense, Amount: 7_000_000})
	s.Require().NoError(err)
	s.Equal(types.TransactionPending, expense.Status)

	_, err = s.service.ApproveCashFlowTransaction(s.ctx, expense.ID, "admin-1")
	s.Require().NoError(err)

	viaQueue, err := s.service.CreateCashFlowTransaction(s.ctx, s.snap, s.user.ID, TransactionInput{UserID: s.user.ID, Type: types.TransactionWithdrawal, Amount: 12_000_000})
	s.Require().NoError(err)
	s.Equal(int64(1_200_000), viaQueue.Tax)

	expenses, err := s.service.GetCashFlowTransactionsByType(s.ctx, types.TransactionExpense)
	s.Require().NoError(err)
	s.Len(expenses, 1)

	_, err = s.service.GetCashFlowTransactionsByType(s.ctx, "refund")
	s.ErrorIs(err, types.ErrValidation)

	mine, err := s.service.GetCashFlowTransactions(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Len(mine, 1)

	_, err = s.service.CreateCashFlowTransaction(s.ctx, s.snap, "admin-1", TransactionInput{UserID: "company", Type: types.TransactionIncome, Amount: 0})
	s.ErrorIs(err, types.ErrValidation)
}

func TestWithdrawalSuite(t *testing.T) {
	suite.Run(t, new(WithdrawalSuite))
}
