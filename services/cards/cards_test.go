package cards

import (
	"context"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"

	"github.com/phuanduong/ledger/locker"
	"github.com/phuanduong/ledger/models"
	"github.com/phuanduong/ledger/services/audit"
	"github.com/phuanduong/ledger/services/maxout"
	"github.com/phuanduong/ledger/services/settings"
	"github.com/phuanduong/ledger/store/memory"
	"github.com/phuanduong/ledger/types"
)

type CardSuite struct {
	suite.Suite
	ctx     context.Context
	store   *memory.Store
	snap    settings.Snapshot
	maxout  *maxout.Service
	service *Service
	user    *models.User
}

func (s *CardSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.New()
	s.snap = settings.Defaults()

	logger := logrus.NewEntry(logrus.New())
	s.maxout = maxout.NewService(s.store, logger)
	s.service = NewService(s.store, locker.NewKeyed(), s.maxout, &audit.StoreHook{Store: s.store}, logger)

	s.user = &models.User{Name: "Lan", BusinessTier: types.TierCustomer}
	s.Require().NoError(s.store.CreateUser(s.ctx, s.user))
}

func (s *CardSuite) issue(number string, price, sessions int64) *models.Card {
	card, err := s.service.CreateCard(s.ctx, s.snap, "admin-1", CreateInput{
		CardNumber:        number,
		CardType:          "Gold",
		CustomerName:      "Lan",
		UserID:            s.user.ID,
		Price:             price,
		RemainingSessions: sessions,
	})
	s.Require().NoError(err)

	return card
}

func (s *CardSuite) cardPrice() int64 {
	user, err := s.store.GetUser(s.ctx, s.user.ID)
	s.Require().NoError(err)

	return user.CardPrice
}

func (s *CardSuite) TestCardsFeedTheMaxoutCap() {
	s.issue("1234-5678-9012-3456", 50_000_000, 10)
	s.Equal(int64(50_000_000), s.cardPrice())

	status, err := s.maxout.GetMaxoutStatus(s.ctx, s.snap, s.user.ID)
	s.Require().NoError(err)
	s.Equal(int64(105_000_000), status.Limit)

	second := s.issue("1234-5678-9012-7890", 20_000_000, 5)
	s.Equal(int64(70_000_000), s.cardPrice())

	_, err = s.service.CancelCard(s.ctx, s.snap, "admin-1", second.ID)
	s.Require().NoError(err)
	s.Equal(int64(50_000_000), s.cardPrice())

	logs, err := s.store.ListAuditLogs(s.ctx, 0)
	s.Require().NoError(err)
	s.Equal("card.cancel", logs[0].Action)
}

func (s *CardSuite) TestCancellingLastCardReachesMaxout() {
	card := s.issue("A-1", 50_000_000, 10)

	balance := &models.UserBalance{UserID: s.user.ID, TotalPayout: 100_000_000}
	s.Require().NoError(s.store.SaveUserBalance(s.ctx, balance))

	_, err := s.service.CancelCard(s.ctx, s.snap, "admin-1", card.ID)
	s.Require().NoError(err)
	s.Zero(s.cardPrice())

	stored, err := s.store.GetUserBalance(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.True(stored.MaxoutReached)

	_, err = s.service.CancelCard(s.ctx, s.snap, "admin-1", card.ID)
	s.ErrorIs(err, types.ErrInvalidState)
}

func (s *CardSuite) TestPriceUpdateResyncsHolder() {
	card := s.issue("A-1", 50_000_000, 10)

	price := int64(80_000_000)
	updated, err := s.service.UpdateCard(s.ctx, s.snap, "admin-1", card.ID, UpdateInput{Price: &price})
	s.Require().NoError(err)
	s.Equal(price, updated.Price)
	s.Equal(price, s.cardPrice())

	negative := int64(-1)
	_, err = s.service.UpdateCard(s.ctx, s.snap, "admin-1", card.ID, UpdateInput{Price: &negative})
	s.ErrorIs(err, types.ErrValidation)
}

func (s *CardSuite) TestCreateValidation() {
	_, err := s.service.CreateCard(s.ctx, s.snap, "admin-1", CreateInput{Price: 1})
	s.ErrorIs(err, types.ErrValidation)

	_, err = s.service.CreateCard(s.ctx, s.snap, "admin-1", CreateInput{CardNumber: "X", Price: -1})
	s.ErrorIs(err, types.ErrValidation)

	_, err = s.service.CreateCard(s.ctx, s.snap, "admin-1", CreateInput{CardNumber: "X", UserID: "ghost"})
	s.ErrorIs(err, types.ErrNotFound)

	s.issue("A-1", 1_000_000, 1)
	_, err = s.service.CreateCard(s.ctx, s.snap, "admin-1", CreateInput{CardNumber: "A-1"})
	s.ErrorIs(err, types.ErrValidation)
}

func (s *CardSuite) TestUnassignedCardLeavesUsersAlone() {
	card, err := s.service.CreateCard(s.ctx, s.snap, "admin-1", CreateInput{CardNumber: "WALK-IN", Price: 10_000_000, RemainingSessions: 3})
	s.Require().NoError(err)
	s.False(card.UserID.Valid)
	s.Zero(s.cardPrice())
}

func (s *CardSuite) TestSessionsRunOut() {
	card := s.issue("A-1", 20_000_000, 3)

	card, err := s.service.UpdateCardSessions(s.ctx, "admin-1", card.ID, 2)
	s.Require().NoError(err)
	s.Equal(int64(1), card.RemainingSessions)
	s.Equal(types.CardActive, card.Status)

	_, err = s.service.UpdateCardSessions(s.ctx, "admin-1", card.ID, 2)
	s.ErrorIs(err, types.ErrValidation)

	_, err = s.service.UpdateCardSessions(s.ctx, "admin-1", card.ID, 0)
	s.ErrorIs(err, types.ErrValidation)

	card, err = s.service.UpdateCardSessions(s.ctx, "admin-1", card.ID, 1)
	s.Require().NoError(err)
	s.Zero(card.RemainingSessions)
	s.Equal(types.CardExhausted, card.Status)

	_, err = s.service.CreateQrCheckin(s.ctx, "staff-1", CheckinInput{CardID: card.ID, SessionType: "gym"})
	s.ErrorIs(err, types.ErrInvalidState)

	card, err = s.service.AddSessions(s.ctx, s.snap, "admin-1", card.ID, 4)
	s.Require().NoError(err)
	s.Equal(int64(4), card.RemainingSessions)
	s.Equal(types.CardActive, card.Status)
}

func (s *CardSuite) TestQrCheckin() {
	card := s.issue("A-1", 20_000_000, 2)

	checkin, err := s.service.CreateQrCheckin(s.ctx, "staff-1", CheckinInput{CardID: card.ID, SessionType: "spa", Notes: "morning"})
	s.Require().NoError(err)
	s.Equal(card.ID, checkin.CardID)

	stored, err := s.service.GetCard(s.ctx, card.ID)
	s.Require().NoError(err)
	s.Equal(int64(1), stored.RemainingSessions)

	checkins, err := s.service.GetCardCheckins(s.ctx, card.ID)
	s.Require().NoError(err)
	s.Len(checkins, 1)
	s.Equal("spa", checkins[0].SessionType)

	_, err = s.service.CreateQrCheckin(s.ctx, "staff-1", CheckinInput{CardID: card.ID})
	s.ErrorIs(err, types.ErrValidation)

	_, err = s.service.CreateQrCheckin(s.ctx, "staff-1", CheckinInput{CardID: "ghost", SessionType: "spa"})
	s.ErrorIs(err, types.ErrNotFound)
}

func (s *CardSuite) TestConcurrentCheckinsNeverOverdraw() {
	card := s.issue("A-1", 20_000_000, 5)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.service.CreateQrCheckin(s.ctx, "staff-1", CheckinInput{CardID: card.ID, SessionType: "gym"})
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.Equal(5, ok)

	stored, err := s.service.GetCard(s.ctx, card.ID)
	s.Require().NoError(err)
	s.Zero(stored.RemainingSessions)
	s.Equal(types.CardExhausted, stored.Status)

	checkins, err := s.service.GetCardCheckins(s.ctx, card.ID)
	s.Require().NoError(err)
	s.Len(checkins, 5)
}

func (s *CardSuite) TestListing() {
	s.issue("A-1", 1_000_000, 1)
	_, err := s.service.CreateCard(s.ctx, s.snap, "admin-1", CreateInput{CardNumber: "WALK-IN"})
	s.Require().NoError(err)

	all, err := s.service.GetCards(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 2)

	held, err := s.service.GetUserCards(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Len(held, 1)
}

func TestCardSuite(t *testing.T) {
	suite.Run(t, new(CardSuite))
}
