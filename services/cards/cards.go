// Package cards manages prepaid membership cards and their QR check-ins.
// A holder's card prices feed the card-price payout cap of the customer tier.
package cards

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/volatiletech/null"

	"github.com/phuanduong/ledger/locker"
	"github.com/phuanduong/ledger/models"
	"github.com/phuanduong/ledger/services/audit"
	"github.com/phuanduong/ledger/services/maxout"
	"github.com/phuanduong/ledger/services/settings"
	"github.com/phuanduong/ledger/store"
	"github.com/phuanduong/ledger/types"
)

type Service struct {
	store  store.Store
	locker locker.Locker
	maxout *maxout.Service
	hook   audit.Hook
	logger *logrus.Entry
}

func NewService(s store.Store, l locker.Locker, m *maxout.Service, hook audit.Hook, logger *logrus.Entry) *Service {
	return &Service{store: s, locker: l, maxout: m, hook: hook, logger: logger}
}

type CreateInput struct {
	CardNumber        string
	CardType          string
	CustomerName      string
	UserID            string
	Price             int64
	RemainingSessions int64
}

func (in CreateInput) Validate() error {
	if in.CardNumber == "" {
		return types.NewValidationError("card_number", "is required")
	}
	if in.Price < 0 {
		return types.NewValidationError("price", "must not be negative")
	}
	if in.RemainingSessions < 0 {
		return types.NewValidationError("remaining_sessions", "must not be negative")
	}

	return nil
}

// CreateCard issues a card, optionally to a user whose card price is then
// recomputed in the same commit.
func (s *Service) CreateCard(ctx context.Context, snap settings.Snapshot, actorID string, in CreateInput) (*models.Card, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	keys := []string{locker.CardNumberKey(in.CardNumber)}
	if in.UserID != "" {
		keys = append(keys, locker.BalanceKey(in.UserID))
	}
	unlock, err := locker.LockAll(ctx, s.locker, keys...)
	if err != nil {
		return nil, err
	}
	defer unlock()

	card := &models.Card{
		CardNumber:        in.CardNumber,
		CardType:          in.CardType,
		CustomerName:      in.CustomerName,
		Price:             in.Price,
		RemainingSessions: in.RemainingSessions,
		Status:            types.CardActive,
	}
	if in.RemainingSessions == 0 {
		card.Status = types.CardExhausted
	}
	if in.UserID != "" {
		card.UserID = null.StringFrom(in.UserID)
	}

	err = s.store.Atomic(ctx, func(tx store.Store) error {
		if card.UserID.Valid {
			if _, err := tx.GetUser(ctx, in.UserID); err != nil {
				return err
			}
		}

		_, err := tx.GetCardByNumber(ctx, in.CardNumber)
		if err == nil {
			return types.NewValidationError("card_number", "already in use")
		}
		if !errors.Is(err, types.ErrNotFound) {
			return err
		}

		if err := tx.CreateCard(ctx, card); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return types.NewValidationError("card_number", "already in use")
			}
			return err
		}

		return s.syncHolder(ctx, tx, snap, card.UserID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"card_id": card.ID,
		"user_id": card.UserID.String,
		"price":   card.Price,
	}).Info("Card issued")
	s.notify(ctx, actorID, "card.create", nil, card)

	return card, nil
}

type UpdateInput struct {
	CardType     *string
	CustomerName *string
	Price        *int64
}

func (in UpdateInput) Validate() error {
	if in.Price != nil && *in.Price < 0 {
		return types.NewValidationError("price", "must not be negative")
	}

	return nil
}

// UpdateCard edits the card's descriptive fields and price.
func (s *Service) UpdateCard(ctx context.Context, snap settings.Snapshot, actorID, id string, in UpdateInput) (*models.Card, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	return s.mutate(ctx, snap, actorID, id, "card.update", func(card *models.Card) error {
		if card.Status == types.CardCancelled {
			return &types.StateError{Entity: "card", ID: id, From: string(card.Status)}
		}
		if in.CardType != nil {
			card.CardType = *in.CardType
		}
		if in.CustomerName != nil {
			card.CustomerName = *in.CustomerName
		}
		if in.Price != nil {
			card.Price = *in.Price
		}

		return nil
	})
}

// CancelCard retires the card; its price stops counting toward the holder's cap.
func (s *Service) CancelCard(ctx context.Context, snap settings.Snapshot, actorID, id string) (*models.Card, error) {
	return s.mutate(ctx, snap, actorID, id, "card.cancel", func(card *models.Card) error {
		if err := types.CardTransitions.Validate("card", id, card.Status, types.CardCancelled); err != nil {
			return err
		}
		card.Status = types.CardCancelled

		return nil
	})
}

// AddSessions tops up a card. An exhausted card becomes active again.
func (s *Service) AddSessions(ctx context.Context, snap settings.Snapshot, actorID, id string, sessions int64) (*models.Card, error) {
	if sessions <= 0 {
		return nil, types.NewValidationError("sessions", "must be positive")
	}

	return s.mutate(ctx, snap, actorID, id, "card.topup", func(card *models.Card) error {
		if card.Status == types.CardCancelled {
			return &types.StateError{Entity: "card", ID: id, From: string(card.Status), To: string(types.CardActive)}
		}
		card.RemainingSessions += sessions
		card.Status = types.CardActive

		return nil
	})
}

// UpdateCardSessions uses up decrement sessions. The card is exhausted once
// no session remains; asking for more than remain changes nothing.
func (s *Service) UpdateCardSessions(ctx context.Context, actorID, id string, decrement int64) (*models.Card, error) {
	if decrement <= 0 {
		return nil, types.NewValidationError("decrement", "must be positive")
	}

	unlock, err := s.locker.Lock(ctx, locker.CardKey(id))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var before, card *models.Card
	err = s.store.Atomic(ctx, func(tx store.Store) error {
		card, err = tx.GetCard(ctx, id)
		if err != nil {
			return err
		}
		copied := *card
		before = &copied

		return consume(ctx, tx, card, decrement)
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, actorID, "card.sessions", before, card)
	return card, nil
}

type CheckinInput struct {
	CardID      string
	SessionType string
	Notes       string
}

// CreateQrCheckin records a visit and uses one session of the card.
func (s *Service) CreateQrCheckin(ctx context.Context, actorID string, in CheckinInput) (*models.QrCheckin, error) {
	if in.CardID == "" {
		return nil, types.NewValidationError("card_id", "is required")
	}
	if in.SessionType == "" {
		return nil, types.NewValidationError("session_type", "is required")
	}

	unlock, err := s.locker.Lock(ctx, locker.CardKey(in.CardID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	checkin := &models.QrCheckin{CardID: in.CardID, SessionType: in.SessionType, Notes: in.Notes}
	var card *models.Card
	err = s.store.Atomic(ctx, func(tx store.Store) error {
		card, err = tx.GetCard(ctx, in.CardID)
		if err != nil {
			return err
		}
		if err := consume(ctx, tx, card, 1); err != nil {
			return err
		}

		return tx.CreateQrCheckin(ctx, checkin)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"card_id":   card.ID,
		"remaining": card.RemainingSessions,
	}).Info("QR check-in recorded")
	s.notify(ctx, actorID, "card.checkin", nil, checkin)

	return checkin, nil
}

func consume(ctx context.Context, tx store.Store, card *models.Card, decrement int64) error {
	if card.Status != types.CardActive {
		return &types.StateError{Entity: "card", ID: card.ID, From: string(card.Status)}
	}
	if card.RemainingSessions < decrement {
		return types.NewValidationError("remaining_sessions", "not enough sessions left")
	}

	card.RemainingSessions -= decrement
	if card.RemainingSessions == 0 {
		card.Status = types.CardExhausted
	}

	return tx.UpdateCard(ctx, card)
}

// mutate runs change on the locked card and resyncs the holder.
func (s *Service) mutate(ctx context.Context, snap settings.Snapshot, actorID, id, action string, change func(*models.Card) error) (*models.Card, error) {
	found, err := s.store.GetCard(ctx, id)
	if err != nil {
		return nil, err
	}

	keys := []string{locker.CardKey(id)}
	if found.UserID.Valid {
		keys = append(keys, locker.BalanceKey(found.UserID.String))
	}
	unlock, err := locker.LockAll(ctx, s.locker, keys...)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var card *models.Card
	err = s.store.Atomic(ctx, func(tx store.Store) error {
		card, err = tx.GetCard(ctx, id)
		if err != nil {
			return err
		}
		if err := change(card); err != nil {
			return err
		}
		if err := tx.UpdateCard(ctx, card); err != nil {
			return err
		}

		return s.syncHolder(ctx, tx, snap, card.UserID)
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, actorID, action, found, card)
	return card, nil
}

// syncHolder sets the holder's CardPrice to the total of their non-cancelled
// cards and refreshes the maxout flag against the new cap.
func (s *Service) syncHolder(ctx context.Context, tx store.Store, snap settings.Snapshot, userID null.String) error {
	if !userID.Valid {
		return nil
	}

	user, err := tx.GetUser(ctx, userID.String)
	if err != nil {
		return err
	}

	held, err := tx.ListCards(ctx, user.ID)
	if err != nil {
		return err
	}

	var total int64
	for _, card := range held {
		if card.CountsTowardMaxout() {
			total += card.Price
		}
	}

	if total != user.CardPrice {
		s.logger.WithFields(logrus.Fields{
			"user_id": user.ID,
			"from":    user.CardPrice,
			"to":      total,
		}).Info("Card price recomputed")
		user.CardPrice = total
		if err := tx.UpdateUser(ctx, user); err != nil {
			return err
		}
	}

	_, err = s.maxout.Refresh(ctx, tx, snap, user.ID)
	return err
}

func (s *Service) notify(ctx context.Context, actorID, action string, before, after interface{}) {
	entry := audit.Entry{
		ActorID:    actorID,
		Action:     action,
		TargetType: "card",
		Before:     before,
		After:      after,
	}
	switch v := after.(type) {
	case *models.Card:
		entry.TargetID = v.ID
		entry.Amount = v.Price
	case *models.QrCheckin:
		entry.TargetType = "qr_checkin"
		entry.TargetID = v.ID
	}

	audit.Notify(ctx, s.hook, s.logger, entry)
}

func (s *Service) GetCards(ctx context.Context) ([]*models.Card, error) {
	return s.store.ListCards(ctx, "")
}

func (s *Service) GetCard(ctx context.Context, id string) (*models.Card, error) {
	return s.store.GetCard(ctx, id)
}

func (s *Service) GetUserCards(ctx context.Context, userID string) ([]*models.Card, error) {
	return s.store.ListCards(ctx, userID)
}

func (s *Service) GetCardCheckins(ctx context.Context, cardID string) ([]*models.QrCheckin, error) {
	if _, err := s.store.GetCard(ctx, cardID); err != nil {
		return nil, err
	}

	return s.store.ListQrCheckins(ctx, cardID)
}
