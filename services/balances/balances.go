// Package balances mutates UserBalance rows. Every mutating call takes the
// caller's transaction; locking the balance key is the caller's job.
package balances

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/phuanduong/ledger/models"
	"github.com/phuanduong/ledger/monitoring"
	"github.com/phuanduong/ledger/store"
	"github.com/phuanduong/ledger/types"
)

type Service struct {
	store  store.Store
	logger *logrus.Entry
}

func NewService(s store.Store, logger *logrus.Entry) *Service {
	return &Service{store: s, logger: logger}
}

// Load returns the balance of userID, or a zero balance when none is stored.
func Load(ctx context.Context, tx store.Store, userID string) (*models.UserBalance, error) {
	balance, err := tx.GetUserBalance(ctx, userID)
	if errors.Is(err, types.ErrNotFound) {
		return &models.UserBalance{UserID: userID}, nil
	}

	return balance, err
}

func (s *Service) AddToUserBalance(ctx context.Context, tx store.Store, userID string, amount int64, description string) (*models.UserBalance, error) {
	if amount < 0 {
		return nil, types.NewValidationError("amount", "must not be negative")
	}

	balance, err := Load(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if amount == 0 {
		return balance, nil
	}

	if err := balance.PlusFunds(amount, description); err != nil {
		return nil, err
	}
	if err := tx.SaveUserBalance(ctx, balance); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"user_id": userID, "amount": amount}).Debug("Balance credited")
	return balance, nil
}

// Debit subtracts amount from the available balance.
func (s *Service) Debit(ctx context.Context, tx store.Store, userID string, amount int64, description string) (*models.UserBalance, error) {
	if amount <= 0 {
		return nil, types.NewValidationError("amount", "must be positive")
	}

	balance, err := Load(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if amount > balance.AvailableBalance {
		return nil, &types.InsufficientFundsError{UserID: userID, Requested: amount, Available: balance.AvailableBalance}
	}

	if err := balance.SubFunds(amount, description); err != nil {
		return nil, err
	}
	if err := tx.SaveUserBalance(ctx, balance); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"user_id": userID, "amount": amount}).Debug("Balance debited")
	return balance, nil
}

// RecordPayout credits a maxout-tracked payout: the amount lands in the
// available balance and counts toward TotalPayout.
func (s *Service) RecordPayout(ctx context.Context, tx store.Store, userID string, amount int64, kind, description string) (*models.UserBalance, error) {
	balance, err := s.AddToUserBalance(ctx, tx, userID, amount, description)
	if err != nil {
		return nil, err
	}
	if amount == 0 {
		return balance, nil
	}

	balance.TotalPayout += amount
	if err := tx.SaveUserBalance(ctx, balance); err != nil {
		return nil, err
	}

	monitoring.PayoutsTotal.WithLabelValues(kind).Add(float64(amount))
	return balance, nil
}

// UpdateUserShares applies delta to TotalShares and appends a history row.
// A zero delta changes nothing.
func (s *Service) UpdateUserShares(ctx context.Context, tx store.Store, userID string, delta int64, changeType types.ShareChangeType, description, transactionID string) (*models.UserBalance, error) {
	balance, err := Load(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if delta == 0 {
		return balance, nil
	}

	if err := balance.PlusShares(delta); err != nil {
		return nil, types.NewValidationError("shares", err.Error())
	}
	if err := tx.SaveUserBalance(ctx, balance); err != nil {
		return nil, err
	}

	if err := tx.CreateUserSharesHistory(ctx, &models.UserSharesHistory{
		UserID:        userID,
		ChangeAmount:  delta,
		ChangeType:    changeType,
		Description:   description,
		TransactionID: transactionID,
		Timestamp:     time.Now(),
	}); err != nil {
		return nil, fmt.Errorf("shares history for %s: %w", userID, err)
	}

	if delta > 0 {
		monitoring.SharesIssued.WithLabelValues(changeType).Add(float64(delta))
	}
	s.logger.WithFields(logrus.Fields{
		"user_id":     userID,
		"delta":       delta,
		"change_type": changeType,
	}).Info("Shares updated")

	return balance, nil
}

func (s *Service) GetUserBalance(ctx context.Context, userID string) (*models.UserBalance, error) {
	return Load(ctx, s.store, userID)
}

func (s *Service) GetUserSharesHistory(ctx context.Context, userID string) ([]*models.UserSharesHistory, error) {
	return s.store.ListUserSharesHistory(ctx, userID)
}

func (s *Service) GetShareholders(ctx context.Context) ([]*models.UserBalance, error) {
	return s.store.ListShareholders(ctx)
}
