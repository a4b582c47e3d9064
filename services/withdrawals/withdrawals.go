// Package withdrawals validates and taxes withdrawals and runs the cash flow
// approval queue.
package withdrawals

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/volatiletech/null"

	"github.com/phuanduong/ledger/locker"
	"github.com/phuanduong/ledger/models"
	"github.com/phuanduong/ledger/models/concerns"
	"github.com/phuanduong/ledger/monitoring"
	"github.com/phuanduong/ledger/services/audit"
	"github.com/phuanduong/ledger/services/balances"
	"github.com/phuanduong/ledger/services/settings"
	"github.com/phuanduong/ledger/store"
	"github.com/phuanduong/ledger/types"
)

// CalculateWithdrawalTax is zero up to the threshold, otherwise the rate
// applies to the whole amount.
func CalculateWithdrawalTax(snap settings.Snapshot, amount int64) int64 {
	if amount <= types.WithdrawalTaxThreshold {
		return 0
	}

	return concerns.PercentOf(amount, snap.WithdrawalTaxRate)
}

type Validation struct {
	Valid            bool   `json:"valid"`
	AvailableBalance int64  `json:"available_balance"`
	Minimum          int64  `json:"minimum"`
	Reason           string `json:"reason,omitempty"`
}

type Service struct {
	store    store.Store
	locker   locker.Locker
	balances *balances.Service
	hook     audit.Hook
	logger   *logrus.Entry
}

func NewService(s store.Store, l locker.Locker, b *balances.Service, hook audit.Hook, logger *logrus.Entry) *Service {
	return &Service{store: s, locker: l, balances: b, hook: hook, logger: logger}
}

func (s *Service) ValidateWithdrawalBalance(ctx context.Context, snap settings.Snapshot, userID string, amount int64) (Validation, error) {
	balance, err := balances.Load(ctx, s.store, userID)
	if err != nil {
		return Validation{}, err
	}

	return validate(balance, snap, amount), nil
}

func validate(balance *models.UserBalance, snap settings.Snapshot, amount int64) Validation {
	v := Validation{AvailableBalance: balance.AvailableBalance, Minimum: snap.WithdrawalMinimum}

	switch {
	case amount < snap.WithdrawalMinimum:
		v.Reason = "below withdrawal minimum"
	case amount > balance.AvailableBalance:
		v.Reason = "insufficient balance"
	default:
		v.Valid = true
	}

	return v
}

// CreateWithdrawalRequest files a pending withdrawal. The balance is only
// debited on approval.
func (s *Service) CreateWithdrawalRequest(ctx context.Context, snap settings.Snapshot, userID string, amount int64, description string) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, types.NewValidationError("amount", "must be positive")
	}

	var transaction *models.Transaction
	err := s.store.Atomic(ctx, func(tx store.Store) error {
		if _, err := tx.GetUser(ctx, userID); err != nil {
			return err
		}

		balance, err := balances.Load(ctx, tx, userID)
		if err != nil {
			return err
		}
		if v := validate(balance, snap, amount); !v.Valid {
			return &types.InsufficientFundsError{UserID: userID, Requested: amount, Available: v.AvailableBalance, Minimum: v.Minimum}
		}

		tax := CalculateWithdrawalTax(snap, amount)
		transaction = &models.Transaction{
			UserID:      userID,
			Type:        types.TransactionWithdrawal,
			Amount:      amount,
			Tax:         tax,
			NetAmount:   amount - tax,
			Status:      types.TransactionPending,
			Description: description,
		}

		return tx.CreateTransaction(ctx, transaction)
	})
	if err != nil {
		monitoring.WithdrawalsTotal.WithLabelValues("refused").Inc()
		return nil, err
	}

	monitoring.WithdrawalsTotal.WithLabelValues(string(types.TransactionPending)).Inc()
	s.logger.WithFields(logrus.Fields{
		"transaction_id": transaction.ID,
		"user_id":        userID,
		"amount":         amount,
		"tax":            transaction.Tax,
	}).Info("Withdrawal requested")
	audit.Notify(ctx, s.hook, s.logger, audit.Entry{
		ActorID:    userID,
		Action:     "withdrawal.request",
		TargetType: "transaction",
		TargetID:   transaction.ID,
		Amount:     amount,
		After:      transaction,
	})

	return transaction, nil
}

type TransactionInput struct {
	UserID      string
	Type        types.TransactionType
	Amount      int64
	Description string
	Notes       string
}

func (in TransactionInput) Validate() error {
	if in.UserID == "" {
		return types.NewValidationError("user_id", "is required")
	}
	if !types.IsTransactionType(in.Type) {
		return types.NewValidationError("type", "unknown transaction type "+in.Type)
	}
	if in.Amount <= 0 {
		return types.NewValidationError("amount", "must be positive")
	}

	return nil
}

// CreateTransaction books an approved company income or expense.
func (s *Service) CreateTransaction(ctx context.Context, actorID string, in TransactionInput) (*models.Transaction, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.Type == types.TransactionWithdrawal {
		return nil, types.NewValidationError("type", "withdrawals go through the withdrawal request")
	}

	transaction := &models.Transaction{
		UserID:      in.UserID,
		Type:        in.Type,
		Amount:      in.Amount,
		NetAmount:   in.Amount,
		Status:      types.TransactionApproved,
		Description: in.Description,
		Notes:       in.Notes,
		ApprovedBy:  null.StringFrom(actorID),
		ApprovedAt:  null.TimeFrom(time.Now()),
	}
	if err := s.store.CreateTransaction(ctx, transaction); err != nil {
		return nil, err
	}

	s.notify(ctx, actorID, "transaction.create", nil, transaction)
	return transaction, nil
}

// CreateCashFlowTransaction queues a transaction for approval.
func (s *Service) CreateCashFlowTransaction(ctx context.Context, snap settings.Snapshot, actorID string, in TransactionInput) (*models.Transaction, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.Type == types.TransactionWithdrawal {
		return s.CreateWithdrawalRequest(ctx, snap, in.UserID, in.Amount, in.Description)
	}

	transaction := &models.Transaction{
		UserID:      in.UserID,
		Type:        in.Type,
		Amount:      in.Amount,
		NetAmount:   in.Amount,
		Status:      types.TransactionPending,
		Description: in.Description,
		Notes:       in.Notes,
	}
	if err := s.store.CreateTransaction(ctx, transaction); err != nil {
		return nil, err
	}

	s.notify(ctx, actorID, "transaction.create", nil, transaction)
	return transaction, nil
}

// ApproveCashFlowTransaction approves a pending transaction. Withdrawals debit
// the gross amount and fail if the balance no longer covers it. A withdrawal
// moves money already credited, so it leaves TotalPayout and maxout untouched.
func (s *Service) ApproveCashFlowTransaction(ctx context.Context, id, approvedBy string) (*models.Transaction, error) {
	pending, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}

	keys := []string{locker.TransactionKey(id)}
	if pending.IsWithdrawal() {
		keys = append(keys, locker.BalanceKey(pending.UserID))
	}
	unlock, err := locker.LockAll(ctx, s.locker, keys...)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var transaction *models.Transaction
	err = s.store.Atomic(ctx, func(tx store.Store) error {
		transaction, err = tx.GetTransaction(ctx, id)
		if err != nil {
			return err
		}
		if err := types.TransactionTransitions.Validate("transaction", id, transaction.Status, types.TransactionApproved); err != nil {
			return err
		}

		if transaction.IsWithdrawal() {
			if _, err := s.balances.Debit(ctx, tx, transaction.UserID, transaction.Amount, "Withdrawal "+transaction.ID); err != nil {
				return err
			}
		}

		transaction.Status = types.TransactionApproved
		transaction.ApprovedBy = null.StringFrom(approvedBy)
		transaction.ApprovedAt = null.TimeFrom(time.Now())

		return tx.UpdateTransaction(ctx, transaction)
	})
	if err != nil {
		return nil, err
	}

	if transaction.IsWithdrawal() {
		monitoring.WithdrawalsTotal.WithLabelValues(string(types.TransactionApproved)).Inc()
	}
	s.logger.WithFields(logrus.Fields{"transaction_id": id, "type": transaction.Type}).Info("Transaction approved")
	s.notify(ctx, approvedBy, "transaction.approve", pending, transaction)

	return transaction, nil
}

func (s *Service) RejectCashFlowTransaction(ctx context.Context, id, approvedBy, reason string) (*models.Transaction, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, types.NewValidationError("reason", "is required")
	}

	unlock, err := s.locker.Lock(ctx, locker.TransactionKey(id))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var transaction *models.Transaction
	err = s.store.Atomic(ctx, func(tx store.Store) error {
		transaction, err = tx.GetTransaction(ctx, id)
		if err != nil {
			return err
		}
		if err := types.TransactionTransitions.Validate("transaction", id, transaction.Status, types.TransactionRejected); err != nil {
			return err
		}

		transaction.Status = types.TransactionRejected
		transaction.ApprovedBy = null.StringFrom(approvedBy)
		transaction.ApprovedAt = null.TimeFrom(time.Now())
		transaction.Notes = reason

		return tx.UpdateTransaction(ctx, transaction)
	})
	if err != nil {
		return nil, err
	}

	if transaction.IsWithdrawal() {
		monitoring.WithdrawalsTotal.WithLabelValues(string(types.TransactionRejected)).Inc()
	}
	s.logger.WithFields(logrus.Fields{"transaction_id": id, "reason": reason}).Info("Transaction rejected")
	s.notify(ctx, approvedBy, "transaction.reject", nil, transaction)

	return transaction, nil
}

func (s *Service) notify(ctx context.Context, actorID, action string, before, after *models.Transaction) {
	entry := audit.Entry{
		ActorID:    actorID,
		Action:     action,
		TargetType: "transaction",
		TargetID:   after.ID,
		Amount:     after.Amount,
		After:      after,
	}
	if before != nil {
		entry.Before = before
	}

	audit.Notify(ctx, s.hook, s.logger, entry)
}

func (s *Service) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	return s.store.GetTransaction(ctx, id)
}

func (s *Service) GetPendingTransactions(ctx context.Context) ([]*models.Transaction, error) {
	return s.store.ListTransactions(ctx, store.TransactionFilter{Status: types.TransactionPending})
}

// GetCashFlowTransactions lists transactions of userID, or all when empty.
func (s *Service) GetCashFlowTransactions(ctx context.Context, userID string) ([]*models.Transaction, error) {
	return s.store.ListTransactions(ctx, store.TransactionFilter{UserID: userID})
}

func (s *Service) GetCashFlowTransactionsByType(ctx context.Context, kind types.TransactionType) ([]*models.Transaction, error) {
	if !types.IsTransactionType(kind) {
		return nil, types.NewValidationError("type", "unknown transaction type "+kind)
	}

	return s.store.ListTransactions(ctx, store.TransactionFilter{Type: kind})
}
