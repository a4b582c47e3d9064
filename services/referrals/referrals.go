// Package referrals tracks referral commissions from creation to payment.
package referrals

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/volatiletech/null"

	"github.com/phuanduong/ledger/locker"
	"github.com/phuanduong/ledger/models"
	"github.com/phuanduong/ledger/models/concerns"
	"github.com/phuanduong/ledger/services/audit"
	"github.com/phuanduong/ledger/services/balances"
	"github.com/phuanduong/ledger/services/settings"
	"github.com/phuanduong/ledger/store"
	"github.com/phuanduong/ledger/types"
)

const codeAttempts = 5

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

// CalculateCommission is floor(contribution * rate / 100).
func CalculateCommission(contribution int64, rate decimal.Decimal) int64 {
	return concerns.PercentOf(contribution, rate)
}

// GenerateReferralCode returns an unused code of the form REF-<staff>-<random>.
func (s *Service) GenerateReferralCode(ctx context.Context, staffID string) (string, error) {
	if _, err := s.store.GetUser(ctx, staffID); err != nil {
		return "", err
	}

	prefix := strings.ToUpper(strings.ReplaceAll(staffID, "-", ""))
	if len(prefix) > 6 {
		prefix = prefix[:6]
	}

	for i := 0; i < codeAttempts; i++ {
		suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
		code := "REF-" + prefix + "-" + suffix

		_, err := s.store.GetReferralByCode(ctx, code)
		if errors.Is(err, types.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}

	return "", fmt.Errorf("no free referral code for %s after %d attempts", staffID, codeAttempts)
}

type CreateInput struct {
	ReferrerID        string
	ReferralCode      string
	CustomerName      string
	ContributionValue int64
	// CommissionRate overrides referral_commission_rate when set.
	CommissionRate *decimal.Decimal
}

func (in CreateInput) Validate() error {
	if in.ReferrerID == "" {
		return types.NewValidationError("referrer_id", "is required")
	}
	if in.ContributionValue < 0 {
		return types.NewValidationError("contribution_value", "must not be negative")
	}
	if in.CommissionRate != nil && !concerns.IsPercentage(*in.CommissionRate) {
		return types.NewValidationError("commission_rate", "must be a percentage between 0 and 100")
	}

	return nil
}

func (s *Service) CreateReferral(ctx context.Context, snap settings.Snapshot, actorID string, in CreateInput) (*models.Referral, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	code := in.ReferralCode
	if code == "" {
		generated, err := s.GenerateReferralCode(ctx, in.ReferrerID)
		if err != nil {
			return nil, err
		}
		code = generated
	}

	rate := snap.ReferralCommissionRate
	if in.CommissionRate != nil {
		rate = *in.CommissionRate
	}

	referral := &models.Referral{
		ReferrerID:        in.ReferrerID,
		ReferralCode:      code,
		CustomerName:      in.CustomerName,
		ContributionValue: in.ContributionValue,
		CommissionRate:    rate,
		CommissionAmount:  CalculateCommission(in.ContributionValue, rate),
		Status:            types.ReferralPending,
	}

	err := s.store.Atomic(ctx, func(tx store.Store) error {
		if _, err := tx.GetUser(ctx, in.ReferrerID); err != nil {
			return err
		}

		err := tx.CreateReferral(ctx, referral)
		if errors.Is(err, store.ErrDuplicate) {
			return types.NewValidationError("referral_code", "already in use")
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"referral_id": referral.ID,
		"referrer_id": referral.ReferrerID,
		"commission":  referral.CommissionAmount,
	}).Info("Referral created")
	audit.Notify(ctx, s.hook, s.logger, audit.Entry{
		ActorID:    actorID,
		Action:     "referral.create",
		TargetType: "referral",
		TargetID:   referral.ID,
		Amount:     referral.CommissionAmount,
		After:      referral,
	})

	return referral, nil
}

// ProcessFirstTransaction binds the first qualifying transaction to the
// referral and completes it. The commission is not recomputed.
func (s *Service) ProcessFirstTransaction(ctx context.Context, code, transactionID, actorID string) (*models.Referral, error) {
	found, err := s.store.GetReferralByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, locker.ReferralKey(found.ID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var referral *models.Referral
	err = s.store.Atomic(ctx, func(tx store.Store) error {
		referral, err = tx.GetReferral(ctx, found.ID)
		if err != nil {
			return err
		}
		if err := types.ReferralTransitions.Validate("referral", referral.ID, referral.Status, types.ReferralCompleted); err != nil {
			return err
		}

		transaction, err := tx.GetTransaction(ctx, transactionID)
		if err != nil {
			return err
		}

		referral.ReferredUserID = null.StringFrom(transaction.UserID)
		referral.FirstTransactionID = null.StringFrom(transaction.ID)
		referral.Status = types.ReferralCompleted

		return tx.UpdateReferral(ctx, referral)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"referral_id": referral.ID, "transaction_id": transactionID}).Info("Referral completed")
	audit.Notify(ctx, s.hook, s.logger, audit.Entry{
		ActorID:    actorID,
		Action:     "referral.complete",
		TargetType: "referral",
		TargetID:   referral.ID,
		Before:     found,
		After:      referral,
	})

	return referral, nil
}

// MarkCommissionPaid pays amount toward the commission. A payment that would
// push the paid total past the commission is rejected as a whole.
func (s *Service) MarkCommissionPaid(ctx context.Context, id string, amount int64, actorID string) (*models.Referral, error) {
	if amount <= 0 {
		return nil, types.NewValidationError("amount", "must be positive")
	}

	found, err := s.store.GetReferral(ctx, id)
	if err != nil {
		return nil, err
	}

	unlock, err := locker.LockAll(ctx, s.locker, locker.ReferralKey(id), locker.BalanceKey(found.ReferrerID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var referral *models.Referral
	err = s.store.Atomic(ctx, func(tx store.Store) error {
		referral, err = tx.GetReferral(ctx, id)
		if err != nil {
			return err
		}
		if amount > referral.Outstanding() {
			return types.NewValidationError("amount", fmt.Sprintf("exceeds outstanding commission %d", referral.Outstanding()))
		}

		description := "Referral commission " + referral.ReferralCode
		if _, err := s.balances.RecordPayout(ctx, tx, referral.ReferrerID, amount, "commission", description); err != nil {
			return err
		}

		referral.CommissionPaid += amount
		return tx.UpdateReferral(ctx, referral)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"referral_id": id,
		"amount":      amount,
		"paid":        referral.CommissionPaid,
	}).Info("Referral commission paid")
	audit.Notify(ctx, s.hook, s.logger, audit.Entry{
		ActorID:    actorID,
		Action:     "referral.pay",
		TargetType: "referral",
		TargetID:   id,
		Amount:     amount,
		Before:     found,
		After:      referral,
	})

	return referral, nil
}

// ProcessCommissionPayments pays the outstanding commission of every referral
// of referrerID and returns the total paid.
func (s *Service) ProcessCommissionPayments(ctx context.Context, referrerID, actorID string) (int64, error) {
	referrals, err := s.store.ListReferrals(ctx, referrerID)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, r := range referrals {
		outstanding := r.Outstanding()
		if outstanding == 0 {
			continue
		}

		_, err := s.MarkCommissionPaid(ctx, r.ID, outstanding, actorID)
		if errors.Is(err, types.ErrValidation) {
			// paid concurrently since the listing
			continue
		}
		if err != nil {
			return total, err
		}
		total += outstanding
	}

	return total, nil
}

// CalculateReferralCommission returns the commission still owed.
func (s *Service) CalculateReferralCommission(ctx context.Context, id string) (int64, error) {
	referral, err := s.store.GetReferral(ctx, id)
	if err != nil {
		return 0, err
	}

	return referral.Outstanding(), nil
}

func (s *Service) GetReferral(ctx context.Context, id string) (*models.Referral, error) {
	return s.store.GetReferral(ctx, id)
}

func (s *Service) GetReferralByCode(ctx context.Context, code string) (*models.Referral, error) {
	return s.store.GetReferralByCode(ctx, code)
}

func (s *Service) GetReferralsByReferrer(ctx context.Context, referrerID string) ([]*models.Referral, error) {
	return s.store.ListReferrals(ctx, referrerID)
}
