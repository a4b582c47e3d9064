// Package profit computes quarterly profit, allocates the distributable part
// across shareholders and pays the allocations out.
package profit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/volatiletech/null"

	"github.com/phuanduong/ledger/locker"
	"github.com/phuanduong/ledger/models"
	"github.com/phuanduong/ledger/models/concerns"
	"github.com/phuanduong/ledger/services/audit"
	"github.com/phuanduong/ledger/services/balances"
	"github.com/phuanduong/ledger/services/maxout"
	"github.com/phuanduong/ledger/services/settings"
	"github.com/phuanduong/ledger/store"
	"github.com/phuanduong/ledger/types"
)

type Summary struct {
	Period   types.Period `json:"period"`
	Revenue  int64        `json:"revenue"`
	Expenses int64        `json:"expenses"`
	Profit   int64        `json:"profit"`
}

type Outcome struct {
	Sharing       *models.ProfitSharing        `json:"profit_sharing"`
	Distributions []*models.ProfitDistribution `json:"distributions"`
}

type PaymentResult struct {
	Paid      int   `json:"paid"`
	Skipped   int   `json:"skipped"`
	TotalPaid int64 `json:"total_paid"`
}

type Service struct {
	store    store.Store
	locker   locker.Locker
	balances *balances.Service
	maxout   *maxout.Service
	hook     audit.Hook
	logger   *logrus.Entry
}

func NewService(s store.Store, l locker.Locker, b *balances.Service, m *maxout.Service, hook audit.Hook, logger *logrus.Entry) *Service {
	return &Service{store: s, locker: l, balances: b, maxout: m, hook: hook, logger: logger}
}

// CalculateQuarterlyProfit sums approved income and expense transactions
// created inside period.
func (s *Service) CalculateQuarterlyProfit(ctx context.Context, period types.Period) (Summary, error) {
	return calculate(ctx, s.store, period)
}

func calculate(ctx context.Context, tx store.Store, period types.Period) (Summary, error) {
	summary := Summary{Period: period}

	start, end, err := period.Bounds()
	if err != nil {
		return summary, err
	}

	rows, err := tx.ListTransactions(ctx, store.TransactionFilter{
		Status: types.TransactionApproved,
		From:   start,
		To:     end,
	})
	if err != nil {
		return summary, err
	}

	for _, row := range rows {
		switch row.Type {
		case types.TransactionIncome:
			summary.Revenue += row.Amount
		case types.TransactionExpense:
			summary.Expenses += row.Amount
		}
	}
	summary.Profit = summary.Revenue - summary.Expenses

	return summary, nil
}

func (s *Service) ProcessQuarterlyProfitSharing(ctx context.Context, snap settings.Snapshot, period types.Period, actorID string) (*Outcome, error) {
	return s.ProcessQuarterlyProfitSharingWithMaxout(ctx, snap, period, actorID, true)
}

// ProcessQuarterlyProfitSharingWithMaxout allocates the period's distributable
// profit pro rata to shares. A period can be processed once; the allocation
// commits as a whole. Residual VND left by flooring stays undistributed.
func (s *Service) ProcessQuarterlyProfitSharingWithMaxout(ctx context.Context, snap settings.Snapshot, period types.Period, actorID string, respectMaxout bool) (*Outcome, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, locker.PeriodKey("profit", period.Kind, period.Value))
	if err != nil {
		return nil, err
	}
	defer unlock()

	outcome := &Outcome{}
	err = s.store.Atomic(ctx, func(tx store.Store) error {
		existing, err := tx.GetProfitSharingByPeriod(ctx, period)
		if err == nil {
			return &types.StateError{Entity: "profit_sharing", ID: period.String(), From: string(existing.Status)}
		}
		if !errors.Is(err, types.ErrNotFound) {
			return err
		}

		summary, err := calculate(ctx, tx, period)
		if err != nil {
			return err
		}

		positive := summary.Profit
		if positive < 0 {
			positive = 0
		}

		holders, err := tx.ListShareholders(ctx)
		if err != nil {
			return err
		}

		var totalShares int64
		for _, holder := range holders {
			totalShares += holder.TotalShares
		}

		sharing := &models.ProfitSharing{
			Period:              period.Kind,
			PeriodValue:         period.Value,
			Revenue:             summary.Revenue,
			Expenses:            summary.Expenses,
			Profit:              summary.Profit,
			ProfitShareRate:     snap.ProfitShareRate,
			DistributableAmount: concerns.PercentOf(positive, snap.ProfitShareRate),
			CorporateTax:        concerns.PercentOf(positive, snap.CorporateTaxRate),
			TotalShares:         totalShares,
			RespectMaxout:       respectMaxout,
			Status:              types.SharingCalculated,
		}
		if err := tx.CreateProfitSharing(ctx, sharing); err != nil {
			return err
		}
		outcome.Sharing = sharing

		for _, holder := range holders {
			raw := concerns.MulDiv(sharing.DistributableAmount, holder.TotalShares, totalShares)
			capped := raw
			if respectMaxout {
				status, err := s.maxout.CheckMaxoutLimit(ctx, tx, snap, holder.UserID)
				if err != nil {
					return fmt.Errorf("maxout of %s: %w", holder.UserID, err)
				}
				capped = status.Clamp(raw)
			}
			if capped < raw {
				s.logger.WithFields(logrus.Fields{
					"user_id": holder.UserID,
					"raw":     raw,
					"capped":  capped,
				}).Warn("Profit share clamped by maxout")
			}

			distribution := &models.ProfitDistribution{
				ProfitSharingID: sharing.ID,
				ShareholderID:   holder.UserID,
				ShareCount:      holder.TotalShares,
				RawEntitlement:  raw,
				CappedAmount:    capped,
			}
			if err := tx.CreateProfitDistribution(ctx, distribution); err != nil {
				return err
			}
			outcome.Distributions = append(outcome.Distributions, distribution)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"period":        period.String(),
		"profit":        outcome.Sharing.Profit,
		"distributable": outcome.Sharing.DistributableAmount,
		"shareholders":  len(outcome.Distributions),
	}).Info("Profit sharing calculated")
	audit.Notify(ctx, s.hook, s.logger, audit.Entry{
		ActorID:    actorID,
		Action:     "profit.process",
		TargetType: "profit_sharing",
		TargetID:   outcome.Sharing.ID,
		Amount:     outcome.Sharing.DistributableAmount,
		After:      outcome.Sharing,
	})

	return outcome, nil
}

// MarkDistributionPaid credits one allocation to the shareholder.
func (s *Service) MarkDistributionPaid(ctx context.Context, snap settings.Snapshot, distributionID, actorID string) (*models.ProfitDistribution, error) {
	distribution, err := s.store.GetProfitDistribution(ctx, distributionID)
	if err != nil {
		return nil, err
	}
	if distribution.Paid {
		return nil, &types.StateError{Entity: "profit_distribution", ID: distributionID, From: "paid"}
	}

	paid, ok, err := s.payOne(ctx, snap, distributionID, distribution.ShareholderID, actorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &types.StateError{Entity: "profit_distribution", ID: distributionID, From: "paid"}
	}

	return paid, nil
}

// ProcessAllDistributionPayments pays every unpaid allocation of a sharing.
// Each payment commits on its own; rows paid by an earlier run are skipped.
func (s *Service) ProcessAllDistributionPayments(ctx context.Context, snap settings.Snapshot, sharingID, actorID string) (PaymentResult, error) {
	var result PaymentResult

	if _, err := s.store.GetProfitSharing(ctx, sharingID); err != nil {
		return result, err
	}

	unlock, err := s.locker.Lock(ctx, locker.DistributionKey(sharingID))
	if err != nil {
		return result, err
	}
	defer unlock()

	rows, err := s.store.ListProfitDistributionsBySharing(ctx, sharingID)
	if err != nil {
		return result, err
	}

	for _, row := range rows {
		if row.Paid {
			result.Skipped++
			continue
		}

		paid, ok, err := s.payOne(ctx, snap, row.ID, row.ShareholderID, actorID)
		if err != nil {
			return result, fmt.Errorf("pay distribution %s: %w", row.ID, err)
		}
		if !ok {
			result.Skipped++
			continue
		}

		result.Paid++
		result.TotalPaid += paid.CappedAmount
	}

	s.logger.WithFields(logrus.Fields{
		"profit_sharing_id": sharingID,
		"paid":              result.Paid,
		"total_paid":        result.TotalPaid,
	}).Info("Profit distributions paid")

	return result, nil
}

func (s *Service) payOne(ctx context.Context, snap settings.Snapshot, id, shareholderID, actorID string) (*models.ProfitDistribution, bool, error) {
	unlock, err := s.locker.Lock(ctx, locker.BalanceKey(shareholderID))
	if err != nil {
		return nil, false, err
	}
	defer unlock()

	var (
		distribution *models.ProfitDistribution
		paid         bool
	)
	err = s.store.Atomic(ctx, func(tx store.Store) error {
		distribution, err = tx.GetProfitDistribution(ctx, id)
		if err != nil {
			return err
		}
		if distribution.Paid {
			return nil
		}

		sharing, err := tx.GetProfitSharing(ctx, distribution.ProfitSharingID)
		if err != nil {
			return err
		}

		amount := distribution.CappedAmount
		if sharing.RespectMaxout {
			status, err := s.maxout.CheckMaxoutLimit(ctx, tx, snap, shareholderID)
			if err != nil {
				return err
			}
			// this row is already part of status.Current
			if !status.Unlimited {
				status.Current -= distribution.CappedAmount
			}
			amount = status.Clamp(amount)
		}
		if amount < distribution.CappedAmount {
			s.logger.WithFields(logrus.Fields{
				"distribution_id": id,
				"allocated":       distribution.CappedAmount,
				"paid":            amount,
			}).Warn("Distribution payment clamped by maxout")
			distribution.CappedAmount = amount
		}

		description := fmt.Sprintf("Profit sharing %s:%s", sharing.Period, sharing.PeriodValue)
		if _, err := s.balances.RecordPayout(ctx, tx, shareholderID, amount, "profit", description); err != nil {
			return err
		}

		distribution.Paid = true
		distribution.PaidAt = null.TimeFrom(time.Now())
		if err := tx.UpdateProfitDistribution(ctx, distribution); err != nil {
			return err
		}

		if _, err := s.maxout.Refresh(ctx, tx, snap, shareholderID); err != nil {
			return err
		}

		paid = true
		return s.settleSharing(ctx, tx, sharing)
	})
	if err != nil || !paid {
		return nil, false, err
	}

	audit.Notify(ctx, s.hook, s.logger, audit.Entry{
		ActorID:    actorID,
		Action:     "distribution.pay",
		TargetType: "profit_distribution",
		TargetID:   id,
		Amount:     distribution.CappedAmount,
		After:      distribution,
	})

	return distribution, true, nil
}

// settleSharing moves the sharing to distributed once every row is paid.
func (s *Service) settleSharing(ctx context.Context, tx store.Store, sharing *models.ProfitSharing) error {
	if sharing.Status == types.SharingDistributed {
		return nil
	}

	rows, err := tx.ListProfitDistributionsBySharing(ctx, sharing.ID)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if !row.Paid {
			return nil
		}
	}

	if err := types.SharingTransitions.Validate("profit_sharing", sharing.ID, sharing.Status, types.SharingDistributed); err != nil {
		return err
	}
	sharing.Status = types.SharingDistributed

	return tx.UpdateProfitSharing(ctx, sharing)
}

func (s *Service) GetProfitSharings(ctx context.Context) ([]*models.ProfitSharing, error) {
	return s.store.ListProfitSharings(ctx)
}

func (s *Service) GetProfitSharing(ctx context.Context, id string) (*models.ProfitSharing, error) {
	return s.store.GetProfitSharing(ctx, id)
}

func (s *Service) GetProfitSharingByPeriod(ctx context.Context, period types.Period) (*models.ProfitSharing, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}

	return s.store.GetProfitSharingByPeriod(ctx, period)
}

func (s *Service) GetProfitDistributionsBySharing(ctx context.Context, sharingID string) ([]*models.ProfitDistribution, error) {
	return s.store.ListProfitDistributionsBySharing(ctx, sharingID)
}
