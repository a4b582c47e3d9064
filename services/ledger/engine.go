// Package ledger wires the engine services around one store, locker, audit
// hook and logger. Operations that depend on business settings take a fresh
// snapshot per call.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/phuanduong/ledger/locker"
	"github.com/phuanduong/ledger/models"
	"github.com/phuanduong/ledger/services/audit"
	"github.com/phuanduong/ledger/services/balances"
	"github.com/phuanduong/ledger/services/cards"
	"github.com/phuanduong/ledger/services/deposits"
	"github.com/phuanduong/ledger/services/kpi"
	"github.com/phuanduong/ledger/services/maxout"
	"github.com/phuanduong/ledger/services/profit"
	"github.com/phuanduong/ledger/services/referrals"
	"github.com/phuanduong/ledger/services/reports"
	"github.com/phuanduong/ledger/services/settings"
	"github.com/phuanduong/ledger/services/tiers"
	"github.com/phuanduong/ledger/services/users"
	"github.com/phuanduong/ledger/services/withdrawals"
	"github.com/phuanduong/ledger/store"
	"github.com/phuanduong/ledger/types"
)

type Engine struct {
	Store  store.Store
	Locker locker.Locker
	Logger *logrus.Entry

	Settings    *settings.Service
	Audit       *audit.Service
	Tiers       *tiers.Service
	Balances    *balances.Service
	Maxout      *maxout.Service
	Deposits    *deposits.Service
	Kpi         *kpi.Service
	Profit      *profit.Service
	Referrals   *referrals.Service
	Withdrawals *withdrawals.Service
	Cards       *cards.Service
	Users       *users.Service
	Reports     *reports.Service
}

func New(s store.Store, l locker.Locker, hook audit.Hook, logger *logrus.Entry) *Engine {
	b := balances.NewService(s, logger.WithField("component", "balances"))
	m := maxout.NewService(s, logger.WithField("component", "maxout"))
	t := tiers.NewService(s, hook, logger.WithField("component", "tiers"))
	p := profit.NewService(s, l, b, m, hook, logger.WithField("component", "profit"))

	return &Engine{
		Store:       s,
		Locker:      l,
		Logger:      logger,
		Settings:    settings.NewService(s, hook, logger.WithField("component", "settings")),
		Audit:       audit.NewService(s),
		Tiers:       t,
		Balances:    b,
		Maxout:      m,
		Deposits:    deposits.NewService(s, l, b, t, hook, logger.WithField("component", "deposits")),
		Kpi:         kpi.NewService(s, l, b, hook, logger.WithField("component", "kpi")),
		Profit:      p,
		Referrals:   referrals.NewService(s, l, b, hook, logger.WithField("component", "referrals")),
		Withdrawals: withdrawals.NewService(s, l, b, hook, logger.WithField("component", "withdrawals")),
		Cards:       cards.NewService(s, l, m, hook, logger.WithField("component", "cards")),
		Users:       users.NewService(s, hook, logger.WithField("component", "users")),
		Reports:     reports.NewService(s, p, m, logger.WithField("component", "reports")),
	}
}

func (e *Engine) Snapshot(ctx context.Context) (settings.Snapshot, error) {
	return e.Settings.Load(ctx)
}

func (e *Engine) CheckMaxoutLimit(ctx context.Context, userID string) (maxout.Status, error) {
	snap, err := e.Snapshot(ctx)
	if err != nil {
		return maxout.Status{}, err
	}

	return e.Maxout.GetMaxoutStatus(ctx, snap, userID)
}

func (e *Engine) RecordStaffKpi(ctx context.Context, actorID string, in kpi.RecordInput) (*models.StaffKpi, error) {
	snap, err := e.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	return e.Kpi.RecordStaffKpi(ctx, snap, actorID, in)
}

func (e *Engine) CalculateStaffKpiPoints(ctx context.Context, staffID string, period types.Period) (kpi.Score, error) {
	snap, err := e.Snapshot(ctx)
	if err != nil {
		return kpi.Score{}, err
	}

	return e.Kpi.CalculateStaffKpiPoints(ctx, snap, staffID, period)
}

func (e *Engine) ProcessQuarterlyShares(ctx context.Context, period types.Period) (kpi.Result, error) {
	snap, err := e.Snapshot(ctx)
	if err != nil {
		return kpi.Result{}, err
	}

	return e.Kpi.ProcessQuarterlyShares(ctx, snap, period)
}

func (e *Engine) ProcessQuarterlyProfitSharing(ctx context.Context, period types.Period, actorID string, respectMaxout bool) (*profit.Outcome, error) {
	snap, err := e.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	return e.Profit.ProcessQuarterlyProfitSharingWithMaxout(ctx, snap, period, actorID, respectMaxout)
}

func (e *Engine) MarkDistributionPaid(ctx context.Context, distributionID, actorID string) (*models.ProfitDistribution, error) {
	snap, err := e.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	return e.Profit.MarkDistributionPaid(ctx, snap, distributionID, actorID)
}

func (e *Engine) ProcessAllDistributionPayments(ctx context.Context, sharingID, actorID string) (profit.PaymentResult, error) {
	snap, err := e.Snapshot(ctx)
	if err != nil {
		return profit.PaymentResult{}, err
	}

	return e.Profit.ProcessAllDistributionPayments(ctx, snap, sharingID, actorID)
}

func (e *Engine) CreateReferral(ctx context.Context, actorID string, in referrals.CreateInput) (*models.Referral, error) {
	snap, err := e.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	return e.Referrals.CreateReferral(ctx, snap, actorID, in)
}

func (e *Engine) ValidateWithdrawalBalance(ctx context.Context, userID string, amount int64) (withdrawals.Validation, error) {
	snap, err := e.Snapshot(ctx)
	if err != nil {
		return withdrawals.Validation{}, err
	}

	return e.Withdrawals.ValidateWithdrawalBalance(ctx, snap, userID, amount)
}

func (e *Engine) CalculateWithdrawalTax(ctx context.Context, amount int64) (int64, error) {
	snap, err := e.Snapshot(ctx)
	if err != nil {
		return 0, err
	}

	return withdrawals.CalculateWithdrawalTax(snap, amount), nil
}

func (e *Engine) CreateWithdrawalRequest(ctx context.Context, userID string, amount int64, description string) (*models.Transaction, error) {
	snap, err := e.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	return e.Withdrawals.CreateWithdrawalRequest(ctx, snap, userID, amount, description)
}

func (e *Engine) CreateCashFlowTransaction(ctx context.Context, actorID string, in withdrawals.TransactionInput) (*models.Transaction, error) {
	snap, err := e.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	return e.Withdrawals.CreateCashFlowTransaction(ctx, snap, actorID, in)
}

func (e *Engine) ApproveCashFlowTransaction(ctx context.Context, id, approvedBy string) (*models.Transaction, error) {
	return e.Withdrawals.ApproveCashFlowTransaction(ctx, id, approvedBy)
}

type QuarterResult struct {
	Period  types.Period    `json:"period"`
	Kpi     kpi.Result      `json:"kpi"`
	Sharing *profit.Outcome `json:"profit_sharing,omitempty"`
	// AlreadyDistributed is set when the profit of the period was processed
	// by an earlier run.
	AlreadyDistributed bool `json:"already_distributed"`
}

// ProcessQuarter awards KPI shares first, so they take part in the profit
// allocation, then allocates the profit. Safe to re-run for the same period.
func (e *Engine) ProcessQuarter(ctx context.Context, period types.Period, actorID string) (QuarterResult, error) {
	result := QuarterResult{Period: period}

	snap, err := e.Snapshot(ctx)
	if err != nil {
		return result, err
	}

	result.Kpi, err = e.Kpi.ProcessQuarterlyShares(ctx, snap, period)
	if err != nil {
		return result, err
	}

	result.Sharing, err = e.Profit.ProcessQuarterlyProfitSharing(ctx, snap, period, actorID)
	if errors.Is(err, types.ErrInvalidState) {
		result.AlreadyDistributed = true
		return result, nil
	}

	return result, err
}

func (e *Engine) CreateCard(ctx context.Context, actorID string, in cards.CreateInput) (*models.Card, error) {
	snap, err := e.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	return e.Cards.CreateCard(ctx, snap, actorID, in)
}

func (e *Engine) UpdateCard(ctx context.Context, actorID, id string, in cards.UpdateInput) (*models.Card, error) {
	snap, err := e.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	return e.Cards.UpdateCard(ctx, snap, actorID, id, in)
}

func (e *Engine) CancelCard(ctx context.Context, actorID, id string) (*models.Card, error) {
	snap, err := e.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	return e.Cards.CancelCard(ctx, snap, actorID, id)
}

func (e *Engine) AddCardSessions(ctx context.Context, actorID, id string, sessions int64) (*models.Card, error) {
	snap, err := e.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	return e.Cards.AddSessions(ctx, snap, actorID, id, sessions)
}

func (e *Engine) BusinessOverview(ctx context.Context, now time.Time) (reports.Overview, error) {
	snap, err := e.Snapshot(ctx)
	if err != nil {
		return reports.Overview{}, err
	}

	return e.Reports.BusinessOverview(ctx, snap, now)
}
