// Package deposits runs the deposit request approval workflow.
package deposits

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/volatiletech/null"

	"github.com/phuanduong/ledger/locker"
	"github.com/phuanduong/ledger/models"
	"github.com/phuanduong/ledger/services/audit"
	"github.com/phuanduong/ledger/services/balances"
	"github.com/phuanduong/ledger/services/tiers"
	"github.com/phuanduong/ledger/store"
	"github.com/phuanduong/ledger/types"
)

type Service struct {
	store    store.Store
	locker   locker.Locker
	balances *balances.Service
	tiers    *tiers.Service
	hook     audit.Hook
	logger   *logrus.Entry
}

func NewService(s store.Store, l locker.Locker, b *balances.Service, t *tiers.Service, hook audit.Hook, logger *logrus.Entry) *Service {
	return &Service{store: s, locker: l, balances: b, tiers: t, hook: hook, logger: logger}
}

type CreateInput struct {
	UserID       string
	Amount       int64
	BusinessTier types.TierName
	Notes        string
}

func (in CreateInput) Validate() error {
	if in.UserID == "" {
		return types.NewValidationError("user_id", "is required")
	}
	if in.Amount <= 0 {
		return types.NewValidationError("amount", "must be positive")
	}
	if !tiers.Investable(in.BusinessTier) {
		return types.NewValidationError("business_tier", "not reachable by deposit: "+in.BusinessTier)
	}

	return nil
}

func (s *Service) CreateDepositRequest(ctx context.Context, in CreateInput) (*models.DepositRequest, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	req := &models.DepositRequest{
		UserID:       in.UserID,
		Amount:       in.Amount,
		BusinessTier: in.BusinessTier,
		Status:       types.DepositPending,
		Notes:        in.Notes,
	}

	err := s.store.Atomic(ctx, func(tx store.Store) error {
		if _, err := tx.GetUser(ctx, in.UserID); err != nil {
			return err
		}

		return tx.CreateDepositRequest(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"deposit_id": req.ID,
		"user_id":    req.UserID,
		"amount":     req.Amount,
	}).Info("Deposit request created")

	return req, nil
}

// ApproveDepositRequest credits the deposit, moves the user to the tier derived
// from their cumulative investment and issues the matching shares, all in one
// commit. The requested tier is informational only.
func (s *Service) ApproveDepositRequest(ctx context.Context, id, approvedBy string) (*models.DepositRequest, error) {
	pending, err := s.store.GetDepositRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	unlock, err := locker.LockAll(ctx, s.locker, locker.DepositKey(id), locker.BalanceKey(pending.UserID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var (
		req    *models.DepositRequest
		tier   types.TierName
		issued int64
	)
	err = s.store.Atomic(ctx, func(tx store.Store) error {
		req, err = tx.GetDepositRequest(ctx, id)
		if err != nil {
			return err
		}
		if err := types.DepositTransitions.Validate("deposit_request", id, req.Status, types.DepositApproved); err != nil {
			return err
		}

		user, err := tx.GetUser(ctx, req.UserID)
		if err != nil {
			return err
		}

		calc, err := s.tiers.Calculator(ctx, tx)
		if err != nil {
			return err
		}

		cumulative := user.InvestmentAmount + req.Amount
		tier = calc.DetermineTier(cumulative)
		if tier != req.BusinessTier {
			s.logger.WithFields(logrus.Fields{
				"deposit_id": id,
				"requested":  req.BusinessTier,
				"derived":    tier,
			}).Info("Deposit tier re-derived from cumulative investment")
		}

		cfg, err := calc.Config(tier)
		if err != nil {
			return err
		}

		balance, err := s.balances.AddToUserBalance(ctx, tx, req.UserID, req.Amount, "Approved deposit request: "+tier)
		if err != nil {
			return err
		}

		if _, err := s.tiers.UpgradeUserBusinessTier(ctx, tx, req.UserID, tier, cumulative); err != nil {
			return err
		}

		issued = tiers.CalculateShares(cfg, req.Amount)
		if room, limited := tiers.ShareRoom(cfg, balance.TotalShares); limited && issued > room {
			s.logger.WithFields(logrus.Fields{
				"deposit_id": id,
				"shares":     issued,
				"room":       room,
			}).Warn("Deposit shares clamped to tier ceiling")
			issued = room
		}

		if _, err := s.balances.UpdateUserShares(ctx, tx, req.UserID, issued, types.ChangeDeposit, fmt.Sprintf("Deposit approved: %s tier", tier), req.ID); err != nil {
			return err
		}

		req.Status = types.DepositApproved
		req.ApprovedBy = null.StringFrom(approvedBy)
		req.ApprovedAt = null.TimeFrom(time.Now())

		return tx.UpdateDepositRequest(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"deposit_id": id,
		"user_id":    req.UserID,
		"tier":       tier,
		"shares":     issued,
	}).Info("Deposit request approved")
	audit.Notify(ctx, s.hook, s.logger, audit.Entry{
		ActorID:    approvedBy,
		Action:     "deposit.approve",
		TargetType: "deposit_request",
		TargetID:   id,
		Amount:     req.Amount,
		Before:     pending,
		After:      req,
	})

	return req, nil
}

func (s *Service) RejectDepositRequest(ctx context.Context, id, approvedBy, reason string) (*models.DepositRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, types.NewValidationError("reason", "is required")
	}

	unlock, err := s.locker.Lock(ctx, locker.DepositKey(id))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var req *models.DepositRequest
	err = s.store.Atomic(ctx, func(tx store.Store) error {
		req, err = tx.GetDepositRequest(ctx, id)
		if err != nil {
			return err
		}
		if err := types.DepositTransitions.Validate("deposit_request", id, req.Status, types.DepositRejected); err != nil {
			return err
		}

		req.Status = types.DepositRejected
		req.ApprovedBy = null.StringFrom(approvedBy)
		req.ApprovedAt = null.TimeFrom(time.Now())
		req.Notes = reason

		return tx.UpdateDepositRequest(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"deposit_id": id, "reason": reason}).Info("Deposit request rejected")
	audit.Notify(ctx, s.hook, s.logger, audit.Entry{
		ActorID:    approvedBy,
		Action:     "deposit.reject",
		TargetType: "deposit_request",
		TargetID:   id,
		Amount:     req.Amount,
		After:      req,
	})

	return req, nil
}

func (s *Service) GetDepositRequest(ctx context.Context, id string) (*models.DepositRequest, error) {
	return s.store.GetDepositRequest(ctx, id)
}

func (s *Service) GetDepositRequests(ctx context.Context) ([]*models.DepositRequest, error) {
	return s.store.ListDepositRequests(ctx, "")
}

func (s *Service) GetUserDepositRequests(ctx context.Context, userID string) ([]*models.DepositRequest, error) {
	return s.store.ListDepositRequests(ctx, userID)
}
