// Package maxout enforces per-tier ceilings on cumulative payouts.
package maxout

import (
	"context"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/phuanduong/ledger/services/balances"
	"github.com/phuanduong/ledger/services/settings"
	"github.com/phuanduong/ledger/services/tiers"
	"github.com/phuanduong/ledger/store"
)

// Status describes a user's standing against their payout ceiling.
// Current counts paid payouts plus allocated distributions not yet paid.
type Status struct {
	Reached   bool  `json:"reached"`
	Limit     int64 `json:"limit"`
	Current   int64 `json:"current"`
	Unlimited bool  `json:"unlimited"`
}

// Room is the payout still allowed; math.MaxInt64 when unlimited.
func (s Status) Room() int64 {
	if s.Unlimited {
		return math.MaxInt64
	}
	if s.Current >= s.Limit {
		return 0
	}

	return s.Limit - s.Current
}

// Clamp cuts amount down to the remaining room. Partial payment up to the
// ceiling is allowed; nothing past it.
func (s Status) Clamp(amount int64) int64 {
	if amount <= 0 {
		return 0
	}
	if room := s.Room(); amount > room {
		return room
	}

	return amount
}

type Service struct {
	store  store.Store
	logger *logrus.Entry
}

func NewService(s store.Store, logger *logrus.Entry) *Service {
	return &Service{store: s, logger: logger}
}

// CheckMaxoutLimit reads through tx so it sees uncommitted allocations of the
// surrounding workflow.
func (s *Service) CheckMaxoutLimit(ctx context.Context, tx store.Store, snap settings.Snapshot, userID string) (Status, error) {
	user, err := tx.GetUser(ctx, userID)
	if err != nil {
		return Status{}, err
	}

	balance, err := balances.Load(ctx, tx, userID)
	if err != nil {
		return Status{}, err
	}

	limit, limited := tiers.PolicyFor(user.BusinessTier, snap).Limit(user)
	if !limited {
		return Status{Unlimited: true, Current: balance.TotalPayout}, nil
	}

	unpaid, err := tx.ListUnpaidDistributionsByShareholder(ctx, userID)
	if err != nil {
		return Status{}, err
	}

	current := balance.TotalPayout
	for _, d := range unpaid {
		current += d.CappedAmount
	}

	return Status{
		Reached: current >= limit,
		Limit:   limit,
		Current: current,
	}, nil
}

// Refresh recomputes the status and stores the MaxoutReached flag.
func (s *Service) Refresh(ctx context.Context, tx store.Store, snap settings.Snapshot, userID string) (Status, error) {
	status, err := s.CheckMaxoutLimit(ctx, tx, snap, userID)
	if err != nil {
		return status, err
	}

	balance, err := balances.Load(ctx, tx, userID)
	if err != nil {
		return status, err
	}
	if balance.MaxoutReached == status.Reached {
		return status, nil
	}

	balance.MaxoutReached = status.Reached
	if err := tx.SaveUserBalance(ctx, balance); err != nil {
		return status, err
	}
	if status.Reached {
		s.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"limit":   status.Limit,
			"current": status.Current,
		}).Warn("User reached payout maxout")
	}

	return status, nil
}

// GetMaxoutStatus is the read-only form for callers outside a workflow.
func (s *Service) GetMaxoutStatus(ctx context.Context, snap settings.Snapshot, userID string) (Status, error) {
	return s.CheckMaxoutLimit(ctx, s.store, snap, userID)
}
