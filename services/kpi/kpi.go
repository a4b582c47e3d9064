// Package kpi turns quarterly staff performance into share awards.
package kpi

import (
	"context"
	"errors"
	"fmt"
	"time"

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

var pointsPerCardSale = decimal.NewFromInt(types.KpiPointsPerCardSale)

// Points is cardSales*5 + retention.
func Points(cardSales int64, retention decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(cardSales).Mul(pointsPerCardSale).Add(retention)
}

// Slots is floor(points / threshold).
func Slots(points decimal.Decimal, threshold int64) int64 {
	return concerns.FloorDiv(points, decimal.NewFromInt(threshold))
}

func Shares(slots, sharesPerSlot int64) int64 {
	if slots <= 0 || sharesPerSlot <= 0 {
		return 0
	}

	return slots * sharesPerSlot
}

type Score struct {
	Points decimal.Decimal `json:"points"`
	Slots  int64           `json:"slots"`
	Shares int64           `json:"shares"`
}

func Evaluate(cardSales int64, retention decimal.Decimal, snap settings.Snapshot) Score {
	points := Points(cardSales, retention)
	slots := Slots(points, snap.KpiThresholdPoints)

	return Score{Points: points, Slots: slots, Shares: Shares(slots, snap.SharesPerSlot)}
}

type Result struct {
	Processed     int   `json:"processed"`
	Skipped       int   `json:"skipped"`
	SharesAwarded int64 `json:"shares_awarded"`
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

type RecordInput struct {
	StaffID           string
	Period            types.Period
	CardSales         int64
	CustomerRetention decimal.Decimal
}

func (in RecordInput) Validate() error {
	if in.StaffID == "" {
		return types.NewValidationError("staff_id", "is required")
	}
	if err := in.Period.Validate(); err != nil {
		return err
	}
	if in.CardSales < 0 {
		return types.NewValidationError("card_sales", "must not be negative")
	}
	if !concerns.IsPercentage(in.CustomerRetention) {
		return types.NewValidationError("customer_retention", "must be a percentage between 0 and 100")
	}

	return nil
}

// RecordStaffKpi stores the KPI of a staff member for a period. Recording the
// same period again replaces the figures until the record is processed.
func (s *Service) RecordStaffKpi(ctx context.Context, snap settings.Snapshot, actorID string, in RecordInput) (*models.StaffKpi, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	score := Evaluate(in.CardSales, in.CustomerRetention, snap)

	var record *models.StaffKpi
	err := s.store.Atomic(ctx, func(tx store.Store) error {
		if _, err := tx.GetUser(ctx, in.StaffID); err != nil {
			return err
		}

		existing, err := tx.FindStaffKpi(ctx, in.StaffID, in.Period)
		if err != nil && !errors.Is(err, types.ErrNotFound) {
			return err
		}

		if existing != nil {
			if existing.IsProcessed() {
				return &types.StateError{Entity: "staff_kpi", ID: existing.ID, From: string(existing.State)}
			}
			record = existing
		} else {
			record = &models.StaffKpi{
				StaffID:     in.StaffID,
				Period:      in.Period.Kind,
				PeriodValue: in.Period.Value,
				State:       types.KpiRecorded,
			}
		}

		record.CardSales = in.CardSales
		record.CustomerRetention = in.CustomerRetention
		record.TotalPoints = score.Points
		record.SlotsEarned = score.Slots
		record.SharesAwarded = score.Shares

		if existing != nil {
			return tx.UpdateStaffKpi(ctx, record)
		}
		return tx.CreateStaffKpi(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"staff_id": in.StaffID,
		"period":   in.Period.String(),
		"points":   score.Points.String(),
	}).Info("Staff KPI recorded")
	audit.Notify(ctx, s.hook, s.logger, audit.Entry{
		ActorID:    actorID,
		Action:     "kpi.record",
		TargetType: "staff_kpi",
		TargetID:   record.ID,
		After:      record,
	})

	return record, nil
}

// CalculateStaffKpiPoints scores the stored KPI of staffID for period with the
// current settings.
func (s *Service) CalculateStaffKpiPoints(ctx context.Context, snap settings.Snapshot, staffID string, period types.Period) (Score, error) {
	record, err := s.store.FindStaffKpi(ctx, staffID, period)
	if err != nil {
		return Score{}, err
	}

	return Evaluate(record.CardSales, record.CustomerRetention, snap), nil
}

// ProcessQuarterlyShares awards shares for every recorded KPI of period. Each
// record commits on its own, so a run that stops halfway can be repeated and
// only the remaining records are processed.
func (s *Service) ProcessQuarterlyShares(ctx context.Context, snap settings.Snapshot, period types.Period) (Result, error) {
	var result Result
	if err := period.Validate(); err != nil {
		return result, err
	}

	unlock, err := s.locker.Lock(ctx, locker.PeriodKey("kpi", period.Kind, period.Value))
	if err != nil {
		return result, err
	}
	defer unlock()

	records, err := s.store.ListStaffKpisByPeriod(ctx, period)
	if err != nil {
		return result, err
	}

	for _, record := range records {
		if record.IsProcessed() {
			result.Skipped++
			continue
		}

		awarded, processed, err := s.processOne(ctx, snap, record.ID, record.StaffID)
		if err != nil {
			return result, fmt.Errorf("process staff kpi %s: %w", record.ID, err)
		}
		if !processed {
			result.Skipped++
			continue
		}

		result.Processed++
		result.SharesAwarded += awarded
	}

	s.logger.WithFields(logrus.Fields{
		"period":         period.String(),
		"processed":      result.Processed,
		"skipped":        result.Skipped,
		"shares_awarded": result.SharesAwarded,
	}).Info("Quarterly KPI shares processed")

	return result, nil
}

func (s *Service) processOne(ctx context.Context, snap settings.Snapshot, id, staffID string) (int64, bool, error) {
	unlock, err := s.locker.Lock(ctx, locker.BalanceKey(staffID))
	if err != nil {
		return 0, false, err
	}
	defer unlock()

	var (
		record    *models.StaffKpi
		processed bool
	)
	err = s.store.Atomic(ctx, func(tx store.Store) error {
		record, err = tx.GetStaffKpi(ctx, id)
		if err != nil {
			return err
		}
		if record.IsProcessed() {
			return nil
		}
		if err := types.KpiTransitions.Validate("staff_kpi", id, record.State, types.KpiProcessed); err != nil {
			return err
		}

		score := Evaluate(record.CardSales, record.CustomerRetention, snap)
		record.TotalPoints = score.Points
		record.SlotsEarned = score.Slots
		record.SharesAwarded = score.Shares

		description := fmt.Sprintf("KPI award %s: %s points, %d slots", record.GetPeriod(), score.Points, score.Slots)
		if _, err := s.balances.UpdateUserShares(ctx, tx, staffID, score.Shares, types.ChangeKpiAward, description, record.ID); err != nil {
			return err
		}

		record.State = types.KpiProcessed
		record.ProcessedAt = null.TimeFrom(time.Now())
		processed = true

		return tx.UpdateStaffKpi(ctx, record)
	})
	if err != nil || !processed {
		return 0, false, err
	}

	audit.Notify(ctx, s.hook, s.logger, audit.Entry{
		ActorID:    "system",
		Action:     "kpi.process",
		TargetType: "staff_kpi",
		TargetID:   id,
		Amount:     record.SharesAwarded,
		After:      record,
	})

	return record.SharesAwarded, true, nil
}

func (s *Service) GetStaffKpis(ctx context.Context, period types.Period) ([]*models.StaffKpi, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}

	return s.store.ListStaffKpisByPeriod(ctx, period)
}

func (s *Service) GetStaffKpisByStaff(ctx context.Context, staffID string) ([]*models.StaffKpi, error) {
	return s.store.ListStaffKpisByStaff(ctx, staffID)
}
