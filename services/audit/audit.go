// Package audit records who changed what. Hooks run after a workflow commits;
// a failing hook is logged and never undoes the committed change.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	client "github.com/influxdata/influxdb1-client/v2"
	"github.com/sirupsen/logrus"

	"github.com/phuanduong/ledger/models"
	"github.com/phuanduong/ledger/monitoring"
	"github.com/phuanduong/ledger/store"
)

type Entry struct {
	ActorID    string
	Action     string
	TargetType string
	TargetID   string
	Amount     int64
	Before     interface{}
	After      interface{}
}

type Hook interface {
	Record(ctx context.Context, entry Entry) error
}

// Notify hands entry to hook and logs the failure instead of returning it.
func Notify(ctx context.Context, hook Hook, logger *logrus.Entry, entry Entry) {
	monitoring.AuditEvents.WithLabelValues(entry.Action).Inc()
	if hook == nil {
		return
	}

	if err := hook.Record(ctx, entry); err != nil && logger != nil {
		logger.WithFields(logrus.Fields{
			"action":    entry.Action,
			"target_id": entry.TargetID,
		}).Warnf("Failed to record audit entry, error: %v", err)
	}
}

// StoreHook appends AuditLog rows.
type StoreHook struct {
	Store store.Store
}

func (h *StoreHook) Record(ctx context.Context, entry Entry) error {
	before, err := marshal(entry.Before)
	if err != nil {
		return err
	}
	after, err := marshal(entry.After)
	if err != nil {
		return err
	}

	return h.Store.CreateAuditLog(ctx, &models.AuditLog{
		ActorID:    entry.ActorID,
		Action:     entry.Action,
		TargetType: entry.TargetType,
		TargetID:   entry.TargetID,
		Before:     before,
		After:      after,
	})
}

func marshal(v interface{}) (string, error) {
	if v == nil {
		return "", nil
	}

	buf, err := json.Marshal(v)
	if err != nil {
		return "", err
	}

	return string(buf), nil
}

type LogHook struct {
	Logger *logrus.Entry
}

func (h *LogHook) Record(_ context.Context, entry Entry) error {
	h.Logger.WithFields(logrus.Fields{
		"actor_id":    entry.ActorID,
		"action":      entry.Action,
		"target_type": entry.TargetType,
		"target_id":   entry.TargetID,
		"amount":      entry.Amount,
	}).Info("audit")

	return nil
}

// PointWriter is the part of client.Client the influx hook needs.
type PointWriter interface {
	Write(bp client.BatchPoints) error
}

type InfluxHook struct {
	Client      PointWriter
	Database    string
	Measurement string
}

func NewInfluxHook(c PointWriter, database string) *InfluxHook {
	return &InfluxHook{Client: c, Database: database, Measurement: "ledger_audit"}
}

func (h *InfluxHook) Record(_ context.Context, entry Entry) error {
	bp, err := client.NewBatchPoints(client.BatchPointsConfig{
		Database:  h.Database,
		Precision: "ms",
	})
	if err != nil {
		return err
	}

	tags := map[string]string{
		"action":      entry.Action,
		"target_type": entry.TargetType,
	}
	fields := map[string]interface{}{
		"actor_id":  entry.ActorID,
		"target_id": entry.TargetID,
		"amount":    entry.Amount,
	}

	pt, err := client.NewPoint(h.Measurement, tags, fields, time.Now())
	if err != nil {
		return err
	}
	bp.AddPoint(pt)

	return h.Client.Write(bp)
}

// Multi fans an entry out to every hook and joins their errors.
type Multi []Hook

func (m Multi) Record(ctx context.Context, entry Entry) error {
	var errs []error
	for _, h := range m {
		if h == nil {
			continue
		}
		if err := h.Record(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

type Service struct {
	store store.Store
}

func NewService(s store.Store) *Service {
	return &Service{store: s}
}

func (s *Service) GetAuditLogs(ctx context.Context, limit int) ([]*models.AuditLog, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	return s.store.ListAuditLogs(ctx, limit)
}
