package cron

import (
	"context"
	"errors"

	"github.com/jasonlvhit/gocron"
	"github.com/sirupsen/logrus"

	"github.com/phuanduong/ledger/monitoring"
	"github.com/phuanduong/ledger/services/ledger"
	"github.com/phuanduong/ledger/types"
)

// ReleaseCommissionJob pays out, once a day, the outstanding commission of
// every completed referral.
type ReleaseCommissionJob struct {
	Engine *ledger.Engine
	Logger *logrus.Entry

	schedule schedule
}

func NewReleaseCommissionJob(engine *ledger.Engine, logger *logrus.Entry) *ReleaseCommissionJob {
	return &ReleaseCommissionJob{Engine: engine, Logger: logger}
}

func (j *ReleaseCommissionJob) Process() {
	j.schedule.run(func(scheduler *gocron.Scheduler) {
		scheduler.Every(1).Day().At("00:00:00").Do(j.releaseReferrals, context.Background())
	})
}

func (j *ReleaseCommissionJob) Stop() {
	j.schedule.stop()
}

func (j *ReleaseCommissionJob) releaseReferrals(ctx context.Context) {
	total, err := j.Release(ctx)
	if err != nil {
		monitoring.JobRuns.WithLabelValues("release_commission", "error").Inc()
		j.Logger.WithError(err).Error("commission release failed")
		return
	}

	monitoring.JobRuns.WithLabelValues("release_commission", "ok").Inc()
	j.Logger.WithField("total_paid", total).Info("commission released")
}

// Release pays every completed referral in full and returns the total paid.
// Pending referrals wait for their first transaction.
func (j *ReleaseCommissionJob) Release(ctx context.Context) (int64, error) {
	referrals, err := j.Engine.Store.ListReferrals(ctx, "")
	if err != nil {
		return 0, err
	}

	var total int64
	for _, r := range referrals {
		outstanding := r.Outstanding()
		if r.Status != types.ReferralCompleted || outstanding == 0 {
			continue
		}

		_, err := j.Engine.Referrals.MarkCommissionPaid(ctx, r.ID, outstanding, SystemActor)
		if errors.Is(err, types.ErrValidation) {
			continue
		}
		if err != nil {
			return total, err
		}
		total += outstanding
	}

	return total, nil
}
