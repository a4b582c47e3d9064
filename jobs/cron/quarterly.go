package cron

import (
	"context"
	"time"

	"github.com/jasonlvhit/gocron"
	"github.com/sirupsen/logrus"

	"github.com/phuanduong/ledger/monitoring"
	"github.com/phuanduong/ledger/services/ledger"
	"github.com/phuanduong/ledger/types"
)

const SystemActor = "system:cron"

// QuarterlyJob closes the previous quarter on the first day of each quarter:
// KPI shares are awarded, then the profit is allocated.
type QuarterlyJob struct {
	Engine *ledger.Engine
	Logger *logrus.Entry
	Now    func() time.Time

	schedule schedule
}

func NewQuarterlyJob(engine *ledger.Engine, logger *logrus.Entry) *QuarterlyJob {
	return &QuarterlyJob{Engine: engine, Logger: logger, Now: time.Now}
}

func (j *QuarterlyJob) Process() {
	j.schedule.run(func(scheduler *gocron.Scheduler) {
		scheduler.Every(1).Day().At("00:10:00").Do(j.Tick, context.Background())
	})
}

func (j *QuarterlyJob) Stop() {
	j.schedule.stop()
}

// Tick runs the quarter close when today opens a quarter. It reports whether
// a run happened.
func (j *QuarterlyJob) Tick(ctx context.Context) bool {
	now := j.Now().UTC()
	if now.Day() != 1 || (now.Month()-1)%3 != 0 {
		return false
	}

	period := types.PreviousQuarter(now)
	logger := j.Logger.WithField("period", period.String())

	result, err := j.Engine.ProcessQuarter(ctx, period, SystemActor)
	if err != nil {
		monitoring.JobRuns.WithLabelValues("quarterly", "error").Inc()
		logger.WithError(err).Error("quarter close failed")
		return true
	}

	monitoring.JobRuns.WithLabelValues("quarterly", "ok").Inc()
	logger.WithFields(logrus.Fields{
		"kpi_processed":       result.Kpi.Processed,
		"shares_awarded":      result.Kpi.SharesAwarded,
		"already_distributed": result.AlreadyDistributed,
	}).Info("quarter closed")

	return true
}
