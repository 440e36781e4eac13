package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	syncsvc "github.com/mamadbah2/harvestledger/internal/service/sync"
)

// Scheduler drives opportunistic sync attempts on a cron schedule. The sync
// service itself decides whether an attempt does anything (offline, nothing
// unsynced and in-flight attempts all collapse to no-ops).
type Scheduler struct {
	cron     *cron.Cron
	syncSvc  *syncsvc.Service
	schedule string
	logger   *zap.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(schedule string, syncSvc *syncsvc.Service, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		cron:     cron.New(),
		syncSvc:  syncSvc,
		schedule: schedule,
		logger:   logger,
	}
}

// Start registers the auto-sync job and starts the cron loop.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule))

	if _, err := s.cron.AddFunc(s.schedule, s.runAutoSync); err != nil {
		s.logger.Error("failed to schedule auto-sync", zap.Error(err))
		return
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) runAutoSync() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	s.syncSvc.AutoSync(ctx)
}
