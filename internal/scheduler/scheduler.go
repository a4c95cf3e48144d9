package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/vimacontrol/internal/config"
	"github.com/mamadbah2/vimacontrol/internal/domain/models"
	"github.com/mamadbah2/vimacontrol/internal/repository/sheets"
	"github.com/mamadbah2/vimacontrol/internal/service/auth"
	"github.com/mamadbah2/vimacontrol/internal/service/herd"
)

const snapshotDateLayout = "2006-01-02"

// Scheduler exports every user's dashboard snapshot on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	authSvc  *auth.Service
	herdSvc  *herd.Service
	exporter sheets.Exporter
	cfg      config.ReportingConfig
	logger   *zap.Logger
}

// NewScheduler creates a new scheduler instance. The cron clock runs in the
// configured timezone; an unknown timezone falls back to local time.
func NewScheduler(cfg config.ReportingConfig, authSvc *auth.Service, herdSvc *herd.Service, exporter sheets.Exporter, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []cron.Option{}
	if loc, err := time.LoadLocation(cfg.Timezone); err == nil {
		opts = append(opts, cron.WithLocation(loc))
	} else {
		logger.Warn("unknown timezone, using local time", zap.String("timezone", cfg.Timezone), zap.Error(err))
	}

	return &Scheduler{
		cron:     cron.New(opts...),
		authSvc:  authSvc,
		herdSvc:  herdSvc,
		exporter: exporter,
		cfg:      cfg,
		logger:   logger,
	}
}

// Start registers the snapshot job and starts the cron loop.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.CronSchedule))

	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.exportSnapshots); err != nil {
		s.logger.Error("failed to schedule snapshot export", zap.Error(err))
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) exportSnapshots() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	users, err := s.authSvc.Users(ctx)
	if err != nil {
		s.logger.Error("failed to load users for snapshot export", zap.Error(err))
		return
	}

	date := time.Now().Format(snapshotDateLayout)
	for _, user := range users {
		stats, err := s.herdSvc.Dashboard(ctx, user.ID)
		if err != nil {
			s.logger.Error("failed to compute dashboard", zap.String("user_id", user.ID), zap.Error(err))
			continue
		}

		snapshot := models.HerdSnapshot{Date: date, UserEmail: user.Email, Stats: stats}
		if err := s.exporter.AppendSnapshot(ctx, snapshot); err != nil {
			s.logger.Error("failed to export snapshot", zap.String("user_id", user.ID), zap.Error(err))
			continue
		}
	}

	s.logger.Info("herd snapshots exported", zap.Int("users", len(users)))
}
