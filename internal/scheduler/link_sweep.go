package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/tesseract-hub/accreditation-service/internal/services"
)

// LinkSweeper periodically deactivates stale, never-submitted form links.
type LinkSweeper struct {
	links    *services.FormLinkService
	maxAge   time.Duration
	schedule string
	cron     *cron.Cron
	logger   *logrus.Logger
}

// NewLinkSweeper creates a sweeper. schedule is a standard cron expression;
// maxAge is how long an unused link stays valid.
func NewLinkSweeper(links *services.FormLinkService, schedule string, maxAge time.Duration, logger *logrus.Logger) *LinkSweeper {
	if schedule == "" {
		schedule = "0 3 * * *" // daily at 03:00
	}
	if maxAge <= 0 {
		maxAge = 30 * 24 * time.Hour
	}
	return &LinkSweeper{
		links:    links,
		maxAge:   maxAge,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger,
	}
}

// Start registers the sweep job and starts the cron scheduler.
func (s *LinkSweeper) Start() error {
	_, err := s.cron.AddFunc(s.schedule, s.run)
	if err != nil {
		return err
	}
	s.cron.Start()
	s.logger.WithFields(logrus.Fields{
		"schedule": s.schedule,
		"max_age":  s.maxAge.String(),
	}).Info("Link sweeper started")
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *LinkSweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *LinkSweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	swept, err := s.links.SweepStaleLinks(ctx, s.maxAge)
	if err != nil {
		s.logger.WithError(err).Error("Link sweep failed")
		return
	}
	if swept > 0 {
		s.logger.WithField("swept", swept).Info("Deactivated stale form links")
	}
}
