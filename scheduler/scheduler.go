package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"rent591/config"
	"rent591/logging"
	"rent591/models"
	"rent591/pipeline"
)

// Scorer re-scores the stored listings.
type Scorer interface {
	ScoreAll(ctx context.Context) ([]*models.Listing, *models.Run, error)
}

type Scheduler struct {
	cfg      config.SchedulerConfig
	scorer   Scorer
	cron     *cron.Cron
	ticker   *time.Ticker
	stopCh   chan struct{}
	stopOnce sync.Once
}

func New(cfg config.SchedulerConfig, scorer Scorer) *Scheduler {
	return &Scheduler{
		cfg:    cfg,
		scorer: scorer,
		cron:   cron.New(),
		stopCh: make(chan struct{}),
	}
}

// Start schedules re-scoring by cron expression, or by interval when no
// expression is set. With neither it does nothing.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.cfg.Cron != "" {
		logging.Infof("Starting scheduler with cron: %s", s.cfg.Cron)
		_, err := s.cron.AddFunc(s.cfg.Cron, func() {
			s.run(ctx)
		})
		if err != nil {
			return fmt.Errorf("invalid cron expression: %w", err)
		}
		s.cron.Start()
	} else if s.cfg.Interval > 0 {
		logging.Infof("Starting scheduler with interval: %s", s.cfg.Interval)
		s.ticker = time.NewTicker(s.cfg.Interval)
		go func() {
			for {
				select {
				case <-s.ticker.C:
					s.run(ctx)
				case <-s.stopCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}()
	} else {
		logging.Infof("No schedule configured, scores are only refreshed on demand")
	}

	return nil
}

func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		if s.cron != nil {
			<-s.cron.Stop().Done()
		}
		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.stopCh)
	})
}

// TriggerNow runs one scoring pass immediately.
func (s *Scheduler) TriggerNow(ctx context.Context) error {
	_, _, err := s.scorer.ScoreAll(ctx)
	return err
}

func (s *Scheduler) run(ctx context.Context) {
	_, run, err := s.scorer.ScoreAll(ctx)
	switch {
	case errors.Is(err, pipeline.ErrBusy):
		logging.Infof("Scheduled scoring skipped: previous pass still running")
	case err != nil:
		logging.Errorf("Scheduled scoring error: %v", err)
	default:
		logging.Infof("Scheduled scoring done: %d listings", run.ListingsSeen)
	}
}
