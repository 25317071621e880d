package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Janitor periodically sweeps long-expired entries out of a store.
// Redis entries expire on their own, so only the disk store needs one.
type Janitor struct {
	store     Sweeper
	logger    *logrus.Logger
	cron      *cron.Cron
	interval  time.Duration
	mu        sync.Mutex
	isRunning bool
}

// NewJanitor creates a janitor sweeping the store at the given interval
func NewJanitor(store Sweeper, logger *logrus.Logger, interval time.Duration) *Janitor {
	return &Janitor{
		store:    store,
		logger:   logger,
		cron:     cron.New(),
		interval: interval,
	}
}

// Start begins the scheduled sweeps
func (j *Janitor) Start() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.isRunning {
		return fmt.Errorf("cache janitor is already running")
	}

	schedule := fmt.Sprintf("@every %s", j.interval.String())
	_, err := j.cron.AddFunc(schedule, j.sweep)
	if err != nil {
		return fmt.Errorf("failed to schedule cache sweep: %w", err)
	}

	j.cron.Start()
	j.isRunning = true

	j.logger.WithField("interval", j.interval.String()).Info("Cache janitor started")
	return nil
}

// Stop halts the scheduled sweeps, waiting for an in-flight sweep to finish
func (j *Janitor) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.isRunning {
		return
	}

	ctx := j.cron.Stop()
	<-ctx.Done()

	j.isRunning = false
	j.logger.Info("Cache janitor stopped")
}

func (j *Janitor) sweep() {
	removed, err := j.store.Sweep(context.Background())
	if err != nil {
		j.logger.Errorf("Cache sweep failed: %v", err)
		return
	}
	if removed > 0 {
		j.logger.WithField("removed", removed).Info("Swept expired cache entries")
	}
}
