package server

import (
	"fmt"
	"time"

	"github.com/linanwx/policychat/logger"
	robfigcron "github.com/robfig/cron/v3"
)

// DefaultSweepSpec runs the retention sweep hourly.
const DefaultSweepSpec = "@hourly"

// Sweeper periodically removes expired uploads.
type Sweeper struct {
	cron      *robfigcron.Cron
	store     *UploadStore
	retention time.Duration
}

// NewSweeper schedules store sweeps on spec, a standard five-field cron
// expression or a descriptor such as "@every 30m".
func NewSweeper(store *UploadStore, spec string, retention time.Duration) (*Sweeper, error) {
	if spec == "" {
		spec = DefaultSweepSpec
	}
	if retention <= 0 {
		return nil, fmt.Errorf("sweeper: retention must be positive")
	}
	s := &Sweeper{cron: robfigcron.New(), store: store, retention: retention}
	if _, err := s.cron.AddFunc(spec, s.RunOnce); err != nil {
		return nil, fmt.Errorf("sweeper: invalid schedule %q: %w", spec, err)
	}
	return s, nil
}

// RunOnce sweeps immediately.
func (s *Sweeper) RunOnce() {
	n, err := s.store.Sweep(s.retention)
	if err != nil {
		logger.Warn("upload sweep failed", "err", err)
		return
	}
	if n > 0 {
		logger.Info("expired uploads removed", "count", n, "retention", s.retention.String())
	}
}

// Start runs the schedule in the background.
func (s *Sweeper) Start() { s.cron.Start() }

// Stop halts the schedule and waits for a running sweep.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}
