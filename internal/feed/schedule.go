package feed

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/huangsam/motionwin/core"
)

// Scheduler exports a collection snapshot on a cron schedule.
// Each export overwrites the destination with the full buffer.
type Scheduler struct {
	cron    *cron.Cron
	c       *core.Collection
	dest    string
	logger  *zap.SugaredLogger
	exports atomic.Int64
}

// NewScheduler validates spec, a standard five-field cron expression.
func NewScheduler(spec string, c *core.Collection, dest string, logger *zap.SugaredLogger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := &Scheduler{cron: cron.New(), c: c, dest: dest, logger: logger}
	if _, err := s.cron.AddFunc(spec, s.ExportNow); err != nil {
		return nil, fmt.Errorf("invalid export schedule %q: %w", spec, err)
	}
	return s, nil
}

// ExportNow writes one snapshot. Failures are logged and the schedule keeps running.
func (s *Scheduler) ExportNow() {
	if err := s.c.Export(s.dest, false); err != nil {
		s.logger.Warnw("scheduled export failed", "relation", s.c.Name(), "destination", s.dest, "error", err)
		return
	}
	s.exports.Add(1)
	s.logger.Infow("exported collection", "relation", s.c.Name(), "destination", s.dest, "records", s.c.Len())
}

// Exports returns how many snapshots were written.
func (s *Scheduler) Exports() int64 { return s.exports.Load() }

// Run starts the schedule and blocks until ctx is done, then waits for a running export.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	return nil
}
