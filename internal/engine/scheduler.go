package engine

import (
	"context"
	"log/slog"
	"time"
)

// Scheduler runs matching-and-settlement passes on a fixed interval,
// the periodic counterpart of the on-demand trigger. Both paths share
// the executor, which serializes settlement.
type Scheduler struct {
	interval time.Duration
	executor *Executor
}

// NewScheduler creates a Scheduler running a pass every interval.
func NewScheduler(interval time.Duration, executor *Executor) *Scheduler {
	return &Scheduler{interval: interval, executor: executor}
}

// Start runs the periodic loop until ctx is cancelled. Call in a
// goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := s.executor.RunPass(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Error("scheduled matching pass failed", slog.String("error", err.Error()))
				continue
			}
			if len(result.Completed) > 0 || len(result.Voided) > 0 {
				slog.Info("matching pass settled trades",
					slog.Uint64("pass_seq", result.PassSeq),
					slog.Int("completed", len(result.Completed)),
					slog.Int("voided", len(result.Voided)))
			}
		}
	}
}
