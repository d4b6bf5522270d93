package accrual

import (
	"context"
	"log"
	"time"
)

// Scheduler invokes the engine on a fixed interval. It exists so the engine
// itself stays a plain function of its inputs; production deployments may
// disable it and drive cycles from an external cron instead.
type Scheduler struct {
	engine   *Engine
	interval time.Duration
}

func NewScheduler(engine *Engine, interval time.Duration) *Scheduler {
	return &Scheduler{engine: engine, interval: interval}
}

// Start runs cycles until ctx is cancelled. It returns immediately when the
// scheduler is disabled (interval <= 0).
func (s *Scheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				period := Period(now)
				summary, err := s.engine.Run(ctx, period)
				if err != nil {
					log.Printf("ERROR: accrual cycle %s: %v", period, err)
				}
				if summary != nil {
					log.Printf("accrual cycle %s: applied=%d skipped=%d already=%d failed=%d",
						summary.Period, summary.Applied, summary.Skipped,
						summary.AlreadyAccrued, len(summary.Failures))
				}
			}
		}
	}()
}
