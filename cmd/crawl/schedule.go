package crawl

import (
	"context"
	"fmt"

	"github.com/jonesrussell/harvest/internal/logger"
	"github.com/jonesrussell/harvest/internal/scheduler"
)

// runScheduled runs the harvest on the given cron schedule until the context
// is cancelled. The scheduler skips ticks while a run is still active.
func runScheduled(ctx context.Context, log logger.Interface, h *Harvester, spec string) error {
	sched := scheduler.New(log)
	if err := sched.AddJob("crawl", spec, func(jobCtx context.Context) {
		if err := h.Run(jobCtx); err != nil {
			log.Error("scheduled crawl failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule crawl: %w", err)
	}

	log.Info("crawl scheduled", "schedule", spec)
	sched.Run(ctx)
	return nil
}
