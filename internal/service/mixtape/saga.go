package mixtape

import (
	"context"
	"fmt"

	"github.com/nkiryanov/mixtape/internal/logger"
)

// step is one stage of a multi-step write.
// compensate undoes run and is nil when there is nothing to undo
type step struct {
	name       string
	run        func(ctx context.Context) error
	compensate func(ctx context.Context) error
}

// runSaga executes steps in order. When a step fails, compensations of the
// already completed steps run in reverse order before the error is returned.
// Compensation is strictly sequential with observing the failure, never
// concurrent with the failed step
func runSaga(ctx context.Context, l logger.Logger, steps []step) error {
	done := make([]step, 0, len(steps))

	for _, s := range steps {
		err := s.run(ctx)
		if err == nil {
			done = append(done, s)
			continue
		}

		for i := len(done) - 1; i >= 0; i-- {
			c := done[i]
			if c.compensate == nil {
				continue
			}
			if cerr := c.compensate(ctx); cerr != nil {
				// Nothing left to do but make the orphan visible in logs
				l.Error("Saga compensation failed", "step", c.name, "error", cerr)
			}
		}

		return fmt.Errorf("saga step %q failed: %w", s.name, err)
	}

	return nil
}
