package container

import (
	"context"
	"time"

	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/errs"
)

// Check reports whether a named condition currently holds.
type Check func(ctx context.Context) (bool, error)

// Helper re-runs a named list of readiness checks at a fixed interval until
// all pass or a deadline elapses, modeled on the teacher's
// healthcheck.Helper/hh.Enlist pattern (pkg/runner/local_common.go).
type Helper struct {
	entries []entry
}

type entry struct {
	name  string
	check Check
}

// Enlist registers a named check. Order is preserved: Wait evaluates checks
// in enlistment order on every poll round.
func (h *Helper) Enlist(name string, check Check) {
	h.entries = append(h.entries, entry{name: name, check: check})
}

// Wait polls every enlisted check every interval until all report ready, ctx
// is cancelled, or deadline elapses (deadline <= 0 means no deadline beyond
// ctx itself).
func (h *Helper) Wait(ctx context.Context, interval, deadline time.Duration) error {
	waitCtx := ctx
	var cancel context.CancelFunc
	if deadline > 0 {
		waitCtx, cancel = context.WithTimeout(ctx, deadline)
		defer cancel()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		allReady := true
		for _, e := range h.entries {
			ready, err := e.check(waitCtx)
			if err != nil {
				return errs.Wrap(errs.ContainerUp, "readiness check \""+e.name+"\" failed", err)
			}
			if !ready {
				allReady = false
				break
			}
		}
		if allReady {
			return nil
		}

		select {
		case <-waitCtx.Done():
			return errs.Wrap(errs.Timeout, "readiness checks did not pass before deadline", waitCtx.Err())
		case <-ticker.C:
		}
	}
}
