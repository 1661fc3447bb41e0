package orchestrator

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/logging"
	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/model"
	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/purge"
)

// Scheduler is the Global Scheduler (GS): it iterates a shuffled distro list
// under a wall-clock deadline, skipping distros the fast-fail heuristic
// predicts won't fit, and hard-resets between distros. Grounded on the
// teacher's composition/group iteration loop. Distros run one at a time;
// there is no parallel-distro mode.
type Scheduler struct {
	Runner *AppRunner
	// Seed, if non-zero, pins the shuffle RNG for reproducible runs. Zero
	// means a time-derived seed is used and logged.
	Seed int64
}

// Input parameterizes one GS invocation.
type Input struct {
	App           model.AppId
	DeployType    string
	Distros       []model.Distro
	Catalog       model.Catalog
	BudgetSeconds int // 0 disables the budget
}

// Summary is GS's final report.
type Summary struct {
	Results        []model.DistroResult
	TotalDuration  time.Duration
	RemainingBudget time.Duration
	Ran, Skipped, Failed int
}

// Run executes GS's algorithm from SPEC_FULL.md §4.8 / spec.md §4.8.
func (s *Scheduler) Run(ctx context.Context, in Input) (Summary, error) {
	seed := s.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	logging.S().Infow("scheduler shuffle seed", "seed", seed)

	order := append([]model.Distro{}, in.Distros...)
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	start := time.Now()
	var deadline time.Time
	hasDeadline := in.BudgetSeconds > 0
	if hasDeadline {
		deadline = start.Add(time.Duration(in.BudgetSeconds) * time.Second)
	}

	var (
		summary Summary
		maxSeen time.Duration
	)

	for _, distro := range order {
		now := time.Now()

		if hasDeadline && now.After(deadline) {
			summary.Results = append(summary.Results, model.DistroResult{Distro: distro, State: model.StateSkippedBudget})
			summary.Skipped++
			continue
		}

		if hasDeadline {
			remaining := deadline.Sub(now)
			if maxSeen > 0 && remaining < maxSeen {
				summary.Results = append(summary.Results, model.DistroResult{Distro: distro, State: model.StateSkippedHeuristic})
				summary.Skipped++
				continue
			}
		}

		distroStart := time.Now()
		appResult, err := s.Runner.Run(ctx, distro, in.App, in.Catalog)
		distroDur := time.Since(distroStart)

		dr := model.DistroResult{
			Distro:   distro,
			Records:  appResult.Records,
			Duration: distroDur,
		}

		if err != nil || appResult.Failed {
			dr.State = model.StateFailed
			summary.Failed++
			summary.Results = append(summary.Results, dr)
			s.hardReset(ctx, distro)
			summary.TotalDuration = time.Since(start)
			summary.RemainingBudget = remainingBudget(hasDeadline, deadline)
			return summary, fmt.Errorf("distro %s failed: run halted per GS failure semantics", distro)
		}

		dr.State = model.StateOK
		summary.Ran++
		if distroDur > maxSeen {
			maxSeen = distroDur
		}
		summary.Results = append(summary.Results, dr)

		s.hardReset(ctx, distro)
	}

	summary.TotalDuration = time.Since(start)
	summary.RemainingBudget = remainingBudget(hasDeadline, deadline)
	return summary, nil
}

func remainingBudget(hasDeadline bool, deadline time.Time) time.Duration {
	if !hasDeadline {
		return 0
	}
	d := time.Until(deadline)
	if d < 0 {
		return 0
	}
	return d
}

// hardReset tears the distro's stack fully down between runs: containers
// forced away, networks and volumes pruned, images preserved. Best-effort —
// failures are logged, never fatal, per EP's aggregation style.
func (s *Scheduler) hardReset(ctx context.Context, distro model.Distro) {
	if _, err := s.Runner.CD.Down(ctx, distro, true); err != nil {
		logging.S().Warnw("hard reset failed", "distro", distro, "err", err)
	}
}

var _ Purger = (*purge.Purger)(nil)
