// Package cmd wires the orchestrator's components into urfave/cli commands,
// the same shape as the teacher's cmd/run.go, cmd/list.go, and
// cmd/healthcheck.go: one cli.Command value per subcommand, flags parsed
// into local variables at the top of the Action func, errors returned
// rather than printed inline.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/config"
	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/errs"
)

// ProcessContext returns a context cancelled on SIGINT/SIGTERM, the
// mechanism every long-running command (deploy, purge) derives its
// cancellation from. Stdlib signal.NotifyContext is used directly: no
// example repo in the corpus wraps process-signal handling in a library,
// and the stdlib primitive is a single call.
func ProcessContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// loadConfig reads the process environment into a Config, the one place
// outside main.go permitted to do so, so every command shares identical
// environment-derived defaults.
func loadConfig() (*config.Config, error) {
	return config.Load()
}

// checkCancelled reports a run as cancelled-by-signal (exit code 130, per
// spec.md §7) whenever ctx was the one that ended the run, regardless of
// what err the component itself returned.
func checkCancelled(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return errs.Wrap(errs.Internal, "run cancelled by signal", errs.ErrCancelled)
	}
	return err
}
