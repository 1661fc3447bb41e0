// Package deploy is the Deploy Driver (DD): it invokes ansible-playbook
// inside a distro's running container for one application and turns the
// process outcome into a model.RunRecord. Grounded on the teacher's
// pkg/runner/local_docker.go Run(), which drives one process per instance
// and folds its exit into a structured result; DD generalizes that into a
// single (distro, app, pass) invocation against internal/container's Exec.
package deploy

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/container"
	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/errs"
	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/model"
	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/procrunner"
)

// Options parameterizes a single deploy invocation.
type Options struct {
	Distro        model.Distro
	App           model.AppId
	Pass          model.Pass
	Service       string // compose service name ansible-playbook runs inside
	InventoryPath string
	VaultPassFile string
	ExtraVars     map[string]string
	Async         bool
	Timeout       time.Duration
	GracePeriod   time.Duration
	Sink          io.Writer
}

// Driver runs ansible-playbook through a Container Driver.
type Driver struct {
	CD        *container.Driver
	Playbook  string
	TagPrefix string // tags applied to scope a playbook run to one app, e.g. "app"
}

// NewDriver returns a Driver invoking playbook through cd.
func NewDriver(cd *container.Driver, playbook string) *Driver {
	return &Driver{CD: cd, Playbook: playbook, TagPrefix: "app"}
}

// Run executes one ansible-playbook pass and returns the resulting
// RunRecord. Run never returns a non-nil error for a clean process failure
// (non-zero exit, timeout) — those are captured in the RunRecord's
// ExitCode/Cause. It returns an error only when the container driver itself
// could not be invoked (e.g. compose exec spawn failure).
func (d *Driver) Run(ctx context.Context, opts Options) (model.RunRecord, error) {
	args := []string{
		"-i", opts.InventoryPath,
		"--vault-password-file", opts.VaultPassFile,
		"--tags", fmt.Sprintf("%s_%s", d.TagPrefix, opts.App.Entity()),
	}
	for k, v := range opts.ExtraVars {
		args = append(args, "-e", fmt.Sprintf("%s=%s", k, v))
	}
	args = append(args, d.Playbook)

	start := time.Now()
	res, err := d.CD.Exec(ctx, container.ExecOptions{
		Distro:      opts.Distro,
		Service:     opts.Service,
		Cmd:         "ansible-playbook",
		Args:        args,
		Timeout:     opts.Timeout,
		GracePeriod: opts.GracePeriod,
		Sink:        opts.Sink,
	})
	end := time.Now()

	record := model.RunRecord{
		Distro: opts.Distro,
		App:    opts.App,
		Pass:   opts.Pass,
		Start:  start,
		End:    end,
	}

	if err != nil {
		record.ExitCode = -1
		record.Cause = model.CauseUpFailed
		return record, errs.Wrap(errs.DeployExit, fmt.Sprintf("ansible-playbook invocation failed for %s/%s", opts.Distro, opts.App), err)
	}

	record.ExitCode = res.ExitCode
	switch res.Cause {
	case procrunner.CauseTimeout, procrunner.CauseSignal:
		// A signal-terminated process is either our own grace-period kill
		// after a timeout, or a propagated user cancellation (SIGINT/
		// SIGTERM) — both are coordinator-driven aborts, not the playbook's
		// own exit, so both fold into cause=timeout (spec.md §5).
		record.Cause = model.CauseTimeout
	case procrunner.CauseNonZero:
		record.Cause = model.CauseNonZeroExit
	}
	return record, nil
}
