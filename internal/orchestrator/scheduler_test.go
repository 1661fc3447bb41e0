package orchestrator_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/config"
	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/container"
	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/deploy"
	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/model"
	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/orchestrator"
	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/purge"
)

type noopPurger struct{}

func (noopPurger) Purge(ctx context.Context, distro model.Distro, entity string, mode purge.Mode) error {
	return nil
}

// fakeComposeBin writes a stub compose binary that always succeeds for
// up/down/ps and exits with execExitCode only for "exec" invocations — the
// step that stands in for the actual ansible-playbook deploy pass.
func fakeComposeBin(t *testing.T, execExitCode int) string {
	t.Helper()
	dir := t.TempDir()
	bin := filepath.Join(dir, "compose-stub.sh")
	script := `#!/bin/sh
for arg in "$@"; do
  if [ "$arg" = "exec" ]; then
    exit ` + itoa(execExitCode) + `
  fi
done
exit 0
`
	require.NoError(t, os.WriteFile(bin, []byte(script), 0o755))
	return bin
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	digits := ""
	for i > 0 {
		digits = string(rune('0'+i%10)) + digits
		i /= 10
	}
	return digits
}

// chdirTemp switches the process cwd to a fresh temp directory for the
// duration of t, since logsink writes job logs under a "logs" directory
// relative to the current working directory.
func chdirTemp(t *testing.T) {
	t.Helper()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(orig) })
}

func newRunner(t *testing.T, exitCode int) *orchestrator.AppRunner {
	chdirTemp(t)
	bin := fakeComposeBin(t, exitCode)
	cd := container.NewDriver(bin, nil, "docker-compose.yml")
	dd := deploy.NewDriver(cd, "site.yml")
	c := &config.Config{InventoryDir: t.TempDir()}
	return &orchestrator.AppRunner{
		CD:         cd,
		DD:         dd,
		Purger:     noopPurger{},
		Dirs:       c.Dirs(),
		DeployType: "server",
		Service:    "app",
	}
}

func TestSchedulerRunsAllDistrosOnSuccess(t *testing.T) {
	runner := newRunner(t, 0)
	sched := &orchestrator.Scheduler{Runner: runner, Seed: 42}

	summary, err := sched.Run(context.Background(), orchestrator.Input{
		App:        "web-app-nextcloud",
		DeployType: "server",
		Distros:    []model.Distro{model.DistroDebian, model.DistroArch, model.DistroUbuntu},
		Catalog:    model.Catalog{"web-app-nextcloud"},
	})
	require.NoError(t, err)
	require.Equal(t, 3, summary.Ran)
	require.Equal(t, 0, summary.Failed)
	require.Equal(t, 0, summary.Skipped)
}

func TestSchedulerStopsOnFirstFailure(t *testing.T) {
	runner := newRunner(t, 1)
	sched := &orchestrator.Scheduler{Runner: runner, Seed: 7}

	summary, err := sched.Run(context.Background(), orchestrator.Input{
		App:        "web-app-nextcloud",
		DeployType: "server",
		Distros:    []model.Distro{model.DistroDebian, model.DistroArch},
		Catalog:    model.Catalog{"web-app-nextcloud"},
	})
	require.Error(t, err)
	require.Equal(t, 1, summary.Failed)
}

func TestSchedulerIsDeterministicForFixedSeed(t *testing.T) {
	distros := []model.Distro{model.DistroDebian, model.DistroArch, model.DistroUbuntu, model.DistroFedora, model.DistroCentos}

	r1 := newRunner(t, 0)
	s1 := &orchestrator.Scheduler{Runner: r1, Seed: 99}
	sum1, err := s1.Run(context.Background(), orchestrator.Input{App: "web-app-foo", DeployType: "server", Distros: distros, Catalog: model.Catalog{"web-app-foo"}})
	require.NoError(t, err)

	r2 := newRunner(t, 0)
	s2 := &orchestrator.Scheduler{Runner: r2, Seed: 99}
	sum2, err := s2.Run(context.Background(), orchestrator.Input{App: "web-app-foo", DeployType: "server", Distros: distros, Catalog: model.Catalog{"web-app-foo"}})
	require.NoError(t, err)

	require.Equal(t, len(sum1.Results), len(sum2.Results))
	for i := range sum1.Results {
		require.Equal(t, sum1.Results[i].Distro, sum2.Results[i].Distro)
	}
}

func TestSchedulerRunsWithBudgetDisabled(t *testing.T) {
	runner := newRunner(t, 0)
	sched := &orchestrator.Scheduler{Runner: runner, Seed: 3}

	summary, err := sched.Run(context.Background(), orchestrator.Input{
		App:           "web-app-nextcloud",
		DeployType:    "server",
		Distros:       []model.Distro{model.DistroDebian},
		Catalog:       model.Catalog{"web-app-nextcloud"},
		BudgetSeconds: 0,
	})
	require.NoError(t, err)
	require.Equal(t, 1, summary.Ran)
}
