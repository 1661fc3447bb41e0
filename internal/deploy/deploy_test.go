package deploy_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/container"
	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/deploy"
	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/model"
)

func fakeComposeExec(t *testing.T, exitCode int) string {
	t.Helper()
	dir := t.TempDir()
	bin := filepath.Join(dir, "compose-stub.sh")
	script := "#!/bin/sh\nexit " + itoa(exitCode) + "\n"
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

func TestRunRecordsSuccess(t *testing.T) {
	bin := fakeComposeExec(t, 0)
	cd := container.NewDriver(bin, nil, "docker-compose.yml")
	d := deploy.NewDriver(cd, "site.yml")

	rec, err := d.Run(context.Background(), deploy.Options{
		Distro:        model.DistroDebian,
		App:           "web-app-nextcloud",
		Pass:          model.PassSync,
		Service:       "app",
		InventoryPath: "inventory/server.yml",
		VaultPassFile: "inventory/.password",
	})
	require.NoError(t, err)
	require.Equal(t, 0, rec.ExitCode)
	require.True(t, rec.Success())
}

func TestRunRecordsNonZeroExit(t *testing.T) {
	bin := fakeComposeExec(t, 3)
	cd := container.NewDriver(bin, nil, "docker-compose.yml")
	d := deploy.NewDriver(cd, "site.yml")

	rec, err := d.Run(context.Background(), deploy.Options{
		Distro:        model.DistroDebian,
		App:           "web-app-nextcloud",
		Pass:          model.PassSync,
		Service:       "app",
		InventoryPath: "inventory/server.yml",
		VaultPassFile: "inventory/.password",
	})
	require.NoError(t, err)
	require.Equal(t, 3, rec.ExitCode)
	require.False(t, rec.Success())
	require.Equal(t, model.CauseNonZeroExit, rec.Cause)
}

func fakeComposeSleep(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	bin := filepath.Join(dir, "compose-stub.sh")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\nsleep 30\n"), 0o755))
	return bin
}

// TestRunRecordsCauseTimeoutOnCancellation asserts that a user cancellation
// (ctx cancelled, e.g. SIGINT/SIGTERM via cmd.ProcessContext) is folded into
// cause=timeout on the RunRecord, per spec.md §5's "coordinator aggregates
// cancellations and marks affected RunRecords with cause=timeout" rule —
// never cause=non_zero_exit, which is reserved for the playbook's own exit.
func TestRunRecordsCauseTimeoutOnCancellation(t *testing.T) {
	bin := fakeComposeSleep(t)
	cd := container.NewDriver(bin, nil, "docker-compose.yml")
	d := deploy.NewDriver(cd, "site.yml")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	var rec model.RunRecord
	var err error
	go func() {
		rec, err = d.Run(ctx, deploy.Options{
			Distro:        model.DistroDebian,
			App:           "web-app-nextcloud",
			Pass:          model.PassSync,
			Service:       "app",
			InventoryPath: "inventory/server.yml",
			VaultPassFile: "inventory/.password",
			GracePeriod:   20 * time.Millisecond,
		})
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
		require.NoError(t, err)
		require.Equal(t, model.CauseTimeout, rec.Cause)
	case <-time.After(5 * time.Second):
		t.Fatal("cancellation was not honored promptly")
	}
}
