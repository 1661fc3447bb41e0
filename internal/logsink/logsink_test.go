package logsink_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/logsink"
	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/model"
)

func TestWithJobLogWritesHeaderBanner(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "job.log")

	err := logsink.WithJobLog(path, logsink.Header{
		DeployType: "server",
		Distro:     model.DistroDebian,
		App:        "web-app-keycloak",
		Pass:       model.PassSync,
	}, func(w *logsink.JobWriter) error {
		w.Info("doing work")
		return nil
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	require.True(t, strings.HasPrefix(content, strings.Repeat("=", 60)))
	require.Contains(t, content, "deploy_type=server distro=debian app=web-app-keycloak")
	require.Contains(t, content, "pass=sync")
	require.Contains(t, content, "doing work")
}

func TestWithJobLogAppendsNotTruncates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "job.log")

	h := logsink.Header{DeployType: "server", Distro: model.DistroDebian, App: "web-app-keycloak"}
	require.NoError(t, logsink.WithJobLog(path, h, func(w *logsink.JobWriter) error {
		w.Info("first session")
		return nil
	}))
	require.NoError(t, logsink.WithJobLog(path, h, func(w *logsink.JobWriter) error {
		w.Info("second session")
		return nil
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	require.Contains(t, content, "first session")
	require.Contains(t, content, "second session")
	require.Equal(t, 4, strings.Count(content, strings.Repeat("=", 60)), "two sessions, two banner lines each")
}
