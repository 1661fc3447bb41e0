package inventory_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gotest.tools/v3/assert"

	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/config"
	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/inventory"
	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/model"
)

func dirsAt(t *testing.T) config.Dirs {
	t.Helper()
	c := &config.Config{InventoryDir: t.TempDir()}
	return c.Dirs()
}

func TestBuildIsIdempotent(t *testing.T) {
	dirs := dirsAt(t)
	apps := model.Catalog{"web-app-foo", "web-svc-bar"}
	vars := []inventory.VarEntry{
		{Key: inventory.VarAsyncEnabled, Value: false},
		{Key: inventory.VarRuntime, Value: "docker"},
	}

	r1, err := inventory.Build(dirs, "server", model.DistroDebian, apps, vars)
	require.NoError(t, err)
	b1, err := os.ReadFile(r1.InventoryPath)
	require.NoError(t, err)

	r2, err := inventory.Build(dirs, "server", model.DistroDebian, apps, vars)
	require.NoError(t, err)
	b2, err := os.ReadFile(r2.InventoryPath)
	require.NoError(t, err)

	assert.DeepEqual(t, b1, b2)
}

func TestBuildRejectsEmptyApps(t *testing.T) {
	dirs := dirsAt(t)
	_, err := inventory.Build(dirs, "server", model.DistroDebian, model.Catalog{}, nil)
	require.Error(t, err)
}

func TestBuildDoesNotRotateExistingPassword(t *testing.T) {
	dirs := dirsAt(t)
	apps := model.Catalog{"web-app-foo"}

	r1, err := inventory.Build(dirs, "server", model.DistroDebian, apps, nil)
	require.NoError(t, err)
	pw1, err := os.ReadFile(r1.PasswordPath)
	require.NoError(t, err)

	r2, err := inventory.Build(dirs, "server", model.DistroDebian, apps, nil)
	require.NoError(t, err)
	pw2, err := os.ReadFile(r2.PasswordPath)
	require.NoError(t, err)

	require.Equal(t, pw1, pw2)
}

func TestBuildWritesExpectedLayout(t *testing.T) {
	dirs := dirsAt(t)
	apps := model.Catalog{"web-app-foo"}

	r, err := inventory.Build(dirs, "server", model.DistroArch, apps, nil)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dirs.Inventory("server"), "server.yml"), r.InventoryPath)
	require.Equal(t, filepath.Join(dirs.Inventory("server"), ".password"), r.PasswordPath)

	info, err := os.Stat(r.PasswordPath)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
