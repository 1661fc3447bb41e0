package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/catalog"
	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/model"
)

func manifests() []catalog.Manifest {
	return []catalog.Manifest{
		{ID: "web-app-foo", DeployType: "server", Lifecycle: "stable"},
		{ID: "web-app-oauth2-proxy", DeployType: "server", Lifecycle: "stable"},
		{ID: "web-svc-bar", DeployType: "server", Lifecycle: "stable"},
		{ID: "desk-baz", DeployType: "workstation", Lifecycle: "stable"},
	}
}

func TestResolveCatalogFiltering(t *testing.T) {
	res, err := catalog.Resolve(manifests(), catalog.ResolveInput{
		DeployType:   model.DeployTypeServer,
		Lifecycles:   model.DefaultLifecycles(),
		IncludeRegex: `^web-app-`,
		ExcludeRegex: `^web-app-oauth2-proxy$`,
	})
	require.NoError(t, err)
	require.Equal(t, model.Catalog{"web-app-foo"}, res.Kept)
}

func TestResolveUniversalIsSetDifference(t *testing.T) {
	ms := []catalog.Manifest{
		{ID: "web-app-a", DeployType: "server", Lifecycle: "stable"},
		{ID: "desk-b", DeployType: "workstation", Lifecycle: "stable"},
		{ID: "util-desk-c", DeployType: "workstation", Lifecycle: "stable"},
		{ID: "misc-d", DeployType: "universal", Lifecycle: "stable"},
	}
	res, err := catalog.Resolve(ms, catalog.ResolveInput{
		DeployType: model.DeployTypeUniversal,
		Lifecycles: model.DefaultLifecycles(),
	})
	require.NoError(t, err)
	require.Equal(t, model.Catalog{"misc-d"}, res.Kept)
}

func TestResolveDeterministic(t *testing.T) {
	in := catalog.ResolveInput{DeployType: model.DeployTypeServer, Lifecycles: model.DefaultLifecycles()}
	r1, err := catalog.Resolve(manifests(), in)
	require.NoError(t, err)
	r2, err := catalog.Resolve(manifests(), in)
	require.NoError(t, err)
	require.Equal(t, r1.Kept, r2.Kept)
}

func TestResolveMonotoneIncludeFilter(t *testing.T) {
	ms := manifests()
	narrow, err := catalog.Resolve(ms, catalog.ResolveInput{
		DeployType:   model.DeployTypeServer,
		Lifecycles:   model.DefaultLifecycles(),
		IncludeRegex: `^web-app-foo$`,
	})
	require.NoError(t, err)
	wide, err := catalog.Resolve(ms, catalog.ResolveInput{
		DeployType:   model.DeployTypeServer,
		Lifecycles:   model.DefaultLifecycles(),
		IncludeRegex: `^web-app-`,
	})
	require.NoError(t, err)

	wideSet := make(map[model.AppId]bool)
	for _, id := range wide.Kept {
		wideSet[id] = true
	}
	for _, id := range narrow.Kept {
		require.True(t, wideSet[id], "narrow include result must be a subset of the wide include result")
	}
}

func TestResolveEmptyIsValid(t *testing.T) {
	res, err := catalog.Resolve(manifests(), catalog.ResolveInput{
		DeployType:   model.DeployTypeServer,
		Lifecycles:   model.DefaultLifecycles(),
		IncludeRegex: `^nothing-matches-this$`,
	})
	require.NoError(t, err)
	require.Empty(t, res.Kept)
}

func TestResolveStorageGateEmitsWarningsSeparately(t *testing.T) {
	ms := []catalog.Manifest{
		{ID: "web-app-small", DeployType: "server", Lifecycle: "stable", StorageRequiredMB: 100},
		{ID: "web-app-big", DeployType: "server", Lifecycle: "stable", StorageRequiredMB: 10000},
	}
	res, err := catalog.Resolve(ms, catalog.ResolveInput{
		DeployType:         model.DeployTypeServer,
		Lifecycles:         model.DefaultLifecycles(),
		StorageAvailableMB: 1000,
	})
	require.NoError(t, err)
	require.Equal(t, model.Catalog{"web-app-small"}, res.Kept)
	require.Equal(t, []model.AppId{"web-app-big"}, res.StorageWarnings)
}

func TestResolveWhitelist(t *testing.T) {
	res, err := catalog.Resolve(manifests(), catalog.ResolveInput{
		DeployType: model.DeployTypeServer,
		Lifecycles: model.DefaultLifecycles(),
		Whitelist:  []model.AppId{"web-svc-bar"},
	})
	require.NoError(t, err)
	require.Equal(t, model.Catalog{"web-svc-bar"}, res.Kept)
}

func TestResolveInvalidDeployType(t *testing.T) {
	_, err := catalog.Resolve(manifests(), catalog.ResolveInput{DeployType: "bogus"})
	require.Error(t, err)
}

func TestResolveInvalidRegex(t *testing.T) {
	_, err := catalog.Resolve(manifests(), catalog.ResolveInput{
		DeployType:   model.DeployTypeServer,
		Lifecycles:   model.DefaultLifecycles(),
		IncludeRegex: "(unterminated",
	})
	require.Error(t, err)
}
