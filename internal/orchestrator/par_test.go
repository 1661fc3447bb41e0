package orchestrator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/model"
)

func TestAppRunnerSucceedsThroughBothPasses(t *testing.T) {
	runner := newRunner(t, 0)
	result, err := runner.Run(context.Background(), model.DistroDebian, "web-app-nextcloud", model.Catalog{"web-app-nextcloud"})
	require.NoError(t, err)
	require.False(t, result.Failed)
	require.Len(t, result.Records, 2)
	require.Equal(t, model.PassSync, result.Records[0].Pass)
	require.Equal(t, model.PassAsync, result.Records[1].Pass)
}

func TestAppRunnerSkipsAsyncPassOnSyncFailure(t *testing.T) {
	runner := newRunner(t, 1)
	result, err := runner.Run(context.Background(), model.DistroDebian, "web-app-nextcloud", model.Catalog{"web-app-nextcloud"})
	require.NoError(t, err)
	require.True(t, result.Failed)
	require.Len(t, result.Records, 1)
	require.Equal(t, model.PassSync, result.Records[0].Pass)
}
