package procrunner_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/procrunner"
)

func TestRunSuccess(t *testing.T) {
	res, err := procrunner.Run(context.Background(), procrunner.Options{
		Cmd:  "true",
		Args: nil,
	})
	require.NoError(t, err)
	require.Equal(t, 0, res.ExitCode)
	require.Equal(t, procrunner.CauseNone, res.Cause)
}

func TestRunNonZeroExit(t *testing.T) {
	res, err := procrunner.Run(context.Background(), procrunner.Options{
		Cmd: "false",
	})
	require.NoError(t, err, "non-zero exit must not be reported as a Go error")
	require.Equal(t, 1, res.ExitCode)
	require.Equal(t, procrunner.CauseNonZero, res.Cause)
}

func TestRunCapturesOutput(t *testing.T) {
	res, err := procrunner.Run(context.Background(), procrunner.Options{
		Cmd:  "sh",
		Args: []string{"-c", "echo hello; echo world 1>&2"},
	})
	require.NoError(t, err)
	require.Equal(t, "hello\n", string(res.Stdout))
	require.Equal(t, "world\n", string(res.Stderr))
}

func TestRunSpawnFailure(t *testing.T) {
	_, err := procrunner.Run(context.Background(), procrunner.Options{
		Cmd: "/no/such/binary/exists",
	})
	require.Error(t, err)
}

func TestRunTimeout(t *testing.T) {
	start := time.Now()
	res, err := procrunner.Run(context.Background(), procrunner.Options{
		Cmd:         "sleep",
		Args:        []string{"30"},
		Timeout:     100 * time.Millisecond,
		GracePeriod: 50 * time.Millisecond,
	})
	require.NoError(t, err)
	require.Equal(t, procrunner.CauseTimeout, res.Cause)
	require.Less(t, time.Since(start), 5*time.Second, "timeout+grace contract must bound wall-clock duration")
}

func TestRunContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	var res *procrunner.Result
	go func() {
		var err error
		res, err = procrunner.Run(ctx, procrunner.Options{
			Cmd:  "sleep",
			Args: []string{"30"},
		})
		require.NoError(t, err)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
		require.NotEqual(t, procrunner.CauseNone, res.Cause)
	case <-time.After(5 * time.Second):
		t.Fatal("cancellation was not honored promptly")
	}
}
