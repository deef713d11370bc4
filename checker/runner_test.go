package checker

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalCommandRunnerCapturesStreams(t *testing.T) {
	runner := LocalCommandRunner{}
	stdout, stderr, err := runner.Run(context.Background(), CommandRequest{
		Args: []string{"sh", "-c", "echo out; echo err 1>&2"},
	})
	require.NoError(t, err)
	assert.Equal(t, "out\n", stdout)
	assert.Equal(t, "err\n", stderr)
}

func TestLocalCommandRunnerNonZeroExit(t *testing.T) {
	runner := LocalCommandRunner{}
	_, _, err := runner.Run(context.Background(), CommandRequest{
		Args: []string{"sh", "-c", "exit 3"},
	})
	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.ExitCode())
}

func TestLocalCommandRunnerTimeout(t *testing.T) {
	runner := LocalCommandRunner{}
	_, _, err := runner.Run(context.Background(), CommandRequest{
		Args:    []string{"sh", "-c", "sleep 5"},
		Timeout: 100 * time.Millisecond,
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLocalCommandRunnerRequiresArgs(t *testing.T) {
	_, _, err := LocalCommandRunner{}.Run(context.Background(), CommandRequest{})
	assert.Error(t, err)
}
