package checker

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	stdout string
	stderr string
	err    error
	seen   []CommandRequest
}

func (f *fakeRunner) Run(ctx context.Context, req CommandRequest) (string, string, error) {
	f.seen = append(f.seen, req)
	return f.stdout, f.stderr, f.err
}

func TestCoqcCheckerSuccess(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "proof.v")
	runner := &fakeRunner{stdout: "ignored output"}
	chk := &CoqcChecker{Filename: filename, Runner: runner}

	res, err := chk.Check(context.Background(), "Lemma t: 1=1. Proof. reflexivity. Qed.")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "Coq code compiled successfully.", res.Message)

	written, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Equal(t, "Lemma t: 1=1. Proof. reflexivity. Qed.", string(written))

	require.Len(t, runner.seen, 1)
	assert.Equal(t, []string{"coqc", filename}, runner.seen[0].Args)
}

func TestCoqcCheckerCompileFailure(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "proof.v")
	errorLog := filepath.Join(dir, "errors.log")
	diagnostic := "File \"proof.v\", line 1, characters 0-5:\nError: Syntax error.\n"
	runner := &fakeRunner{
		stderr: diagnostic,
		err:    &exec.ExitError{ProcessState: &os.ProcessState{}},
	}
	chk := &CoqcChecker{Filename: filename, ErrorLog: errorLog, Runner: runner}

	res, err := chk.Check(context.Background(), "Lemma broken")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, diagnostic, res.Message)

	logged, err := os.ReadFile(errorLog)
	require.NoError(t, err)
	assert.Equal(t, diagnostic, string(logged))
}

func TestCoqcCheckerErrorLogOverwrittenPerAttempt(t *testing.T) {
	dir := t.TempDir()
	chk := &CoqcChecker{
		Filename: filepath.Join(dir, "proof.v"),
		ErrorLog: filepath.Join(dir, "errors.log"),
	}
	runner := &fakeRunner{stderr: "first failure", err: &exec.ExitError{ProcessState: &os.ProcessState{}}}
	chk.Runner = runner
	_, err := chk.Check(context.Background(), "one")
	require.NoError(t, err)

	runner.stderr = "second failure"
	_, err = chk.Check(context.Background(), "two")
	require.NoError(t, err)

	logged, err := os.ReadFile(chk.ErrorLog)
	require.NoError(t, err)
	assert.Equal(t, "second failure", string(logged))

	written, err := os.ReadFile(chk.Filename)
	require.NoError(t, err)
	assert.Equal(t, "two", string(written))
}

func TestCoqcCheckerSpawnFaultIsFatal(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{err: errors.New("exec: \"coqc\": executable file not found in $PATH")}
	chk := &CoqcChecker{Filename: filepath.Join(dir, "proof.v"), Runner: runner}

	_, err := chk.Check(context.Background(), "Lemma t: 1=1.")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "coqc")
}

func TestCoqcCheckerExtraArgsPrecedeFilename(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "proof.v")
	runner := &fakeRunner{}
	chk := &CoqcChecker{Binary: "coqc", Args: []string{"-q"}, Filename: filename, Runner: runner}

	_, err := chk.Check(context.Background(), "Lemma t: 1=1.")
	require.NoError(t, err)
	require.Len(t, runner.seen, 1)
	assert.Equal(t, []string{"coqc", "-q", filename}, runner.seen[0].Args)
}
