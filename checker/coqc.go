package checker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// SuccessMessage is reported when the toolchain accepts the proof.
const SuccessMessage = "Coq code compiled successfully."

// CoqcChecker invokes the coqc batch compiler on the target file. Stdout is
// captured but discarded; on a non-zero exit, stderr is written to the error
// log and returned as the diagnostic.
type CoqcChecker struct {
	Binary   string
	Args     []string
	Filename string
	ErrorLog string
	Timeout  time.Duration
	Runner   CommandRunner
}

// NewCoqcChecker builds a checker with the default runner.
func NewCoqcChecker(binary, filename string) *CoqcChecker {
	return &CoqcChecker{
		Binary:   binary,
		Filename: filename,
		Runner:   LocalCommandRunner{},
	}
}

// Check writes the code to the target file and compiles it.
func (c *CoqcChecker) Check(ctx context.Context, code string) (Result, error) {
	filename := c.filename()
	if err := os.WriteFile(filename, []byte(code), 0o644); err != nil {
		return Result{}, fmt.Errorf("write proof file: %w", err)
	}
	args := append([]string{c.binary()}, c.Args...)
	args = append(args, filename)
	_, stderr, err := c.runner().Run(ctx, CommandRequest{Args: args, Timeout: c.Timeout})
	if err == nil {
		return Result{Success: true, Message: SuccessMessage}, nil
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		// The binary could not be run at all (missing, killed, timed out).
		return Result{}, fmt.Errorf("run %s: %w", c.binary(), err)
	}
	if writeErr := os.WriteFile(c.errorLog(), []byte(stderr), 0o644); writeErr != nil {
		return Result{}, fmt.Errorf("write error log: %w", writeErr)
	}
	return Result{Success: false, Message: stderr}, nil
}

func (c *CoqcChecker) binary() string {
	if c.Binary != "" {
		return c.Binary
	}
	return "coqc"
}

func (c *CoqcChecker) filename() string {
	if c.Filename != "" {
		return c.Filename
	}
	return "temp.v"
}

func (c *CoqcChecker) errorLog() string {
	if c.ErrorLog != "" {
		return c.ErrorLog
	}
	return "coq_error.log"
}

func (c *CoqcChecker) runner() CommandRunner {
	if c.Runner != nil {
		return c.Runner
	}
	return LocalCommandRunner{}
}
