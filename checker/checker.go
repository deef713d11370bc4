// Package checker runs extracted proof code through an external Coq
// toolchain and reports pass/fail plus the diagnostic text.
package checker

import "context"

// Result is the outcome of one checker invocation. Message holds the
// success confirmation or the raw diagnostic text on failure.
type Result struct {
	Success bool
	Message string
}

// Checker verifies one piece of proof code. Implementations write the code
// to the configured target file before invoking the toolchain, so the file
// always holds the most recently checked attempt. A returned error means the
// toolchain itself could not be run; a compile failure is a Result, not an
// error.
type Checker interface {
	Check(ctx context.Context, code string) (Result, error)
}
