// Package journal persists run and attempt history so past proof sessions
// can be inspected after the fact.
package journal

import (
	"context"
	"time"
)

// Run is one invocation of the attempt loop.
type Run struct {
	ID         string    `json:"id"`
	Task       string    `json:"task"`
	Model      string    `json:"model"`
	Filename   string    `json:"filename"`
	Outcome    string    `json:"outcome"`
	Rounds     int       `json:"rounds"`
	Diagnostic string    `json:"diagnostic,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Attempt is one round inside a run.
type Attempt struct {
	RunID      string    `json:"run_id"`
	Round      int       `json:"round"`
	Prompt     string    `json:"prompt"`
	Reply      string    `json:"reply"`
	Code       string    `json:"code,omitempty"`
	Success    bool      `json:"success"`
	Diagnostic string    `json:"diagnostic,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Recorder persists runs and attempts. The loop records best-effort; a
// failing recorder never stops a run.
type Recorder interface {
	SaveRun(ctx context.Context, run Run) error
	SaveAttempt(ctx context.Context, attempt Attempt) error
}
