// Package proof drives the generate/extract/check loop that turns a natural
// language task into a verified Coq proof.
package proof

import (
	"context"
	"fmt"
	"time"

	"github.com/lexcodex/qedloop/checker"
	"github.com/lexcodex/qedloop/journal"
	"github.com/lexcodex/qedloop/llm"
	"github.com/lexcodex/qedloop/telemetry"
)

// DefaultMaxAttempts bounds the loop when the session does not say otherwise.
const DefaultMaxAttempts = 2

// extractionFailedMessage is reported when the model reply carries no fenced
// code block.
const extractionFailedMessage = "No code segment found in response."

// Session describes one proof task. Model and Filename are informational
// here; the wired client and checker already carry them operationally.
type Session struct {
	Task        string
	Preamble    string
	Model       string
	Filename    string
	MaxAttempts int
}

// Outcome is the terminal state of a run.
type Outcome string

const (
	OutcomeSuccess          Outcome = "success"
	OutcomeFailed           Outcome = "failed"
	OutcomeExtractionFailed Outcome = "extraction_failed"
)

// RunResult summarizes a finished run. Diagnostic holds the success message,
// the extraction failure notice, or the last round's checker output.
type RunResult struct {
	RunID      string
	Outcome    Outcome
	Rounds     int
	Code       string
	Diagnostic string
}

// Controller drives a bounded sequence of attempts. Each round builds a
// prompt, asks the model, extracts the fenced code, and hands it to the
// checker. A compile failure feeds the raw diagnostic into the next round;
// a reply without a code block ends the run immediately. Telemetry and
// Journal are optional.
type Controller struct {
	Session   Session
	Model     llm.Client
	Checker   checker.Checker
	Telemetry telemetry.Telemetry
	Journal   journal.Recorder
}

// Run executes the loop until success, extraction failure, or attempt
// exhaustion. A returned error means the model backend or the checker
// toolchain itself faulted; running out of attempts is a normal result.
func (c *Controller) Run(ctx context.Context) (RunResult, error) {
	runID := fmt.Sprintf("run-%d", time.Now().UnixNano())
	started := time.Now().UTC()
	maxAttempts := c.Session.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	preamble := c.Session.Preamble
	if preamble == "" {
		preamble = DefaultPreamble
	}
	builder := PromptBuilder{Preamble: preamble, Task: c.Session.Task}

	c.emit(telemetry.Event{
		Type:    telemetry.EventRunStart,
		RunID:   runID,
		Message: c.Session.Task,
		Metadata: map[string]interface{}{
			"model":        c.Session.Model,
			"max_attempts": maxAttempts,
		},
	})
	c.saveRun(ctx, journal.Run{
		ID:        runID,
		Task:      c.Session.Task,
		Model:     c.Session.Model,
		Filename:  c.Session.Filename,
		Outcome:   "running",
		StartedAt: started,
	})

	result := RunResult{RunID: runID}
	prior := NoError()
	for round := 0; round < maxAttempts; round++ {
		result.Rounds = round + 1
		c.emit(telemetry.Event{Type: telemetry.EventRoundStart, RunID: runID, Round: round})

		prompt := builder.Build(round == 0, prior)
		rctx := telemetry.WithRunContext(ctx, telemetry.RunContext{RunID: runID, Round: round, Task: c.Session.Task})
		reply, err := c.Model.Chat(rctx, []llm.Message{{Role: "user", Content: prompt}})
		if err != nil {
			return result, fmt.Errorf("model request: %w", err)
		}

		code := ExtractCode(reply)
		if code == "" {
			result.Outcome = OutcomeExtractionFailed
			result.Diagnostic = extractionFailedMessage
			c.emit(telemetry.Event{
				Type:    telemetry.EventExtractFail,
				RunID:   runID,
				Round:   round,
				Message: extractionFailedMessage,
			})
			c.saveAttempt(ctx, journal.Attempt{
				RunID:      runID,
				Round:      round,
				Prompt:     prompt,
				Reply:      reply,
				Diagnostic: extractionFailedMessage,
			})
			c.finishRun(ctx, result, started)
			return result, nil
		}
		result.Code = code
		c.emit(telemetry.Event{
			Type:  telemetry.EventExtract,
			RunID: runID,
			Round: round,
			Metadata: map[string]interface{}{
				"code_chars": len(code),
			},
		})

		res, err := c.Checker.Check(rctx, code)
		if err != nil {
			return result, fmt.Errorf("check proof: %w", err)
		}
		if res.Success {
			result.Outcome = OutcomeSuccess
			result.Diagnostic = res.Message
			c.emit(telemetry.Event{
				Type:    telemetry.EventCheckPass,
				RunID:   runID,
				Round:   round,
				Message: res.Message,
			})
			c.saveAttempt(ctx, journal.Attempt{
				RunID:   runID,
				Round:   round,
				Prompt:  prompt,
				Reply:   reply,
				Code:    code,
				Success: true,
			})
			c.finishRun(ctx, result, started)
			return result, nil
		}

		result.Diagnostic = res.Message
		c.emit(telemetry.Event{
			Type:    telemetry.EventCheckFail,
			RunID:   runID,
			Round:   round,
			Message: res.Message,
		})
		c.saveAttempt(ctx, journal.Attempt{
			RunID:      runID,
			Round:      round,
			Prompt:     prompt,
			Reply:      reply,
			Code:       code,
			Diagnostic: res.Message,
		})
		prior = RawError(res.Message)
	}

	result.Outcome = OutcomeFailed
	c.finishRun(ctx, result, started)
	return result, nil
}

func (c *Controller) finishRun(ctx context.Context, result RunResult, started time.Time) {
	c.emit(telemetry.Event{
		Type:    telemetry.EventRunFinish,
		RunID:   result.RunID,
		Round:   result.Rounds - 1,
		Message: string(result.Outcome),
		Metadata: map[string]interface{}{
			"rounds": result.Rounds,
		},
	})
	c.saveRun(ctx, journal.Run{
		ID:         result.RunID,
		Task:       c.Session.Task,
		Model:      c.Session.Model,
		Filename:   c.Session.Filename,
		Outcome:    string(result.Outcome),
		Rounds:     result.Rounds,
		Diagnostic: result.Diagnostic,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
	})
}

func (c *Controller) emit(event telemetry.Event) {
	if c.Telemetry == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	c.Telemetry.Emit(event)
}

func (c *Controller) saveRun(ctx context.Context, run journal.Run) {
	if c.Journal == nil {
		return
	}
	_ = c.Journal.SaveRun(ctx, run)
}

func (c *Controller) saveAttempt(ctx context.Context, attempt journal.Attempt) {
	if c.Journal == nil {
		return
	}
	_ = c.Journal.SaveAttempt(ctx, attempt)
}
