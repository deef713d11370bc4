package llm

import (
	"context"
	"strings"
	"time"

	"github.com/lexcodex/qedloop/telemetry"
)

// InstrumentedClient wraps a Client and emits telemetry for prompts and
// replies.
type InstrumentedClient struct {
	Inner     Client
	Telemetry telemetry.Telemetry
	Debug     bool
}

func NewInstrumentedClient(inner Client, sink telemetry.Telemetry, debug bool) *InstrumentedClient {
	return &InstrumentedClient{Inner: inner, Telemetry: sink, Debug: debug}
}

func (m *InstrumentedClient) Chat(ctx context.Context, messages []Message) (string, error) {
	m.emitPrompt(ctx, messages)
	reply, err := m.Inner.Chat(ctx, messages)
	m.emitReply(ctx, reply, err)
	return reply, err
}

func (m *InstrumentedClient) emitPrompt(ctx context.Context, messages []Message) {
	if m == nil || m.Telemetry == nil {
		return
	}
	run, _ := telemetry.RunContextFrom(ctx)
	metadata := map[string]interface{}{
		"message_count": len(messages),
	}
	if len(messages) > 0 {
		last := messages[len(messages)-1]
		metadata["prompt_chars"] = len(last.Content)
		metadata["prompt_preview"] = clip(last.Content, 1024)
		if m.Debug {
			metadata["prompt"] = clip(last.Content, 8192)
		}
	}
	m.Telemetry.Emit(telemetry.Event{
		Type:      telemetry.EventPrompt,
		RunID:     run.RunID,
		Round:     run.Round,
		Timestamp: time.Now().UTC(),
		Message:   "model prompt",
		Metadata:  metadata,
	})
}

func (m *InstrumentedClient) emitReply(ctx context.Context, reply string, err error) {
	if m == nil || m.Telemetry == nil {
		return
	}
	run, _ := telemetry.RunContextFrom(ctx)
	metadata := map[string]interface{}{
		"reply_chars":   len(reply),
		"reply_preview": clip(reply, 1024),
	}
	if m.Debug {
		metadata["reply"] = clip(reply, 8192)
	}
	if err != nil {
		metadata["error"] = err.Error()
	}
	m.Telemetry.Emit(telemetry.Event{
		Type:      telemetry.EventModelReply,
		RunID:     run.RunID,
		Round:     run.Round,
		Timestamp: time.Now().UTC(),
		Message:   "model reply",
		Metadata:  metadata,
	})
}

func clip(s string, max int) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
