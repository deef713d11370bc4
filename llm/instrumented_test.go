package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexcodex/qedloop/telemetry"
)

type stubClient struct {
	reply string
	err   error
	seen  []Message
}

func (s *stubClient) Chat(ctx context.Context, messages []Message) (string, error) {
	s.seen = messages
	return s.reply, s.err
}

type recordingSink struct {
	events []telemetry.Event
}

func (r *recordingSink) Emit(event telemetry.Event) {
	r.events = append(r.events, event)
}

func TestInstrumentedClientEmitsPromptAndReply(t *testing.T) {
	sink := &recordingSink{}
	inner := &stubClient{reply: "Qed."}
	client := NewInstrumentedClient(inner, sink, false)

	ctx := telemetry.WithRunContext(context.Background(), telemetry.RunContext{RunID: "run-1", Round: 2})
	reply, err := client.Chat(ctx, []Message{{Role: "user", Content: "prove it"}})
	require.NoError(t, err)
	assert.Equal(t, "Qed.", reply)

	require.Len(t, sink.events, 2)
	assert.Equal(t, telemetry.EventPrompt, sink.events[0].Type)
	assert.Equal(t, "run-1", sink.events[0].RunID)
	assert.Equal(t, 2, sink.events[0].Round)
	assert.Equal(t, "prove it", sink.events[0].Metadata["prompt_preview"])
	assert.Equal(t, telemetry.EventModelReply, sink.events[1].Type)
	assert.Equal(t, "Qed.", sink.events[1].Metadata["reply_preview"])
}

func TestInstrumentedClientRecordsErrors(t *testing.T) {
	sink := &recordingSink{}
	inner := &stubClient{err: errors.New("connection refused")}
	client := NewInstrumentedClient(inner, sink, false)

	_, err := client.Chat(context.Background(), []Message{{Role: "user", Content: "ping"}})
	require.Error(t, err)

	require.Len(t, sink.events, 2)
	assert.Equal(t, "connection refused", sink.events[1].Metadata["error"])
}

func TestClipShortensLongInput(t *testing.T) {
	long := make([]byte, 2000)
	for i := range long {
		long[i] = 'a'
	}
	clipped := clip(string(long), 100)
	assert.Len(t, clipped, 100+len("...(truncated)"))
	assert.Equal(t, "short", clip("short", 100))
}
