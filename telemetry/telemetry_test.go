package telemetry

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	events []Event
}

func (r *recordingSink) Emit(event Event) {
	r.events = append(r.events, event)
}

func TestMultiplexFansOut(t *testing.T) {
	first := &recordingSink{}
	second := &recordingSink{}
	mux := MultiplexTelemetry{Sinks: []Telemetry{first, second}}

	mux.Emit(Event{Type: EventRoundStart, RunID: "run-1", Round: 0})

	require.Len(t, first.events, 1)
	require.Len(t, second.events, 1)
	assert.Equal(t, EventRoundStart, first.events[0].Type)
	assert.Equal(t, "run-1", second.events[0].RunID)
}

func TestJSONFileTelemetryWritesNDJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.ndjson")
	sink, err := NewJSONFileTelemetry(path)
	require.NoError(t, err)

	sink.Emit(Event{Type: EventRunStart, RunID: "run-1", Timestamp: time.Now().UTC()})
	sink.Emit(Event{Type: EventCheckFail, RunID: "run-1", Round: 1, Message: "Syntax error."})
	require.NoError(t, sink.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var evt Event
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &evt))
		lines = append(lines, evt)
	}
	require.NoError(t, scanner.Err())
	require.Len(t, lines, 2)
	assert.Equal(t, EventRunStart, lines[0].Type)
	assert.Equal(t, EventCheckFail, lines[1].Type)
	assert.Equal(t, "Syntax error.", lines[1].Message)
}

func TestChannelTelemetryDropsWhenFull(t *testing.T) {
	sink := NewChannelTelemetry(1)
	sink.Emit(Event{Type: EventRoundStart, Round: 0})
	sink.Emit(Event{Type: EventRoundStart, Round: 1})

	select {
	case evt := <-sink.Events():
		assert.Equal(t, 0, evt.Round)
	default:
		t.Fatal("expected a buffered event")
	}
	select {
	case evt := <-sink.Events():
		t.Fatalf("expected the second event to be dropped, got round %d", evt.Round)
	default:
	}
}
