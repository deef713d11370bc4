package telemetry

import (
	"encoding/json"
	"log"
	"os"
	"sync"
	"time"
)

// EventType categorizes telemetry events.
type EventType string

const (
	EventRunStart    EventType = "run_start"
	EventRunFinish   EventType = "run_finish"
	EventRoundStart  EventType = "round_start"
	EventPrompt      EventType = "prompt"
	EventModelReply  EventType = "model_reply"
	EventExtract     EventType = "extract"
	EventExtractFail EventType = "extract_fail"
	EventCheckPass   EventType = "check_pass"
	EventCheckFail   EventType = "check_fail"
)

// Event captures structured telemetry data for one phase of a run.
type Event struct {
	Type      EventType              `json:"type"`
	RunID     string                 `json:"run_id,omitempty"`
	Round     int                    `json:"round"`
	Message   string                 `json:"message,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Telemetry receives the events the attempt loop emits. Tests typically swap
// in lightweight recorders; the CLI wires a stdout logger, an NDJSON file, or
// the watch UI channel.
type Telemetry interface {
	Emit(event Event)
}

// MultiplexTelemetry broadcasts events to multiple sinks.
type MultiplexTelemetry struct {
	Sinks []Telemetry
}

// Emit forwards the event to all registered sinks.
func (m MultiplexTelemetry) Emit(event Event) {
	for _, s := range m.Sinks {
		s.Emit(event)
	}
}

// JSONFileTelemetry writes events as newline-delimited JSON to a file.
// This allows external tools to tail and process the stream in real-time.
type JSONFileTelemetry struct {
	path string
	file *os.File
	enc  *json.Encoder
	mu   sync.Mutex
}

// NewJSONFileTelemetry opens (or creates) the log file.
func NewJSONFileTelemetry(path string) (*JSONFileTelemetry, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONFileTelemetry{
		path: path,
		file: f,
		enc:  json.NewEncoder(f),
	}, nil
}

// Emit writes the JSON record.
func (j *JSONFileTelemetry) Emit(event Event) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.enc != nil {
		_ = j.enc.Encode(event)
	}
}

// Close releases the file handle.
func (j *JSONFileTelemetry) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file != nil {
		return j.file.Close()
	}
	return nil
}

// LoggerTelemetry emits events via the standard logger. It is the default
// sink for the CLI so every round transition is visible without extra
// tooling.
type LoggerTelemetry struct {
	Logger *log.Logger
}

// Emit logs the event.
func (t LoggerTelemetry) Emit(event Event) {
	logger := t.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger.Printf("[%s] run=%s round=%d msg=%s\n", event.Type, event.RunID, event.Round, event.Message)
}

// ChannelTelemetry feeds events into a buffered channel, letting a UI consume
// them from its own event loop. Emit never blocks: when the consumer is gone
// or slow, events are dropped instead of wedging the attempt loop.
type ChannelTelemetry struct {
	ch chan Event
}

// NewChannelTelemetry builds a sink with the given buffer size.
func NewChannelTelemetry(buffer int) *ChannelTelemetry {
	if buffer <= 0 {
		buffer = 64
	}
	return &ChannelTelemetry{ch: make(chan Event, buffer)}
}

// Emit enqueues the event if there is room.
func (c *ChannelTelemetry) Emit(event Event) {
	select {
	case c.ch <- event:
	default:
	}
}

// Events exposes the receive side of the channel.
func (c *ChannelTelemetry) Events() <-chan Event {
	return c.ch
}

// Close ends the stream; consumers see a closed channel.
func (c *ChannelTelemetry) Close() {
	close(c.ch)
}
