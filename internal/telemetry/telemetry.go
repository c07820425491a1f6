// Package telemetry provides an optional, pluggable sink for the events this
// REPL framework emits: stream lifecycle, tool invocations, and input-request
// resolution (all emitted by the Stream Processor). Event types for plugin
// loading and notification delivery are defined but nothing emits them.
// Adapted from the teacher's generic graph-execution telemetry down to this
// system's event set.
package telemetry

import (
	"encoding/json"
	"log"
	"os"
	"sync"
	"time"
)

// EventType categorizes a telemetry Event.
type EventType string

const (
	EventStreamStart      EventType = "stream_start"
	EventStreamFinish     EventType = "stream_finish"
	EventToolInvoked      EventType = "tool_invoked"
	EventInputRequested   EventType = "input_requested"
	EventInputResolved    EventType = "input_resolved"
	EventPluginLoaded     EventType = "plugin_loaded"
	EventPluginSkipped    EventType = "plugin_skipped"
	EventNotifyDelivered  EventType = "notify_delivered"
	EventNotifySuppressed EventType = "notify_suppressed"
)

// Event is one structured telemetry record.
type Event struct {
	Type      EventType      `json:"type"`
	Message   string         `json:"message,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Telemetry is the sink contract. Implementations must never block the
// cooperative task for long; JSONFile and Logger below are safe to call
// inline.
type Telemetry interface {
	Emit(event Event)
}

// Multiplex broadcasts to multiple sinks.
type Multiplex struct {
	Sinks []Telemetry
}

func (m Multiplex) Emit(event Event) {
	for _, s := range m.Sinks {
		s.Emit(event)
	}
}

// JSONFile writes newline-delimited JSON records to a file, so external
// tools can tail and process the stream in real time.
type JSONFile struct {
	file *os.File
	enc  *json.Encoder
	mu   sync.Mutex
}

// NewJSONFile opens (or creates) the log file at path.
func NewJSONFile(path string) (*JSONFile, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONFile{file: f, enc: json.NewEncoder(f)}, nil
}

func (j *JSONFile) Emit(event Event) {
	j.mu.Lock()
	defer j.mu.Unlock()
	_ = j.enc.Encode(event)
}

// Close releases the file handle.
func (j *JSONFile) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.file.Close()
}

// Logger emits events through the ambient *log.Logger.
type Logger struct {
	L *log.Logger
}

func (t Logger) Emit(event Event) {
	logger := t.L
	if logger == nil {
		logger = log.Default()
	}
	logger.Printf("[%s] meta=%v msg=%s", event.Type, event.Metadata, event.Message)
}
