package audit

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/harun/graviton/internal/tracing"
)

// TypeExtension is the event type of extension registrations and invocations
const TypeExtension = "extension"

// Event is one line of the audit log
type Event struct {
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Action    string                 `json:"action"` // e.g. "invoke:mock_echo", "register:mock_echo"
	Status    string                 `json:"status"` // success, failure, not_found
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	TraceID   string                 `json:"trace_id,omitempty"`
}

// Logger appends audit events as JSON lines
type Logger struct {
	logger zerolog.Logger
	mu     sync.Mutex
	closer io.Closer
}

// New creates an audit logger writing to w
func New(w io.Writer) *Logger {
	return &Logger{
		logger: zerolog.New(w),
	}
}

// Open creates an audit logger appending to the file at path
func Open(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}

	l := New(file)
	l.closer = file
	return l, nil
}

// Record writes event and, when ctx carries a recording span, adds it as a
// span event
func (l *Logger) Record(ctx context.Context, event Event) {
	if l == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.TraceID == "" {
		event.TraceID = tracing.GetTraceID(ctx)
	}

	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		span.AddEvent(event.Action, trace.WithAttributes(
			attribute.String("audit.type", event.Type),
			attribute.String("audit.status", event.Status),
		))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entry := l.logger.Log().
		Str("type", event.Type).
		Time("timestamp", event.Timestamp).
		Str("action", event.Action).
		Str("status", event.Status)

	if event.TraceID != "" {
		entry.Str("trace_id", event.TraceID)
	}
	if event.Metadata != nil {
		entry.Interface("metadata", event.Metadata)
	}

	entry.Send()
}

// RecordInvoke records one extension dispatch. The prompt itself is never
// written, only its length.
func (l *Logger) RecordInvoke(ctx context.Context, extensionID, status string, promptLen int, d time.Duration) {
	l.Record(ctx, Event{
		Type:   TypeExtension,
		Action: "invoke:" + extensionID,
		Status: status,
		Metadata: map[string]interface{}{
			"prompt_length": promptLen,
			"duration_ms":   d.Milliseconds(),
		},
	})
}

// RecordRegister records an extension registration
func (l *Logger) RecordRegister(ctx context.Context, extensionID, name string) {
	l.Record(ctx, Event{
		Type:     TypeExtension,
		Action:   "register:" + extensionID,
		Status:   "success",
		Metadata: map[string]interface{}{"name": name},
	})
}

// Close closes the underlying file, if any
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}
