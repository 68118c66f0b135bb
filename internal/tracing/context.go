package tracing

import (
	"context"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// TraceIDKey is the context key for trace ID
	TraceIDKey ContextKey = "trace_id"
	// InvocationIDKey is the context key for a single command invocation
	InvocationIDKey ContextKey = "invocation_id"
	// CommandKey is the context key for the command being executed
	CommandKey ContextKey = "command"
	// ExtensionIDKey is the context key for the target extension
	ExtensionIDKey ContextKey = "extension_id"
)

// TraceContext holds tracing information
type TraceContext struct {
	TraceID      string
	InvocationID string
	Command      string
	ExtensionID  string
}

// NewTraceID generates a new trace ID
func NewTraceID() string {
	return uuid.New().String()
}

// NewInvocationID generates a short id for one command invocation
func NewInvocationID() string {
	id, err := gonanoid.New()
	if err != nil {
		return uuid.New().String()
	}
	return id
}

// WithTraceID adds a trace ID to the context
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// WithInvocationID adds an invocation ID to the context
func WithInvocationID(ctx context.Context, invocationID string) context.Context {
	return context.WithValue(ctx, InvocationIDKey, invocationID)
}

// WithCommand adds a command name to the context
func WithCommand(ctx context.Context, command string) context.Context {
	return context.WithValue(ctx, CommandKey, command)
}

// WithExtensionID adds an extension ID to the context
func WithExtensionID(ctx context.Context, extensionID string) context.Context {
	return context.WithValue(ctx, ExtensionIDKey, extensionID)
}

func getString(ctx context.Context, key ContextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// GetTraceID retrieves the trace ID from the context
func GetTraceID(ctx context.Context) string {
	return getString(ctx, TraceIDKey)
}

// GetInvocationID retrieves the invocation ID from the context
func GetInvocationID(ctx context.Context) string {
	return getString(ctx, InvocationIDKey)
}

// GetCommand retrieves the command name from the context
func GetCommand(ctx context.Context) string {
	return getString(ctx, CommandKey)
}

// GetExtensionID retrieves the extension ID from the context
func GetExtensionID(ctx context.Context) string {
	return getString(ctx, ExtensionIDKey)
}

// FromContext extracts all tracing information from the context
func FromContext(ctx context.Context) *TraceContext {
	return &TraceContext{
		TraceID:      GetTraceID(ctx),
		InvocationID: GetInvocationID(ctx),
		Command:      GetCommand(ctx),
		ExtensionID:  GetExtensionID(ctx),
	}
}

// NewRequestContext returns ctx with a fresh trace ID unless one is already set
func NewRequestContext(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if GetTraceID(ctx) != "" {
		return ctx
	}
	return WithTraceID(ctx, NewTraceID())
}
