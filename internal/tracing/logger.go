package tracing

import (
	"context"

	"github.com/rs/zerolog"
)

// LoggerFromContext adds the tracing fields found in ctx to logger
func LoggerFromContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	tc := FromContext(ctx)
	if tc.TraceID == "" && tc.InvocationID == "" && tc.Command == "" && tc.ExtensionID == "" {
		return logger
	}

	lc := logger.With()
	if tc.TraceID != "" {
		lc = lc.Str("trace_id", tc.TraceID)
	}
	if tc.InvocationID != "" {
		lc = lc.Str("invocation_id", tc.InvocationID)
	}
	if tc.Command != "" {
		lc = lc.Str("command", tc.Command)
	}
	if tc.ExtensionID != "" {
		lc = lc.Str("extension_id", tc.ExtensionID)
	}
	return lc.Logger()
}
