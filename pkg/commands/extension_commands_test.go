package commands

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/harun/graviton/internal/tracing"
	"github.com/harun/graviton/pkg/extension"
)

// captureLog points the global logger at a buffer for the rest of the test
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(zerolog.SyncWriter(&buf))
	t.Cleanup(func() { log.Logger = prev })

	return &buf
}

func newExtensionExecutor(t *testing.T, reg *extension.Registry) *Executor {
	t.Helper()
	e := New()
	require.NoError(t, RegisterExtensionCommands(e, reg))
	return e
}

func TestRegisterExtensionCommands(t *testing.T) {
	t.Run("registers both commands", func(t *testing.T) {
		e := newExtensionExecutor(t, extension.NewRegistry())
		assert.Equal(t, []string{ExtensionInvoke, ExtensionList}, e.Names())
	})

	t.Run("requires executor and dispatcher", func(t *testing.T) {
		assert.Error(t, RegisterExtensionCommands(nil, extension.NewRegistry()))
		assert.Error(t, RegisterExtensionCommands(New(), nil))
	})

	t.Run("twice fails", func(t *testing.T) {
		e := newExtensionExecutor(t, extension.NewRegistry())
		assert.Error(t, RegisterExtensionCommands(e, extension.NewRegistry()))
	})
}

func TestExtensionInvokeCommand(t *testing.T) {
	ctx := context.Background()
	reg := extension.NewRegistry()
	reg.LoadDefaults()
	reg.Register(extension.NewFunc("picky", "Picky", func(ctx context.Context, req extension.Request) extension.Response {
		return extension.Response{Success: false, Content: "no", ExtensionName: "Picky"}
	}))
	e := newExtensionExecutor(t, reg)

	t.Run("echo", func(t *testing.T) {
		res := e.Execute(ctx, ExtensionInvoke, map[string]interface{}{
			"prompt":       "Hello, Graviton!",
			"extension_id": "mock_echo",
		})
		require.True(t, res.Success, res.Error)

		resp, ok := res.Output.(extension.Response)
		require.True(t, ok)
		assert.Equal(t, extension.Response{
			Success:       true,
			Content:       "[Echo] Hello, Graviton!",
			ExtensionName: "Mock Echo Extension",
		}, resp)
	})

	t.Run("soft failure is a successful dispatch", func(t *testing.T) {
		res := e.Execute(ctx, ExtensionInvoke, map[string]interface{}{
			"prompt":       "x",
			"extension_id": "picky",
		})
		require.True(t, res.Success)

		resp := res.Output.(extension.Response)
		assert.False(t, resp.Success)
		assert.Equal(t, "no", resp.Content)
	})

	t.Run("not found", func(t *testing.T) {
		res := e.Execute(ctx, ExtensionInvoke, map[string]interface{}{
			"prompt":       "x",
			"extension_id": "nonexistent",
		})
		assert.False(t, res.Success)
		assert.Equal(t, KindNotFound, res.Kind)

		_, err := reg.Invoke(ctx, extension.Request{Prompt: "x", ExtensionID: "nonexistent"})
		assert.Equal(t, err.Error(), res.Error, "message is passed verbatim")

		assert.Equal(t, "nonexistent", res.Metadata["extension_id"])
		assert.Equal(t, reg.List(), res.Metadata["available"])
		assert.NotEmpty(t, res.Metadata["invocation_id"])
	})

	t.Run("missing extension id", func(t *testing.T) {
		res := e.Execute(ctx, ExtensionInvoke, map[string]interface{}{"prompt": "x"})
		assert.False(t, res.Success)
		assert.Equal(t, KindInvalidParams, res.Kind)
	})
}

func TestExtensionListCommand(t *testing.T) {
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		e := newExtensionExecutor(t, extension.NewRegistry())

		res := e.Execute(ctx, ExtensionList, nil)
		require.True(t, res.Success)
		assert.Empty(t, res.Output)
	})

	t.Run("registration order", func(t *testing.T) {
		reg := extension.NewRegistry()
		reg.LoadDefaults()
		reg.Register(extension.NewFunc("b", "Bee", nil))
		e := newExtensionExecutor(t, reg)

		res := e.Execute(ctx, ExtensionList, map[string]interface{}{})
		require.True(t, res.Success)
		assert.Equal(t, []extension.Info{
			{ID: "mock_echo", Name: "Mock Echo Extension"},
			{ID: "b", Name: "Bee"},
		}, res.Output)
	})

	t.Run("rejects parameters", func(t *testing.T) {
		e := newExtensionExecutor(t, extension.NewRegistry())

		res := e.Execute(ctx, ExtensionList, map[string]interface{}{"filter": "x"})
		assert.False(t, res.Success)
		assert.Equal(t, KindInvalidParams, res.Kind)
	})
}

type failingDispatcher struct{}

func (failingDispatcher) Invoke(ctx context.Context, req extension.Request) (extension.Response, error) {
	return extension.Response{}, errors.New("dispatcher unavailable")
}

func (failingDispatcher) List() []extension.Info { return nil }

func TestExtensionInvokeCommand_OtherError(t *testing.T) {
	e := New()
	require.NoError(t, RegisterExtensionCommands(e, failingDispatcher{}))

	res := e.Execute(context.Background(), ExtensionInvoke, map[string]interface{}{
		"prompt":       "x",
		"extension_id": "y",
	})
	assert.False(t, res.Success)
	assert.Equal(t, KindHandlerError, res.Kind)
	assert.Equal(t, "dispatcher unavailable", res.Error)
}

func TestExtensionInvokeCommand_NotFoundLogLevel(t *testing.T) {
	buf := captureLog(t)

	reg := extension.NewRegistry()
	reg.LoadDefaults()
	e := newExtensionExecutor(t, reg)

	res := e.Execute(context.Background(), ExtensionInvoke, map[string]interface{}{
		"prompt":       "x",
		"extension_id": "nonexistent",
	})
	require.Equal(t, KindNotFound, res.Kind)

	out := buf.String()
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"kind":"not_found"`)
	assert.NotContains(t, out, `"level":"error"`)
}

func TestExtensionInvokeCommand_HandlerErrorLogLevel(t *testing.T) {
	buf := captureLog(t)

	e := New()
	require.NoError(t, RegisterExtensionCommands(e, failingDispatcher{}))

	res := e.Execute(context.Background(), ExtensionInvoke, map[string]interface{}{
		"prompt":       "x",
		"extension_id": "y",
	})
	require.Equal(t, KindHandlerError, res.Kind)
	assert.Contains(t, buf.String(), `"level":"error"`)
}

func TestExecute_TraceIDMatchesSpan(t *testing.T) {
	require.NoError(t, tracing.InitOpenTelemetry("graviton-test", 1))
	t.Cleanup(func() { _ = tracing.ShutdownOpenTelemetry(context.Background()) })

	var logged, spanned string
	reg := extension.NewRegistry()
	reg.Register(extension.NewFunc("spy", "Spy", func(ctx context.Context, req extension.Request) extension.Response {
		logged = tracing.GetTraceID(ctx)
		spanned = trace.SpanFromContext(ctx).SpanContext().TraceID().String()
		return extension.Response{Success: true, ExtensionName: "Spy"}
	}))
	e := newExtensionExecutor(t, reg)

	res := e.Execute(context.Background(), ExtensionInvoke, map[string]interface{}{
		"prompt":       "x",
		"extension_id": "spy",
	})
	require.True(t, res.Success, res.Error)

	require.NotEmpty(t, logged)
	assert.Equal(t, spanned, logged)
}

func TestExecute_TraceIDWithoutTracing(t *testing.T) {
	var logged string
	reg := extension.NewRegistry()
	reg.Register(extension.NewFunc("spy", "Spy", func(ctx context.Context, req extension.Request) extension.Response {
		logged = tracing.GetTraceID(ctx)
		return extension.Response{Success: true, ExtensionName: "Spy"}
	}))
	e := newExtensionExecutor(t, reg)

	res := e.Execute(context.Background(), ExtensionInvoke, map[string]interface{}{
		"prompt":       "x",
		"extension_id": "spy",
	})
	require.True(t, res.Success, res.Error)
	assert.NotEmpty(t, logged, "a trace id is assigned even when spans are not sampled")
}
