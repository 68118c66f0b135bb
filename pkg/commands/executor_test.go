package commands

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type observation struct {
	command string
	status  string
}

type fakeRecorder struct {
	mu   sync.Mutex
	seen []observation
}

func (f *fakeRecorder) ObserveCommand(command, status string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, observation{command: command, status: status})
}

func echoDefinition() Definition {
	return Definition{
		Name:        "echo",
		Description: "Echo tool",
		Parameters: []Parameter{
			{Name: "message", Type: "string", Description: "Message to echo", Required: true},
			{Name: "count", Type: "integer", Description: "Repeat count", Required: false},
		},
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			return params["message"], nil
		},
	}
}

func TestExecutor_Register(t *testing.T) {
	e := New()

	require.NoError(t, e.Register(echoDefinition()))
	assert.True(t, e.Has("echo"))
	assert.Equal(t, []string{"echo"}, e.Names())

	err := e.Register(echoDefinition())
	assert.Error(t, err, "duplicate command name")
}

func TestExecutor_Register_InvalidDefinition(t *testing.T) {
	noop := func(ctx context.Context, params map[string]interface{}) (interface{}, error) { return nil, nil }

	tests := []struct {
		name string
		def  Definition
	}{
		{
			name: "empty name",
			def:  Definition{Description: "Test", Handler: noop},
		},
		{
			name: "empty description",
			def:  Definition{Name: "test", Handler: noop},
		},
		{
			name: "nil handler",
			def:  Definition{Name: "test", Description: "Test"},
		},
		{
			name: "bad parameter type",
			def: Definition{
				Name: "test", Description: "Test", Handler: noop,
				Parameters: []Parameter{{Name: "p", Type: "text", Description: "p"}},
			},
		},
		{
			name: "parameter without description",
			def: Definition{
				Name: "test", Description: "Test", Handler: noop,
				Parameters: []Parameter{{Name: "p", Type: "string"}},
			},
		},
		{
			name: "duplicate parameter",
			def: Definition{
				Name: "test", Description: "Test", Handler: noop,
				Parameters: []Parameter{
					{Name: "p", Type: "string", Description: "p"},
					{Name: "p", Type: "number", Description: "p"},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New()
			assert.Error(t, e.Register(tt.def))
			assert.Empty(t, e.Names())
		})
	}
}

func TestExecutor_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		e := New()
		rec := &fakeRecorder{}
		e.SetRecorder(rec)
		require.NoError(t, e.Register(echoDefinition()))

		res := e.Execute(ctx, "echo", map[string]interface{}{"message": "hi"})
		require.True(t, res.Success, res.Error)
		assert.Equal(t, "hi", res.Output)
		assert.Empty(t, res.Kind)
		assert.NotEmpty(t, res.Metadata["invocation_id"])
		assert.Contains(t, res.Metadata, "duration")

		assert.Equal(t, []observation{{command: "echo", status: "success"}}, rec.seen)
	})

	t.Run("unknown command", func(t *testing.T) {
		e := New()
		rec := &fakeRecorder{}
		e.SetRecorder(rec)

		res := e.Execute(ctx, "missing", nil)
		assert.False(t, res.Success)
		assert.Equal(t, KindUnknownCommand, res.Kind)
		assert.Contains(t, res.Error, "missing")
		assert.Empty(t, rec.seen, "unknown commands are not recorded")
	})

	t.Run("parameter validation", func(t *testing.T) {
		e := New()
		require.NoError(t, e.Register(echoDefinition()))

		cases := map[string]map[string]interface{}{
			"missing required": {},
			"wrong type":       {"message": 42},
			"unknown param":    {"message": "hi", "extra": true},
			"non integer":      {"message": "hi", "count": 1.5},
		}
		for name, params := range cases {
			t.Run(name, func(t *testing.T) {
				res := e.Execute(ctx, "echo", params)
				assert.False(t, res.Success)
				assert.Equal(t, KindInvalidParams, res.Kind)
				assert.Contains(t, res.Error, "parameter validation failed")
			})
		}
	})

	t.Run("handler error", func(t *testing.T) {
		e := New()
		require.NoError(t, e.Register(Definition{
			Name:        "fail",
			Description: "Always fails",
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				return nil, errors.New("boom")
			},
		}))

		res := e.Execute(ctx, "fail", nil)
		assert.False(t, res.Success)
		assert.Equal(t, KindHandlerError, res.Kind)
		assert.Equal(t, "boom", res.Error)
	})

	t.Run("distinct invocation ids", func(t *testing.T) {
		e := New()
		require.NoError(t, e.Register(echoDefinition()))

		a := e.Execute(ctx, "echo", map[string]interface{}{"message": "a"})
		b := e.Execute(ctx, "echo", map[string]interface{}{"message": "b"})
		assert.NotEqual(t, a.Metadata["invocation_id"], b.Metadata["invocation_id"])
	})
}

func TestExecutor_Descriptors(t *testing.T) {
	e := New()
	require.NoError(t, e.Register(echoDefinition()))
	require.NoError(t, e.Register(Definition{
		Name:        "alpha",
		Description: "First alphabetically",
		Handler:     func(ctx context.Context, params map[string]interface{}) (interface{}, error) { return nil, nil },
	}))

	descs := e.Descriptors()
	require.Len(t, descs, 2)
	assert.Equal(t, "alpha", descs[0].Name)
	assert.Equal(t, "echo", descs[1].Name)

	schema := descs[1].InputSchema
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, false, schema["additionalProperties"])
	assert.Equal(t, []string{"message"}, schema["required"])
	assert.Contains(t, schema["properties"], "message")
	assert.Contains(t, schema["properties"], "count")

	_, hasRequired := descs[0].InputSchema["required"]
	assert.False(t, hasRequired)
}
