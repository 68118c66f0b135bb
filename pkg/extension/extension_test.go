package extension

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEcho(t *testing.T) {
	t.Run("identity", func(t *testing.T) {
		ext := NewEcho()
		assert.Equal(t, "mock_echo", ext.ID())
		assert.Equal(t, "Mock Echo Extension", ext.Name())
	})

	t.Run("invoke", func(t *testing.T) {
		ext := NewEcho()

		resp := ext.Invoke(context.Background(), Request{
			Prompt:      "Hello, Graviton!",
			ExtensionID: "mock_echo",
		})

		assert.True(t, resp.Success)
		assert.Equal(t, "[Echo] Hello, Graviton!", resp.Content)
		assert.Equal(t, "Mock Echo Extension", resp.ExtensionName)
	})

	t.Run("empty prompt", func(t *testing.T) {
		resp := NewEcho().Invoke(context.Background(), Request{ExtensionID: EchoID})
		assert.True(t, resp.Success)
		assert.Equal(t, "[Echo] ", resp.Content)
	})
}

func TestNewFunc(t *testing.T) {
	t.Run("delegates to function", func(t *testing.T) {
		ext := NewFunc("upper", "Upper", func(ctx context.Context, req Request) Response {
			return Response{Success: true, Content: req.Prompt + "!", ExtensionName: "Upper"}
		})

		assert.Equal(t, "upper", ext.ID())
		assert.Equal(t, "Upper", ext.Name())

		resp := ext.Invoke(context.Background(), Request{Prompt: "hi", ExtensionID: "upper"})
		assert.Equal(t, Response{Success: true, Content: "hi!", ExtensionName: "Upper"}, resp)
	})

	t.Run("nil function reports failure", func(t *testing.T) {
		ext := NewFunc("empty", "Empty", nil)

		resp := ext.Invoke(context.Background(), Request{Prompt: "hi", ExtensionID: "empty"})
		assert.False(t, resp.Success)
		assert.NotEmpty(t, resp.Content)
		assert.Equal(t, "Empty", resp.ExtensionName)
	})
}

func TestNotFoundError(t *testing.T) {
	t.Run("empty roster", func(t *testing.T) {
		err := &NotFoundError{ID: "nope"}
		assert.Equal(t,
			"Extension 'nope' not found. Available extensions: []. Try using 'mock_echo' for testing.",
			err.Error())
	})

	t.Run("is sentinel", func(t *testing.T) {
		var err error = &NotFoundError{ID: "nope"}
		assert.ErrorIs(t, err, ErrExtensionNotFound)
		assert.True(t, IsNotFound(err))
		assert.False(t, IsNotFound(assert.AnError))
		assert.False(t, IsNotFound(nil))
	})
}
