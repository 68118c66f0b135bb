package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/harun/graviton/internal/tracing"
	"github.com/harun/graviton/pkg/extension"
)

// Command names exposed to the host
const (
	ExtensionInvoke = "graviton_extension_invoke"
	ExtensionList   = "graviton_extension_list"
)

// Dispatcher is the part of the extension registry the commands need
type Dispatcher interface {
	Invoke(ctx context.Context, req extension.Request) (extension.Response, error)
	List() []extension.Info
}

// notFoundError adapts extension.NotFoundError to a not_found Result
type notFoundError struct {
	err *extension.NotFoundError
}

func (e *notFoundError) Error() string   { return e.err.Error() }
func (e *notFoundError) Unwrap() error   { return e.err }
func (e *notFoundError) Kind() ErrorKind { return KindNotFound }

func (e *notFoundError) Metadata() map[string]interface{} {
	return map[string]interface{}{
		"extension_id": e.err.ID,
		"available":    e.err.Available,
	}
}

// RegisterExtensionCommands registers the invoke and list commands backed by d
func RegisterExtensionCommands(exec *Executor, d Dispatcher) error {
	if exec == nil {
		return errors.New("command executor is required")
	}
	if d == nil {
		return errors.New("extension dispatcher is required")
	}

	defs := []Definition{
		invokeCommand(d),
		listCommand(d),
	}

	for _, def := range defs {
		if err := exec.Register(def); err != nil {
			return fmt.Errorf("failed to register command %s: %w", def.Name, err)
		}
	}
	return nil
}

func invokeCommand(d Dispatcher) Definition {
	return Definition{
		Name:        ExtensionInvoke,
		Description: "Send a prompt to an extension by id and return its response.",
		Parameters: []Parameter{
			{Name: "prompt", Type: "string", Description: "Prompt text passed to the extension", Required: true},
			{Name: "extension_id", Type: "string", Description: "Id of the target extension (see " + ExtensionList + ")", Required: true},
		},
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			prompt, _ := params["prompt"].(string)
			id, _ := params["extension_id"].(string)

			ctx = tracing.WithExtensionID(ctx, id)

			resp, err := d.Invoke(ctx, extension.Request{Prompt: prompt, ExtensionID: id})
			if err != nil {
				var nf *extension.NotFoundError
				if errors.As(err, &nf) {
					return nil, &notFoundError{err: nf}
				}
				return nil, err
			}
			return resp, nil
		},
	}
}

func listCommand(d Dispatcher) Definition {
	return Definition{
		Name:        ExtensionList,
		Description: "List available extensions as id and name pairs, in registration order.",
		Handler: func(ctx context.Context, _ map[string]interface{}) (interface{}, error) {
			return d.List(), nil
		},
	}
}
