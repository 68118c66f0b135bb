package commands

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/harun/graviton/internal/tracing"
)

const tracerName = "graviton.commands"

// Parameter defines a parameter for a command
type Parameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// Handler is the function signature for command execution
type Handler func(ctx context.Context, params map[string]interface{}) (interface{}, error)

// Definition defines a command's metadata and handler
type Definition struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  []Parameter `json:"parameters"`
	Handler     Handler     `json:"-"`
}

// Descriptor is a command definition as published to callers
type Descriptor struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// ErrorKind classifies a failed Result
type ErrorKind string

const (
	KindUnknownCommand ErrorKind = "unknown_command"
	KindInvalidParams  ErrorKind = "invalid_params"
	KindNotFound       ErrorKind = "not_found"
	KindHandlerError   ErrorKind = "handler_error"
)

// Result represents the result of a command execution
type Result struct {
	Success  bool                   `json:"success"`
	Output   interface{}            `json:"output,omitempty"`
	Error    string                 `json:"error,omitempty"`
	Kind     ErrorKind              `json:"kind,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Recorder receives one observation per Execute call
type Recorder interface {
	ObserveCommand(command, status string, d time.Duration)
}

// KindedError lets a handler choose the ErrorKind of its failure
type KindedError interface {
	error
	Kind() ErrorKind
}

// MetadataError lets a handler attach metadata to its failure
type MetadataError interface {
	error
	Metadata() map[string]interface{}
}

type entry struct {
	def       Definition
	schema    *gojsonschema.Schema
	schemaDoc map[string]interface{}
}

// Executor manages and executes commands
type Executor struct {
	commands map[string]*entry
	recorder Recorder
	mu       sync.RWMutex
}

// New creates a new Executor
func New() *Executor {
	return &Executor{
		commands: make(map[string]*entry),
	}
}

// SetRecorder sets the metrics recorder
func (e *Executor) SetRecorder(r Recorder) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recorder = r
}

// Register validates and registers a command
func (e *Executor) Register(def Definition) error {
	if err := validateDefinition(def); err != nil {
		return fmt.Errorf("invalid command definition: %w", err)
	}

	doc := generateSchemaDoc(def)
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.commands[def.Name]; exists {
		return fmt.Errorf("command %s already registered", def.Name)
	}

	e.commands[def.Name] = &entry{def: def, schema: schema, schemaDoc: doc}

	log.Info().Str("command", def.Name).Msg("Command registered")

	return nil
}

// Has reports whether a command is registered
func (e *Executor) Has(name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	_, ok := e.commands[name]
	return ok
}

// Names returns all registered command names, sorted
func (e *Executor) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.commands))
	for name := range e.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Descriptors returns every command with its input schema, sorted by name
func (e *Executor) Descriptors() []Descriptor {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]Descriptor, 0, len(e.commands))
	for _, c := range e.commands {
		out = append(out, Descriptor{
			Name:        c.def.Name,
			Description: c.def.Description,
			InputSchema: c.schemaDoc,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out
}

// Execute runs a command synchronously on the calling goroutine
func (e *Executor) Execute(ctx context.Context, name string, params map[string]interface{}) Result {
	startTime := time.Now()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx = tracing.WithInvocationID(ctx, tracing.NewInvocationID())
	ctx = tracing.WithCommand(ctx, name)

	// the span goes first so a sampled trace id becomes the logged trace id
	ctx, span := tracing.StartSpan(ctx, tracerName, "commands.execute",
		attribute.String("command", name),
		attribute.String("invocation_id", tracing.GetInvocationID(ctx)),
	)
	defer span.End()
	ctx = tracing.NewRequestContext(ctx)

	logger := tracing.LoggerFromContext(ctx, log.Logger)

	e.mu.RLock()
	c := e.commands[name]
	recorder := e.recorder
	e.mu.RUnlock()

	result := e.execute(ctx, c, name, params)

	duration := time.Since(startTime)
	if result.Metadata == nil {
		result.Metadata = make(map[string]interface{})
	}
	result.Metadata["invocation_id"] = tracing.GetInvocationID(ctx)
	result.Metadata["duration"] = duration.Milliseconds()

	status := "success"
	if !result.Success {
		status = string(result.Kind)
		span.SetStatus(codes.Error, result.Error)

		// the dispatcher already reports unknown extensions at error level
		event := logger.Error()
		if result.Kind == KindNotFound {
			event = logger.Warn()
		}
		event.
			Str("kind", status).
			Dur("duration", duration).
			Str("error", result.Error).
			Msg("Command execution failed")
	} else {
		logger.Debug().Dur("duration", duration).Msg("Command execution completed")
	}

	if recorder != nil && c != nil {
		recorder.ObserveCommand(name, status, duration)
	}

	return result
}

func (e *Executor) execute(ctx context.Context, c *entry, name string, params map[string]interface{}) Result {
	if c == nil {
		return Result{
			Success: false,
			Error:   fmt.Sprintf("command not found: %s", name),
			Kind:    KindUnknownCommand,
		}
	}

	if params == nil {
		params = map[string]interface{}{}
	}

	if err := validateParameters(c.schema, params); err != nil {
		return Result{
			Success: false,
			Error:   fmt.Sprintf("parameter validation failed: %v", err),
			Kind:    KindInvalidParams,
		}
	}

	output, err := c.def.Handler(ctx, params)
	if err != nil {
		res := Result{
			Success: false,
			Error:   err.Error(),
			Kind:    KindHandlerError,
		}

		var kinded KindedError
		if errors.As(err, &kinded) {
			res.Kind = kinded.Kind()
		}
		var withMeta MetadataError
		if errors.As(err, &withMeta) {
			res.Metadata = withMeta.Metadata()
		}
		return res
	}

	return Result{
		Success: true,
		Output:  output,
	}
}

func validateDefinition(def Definition) error {
	if def.Name == "" {
		return fmt.Errorf("command name cannot be empty")
	}
	if def.Description == "" {
		return fmt.Errorf("command description cannot be empty")
	}
	if def.Handler == nil {
		return fmt.Errorf("command handler cannot be nil")
	}

	validTypes := map[string]bool{
		"string": true, "number": true, "boolean": true,
		"object": true, "array": true, "integer": true,
	}

	seen := make(map[string]bool, len(def.Parameters))
	for _, param := range def.Parameters {
		if param.Name == "" {
			return fmt.Errorf("parameter name cannot be empty")
		}
		if seen[param.Name] {
			return fmt.Errorf("duplicate parameter %s", param.Name)
		}
		seen[param.Name] = true

		if param.Description == "" {
			return fmt.Errorf("parameter description cannot be empty for %s", param.Name)
		}
		if !validTypes[param.Type] {
			return fmt.Errorf("invalid parameter type %q for %s", param.Type, param.Name)
		}
	}

	return nil
}

func generateSchemaDoc(def Definition) map[string]interface{} {
	properties := make(map[string]interface{}, len(def.Parameters))
	required := []string{}

	for _, param := range def.Parameters {
		properties[param.Name] = map[string]interface{}{
			"type":        param.Type,
			"description": param.Description,
		}
		if param.Required {
			required = append(required, param.Name)
		}
	}

	doc := map[string]interface{}{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           properties,
	}
	if len(required) > 0 {
		doc["required"] = required
	}

	return doc
}

func validateParameters(schema *gojsonschema.Schema, params map[string]interface{}) error {
	result, err := schema.Validate(gojsonschema.NewGoLoader(params))
	if err != nil {
		return err
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, re := range result.Errors() {
			msgs = append(msgs, re.String())
		}
		return fmt.Errorf("validation errors: %v", msgs)
	}

	return nil
}
