package host

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/harun/graviton/internal/audit"
	"github.com/harun/graviton/internal/config"
	"github.com/harun/graviton/internal/metrics"
	"github.com/harun/graviton/internal/tracing"
	"github.com/harun/graviton/pkg/commands"
	"github.com/harun/graviton/pkg/extension"
)

// Host is the process-scoped owner of the extension registry and the
// command layer. It is created once at startup and shared by every caller.
type Host struct {
	cfg      *config.Config
	registry *extension.Registry
	executor *commands.Executor
	metrics  *metrics.Metrics
	audit    *audit.Logger
	logger   zerolog.Logger
	tracing  bool
}

// Option configures a Host
type Option func(*options)

type options struct {
	logger     *zerolog.Logger
	extensions []extension.Extension
}

// WithLogger sets the host logger as is; otherwise the global zerolog logger
// tagged with component=host is used
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = &logger
	}
}

// WithExtensions registers extensions after the defaults, in the given order
func WithExtensions(exts ...extension.Extension) Option {
	return func(o *options) {
		o.extensions = append(o.extensions, exts...)
	}
}

// New builds the registry, loads the configured extensions and registers
// the extension commands.
func New(cfg *config.Config, opts ...Option) (*Host, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	hostLogger := log.Logger.With().Str("component", "host").Logger()
	if o.logger != nil {
		hostLogger = *o.logger
	}

	h := &Host{
		cfg:      cfg,
		registry: extension.NewRegistry(),
		executor: commands.New(),
		logger:   hostLogger,
	}

	if cfg.Tracing.Enabled {
		if err := tracing.InitOpenTelemetry(cfg.Tracing.ServiceName, cfg.Tracing.SampleRatio); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
		h.tracing = true
	}

	if cfg.Audit.Enabled {
		a, err := audit.Open(cfg.Audit.File)
		if err != nil {
			h.abort()
			return nil, err
		}
		h.audit = a
	}

	if cfg.Metrics.Enabled {
		h.metrics = metrics.NewMetrics()
		h.executor.SetRecorder(h.metrics)
	}

	for _, ext := range o.extensions {
		if ext == nil {
			h.abort()
			return nil, errors.New("extension cannot be nil")
		}
	}

	if cfg.Extensions.LoadDefaults {
		h.registry.LoadDefaults()
		h.audit.RecordRegister(context.Background(), extension.EchoID, extension.EchoName)
	}
	for _, ext := range o.extensions {
		h.Register(ext)
	}
	h.updateRegistered()

	if err := commands.RegisterExtensionCommands(h.executor, &dispatcher{host: h}); err != nil {
		h.abort()
		return nil, fmt.Errorf("failed to register extension commands: %w", err)
	}

	h.logger.Info().
		Int("extensions", h.registry.Len()).
		Strs("commands", h.executor.Names()).
		Msg("Extension host initialized")

	return h, nil
}

// ExtensionInvoke sends prompt to the extension with the given id. The error
// is non-nil only when no extension has that id; a response with
// Success=false is returned as is.
func (h *Host) ExtensionInvoke(ctx context.Context, prompt, extensionID string) (extension.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = tracing.NewRequestContext(ctx)
	ctx = tracing.WithExtensionID(ctx, extensionID)

	return h.invoke(ctx, extension.Request{Prompt: prompt, ExtensionID: extensionID})
}

// ExtensionList returns the registered extensions in registration order
func (h *Host) ExtensionList(ctx context.Context) []extension.Info {
	return h.registry.List()
}

// Register adds an extension to the end of the registry. A nil extension is
// ignored.
func (h *Host) Register(ext extension.Extension) {
	if ext == nil {
		h.logger.Warn().Msg("Ignoring nil extension")
		return
	}
	h.registry.Register(ext)
	h.audit.RecordRegister(context.Background(), ext.ID(), ext.Name())
	h.updateRegistered()
}

// Execute runs a named command with JSON-style parameters
func (h *Host) Execute(ctx context.Context, command string, params map[string]interface{}) commands.Result {
	if ctx == nil {
		ctx = context.Background()
	}
	return h.executor.Execute(ctx, command, params)
}

// Commands describes the registered commands
func (h *Host) Commands() []commands.Descriptor {
	return h.executor.Descriptors()
}

// Registry returns the extension registry
func (h *Host) Registry() *extension.Registry {
	return h.registry
}

// Executor returns the command executor
func (h *Host) Executor() *commands.Executor {
	return h.executor
}

// Metrics returns the metrics, or nil when disabled
func (h *Host) Metrics() *metrics.Metrics {
	return h.metrics
}

// Close flushes tracing and closes the audit log. Calling it more than once
// is a no-op.
func (h *Host) Close(ctx context.Context) error {
	err := h.closeAudit()

	if h.tracing {
		h.tracing = false
		if terr := tracing.ShutdownOpenTelemetry(ctx); terr != nil && err == nil {
			err = fmt.Errorf("failed to shut down tracing: %w", terr)
		}
	}
	return err
}

// abort releases what New acquired before failing
func (h *Host) abort() {
	if err := h.Close(context.Background()); err != nil {
		h.logger.Warn().Err(err).Msg("Cleanup after failed initialization")
	}
}

func (h *Host) closeAudit() error {
	a := h.audit
	h.audit = nil
	if err := a.Close(); err != nil {
		return fmt.Errorf("failed to close audit log: %w", err)
	}
	return nil
}

func (h *Host) invoke(ctx context.Context, req extension.Request) (extension.Response, error) {
	logger := tracing.LoggerFromContext(ctx, h.logger)
	start := time.Now()

	resp, err := h.registry.Invoke(ctx, req)
	duration := time.Since(start)

	switch {
	case err != nil:
		h.observe(ctx, req, metrics.StatusNotFound, duration)
		logger.Error().Err(err).Msg("Extension dispatch failed")
		return resp, err

	case !resp.Success:
		h.observe(ctx, req, metrics.StatusFailure, duration)
		logger.Warn().
			Str("extension_name", resp.ExtensionName).
			Dur("duration", duration).
			Msg("Extension reported failure")

	default:
		h.observe(ctx, req, metrics.StatusSuccess, duration)
		logger.Debug().
			Str("extension_name", resp.ExtensionName).
			Dur("duration", duration).
			Msg("Extension invoked")
	}

	return resp, nil
}

func (h *Host) observe(ctx context.Context, req extension.Request, status string, d time.Duration) {
	h.audit.RecordInvoke(ctx, req.ExtensionID, status, len(req.Prompt), d)

	if h.metrics == nil {
		return
	}
	label := req.ExtensionID
	if status == metrics.StatusNotFound {
		// caller-supplied ids are unbounded and never used as label values
		label = "unknown"
	}
	h.metrics.ObserveInvocation(label, status, d)
}

func (h *Host) updateRegistered() {
	if h.metrics != nil {
		h.metrics.SetRegistered(h.registry.Len())
	}
}

// dispatcher routes the extension commands through the host so they share
// its logging and metrics
type dispatcher struct {
	host *Host
}

func (d *dispatcher) Invoke(ctx context.Context, req extension.Request) (extension.Response, error) {
	return d.host.invoke(ctx, req)
}

func (d *dispatcher) List() []extension.Info {
	return d.host.registry.List()
}
