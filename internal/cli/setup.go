package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/harun/graviton/internal/config"
	"github.com/harun/graviton/internal/host"
	"github.com/harun/graviton/internal/logger"
)

// session is a host plus the logger it writes through, closed together
type session struct {
	host   *host.Host
	logger *logger.Logger
}

func (s *session) Close(ctx context.Context) error {
	err := s.host.Close(ctx)
	if cerr := s.logger.Close(); err == nil {
		err = cerr
	}
	return err
}

// openSession loads the config, sets up logging on stderr and builds the host
func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	lg, err := logger.New(logger.Config{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		Console:   cfg.Logging.Console,
		Pretty:    cfg.Logging.Pretty,
		Redaction: cfg.Logging.Redaction,
		Output:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	h, err := host.New(cfg, host.WithLogger(lg.Component("host")))
	if err != nil {
		lg.Error().Err(err).Msg("Failed to initialize extension host")
		lg.Close()
		return nil, err
	}

	lg.Debug().Str("command", cmd.CommandPath()).Msg("Session opened")

	return &session{host: h, logger: lg}, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
