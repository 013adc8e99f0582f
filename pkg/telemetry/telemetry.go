package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/rs/zerolog"
)

// Telemetry bundles the logger, tracer and metrics of a luaconf binary.
type Telemetry struct {
	Logger  zerolog.Logger
	Tracer  *Tracer
	Metrics *Metrics

	config *Config
	server *http.Server
}

// NewTelemetry creates a new telemetry instance with the given
// configuration. Spans from the stdout exporter go to traceOut.
func NewTelemetry(cfg *Config, traceOut io.Writer) (*Telemetry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry config: %w", err)
	}

	logger, err := NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	tracer, err := NewTracer(cfg.Tracing, cfg.ServiceName, cfg.ServiceVersion, traceOut)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}

	metrics, err := NewMetrics(cfg.Metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	return &Telemetry{
		Logger:  logger,
		Tracer:  tracer,
		Metrics: metrics,
		config:  cfg,
	}, nil
}

// StartMetricsServer starts serving the metrics endpoint in the background
// and returns the bound address. It is a no-op when no listen address is
// configured.
func (t *Telemetry) StartMetricsServer() (string, error) {
	server := t.Metrics.NewMetricsServer()
	if server == nil {
		return "", nil
	}

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen on %s: %w", server.Addr, err)
	}
	t.server = server

	logger := ComponentLogger(t.Logger, "metrics")
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Metrics server failed")
		}
	}()

	logger.Info().Str("addr", ln.Addr().String()).Str("path", t.config.Metrics.Path).Msg("Serving metrics")
	return ln.Addr().String(), nil
}

// Shutdown stops the metrics server and flushes the tracer.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error

	if t.server != nil {
		if err := t.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if t.Tracer != nil {
		if err := t.Tracer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
	}

	return errors.Join(errs...)
}
