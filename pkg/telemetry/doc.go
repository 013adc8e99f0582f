// Package telemetry wires logging, tracing and metrics for the luaconf
// binaries.
//
// Initialize telemetry at startup:
//
//	cfg := telemetry.DefaultConfig()
//	cfg.Logging.Level = "debug"
//	cfg.Metrics.ListenAddress = ":9090"
//
//	tel, err := telemetry.NewTelemetry(cfg, os.Stderr)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tel.Shutdown(context.Background())
//
//	if _, err := tel.StartMetricsServer(); err != nil {
//	    log.Fatal(err)
//	}
//
// Metrics satisfies config.Recorder, so loads and lookups are counted by
// passing it in the load options:
//
//	h, err := config.Load(ctx, path, config.Options{
//	    Logger:  tel.Logger,
//	    Metrics: tel.Metrics,
//	})
//
// The tracer installs itself as the global OpenTelemetry provider; the
// config package starts a "config.load" span for every script execution.
package telemetry
