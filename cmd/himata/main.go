package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/bertsdev33/himata-sub000/internal/config"
	"github.com/bertsdev33/himata-sub000/internal/engine"
	"github.com/bertsdev33/himata-sub000/internal/forecast"
	"github.com/bertsdev33/himata-sub000/internal/refresh"
	"github.com/bertsdev33/himata-sub000/internal/scope"
	"github.com/bertsdev33/himata-sub000/internal/server"
	"github.com/bertsdev33/himata-sub000/internal/source"
	"github.com/bertsdev33/himata-sub000/pkg/constants"
	"github.com/bertsdev33/himata-sub000/pkg/output"
	"github.com/bertsdev33/himata-sub000/pkg/validation"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var version = "dev"

type cliOptions struct {
	configPath   string
	inputPath    string
	outputFormat string
	logLevel     string
	currency     string
	start        string
	end          string
	serve        bool
	timeout      time.Duration
}

// initializeLogger creates a zap logger based on configuration and CLI override
func initializeLogger(loggingConfig config.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	level := strings.ToLower(strings.TrimSpace(loggingConfig.Level))
	if logLevelOverride != "" {
		level = strings.ToLower(strings.TrimSpace(logLevelOverride))
	}
	if level == "" {
		level = "info"
	}
	if level == "warning" {
		level = "warn"
	}

	zapLevel, err := zapcore.ParseLevel(level)
	if err != nil || zapLevel > zapcore.ErrorLevel {
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	var zapConfig zap.Config
	switch loggingConfig.Format {
	case "console":
		zapConfig = zap.NewDevelopmentConfig()
	case "", "json":
		zapConfig = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("invalid log format: %s", loggingConfig.Format)
	}
	zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)

	// Logs go to stderr unless a file is configured; stdout carries the report.
	zapConfig.OutputPaths = []string{"stderr"}
	zapConfig.ErrorOutputPaths = []string{"stderr"}
	if loggingConfig.OutputFile != "" {
		if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
			}
		}
		file, err := os.OpenFile(loggingConfig.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", loggingConfig.OutputFile, err)
		}
		_ = file.Close()
		zapConfig.OutputPaths = []string{loggingConfig.OutputFile}
		zapConfig.ErrorOutputPaths = []string{loggingConfig.OutputFile}
	}

	return zapConfig.Build()
}

// loadConfiguration reads path, falling back to defaults when the default
// config file is absent.
func loadConfiguration(path string) (*config.Configuration, error) {
	if path == constants.DefaultConfigFile {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return config.LoadConfiguration("")
		}
	}
	return config.LoadConfiguration(path)
}

func main() {
	opts := cliOptions{}
	flag.StringVar(&opts.configPath, "config", constants.DefaultConfigFile, "path to configuration file")
	flag.StringVar(&opts.inputPath, "input", constants.DefaultInputFile, "path to transactions file")
	flag.StringVar(&opts.outputFormat, "output-format", "", "type of output override: pretty, csv, yaml")
	flag.StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	flag.StringVar(&opts.currency, "currency", "", "forecast currency (all currencies when empty)")
	flag.StringVar(&opts.start, "start", "", "first training month, YYYY-MM")
	flag.StringVar(&opts.end, "end", "", "last training month, YYYY-MM")
	flag.BoolVar(&opts.serve, "serve", false, "serve the HTTP API instead of printing a report")
	flag.DurationVar(&opts.timeout, "timeout", 30*time.Second, "maximum time to wait for the forecast")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"warn\", \"msg\": \"failed to load .env\", \"error\": \"%v\"}\n", err)
	}

	conf, err := loadConfiguration(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", opts.configPath, err)
		os.Exit(1)
	}

	logger, err := initializeLogger(conf.Logging, opts.logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}
	conf.Normalize()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if opts.serve {
		if err := serve(ctx, logger, conf); err != nil {
			logger.Fatal("server failed",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		return
	}

	if err := run(ctx, logger, conf, opts, os.Stdout); err != nil {
		logger.Fatal("failed to produce report",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}

// run builds the report for the input file, drives one forecast refresh and
// writes both to w.
func run(ctx context.Context, logger *zap.Logger, conf *config.Configuration, opts cliOptions, w io.Writer) error {
	outputFormat := conf.Output.Format
	if opts.outputFormat != "" {
		outputFormat = opts.outputFormat
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		return err
	}
	if err := validation.ValidateMonthRange(opts.start, opts.end); err != nil {
		return err
	}

	txs, err := source.LoadFile(opts.inputPath)
	if err != nil {
		return err
	}

	metric, err := conf.TrailingMetric()
	if err != nil {
		return err
	}
	report, err := engine.New(logger, engine.Options{Metric: metric}).Build(ctx, txs)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	for _, warning := range report.Warnings {
		logger.Warn("transaction warning",
			zap.String("op", "main.run"),
			zap.String("code", string(warning.Code)),
			zap.String("transaction", warning.TransactionID),
			zap.String("message", warning.Message),
		)
	}

	desired := scope.TrainingScope{
		Currency:   opts.currency,
		StartMonth: scope.Month(opts.start),
		EndMonth:   scope.Month(opts.end),
	}
	timeout := opts.timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	snap, err := refreshForecast(ctx, logger, conf, report, desired, timeout)
	if err != nil {
		return err
	}

	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyFormat(w, report, snap)
	case constants.OutputFormatCSV:
		output.CsvFormat(w, report)
		_, _ = fmt.Fprintln(w)
		output.ForecastCsvFormat(w, snap)
	case constants.OutputFormatYAML:
		return output.YamlFormat(w, snap)
	}
	return nil
}

// refreshForecast loads the realized rows into a worker and waits for the
// coordinator to settle on desired.
func refreshForecast(ctx context.Context, logger *zap.Logger, conf *config.Configuration, report *engine.Report, desired scope.TrainingScope, timeout time.Duration) (*scope.Snapshot, error) {
	forecaster, err := forecast.NewForecaster(logger, conf.ForecastSettings())
	if err != nil {
		return nil, err
	}
	negotiator, err := scope.NewNegotiator(logger, conf.ScopeSettings(), forecaster)
	if err != nil {
		return nil, err
	}
	worker, err := refresh.NewWorker(logger, negotiator, conf.WorkerOptions())
	if err != nil {
		return nil, err
	}
	coordinator, err := refresh.NewCoordinator(logger, worker, conf.Refresh.Debounce)
	if err != nil {
		return nil, err
	}
	coordinator.Start(ctx)
	defer coordinator.Close()

	if _, err := coordinator.LoadDataset(report.Realized); err != nil {
		return nil, err
	}
	coordinator.SetScope(desired)
	if err := coordinator.RefreshNow(); err != nil {
		return nil, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	update, err := coordinator.Wait(waitCtx)
	if err != nil {
		return nil, fmt.Errorf("waiting for forecast: %w", err)
	}
	if update.Status == refresh.StatusFailed {
		return nil, fmt.Errorf("forecast failed: %w", update.Err)
	}
	return update.Snapshot, nil
}

func serve(ctx context.Context, logger *zap.Logger, conf *config.Configuration) error {
	opts, err := server.OptionsFromConfig(conf, version)
	if err != nil {
		return err
	}
	handler, err := server.NewHandler(logger, opts)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         opts.Address,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving HTTP API",
			zap.String("op", "main.serve"),
			zap.String("address", opts.Address),
			zap.String("version", version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down HTTP API", zap.String("op", "main.serve"))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
