package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/recordflow/internal/audit"
	"github.com/GriffinCanCode/recordflow/internal/config"
	"github.com/GriffinCanCode/recordflow/internal/logging"
	"github.com/GriffinCanCode/recordflow/internal/monitoring"
	"github.com/GriffinCanCode/recordflow/internal/parse"
	"github.com/GriffinCanCode/recordflow/internal/pipeline"
	"github.com/GriffinCanCode/recordflow/internal/record"
	"github.com/GriffinCanCode/recordflow/internal/supervisor"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg := config.LoadOrDefault()

	fs := flag.NewFlagSet("recordflow", flag.ExitOnError)
	records := fs.Int("records", cfg.Pipeline.Records, "Total record count fed by the producer")
	buffer := fs.Int("buffer", cfg.Pipeline.Buffer, "Capacity of every pipeline channel")
	timeout := fs.Duration("timeout", cfg.Pipeline.Timeout, "Wall-clock deadline for the whole run")
	rateLimit := fs.Float64("rate", cfg.Pipeline.Rate, "Producer rate in records/sec (0 = unlimited)")
	cfgFile := fs.String("config", "", "Optional YAML config file")
	input := fs.String("input", "", "Optional input document to parse and seed payloads from")
	logLevel := fs.String("log-level", cfg.Logging.Level, "Log level (debug, info, warn, error)")
	dev := fs.Bool("dev", cfg.Logging.Development, "Development mode (colored console logs)")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *cfgFile != "" {
		if err := cfg.ApplyFile(*cfgFile); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			return 1
		}
	}
	// Flags the user actually passed win over env and file values.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "records":
			cfg.Pipeline.Records = *records
		case "buffer":
			cfg.Pipeline.Buffer = *buffer
		case "timeout":
			cfg.Pipeline.Timeout = *timeout
		case "rate":
			cfg.Pipeline.Rate = *rateLimit
		case "log-level":
			cfg.Logging.Level = *logLevel
		case "dev":
			cfg.Logging.Development = *dev
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: invalid configuration: %v\n", err)
		return 1
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: failed to build logger: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	var hooks pipeline.Hooks
	if *input != "" {
		seed, err := seedFromFile(*input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			return 1
		}
		hooks.Seed = seed
	}

	metrics := monitoring.New()
	pipe := pipeline.New(cfg.Pipeline, logger, metrics, hooks)

	logger.Info("starting pipeline run",
		zap.Int("records", cfg.Pipeline.Records),
		zap.Int("buffer", cfg.Pipeline.Buffer),
		zap.Duration("timeout", cfg.Pipeline.Timeout))

	outcome := supervisor.Supervise(context.Background(), pipe.Run, cfg.Pipeline.Timeout, logger)

	switch outcome.Status {
	case supervisor.StatusCompleted:
		reporter := &audit.Reporter{Out: os.Stdout, Warn: os.Stderr}
		reporter.Report(outcome.Results, cfg.Pipeline.Records, metrics)
		return 0
	case supervisor.StatusTimedOut:
		fmt.Fprintf(os.Stderr, "ERROR: Pipeline timed out after %s\n", cfg.Pipeline.Timeout)
		return 1
	case supervisor.StatusCollapsed:
		fmt.Fprintln(os.Stderr, "ERROR: Pipeline worker disconnected unexpectedly")
		return 1
	default:
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", outcome.Err)
		return 1
	}
}

// seedFromFile parses an input document and returns a producer hook that
// tags records with their source row. Rows beyond the record count are
// ignored; records beyond the row count stay untagged.
func seedFromFile(path string) (func(int, *record.Record), error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input %s: %w", path, err)
	}
	doc, err := parse.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse input %s: %w", path, err)
	}

	name := filepath.Base(path)
	rows := doc.Rows
	return func(i int, r *record.Record) {
		if i-1 < len(rows) {
			r.Source = fmt.Sprintf("%s#%d", name, i)
		}
	}, nil
}
