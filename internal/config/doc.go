// Package config provides 12-factor configuration for the pipeline.
//
// Configuration is loaded from environment variables with sensible
// defaults; an optional YAML file and CLI flags can override them.
//
// Configuration Sections:
//   - Pipeline: record count, channel capacity, run timeout, producer rate
//   - Logging: log level and output format
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("running %d records\n", cfg.Pipeline.Records)
//
// Environment Variables:
//   - RECORDFLOW_RECORDS, RECORDFLOW_BUFFER, RECORDFLOW_TIMEOUT, RECORDFLOW_RATE
//   - RECORDFLOW_LOG_LEVEL, RECORDFLOW_LOG_DEV
package config
