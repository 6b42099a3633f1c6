// Package main is the entry point for the recordflow pipeline runner.
//
// The binary executes one supervised pipeline run, audits its output,
// prints a human-readable report, and exits.
//
// Flow:
//
//	producer → stage1 → stage2 → stage3 → audit → report
//	              ↑  feedback  ↓
//	              +------------+
//
// Configuration:
//   - Environment variables (RECORDFLOW_* via envconfig)
//   - Optional YAML config file (-config)
//   - CLI flags (override everything)
//
// Usage:
//
//	# Reference run: 500 records, capacity 5, 5s timeout
//	./recordflow
//
//	# Seed record provenance from a parsed input document
//	./recordflow -input data.csv
//
//	# Development mode (colored logs, debug level)
//	./recordflow -dev
//
// Exit codes:
//   - 0: run completed (audit warnings are non-fatal)
//   - 1: stage failure, timeout, or worker collapse
package main
