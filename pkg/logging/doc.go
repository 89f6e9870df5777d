// Package logging provides structured logging configuration for the store,
// the mock backend and the bookstore CLI.
//
// This package wraps log/slog so every component logs the same way. It supports
// configurable log levels and output formats.
//
// # Usage
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelInfo,
//	    Format: logging.FormatText,
//	})
//
//	logger.Info("backend listening", "addr", ":3000")
//	logger.Warn("fetch failed", "type", "authors", "error", err)
//
// # Output Formats
//
//   - Text: Human-readable format for development
//   - JSON: Structured format for log aggregation systems
//
// # Integration
//
// Components accept a *slog.Logger in their constructor or via an option.
// If no logger is provided, they use logging.Nop().
package logging
