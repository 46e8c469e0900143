package logging

import (
	"log/slog"
)

// SetupMCPMode initializes logging for the stdio MCP server. Records go to
// the log file only: stdout carries JSON-RPC and must stay clean, and some
// clients treat stderr output as a failed start.
func SetupMCPMode(level string) (func(), error) {
	cfg := DefaultConfig()
	cfg.Level = level
	cfg.WriteToStderr = false
	return setupMCP(cfg)
}

func setupMCP(cfg Config) (func(), error) {
	logger, cleanup, err := Setup(cfg)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	slog.Info("MCP mode logging initialized",
		slog.String("log_file", cfg.FilePath),
		slog.String("level", cfg.Level))
	return cleanup, nil
}
