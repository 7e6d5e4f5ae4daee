package smoke

import (
	"fmt"
	"os"

	"github.com/okian/inningscast/pkg/logger"
)

// SetupLogging initializes the global logger for the tool.
func SetupLogging(verbose bool) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		return logger.SetLevelString("debug")
	}
	return nil
}

// ShowHelp prints usage information for the smoke tool.
func ShowHelp() {
	os.Stdout.WriteString(`Innings Cast Smoke Tool
=======================

Drives the register, log in and predict flow for many users against a running
server and checks every result page.

Usage:
  go run ./cmd/smoke [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:8000")
  -users int
        Number of users to run through the flow (default 50)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  go run ./cmd/smoke -users 500 -workers 16
  go run ./cmd/smoke -url http://localhost:9000 -verbose
`)
}
