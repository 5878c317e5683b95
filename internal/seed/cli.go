package seed

import (
	"fmt"
	"os"

	"github.com/okian/depthchart/pkg/logger"
)

// SetupLogging initializes the global logger, at debug level when verbose.
func SetupLogging(verbose bool) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		return logger.SetLevelString("debug")
	}
	return nil
}

// ShowHelp prints usage information for the seed tool.
func ShowHelp() {
	os.Stdout.WriteString(`Depth Chart Seed Tool
=====================

Posts a generated roster to an empty depth chart service and verifies the
charts and players-under answers it returns.

Usage:
  go run ./cmd/seed [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -players int
        Number of ranked players to post concurrently (default 500)
  -workers int
        Number of concurrent requests (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -seed int
        Generator seed (default: current time)
  -verbose
        Log every request
  -help
        Show this help message

Examples:
  # Seed a local service with default settings
  go run ./cmd/seed

  # Reproduce a run against another address
  go run ./cmd/seed -players 2000 -workers 16 -seed 42 -url http://localhost:8080
`)
}
