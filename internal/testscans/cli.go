package testscans

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/lunalira/transit/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "test_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the test scans tool.
func ShowHelp() {
	os.Stdout.WriteString(`Transit Scan Test Tool
======================

A concurrent tool for exercising the transit scan pipeline end to end:
it submits randomized scan runs, waits for completion, and verifies the
event tables and per-day rankings.

Usage:
  go run cmd/test-scans/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -symbols int
        Number of ticker symbols to generate (default 50)
  -batch int
        Symbols per scan run (default 5)
  -days int
        Length of the scanned date range in days (default 10)
  -top int
        Number of top entries to fetch per ranked day (default 10)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Output file for run results (default: scan_results_TIMESTAMP.json)
  -log string
        Log file for test output (default: test_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Test with default settings
  go run cmd/test-scans/main.go

  # Heavier run against a different host
  go run cmd/test-scans/main.go -symbols 500 -batch 20 -workers 16 -url http://localhost:8080

  # Longer ranges with verbose output
  go run cmd/test-scans/main.go -verbose -days 30
`)
}
