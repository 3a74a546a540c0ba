package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/lunalira/transit/internal/testscans"
)

// Default configuration constants.
const (
	defaultNumSymbols  = 50
	defaultBatchSize   = 5
	defaultRangeDays   = 10
	defaultTopN        = 10
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 15 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numSymbols = flag.Int("symbols", defaultNumSymbols, "Number of ticker symbols to generate")
		batchSize  = flag.Int("batch", defaultBatchSize, "Symbols per scan run")
		rangeDays  = flag.Int("days", defaultRangeDays, "Length of the scanned date range in days")
		topN       = flag.Int("top", defaultTopN, "Number of top entries to fetch per ranked day")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile = flag.String("output", "", "Output file for run results (default: scan_results_TIMESTAMP.json)")
		logFile    = flag.String("log", "", "Log file for test output (default: test_log_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		testscans.ShowHelp()
		return
	}

	// Setup logging
	if err := testscans.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	// Create test configuration
	config := &testscans.Config{
		BaseURL:    *baseURL,
		NumSymbols: *numSymbols,
		BatchSize:  *batchSize,
		RangeDays:  *rangeDays,
		TopN:       *topN,
		Workers:    *workers,
		Timeout:    *timeout,
		OutputFile: *outputFile,
		LogFile:    *logFile,
		Verbose:    *verbose,
	}

	// Run the test
	if err := testscans.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Test failed: " + err.Error() + "\n")
		return
	}
}
