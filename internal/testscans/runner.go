package testscans

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lunalira/transit/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes the complete scan test.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting transit scan test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("symbols", config.NumSymbols),
		logger.Int("batchSize", config.BatchSize),
		logger.Int("rangeDays", config.RangeDays),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout),
		logger.Int("topN", config.TopN),
		logger.String("logFile", config.LogFile),
		logger.Any("verbose", config.Verbose))

	client := newHTTPClient(config.Timeout)

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config, client); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate symbols and batch them into scan requests
	listings := generateSymbols(ctx, config, stats)
	requests := buildRequests(ctx, config, listings)

	// Step 3: Submit runs concurrently
	runIDs, err := submitRuns(ctx, config, client, requests, stats)
	if err != nil {
		return fmt.Errorf("run submission failed: %w", err)
	}
	if len(runIDs) == 0 {
		return fmt.Errorf("no runs were accepted")
	}

	// Step 4: Poll runs until completion
	runs, err := pollRuns(ctx, config, client, runIDs, stats)
	if err != nil {
		return fmt.Errorf("run polling failed: %w", err)
	}

	// Step 5: Retrieve per-day rankings concurrently
	dates := scannedDates(requests)
	rankings, err := retrieveRankings(ctx, config, client, dates, stats)
	if err != nil {
		return fmt.Errorf("ranking retrieval failed: %w", err)
	}

	// Step 6: Get the best-by-day table
	best, err := getBestByDay(ctx, config, client, stats)
	if err != nil {
		return fmt.Errorf("best-by-day retrieval failed: %w", err)
	}

	// Step 7: Verify results
	if err := verifyResults(config, runs, rankings, best); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Step 8: Save run results to file
	if err := saveRunsToFile(ctx, config, runs); err != nil {
		logger.Get().Warn(ctx, "failed to save run results to file", logger.Error(err))
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "test completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config, client *HTTPClient) error {
	logger.Get().Info(ctx, "checking service health")

	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Accept any 200 response as healthy (the service returns Prometheus metrics)
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// scannedDates expands the shared request range into the list of
// YYYY-MM-DD dates the runs scanned.
func scannedDates(requests []ScanRequest) []string {
	if len(requests) == 0 {
		return nil
	}

	start, err := time.Parse("2006-01-02", requests[0].Start)
	if err != nil {
		return nil
	}
	end, err := time.Parse("2006-01-02", requests[0].End)
	if err != nil {
		return nil
	}

	var dates []string
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		dates = append(dates, day.Format("2006-01-02"))
	}
	return dates
}

// saveRunsToFile saves the completed run results to a JSON file.
func saveRunsToFile(ctx context.Context, config *Config, runs []RunResult) error {
	if len(runs) == 0 {
		return fmt.Errorf("no runs to save")
	}

	// Determine output filename
	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "scan_results_" + timestamp + ".json"
	}

	// Ensure the directory exists
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Write runs to file
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close file", logger.Error(err))
		}
	}()

	// Write JSON array
	if _, err := file.WriteString("[\n"); err != nil {
		return fmt.Errorf("failed to write opening bracket: %w", err)
	}

	for i, run := range runs {
		jsonData, err := marshalJSON(run)
		if err != nil {
			return fmt.Errorf("failed to marshal run %d: %w", i, err)
		}

		if _, err := file.Write(jsonData); err != nil {
			return fmt.Errorf("failed to write run %d: %w", i, err)
		}

		// Add comma except for last run
		if i < len(runs)-1 {
			if _, err := file.WriteString(","); err != nil {
				return fmt.Errorf("failed to write comma: %w", err)
			}
		}
		_, _ = file.WriteString("\n")
	}

	if _, err := file.WriteString("]\n"); err != nil {
		return fmt.Errorf("failed to write closing bracket: %w", err)
	}

	logger.Get().Info(ctx, "run results saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final test statistics.
func displayFinalStats(stats *Stats) {
	var completionRate, runsPerSecond float64

	if stats.RunsSubmitted > 0 {
		completionRate = float64(stats.RunsCompleted) / float64(stats.RunsSubmitted) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		runsPerSecond = float64(stats.RunsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("symbolsGenerated", stats.SymbolsGenerated),
		logger.Int("runsSubmitted", stats.RunsSubmitted),
		logger.Int("runsAccepted", stats.RunsAccepted),
		logger.Int("runsThrottled", stats.RunsThrottled),
		logger.Int("runsFailed", stats.RunsFailed),
		logger.Int("runsCompleted", stats.RunsCompleted),
		logger.Int("eventsReceived", stats.EventsReceived),
		logger.Int("rankingsRetrieved", stats.RankingsRetrieved),
		logger.Int("bestEntries", stats.BestEntries),
		logger.Duration("duration", stats.Duration),
		logger.Float64("completionRate", completionRate),
		logger.Float64("runsPerSecond", runsPerSecond))
}
