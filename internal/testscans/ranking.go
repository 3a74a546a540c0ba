package testscans

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// pollRuns waits for every accepted run to reach the complete status and
// returns the final run results.
func pollRuns(ctx context.Context, config *Config, client *HTTPClient, runIDs []string, stats *Stats) ([]RunResult, error) {
	log.Printf("⏳ Waiting for %d runs to complete with %d workers...", len(runIDs), config.Workers)

	results := make([]RunResult, len(runIDs))
	var (
		completed int64
		failed    int64
	)

	// Create worker pool
	indexChan := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for index := range indexChan {
				select {
				case <-ctx.Done():
					return
				default:
					result, err := pollSingleRun(ctx, client, config.BaseURL, runIDs[index])
					if err != nil {
						atomic.AddInt64(&failed, 1)
						if config.Verbose {
							log.Printf("⚠️  Run %s did not complete: %v", runIDs[index], err)
						}
					} else {
						results[index] = result
						atomic.AddInt64(&completed, 1)
					}
				}
			}
		}()
	}

	// Send run indices to workers
	go func() {
		defer close(indexChan)
		for i := range runIDs {
			select {
			case <-ctx.Done():
				return
			case indexChan <- i:
			}
		}
	}()

	// Wait for all workers to complete
	wg.Wait()

	// Filter out empty results (failed polls)
	completedRuns := make([]RunResult, 0, len(results))
	eventCount := 0
	for _, result := range results {
		if result.RunID == "" { // Empty RunID indicates a failed poll
			continue
		}
		completedRuns = append(completedRuns, result)
		for _, events := range result.Events {
			eventCount += len(events)
		}
	}

	// Update stats
	stats.RunsCompleted = len(completedRuns)
	stats.EventsReceived = eventCount

	log.Printf(`✅ Run polling completed:
   Completed: %d
   Failed: %d
   Events: %d
`, stats.RunsCompleted, int(atomic.LoadInt64(&failed)), eventCount)

	return completedRuns, nil
}

// pollSingleRun polls one run until it completes or the deadline passes.
func pollSingleRun(ctx context.Context, client *HTTPClient, baseURL, runID string) (RunResult, error) {
	url := fmt.Sprintf("%s/scans/%s", baseURL, runID)
	deadline := time.Now().Add(RunPollDeadline)

	for {
		result, err := getRun(ctx, client, url)
		if err != nil {
			return RunResult{}, err
		}
		if result.Status == "complete" {
			return result, nil
		}
		if time.Now().After(deadline) {
			return RunResult{}, fmt.Errorf("run %s still %s after %s", runID, result.Status, RunPollDeadline)
		}

		select {
		case <-ctx.Done():
			return RunResult{}, fmt.Errorf("context cancelled while polling run %s: %w", runID, ctx.Err())
		case <-time.After(RunPollInterval):
		}
	}
}

// getRun fetches a run result once.
func getRun(ctx context.Context, client *HTTPClient, url string) (RunResult, error) {
	resp, err := client.Get(ctx, url)
	if err != nil {
		return RunResult{}, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return RunResult{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return RunResult{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var result RunResult
	if err := unmarshalJSON(body, &result); err != nil {
		return RunResult{}, fmt.Errorf("failed to parse response: %w", err)
	}

	return result, nil
}

// retrieveRankings fetches the top N ranking for every scanned day
// concurrently and returns them keyed by date.
func retrieveRankings(ctx context.Context, config *Config, client *HTTPClient, dates []string, stats *Stats) (map[string][]Entry, error) {
	log.Printf("🏆 Retrieving top %d rankings for %d days with %d workers...", config.TopN, len(dates), config.Workers)

	rankings := make([][]Entry, len(dates))
	var (
		retrieved int64
		failed    int64
	)

	// Create worker pool
	dateChan := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for index := range dateChan {
				select {
				case <-ctx.Done():
					return
				default:
					entries, err := retrieveDayRanking(ctx, client, config.BaseURL, dates[index], config.TopN)
					if err != nil {
						atomic.AddInt64(&failed, 1)
						if config.Verbose {
							log.Printf("⚠️  Failed to get ranking for %s: %v", dates[index], err)
						}
					} else {
						rankings[index] = entries
						atomic.AddInt64(&retrieved, 1)
					}
				}
			}
		}()
	}

	// Send date indices to workers
	go func() {
		defer close(dateChan)
		for i := range dates {
			select {
			case <-ctx.Done():
				return
			case dateChan <- i:
			}
		}
	}()

	// Wait for all workers to complete
	wg.Wait()

	byDate := make(map[string][]Entry, len(dates))
	for i, entries := range rankings {
		if entries != nil {
			byDate[dates[i]] = entries
		}
	}

	// Update stats
	stats.RankingsRetrieved = len(byDate)

	log.Printf(`✅ Ranking retrieval completed:
   Retrieved: %d
   Failed: %d
`, len(byDate), int(atomic.LoadInt64(&failed)))

	return byDate, nil
}

// retrieveDayRanking fetches the top N ranking for a single day.
func retrieveDayRanking(ctx context.Context, client *HTTPClient, baseURL, date string, topN int) ([]Entry, error) {
	url := fmt.Sprintf("%s/rankings?date=%s&limit=%d", baseURL, date, topN)

	resp, err := client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var entries []Entry
	if err := unmarshalJSON(body, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return entries, nil
}

// getBestByDay retrieves the per-day winners table.
func getBestByDay(ctx context.Context, config *Config, client *HTTPClient, stats *Stats) ([]Entry, error) {
	log.Printf("🥇 Getting best symbol per day...")

	url := config.BaseURL + "/rankings/best"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var best []Entry
	if err := unmarshalJSON(body, &best); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	stats.BestEntries = len(best)
	log.Printf("✅ Retrieved %d best-by-day entries", len(best))

	return best, nil
}
