package testscans

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := marshalJSON(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// marshalJSON marshals a struct to JSON
func marshalJSON(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// unmarshalJSON unmarshals JSON to a struct
func unmarshalJSON(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// submitRuns submits scan requests concurrently using worker pools and
// returns the run IDs the service accepted.
func submitRuns(ctx context.Context, config *Config, client *HTTPClient, requests []ScanRequest, stats *Stats) ([]string, error) {
	log.Printf("📤 Submitting %d scan runs with %d workers...", len(requests), config.Workers)

	url := config.BaseURL + "/scans"

	// Counters for statistics
	var (
		accepted  int64
		throttled int64
		failed    int64
		submitted int64
	)

	// Progress reporting
	var lastReport time.Time
	reportInterval := 1 * time.Second

	// Create worker pool
	requestChan := make(chan ScanRequest, config.Workers*WorkerChannelMultiplier)
	var mu sync.Mutex
	var runIDs []string
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for request := range requestChan {
				select {
				case <-ctx.Done():
					return
				default:
					runID, result := submitSingleRun(ctx, client, url, request)

					// Update counters
					atomic.AddInt64(&submitted, 1)
					switch result {
					case "accepted":
						atomic.AddInt64(&accepted, 1)
						mu.Lock()
						runIDs = append(runIDs, runID)
						mu.Unlock()
					case "throttled":
						atomic.AddInt64(&throttled, 1)
					case "failed":
						atomic.AddInt64(&failed, 1)
					}

					// Progress reporting
					if time.Since(lastReport) >= reportInterval {
						lastReport = time.Now()
						total := atomic.LoadInt64(&submitted)
						acc := atomic.LoadInt64(&accepted)
						thr := atomic.LoadInt64(&throttled)
						fail := atomic.LoadInt64(&failed)

						if config.Verbose {
							log.Printf("📊 Progress: %d/%d submitted (accepted: %d, throttled: %d, failed: %d)",
								total, len(requests), acc, thr, fail)
						} else {
							fmt.Printf("\r📤 Submitted: %d/%d (accepted: %d, throttled: %d, failed: %d)",
								total, len(requests), acc, thr, fail)
						}
					}
				}
			}
		}()
	}

	// Send requests to workers
	go func() {
		defer close(requestChan)
		for _, request := range requests {
			select {
			case <-ctx.Done():
				return
			case requestChan <- request:
			}
		}
	}()

	// Wait for all workers to complete
	wg.Wait()

	// Final progress report
	if !config.Verbose {
		fmt.Println() // New line after progress indicator
	}

	// Update stats
	stats.RunsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.RunsAccepted = int(atomic.LoadInt64(&accepted))
	stats.RunsThrottled = int(atomic.LoadInt64(&throttled))
	stats.RunsFailed = int(atomic.LoadInt64(&failed))

	log.Printf(`✅ Run submission completed:
   Accepted: %d
   Throttled: %d
   Failed: %d
`, stats.RunsAccepted, stats.RunsThrottled, stats.RunsFailed)

	return runIDs, nil
}

// submitSingleRun submits a single scan request and returns the run ID
// (when accepted) and the result category.
func submitSingleRun(ctx context.Context, client *HTTPClient, url string, request ScanRequest) (string, string) {
	resp, err := client.Post(ctx, url, request)
	if err != nil {
		return "", "failed"
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return "", "failed"
	}

	switch resp.StatusCode {
	case StatusAccepted:
		var ack ScanAck
		if err := unmarshalJSON(body, &ack); err != nil || ack.RunID == "" {
			return "", "failed"
		}
		return ack.RunID, "accepted"
	case StatusTooManyRequests:
		// Backpressure - the queue rejected every job of the run
		return "", "throttled"
	default:
		return "", "failed"
	}
}
