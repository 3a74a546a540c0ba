package testscans

import "time"

// Config holds configuration for the scan test
type Config struct {
	BaseURL    string        // Base URL of the service
	NumSymbols int           // Number of symbols to generate
	BatchSize  int           // Symbols per scan run
	RangeDays  int           // Length of the scanned date range
	TopN       int           // Number of top entries to fetch per day
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	OutputFile string        // Output file for run results
	LogFile    string        // Log file for test output
	Verbose    bool          // Enable verbose logging
}

// Listing is one symbol row of a scan submission.
type Listing struct {
	Symbol      string `json:"symbol"`
	ListingDate string `json:"listing_date,omitempty"`
}

// TimeSelection mirrors the API's time policy schema.
type TimeSelection struct {
	Mode        string            `json:"mode"`
	At          string            `json:"at,omitempty"`
	Times       []string          `json:"times,omitempty"`
	From        string            `json:"from,omitempty"`
	To          string            `json:"to,omitempty"`
	StepMinutes int               `json:"step_minutes,omitempty"`
	ByDay       map[string]string `json:"by_day,omitempty"`
}

// ScanRequest mirrors the API schema for POST /scans.
type ScanRequest struct {
	Symbols         []Listing      `json:"symbols"`
	Start           string         `json:"start"`
	End             string         `json:"end"`
	Time            *TimeSelection `json:"time,omitempty"`
	MinScore        *float64       `json:"min_score,omitempty"`
	TradingDaysOnly *bool          `json:"trading_days_only,omitempty"`
}

// ScanAck is the response to a scan submission.
type ScanAck struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

// Diagnostic is one skipped symbol of a run.
type Diagnostic struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

// AspectEvent is one scored event row of a run result.
type AspectEvent struct {
	Date   string  `json:"date"`
	Symbol string  `json:"symbol"`
	Aspect string  `json:"aspect"`
	Score  float64 `json:"score"`
	Source string  `json:"source"`
	Time   string  `json:"time,omitempty"`
}

// RunResult is the response to GET /scans/{id}.
type RunResult struct {
	RunID       string                   `json:"run_id"`
	Status      string                   `json:"status"`
	Total       int                      `json:"symbols_total"`
	Completed   int                      `json:"symbols_completed"`
	Diagnostics []Diagnostic             `json:"diagnostics,omitempty"`
	Events      map[string][]AspectEvent `json:"events"`
}

// Entry represents a ranking entry.
type Entry struct {
	Rank   int     `json:"rank"`
	Date   string  `json:"date"`
	Symbol string  `json:"symbol"`
	Score  float64 `json:"score"`
}

// Stats holds test statistics
type Stats struct {
	SymbolsGenerated  int
	RunsSubmitted     int
	RunsAccepted      int
	RunsThrottled     int
	RunsFailed        int
	RunsCompleted     int
	EventsReceived    int
	RankingsRetrieved int
	BestEntries       int
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}
