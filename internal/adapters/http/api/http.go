// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lunalira/transit/internal/adapters/repository"
	service "github.com/lunalira/transit/internal/app"
	"github.com/lunalira/transit/internal/domain/astro"
	"github.com/lunalira/transit/internal/domain/model"
	"github.com/lunalira/transit/internal/domain/scan"
	"github.com/lunalira/transit/internal/domain/types"
)

// dateLayout is the wire format for calendar dates.
const dateLayout = "2006-01-02"

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// SubmitRun starts an asynchronous scan run and returns its id.
	SubmitRun(ctx context.Context, req service.RunRequest) (string, error)

	// GetRun returns a snapshot of one run.
	GetRun(ctx context.Context, id string) (*repository.Run, error)

	// Read operations expose per-day ranking data.
	TopN(ctx context.Context, date string, n int) ([]Entry, error)
	Rank(ctx context.Context, date, symbol string) (Entry, error)
	BestByDay(ctx context.Context) ([]Entry, error)
}

// Entry mirrors the read shape returned by ranking queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	scansHandler     *ScansHandler
	rankingsHandler  *RankingsHandler
	rankHandler      *RankHandler
	dashboardHandler *dashboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxRankingLimit int) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		scansHandler:     NewScansHandler(deps),
		rankingsHandler:  NewRankingsHandler(deps, maxRankingLimit),
		rankHandler:      NewRankHandler(deps),
		dashboardHandler: newdashboardHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/dashboard", s.dashboardHandler.HandleDashboard)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/scans", MetricsMiddleware(s.scansHandler.HandlePostScan, "scans"))
	mux.HandleFunc("/scans/", MetricsMiddleware(s.scansHandler.HandleGetScan, "scan"))
	mux.HandleFunc("/rankings", MetricsMiddleware(s.rankingsHandler.HandleGetRankings, "rankings"))
	mux.HandleFunc("/rankings/best", MetricsMiddleware(s.rankingsHandler.HandleGetBest, "rankings_best"))
	mux.HandleFunc("/rank/", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
}

// listingRequest is one symbol row of a scan submission.
type listingRequest struct {
	Symbol      string `json:"symbol"`
	ListingDate string `json:"listing_date,omitempty"`
}

// timeRequest selects the wall-clock sampling policy of a scan.
type timeRequest struct {
	Mode        string            `json:"mode"`
	At          string            `json:"at,omitempty"`
	Times       []string          `json:"times,omitempty"`
	From        string            `json:"from,omitempty"`
	To          string            `json:"to,omitempty"`
	StepMinutes int               `json:"step_minutes,omitempty"`
	ByDay       map[string]string `json:"by_day,omitempty"`
}

// scanRequest mirrors the OpenAPI schema for POST /scans.
type scanRequest struct {
	Symbols         []listingRequest   `json:"symbols"`
	Start           string             `json:"start"`
	End             string             `json:"end"`
	Time            *timeRequest       `json:"time,omitempty"`
	Orbs            map[string]float64 `json:"orbs,omitempty"`
	Scores          map[string]float64 `json:"scores,omitempty"`
	MinScore        *float64           `json:"min_score,omitempty"`
	TradingDaysOnly *bool              `json:"trading_days_only,omitempty"`
}

func (s scanRequest) validate() error {
	if len(s.Symbols) == 0 {
		return errors.New("missing symbols")
	}
	for _, l := range s.Symbols {
		if strings.TrimSpace(l.Symbol) == "" {
			return errors.New("missing symbol")
		}
	}
	if strings.TrimSpace(s.Start) == "" {
		return errors.New("missing start")
	}
	if strings.TrimSpace(s.End) == "" {
		return errors.New("missing end")
	}
	for name := range s.Orbs {
		if _, ok := astro.AspectAngle(name); !ok {
			return fmt.Errorf("unknown aspect %q in orbs", name)
		}
	}
	for name := range s.Scores {
		if _, ok := astro.AspectAngle(name); !ok {
			return fmt.Errorf("unknown aspect %q in scores", name)
		}
	}
	return nil
}

// toRunRequest converts the wire request into the service submission,
// parsing dates and building the time policy.
func (s scanRequest) toRunRequest() (service.RunRequest, error) {
	start, err := time.Parse(dateLayout, s.Start)
	if err != nil {
		return service.RunRequest{}, fmt.Errorf("invalid start %q; must be YYYY-MM-DD", s.Start)
	}
	end, err := time.Parse(dateLayout, s.End)
	if err != nil {
		return service.RunRequest{}, fmt.Errorf("invalid end %q; must be YYYY-MM-DD", s.End)
	}

	listings := make([]model.Listing, 0, len(s.Symbols))
	for _, l := range s.Symbols {
		listing := model.Listing{Symbol: strings.TrimSpace(l.Symbol)}
		if strings.TrimSpace(l.ListingDate) != "" {
			d, err := time.Parse(dateLayout, l.ListingDate)
			if err != nil {
				return service.RunRequest{}, fmt.Errorf("invalid listing_date %q for %s", l.ListingDate, l.Symbol)
			}
			listing.Date = d
		}
		listings = append(listings, listing)
	}

	policy, err := buildPolicy(s.Time)
	if err != nil {
		return service.RunRequest{}, err
	}

	return service.RunRequest{
		Listings:        listings,
		Start:           start,
		End:             end,
		Policy:          policy,
		Orbs:            s.Orbs,
		Scores:          s.Scores,
		MinScore:        s.MinScore,
		TradingDaysOnly: s.TradingDaysOnly,
	}, nil
}

// buildPolicy translates the wire time selection into a scan policy. Nil
// keeps the service default.
func buildPolicy(t *timeRequest) (scan.TimePolicy, error) {
	if t == nil {
		return nil, nil
	}

	switch t.Mode {
	case "fixed":
		at, err := scan.ParseTimeOfDay(t.At)
		if err != nil {
			return nil, err
		}
		return scan.FixedDaily{Time: at}, nil

	case "list":
		if len(t.Times) == 0 {
			return nil, errors.New("time mode list requires times")
		}
		list := make([]scan.TimeOfDay, 0, len(t.Times))
		for _, raw := range t.Times {
			tod, err := scan.ParseTimeOfDay(raw)
			if err != nil {
				return nil, err
			}
			list = append(list, tod)
		}
		return scan.ExplicitTimes{List: list}, nil

	case "stepped":
		from, err := scan.ParseTimeOfDay(t.From)
		if err != nil {
			return nil, err
		}
		to, err := scan.ParseTimeOfDay(t.To)
		if err != nil {
			return nil, err
		}
		if t.StepMinutes < 0 {
			return nil, errors.New("step_minutes must not be negative")
		}
		return scan.SteppedRange{
			From: from,
			To:   to,
			Step: time.Duration(t.StepMinutes) * time.Minute,
		}, nil

	case "weekdays":
		if len(t.ByDay) == 0 {
			return nil, errors.New("time mode weekdays requires by_day")
		}
		byDay := make(map[time.Weekday]scan.TimeOfDay, len(t.ByDay))
		for name, raw := range t.ByDay {
			day, ok := weekdayByName(name)
			if !ok {
				return nil, fmt.Errorf("unknown weekday %q", name)
			}
			tod, err := scan.ParseTimeOfDay(raw)
			if err != nil {
				return nil, err
			}
			byDay[day] = tod
		}
		return scan.PerWeekday{ByDay: byDay}, nil
	}

	return nil, fmt.Errorf("unknown time mode %q", t.Mode)
}

func weekdayByName(name string) (time.Weekday, bool) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(name, d.String()) {
			return d, true
		}
	}
	return time.Sunday, false
}

// scanAck mirrors the OpenAPI schema for a 202 scan submission.
type scanAck struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

// runResponse mirrors the OpenAPI schema for GET /scans/{id}. Events are
// grouped by comparison source.
type runResponse struct {
	RunID       string                         `json:"run_id"`
	Status      string                         `json:"status"`
	Total       int                            `json:"symbols_total"`
	Completed   int                            `json:"symbols_completed"`
	Diagnostics []repository.Diagnostic        `json:"diagnostics,omitempty"`
	Events      map[string][]model.AspectEvent `json:"events"`
}

func newRunResponse(run *repository.Run) runResponse {
	grouped := make(map[string][]model.AspectEvent, len(model.Sources()))
	for _, ev := range run.Events {
		grouped[string(ev.Source)] = append(grouped[string(ev.Source)], ev)
	}
	return runResponse{
		RunID:       run.ID,
		Status:      run.Status,
		Total:       run.Total,
		Completed:   run.Completed,
		Diagnostics: run.Diagnostics,
		Events:      grouped,
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
