package testscans

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"

	"github.com/lunalira/transit/pkg/logger"
)

// Constants for random symbol generation.
const (
	symbolMinLetters  = 3
	symbolExtraRange  = 3 // symbols are 3 to 5 letters long
	letterCount       = 26
	listingYearMin    = 1995
	listingYearRange  = 29 // listing dates fall in 1995 - 2023
	daysPerYearApprox = 365
)

// Constants for time policy selection.
const (
	policyTypeDivisor  = 6
	casePolicyDefault  = 0 // no time block; service default applies
	casePolicyDefault2 = 1
	casePolicyFixed    = 2
	casePolicyList     = 3
	casePolicyStepped  = 4
	casePolicyWeekdays = 5
)

// Constants for request variation.
const (
	datelessDivisor   = 10 // roughly one in ten listings has no date
	minScoreDivisor   = 4  // roughly one in four requests overrides min score
	minScoreFloor     = -10.0
	minScoreSpan      = 10.0
	minScoreGranules  = 20
	tradingDaysChance = 3 // roughly one in three requests scans trading days only
)

// randomInt returns a random integer in [0, n) using crypto/rand.
func randomInt(n int64) int64 {
	v, _ := rand.Int(rand.Reader, big.NewInt(n))
	return v.Int64()
}

// generateSymbols creates the requested number of unique ticker symbols
// with randomized listing dates.
func generateSymbols(ctx context.Context, config *Config, stats *Stats) []Listing {
	logger.Get().Info(ctx, "generating ticker symbols", logger.Int("numSymbols", config.NumSymbols))

	listings := make([]Listing, 0, config.NumSymbols)
	seen := make(map[string]struct{}, config.NumSymbols)

	for len(listings) < config.NumSymbols {
		symbol := randomSymbol()
		if _, ok := seen[symbol]; ok {
			continue
		}
		seen[symbol] = struct{}{}

		listing := Listing{Symbol: symbol}
		// Leave an occasional listing dateless so runs exercise the
		// missing-date diagnostics path.
		if randomInt(datelessDivisor) != 0 {
			listing.ListingDate = randomListingDate()
		}
		listings = append(listings, listing)
	}

	stats.SymbolsGenerated = len(listings)
	logger.Get().Info(ctx, "generated symbols successfully", logger.Int("count", len(listings)))

	return listings
}

// randomSymbol returns a 3 to 5 letter uppercase ticker.
func randomSymbol() string {
	length := symbolMinLetters + int(randomInt(symbolExtraRange))
	letters := make([]byte, length)
	for i := range letters {
		letters[i] = byte('A' + randomInt(letterCount))
	}
	return string(letters)
}

// randomListingDate returns a YYYY-MM-DD date between 1995 and 2023.
func randomListingDate() string {
	base := time.Date(listingYearMin, time.January, 1, 0, 0, 0, 0, time.UTC)
	offset := randomInt(listingYearRange * daysPerYearApprox)
	return base.AddDate(0, 0, int(offset)).Format("2006-01-02")
}

// buildRequests batches the listings into scan requests over a shared
// date range, with varied time policies and score thresholds.
func buildRequests(ctx context.Context, config *Config, listings []Listing) []ScanRequest {
	start := time.Now().UTC().Truncate(24 * time.Hour)
	end := start.AddDate(0, 0, config.RangeDays-1)

	var requests []ScanRequest
	for i := 0; i < len(listings); i += config.BatchSize {
		batchEnd := i + config.BatchSize
		if batchEnd > len(listings) {
			batchEnd = len(listings)
		}

		req := ScanRequest{
			Symbols: listings[i:batchEnd],
			Start:   start.Format("2006-01-02"),
			End:     end.Format("2006-01-02"),
			Time:    randomTimePolicy(),
		}
		if randomInt(minScoreDivisor) == 0 {
			minScore := minScoreFloor + float64(randomInt(minScoreGranules))*minScoreSpan/float64(minScoreGranules)
			req.MinScore = &minScore
		}
		if randomInt(tradingDaysChance) == 0 {
			tradingDays := true
			req.TradingDaysOnly = &tradingDays
		}
		requests = append(requests, req)
	}

	logger.Get().Info(ctx, "built scan requests",
		logger.Int("requests", len(requests)),
		logger.String("start", start.Format("2006-01-02")),
		logger.String("end", end.Format("2006-01-02")))

	return requests
}

// randomTimePolicy returns a randomized time selection, or nil to use
// the service default.
func randomTimePolicy() *TimeSelection {
	switch randomInt(policyTypeDivisor) {
	case casePolicyDefault, casePolicyDefault2:
		return nil
	case casePolicyFixed:
		return &TimeSelection{Mode: "fixed", At: randomClock()}
	case casePolicyList:
		n := 2 + randomInt(2)
		times := make([]string, 0, n)
		for int64(len(times)) < n {
			times = append(times, randomClock())
		}
		return &TimeSelection{Mode: "list", Times: times}
	case casePolicyStepped:
		return &TimeSelection{
			Mode:        "stepped",
			From:        "09:30",
			To:          "16:00",
			StepMinutes: int(60 + randomInt(4)*30),
		}
	case casePolicyWeekdays:
		byDay := make(map[string]string)
		for day := time.Monday; day <= time.Friday; day++ {
			byDay[day.String()] = randomClock()
		}
		return &TimeSelection{Mode: "weekdays", ByDay: byDay}
	default:
		return nil
	}
}

// randomClock returns an HH:MM string inside regular trading hours.
func randomClock() string {
	t := time.Date(0, 1, 1, 9, 30, 0, 0, time.UTC).
		Add(time.Duration(randomInt(14)) * 30 * time.Minute)
	return t.Format("15:04")
}
