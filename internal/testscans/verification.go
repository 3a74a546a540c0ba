package testscans

import (
	"fmt"
	"log"
	"sort"
	"strings"
)

// verifyResults checks the completed runs and ranking tables for
// consistency: no duplicate aspect pairs per instant, rankings sorted by
// score, and a chronologically ordered best-by-day table.
func verifyResults(config *Config, runs []RunResult, rankings map[string][]Entry, best []Entry) error {
	log.Println("🔍 Verifying results...")

	if len(runs) == 0 {
		return fmt.Errorf("no completed runs to verify")
	}

	for _, run := range runs {
		if err := verifyRunEvents(run); err != nil {
			return fmt.Errorf("run %s: %w", run.RunID, err)
		}
	}
	log.Printf("✅ Event dedup verified across %d runs", len(runs))

	for date, entries := range rankings {
		if err := verifyDayRanking(date, entries); err != nil {
			return fmt.Errorf("ranking for %s: %w", date, err)
		}
	}
	log.Printf("✅ Ranking order verified for %d days", len(rankings))

	if len(best) > 0 {
		if err := verifyBestByDay(best); err != nil {
			return fmt.Errorf("best-by-day: %w", err)
		}
		log.Println("✅ Best-by-day table verified")
	}

	displayTopEntries(rankings, best, config.Verbose)

	log.Println("✅ Result verification completed")
	return nil
}

// verifyRunEvents checks that a run holds at most one event per symbol,
// day, wall-clock tag, and aspect pair.
func verifyRunEvents(run RunResult) error {
	if run.Status != "complete" {
		return fmt.Errorf("status %q, expected complete", run.Status)
	}
	if run.Completed != run.Total {
		return fmt.Errorf("completed %d of %d symbols", run.Completed, run.Total)
	}

	seen := make(map[string]struct{})
	for source, events := range run.Events {
		for _, ev := range events {
			key := strings.Join([]string{ev.Symbol, ev.Date, ev.Time, source, eventPair(ev.Aspect)}, "|")
			if _, ok := seen[key]; ok {
				return fmt.Errorf("duplicate event %s on %s (%s)", ev.Aspect, ev.Date, ev.Symbol)
			}
			seen[key] = struct{}{}
		}
	}
	return nil
}

// eventPair strips the orb and score suffix from an aspect description,
// leaving the planet pair that identifies the event.
func eventPair(description string) string {
	if i := strings.Index(description, " ("); i >= 0 {
		return description[:i]
	}
	return description
}

// verifyDayRanking checks that a day's entries are sorted by score
// descending with sequential ranks.
func verifyDayRanking(date string, entries []Entry) error {
	for i, entry := range entries {
		if entry.Rank != i+1 {
			return fmt.Errorf("entry %d has rank %d", i, entry.Rank)
		}
		if entry.Date != date {
			return fmt.Errorf("entry %d has date %s", i, entry.Date)
		}
		if i > 0 && entry.Score > entries[i-1].Score {
			return fmt.Errorf("entry %d has higher score than entry %d", i, i-1)
		}
	}
	return nil
}

// verifyBestByDay checks that the winners table is one rank-1 entry per
// day in chronological order.
func verifyBestByDay(best []Entry) error {
	for i, entry := range best {
		if entry.Rank != 1 {
			return fmt.Errorf("entry for %s has rank %d", entry.Date, entry.Rank)
		}
		if i > 0 && entry.Date <= best[i-1].Date {
			return fmt.Errorf("dates out of order at entry %d (%s after %s)", i, entry.Date, best[i-1].Date)
		}
	}
	return nil
}

// displayTopEntries shows the strongest symbols across all ranked days.
func displayTopEntries(rankings map[string][]Entry, best []Entry, verbose bool) {
	var all []Entry
	for _, entries := range rankings {
		all = append(all, entries...)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Score > all[j].Score
	})

	topN := 10
	if len(all) < topN {
		topN = len(all)
	}

	log.Printf("🏆 Top %d entries across all days:", topN)
	for i := 0; i < topN; i++ {
		entry := all[i]
		log.Printf("   %d. %s on %s - Score: %.1f", i+1, entry.Symbol, entry.Date, entry.Score)
	}

	if len(best) > 0 {
		bestTopN := topN
		if len(best) < bestTopN {
			bestTopN = len(best)
		}

		log.Printf("🥇 First %d daily winners:", bestTopN)
		for i := 0; i < bestTopN; i++ {
			entry := best[i]
			log.Printf("   %s: %s - Score: %.1f", entry.Date, entry.Symbol, entry.Score)
		}
	}

	if verbose && len(all) > 0 {
		avgScore := calculateAverageScore(all)
		maxScore := all[0].Score
		minScore := all[len(all)-1].Score

		log.Printf(`📊 Score statistics:
   Average: %.1f
   Maximum: %.1f
   Minimum: %.1f
`, avgScore, maxScore, minScore)
	}
}

// calculateAverageScore calculates the average score across entries.
func calculateAverageScore(entries []Entry) float64 {
	if len(entries) == 0 {
		return 0
	}

	sum := 0.0
	for _, entry := range entries {
		sum += entry.Score
	}

	return sum / float64(len(entries))
}
