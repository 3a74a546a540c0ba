package repository

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/lunalira/transit/internal/domain/types"
	"github.com/lunalira/transit/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Each tracked calendar day owns its own treap. Ordering within a day:
// total score DESC, then symbol ASC (deterministic). The BST comparator
// treats "less" as "ranks earlier", so in-order traversal walks a day's
// board from best to worst.

// scoreScale controls fixed-point scaling from float64. Event scores are
// small integers and half-integers, so six decimal places keep day totals
// exact and the ordering deterministic.
const scoreScale = 1_000_000

type scoreFP int64

func toFixedPoint(x float64) scoreFP {
	if math.IsNaN(x) {
		return 0
	}
	if math.IsInf(x, 1) {
		return scoreFP(math.MaxInt64)
	}
	if math.IsInf(x, -1) {
		return scoreFP(math.MinInt64)
	}
	return scoreFP(math.Round(x * scoreScale))
}

func toFloat(x scoreFP) float64 {
	return float64(x) / scoreScale
}

// treap node
type node struct {
	symbol string
	score  scoreFP
	prio   uint64
	left   *node
	right  *node
	size   int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less reports whether (aScore, aSymbol) ranks earlier than (bScore, bSymbol).
func less(aScore scoreFP, aSymbol string, bScore scoreFP, bSymbol string) bool {
	if aScore != bScore {
		return aScore > bScore // higher total ranks earlier
	}
	return aSymbol < bSymbol // tie-breaker by symbol asc
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

// scoreToPriority biases the heap so higher totals float up. The offset
// shifts negative fixed-point scores into uint64 range.
func scoreToPriority(score scoreFP) uint64 {
	const offset = uint64(1) << 63
	return uint64(score) + offset
}

func insert(n *node, symbol string, score scoreFP) *node {
	if n == nil {
		return &node{symbol: symbol, score: score, prio: scoreToPriority(score), size: 1}
	}
	if less(score, symbol, n.score, n.symbol) {
		n.left = insert(n.left, symbol, score)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, symbol, score)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, symbol string, score scoreFP) *node {
	if n == nil {
		return nil
	}
	if score == n.score && symbol == n.symbol {
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, symbol, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, symbol, score)
		}
	} else if less(score, symbol, n.score, n.symbol) {
		n.left = deleteNode(n.left, symbol, score)
	} else {
		n.right = deleteNode(n.right, symbol, score)
	}
	fix(n)
	return n
}

// board is one day's ranking state.
type board struct {
	root    *node
	totals  map[string]scoreFP
}

// collect appends up to limit entries in rank order for one day.
func (b *board) collect(day string, limit int, out *[]types.Entry) {
	collectTopN(b.root, day, limit, out)
}

// collectTopN appends up to limit entries in rank order (highest totals
// first). In-order traversal already honors the tie-breaker, so entries come
// out deterministic.
func collectTopN(n *node, day string, limit int, out *[]types.Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, day, limit, out)
	if len(*out) < limit {
		*out = append(*out, types.Entry{
			Date:   day,
			Symbol: n.symbol,
			Score:  toFloat(n.score),
		})
	}
	if len(*out) < limit {
		collectTopN(n.right, day, limit, out)
	}
}

// TreapStore keeps one treap per calendar day, guarded by a single RWMutex.
type TreapStore struct {
	mu                    sync.RWMutex
	days                  map[string]*board
	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
}

// NewTreapStore constructs a ranking store with configuration options.
func NewTreapStore(ctx context.Context, opts ...Option) *TreapStore {
	s := &TreapStore{
		days:                  make(map[string]*board),
		metricsUpdateInterval: 5 * time.Second,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.stopChan = make(chan struct{})
	s.startMetricsUpdater(ctx)

	return s
}

// Close gracefully shuts down the background metrics goroutine.
func (s *TreapStore) Close() error {
	select {
	case <-s.stopChan:
		// already closed
	default:
		close(s.stopChan)
	}
	s.wg.Wait()
	return nil
}

// AddScore implements Store.AddScore with O(log n) expected time per day.
func (s *TreapStore) AddScore(ctx context.Context, date time.Time, symbol string, delta float64) (float64, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRankingUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	day := date.Format(DateLayout)

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.days[day]
	if !ok {
		b = &board{totals: make(map[string]scoreFP)}
		s.days[day] = b
	}

	old, existed := b.totals[symbol]
	total := old + toFixedPoint(delta)
	if existed {
		b.root = deleteNode(b.root, symbol, old)
	}
	b.totals[symbol] = total
	b.root = insert(b.root, symbol, total)

	return toFloat(total), nil
}

// Rank returns the symbol's rank and total for the day.
func (s *TreapStore) Rank(ctx context.Context, date time.Time, symbol string) (types.Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRankingQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	day := date.Format(DateLayout)

	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.days[day]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return types.Entry{}, ErrNotFound
	}
	if _, ok := b.totals[symbol]; !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return types.Entry{}, ErrNotFound
	}

	entries := make([]types.Entry, 0, len(b.totals))
	b.collect(day, len(b.totals), &entries)
	assignRanksWithTies(entries)

	for _, e := range entries {
		if e.Symbol == symbol {
			return e, nil
		}
	}
	return types.Entry{}, ErrNotFound
}

// TopN returns the day's top N entries ordered by total desc.
func (s *TreapStore) TopN(ctx context.Context, date time.Time, n int) ([]types.Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRankingQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	day := date.Format(DateLayout)

	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.days[day]
	if !ok {
		return []types.Entry{}, nil
	}

	out := make([]types.Entry, 0, n)
	b.collect(day, n, &out)
	assignRanksWithTies(out)
	return out, nil
}

// BestByDay returns the top entry of every tracked day, days ascending.
func (s *TreapStore) BestByDay(ctx context.Context) ([]types.Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRankingQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	days := make([]string, 0, len(s.days))
	for day := range s.days {
		days = append(days, day)
	}
	sort.Strings(days)

	out := make([]types.Entry, 0, len(days))
	for _, day := range days {
		best := make([]types.Entry, 0, 1)
		s.days[day].collect(day, 1, &best)
		if len(best) == 1 {
			best[0].Rank = 1
			out = append(out, best[0])
		}
	}
	return out, nil
}

// Count returns the number of symbols ranked on the day.
func (s *TreapStore) Count(ctx context.Context, date time.Time) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.days[date.Format(DateLayout)]
	if !ok {
		return 0
	}
	return len(b.totals)
}

// Days returns every tracked day, ascending.
func (s *TreapStore) Days(ctx context.Context) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.days))
	for day := range s.days {
		out = append(out, day)
	}
	sort.Strings(out)
	return out
}

// startMetricsUpdater starts a background goroutine that refreshes
// store-level metrics at the configured interval.
func (s *TreapStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.updateMetrics()
			}
		}
	}()
}

// updateMetrics refreshes store-level gauges.
func (s *TreapStore) updateMetrics() {
	s.mu.RLock()
	dayCount := len(s.days)
	symbolCount := 0
	for _, b := range s.days {
		symbolCount += len(b.totals)
	}
	s.mu.RUnlock()

	metrics.UpdateRankingDays(dayCount)
	metrics.UpdateRankingSymbolsTotal(symbolCount)
}

// assignRanksWithTies assigns ranks so symbols with equal totals share a
// rank and the next distinct total takes the next consecutive rank.
func assignRanksWithTies(entries []types.Entry) {
	if len(entries) == 0 {
		return
	}

	currentRank := 1
	for i := 0; i < len(entries); i++ {
		entries[i].Rank = currentRank

		sameScoreCount := 1
		for j := i + 1; j < len(entries) && entries[j].Score == entries[i].Score; j++ {
			entries[j].Rank = currentRank
			sameScoreCount++
		}

		currentRank++
		i += sameScoreCount - 1
	}
}
