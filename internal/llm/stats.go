package llm

import (
	"slices"
	"sync"
	"time"
)

// StatsSnapshot is a point-in-time aggregate of LLM latency samples.
type StatsSnapshot struct {
	Count int     `json:"count"`
	MinMs int64   `json:"min_ms"`
	MaxMs int64   `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`
}

// Stats tracks recent chat call latencies inside a rolling window.
// Samples arrive in time order, so expiry only ever trims a prefix.
type Stats struct {
	mu     sync.Mutex
	when   []time.Time
	millis []int64
	maxAge time.Duration
}

func NewStats(maxAge time.Duration) *Stats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &Stats{maxAge: maxAge}
}

func (s *Stats) Record(durationMs int64) {
	durationMs = max(durationMs, 0)
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	s.when = append(s.when, now)
	s.millis = append(s.millis, durationMs)
}

func (s *Stats) Snapshot() StatsSnapshot {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	n := len(s.millis)
	if n == 0 {
		return StatsSnapshot{}
	}

	sorted := slices.Clone(s.millis)
	slices.Sort(sorted)
	var sum int64
	for _, v := range sorted {
		sum += v
	}

	return StatsSnapshot{
		Count: n,
		MinMs: sorted[0],
		MaxMs: sorted[n-1],
		AvgMs: float64(sum) / float64(n),
		P50Ms: percentile(sorted, 50),
		P95Ms: percentile(sorted, 95),
		P99Ms: percentile(sorted, 99),
	}
}

func (s *Stats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.maxAge)
	keep := 0
	for keep < len(s.when) && s.when[keep].Before(cutoff) {
		keep++
	}
	s.when = s.when[keep:]
	s.millis = s.millis[keep:]
}

// percentile interpolates linearly between the two closest ranks.
func percentile(sorted []int64, pct float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	rank := pct / 100 * float64(n-1)
	lo := int(rank)
	if lo >= n-1 {
		return float64(sorted[n-1])
	}
	if rank <= 0 {
		return float64(sorted[0])
	}
	frac := rank - float64(lo)
	return float64(sorted[lo]) + frac*float64(sorted[lo+1]-sorted[lo])
}
