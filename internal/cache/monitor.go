package cache

import (
	"sync"
	"time"
)

// PerfSample records one timed operation.
type PerfSample struct {
	Operation string        `json:"operation"`
	Duration  time.Duration `json:"duration"`
	At        time.Time     `json:"at"`
	CacheHit  *bool         `json:"cache_hit,omitempty"`
}

// PerfStats aggregates samples for one operation name, or globally.
type PerfStats struct {
	Count   int           `json:"count"`
	Min     time.Duration `json:"min"`
	Max     time.Duration `json:"max"`
	Avg     time.Duration `json:"avg"`
	HitRate float64       `json:"hit_rate"`
}

// Monitor records performance samples in a bounded ring, dropping the oldest
// sample once maxEntries is exceeded. Construct one at startup and pass it by
// reference; there is no implicit global instance.
type Monitor struct {
	mu      sync.Mutex
	samples []PerfSample
	next    int
	full    bool
}

// NewMonitor creates a monitor retaining at most maxEntries samples.
func NewMonitor(maxEntries int) *Monitor {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &Monitor{samples: make([]PerfSample, maxEntries)}
}

// Record appends a sample. cacheHit may be nil for operations that do not
// touch a cache.
func (m *Monitor) Record(operation string, d time.Duration, cacheHit *bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.samples[m.next] = PerfSample{
		Operation: operation,
		Duration:  d,
		At:        time.Now().UTC(),
		CacheHit:  cacheHit,
	}
	m.next++
	if m.next == len(m.samples) {
		m.next = 0
		m.full = true
	}
}

// StatsFor aggregates samples recorded for one operation name.
func (m *Monitor) StatsFor(operation string) PerfStats {
	return m.stats(func(s PerfSample) bool { return s.Operation == operation })
}

// Stats aggregates all retained samples.
func (m *Monitor) Stats() PerfStats {
	return m.stats(func(PerfSample) bool { return true })
}

func (m *Monitor) stats(match func(PerfSample) bool) PerfStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	var st PerfStats
	var total time.Duration
	hits, tracked := 0, 0

	n := m.next
	if m.full {
		n = len(m.samples)
	}
	for i := 0; i < n; i++ {
		s := m.samples[i]
		if !match(s) {
			continue
		}
		if st.Count == 0 || s.Duration < st.Min {
			st.Min = s.Duration
		}
		if s.Duration > st.Max {
			st.Max = s.Duration
		}
		total += s.Duration
		st.Count++
		if s.CacheHit != nil {
			tracked++
			if *s.CacheHit {
				hits++
			}
		}
	}

	if st.Count > 0 {
		st.Avg = total / time.Duration(st.Count)
	}
	if tracked > 0 {
		st.HitRate = float64(hits) / float64(tracked)
	}
	return st
}
