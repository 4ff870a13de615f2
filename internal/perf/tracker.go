// Package perf records page render timings for the admin debug tools.
package perf

import (
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultCapacity bounds the in-memory render log.
const DefaultCapacity = 500

// Entry is one recorded render.
type Entry struct {
	Component string        `json:"component"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
}

// Stat aggregates the entries of a single component.
type Stat struct {
	Component string        `json:"component"`
	Count     int           `json:"count"`
	Average   time.Duration `json:"avg_ns"`
	P95       time.Duration `json:"p95_ns"`
	Max       time.Duration `json:"max_ns"`
}

// Tracker is a process-wide render log. It is safe for concurrent use; the
// log only grows while tracking is enabled and is lost on restart.
type Tracker struct {
	mu        sync.RWMutex
	enabled   bool
	capacity  int
	entries   []Entry
	histogram *prometheus.HistogramVec
	now       func() time.Time
}

// NewTracker builds a Tracker. A nil registerer skips Prometheus export.
func NewTracker(capacity int, enabled bool, registerer prometheus.Registerer) *Tracker {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	t := &Tracker{enabled: enabled, capacity: capacity, now: time.Now}
	if registerer != nil {
		t.histogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "folio_render_duration_seconds",
			Help:    "Duration of page renders by component.",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5},
		}, []string{"component"})
		registerer.MustRegister(t.histogram)
	}
	return t
}

// Start enables tracking.
func (t *Tracker) Start() {
	t.mu.Lock()
	t.enabled = true
	t.mu.Unlock()
}

// Stop disables tracking. Recorded entries are kept.
func (t *Tracker) Stop() {
	t.mu.Lock()
	t.enabled = false
	t.mu.Unlock()
}

// Enabled reports whether renders are currently being recorded.
func (t *Tracker) Enabled() bool {
	if t == nil {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// Append records an entry when tracking is enabled, dropping the oldest
// entry once capacity is reached.
func (t *Tracker) Append(e Entry) {
	if t == nil {
		return
	}
	if t.histogram != nil && e.Component != "" {
		t.histogram.WithLabelValues(e.Component).Observe(e.Duration.Seconds())
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return
	}
	if len(t.entries) >= t.capacity {
		copy(t.entries, t.entries[1:])
		t.entries = t.entries[:len(t.entries)-1]
	}
	t.entries = append(t.entries, e)
}

// Observe records a render of component that began at start.
func (t *Tracker) Observe(component string, start time.Time) {
	if t == nil {
		return
	}
	t.Append(Entry{Component: component, StartedAt: start, Duration: t.now().Sub(start)})
}

// Entries returns a copy of the log, oldest first.
func (t *Tracker) Entries() []Entry {
	if t == nil {
		return []Entry{}
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Clear empties the log.
func (t *Tracker) Clear() {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.entries = nil
	t.mu.Unlock()
}

// Len returns the number of recorded entries.
func (t *Tracker) Len() int {
	if t == nil {
		return 0
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Capacity returns the maximum number of retained entries.
func (t *Tracker) Capacity() int {
	if t == nil {
		return 0
	}
	return t.capacity
}

// Summary aggregates the log per component, slowest average first.
func (t *Tracker) Summary() []Stat {
	grouped := make(map[string][]time.Duration)
	for _, e := range t.Entries() {
		grouped[e.Component] = append(grouped[e.Component], e.Duration)
	}
	stats := make([]Stat, 0, len(grouped))
	for component, samples := range grouped {
		var total, max time.Duration
		for _, d := range samples {
			total += d
			if d > max {
				max = d
			}
		}
		stats = append(stats, Stat{
			Component: component,
			Count:     len(samples),
			Average:   total / time.Duration(len(samples)),
			P95:       percentile95(samples),
			Max:       max,
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Average == stats[j].Average {
			return stats[i].Component < stats[j].Component
		}
		return stats[i].Average > stats[j].Average
	})
	return stats
}

func percentile95(samples []time.Duration) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	index := int(float64(len(sorted)-1) * 0.95)
	return sorted[index]
}
