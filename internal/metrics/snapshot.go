package metrics

import (
	"sort"
	"time"
)

type Snapshot struct {
	TotalRequests int64                      `json:"total_requests"`
	Uptime        time.Duration              `json:"uptime"`
	Lookback      time.Duration              `json:"lookback"`
	Endpoints     map[string]EndpointMetrics `json:"endpoints"`
}

type EndpointMetrics struct {
	Requests    int64         `json:"requests"`
	Errors      int64         `json:"errors"`
	ErrorRate   float64       `json:"error_rate"`
	AvgLatency  time.Duration `json:"avg_latency"`
	P50Latency  time.Duration `json:"p50_latency"`
	P95Latency  time.Duration `json:"p95_latency"`
	P99Latency  time.Duration `json:"p99_latency"`
	StatusCodes map[int]int64 `json:"status_codes"`
}

// Snapshot summarizes every window over the given lookback.
func (s *Store) Snapshot(lookback time.Duration) Snapshot {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	now := s.now()
	snap := Snapshot{
		Uptime:    now.Sub(s.startTime),
		Lookback:  lookback,
		Endpoints: make(map[string]EndpointMetrics, len(s.windows)),
	}

	for key, w := range s.windows {
		outcomes := w.since(now.Add(-lookback))
		if len(outcomes) == 0 {
			continue
		}
		em := Summarize(outcomes)
		snap.TotalRequests += em.Requests
		snap.Endpoints[key] = em
	}

	return snap
}

// Summarize aggregates a slice of outcomes. Empty input yields a zero value.
func Summarize(outcomes []Outcome) EndpointMetrics {
	em := EndpointMetrics{StatusCodes: make(map[int]int64)}
	if len(outcomes) == 0 {
		return em
	}

	durations := make([]time.Duration, 0, len(outcomes))
	for _, o := range outcomes {
		em.Requests++
		if o.Failed() {
			em.Errors++
		}
		em.StatusCodes[o.Status]++
		durations = append(durations, o.Latency)
	}
	em.ErrorRate = float64(em.Errors) / float64(em.Requests) * 100

	sort.Slice(durations, func(i, j int) bool {
		return durations[i] < durations[j]
	})
	em.AvgLatency = average(durations)
	em.P50Latency = percentile(durations, 0.50)
	em.P95Latency = percentile(durations, 0.95)
	em.P99Latency = percentile(durations, 0.99)

	return em
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	return sum / time.Duration(len(durations))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return sorted[index]
}
