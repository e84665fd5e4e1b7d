// Package metrics stores observed request outcomes per endpoint.
//
// Each endpoint key owns a ring buffer of at most DefaultCapacity outcomes
// (configurable). Once full, every append evicts the oldest entry. Readers get
// copies, so the analysis loop can work on a window while requests keep
// recording new outcomes.
//
// Example usage:
//
//	store := metrics.NewStore(resolver)
//	store.Record("https://api.example.com/data", metrics.Outcome{
//		Method:  "GET",
//		Status:  200,
//		Latency: 120 * time.Millisecond,
//	})
//
//	recent := store.Recent("https://api.example.com/data", 5*time.Minute)
//
// Snapshot and Handler expose per-endpoint aggregates (error rate, average and
// percentile latency, status code distribution) for status pages.
package metrics
