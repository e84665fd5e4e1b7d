// Package sentinel guards outbound HTTP traffic of a process.
//
// A Sentinel observes calls made through its RoundTripper (Transport, Client)
// or its fetch-style helpers (Fetch, Do), runs them through a per-endpoint
// circuit breaker, records every outcome in a bounded per-endpoint window and
// periodically raises throttled alerts when an endpoint's error rate or
// average latency crosses its configured threshold.
//
//	s, err := sentinel.New(sentinel.Config{
//		Endpoints: []sentinel.Endpoint{
//			{URL: "https://api.example.com/data", Thresholds: sentinel.Thresholds{ErrorRate: 5, Latency: 500}},
//			{Pattern: regexp.MustCompile(`^https://api\.example\.com/users/`)},
//		},
//		Alert: sentinel.AlertConfig{WebhookURL: os.Getenv("SLACK_WEBHOOK")},
//	})
//	if err != nil {
//		return err
//	}
//	s.Start(ctx)
//	defer s.Close()
//
//	client := s.Client(http.DefaultClient)
//
// Arbitrary calls can be guarded with Call. All state belongs to the Sentinel
// value; independent instances do not share breakers, windows or throttles.
package sentinel
