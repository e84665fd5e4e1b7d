// Package circuitbreaker manages one circuit breaker per monitored endpoint.
//
// A circuit breaker prevents cascading failures by temporarily blocking calls
// to a failing endpoint. It has three states:
//
//   - CLOSED: Normal operation, calls pass through
//   - OPEN: Failure percentage reached the threshold, calls are rejected
//   - HALF-OPEN: Cooldown elapsed, one trial call decides recovery
//
// The state machine itself is delegated to sony/gobreaker behind the Breaker
// interface; the Registry only creates, keys and reuses breakers.
//
// Usage:
//
//	registry := circuitbreaker.NewRegistry(resolver, circuitbreaker.Settings{
//	    Threshold: 50,
//	    Cooldown:  10 * time.Second,
//	})
//	resp, err := circuitbreaker.Execute(registry, url, func() (*http.Response, error) {
//	    return client.Do(req)
//	})
//	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
//	    // call was not attempted
//	}
package circuitbreaker
