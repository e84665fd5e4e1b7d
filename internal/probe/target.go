package probe

import (
	"sync"
	"time"
)

const ewmaAlpha = 0.2

// Target is a probed URL with its health status and response time.
type Target struct {
	url     string
	mutex   sync.Mutex
	healthy bool
	probed  bool
	ewma    time.Duration
	hasEWMA bool
}

// NewTarget creates a target that is considered healthy until probed.
func NewTarget(url string) *Target {
	return &Target{
		url:     url,
		healthy: true,
	}
}

func (t *Target) URL() string {
	return t.url
}

// IsHealthy returns true if the last probe succeeded.
func (t *Target) IsHealthy() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.healthy
}

// SetHealthy updates the target's health status.
// Returns true if the status changed, false if it was already in that state.
func (t *Target) SetHealthy(healthy bool) (changed bool) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.probed = true
	if t.healthy == healthy {
		return false
	}

	t.healthy = healthy
	return true
}

// RecordResponse folds the latest probe duration into the moving average.
func (t *Target) RecordResponse(duration time.Duration) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if !t.hasEWMA {
		t.ewma = duration
		t.hasEWMA = true
		return
	}
	//ewma = (1 - α) * ewma + α * latest
	t.ewma = time.Duration((1-ewmaAlpha)*float64(t.ewma) + ewmaAlpha*float64(duration))
}

// EWMATime returns 0 if no responses have been recorded yet.
func (t *Target) EWMATime() time.Duration {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if !t.hasEWMA {
		return 0
	}
	return t.ewma
}

type Status struct {
	URL     string        `json:"url"`
	Probed  bool          `json:"probed"`
	Healthy bool          `json:"healthy"`
	Latency time.Duration `json:"latency_ewma"`
}

func (t *Target) Status() Status {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	return Status{
		URL:     t.url,
		Probed:  t.probed,
		Healthy: t.healthy,
		Latency: t.ewma,
	}
}
