package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/angeloszaimis/api-sentinel/internal/endpoint"
)

// DefaultCapacity bounds the number of outcomes kept per endpoint.
const DefaultCapacity = 1000

// Outcome is one completed or failed call attempt.
type Outcome struct {
	Key        string        `json:"key"`
	URL        string        `json:"url"`
	Method     string        `json:"method"`
	Status     int           `json:"status"`
	Latency    time.Duration `json:"latency"`
	ObservedAt time.Time     `json:"observed_at"`
}

// Failed reports whether the outcome counts towards the error rate.
func (o Outcome) Failed() bool {
	return o.Status >= 400
}

// Store keeps a bounded window of outcomes per endpoint key.
// A single lock serializes appends, so each window preserves arrival order.
type Store struct {
	mutex     sync.RWMutex
	resolver  *endpoint.Resolver
	windows   map[string]*window
	capacity  int
	now       func() time.Time
	startTime time.Time
}

type Option func(*Store)

func WithCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithClock replaces time.Now for stamping and window cut-offs.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func NewStore(resolver *endpoint.Resolver, opts ...Option) *Store {
	s := &Store{
		resolver: resolver,
		windows:  make(map[string]*window),
		capacity: DefaultCapacity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startTime = s.now()
	return s
}

// Record appends o to the window of the endpoint url resolves to and returns
// that key. A zero ObservedAt is stamped with the store clock.
func (s *Store) Record(url string, o Outcome) string {
	key := s.resolver.Resolve(url)
	o.Key = key
	if o.URL == "" {
		o.URL = url
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if o.ObservedAt.IsZero() {
		o.ObservedAt = s.now()
	}

	w, ok := s.windows[key]
	if !ok {
		w = newWindow(s.capacity)
		s.windows[key] = w
	}
	w.push(o)
	return key
}

// Recent returns the outcomes of key observed within lookback of now, oldest first.
func (s *Store) Recent(key string, lookback time.Duration) []Outcome {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	w, ok := s.windows[key]
	if !ok {
		return []Outcome{}
	}
	return w.since(s.now().Add(-lookback))
}

// Len returns the number of outcomes currently held for key.
func (s *Store) Len(key string) int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if w, ok := s.windows[key]; ok {
		return w.len()
	}
	return 0
}

// Keys returns every key with at least one recorded outcome, sorted.
func (s *Store) Keys() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	keys := make([]string, 0, len(s.windows))
	for key := range s.windows {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
