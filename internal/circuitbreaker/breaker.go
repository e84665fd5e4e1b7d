package circuitbreaker

import (
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned when a breaker rejects a call without running it.
var ErrCircuitOpen = errors.New("circuitbreaker: circuit open")

type State int

const (
	StateClosed   State = iota // Normal operation
	StateOpen                  // Blocking Requests
	StateHalfOpen              // Testing with one request
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Breaker guards calls to one endpoint.
type Breaker interface {
	// Execute runs call unless the breaker is open, in which case it returns
	// an error wrapping ErrCircuitOpen.
	Execute(call func() (any, error)) (any, error)
	State() State
}

// Settings configure breakers created by a Registry. Zero values take defaults.
type Settings struct {
	// Threshold is the failure percentage that trips the breaker.
	Threshold float64
	// Cooldown is how long the breaker stays open before a trial call.
	Cooldown time.Duration
	// RollingWindow is the period after which closed-state counts reset.
	RollingWindow time.Duration
	// VolumeThreshold is the minimum number of calls in the window before tripping.
	VolumeThreshold uint32
	// OnStateChange is invoked on every transition.
	OnStateChange func(key string, from, to State)
}

const (
	DefaultThreshold     = 50
	DefaultCooldown      = 10 * time.Second
	DefaultRollingWindow = 10 * time.Second
)

func (s Settings) withDefaults() Settings {
	if s.Threshold <= 0 {
		s.Threshold = DefaultThreshold
	}
	if s.Cooldown <= 0 {
		s.Cooldown = DefaultCooldown
	}
	if s.RollingWindow <= 0 {
		s.RollingWindow = DefaultRollingWindow
	}
	if s.VolumeThreshold == 0 {
		s.VolumeThreshold = 1
	}
	return s
}

// Factory builds the breaker for an endpoint key.
type Factory func(key string, s Settings) Breaker

type goBreaker struct {
	cb *gobreaker.CircuitBreaker[any]
}

// NewGoBreaker is the default Factory, backed by sony/gobreaker. It trips
// once the failure percentage within the rolling window reaches the threshold
// and lets a single trial call through after the cooldown.
func NewGoBreaker(key string, s Settings) Breaker {
	s = s.withDefaults()

	st := gobreaker.Settings{
		Name:        key,
		MaxRequests: 1,
		Interval:    s.RollingWindow,
		Timeout:     s.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.VolumeThreshold {
				return false
			}
			return float64(counts.TotalFailures)*100/float64(counts.Requests) >= s.Threshold
		},
	}
	if s.OnStateChange != nil {
		st.OnStateChange = func(name string, from, to gobreaker.State) {
			s.OnStateChange(name, fromGoState(from), fromGoState(to))
		}
	}

	return &goBreaker{cb: gobreaker.NewCircuitBreaker[any](st)}
}

func (b *goBreaker) Execute(call func() (any, error)) (any, error) {
	v, err := b.cb.Execute(call)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %s", ErrCircuitOpen, b.cb.Name())
	}
	return v, err
}

func (b *goBreaker) State() State {
	return fromGoState(b.cb.State())
}

func fromGoState(s gobreaker.State) State {
	switch s {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}
