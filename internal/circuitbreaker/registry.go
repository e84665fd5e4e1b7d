package circuitbreaker

import (
	"io"
	"log/slog"
	"sync"

	"github.com/angeloszaimis/api-sentinel/internal/endpoint"
	"github.com/angeloszaimis/api-sentinel/internal/obs"
)

// Registry owns one breaker per endpoint key. Breakers are created on first
// use with the registry settings and kept for the registry's lifetime.
type Registry struct {
	mutex    sync.RWMutex
	breakers map[string]Breaker
	resolver *endpoint.Resolver
	settings Settings
	factory  Factory
	logger   *slog.Logger
	metrics  *obs.Metrics
}

type Option func(*Registry)

func WithFactory(f Factory) Option {
	return func(r *Registry) {
		if f != nil {
			r.factory = f
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithMetrics(m *obs.Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

func NewRegistry(resolver *endpoint.Resolver, settings Settings, opts ...Option) *Registry {
	r := &Registry{
		breakers: make(map[string]Breaker),
		resolver: resolver,
		settings: settings.withDefaults(),
		factory:  NewGoBreaker,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.settings.OnStateChange = r.onStateChange
	return r
}

// Breaker returns the key url resolves to and the breaker guarding it.
func (r *Registry) Breaker(url string) (string, Breaker) {
	key := r.resolver.Resolve(url)
	return key, r.breakerFor(key)
}

func (r *Registry) breakerFor(key string) Breaker {
	r.mutex.RLock()
	cb, exists := r.breakers[key]
	r.mutex.RUnlock()

	if exists {
		return cb
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	// Double-check: another goroutine may have created it
	if cb, exists = r.breakers[key]; exists {
		return cb
	}

	cb = r.factory(key, r.settings)
	r.breakers[key] = cb
	r.metrics.SetBreakerState(key, StateClosed.String())
	r.logger.Debug("Circuit breaker created",
		slog.String("endpoint", key),
		slog.Float64("threshold", r.settings.Threshold),
		slog.Duration("cooldown", r.settings.Cooldown))
	return cb
}

// Execute runs call through the breaker of the endpoint url resolves to.
func Execute[T any](r *Registry, url string, call func() (T, error)) (T, error) {
	_, cb := r.Breaker(url)

	v, err := cb.Execute(func() (any, error) {
		return call()
	})

	var out T
	if v != nil {
		out, _ = v.(T)
	}
	return out, err
}

func (r *Registry) Stats() map[string]State {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	stats := make(map[string]State, len(r.breakers))
	for key, cb := range r.breakers {
		stats[key] = cb.State()
	}
	return stats
}

func (r *Registry) onStateChange(key string, from, to State) {
	r.metrics.BreakerTransition(key, from.String(), to.String())

	attrs := []any{
		slog.String("endpoint", key),
		slog.String("from", from.String()),
		slog.String("to", to.String()),
	}
	if to == StateOpen {
		r.logger.Warn("Circuit breaker opened", attrs...)
		return
	}
	r.logger.Info("Circuit breaker state changed", attrs...)
}
