package sentinel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angeloszaimis/api-sentinel/internal/alert"
	"github.com/angeloszaimis/api-sentinel/internal/analyzer"
	"github.com/angeloszaimis/api-sentinel/internal/circuitbreaker"
	"github.com/angeloszaimis/api-sentinel/internal/endpoint"
	"github.com/angeloszaimis/api-sentinel/internal/metrics"
	"github.com/angeloszaimis/api-sentinel/internal/obs"
)

const metricsNamespace = "sentinel"

// Sentinel owns the endpoint windows, breakers, alert throttle and analysis
// loop of one monitored process.
type Sentinel struct {
	resolver *endpoint.Resolver
	store    *metrics.Store
	breakers *circuitbreaker.Registry
	alerts   *alert.Dispatcher
	analyzer *analyzer.Analyzer
	metrics  *obs.Metrics
	registry *prometheus.Registry
	client   *http.Client
	logger   *slog.Logger
	lookback time.Duration

	mutex  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(cfg Config, opts ...Option) (*Sentinel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("sentinel: invalid config: %w", err)
	}

	o := options{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		client: &http.Client{},
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.client == nil {
		o.client = &http.Client{}
	}
	if o.registry == nil {
		o.registry = prometheus.NewRegistry()
	}
	if o.sink == nil && cfg.Alert.WebhookURL != "" {
		o.sink = alert.NewSlackSink(cfg.Alert.WebhookURL, nil)
	}

	lookback := cfg.Analyzer.Lookback
	if lookback <= 0 {
		lookback = analyzer.DefaultLookback
	}

	s := &Sentinel{
		resolver: endpoint.NewResolver(cfg.Endpoints),
		metrics:  obs.New(metricsNamespace, o.registry),
		registry: o.registry,
		client:   o.client,
		logger:   o.logger,
		lookback: lookback,
	}

	s.store = metrics.NewStore(s.resolver,
		metrics.WithCapacity(cfg.Analyzer.Capacity),
		metrics.WithClock(o.clock))

	breakerOpts := []circuitbreaker.Option{
		circuitbreaker.WithLogger(o.logger.With(slog.String("component", "circuitbreaker"))),
		circuitbreaker.WithMetrics(s.metrics),
	}
	if o.factory != nil {
		breakerOpts = append(breakerOpts, circuitbreaker.WithFactory(o.factory))
	}
	s.breakers = circuitbreaker.NewRegistry(s.resolver, circuitbreaker.Settings{
		Threshold:       cfg.CircuitBreaker.Threshold,
		Cooldown:        cfg.CircuitBreaker.Cooldown,
		RollingWindow:   cfg.CircuitBreaker.RollingWindow,
		VolumeThreshold: cfg.CircuitBreaker.VolumeThreshold,
	}, breakerOpts...)

	s.alerts = alert.NewDispatcher(o.sink,
		alert.WithThrottle(cfg.Alert.Throttle),
		alert.WithLogger(o.logger.With(slog.String("component", "alert"))),
		alert.WithMetrics(s.metrics))

	s.analyzer = analyzer.New(s.resolver.Specs(), s.store, s.alerts,
		analyzer.WithInterval(cfg.Analyzer.Interval),
		analyzer.WithLookback(lookback),
		analyzer.WithLogger(o.logger.With(slog.String("component", "analyzer"))))

	s.logger.Info("API Sentinel initialized",
		slog.Int("endpoints", len(cfg.Endpoints)),
		slog.Bool("alerting", s.alerts.Enabled()))

	return s, nil
}

// Start runs the analysis loop in the background until ctx is done or Close
// is called. Calling Start on a running Sentinel does nothing.
func (s *Sentinel) Start(ctx context.Context) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.cancel != nil {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		s.analyzer.Run(ctx)
	}(s.done)
}

// Close stops the analysis loop and the alert throttle. Pending alerts are dropped.
func (s *Sentinel) Close() {
	s.mutex.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mutex.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	s.alerts.Close()
}

// Analyze runs a single analysis pass immediately.
func (s *Sentinel) Analyze(ctx context.Context) []analyzer.Report {
	return s.analyzer.Pass(ctx)
}

// Resolve returns the endpoint key of url.
func (s *Sentinel) Resolve(url string) string {
	return s.resolver.Resolve(url)
}

// Recent returns the outcomes of an endpoint key within the analysis lookback.
func (s *Sentinel) Recent(key string) []metrics.Outcome {
	return s.store.Recent(key, s.lookback)
}

// Record stores an outcome observed outside of Call, e.g. by a custom
// interceptor. The circuit breaker is not involved.
func (s *Sentinel) Record(url, method string, status int, latency time.Duration) {
	method = normalizeMethod(method)
	key := s.store.Record(url, metrics.Outcome{
		Method:  method,
		Status:  status,
		Latency: latency,
	})
	s.metrics.ObserveRequest(key, method, status, latency)
}

// Breakers returns the state of every breaker created so far.
func (s *Sentinel) Breakers() map[string]BreakerState {
	return s.breakers.Stats()
}

type Status struct {
	Metrics  metrics.Snapshot  `json:"metrics"`
	Breakers map[string]string `json:"breakers"`
}

func (s *Sentinel) Snapshot() Status {
	stats := s.breakers.Stats()
	breakers := make(map[string]string, len(stats))
	for key, state := range stats {
		breakers[key] = state.String()
	}
	return Status{
		Metrics:  s.store.Snapshot(s.lookback),
		Breakers: breakers,
	}
}

// StatusHandler serves Snapshot as JSON.
func (s *Sentinel) StatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(s.Snapshot()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
}

// WindowsHandler serves the per-endpoint window aggregates alone.
func (s *Sentinel) WindowsHandler() http.HandlerFunc {
	return s.store.Handler(s.lookback)
}

// MetricsHandler exposes the sentinel collectors in Prometheus format.
func (s *Sentinel) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}
