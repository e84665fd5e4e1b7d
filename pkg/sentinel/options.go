package sentinel

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angeloszaimis/api-sentinel/internal/alert"
	"github.com/angeloszaimis/api-sentinel/internal/circuitbreaker"
)

type options struct {
	logger   *slog.Logger
	registry *prometheus.Registry
	sink     alert.Sink
	factory  circuitbreaker.Factory
	client   *http.Client
	clock    func() time.Time
}

type Option func(*options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRegistry registers the sentinel collectors with reg instead of a
// private registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// WithSink replaces the Slack webhook sink. It enables alerting even without
// a webhook URL.
func WithSink(sink alert.Sink) Option {
	return func(o *options) {
		o.sink = sink
	}
}

// WithBreakerFactory replaces the gobreaker-backed breakers.
func WithBreakerFactory(f circuitbreaker.Factory) Option {
	return func(o *options) {
		o.factory = f
	}
}

// WithHTTPClient sets the client used by Fetch and Do.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.client = c
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.clock = now
	}
}
