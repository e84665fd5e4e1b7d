package alert

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/angeloszaimis/api-sentinel/internal/obs"
)

const (
	DefaultThrottle    = 5 * time.Second
	DefaultSendTimeout = 10 * time.Second
)

// Sink delivers a formatted alert text.
type Sink interface {
	Send(ctx context.Context, text string) error
}

type Dispatcher struct {
	sink        Sink
	throttle    *Throttle
	sendTimeout time.Duration
	logger      *slog.Logger
	metrics     *obs.Metrics
}

type options struct {
	throttle    time.Duration
	sendTimeout time.Duration
	logger      *slog.Logger
	metrics     *obs.Metrics
}

type Option func(*options)

func WithThrottle(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.throttle = d
		}
	}
}

func WithSendTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.sendTimeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithMetrics(m *obs.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// NewDispatcher returns a dispatcher sending through sink. With a nil sink
// every Notify is a no-op.
func NewDispatcher(sink Sink, opts ...Option) *Dispatcher {
	o := options{
		throttle:    DefaultThrottle,
		sendTimeout: DefaultSendTimeout,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}

	d := &Dispatcher{
		sink:        sink,
		sendTimeout: o.sendTimeout,
		logger:      o.logger,
		metrics:     o.metrics,
	}
	d.throttle = NewThrottle(o.throttle, d.deliver, d.coalesced)
	return d
}

// Enabled reports whether a sink is configured.
func (d *Dispatcher) Enabled() bool {
	return d.sink != nil
}

// Notify queues message for delivery, subject to the shared throttle.
func (d *Dispatcher) Notify(message string) {
	if d.sink == nil {
		return
	}
	d.throttle.Submit(message)
}

// Close stops the throttle; pending messages are dropped.
func (d *Dispatcher) Close() {
	d.throttle.Stop()
}

func (d *Dispatcher) deliver(message string) {
	ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
	defer cancel()

	if err := d.sink.Send(ctx, Prefix+message); err != nil {
		d.metrics.Alert(obs.AlertFailed)
		d.logger.Error("Failed to send alert",
			slog.String("message", message),
			slog.Any("err", err))
		return
	}

	d.metrics.Alert(obs.AlertSent)
	d.logger.Info("Alert sent", slog.String("message", message))
}

func (d *Dispatcher) coalesced(message string) {
	d.metrics.Alert(obs.AlertCoalesced)
	d.logger.Debug("Alert superseded within throttle window", slog.String("message", message))
}
