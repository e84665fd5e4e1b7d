// Package analyzer periodically checks recent endpoint metrics against their
// configured thresholds and raises alerts on breaches.
package analyzer

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/angeloszaimis/api-sentinel/internal/alert"
	"github.com/angeloszaimis/api-sentinel/internal/endpoint"
	"github.com/angeloszaimis/api-sentinel/internal/metrics"
)

const (
	DefaultInterval = 60 * time.Second
	DefaultLookback = 5 * time.Minute
)

// WindowReader is the read side of the metric store.
type WindowReader interface {
	Recent(key string, lookback time.Duration) []metrics.Outcome
}

// Notifier receives alert messages.
type Notifier interface {
	Notify(message string)
}

// Report is the result of analyzing one endpoint in a pass.
type Report struct {
	Endpoint   string
	Requests   int
	ErrorRate  float64
	AvgLatency float64
	Alerts     []string
}

type Analyzer struct {
	running  sync.Mutex
	specs    []endpoint.Spec
	reader   WindowReader
	notifier Notifier
	interval time.Duration
	lookback time.Duration
	logger   *slog.Logger
}

type Option func(*Analyzer)

func WithInterval(d time.Duration) Option {
	return func(a *Analyzer) {
		if d > 0 {
			a.interval = d
		}
	}
}

func WithLookback(d time.Duration) Option {
	return func(a *Analyzer) {
		if d > 0 {
			a.lookback = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

func New(specs []endpoint.Spec, reader WindowReader, notifier Notifier, opts ...Option) *Analyzer {
	a := &Analyzer{
		specs:    specs,
		reader:   reader,
		notifier: notifier,
		interval: DefaultInterval,
		lookback: DefaultLookback,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run executes a pass every interval until ctx is cancelled.
func (a *Analyzer) Run(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	a.logger.Info("Analyzer started",
		slog.Duration("interval", a.interval),
		slog.Duration("lookback", a.lookback))

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("Analyzer stopped")
			return
		case <-ticker.C:
			a.Pass(ctx)
		}
	}
}

// Pass analyzes every configured endpoint once and returns a report for each
// endpoint with recent outcomes. If another pass is still running, Pass
// returns nil without doing anything.
func (a *Analyzer) Pass(ctx context.Context) []Report {
	if !a.running.TryLock() {
		a.logger.Warn("Analysis pass skipped, previous pass still running")
		return nil
	}
	defer a.running.Unlock()

	var reports []Report
	for _, spec := range a.specs {
		if ctx.Err() != nil {
			break
		}

		outcomes := a.reader.Recent(spec.Key(), a.lookback)
		if len(outcomes) == 0 {
			continue
		}

		report := analyze(spec, outcomes)
		for _, msg := range report.Alerts {
			a.notifier.Notify(msg)
		}

		a.logger.Debug("Endpoint analyzed",
			slog.String("endpoint", report.Endpoint),
			slog.Int("requests", report.Requests),
			slog.Float64("error_rate", report.ErrorRate),
			slog.Float64("avg_latency_ms", report.AvgLatency),
			slog.Int("alerts", len(report.Alerts)))

		reports = append(reports, report)
	}
	return reports
}

func analyze(spec endpoint.Spec, outcomes []metrics.Outcome) Report {
	var failed int
	var latency time.Duration
	for _, o := range outcomes {
		if o.Failed() {
			failed++
		}
		latency += o.Latency
	}

	count := float64(len(outcomes))
	report := Report{
		Endpoint:   spec.Key(),
		Requests:   len(outcomes),
		ErrorRate:  float64(failed) / count * 100,
		AvgLatency: float64(latency) / float64(time.Millisecond) / count,
	}

	if limit := spec.Thresholds.ErrorRate; limit > 0 && report.ErrorRate > limit {
		report.Alerts = append(report.Alerts, alert.ErrorRateMessage(report.Endpoint, report.ErrorRate))
	}
	if limit := spec.Thresholds.Latency; limit > 0 && report.AvgLatency > limit {
		report.Alerts = append(report.Alerts, alert.LatencyMessage(report.Endpoint, report.AvgLatency))
	}
	return report
}
