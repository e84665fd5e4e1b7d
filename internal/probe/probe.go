package probe

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

const (
	DefaultInterval = 30 * time.Second
	DefaultTimeout  = 5 * time.Second
)

// Prober sends a GET to every target on a fixed interval. Requests go through
// the given client, so a guarded client records every probe.
type Prober struct {
	client   *http.Client
	targets  []*Target
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
}

type Option func(*Prober)

func WithInterval(d time.Duration) Option {
	return func(p *Prober) {
		if d > 0 {
			p.interval = d
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(p *Prober) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Prober) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func New(client *http.Client, urls []string, opts ...Option) *Prober {
	if client == nil {
		client = http.DefaultClient
	}

	p := &Prober{
		client:   client,
		targets:  make([]*Target, 0, len(urls)),
		interval: DefaultInterval,
		timeout:  DefaultTimeout,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	for _, u := range urls {
		p.targets = append(p.targets, NewTarget(u))
	}
	return p
}

func (p *Prober) Targets() []*Target {
	return p.targets
}

// Run probes every target until ctx is done.
func (p *Prober) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, t := range p.targets {
		wg.Add(1)
		go func(t *Target) {
			defer wg.Done()
			p.watch(ctx, t)
		}(t)
	}
	wg.Wait()
}

func (p *Prober) watch(ctx context.Context, t *Target) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Probe stopped", slog.String("target", t.URL()))
			return

		case <-ticker.C:
			p.Check(ctx, t)
		}
	}
}

// Check probes t once. Transport errors and 5xx responses mark it unhealthy.
func (p *Prober) Check(ctx context.Context, t *Target) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.URL(), nil)
	if err != nil {
		p.logger.Error("Invalid probe target", slog.String("target", t.URL()), slog.Any("err", err))
		return false
	}

	start := time.Now()
	healthy := false

	res, err := p.client.Do(req)
	if err != nil {
		p.logger.Debug("Probe failed", slog.String("target", t.URL()), slog.Any("err", err))
	} else {
		_, _ = io.Copy(io.Discard, res.Body)
		res.Body.Close()
		t.RecordResponse(time.Since(start))
		healthy = res.StatusCode < http.StatusInternalServerError
	}

	if t.SetHealthy(healthy) {
		if healthy {
			p.logger.Info("Target is back up", slog.String("target", t.URL()))
		} else {
			p.logger.Warn("Target is down", slog.String("target", t.URL()))
		}
	}
	return healthy
}

func (p *Prober) Status() []Status {
	out := make([]Status, 0, len(p.targets))
	for _, t := range p.targets {
		out = append(out, t.Status())
	}
	return out
}

// Handler serves Status as JSON.
func (p *Prober) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(p.Status()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}
