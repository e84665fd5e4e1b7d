package sentinel

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/angeloszaimis/api-sentinel/internal/endpoint"
)

type (
	Endpoint   = endpoint.Spec
	Thresholds = endpoint.Thresholds
)

// GlobalKey is the endpoint key of URLs matching no configured endpoint.
const GlobalKey = endpoint.GlobalKey

type AlertConfig struct {
	// WebhookURL is a Slack incoming webhook. Empty disables alerting.
	WebhookURL string
	// Throttle is the minimum spacing between two alerts. Defaults to 5s.
	Throttle time.Duration
}

type BreakerConfig struct {
	// Threshold is the failure percentage that opens a breaker. Defaults to 50.
	Threshold float64
	// Cooldown is how long an open breaker rejects calls. Defaults to 10s.
	Cooldown time.Duration
	// RollingWindow is the period over which failures are counted. Defaults to 10s.
	RollingWindow time.Duration
	// VolumeThreshold is the minimum number of calls before a breaker may open.
	VolumeThreshold uint32
}

type AnalyzerConfig struct {
	// Interval between analysis passes. Defaults to 60s.
	Interval time.Duration
	// Lookback is the sliding window analyzed on each pass. Defaults to 5m.
	Lookback time.Duration
	// Capacity bounds the outcomes kept per endpoint. Defaults to 1000.
	Capacity int
}

type Config struct {
	Endpoints      []Endpoint
	Alert          AlertConfig
	CircuitBreaker BreakerConfig
	Analyzer       AnalyzerConfig
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Endpoints),
		validation.Field(&c.Alert),
		validation.Field(&c.CircuitBreaker),
		validation.Field(&c.Analyzer),
	)
}

func (a AlertConfig) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.WebhookURL, is.URL),
		validation.Field(&a.Throttle, validation.Min(time.Duration(0))),
	)
}

func (b BreakerConfig) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.Threshold, validation.Min(0.0), validation.Max(100.0)),
		validation.Field(&b.Cooldown, validation.Min(time.Duration(0))),
		validation.Field(&b.RollingWindow, validation.Min(time.Duration(0))),
	)
}

func (a AnalyzerConfig) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Interval, validation.Min(time.Duration(0))),
		validation.Field(&a.Lookback, validation.Min(time.Duration(0))),
		validation.Field(&a.Capacity, validation.Min(0)),
	)
}
