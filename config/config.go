package config

import (
	"fmt"
	"log/slog"
	"net"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"

	"github.com/angeloszaimis/api-sentinel/pkg/sentinel"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

type ServerConfig struct {
	Address     string `mapstructure:"address"`
	Environment string `mapstructure:"environment"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type ThresholdsConfig struct {
	ErrorRate float64 `mapstructure:"error_rate"`
	Latency   float64 `mapstructure:"latency"`
}

type EndpointConfig struct {
	URL        string           `mapstructure:"url"`
	Pattern    string           `mapstructure:"pattern"`
	Thresholds ThresholdsConfig `mapstructure:"thresholds"`
}

type AlertConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
	Throttle   string `mapstructure:"throttle"`
}

type CircuitBreakerConfig struct {
	Threshold       float64 `mapstructure:"threshold"`
	Cooldown        string  `mapstructure:"cooldown"`
	RollingWindow   string  `mapstructure:"rolling_window"`
	VolumeThreshold uint32  `mapstructure:"volume_threshold"`
}

type AnalyzerConfig struct {
	Interval       string `mapstructure:"interval"`
	Lookback       string `mapstructure:"lookback"`
	WindowCapacity int    `mapstructure:"window_capacity"`
}

type ProbeConfig struct {
	Interval string `mapstructure:"interval"`
	Timeout  string `mapstructure:"timeout"`
}

type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	Endpoints      []EndpointConfig     `mapstructure:"endpoints"`
	Alert          AlertConfig          `mapstructure:"alert"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	Analyzer       AnalyzerConfig       `mapstructure:"analyzer"`
	Probe          ProbeConfig          `mapstructure:"probe"`
}

func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.environment", EnvDev)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", LogLevelInfo)
	v.SetDefault("alert.webhook_url", "")
	v.SetDefault("alert.throttle", "5s")
	v.SetDefault("circuit_breaker.threshold", 50)
	v.SetDefault("circuit_breaker.cooldown", "10s")
	v.SetDefault("circuit_breaker.rolling_window", "10s")
	v.SetDefault("circuit_breaker.volume_threshold", 1)
	v.SetDefault("analyzer.interval", "60s")
	v.SetDefault("analyzer.lookback", "5m")
	v.SetDefault("analyzer.window_capacity", 1000)
	v.SetDefault("probe.interval", "30s")
	v.SetDefault("probe.timeout", "5s")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("failed to read config file", slog.String("error", err.Error()))
			return nil, err
		}
		slog.Warn("config file not found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", slog.String("file", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		slog.Error("failed to unmarshal config", slog.String("error", err.Error()))
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server),
		validation.Field(&c.Logging),
		validation.Field(&c.Endpoints),
		validation.Field(&c.Alert),
		validation.Field(&c.CircuitBreaker),
		validation.Field(&c.Analyzer),
		validation.Field(&c.Probe),
	)
}

func (sc ServerConfig) Validate() error {
	return validation.ValidateStruct(&sc,
		validation.Field(&sc.Environment,
			validation.Required,
			validation.In(EnvDev, EnvStaging, EnvProd),
		),
		validation.Field(&sc.Address,
			validation.Required,
			validation.By(validateHostPort),
		),
	)
}

func (lc LoggingConfig) Validate() error {
	return validation.ValidateStruct(&lc,
		validation.Field(&lc.Level,
			validation.Required,
			validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
		),
	)
}

func (ec EndpointConfig) Validate() error {
	return validation.ValidateStruct(&ec,
		validation.Field(&ec.URL,
			validation.When(ec.Pattern == "", validation.Required.Error("url or pattern is required")),
			validation.When(ec.Pattern != "", validation.Empty.Error("url and pattern are mutually exclusive")),
		),
		validation.Field(&ec.Pattern, validation.By(validatePattern)),
		validation.Field(&ec.Thresholds),
	)
}

func (tc ThresholdsConfig) Validate() error {
	return validation.ValidateStruct(&tc,
		validation.Field(&tc.ErrorRate, validation.Min(0.0), validation.Max(100.0)),
		validation.Field(&tc.Latency, validation.Min(0.0)),
	)
}

func (ac AlertConfig) Validate() error {
	return validation.ValidateStruct(&ac,
		validation.Field(&ac.WebhookURL, is.URL),
		validation.Field(&ac.Throttle, validation.By(validateDuration)),
	)
}

func (cc CircuitBreakerConfig) Validate() error {
	return validation.ValidateStruct(&cc,
		validation.Field(&cc.Threshold, validation.Min(0.0), validation.Max(100.0)),
		validation.Field(&cc.Cooldown, validation.By(validateDuration)),
		validation.Field(&cc.RollingWindow, validation.By(validateDuration)),
	)
}

func (ac AnalyzerConfig) Validate() error {
	return validation.ValidateStruct(&ac,
		validation.Field(&ac.Interval, validation.By(validateDuration)),
		validation.Field(&ac.Lookback, validation.By(validateDuration)),
		validation.Field(&ac.WindowCapacity, validation.Min(0)),
	)
}

func (pc ProbeConfig) Validate() error {
	return validation.ValidateStruct(&pc,
		validation.Field(&pc.Interval, validation.By(validateDuration)),
		validation.Field(&pc.Timeout, validation.By(validateDuration)),
	)
}

// Sentinel converts the configuration into the sentinel's own form.
// It expects a validated Config.
func (c *Config) Sentinel() (sentinel.Config, error) {
	endpoints := make([]sentinel.Endpoint, 0, len(c.Endpoints))
	for _, ec := range c.Endpoints {
		ep := sentinel.Endpoint{
			URL: ec.URL,
			Thresholds: sentinel.Thresholds{
				ErrorRate: ec.Thresholds.ErrorRate,
				Latency:   ec.Thresholds.Latency,
			},
		}
		if ec.Pattern != "" {
			re, err := regexp.Compile(ec.Pattern)
			if err != nil {
				return sentinel.Config{}, fmt.Errorf("endpoint pattern %q: %w", ec.Pattern, err)
			}
			ep.Pattern = re
		}
		endpoints = append(endpoints, ep)
	}

	durations := map[string]string{
		"alert.throttle":                 c.Alert.Throttle,
		"circuit_breaker.cooldown":       c.CircuitBreaker.Cooldown,
		"circuit_breaker.rolling_window": c.CircuitBreaker.RollingWindow,
		"analyzer.interval":              c.Analyzer.Interval,
		"analyzer.lookback":              c.Analyzer.Lookback,
	}
	parsed := make(map[string]time.Duration, len(durations))
	for key, value := range durations {
		d, err := parseDuration(value)
		if err != nil {
			return sentinel.Config{}, fmt.Errorf("%s: %w", key, err)
		}
		parsed[key] = d
	}

	return sentinel.Config{
		Endpoints: endpoints,
		Alert: sentinel.AlertConfig{
			WebhookURL: c.Alert.WebhookURL,
			Throttle:   parsed["alert.throttle"],
		},
		CircuitBreaker: sentinel.BreakerConfig{
			Threshold:       c.CircuitBreaker.Threshold,
			Cooldown:        parsed["circuit_breaker.cooldown"],
			RollingWindow:   parsed["circuit_breaker.rolling_window"],
			VolumeThreshold: c.CircuitBreaker.VolumeThreshold,
		},
		Analyzer: sentinel.AnalyzerConfig{
			Interval: parsed["analyzer.interval"],
			Lookback: parsed["analyzer.lookback"],
			Capacity: c.Analyzer.WindowCapacity,
		},
	}, nil
}

// ProbeInterval and ProbeTimeout return zero for unset values.
func (c *Config) ProbeInterval() time.Duration {
	d, _ := parseDuration(c.Probe.Interval)
	return d
}

func (c *Config) ProbeTimeout() time.Duration {
	d, _ := parseDuration(c.Probe.Timeout)
	return d
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

func validateHostPort(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}

	if port == "" {
		return validation.NewError("validation_invalid_port", "port cannot be empty")
	}

	if host != "" {
		if err := is.Host.Validate(host); err != nil {
			return validation.NewError("validation_invalid_host", "invalid host")
		}
	}

	return nil
}

func validateDuration(value interface{}) error {
	durationStr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if durationStr == "" {
		return nil
	}

	d, err := time.ParseDuration(durationStr)
	if err != nil {
		return validation.NewError("validation_invalid_duration", "must be a valid duration (e.g., 2s, 5m, 1h)")
	}
	if d < 0 {
		return validation.NewError("validation_negative_duration", "must not be negative")
	}

	return nil
}

func validatePattern(value interface{}) error {
	pattern, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if pattern == "" {
		return nil
	}

	if _, err := regexp.Compile(pattern); err != nil {
		return validation.NewError("validation_invalid_pattern", "must be a valid regular expression")
	}

	return nil
}
