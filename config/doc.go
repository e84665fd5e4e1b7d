// Package config handles loading and parsing of configuration from YAML files
// and environment variables. It defines the daemon configuration: server and
// logging settings, monitored endpoints with their alert thresholds, and the
// alerting, circuit breaker, analyzer and probe parameters.
package config
