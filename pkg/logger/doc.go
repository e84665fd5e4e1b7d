// Package logger builds the daemon's structured loggers on top of log/slog.
// Production environments log JSON, everything else logs text, and every
// record carries the environment and, for subsystems, a component name.
package logger
