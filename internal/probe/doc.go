// Package probe periodically exercises monitored endpoints so that their
// windows and breakers see traffic even when the host process is idle.
// Each target tracks whether its last probe succeeded and a smoothed latency.
package probe
