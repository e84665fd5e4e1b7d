package main

import (
	"net/http"

	"github.com/angeloszaimis/api-sentinel/internal/probe"
	"github.com/angeloszaimis/api-sentinel/pkg/sentinel"
)

func setupRouter(s *sentinel.Sentinel, prober *probe.Prober) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /status", s.StatusHandler())
	mux.HandleFunc("GET /windows", s.WindowsHandler())
	mux.HandleFunc("GET /probes", prober.Handler())
	mux.Handle("GET /metrics", s.MetricsHandler())

	return mux
}
