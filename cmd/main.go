package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/angeloszaimis/api-sentinel/config"
	"github.com/angeloszaimis/api-sentinel/internal/httpserver"
	"github.com/angeloszaimis/api-sentinel/internal/probe"
	"github.com/angeloszaimis/api-sentinel/pkg/logger"
	"github.com/angeloszaimis/api-sentinel/pkg/sentinel"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, true, cfg.Server.Environment)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	s, err := newSentinel(cfg, log)
	if err != nil {
		log.Error("Failed to initialize sentinel", slog.Any("err", err))
		os.Exit(1)
	}
	defer s.Close()

	s.Start(ctx)

	prober := newProber(cfg, s, log)
	go prober.Run(ctx)

	srv, err := httpserver.New(cfg.Server.Address, setupRouter(s, prober),
		httpserver.WithLogger(logger.Component(log, "httpserver")))
	if err != nil {
		log.Error("Failed to create server", slog.Any("err", err))
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)

	go func() {
		srvErrCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("Error during shutdown", slog.Any("err", err))
		}
	case err := <-srvErrCh:
		if err != nil {
			log.Error("Error starting status server", slog.Any("err", err))
			s.Close()
			os.Exit(1)
		}
	}
}

func newSentinel(cfg *config.Config, log *slog.Logger) (*sentinel.Sentinel, error) {
	sc, err := cfg.Sentinel()
	if err != nil {
		return nil, err
	}
	return sentinel.New(sc, sentinel.WithLogger(logger.Component(log, "sentinel")))
}

// newProber probes every endpoint configured by literal URL through the
// sentinel's guarded client.
func newProber(cfg *config.Config, s *sentinel.Sentinel, log *slog.Logger) *probe.Prober {
	return probe.New(s.Client(nil), probeTargets(cfg),
		probe.WithInterval(cfg.ProbeInterval()),
		probe.WithTimeout(cfg.ProbeTimeout()),
		probe.WithLogger(logger.Component(log, "probe")))
}

func probeTargets(cfg *config.Config) []string {
	var urls []string
	for _, ec := range cfg.Endpoints {
		if ec.URL != "" {
			urls = append(urls, ec.URL)
		}
	}
	return urls
}
