package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/tenantctl/internal/adapters/driven/metrics"
	"github.com/custodia-labs/tenantctl/internal/adapters/driving/cli"
	"github.com/custodia-labs/tenantctl/internal/config"
	"github.com/custodia-labs/tenantctl/internal/connectors"
	"github.com/custodia-labs/tenantctl/internal/core/services"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cli.SetVersion(version)

	// Cancelling the context aborts a pending sign-in or discovery
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetServiceBuilder(buildServices)
	if err := cli.Execute(ctx); err != nil {
		return 1
	}
	return 0
}

// buildServices wires the Microsoft 365 adapters into the session manager.
func buildServices(cfg *config.Config) (*cli.Services, error) {
	factory := connectors.NewFactory(cfg, nil)

	manager := services.NewSessionManager(factory.Directory(), factory.Mail(), services.SessionConfig{
		TeardownTimeout:  cfg.Session.TeardownTimeout,
		DiscoveryTimeout: cfg.Session.DiscoveryTimeout,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	manager.SetObserver(metrics.NewSessionObserver(registry))

	return &cli.Services{
		Session: manager,
		Prompts: factory.Prompt,
		Metrics: promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
	}, nil
}
