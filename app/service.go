// Package app wires the configuration into a running dispatch service.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/oficiosya/dispatch/config"
	"github.com/oficiosya/dispatch/core/dispatch"
	"github.com/oficiosya/dispatch/core/match"
	coremetrics "github.com/oficiosya/dispatch/core/metrics"
	corenotify "github.com/oficiosya/dispatch/core/notify"
	coresettlement "github.com/oficiosya/dispatch/core/settlement"
	"github.com/oficiosya/dispatch/infra/logger"
	"github.com/oficiosya/dispatch/infra/metrics"
	infranotify "github.com/oficiosya/dispatch/infra/notify"
	infrasettlement "github.com/oficiosya/dispatch/infra/settlement"
	"github.com/oficiosya/dispatch/infra/store/memory"
	"github.com/oficiosya/dispatch/internal/eventbus"
)

// Service bundles the orchestrator with its workers.
type Service struct {
	Orchestrator *dispatch.Orchestrator
	Finder       *match.Finder
	Store        *memory.Store

	bus         eventbus.EventBus
	worker      *infranotify.Worker
	policy      *dispatch.RedispatchPolicy
	log         logger.Logger
	promEnabled bool
	promPort    string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	log := logger.New("service")

	st := memory.New()
	window := time.Duration(cfg.Dispatch.AvailabilityWindowHours) * time.Hour
	// The availability subsystem is an external collaborator; without
	// one configured the finder fails open.
	finder, err := match.NewFinder(st, nil, st, window)
	if err != nil {
		return nil, fmt.Errorf("finder: %w", err)
	}

	var notifier corenotify.Notifier
	if cfg.Notify.Broker != "" {
		n, err := infranotify.NewMQTTNotifier(cfg.Notify)
		if err != nil {
			return nil, fmt.Errorf("notifier: %w", err)
		}
		notifier = n
	} else {
		log.Warnf("no notification broker configured, using in-memory notifier")
		notifier = infranotify.NewMockNotifier()
	}

	var gateway coresettlement.Gateway
	if cfg.Settlement.BaseURL != "" {
		gateway = infrasettlement.NewHTTPGateway(cfg.Settlement)
	} else {
		log.Warnf("no settlement endpoint configured, using in-memory gateway")
		gateway = infrasettlement.NewMockGateway()
	}

	var sinks []coremetrics.MetricsSink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg.Metrics))
	}
	var sink coremetrics.MetricsSink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	bus := eventbus.New()
	orch, err := dispatch.NewOrchestrator(st, finder, bus, gateway, cfg.Pricing, sink, logger.New("dispatch"), cfg.Dispatch)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}

	return &Service{
		Orchestrator: orch,
		Finder:       finder,
		Store:        st,
		bus:          bus,
		worker:       infranotify.NewWorker(notifier, bus, logger.New("notify-worker")),
		policy:       dispatch.NewRedispatchPolicy(orch, bus, logger.New("redispatch-policy")),
		log:          log,
		promEnabled:  cfg.Metrics.PrometheusEnabled,
		promPort:     cfg.Metrics.PrometheusPort,
	}, nil
}

// Run starts the workers and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	go s.worker.Run(ctx)
	go s.policy.Run(ctx)
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, ":"+s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	s.log.Infof("dispatch service running")
	<-ctx.Done()
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	return nil
}
