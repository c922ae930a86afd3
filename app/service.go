package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kilianp07/o2v/config"
	"github.com/kilianp07/o2v/core/model"
	"github.com/kilianp07/o2v/core/routing"
	"github.com/kilianp07/o2v/core/routing/audit"
	"github.com/kilianp07/o2v/core/scoring"
	"github.com/kilianp07/o2v/infra/logger"
	"github.com/kilianp07/o2v/infra/metrics"
	"github.com/kilianp07/o2v/infra/notify"
	"github.com/kilianp07/o2v/infra/store"
	"github.com/kilianp07/o2v/internal/eventbus"
)

// Deps holds the external collaborators the routing engine talks to. Any nil
// field falls back to a log-only implementation.
type Deps struct {
	Catalog routing.CandidateSource
	Orders  routing.OrderService
	Stats   routing.VendorStats
}

// Service orchestrates the routing engine, the timeout sweeper and the MQTT
// response subscription.
type Service struct {
	Engine      *routing.Engine
	bus         eventbus.EventBus
	notifier    routing.Notifier
	mqtt        *notify.PahoNotifier
	log         logger.Logger
	promEnabled bool
	promPort    string
}

// New creates a Service from the configuration.
func New(cfg *config.Config, deps Deps) (*Service, error) {
	logg := logger.New("service")

	scorer, err := scoring.NewScorer(cfg.Scoring)
	if err != nil {
		return nil, fmt.Errorf("scorer: %w", err)
	}

	var st routing.Store
	switch cfg.Store.Backend {
	case "sqlite":
		st, err = store.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("sqlite store: %w", err)
		}
	default:
		st = store.NewMemoryStore()
	}

	var delays audit.DelayLog
	switch cfg.Audit.Backend {
	case "sqlite":
		delays, err = audit.NewSQLiteStore(cfg.Audit.Path)
	case "jsonl":
		if cfg.Audit.MaxSizeMB > 0 {
			delays, err = audit.NewRotatingJSONLStore(cfg.Audit.Path, cfg.Audit.MaxSizeMB, cfg.Audit.MaxBackups, cfg.Audit.MaxAgeDays)
		} else {
			delays, err = audit.NewJSONLStore(cfg.Audit.Path)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("delay log: %w", err)
	}

	sink, err := metrics.NewSink(cfg.Metrics)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	svc := &Service{
		log:         logg,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promPort:    cfg.Metrics.PrometheusPort,
	}

	svc.notifier = logOnlyNotifier{log: logger.New("notifier")}
	if cfg.MQTT.Broker != "" {
		mq, err := notify.NewPahoNotifier(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt notifier: %w", err)
		}
		svc.mqtt = mq
		svc.notifier = mq
	}

	if deps.Catalog == nil {
		deps.Catalog = emptyCatalog{log: logger.New("catalog")}
	}
	if deps.Orders == nil {
		deps.Orders = logOnlyOrderService{log: logger.New("orders")}
	}

	bus := eventbus.New()
	engine, err := routing.New(st, deps.Catalog, svc.notifier, deps.Orders, deps.Stats,
		scorer, cfg.Routing, sink, bus, delays, logger.New("routing"))
	if err != nil {
		return nil, fmt.Errorf("routing engine: %w", err)
	}
	svc.Engine = engine
	svc.bus = bus
	return svc, nil
}

// Run starts the sweep loop, the metrics endpoint and the acknowledgement
// subscription, then blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.mqtt != nil {
		s.mqtt.OnResponse(func(resp notify.VendorResponse) {
			out, err := s.Engine.Acknowledge(ctx, resp.OrderID, resp.VendorID, resp.Decision, resp.Reason)
			if err != nil {
				s.log.Errorf("order %s: acknowledgement from vendor %s failed: %v", resp.OrderID, resp.VendorID, err)
				return
			}
			s.log.Infof("order %s: acknowledgement from vendor %s resolved as %s", resp.OrderID, resp.VendorID, out.Result)
		})
	}
	if s.promEnabled {
		addr := s.promPort
		if !strings.Contains(addr, ":") {
			addr = ":" + addr
		}
		go func() {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	go s.sweepLoop(ctx)
	<-ctx.Done()
	return nil
}

func (s *Service) sweepLoop(ctx context.Context) {
	interval := s.Engine.Config().SweepInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			won, err := s.Engine.ReclaimExpired(ctx)
			if err != nil {
				s.log.Errorf("sweep: %v", err)
			}
			if len(won) > 0 {
				s.log.Infof("sweep reclaimed %d expired assignments", len(won))
			}
		}
	}
}

// Sweep runs one reclaim pass. Used by the one-shot sweep command.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	won, err := s.Engine.ReclaimExpired(ctx)
	return len(won), err
}

// Route scores the given pool and opens the first assignment for the order.
func (s *Service) Route(ctx context.Context, orderID string, items []model.OrderItem, pool []model.Candidate) (*model.RoutingAttempt, error) {
	return s.Engine.RouteOrder(ctx, orderID, items, pool)
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.mqtt != nil {
		s.mqtt.Disconnect()
	}
	return s.Engine.Close()
}
