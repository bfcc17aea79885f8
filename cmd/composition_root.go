package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"separation/api"
	httpin "separation/internal/adapters/in/http"
	"separation/internal/adapters/out/broadcast"
	"separation/internal/adapters/out/kafka"
	"separation/internal/adapters/out/postgres"
	"separation/internal/core/application/usecases/commands"
	"separation/internal/core/application/usecases/queries"
	"separation/internal/core/ports"
	"separation/internal/jobs"
	"separation/internal/pkg/metrics"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// CompositionRoot owns the long-lived dependencies of the service and builds
// the handlers on top of them.
type CompositionRoot struct {
	cfg        Config
	gormDB     *gorm.DB
	uowFactory *postgres.GormUnitOfWorkFactory
	logger     *slog.Logger
	metrics    *metrics.Metrics
	hub        *broadcast.Hub
	relay      *kafka.OrderChangedRelay
	publisher  ports.EventPublisher
}

func NewCompositionRoot(cfg Config, gormDB *gorm.DB, logger *slog.Logger) (*CompositionRoot, error) {
	m := metrics.New()
	hub := broadcast.NewHub(
		broadcast.WithBufferSize(cfg.HubBufferSize),
		broadcast.WithLogger(logger),
		broadcast.WithMetrics(m),
	)

	root := &CompositionRoot{
		cfg:        cfg,
		gormDB:     gormDB,
		uowFactory: postgres.NewGormUnitOfWorkFactory(gormDB),
		logger:     logger,
		metrics:    m,
		hub:        hub,
	}

	var relays []ports.EventPublisher
	if cfg.KafkaEnabled() {
		relay, err := kafka.NewOrderChangedRelay(cfg.KafkaHost, cfg.KafkaOrderChangedTopic,
			kafka.WithRelayLogger(logger),
		)
		if err != nil {
			hub.Close()
			return nil, fmt.Errorf("failed to create order changed relay: %w", err)
		}
		root.relay = relay
		relays = append(relays, relay)
	}
	root.publisher = broadcast.NewFanoutPublisher(hub, logger, relays...)
	return root, nil
}

func (c *CompositionRoot) handlerOptions() []commands.Option {
	return []commands.Option{
		commands.WithPublisher(c.publisher),
		commands.WithLogger(c.logger),
		commands.WithRecorder(c.metrics),
		commands.WithStoreTimeout(c.cfg.DBTimeout),
	}
}

func (c *CompositionRoot) orderUoWFactory() commands.OrderUoWFactory {
	return FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	return commands.NewCreateOrderCommandHandler(c.orderUoWFactory(), c.handlerOptions()...)
}

func (c *CompositionRoot) CreateTransitionLineCommandHandler() commands.TransitionLineCommandHandler {
	return commands.NewTransitionLineCommandHandler(c.orderUoWFactory(), c.handlerOptions()...)
}

func (c *CompositionRoot) CreateFinalizeOrderCommandHandler() commands.FinalizeOrderCommandHandler {
	return commands.NewFinalizeOrderCommandHandler(c.orderUoWFactory(), c.handlerOptions()...)
}

func (c *CompositionRoot) CreateChangeShippingCommandHandler() commands.ChangeShippingCommandHandler {
	return commands.NewChangeShippingCommandHandler(c.orderUoWFactory(), c.handlerOptions()...)
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.gormDB, c.cfg.DBTimeout)
}

func (c *CompositionRoot) CreateGetInProgressOrdersQueryHandler() queries.GetInProgressOrdersQueryHandler {
	return queries.NewGetInProgressOrdersQueryHandler(c.gormDB, c.cfg.DBTimeout)
}

func (c *CompositionRoot) CreateGetPurchaseQueueQueryHandler() queries.GetPurchaseQueueQueryHandler {
	return queries.NewGetPurchaseQueueQueryHandler(c.gormDB, c.cfg.DBTimeout)
}

// CreateHTTPServer builds the echo instance with every route mounted.
func (c *CompositionRoot) CreateHTTPServer() (*echo.Echo, error) {
	contract, err := httpin.NewContractValidator(api.OpenAPI)
	if err != nil {
		return nil, err
	}

	server := httpin.NewServer(httpin.Handlers{
		CreateOrder:      c.CreateCreateOrderCommandHandler(),
		TransitionLine:   c.CreateTransitionLineCommandHandler(),
		FinalizeOrder:    c.CreateFinalizeOrderCommandHandler(),
		ChangeShipping:   c.CreateChangeShippingCommandHandler(),
		GetOrder:         c.CreateGetOrderQueryHandler(),
		GetActiveOrders:  c.CreateGetInProgressOrdersQueryHandler(),
		GetPurchaseQueue: c.CreateGetPurchaseQueueQueryHandler(),
	}, c.hub, c.logger)

	return httpin.NewRouter(httpin.RouterConfig{
		Server:   server,
		Contract: contract,
		Metrics:  c.metrics.Handler(),
		Health:   c.ping,
		Logger:   c.logger,
	}), nil
}

func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(c.logger,
		jobs.NewFleetGaugeJob(
			c.CreateGetInProgressOrdersQueryHandler(),
			c.CreateGetPurchaseQueueQueryHandler(),
			c.metrics,
			c.cfg.MetricsJobSchedule,
			c.logger,
		),
	)
}

func (c *CompositionRoot) ping(ctx context.Context) error {
	sqlDB, err := c.gormDB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close ends observer subscriptions and flushes the relay. The database is
// closed by the caller that opened it.
func (c *CompositionRoot) Close(ctx context.Context) error {
	c.hub.Close()
	if c.relay == nil {
		return nil
	}
	if err := c.relay.Close(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to flush order changed relay: %w", err)
	}
	return nil
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}
