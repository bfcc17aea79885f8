package jobs

import (
	"context"
	"log/slog"
	"time"

	"separation/internal/core/application/usecases/queries"
	"separation/internal/core/domain/model/order"

	"github.com/robfig/cron/v3"
)

// DefaultFleetGaugeSchedule runs the job every 15 seconds.
const DefaultFleetGaugeSchedule = "*/15 * * * * *"

const fleetGaugeRunTimeout = 10 * time.Second

type ActiveOrdersReader interface {
	Handle(
		ctx context.Context,
		query queries.GetInProgressOrdersQuery,
	) ([]queries.GetInProgressOrdersQueryResponse, error)
}

type PurchaseQueueReader interface {
	Handle(
		ctx context.Context,
		query queries.GetPurchaseQueueQuery,
	) ([]queries.GetPurchaseQueueQueryResponse, error)
}

// FleetGauge receives the counts of one run.
type FleetGauge interface {
	SetFleet(inProgress, awaitingPurchase int)
}

// FleetGaugeJob publishes how many orders are being separated and how many of
// their lines wait on purchasing.
type FleetGaugeJob struct {
	activeOrders  ActiveOrdersReader
	purchaseQueue PurchaseQueueReader
	gauge         FleetGauge
	schedule      string
	cron          *cron.Cron
	logger        *slog.Logger
}

func NewFleetGaugeJob(
	activeOrders ActiveOrdersReader,
	purchaseQueue PurchaseQueueReader,
	gauge FleetGauge,
	schedule string,
	logger *slog.Logger,
) *FleetGaugeJob {
	if schedule == "" {
		schedule = DefaultFleetGaugeSchedule
	}
	return &FleetGaugeJob{
		activeOrders:  activeOrders,
		purchaseQueue: purchaseQueue,
		gauge:         gauge,
		schedule:      schedule,
		cron:          cron.New(cron.WithSeconds()),
		logger:        logger.With("component", "fleet_gauge_job"),
	}
}

func (j *FleetGaugeJob) Name() string { return "fleet gauge job" }

// Start schedules the job. An invalid schedule is returned as an error.
func (j *FleetGaugeJob) Start() error {
	_, err := j.cron.AddFunc(j.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), fleetGaugeRunTimeout)
		defer cancel()

		if err := j.Run(ctx); err != nil {
			j.logger.ErrorContext(ctx, "Fleet gauge job failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Fleet gauge job started", "schedule", j.schedule)
	return nil
}

// Stop waits for a running refresh to finish.
func (j *FleetGaugeJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Fleet gauge job stopped")
}

// Run performs one refresh. The gauges are only updated when both reads
// succeed.
func (j *FleetGaugeJob) Run(ctx context.Context) error {
	active, err := j.activeOrders.Handle(ctx, queries.NewGetInProgressOrdersQuery())
	if err != nil {
		return err
	}
	queue, err := j.purchaseQueue.Handle(ctx, queries.NewGetPurchaseQueueQuery())
	if err != nil {
		return err
	}

	awaiting := 0
	for _, item := range queue {
		if item.State == order.AwaitingPurchase {
			awaiting++
		}
	}
	j.gauge.SetFleet(len(active), awaiting)
	j.logger.DebugContext(ctx, "Fleet gauges refreshed", "in_progress", len(active), "awaiting_purchase", awaiting)
	return nil
}
