// Package jobs provides scheduled background tasks of the separation service.
//
// Jobs are cron-based (github.com/robfig/cron/v3, seconds field enabled) and
// managed through JobManager:
//
//	jobManager := jobs.NewJobManager(logger,
//		jobs.NewFleetGaugeJob(activeOrders, purchaseQueue, metrics, "*/15 * * * * *", logger),
//	)
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
//
// # Available Jobs
//
// FleetGaugeJob refreshes the in_progress_orders and awaiting_purchase_lines
// gauges from the store. A failed run is logged and the gauges keep their
// previous values until the next run.
package jobs
