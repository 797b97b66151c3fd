// Package jobs provides scheduled background tasks for the custody service.
//
// Jobs use github.com/robfig/cron/v3 with a seconds field in the schedule.
//
// # Available Jobs
//
// ReconciliationJob drains the reconciliation queue and rebuilds the pending
// request and pending delivery entries of every queued order from the
// canonical order. Orders land in the queue when a projection update failed
// after its order was committed.
//
// # Usage
//
//	jobManager := jobs.NewJobManager(reconcileHandler, cfg.ReconcileSchedule, 100, logger)
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
//
// A pass that outlasts the schedule interval makes the next tick a no-op.
// Orders that fail to reconcile are queued again by the handler.
package jobs
