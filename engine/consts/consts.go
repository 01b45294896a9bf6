package consts

import "time"

// Tunable Options
const (
	// SUPERVISOR_TICK_INTERVAL is the reconcile polling cadence of the
	// connection supervisor
	SUPERVISOR_TICK_INTERVAL = time.Millisecond * 500

	// PARENT_REQUEST_DEDUP_WINDOW limits outbound object requests to one per
	// missing-parent id per window
	PARENT_REQUEST_DEDUP_WINDOW = time.Second * 5

	// PARENT_RETRY_DELAY is the fixed delay before a parent-waiting update is
	// re-attempted
	PARENT_RETRY_DELAY = time.Second

	// TIMER_TICK_INTERVAL is the tick interval for the timer wheel => affects
	// retry timer resolution
	TIMER_TICK_INTERVAL = time.Millisecond * 10

	// ASYNC_JOB_QUEUE_MAXLEN is the max number of pending jobs per async worker
	ASYNC_JOB_QUEUE_MAXLEN = 100
)

// Debug Options
const (
	// DEBUG_REGIONS prints region lifecycle debug logs
	DEBUG_REGIONS = false
	// DEBUG_UPDATES prints per-notification debug logs
	DEBUG_UPDATES = false
)
