// Package jobs runs periodic background work on a cron schedule. Jobs are
// independent of request handling: a failing job is logged and retried at its
// next scheduled time, never surfaced to clients.
package jobs
