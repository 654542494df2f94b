// Package task implements the durable background job orchestrator: a
// database-backed job queue, a worker runner with retry and crash recovery,
// and the recurring schedules that drive the media cleanup pipeline.
//
// Jobs are persisted before they are queued, so a process crash never loses
// work: on startup the runner requeues every pending job and resets jobs
// that were mid-flight when the previous process died. Combined with
// idempotent job handlers this yields at-least-once execution.
package task
