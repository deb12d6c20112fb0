// Package task runs the asynchronous side of document generation.
//
// Tasks live in a shared store. Every worker process runs a Poller that
// discovers tasks, claims each with a time-limited lease, and hands it to the
// Executor. The lease is the only mutual-exclusion primitive: a crashed worker
// simply lets its leases expire and another poller picks the task up again,
// which makes execution at-least-once. The Executor is written so that a
// repeated run leaves the log entry exactly as the first one did.
package task
