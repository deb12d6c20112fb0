// Package callback delivers execution outcomes to the webhook URL supplied with
// each generation request. Delivery is fire-and-forget: one attempt per
// outcome, bounded by a timeout, with failures logged and never retried.
package callback
