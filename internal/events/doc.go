// Package events carries execution outcomes from the executor to the
// components that react to them, most importantly the callback dispatcher.
//
// The executor emits one OutcomeEvent per finished attempt without knowing
// which handlers exist. Handlers must not block the emitter for long: slow
// work such as webhook delivery is expected to run detached.
package events
