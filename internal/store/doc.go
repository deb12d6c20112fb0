// Package store defines interfaces for the relational side of persistence:
// the generation log (an append/update audit table) and read access to the
// user registry. These interfaces keep the intake and execution logic
// independent of the database technology behind them.
package store
