// Package mocks provides in-memory implementations of the store interfaces
// for use in tests. Each mock keeps its data in exported maps and lets a test
// replace any method through an Fn field.
package mocks
