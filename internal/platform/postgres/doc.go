// Package postgres provides PostgreSQL implementations of the store
// interfaces: the generation log and the read path into the user registry.
// It also owns the schema, shipped as embedded goose migrations.
package postgres
