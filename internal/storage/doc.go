// Package storage defines the capability interface shared by both storage
// models.
//
// A container is either a document collection (schema-less, any JSON-shaped
// record) or a table (declared columns with a partition key and a sort key).
// Implementations:
//   - postgres: JSONB collections and typed tables on PostgreSQL
//   - memory:   in-process, for dry runs and tests
package storage
