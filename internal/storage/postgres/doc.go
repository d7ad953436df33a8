// Package postgres implements storage.Store on PostgreSQL.
//
// Two stores share one connection pool:
//   - DocumentStore: one JSONB document per row, filtered with @> containment
//   - TableStore: typed columns with a composite primary key, returned in key order
//
// Writes for one InsertMany call run in a single transaction and are sent as
// pgx batches. Transient failures are retried with exponential backoff.
package postgres
