package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rickgao/stockseed/internal/storage"
)

// IDField holds the generated identifier of a document.
const IDField = "_id"

// DB is the subset of *pgxpool.Pool the stores use.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

// Option configures a store.
type Option func(*base)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *base) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithBatchSize sets how many statements are sent per round trip.
func WithBatchSize(n int) Option {
	return func(b *base) {
		if n > 0 {
			b.batchSize = n
		}
	}
}

// WithRetry sets the retry policy for transient failures.
func WithRetry(maxRetries int, backoff time.Duration) Option {
	return func(b *base) {
		b.retry.maxRetries = maxRetries
		b.retry.backoff = backoff
	}
}

// WithContainers registers table schemas up front, so a process that did not
// create the tables can still query them in key order.
func WithContainers(containers ...storage.Container) Option {
	return func(b *base) {
		for _, c := range containers {
			if c.Schema != nil {
				b.schemas[c.Name] = c.Schema
			}
		}
	}
}

type base struct {
	db        DB
	logger    *slog.Logger
	batchSize int
	retry     retrier

	mu      sync.RWMutex
	schemas map[string]*storage.Schema
}

func newBase(db DB, opts []Option) *base {
	b := &base{
		db:        db,
		logger:    slog.Default(),
		batchSize: 500,
		retry:     retrier{maxRetries: 3, backoff: 500 * time.Millisecond},
		schemas:   make(map[string]*storage.Schema),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.retry.logger = b.logger
	return b
}

// Ping verifies the database is reachable.
func (b *base) Ping(ctx context.Context) error {
	return b.db.Ping(ctx)
}

func (b *base) Truncate(ctx context.Context, name string) error {
	err := b.retry.do(ctx, "truncate", func(ctx context.Context) error {
		_, err := b.db.Exec(ctx, truncateSQL(name))
		return err
	})
	if pgCode(err) == codeUndefinedTable {
		b.logger.Debug("truncate skipped, container missing", "container", name)
		return nil
	}
	if err != nil {
		return fmt.Errorf("truncate %s: %w", name, err)
	}
	return nil
}

// create runs stmts in one transaction. Losing a create race is success.
func (b *base) create(ctx context.Context, name string, stmts ...string) error {
	err := b.retry.do(ctx, "create", func(ctx context.Context) error {
		return pgx.BeginFunc(ctx, b.db, func(tx pgx.Tx) error {
			for _, stmt := range stmts {
				if _, err := tx.Exec(ctx, stmt); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil && !alreadyExists(err) {
		return fmt.Errorf("create %s: %w", name, err)
	}
	return nil
}

// insert sends rows in batches inside one transaction and returns how many
// were skipped as key conflicts.
func (b *base) insert(ctx context.Context, name, stmt string, rows [][]any) (int, error) {
	var conflicts int
	err := b.retry.do(ctx, "insert", func(ctx context.Context) error {
		conflicts = 0
		return pgx.BeginFunc(ctx, b.db, func(tx pgx.Tx) error {
			for start := 0; start < len(rows); start += b.batchSize {
				end := min(start+b.batchSize, len(rows))
				n, err := sendBatch(ctx, tx, stmt, rows[start:end])
				if err != nil {
					return err
				}
				conflicts += n
			}
			return nil
		})
	})
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", name, classify(err))
	}
	return conflicts, nil
}

func sendBatch(ctx context.Context, tx pgx.Tx, stmt string, rows [][]any) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, args := range rows {
		batch.Queue(stmt, args...)
	}

	results := tx.SendBatch(ctx, batch)
	defer func() {
		if cerr := results.Close(); err == nil {
			err = cerr
		}
	}()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}
	return conflicts, nil
}

// DocumentStore keeps each record as a JSONB document.
type DocumentStore struct {
	*base
}

// NewDocumentStore creates a DocumentStore on db.
func NewDocumentStore(db DB, opts ...Option) *DocumentStore {
	return &DocumentStore{base: newBase(db, opts)}
}

// CreateContainer creates the collection and its containment index.
func (s *DocumentStore) CreateContainer(ctx context.Context, c storage.Container) error {
	return s.create(ctx, c.Name, createCollectionSQL(c.Name)...)
}

// InsertMany stores each record with a generated _id.
func (s *DocumentStore) InsertMany(ctx context.Context, name string, records []storage.Record) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([][]any, len(records))
	for i, r := range records {
		doc := make(storage.Record, len(r))
		for k, v := range r {
			if k != IDField {
				doc[k] = v
			}
		}
		data, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("insert %s: %w: record %d: %w", name, storage.ErrInvalidRecord, i, err)
		}
		rows[i] = []any{uuid.New(), string(data)}
	}

	start := time.Now()
	if _, err := s.insert(ctx, name, insertDocumentSQL(name), rows); err != nil {
		return err
	}
	s.logger.Debug("inserted documents",
		"container", name,
		"count", len(rows),
		"duration", time.Since(start),
	)
	return nil
}

// Find returns documents containing every filter field, in insertion order.
func (s *DocumentStore) Find(ctx context.Context, name string, filter storage.Filter) ([]storage.Record, error) {
	if filter == nil {
		filter = storage.Filter{}
	}
	data, err := json.Marshal(filter)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w: %w", name, storage.ErrUnsupportedFilter, err)
	}

	var out []storage.Record
	err = s.retry.do(ctx, "find", func(ctx context.Context) error {
		rows, err := s.db.Query(ctx, selectDocumentsSQL(name), string(data))
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, scanDocument)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", name, classify(err))
	}
	return out, nil
}

func scanDocument(row pgx.CollectableRow) (storage.Record, error) {
	var (
		id  uuid.UUID
		raw []byte
	)
	if err := row.Scan(&id, &raw); err != nil {
		return nil, err
	}
	var doc storage.Record
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", id, err)
	}
	if doc == nil {
		doc = storage.Record{}
	}
	doc[IDField] = id.String()
	return doc, nil
}

// TableStore keeps records as typed rows keyed by partition and sort key.
type TableStore struct {
	*base
}

// NewTableStore creates a TableStore on db.
func NewTableStore(db DB, opts ...Option) *TableStore {
	return &TableStore{base: newBase(db, opts)}
}

func (s *TableStore) schema(name string) *storage.Schema {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.schemas[name]
}

// CreateContainer creates the table and remembers its schema.
func (s *TableStore) CreateContainer(ctx context.Context, c storage.Container) error {
	if c.Schema == nil {
		return fmt.Errorf("create %s: %w", c.Name, storage.ErrSchemaRequired)
	}
	if err := c.Schema.Validate(); err != nil {
		return fmt.Errorf("create %s: %w", c.Name, err)
	}
	if err := s.create(ctx, c.Name, createTableSQL(c.Name, c.Schema)); err != nil {
		return err
	}

	s.mu.Lock()
	s.schemas[c.Name] = c.Schema
	s.mu.Unlock()
	return nil
}

// InsertMany validates every record, then writes them in one transaction.
// Rows whose key already exists are skipped.
func (s *TableStore) InsertMany(ctx context.Context, name string, records []storage.Record) error {
	schema := s.schema(name)
	if schema == nil {
		return fmt.Errorf("insert %s: %w", name, storage.ErrContainerNotFound)
	}
	if len(records) == 0 {
		return nil
	}

	rows := make([][]any, len(records))
	for i, r := range records {
		values, err := rowValues(schema, r)
		if err != nil {
			return fmt.Errorf("insert %s: record %d: %w", name, i, err)
		}
		rows[i] = values
	}

	start := time.Now()
	conflicts, err := s.insert(ctx, name, insertRowSQL(name, schema), rows)
	if err != nil {
		return err
	}
	if conflicts > 0 {
		s.logger.Warn("skipped rows with existing key",
			"container", name,
			"conflicts", conflicts,
		)
	}
	s.logger.Debug("inserted rows",
		"container", name,
		"count", len(rows)-conflicts,
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
	return nil
}

// Find returns rows equal to filter on declared columns, ordered by key.
func (s *TableStore) Find(ctx context.Context, name string, filter storage.Filter) ([]storage.Record, error) {
	schema := s.schema(name)
	if schema != nil {
		if err := schema.CheckFilter(filter); err != nil {
			return nil, fmt.Errorf("find %s: %w", name, err)
		}
	}
	query, args := selectRowsSQL(name, schema, filter)

	var out []storage.Record
	err := s.retry.do(ctx, "find", func(ctx context.Context) error {
		rows, err := s.db.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		maps, err := pgx.CollectRows(rows, pgx.RowToMap)
		if err != nil {
			return err
		}
		out = make([]storage.Record, len(maps))
		for i, m := range maps {
			out[i] = storage.Record(m)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", name, classify(err))
	}
	return out, nil
}

var (
	_ storage.Store  = (*DocumentStore)(nil)
	_ storage.Store  = (*TableStore)(nil)
	_ storage.Pinger = (*DocumentStore)(nil)
	_ storage.Pinger = (*TableStore)(nil)
)
