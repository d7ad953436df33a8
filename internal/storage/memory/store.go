// Package memory implements storage.Store in process memory.
//
// Collections keep records in insertion order. Tables reject records missing
// a key column, keep the first record per key, and return rows ordered by
// partition key then sort key.
package memory

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/stockseed/internal/storage"
)

// IDField holds the generated identifier of a document.
const IDField = "_id"

type container struct {
	schema  *storage.Schema
	records []storage.Record
	keys    map[string]bool
}

// Store is a storage.Store kept in memory. It is safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	containers map[string]*container
}

// New creates an empty Store.
func New() *Store {
	return &Store{containers: make(map[string]*container)}
}

// CreateContainer creates c if it does not already exist.
func (s *Store) CreateContainer(ctx context.Context, c storage.Container) error {
	if c.Schema != nil {
		if err := c.Schema.Validate(); err != nil {
			return fmt.Errorf("create %s: %w", c.Name, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.containers[c.Name]; ok {
		return nil
	}
	s.containers[c.Name] = &container{schema: c.Schema, keys: make(map[string]bool)}
	return nil
}

// Truncate removes all records from name. A missing container is a no-op.
func (s *Store) Truncate(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.containers[name]
	if !ok {
		return nil
	}
	c.records = nil
	c.keys = make(map[string]bool)
	return nil
}

// InsertMany validates every record before storing any of them.
func (s *Store) InsertMany(ctx context.Context, name string, records []storage.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.containers[name]
	if !ok {
		return fmt.Errorf("insert %s: %w", name, storage.ErrContainerNotFound)
	}

	rows := make([]storage.Record, 0, len(records))
	for i, r := range records {
		row := maps.Clone(r)
		if c.schema == nil {
			if _, ok := row[IDField]; !ok {
				row[IDField] = uuid.NewString()
			}
		} else if err := checkRow(c.schema, row); err != nil {
			return fmt.Errorf("insert %s: record %d: %w", name, i, err)
		}
		rows = append(rows, row)
	}

	for _, row := range rows {
		if c.schema != nil {
			k := rowKey(c.schema, row)
			if c.keys[k] {
				continue
			}
			c.keys[k] = true
		}
		c.records = append(c.records, row)
	}
	return nil
}

// Find returns copies of the records matching filter.
func (s *Store) Find(ctx context.Context, name string, filter storage.Filter) ([]storage.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.containers[name]
	if !ok {
		return nil, fmt.Errorf("find %s: %w", name, storage.ErrContainerNotFound)
	}
	if c.schema != nil {
		if err := c.schema.CheckFilter(filter); err != nil {
			return nil, fmt.Errorf("find %s: %w", name, err)
		}
	}

	var out []storage.Record
	for _, r := range c.records {
		if matches(r, filter) {
			out = append(out, maps.Clone(r))
		}
	}

	if c.schema != nil {
		sortRows(c.schema, out)
	}
	return out, nil
}

// Count returns the number of records in name, or -1 if it does not exist.
func (s *Store) Count(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.containers[name]
	if !ok {
		return -1
	}
	return len(c.records)
}

func checkRow(schema *storage.Schema, row storage.Record) error {
	for field := range row {
		if _, ok := schema.Column(field); !ok {
			return fmt.Errorf("%w: undeclared column %q", storage.ErrInvalidRecord, field)
		}
	}
	for _, k := range schema.KeyColumns() {
		if v, ok := row[k]; !ok || v == nil {
			return fmt.Errorf("%w: missing key column %q", storage.ErrInvalidRecord, k)
		}
	}
	return nil
}

func rowKey(schema *storage.Schema, row storage.Record) string {
	key := ""
	for _, k := range schema.KeyColumns() {
		key += fmt.Sprintf("%v\x00", normalize(row[k]))
	}
	return key
}

func matches(r storage.Record, filter storage.Filter) bool {
	for field, want := range filter {
		got, ok := r[field]
		if !ok || compare(got, want) != 0 {
			return false
		}
	}
	return true
}

func sortRows(schema *storage.Schema, rows []storage.Record) {
	sort.SliceStable(rows, func(i, j int) bool {
		for _, k := range schema.PartitionKey {
			if c := compare(rows[i][k], rows[j][k]); c != 0 {
				return c < 0
			}
		}
		for _, sc := range schema.SortKey {
			c := compare(rows[i][sc.Name], rows[j][sc.Name])
			if sc.Descending {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
}

// normalize maps numeric kinds onto float64 so that 100 and 100.0 compare equal.
func normalize(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	case time.Time:
		return n.UTC()
	}
	return v
}

// compare orders two stored values. Values of different kinds compare by
// their formatted text.
func compare(a, b any) int {
	a, b = normalize(a), normalize(b)
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return cmp3(x < y, x > y)
		}
	case float64:
		if y, ok := b.(float64); ok {
			return cmp3(x < y, x > y)
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			return cmp3(!x && y, x && !y)
		}
	}
	sa, sb := fmt.Sprint(a), fmt.Sprint(b)
	return cmp3(sa < sb, sa > sb)
}

func cmp3(less, greater bool) int {
	switch {
	case less:
		return -1
	case greater:
		return 1
	}
	return 0
}
