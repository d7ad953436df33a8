package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Record is one stored item, keyed by field name.
type Record map[string]any

// Filter is an equality predicate over fields. An empty filter matches everything.
type Filter map[string]any

// Store is the capability every storage model provides.
type Store interface {
	// CreateContainer creates the container. It succeeds if the container already exists.
	CreateContainer(ctx context.Context, c Container) error

	// Truncate removes every record. A missing container is a no-op.
	Truncate(ctx context.Context, name string) error

	// InsertMany writes all records or none of them.
	InsertMany(ctx context.Context, name string, records []Record) error

	// Find returns the records matching filter. A missing container yields
	// ErrContainerNotFound.
	Find(ctx context.Context, name string, filter Filter) ([]Record, error)
}

// Pinger is implemented by stores backed by a remote service.
type Pinger interface {
	Ping(ctx context.Context) error
}

var (
	// ErrContainerNotFound is returned when the named container does not exist.
	ErrContainerNotFound = errors.New("container not found")

	// ErrUnsupportedFilter is returned when a table is filtered on an undeclared column.
	ErrUnsupportedFilter = errors.New("unsupported filter")

	// ErrSchemaRequired is returned when a table is created without a schema.
	ErrSchemaRequired = errors.New("schema required")

	// ErrInvalidRecord is returned when a record does not fit its table.
	ErrInvalidRecord = errors.New("invalid record")
)

// IgnorableOnTruncate lists the error kinds a truncate step may skip.
var IgnorableOnTruncate = []error{ErrContainerNotFound}

// Ignorable reports whether err matches one of kinds.
func Ignorable(err error, kinds ...error) bool {
	if err == nil {
		return false
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}

// Mode selects the storage model for a run.
type Mode int

const (
	ModeDocument Mode = iota + 1
	ModeTabular
)

func (m Mode) String() string {
	switch m {
	case ModeDocument:
		return "document"
	case ModeTabular:
		return "tabular"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode accepts "document"/"collection"/"true" and "tabular"/"table"/"false".
// The boolean forms match a USE_COLLECTION style switch.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "document", "collection", "true":
		return ModeDocument, nil
	case "tabular", "table", "false":
		return ModeTabular, nil
	default:
		return 0, fmt.Errorf("unknown storage mode %q", s)
	}
}
