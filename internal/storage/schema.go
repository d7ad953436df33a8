package storage

import (
	"errors"
	"fmt"
)

// ColumnType is the declared type of a table column.
type ColumnType string

const (
	ColumnText  ColumnType = "text"
	ColumnDate  ColumnType = "date"
	ColumnFloat ColumnType = "float"
	ColumnInt   ColumnType = "int"
)

// Column is one declared table column.
type Column struct {
	Name string
	Type ColumnType
}

// SortColumn orders rows within a partition.
type SortColumn struct {
	Name       string
	Descending bool
}

// Schema declares a table's columns and key.
type Schema struct {
	Columns      []Column
	PartitionKey []string
	SortKey      []SortColumn
}

// Container names a storage unit. A nil Schema means a document collection.
type Container struct {
	Name   string
	Schema *Schema
}

// Tabular reports whether the container is a table.
func (c Container) Tabular() bool {
	return c.Schema != nil
}

// Column looks up a declared column.
func (s *Schema) Column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// KeyColumns returns the partition key followed by the sort key.
func (s *Schema) KeyColumns() []string {
	keys := make([]string, 0, len(s.PartitionKey)+len(s.SortKey))
	keys = append(keys, s.PartitionKey...)
	for _, sc := range s.SortKey {
		keys = append(keys, sc.Name)
	}
	return keys
}

// Validate checks that the key references declared columns.
func (s *Schema) Validate() error {
	if len(s.Columns) == 0 {
		return errors.New("schema has no columns")
	}
	if len(s.PartitionKey) == 0 {
		return errors.New("schema has no partition key")
	}
	seen := make(map[string]bool, len(s.Columns))
	for _, c := range s.Columns {
		if seen[c.Name] {
			return fmt.Errorf("duplicate column %q", c.Name)
		}
		seen[c.Name] = true
		switch c.Type {
		case ColumnText, ColumnDate, ColumnFloat, ColumnInt:
		default:
			return fmt.Errorf("column %q: unknown type %q", c.Name, c.Type)
		}
	}
	for _, k := range s.KeyColumns() {
		if !seen[k] {
			return fmt.Errorf("key column %q is not declared", k)
		}
	}
	return nil
}

// CheckFilter rejects filters on undeclared columns.
func (s *Schema) CheckFilter(f Filter) error {
	for field := range f {
		if _, ok := s.Column(field); !ok {
			return fmt.Errorf("%w: column %q is not declared", ErrUnsupportedFilter, field)
		}
	}
	return nil
}
