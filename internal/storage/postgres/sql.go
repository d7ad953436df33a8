package postgres

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/rickgao/stockseed/internal/storage"
)

func quote(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quote(n)
	}
	return strings.Join(quoted, ", ")
}

func sqlType(t storage.ColumnType) string {
	switch t {
	case storage.ColumnDate:
		return "DATE"
	case storage.ColumnFloat:
		return "DOUBLE PRECISION"
	case storage.ColumnInt:
		return "BIGINT"
	default:
		return "TEXT"
	}
}

// createCollectionSQL returns the statements that create a document collection.
func createCollectionSQL(name string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id UUID PRIMARY KEY,
	seq BIGSERIAL NOT NULL,
	doc JSONB NOT NULL
)`, quote(name)),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING GIN (doc jsonb_path_ops)`,
			quote(name+"_doc_idx"), quote(name)),
	}
}

// createTableSQL returns the statement that creates a typed table.
func createTableSQL(name string, s *storage.Schema) string {
	keys := s.KeyColumns()
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", quote(name))
	for _, c := range s.Columns {
		fmt.Fprintf(&b, "\t%s %s", quote(c.Name), sqlType(c.Type))
		if slices.Contains(keys, c.Name) {
			b.WriteString(" NOT NULL")
		}
		b.WriteString(",\n")
	}
	fmt.Fprintf(&b, "\tPRIMARY KEY (%s)\n)", quoteAll(keys))
	return b.String()
}

func truncateSQL(name string) string {
	return "TRUNCATE TABLE " + quote(name)
}

func insertDocumentSQL(name string) string {
	return fmt.Sprintf("INSERT INTO %s (id, doc) VALUES ($1, $2::jsonb)", quote(name))
}

func selectDocumentsSQL(name string) string {
	return fmt.Sprintf("SELECT id, doc FROM %s WHERE doc @> $1::jsonb ORDER BY seq", quote(name))
}

func columnNames(s *storage.Schema) []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// insertRowSQL inserts one row in schema column order, skipping rows whose
// key already exists.
func insertRowSQL(name string, s *storage.Schema) string {
	cols := columnNames(s)
	params := make([]string, len(cols))
	for i := range cols {
		params[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO NOTHING",
		quote(name), quoteAll(cols), strings.Join(params, ", "), quoteAll(s.KeyColumns()))
}

// selectRowsSQL builds an equality query over filter. A nil schema selects
// every column without ordering.
func selectRowsSQL(name string, s *storage.Schema, filter storage.Filter) (string, []any) {
	cols := "*"
	if s != nil {
		cols = quoteAll(columnNames(s))
	}

	fields := make([]string, 0, len(filter))
	for f := range filter {
		fields = append(fields, f)
	}
	slices.Sort(fields)

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", cols, quote(name))
	args := make([]any, 0, len(fields))
	for i, f := range fields {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		args = append(args, filter[f])
		fmt.Fprintf(&b, "%s = $%d", quote(f), len(args))
	}

	if s != nil {
		order := make([]string, 0, len(s.PartitionKey)+len(s.SortKey))
		for _, k := range s.PartitionKey {
			order = append(order, quote(k))
		}
		for _, sc := range s.SortKey {
			if sc.Descending {
				order = append(order, quote(sc.Name)+" DESC")
			} else {
				order = append(order, quote(sc.Name))
			}
		}
		b.WriteString(" ORDER BY " + strings.Join(order, ", "))
	}
	return b.String(), args
}

// rowValues orders a record's values by schema column. Records must carry
// every key column and no undeclared field.
func rowValues(s *storage.Schema, r storage.Record) ([]any, error) {
	for field := range r {
		if _, ok := s.Column(field); !ok {
			return nil, fmt.Errorf("%w: undeclared column %q", storage.ErrInvalidRecord, field)
		}
	}
	for _, k := range s.KeyColumns() {
		if v, ok := r[k]; !ok || v == nil {
			return nil, fmt.Errorf("%w: missing key column %q", storage.ErrInvalidRecord, k)
		}
	}
	values := make([]any, len(s.Columns))
	for i, c := range s.Columns {
		values[i] = r[c.Name]
	}
	return values, nil
}
