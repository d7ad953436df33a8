package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rickgao/stockseed/internal/storage"
)

// SQLSTATE codes this package acts on.
const (
	codeUndefinedTable     = "42P01"
	codeDuplicateTable     = "42P07"
	codeDuplicateObject    = "42710"
	codeUniqueViolation    = "23505"
	codeSerialization      = "40001"
	codeDeadlock           = "40P01"
	codeAdminShutdown      = "57P01"
	codeTooManyConnections = "53300"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// classify maps driver errors onto storage error kinds.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if pgCode(err) == codeUndefinedTable {
		return fmt.Errorf("%w: %w", storage.ErrContainerNotFound, err)
	}
	return err
}

// alreadyExists reports whether a CREATE failed because a concurrent
// creator got there first.
func alreadyExists(err error) bool {
	switch pgCode(err) {
	case codeDuplicateTable, codeDuplicateObject, codeUniqueViolation:
		return true
	}
	return false
}

// retryable reports whether err is transient.
func retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	code := pgCode(err)
	switch {
	case code == "":
		return pgconn.SafeToRetry(err)
	case len(code) == 5 && code[:2] == "08":
		return true
	}
	switch code {
	case codeSerialization, codeDeadlock, codeAdminShutdown, codeTooManyConnections:
		return true
	}
	return false
}
