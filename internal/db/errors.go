package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrDocumentNotFound = errors.New("db: document not found")
	ErrIndexNotFound    = errors.New("db: index not found")
	ErrIndexExists      = errors.New("db: index already exists")
	ErrTooManyMatches   = errors.New("db: query matches more documents than one call may change")
)

// Op constants name store operations for error context and metrics.
const (
	OpPing          = "ping"
	OpCreateIndex   = "create_index"
	OpDropIndex     = "drop_index"
	OpIndexExists   = "index_exists"
	OpIndexDocument = "index_document"
	OpGet           = "get"
	OpSearch        = "search"
	OpUpdateByQuery = "update_by_query"
	OpDeleteByQuery = "delete_by_query"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
