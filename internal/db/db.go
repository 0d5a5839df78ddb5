package db

import (
	"context"
	"time"

	"github.com/kailas-cloud/ordex/internal/domain/patch"
	"github.com/kailas-cloud/ordex/internal/domain/query"
)

// Store is the main database facade combining all sub-interfaces.
type Store interface {
	Pinger
	IndexManager
	DocumentStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// IndexManager provides index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// DocumentStore provides document reads and writes within an index.
type DocumentStore interface {
	// IndexDocument stores one JSON document and returns its store-assigned identity.
	IndexDocument(ctx context.Context, index string, doc []byte) (string, error)
	// Get returns the raw source of a document, or ErrDocumentNotFound.
	Get(ctx context.Context, index, id string) ([]byte, error)
	// Search returns at most size hits matching q.
	Search(ctx context.Context, index string, q query.Query, size int) (*SearchResult, error)
	// UpdateByQuery applies s to every document matching q and makes the
	// changes visible to subsequent reads before returning.
	UpdateByQuery(ctx context.Context, index string, q query.Query, s patch.Script) (*MutationResponse, error)
	// DeleteByQuery removes every document matching q and makes the removal
	// visible to subsequent reads before returning.
	DeleteByQuery(ctx context.Context, index string, q query.Query) (*MutationResponse, error)
}

// ConnParams are the resolved connection parameters of a store.
// An empty Credential means unauthenticated access.
type ConnParams struct {
	Endpoint   string
	Credential string
}

// Dialer constructs a Store from resolved connection parameters.
type Dialer func(ctx context.Context, p ConnParams) (Store, error)
