package ordex

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/kailas-cloud/ordex/internal/db"
	"github.com/kailas-cloud/ordex/internal/domain"
	"github.com/kailas-cloud/ordex/internal/domain/filter"
	domorder "github.com/kailas-cloud/ordex/internal/domain/order"
	"github.com/kailas-cloud/ordex/internal/domain/patch"
	"github.com/kailas-cloud/ordex/internal/domain/query"
	"github.com/kailas-cloud/ordex/internal/repository/document"
	"github.com/kailas-cloud/ordex/internal/repository/schema"
	"github.com/kailas-cloud/ordex/internal/secrets"
)

// --- orderUseCase mock ---

type mockOrderUC struct {
	createFn     func(ctx context.Context, o domorder.Order) (domorder.Record, error)
	listFn       func(ctx context.Context, limit int) ([]domorder.Record, error)
	getFn        func(ctx context.Context, id string) (domorder.Record, error)
	updateFn     func(ctx context.Context, f filter.Filter, spec patch.Spec) (domain.MutationResult, error)
	updateByIDFn func(ctx context.Context, id string, spec patch.Spec) (domain.MutationResult, error)
	deleteFn     func(ctx context.Context, f filter.Filter) (domain.MutationResult, error)
	deleteByIDFn func(ctx context.Context, id string) (domain.MutationResult, error)
}

func (m *mockOrderUC) Create(ctx context.Context, o domorder.Order) (domorder.Record, error) {
	return m.createFn(ctx, o)
}

func (m *mockOrderUC) List(ctx context.Context, limit int) ([]domorder.Record, error) {
	return m.listFn(ctx, limit)
}

func (m *mockOrderUC) Get(ctx context.Context, id string) (domorder.Record, error) {
	return m.getFn(ctx, id)
}

func (m *mockOrderUC) Update(ctx context.Context, f filter.Filter, spec patch.Spec) (domain.MutationResult, error) {
	return m.updateFn(ctx, f, spec)
}

func (m *mockOrderUC) UpdateByID(ctx context.Context, id string, spec patch.Spec) (domain.MutationResult, error) {
	return m.updateByIDFn(ctx, id, spec)
}

func (m *mockOrderUC) Delete(ctx context.Context, f filter.Filter) (domain.MutationResult, error) {
	return m.deleteFn(ctx, f)
}

func (m *mockOrderUC) DeleteByID(ctx context.Context, id string) (domain.MutationResult, error) {
	return m.deleteByIDFn(ctx, id)
}

// --- in-memory db.Store ---

type memStore struct {
	indexes    map[string]bool
	docs       map[string][]byte
	ids        []string
	lastQuery  query.Query
	lastScript patch.Script
	deletes    int
	pingErr    error
}

func newMemStore() *memStore {
	return &memStore{indexes: map[string]bool{}, docs: map[string][]byte{}}
}

func (m *memStore) Ping(context.Context) error                        { return m.pingErr }
func (m *memStore) Close()                                            {}
func (m *memStore) WaitForReady(context.Context, time.Duration) error { return nil }

func (m *memStore) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	if m.indexes[def.Name] {
		return db.ErrIndexExists
	}
	m.indexes[def.Name] = true
	return nil
}

func (m *memStore) DropIndex(_ context.Context, name string) error {
	if !m.indexes[name] {
		return db.ErrIndexNotFound
	}
	delete(m.indexes, name)
	return nil
}

func (m *memStore) IndexExists(_ context.Context, name string) (bool, error) {
	return m.indexes[name], nil
}

func (m *memStore) IndexDocument(_ context.Context, _ string, doc []byte) (string, error) {
	id := fmt.Sprintf("doc-%d", len(m.ids)+1)
	m.docs[id] = doc
	m.ids = append(m.ids, id)
	return id, nil
}

func (m *memStore) Get(_ context.Context, _, id string) ([]byte, error) {
	d, ok := m.docs[id]
	if !ok {
		return nil, db.ErrDocumentNotFound
	}
	return d, nil
}

func (m *memStore) Search(_ context.Context, _ string, q query.Query, size int) (*db.SearchResult, error) {
	m.lastQuery = q
	res := &db.SearchResult{Total: len(m.ids)}
	for _, id := range m.ids {
		if len(res.Hits) == size {
			break
		}
		res.Hits = append(res.Hits, db.Hit{ID: id, Source: m.docs[id]})
	}
	return res, nil
}

func (m *memStore) UpdateByQuery(
	_ context.Context, _ string, q query.Query, script patch.Script,
) (*db.MutationResponse, error) {
	m.lastQuery = q
	m.lastScript = script
	return &db.MutationResponse{Count: 1, Counted: true}, nil
}

func (m *memStore) DeleteByQuery(_ context.Context, _ string, q query.Query) (*db.MutationResponse, error) {
	m.lastQuery = q
	m.deletes++
	return &db.MutationResponse{Counted: false}, nil
}

// newTestClient wires a Client over an in-memory store.
func newTestClient(t *testing.T, obs *observer) (*Client, *memStore) {
	t.Helper()
	ms := newMemStore()
	docs := document.New(
		document.Config{AllowAnonymous: true},
		secrets.Static{document.DefaultEndpointKey: "mem://"},
		func(context.Context, db.ConnParams) (db.Store, error) { return ms, nil },
		schema.Embedded(),
		nil,
	)
	if err := docs.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return wireClient(docs, &clientConfig{maxResults: 10}, obs), ms
}
