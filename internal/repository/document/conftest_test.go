package document

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"github.com/kailas-cloud/ordex/internal/db"
	"github.com/kailas-cloud/ordex/internal/domain/patch"
	"github.com/kailas-cloud/ordex/internal/domain/query"
	"github.com/kailas-cloud/ordex/internal/repository/schema"
	"github.com/kailas-cloud/ordex/internal/secrets"
)

// mockStore implements db.Store for tests. Unset funcs fall back to an
// in-memory index so that write/read round trips work without stubbing.
type mockStore struct {
	existsFn func(ctx context.Context, name string) (bool, error)
	createFn func(ctx context.Context, def *db.IndexDefinition) error
	searchFn func(ctx context.Context, index string, q query.Query, size int) (*db.SearchResult, error)
	getFn    func(ctx context.Context, index, id string) ([]byte, error)
	updateFn func(ctx context.Context, index string, q query.Query, s patch.Script) (*db.MutationResponse, error)
	deleteFn func(ctx context.Context, index string, q query.Query) (*db.MutationResponse, error)
	indexFn  func(ctx context.Context, index string, doc []byte) (string, error)
	pingFn   func(ctx context.Context) error
	docs     map[string][]byte
	order    []string
	calls    map[string]int
	closed   bool
}

func newMockStore() *mockStore {
	return &mockStore{docs: map[string][]byte{}, calls: map[string]int{}}
}

func (m *mockStore) totalCalls() int {
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

func (m *mockStore) Ping(ctx context.Context) error {
	m.calls[db.OpPing]++
	if m.pingFn != nil {
		return m.pingFn(ctx)
	}
	return nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	m.calls[db.OpCreateIndex]++
	if m.createFn != nil {
		return m.createFn(ctx, def)
	}
	return nil
}

func (m *mockStore) DropIndex(_ context.Context, _ string) error {
	m.calls[db.OpDropIndex]++
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	m.calls[db.OpIndexExists]++
	if m.existsFn != nil {
		return m.existsFn(ctx, name)
	}
	return false, nil
}

func (m *mockStore) IndexDocument(ctx context.Context, index string, doc []byte) (string, error) {
	m.calls[db.OpIndexDocument]++
	if m.indexFn != nil {
		return m.indexFn(ctx, index, doc)
	}
	id := "doc-" + strconv.Itoa(len(m.order)+1)
	m.docs[id] = doc
	m.order = append(m.order, id)
	return id, nil
}

func (m *mockStore) Get(ctx context.Context, index, id string) ([]byte, error) {
	m.calls[db.OpGet]++
	if m.getFn != nil {
		return m.getFn(ctx, index, id)
	}
	doc, ok := m.docs[id]
	if !ok {
		return nil, db.ErrDocumentNotFound
	}
	return doc, nil
}

func (m *mockStore) Search(ctx context.Context, index string, q query.Query, size int) (*db.SearchResult, error) {
	m.calls[db.OpSearch]++
	if m.searchFn != nil {
		return m.searchFn(ctx, index, q, size)
	}
	res := &db.SearchResult{Total: len(m.order)}
	for _, id := range m.order {
		if len(res.Hits) == size {
			break
		}
		res.Hits = append(res.Hits, db.Hit{ID: id, Source: json.RawMessage(m.docs[id])})
	}
	return res, nil
}

func (m *mockStore) UpdateByQuery(
	ctx context.Context, index string, q query.Query, s patch.Script,
) (*db.MutationResponse, error) {
	m.calls[db.OpUpdateByQuery]++
	if m.updateFn != nil {
		return m.updateFn(ctx, index, q, s)
	}
	return &db.MutationResponse{Count: 0, Counted: true}, nil
}

func (m *mockStore) DeleteByQuery(ctx context.Context, index string, q query.Query) (*db.MutationResponse, error) {
	m.calls[db.OpDeleteByQuery]++
	if m.deleteFn != nil {
		return m.deleteFn(ctx, index, q)
	}
	return &db.MutationResponse{Count: 0, Counted: true}, nil
}

func (m *mockStore) Close() { m.closed = true }

func (m *mockStore) WaitForReady(context.Context, time.Duration) error { return nil }

var testSecrets = secrets.Static{
	DefaultEndpointKey:   "http://es.test:9200",
	DefaultCredentialKey: "api-key",
}

// newTestService returns an initialized service backed by a fresh mockStore.
func newTestService(t *testing.T) (*Service, *mockStore) {
	t.Helper()
	ms := newMockStore()
	svc := New(Config{}, testSecrets, func(context.Context, db.ConnParams) (db.Store, error) {
		return ms, nil
	}, schema.Embedded(), nil)
	if err := svc.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return svc, ms
}
