package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kailas-cloud/ordex/internal/db"
	"github.com/kailas-cloud/ordex/internal/domain/patch"
	"github.com/kailas-cloud/ordex/internal/domain/query"
	"github.com/kailas-cloud/ordex/internal/repository/document"
	"github.com/kailas-cloud/ordex/internal/repository/schema"
	"github.com/kailas-cloud/ordex/internal/secrets"
)

// fakeStore keeps documents of every index in memory. Mutations record their
// query and report mutated as the count.
type fakeStore struct {
	indexes    map[string]map[string][]byte
	lastQuery  *query.Query
	lastScript patch.Script
	mutated    int
	counted    bool
	closed     bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{indexes: map[string]map[string][]byte{}, counted: true}
}

func (f *fakeStore) Ping(context.Context) error                        { return nil }
func (f *fakeStore) Close()                                            { f.closed = true }
func (f *fakeStore) WaitForReady(context.Context, time.Duration) error { return nil }

func (f *fakeStore) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	if _, ok := f.indexes[def.Name]; ok {
		return db.ErrIndexExists
	}
	f.indexes[def.Name] = map[string][]byte{}
	return nil
}

func (f *fakeStore) DropIndex(_ context.Context, name string) error {
	if _, ok := f.indexes[name]; !ok {
		return db.ErrIndexNotFound
	}
	delete(f.indexes, name)
	return nil
}

func (f *fakeStore) IndexExists(_ context.Context, name string) (bool, error) {
	_, ok := f.indexes[name]
	return ok, nil
}

func (f *fakeStore) IndexDocument(_ context.Context, index string, doc []byte) (string, error) {
	docs, ok := f.indexes[index]
	if !ok {
		return "", db.ErrIndexNotFound
	}
	id := fmt.Sprintf("o-%d", len(docs)+1)
	docs[id] = doc
	return id, nil
}

func (f *fakeStore) Get(_ context.Context, index, id string) ([]byte, error) {
	d, ok := f.indexes[index][id]
	if !ok {
		return nil, db.ErrDocumentNotFound
	}
	return d, nil
}

func (f *fakeStore) Search(_ context.Context, index string, q query.Query, size int) (*db.SearchResult, error) {
	f.lastQuery = &q
	docs := f.indexes[index]
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	res := &db.SearchResult{Total: len(ids)}
	for _, id := range ids {
		if len(res.Hits) == size {
			break
		}
		res.Hits = append(res.Hits, db.Hit{ID: id, Source: docs[id]})
	}
	return res, nil
}

func (f *fakeStore) UpdateByQuery(
	_ context.Context, _ string, q query.Query, s patch.Script,
) (*db.MutationResponse, error) {
	f.lastQuery = &q
	f.lastScript = s
	return &db.MutationResponse{Count: f.mutated, Counted: f.counted}, nil
}

func (f *fakeStore) DeleteByQuery(_ context.Context, _ string, q query.Query) (*db.MutationResponse, error) {
	f.lastQuery = &q
	return &db.MutationResponse{Count: f.mutated, Counted: f.counted}, nil
}

// connectTo returns a connectFunc serving a document service over store.
func connectTo(store *fakeStore) connectFunc {
	return func(ctx context.Context, _, _ string) (*document.Service, error) {
		docs := document.New(
			document.Config{AllowAnonymous: true},
			secrets.Static{document.DefaultEndpointKey: "mem://"},
			func(context.Context, db.ConnParams) (db.Store, error) { return store, nil },
			schema.Embedded(),
			nil,
		)
		if err := docs.Init(ctx); err != nil {
			return nil, err
		}
		return docs, nil
	}
}
