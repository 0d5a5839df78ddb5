package ordex

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/ordex/internal/domain/filter"
	"github.com/kailas-cloud/ordex/internal/domain/patch"
	"github.com/kailas-cloud/ordex/internal/repository/document"
)

// Collection gives typed access to the documents of one index. Values are
// stored as their JSON encoding.
type Collection[T any] struct {
	index      string
	docs       *document.Service
	decode     document.Decoder[T]
	maxResults int
	obs        *observer
}

// NewCollection binds T to an index of the client's store.
func NewCollection[T any](c *Client, index string) *Collection[T] {
	return &Collection[T]{
		index:      index,
		docs:       c.docs,
		decode:     document.JSONDecoder[T](),
		maxResults: c.maxResults,
		obs:        c.obs,
	}
}

// Index returns the bound index name.
func (c *Collection[T]) Index() string { return c.index }

// Insert stores v and returns the identity assigned by the store.
func (c *Collection[T]) Insert(ctx context.Context, v T) (id string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("insert", c.index, start, err) }()

	id, err = c.docs.IndexDocument(ctx, c.index, v)
	if err != nil {
		return "", fmt.Errorf("insert: %w", err)
	}
	return id, nil
}

// Get returns the document with the given identity, or nil if there is none.
func (c *Collection[T]) Get(ctx context.Context, id string) (v *T, err error) {
	start := time.Now()
	defer func() { c.obs.observe("get", c.index, start, err) }()

	it, err := document.GetByID(ctx, c.docs, id, c.index, c.decode)
	if err != nil {
		return nil, fmt.Errorf("get: %w", err)
	}
	if it == nil {
		return nil, nil
	}
	return &it.Value, nil
}

// All returns every document of the index, up to the client's result cap.
func (c *Collection[T]) All(ctx context.Context) (out []Document[T], err error) {
	start := time.Now()
	defer func() { c.obs.observe("all", c.index, start, err) }()

	items, err := document.GetAll(ctx, c.docs, c.index, c.decode, c.maxResults)
	if err != nil {
		return nil, fmt.Errorf("all: %w", err)
	}
	out = make([]Document[T], len(items))
	for i, it := range items {
		out[i] = Document[T]{ID: it.ID, Value: it.Value}
	}
	return out, nil
}

// UpdateWhere applies u to the documents matching f.
func (c *Collection[T]) UpdateWhere(ctx context.Context, f Filter, u Update) (res Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("update_where", c.index, start, err) }()

	m, err := c.docs.UpdateByFilter(ctx, filter.Filter(f), patch.Spec(u), c.index)
	if err != nil {
		return Result{}, fmt.Errorf("update: %w", err)
	}
	return fromMutation(m), nil
}

// DeleteWhere removes the documents matching f.
func (c *Collection[T]) DeleteWhere(ctx context.Context, f Filter) (res Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("delete_where", c.index, start, err) }()

	m, err := c.docs.DeleteByFilter(ctx, filter.Filter(f), c.index)
	if err != nil {
		return Result{}, fmt.Errorf("delete: %w", err)
	}
	return fromMutation(m), nil
}
