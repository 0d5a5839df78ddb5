// Package order binds the orders index and the order document shape to the
// document access layer.
package order

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/ordex/internal/domain"
	"github.com/kailas-cloud/ordex/internal/domain/filter"
	domorder "github.com/kailas-cloud/ordex/internal/domain/order"
	"github.com/kailas-cloud/ordex/internal/domain/patch"
	"github.com/kailas-cloud/ordex/internal/repository/document"
)

// Repo implements usecase/order.Repository.
type Repo struct {
	docs  *document.Service
	index string
}

// New creates an order repository over the named index.
func New(docs *document.Service, index string) *Repo {
	return &Repo{docs: docs, index: index}
}

// Index returns the index name orders are stored in.
func (r *Repo) Index() string { return r.index }

// Create stores an order and returns its identity.
func (r *Repo) Create(ctx context.Context, o *domorder.Order) (string, error) {
	id, err := r.docs.IndexDocument(ctx, r.index, o)
	if err != nil {
		return "", fmt.Errorf("index order: %w", err)
	}
	return id, nil
}

// List returns at most limit orders.
func (r *Repo) List(ctx context.Context, limit int) ([]domorder.Record, error) {
	items, err := document.GetAll(ctx, r.docs, r.index, document.JSONDecoder[domorder.Order](), limit)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	out := make([]domorder.Record, len(items))
	for i, it := range items {
		out[i] = domorder.Record{ID: it.ID, Order: it.Value}
	}
	return out, nil
}

// Get returns an order by identity, or domain.ErrNotFound.
func (r *Repo) Get(ctx context.Context, id string) (domorder.Record, error) {
	it, err := document.GetByID(ctx, r.docs, id, r.index, document.JSONDecoder[domorder.Order]())
	if err != nil {
		return domorder.Record{}, fmt.Errorf("get order %s: %w", id, err)
	}
	if it == nil {
		return domorder.Record{}, domain.ErrNotFound
	}
	return domorder.Record{ID: it.ID, Order: it.Value}, nil
}

// UpdateByFilter applies spec to every order matching f.
func (r *Repo) UpdateByFilter(ctx context.Context, f filter.Filter, spec patch.Spec) (domain.MutationResult, error) {
	res, err := r.docs.UpdateByFilter(ctx, f, spec, r.index)
	if err != nil {
		return domain.MutationResult{}, fmt.Errorf("update orders: %w", err)
	}
	return res, nil
}

// DeleteByFilter removes every order matching f.
func (r *Repo) DeleteByFilter(ctx context.Context, f filter.Filter) (domain.MutationResult, error) {
	res, err := r.docs.DeleteByFilter(ctx, f, r.index)
	if err != nil {
		return domain.MutationResult{}, fmt.Errorf("delete orders: %w", err)
	}
	return res, nil
}
