package ordex

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/ordex/internal/domain/filter"
	"github.com/kailas-cloud/ordex/internal/domain/patch"
)

// OrderService manages orders within a single index.
type OrderService struct {
	index string
	svc   orderUseCase
	obs   *observer
}

// Create validates and stores a new order. Missing status, total and
// timestamps are filled in.
func (s *OrderService) Create(ctx context.Context, o Order) (rec OrderRecord, err error) {
	start := time.Now()
	defer func() { s.obs.observe("order_create", s.index, start, err) }()

	rec, err = s.svc.Create(ctx, o)
	if err != nil {
		return OrderRecord{}, fmt.Errorf("create order: %w", err)
	}
	return rec, nil
}

// Get returns an order by ID, or ErrNotFound.
func (s *OrderService) Get(ctx context.Context, id string) (rec OrderRecord, err error) {
	start := time.Now()
	defer func() { s.obs.observe("order_get", s.index, start, err) }()

	rec, err = s.svc.Get(ctx, id)
	if err != nil {
		return OrderRecord{}, fmt.Errorf("get order: %w", err)
	}
	return rec, nil
}

// List returns up to limit orders. Zero uses the default page size.
func (s *OrderService) List(ctx context.Context, limit int) (out []OrderRecord, err error) {
	start := time.Now()
	defer func() { s.obs.observe("order_list", s.index, start, err) }()

	out, err = s.svc.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return out, nil
}

// Update applies u to the orders matching f.
func (s *OrderService) Update(ctx context.Context, f Filter, u Update) (res Result, err error) {
	start := time.Now()
	defer func() { s.obs.observe("order_update", s.index, start, err) }()

	m, err := s.svc.Update(ctx, filter.Filter(f), patch.Spec(u))
	if err != nil {
		return Result{}, fmt.Errorf("update orders: %w", err)
	}
	return fromMutation(m), nil
}

// UpdateByID applies u to a single order.
func (s *OrderService) UpdateByID(ctx context.Context, id string, u Update) (res Result, err error) {
	start := time.Now()
	defer func() { s.obs.observe("order_update", s.index, start, err) }()

	m, err := s.svc.UpdateByID(ctx, id, patch.Spec(u))
	if err != nil {
		return Result{}, fmt.Errorf("update order: %w", err)
	}
	return fromMutation(m), nil
}

// Delete removes the orders matching f.
func (s *OrderService) Delete(ctx context.Context, f Filter) (res Result, err error) {
	start := time.Now()
	defer func() { s.obs.observe("order_delete", s.index, start, err) }()

	m, err := s.svc.Delete(ctx, filter.Filter(f))
	if err != nil {
		return Result{}, fmt.Errorf("delete orders: %w", err)
	}
	return fromMutation(m), nil
}

// DeleteByID removes a single order.
func (s *OrderService) DeleteByID(ctx context.Context, id string) (res Result, err error) {
	start := time.Now()
	defer func() { s.obs.observe("order_delete", s.index, start, err) }()

	m, err := s.svc.DeleteByID(ctx, id)
	if err != nil {
		return Result{}, fmt.Errorf("delete order: %w", err)
	}
	return fromMutation(m), nil
}
