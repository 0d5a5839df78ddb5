package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ordex/internal/domain"
	"github.com/kailas-cloud/ordex/internal/domain/filter"
	domorder "github.com/kailas-cloud/ordex/internal/domain/order"
	"github.com/kailas-cloud/ordex/internal/domain/patch"
	"github.com/kailas-cloud/ordex/internal/logger"
)

// updatedAtField is stamped on every update.
const updatedAtField = "updated_at"

// Service handles order CRUD on top of the filter-driven document layer.
type Service struct {
	repo            Repository
	defaultPageSize int
	maxResults      int
	now             func() time.Time
}

// New creates an order service.
func New(repo Repository) *Service {
	return &Service{
		repo:            repo,
		defaultPageSize: 100,
		maxResults:      1000,
		now:             time.Now,
	}
}

// WithLimits configures list sizes. maxResults is a hard cap.
func (s *Service) WithLimits(defaultPageSize, maxResults int) *Service {
	if maxResults > 0 {
		s.maxResults = maxResults
	}
	if defaultPageSize > 0 {
		s.defaultPageSize = defaultPageSize
	}
	if s.defaultPageSize > s.maxResults {
		s.defaultPageSize = s.maxResults
	}
	return s
}

// Create validates and stores a new order.
func (s *Service) Create(ctx context.Context, o domorder.Order) (domorder.Record, error) {
	if err := o.Validate(); err != nil {
		return domorder.Record{}, err
	}
	o.Prepare(s.now())

	id, err := s.repo.Create(ctx, &o)
	if err != nil {
		return domorder.Record{}, fmt.Errorf("create order: %w", err)
	}
	logger.FromContext(ctx).Info("order created", zap.String("order_id", id), zap.Stringer("order", &o))
	return domorder.Record{ID: id, Order: o}, nil
}

// List returns up to limit orders. A non-positive limit uses the default page
// size; larger limits are clamped to the configured maximum.
func (s *Service) List(ctx context.Context, limit int) ([]domorder.Record, error) {
	if limit <= 0 {
		limit = s.defaultPageSize
	}
	if limit > s.maxResults {
		limit = s.maxResults
	}
	orders, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// Get returns one order, or domain.ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (domorder.Record, error) {
	if strings.TrimSpace(id) == "" {
		return domorder.Record{}, domain.InvalidInputf("order id is required")
	}
	return s.repo.Get(ctx, id)
}

// Update applies spec to the orders matching f and stamps updated_at.
func (s *Service) Update(ctx context.Context, f filter.Filter, spec patch.Spec) (domain.MutationResult, error) {
	if len(patch.Flatten(spec)) == 0 {
		return domain.MutationResult{}, domain.InvalidInputf("update has no fields to set")
	}
	if _, ok := spec[filter.IDKey]; ok {
		return domain.MutationResult{}, domain.InvalidInputf("order id cannot be updated")
	}

	stamped := make(patch.Spec, len(spec)+1)
	for k, v := range spec {
		stamped[k] = v
	}
	stamped[updatedAtField] = s.now().UTC().Format(time.RFC3339Nano)

	res, err := s.repo.UpdateByFilter(ctx, f, stamped)
	if err != nil {
		return domain.MutationResult{}, fmt.Errorf("update orders: %w", err)
	}
	logger.FromContext(ctx).Info("orders updated",
		zap.Stringer("filter", f), zap.String("outcome", res.Kind.String()), zap.Int("count", res.Count))
	return res, nil
}

// UpdateByID updates the single order with the given identity.
func (s *Service) UpdateByID(ctx context.Context, id string, spec patch.Spec) (domain.MutationResult, error) {
	if strings.TrimSpace(id) == "" {
		return domain.MutationResult{}, domain.InvalidInputf("order id is required")
	}
	return s.Update(ctx, filter.Filter{filter.IDKey: id}, spec)
}

// Delete removes the orders matching f.
func (s *Service) Delete(ctx context.Context, f filter.Filter) (domain.MutationResult, error) {
	res, err := s.repo.DeleteByFilter(ctx, f)
	if err != nil {
		return domain.MutationResult{}, fmt.Errorf("delete orders: %w", err)
	}
	logger.FromContext(ctx).Info("orders deleted",
		zap.Stringer("filter", f), zap.String("outcome", res.Kind.String()), zap.Int("count", res.Count))
	return res, nil
}

// DeleteByID removes the single order with the given identity.
func (s *Service) DeleteByID(ctx context.Context, id string) (domain.MutationResult, error) {
	if strings.TrimSpace(id) == "" {
		return domain.MutationResult{}, domain.InvalidInputf("order id is required")
	}
	return s.Delete(ctx, filter.Filter{filter.IDKey: id})
}
