package order

import (
	"context"

	"github.com/kailas-cloud/ordex/internal/domain"
	"github.com/kailas-cloud/ordex/internal/domain/filter"
	domorder "github.com/kailas-cloud/ordex/internal/domain/order"
	"github.com/kailas-cloud/ordex/internal/domain/patch"
)

// Repository defines the storage contract for orders.
type Repository interface {
	Create(ctx context.Context, o *domorder.Order) (string, error)
	List(ctx context.Context, limit int) ([]domorder.Record, error)
	Get(ctx context.Context, id string) (domorder.Record, error)
	UpdateByFilter(ctx context.Context, f filter.Filter, spec patch.Spec) (domain.MutationResult, error)
	DeleteByFilter(ctx context.Context, f filter.Filter) (domain.MutationResult, error)
}
