package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/ordex/internal/db"
	"github.com/kailas-cloud/ordex/internal/domain/patch"
	"github.com/kailas-cloud/ordex/internal/domain/query"
)

// Store Prometheus metrics.
var (
	StoreOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ordex",
			Name:      "store_operations_total",
			Help:      "Total number of document store operations",
		},
		[]string{"driver", "op", "status"},
	)

	StoreOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ordex",
			Name:      "store_operation_duration_seconds",
			Help:      "Document store operation duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"driver", "op"},
	)

	DocumentsMutatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ordex",
			Name:      "documents_mutated_total",
			Help:      "Documents updated or deleted by query, as reported by the store",
		},
		[]string{"driver", "op"},
	)
)

func init() {
	prometheus.MustRegister(StoreOperationsTotal)
	prometheus.MustRegister(StoreOperationDuration)
	prometheus.MustRegister(DocumentsMutatedTotal)
}

// InstrumentedStore wraps a db.Store and records per-operation metrics.
type InstrumentedStore struct {
	inner  db.Store
	driver string
}

// Compile-time check: InstrumentedStore implements db.Store.
var _ db.Store = (*InstrumentedStore)(nil)

// NewInstrumentedStore wraps inner; driver labels every series.
func NewInstrumentedStore(inner db.Store, driver string) *InstrumentedStore {
	return &InstrumentedStore{inner: inner, driver: driver}
}

// InstrumentDialer wraps every store produced by dial.
func InstrumentDialer(dial db.Dialer, driver string) db.Dialer {
	return func(ctx context.Context, p db.ConnParams) (db.Store, error) {
		s, err := dial(ctx, p)
		if err != nil {
			return nil, err
		}
		return NewInstrumentedStore(s, driver), nil
	}
}

func (s *InstrumentedStore) observe(op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	StoreOperationDuration.WithLabelValues(s.driver, op).Observe(time.Since(start).Seconds())
	StoreOperationsTotal.WithLabelValues(s.driver, op, status).Inc()
}

func (s *InstrumentedStore) mutated(op string, res *db.MutationResponse) {
	if res != nil && res.Counted {
		DocumentsMutatedTotal.WithLabelValues(s.driver, op).Add(float64(res.Count))
	}
}

// Ping implements db.Store.
func (s *InstrumentedStore) Ping(ctx context.Context) error {
	start := time.Now()
	err := s.inner.Ping(ctx)
	s.observe(db.OpPing, start, err)
	return err
}

// CreateIndex implements db.Store.
func (s *InstrumentedStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	start := time.Now()
	err := s.inner.CreateIndex(ctx, def)
	s.observe(db.OpCreateIndex, start, err)
	return err
}

// DropIndex implements db.Store.
func (s *InstrumentedStore) DropIndex(ctx context.Context, name string) error {
	start := time.Now()
	err := s.inner.DropIndex(ctx, name)
	s.observe(db.OpDropIndex, start, err)
	return err
}

// IndexExists implements db.Store.
func (s *InstrumentedStore) IndexExists(ctx context.Context, name string) (bool, error) {
	start := time.Now()
	ok, err := s.inner.IndexExists(ctx, name)
	s.observe(db.OpIndexExists, start, err)
	return ok, err
}

// IndexDocument implements db.Store.
func (s *InstrumentedStore) IndexDocument(ctx context.Context, index string, doc []byte) (string, error) {
	start := time.Now()
	id, err := s.inner.IndexDocument(ctx, index, doc)
	s.observe(db.OpIndexDocument, start, err)
	return id, err
}

// Get implements db.Store. A missing document is not counted as an error.
func (s *InstrumentedStore) Get(ctx context.Context, index, id string) ([]byte, error) {
	start := time.Now()
	src, err := s.inner.Get(ctx, index, id)
	observed := err
	if errors.Is(err, db.ErrDocumentNotFound) {
		observed = nil
	}
	s.observe(db.OpGet, start, observed)
	return src, err
}

// Search implements db.Store.
func (s *InstrumentedStore) Search(
	ctx context.Context, index string, q query.Query, size int,
) (*db.SearchResult, error) {
	start := time.Now()
	res, err := s.inner.Search(ctx, index, q, size)
	s.observe(db.OpSearch, start, err)
	return res, err
}

// UpdateByQuery implements db.Store.
func (s *InstrumentedStore) UpdateByQuery(
	ctx context.Context, index string, q query.Query, script patch.Script,
) (*db.MutationResponse, error) {
	start := time.Now()
	res, err := s.inner.UpdateByQuery(ctx, index, q, script)
	s.observe(db.OpUpdateByQuery, start, err)
	s.mutated(db.OpUpdateByQuery, res)
	return res, err
}

// DeleteByQuery implements db.Store.
func (s *InstrumentedStore) DeleteByQuery(
	ctx context.Context, index string, q query.Query,
) (*db.MutationResponse, error) {
	start := time.Now()
	res, err := s.inner.DeleteByQuery(ctx, index, q)
	s.observe(db.OpDeleteByQuery, start, err)
	s.mutated(db.OpDeleteByQuery, res)
	return res, err
}

// Close implements db.Store.
func (s *InstrumentedStore) Close() { s.inner.Close() }

// WaitForReady implements db.Store.
func (s *InstrumentedStore) WaitForReady(ctx context.Context, timeout time.Duration) error {
	return s.inner.WaitForReady(ctx, timeout)
}
