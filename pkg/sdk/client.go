package ordex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/ordex/internal/db"
	dbElastic "github.com/kailas-cloud/ordex/internal/db/elastic"
	dbRedis "github.com/kailas-cloud/ordex/internal/db/redis"
	"github.com/kailas-cloud/ordex/internal/domain"
	"github.com/kailas-cloud/ordex/internal/domain/filter"
	domorder "github.com/kailas-cloud/ordex/internal/domain/order"
	"github.com/kailas-cloud/ordex/internal/domain/patch"
	"github.com/kailas-cloud/ordex/internal/repository/document"
	orderrepo "github.com/kailas-cloud/ordex/internal/repository/order"
	"github.com/kailas-cloud/ordex/internal/repository/schema"
	"github.com/kailas-cloud/ordex/internal/secrets"
	healthuc "github.com/kailas-cloud/ordex/internal/usecase/health"
	orderuc "github.com/kailas-cloud/ordex/internal/usecase/order"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultPageSize         = 100
)

// Internal interfaces, replaced in tests.
type orderUseCase interface {
	Create(ctx context.Context, o domorder.Order) (domorder.Record, error)
	List(ctx context.Context, limit int) ([]domorder.Record, error)
	Get(ctx context.Context, id string) (domorder.Record, error)
	Update(ctx context.Context, f filter.Filter, spec patch.Spec) (domain.MutationResult, error)
	UpdateByID(ctx context.Context, id string, spec patch.Spec) (domain.MutationResult, error)
	Delete(ctx context.Context, f filter.Filter) (domain.MutationResult, error)
	DeleteByID(ctx context.Context, id string) (domain.MutationResult, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the ordex SDK entry point. It is safe for concurrent use.
type Client struct {
	docs       *document.Service
	health     healthUseCase
	maxResults int
	obs        *observer
}

// New creates a Client, connects to the store and waits until it answers.
// The provided context bounds the connection attempt.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		readinessTimeout: defaultReadinessTimeout,
		maxResults:       document.DefaultMaxResults,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.endpoint == "" {
		return nil, errors.New("ordex: store endpoint required (use WithElastic or WithRedis)")
	}
	dial, err := dialer(cfg)
	if err != nil {
		return nil, err
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	docs := document.New(
		document.Config{AllowAnonymous: cfg.credential == ""},
		secrets.Static{
			document.DefaultEndpointKey:   cfg.endpoint,
			document.DefaultCredentialKey: cfg.credential,
		},
		dial,
		schema.FromConfig(cfg.mappingsDir),
		nil,
	)
	if err := docs.Init(ctx); err != nil {
		return nil, fmt.Errorf("ordex: %w", err)
	}

	store, err := docs.Store()
	if err != nil {
		return nil, fmt.Errorf("ordex: %w", err)
	}
	if err := store.WaitForReady(ctx, cfg.readinessTimeout); err != nil {
		docs.Close()
		return nil, fmt.Errorf("ordex: store not ready: %w", err)
	}

	return wireClient(docs, cfg, obs), nil
}

func dialer(cfg *clientConfig) (db.Dialer, error) {
	switch cfg.driver {
	case "elastic":
		return dbElastic.Dialer(cfg.transport), nil
	case "redis":
		return dbRedis.Dialer(cfg.keyPrefix), nil
	default:
		return nil, fmt.Errorf("ordex: unknown driver %q", cfg.driver)
	}
}

func wireClient(docs *document.Service, cfg *clientConfig, obs *observer) *Client {
	return &Client{
		docs:       docs,
		health:     healthuc.New(docs, docs),
		maxResults: cfg.maxResults,
		obs:        obs,
	}
}

// Close releases the store connection.
func (c *Client) Close() {
	c.docs.Close()
}

// Ping checks store connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", "", start, err) }()

	if err = c.docs.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// EnsureIndex creates the index from the named mapping unless it already
// exists. Returns true if the index was created.
func (c *Client) EnsureIndex(ctx context.Context, name, mapping string) (created bool, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ensure_index", name, start, err) }()

	created, err = c.docs.CreateIndex(ctx, name, mapping)
	if err != nil {
		return false, fmt.Errorf("ensure index: %w", err)
	}
	return created, nil
}

// DropIndex deletes the index and its documents. A missing index is not an error.
func (c *Client) DropIndex(ctx context.Context, name string) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("drop_index", name, start, err) }()

	if err = c.docs.DropIndex(ctx, name); err != nil {
		return fmt.Errorf("drop index: %w", err)
	}
	return nil
}

// Orders returns the order service for the given index.
func (c *Client) Orders(index string) *OrderService {
	svc := orderuc.New(orderrepo.New(c.docs, index)).WithLimits(defaultPageSize, c.maxResults)
	return &OrderService{index: index, svc: svc, obs: c.obs}
}
