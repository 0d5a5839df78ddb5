// Package document is the filter-driven access layer over a document store:
// index lifecycle, single-document writes and reads, and bulk update and
// delete by filter.
package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ordex/internal/db"
	"github.com/kailas-cloud/ordex/internal/domain"
	"github.com/kailas-cloud/ordex/internal/domain/filter"
	"github.com/kailas-cloud/ordex/internal/domain/patch"
	"github.com/kailas-cloud/ordex/internal/logger"
	"github.com/kailas-cloud/ordex/internal/repository/index"
	"github.com/kailas-cloud/ordex/internal/repository/schema"
	"github.com/kailas-cloud/ordex/internal/secrets"
)

// Default secret keys for the store connection.
const (
	DefaultEndpointKey   = "ORDEX_STORE_ENDPOINT"
	DefaultCredentialKey = "ORDEX_STORE_CREDENTIAL"
)

// schemaLoader is the consumer interface for mapping files (ISP).
type schemaLoader interface {
	Load(name string) (schema.Schema, error)
}

// Config controls how the service connects.
type Config struct {
	EndpointKey   string
	CredentialKey string
	// AllowAnonymous permits a blank credential (unauthenticated store).
	AllowAnonymous bool
}

// conn is the published store handle.
type conn struct {
	store   db.Store
	indexes *index.Manager
}

// Service is the document access facade. It is unusable until Init succeeds;
// after that it is safe for concurrent use.
type Service struct {
	cfg     Config
	secrets secrets.Source
	dial    db.Dialer
	schemas schemaLoader
	log     *zap.Logger

	initMu sync.Mutex
	conn   atomic.Pointer[conn]
}

// New creates an uninitialized service.
func New(cfg Config, src secrets.Source, dial db.Dialer, schemas schemaLoader, log *zap.Logger) *Service {
	if cfg.EndpointKey == "" {
		cfg.EndpointKey = DefaultEndpointKey
	}
	if cfg.CredentialKey == "" {
		cfg.CredentialKey = DefaultCredentialKey
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{cfg: cfg, secrets: src, dial: dial, schemas: schemas, log: log}
}

// Init resolves the connection secrets, dials the store and marks the service
// ready. Calling Init again after success is a no-op.
func (s *Service) Init(ctx context.Context) error {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	if s.conn.Load() != nil {
		return nil
	}

	endpoint, err := s.secret(ctx, s.cfg.EndpointKey)
	if err != nil {
		return err
	}
	if endpoint == "" {
		return fmt.Errorf("%w: store endpoint %s is not set", domain.ErrInitialization, s.cfg.EndpointKey)
	}

	credential, err := s.secret(ctx, s.cfg.CredentialKey)
	if err != nil {
		return err
	}
	if credential == "" && !s.cfg.AllowAnonymous {
		return fmt.Errorf("%w: store credential %s is not set", domain.ErrInitialization, s.cfg.CredentialKey)
	}

	store, err := s.dial(ctx, db.ConnParams{Endpoint: endpoint, Credential: credential})
	if err != nil {
		return fmt.Errorf("%w: connect store: %w", domain.ErrInitialization, err)
	}

	s.conn.Store(&conn{store: store, indexes: index.NewManager(store)})
	s.log.Info("document store ready", zap.Bool("authenticated", credential != ""))
	return nil
}

// Ready reports whether Init has succeeded.
func (s *Service) Ready() bool { return s.conn.Load() != nil }

// Store returns the underlying store, or domain.ErrNotReady.
func (s *Service) Store() (db.Store, error) {
	c, err := s.ready()
	if err != nil {
		return nil, err
	}
	return c.store, nil
}

// Ping checks store connectivity.
func (s *Service) Ping(ctx context.Context) error {
	c, err := s.ready()
	if err != nil {
		return err
	}
	if err := c.store.Ping(ctx); err != nil {
		return domain.StoreError("ping", err)
	}
	return nil
}

// Close releases the store connection.
func (s *Service) Close() {
	if c := s.conn.Load(); c != nil {
		c.store.Close()
	}
}

// CreateIndex loads the named mapping and creates the index unless it already
// exists. It reports whether the index was created.
func (s *Service) CreateIndex(ctx context.Context, name, schemaSource string) (bool, error) {
	c, err := s.ready()
	if err != nil {
		return false, err
	}
	if err := requireNonBlank("index name", name); err != nil {
		return false, err
	}
	if err := requireNonBlank("schema source", schemaSource); err != nil {
		return false, err
	}

	sch, err := s.schemas.Load(schemaSource)
	if err != nil {
		return false, err
	}

	created, err := c.indexes.Ensure(ctx, name, sch)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return false, err
		}
		return false, domain.StoreError("create index", err)
	}
	logger.FromContext(ctx).Debug("index ensured",
		zap.String("index", name), zap.String("schema", schemaSource), zap.Bool("created", created))
	return created, nil
}

// DropIndex removes an index; a missing index is not an error.
func (s *Service) DropIndex(ctx context.Context, name string) error {
	c, err := s.ready()
	if err != nil {
		return err
	}
	if err := c.indexes.Drop(ctx, name); err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return err
		}
		return domain.StoreError("drop index", err)
	}
	return nil
}

// IndexDocument stores doc and returns the store-assigned identity. doc is
// encoded as JSON unless it already is raw JSON.
func (s *Service) IndexDocument(ctx context.Context, indexName string, doc any) (string, error) {
	c, err := s.ready()
	if err != nil {
		return "", err
	}
	if err := requireNonBlank("index name", indexName); err != nil {
		return "", err
	}

	data, err := encodeDocument(doc)
	if err != nil {
		return "", err
	}

	id, err := c.store.IndexDocument(ctx, indexName, data)
	if err != nil {
		return "", domain.StoreError("index document", err)
	}
	return id, nil
}

// UpdateByFilter applies spec to every document matching f. An empty filter
// touches nothing and yields domain.NoFilter without contacting the store.
func (s *Service) UpdateByFilter(
	ctx context.Context, f filter.Filter, spec patch.Spec, indexName string,
) (domain.MutationResult, error) {
	c, err := s.ready()
	if err != nil {
		return domain.MutationResult{}, err
	}
	if err := requireNonBlank("index name", indexName); err != nil {
		return domain.MutationResult{}, err
	}

	script, err := patch.Build(spec)
	if err != nil {
		return domain.MutationResult{}, err
	}

	q, err := filter.Build(f)
	if errors.Is(err, filter.ErrEmpty) {
		logger.FromContext(ctx).Debug("update skipped: no filter", zap.String("index", indexName))
		return domain.NoFilter(), nil
	}
	if err != nil {
		return domain.MutationResult{}, err
	}

	res, err := c.store.UpdateByQuery(ctx, indexName, q, script)
	if errors.Is(err, db.ErrTooManyMatches) {
		return domain.MutationResult{}, domain.InvalidInputf("filter is too broad: %v", err)
	}
	if err != nil {
		return domain.MutationResult{}, domain.StoreError("update by query", err)
	}

	out := mutationResult(res)
	logger.FromContext(ctx).Debug("documents updated",
		zap.String("index", indexName), zap.Stringer("query", q),
		zap.String("outcome", out.Kind.String()), zap.Int("count", out.Count))
	return out, nil
}

// DeleteByFilter removes every document matching f. An empty filter deletes
// nothing and yields domain.NoFilter without contacting the store.
func (s *Service) DeleteByFilter(ctx context.Context, f filter.Filter, indexName string) (domain.MutationResult, error) {
	c, err := s.ready()
	if err != nil {
		return domain.MutationResult{}, err
	}
	if err := requireNonBlank("index name", indexName); err != nil {
		return domain.MutationResult{}, err
	}

	q, err := filter.Build(f)
	if errors.Is(err, filter.ErrEmpty) {
		logger.FromContext(ctx).Debug("delete skipped: no filter", zap.String("index", indexName))
		return domain.NoFilter(), nil
	}
	if err != nil {
		return domain.MutationResult{}, err
	}

	res, err := c.store.DeleteByQuery(ctx, indexName, q)
	if err != nil {
		return domain.MutationResult{}, domain.StoreError("delete by query", err)
	}

	out := mutationResult(res)
	logger.FromContext(ctx).Debug("documents deleted",
		zap.String("index", indexName), zap.Stringer("query", q),
		zap.String("outcome", out.Kind.String()), zap.Int("count", out.Count))
	return out, nil
}

func (s *Service) ready() (*conn, error) {
	c := s.conn.Load()
	if c == nil {
		return nil, domain.ErrNotReady
	}
	return c, nil
}

func (s *Service) secret(ctx context.Context, key string) (string, error) {
	v, _, err := s.secrets.Lookup(ctx, key)
	if err != nil {
		return "", fmt.Errorf("%w: resolve %s: %w", domain.ErrInitialization, key, err)
	}
	return strings.TrimSpace(v), nil
}

func mutationResult(res *db.MutationResponse) domain.MutationResult {
	if res == nil || !res.Counted {
		return domain.UnknownCount()
	}
	return domain.Counted(res.Count)
}

func encodeDocument(doc any) ([]byte, error) {
	switch v := doc.(type) {
	case nil:
		return nil, domain.InvalidInputf("document is required")
	case json.RawMessage:
		if len(v) == 0 {
			return nil, domain.InvalidInputf("document is required")
		}
		return v, nil
	case []byte:
		if len(v) == 0 {
			return nil, domain.InvalidInputf("document is required")
		}
		return v, nil
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, domain.InvalidInputf("encode document: %v", err)
	}
	return data, nil
}

func requireNonBlank(what, v string) error {
	if strings.TrimSpace(v) == "" {
		return domain.InvalidInputf("%s is required", what)
	}
	return nil
}
