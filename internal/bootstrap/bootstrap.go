// Package bootstrap wires the document access layer from configuration. It is
// shared by the API server and the admin CLI.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ordex/internal/config"
	"github.com/kailas-cloud/ordex/internal/db"
	dbElastic "github.com/kailas-cloud/ordex/internal/db/elastic"
	dbRedis "github.com/kailas-cloud/ordex/internal/db/redis"
	"github.com/kailas-cloud/ordex/internal/metrics"
	"github.com/kailas-cloud/ordex/internal/repository/document"
	"github.com/kailas-cloud/ordex/internal/repository/schema"
	"github.com/kailas-cloud/ordex/internal/secrets"
)

// Dialer returns the instrumented dialer of the configured store driver.
func Dialer(cfg config.StoreConfig) (db.Dialer, error) {
	var dial db.Dialer
	switch cfg.Driver {
	case "elastic":
		dial = dbElastic.Dialer(nil)
	case "redis":
		dial = dbRedis.Dialer(cfg.KeyPrefix)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
	return metrics.InstrumentDialer(dial, cfg.Driver), nil
}

// NewDocuments builds an uninitialized document service from cfg.
func NewDocuments(cfg config.Config, log *zap.Logger) (*document.Service, error) {
	src, err := secrets.New(cfg.Secrets.Provider, cfg.Secrets.Dir)
	if err != nil {
		return nil, fmt.Errorf("secret source: %w", err)
	}
	dial, err := Dialer(cfg.Store)
	if err != nil {
		return nil, err
	}
	return document.New(document.Config{
		EndpointKey:    cfg.Store.EndpointKey,
		CredentialKey:  cfg.Store.CredentialKey,
		AllowAnonymous: cfg.Store.AllowAnonymous,
	}, src, dial, schema.FromConfig(cfg.Orders.MappingsDir), log), nil
}

// OpenDocuments initializes the service and waits until the store answers.
// On error nothing is left open.
func OpenDocuments(ctx context.Context, cfg config.Config, log *zap.Logger) (*document.Service, error) {
	docs, err := NewDocuments(cfg, log)
	if err != nil {
		return nil, err
	}
	if err := docs.Init(ctx); err != nil {
		return nil, err
	}

	store, err := docs.Store()
	if err != nil {
		return nil, err
	}
	timeout := time.Duration(cfg.Store.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(ctx, timeout); err != nil {
		docs.Close()
		return nil, fmt.Errorf("store not ready: %w", err)
	}
	return docs, nil
}
