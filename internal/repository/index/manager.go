// Package index ensures document indexes exist with the expected mapping.
package index

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/ordex/internal/db"
	"github.com/kailas-cloud/ordex/internal/domain"
)

// store is the consumer interface for index lifecycle (ISP).
type store interface {
	IndexExists(ctx context.Context, name string) (bool, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
}

// Manager creates indexes on demand.
type Manager struct {
	store store
}

// NewManager creates an index manager.
func NewManager(s store) *Manager {
	return &Manager{store: s}
}

// Ensure creates the index from schema unless it already exists. It reports
// whether this call created it. Safe to call on every start.
func (m *Manager) Ensure(ctx context.Context, name string, schema map[string]any) (bool, error) {
	if strings.TrimSpace(name) == "" {
		return false, domain.InvalidInputf("index name is required")
	}

	exists, err := m.store.IndexExists(ctx, name)
	if err != nil {
		return false, fmt.Errorf("check index %s: %w", name, err)
	}
	if exists {
		return false, nil
	}

	def := &db.IndexDefinition{Name: name, Schema: schema}
	if err := def.Validate(); err != nil {
		return false, domain.InvalidInputf("index %s: %v", name, err)
	}

	if err := m.store.CreateIndex(ctx, def); err != nil {
		// lost a race with another creator
		if errors.Is(err, db.ErrIndexExists) {
			return false, nil
		}
		return false, fmt.Errorf("create index %s: %w", name, err)
	}
	return true, nil
}

// Drop removes the index. A missing index is not an error.
func (m *Manager) Drop(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return domain.InvalidInputf("index name is required")
	}
	if err := m.store.DropIndex(ctx, name); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index %s: %w", name, err)
	}
	return nil
}
