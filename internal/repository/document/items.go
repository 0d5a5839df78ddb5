package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/ordex/internal/db"
	"github.com/kailas-cloud/ordex/internal/domain"
	"github.com/kailas-cloud/ordex/internal/domain/query"
)

// DefaultMaxResults caps GetAll when the caller passes no positive limit.
const DefaultMaxResults = 1000

// Decoder turns a stored document source into a typed value.
type Decoder[T any] func(src []byte) (T, error)

// JSONDecoder decodes sources with encoding/json.
func JSONDecoder[T any]() Decoder[T] {
	return func(src []byte) (T, error) {
		var v T
		err := json.Unmarshal(src, &v)
		return v, err
	}
}

// Item is a decoded document paired with its store identity.
type Item[T any] struct {
	ID    string
	Value T
}

// GetAll returns up to maxResults documents of the index. The limit is a hard
// cap: there is no cursor for the remainder.
func GetAll[T any](
	ctx context.Context, s *Service, indexName string, decode Decoder[T], maxResults int,
) ([]Item[T], error) {
	c, err := s.ready()
	if err != nil {
		return nil, err
	}
	if err := requireNonBlank("index name", indexName); err != nil {
		return nil, err
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	res, err := c.store.Search(ctx, indexName, query.MatchAll(), maxResults)
	if err != nil {
		return nil, domain.StoreError("search", err)
	}

	items := make([]Item[T], 0, min(len(res.Hits), maxResults))
	for _, h := range res.Hits {
		if len(items) == maxResults {
			break
		}
		v, err := decode(h.Source)
		if err != nil {
			return nil, fmt.Errorf("decode document %s: %w", h.ID, err)
		}
		items = append(items, Item[T]{ID: h.ID, Value: v})
	}
	return items, nil
}

// GetByID returns the document with the given identity, or (nil, nil) when the
// store has no such document.
func GetByID[T any](
	ctx context.Context, s *Service, id, indexName string, decode Decoder[T],
) (*Item[T], error) {
	c, err := s.ready()
	if err != nil {
		return nil, err
	}
	if err := requireNonBlank("id", id); err != nil {
		return nil, err
	}
	if err := requireNonBlank("index name", indexName); err != nil {
		return nil, err
	}

	src, err := c.store.Get(ctx, indexName, id)
	if err != nil {
		if errors.Is(err, db.ErrDocumentNotFound) {
			return nil, nil
		}
		return nil, domain.StoreError("get", err)
	}

	v, err := decode(src)
	if err != nil {
		return nil, fmt.Errorf("decode document %s: %w", id, err)
	}
	return &Item[T]{ID: id, Value: v}, nil
}
