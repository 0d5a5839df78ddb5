package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/rueidis"

	"github.com/kailas-cloud/ordex/internal/db"
)

// IndexDocument stores doc as a JSON document under a generated identity.
func (s *Store) IndexDocument(ctx context.Context, index string, doc []byte) (string, error) {
	id := uuid.NewString()
	key := s.docKey(index, id)

	cmd := s.b().Arbitrary("JSON.SET").Keys(key).Args("$", string(doc)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return "", &db.Error{Op: db.OpIndexDocument, Err: err}
	}
	return id, nil
}

// Get returns the JSON source of a document.
func (s *Store) Get(ctx context.Context, index, id string) ([]byte, error) {
	key := s.docKey(index, id)

	cmd := s.b().Arbitrary("JSON.GET").Keys(key).Args("$").Build()
	raw, err := s.do(ctx, cmd).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, db.ErrDocumentNotFound
		}
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	if raw == "" {
		return nil, db.ErrDocumentNotFound
	}
	return unwrapRoot(raw)
}

// unwrapRoot strips the array JSON.GET wraps around a "$" result.
func unwrapRoot(raw string) ([]byte, error) {
	var docs []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &docs); err != nil {
		return nil, &db.Error{Op: db.OpGet, Err: fmt.Errorf("decode JSON.GET reply: %w", err)}
	}
	if len(docs) == 0 {
		return nil, db.ErrDocumentNotFound
	}
	return docs[0], nil
}
