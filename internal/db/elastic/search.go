package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/ordex/internal/db"
	"github.com/kailas-cloud/ordex/internal/domain/patch"
	"github.com/kailas-cloud/ordex/internal/domain/query"
)

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string          `json:"_id"`
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// byQueryResponse holds the counters of _update_by_query and _delete_by_query.
// Pointers tell a missing counter apart from zero.
type byQueryResponse struct {
	Updated  *int `json:"updated"`
	Deleted  *int `json:"deleted"`
	Failures []struct {
		Cause struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"cause"`
	} `json:"failures"`
}

// Search runs a query and returns at most size hits.
func (s *Store) Search(ctx context.Context, index string, q query.Query, size int) (*db.SearchResult, error) {
	if size <= 0 {
		return nil, fmt.Errorf("size must be positive")
	}
	body, err := encode(map[string]any{"query": renderQuery(q)})
	if err != nil {
		return nil, err
	}

	res, err := s.es.Search(
		s.es.Search.WithContext(ctx),
		s.es.Search.WithIndex(index),
		s.es.Search.WithBody(body),
		s.es.Search.WithSize(size),
	)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	defer closeBody(res)

	if res.IsError() {
		return nil, responseError(db.OpSearch, res)
	}

	var out searchResponse
	if err := decodeBody(db.OpSearch, res, &out); err != nil {
		return nil, err
	}

	result := &db.SearchResult{Total: out.Hits.Total.Value, Hits: make([]db.Hit, 0, len(out.Hits.Hits))}
	for _, h := range out.Hits.Hits {
		result.Hits = append(result.Hits, db.Hit{ID: h.ID, Source: h.Source})
	}
	return result, nil
}

// UpdateByQuery runs the script as painless over every match with refresh=true.
func (s *Store) UpdateByQuery(
	ctx context.Context, index string, q query.Query, script patch.Script,
) (*db.MutationResponse, error) {
	if script.IsEmpty() {
		return nil, fmt.Errorf("script has no operations")
	}
	body, err := encode(map[string]any{
		"query": renderQuery(q),
		"script": map[string]any{
			"lang":   "painless",
			"source": script.Source(),
			"params": script.Params,
		},
	})
	if err != nil {
		return nil, err
	}

	res, err := s.es.UpdateByQuery([]string{index},
		s.es.UpdateByQuery.WithContext(ctx),
		s.es.UpdateByQuery.WithBody(body),
		s.es.UpdateByQuery.WithRefresh(true),
	)
	if err != nil {
		return nil, &db.Error{Op: db.OpUpdateByQuery, Err: err}
	}
	defer closeBody(res)

	if res.IsError() {
		return nil, responseError(db.OpUpdateByQuery, res)
	}

	var out byQueryResponse
	if err := decodeBody(db.OpUpdateByQuery, res, &out); err != nil {
		return nil, err
	}
	if err := out.failure(db.OpUpdateByQuery); err != nil {
		return nil, err
	}
	return mutation(out.Updated), nil
}

// DeleteByQuery removes every match with refresh=true.
func (s *Store) DeleteByQuery(ctx context.Context, index string, q query.Query) (*db.MutationResponse, error) {
	body, err := encode(map[string]any{"query": renderQuery(q)})
	if err != nil {
		return nil, err
	}

	res, err := s.es.DeleteByQuery([]string{index}, body,
		s.es.DeleteByQuery.WithContext(ctx),
		s.es.DeleteByQuery.WithRefresh(true),
	)
	if err != nil {
		return nil, &db.Error{Op: db.OpDeleteByQuery, Err: err}
	}
	defer closeBody(res)

	if res.IsError() {
		return nil, responseError(db.OpDeleteByQuery, res)
	}

	var out byQueryResponse
	if err := decodeBody(db.OpDeleteByQuery, res, &out); err != nil {
		return nil, err
	}
	if err := out.failure(db.OpDeleteByQuery); err != nil {
		return nil, err
	}
	return mutation(out.Deleted), nil
}

func (r *byQueryResponse) failure(op string) error {
	if len(r.Failures) == 0 {
		return nil
	}
	c := r.Failures[0].Cause
	return &db.Error{Op: op, Err: fmt.Errorf("%d failures, first: %s: %s", len(r.Failures), c.Type, c.Reason)}
}

func mutation(n *int) *db.MutationResponse {
	if n == nil {
		return &db.MutationResponse{}
	}
	return &db.MutationResponse{Count: *n, Counted: true}
}

// renderQuery translates a query into the Elasticsearch query DSL.
func renderQuery(q query.Query) map[string]any {
	switch q.Kind() {
	case query.KindIDs:
		return map[string]any{"ids": map[string]any{"values": q.IDs()}}
	case query.KindTerm:
		return map[string]any{"term": map[string]any{q.Field(): q.Value()}}
	case query.KindAnd:
		must := make([]map[string]any, len(q.Clauses()))
		for i, c := range q.Clauses() {
			must[i] = renderQuery(c)
		}
		return map[string]any{"bool": map[string]any{"must": must}}
	default:
		return map[string]any{"match_all": map[string]any{}}
	}
}

func encode(v any) (*bytes.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return bytes.NewReader(data), nil
}
