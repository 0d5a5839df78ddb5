package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/kailas-cloud/ordex/internal/db"
)

type indexResponse struct {
	ID     string `json:"_id"`
	Result string `json:"result"`
}

type getResponse struct {
	ID     string          `json:"_id"`
	Found  bool            `json:"found"`
	Source json.RawMessage `json:"_source"`
}

// IndexDocument stores doc and returns the identity the cluster assigned.
func (s *Store) IndexDocument(ctx context.Context, index string, doc []byte) (string, error) {
	res, err := s.es.Index(index, bytes.NewReader(doc), s.es.Index.WithContext(ctx))
	if err != nil {
		return "", &db.Error{Op: db.OpIndexDocument, Err: err}
	}
	defer closeBody(res)

	if res.IsError() {
		return "", responseError(db.OpIndexDocument, res)
	}

	var out indexResponse
	if err := decodeBody(db.OpIndexDocument, res, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// Get fetches a document by identity. Both a 404 status and a found=false
// body are reported as db.ErrDocumentNotFound; a missing index is an error.
func (s *Store) Get(ctx context.Context, index, id string) ([]byte, error) {
	res, err := s.es.Get(index, id, s.es.Get.WithContext(ctx))
	if err != nil {
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	defer closeBody(res)

	if res.StatusCode == http.StatusNotFound {
		if err := responseError(db.OpGet, res); isErrorType(err, "index_not_found_exception") {
			return nil, err
		}
		return nil, db.ErrDocumentNotFound
	}
	if res.IsError() {
		return nil, responseError(db.OpGet, res)
	}

	var out getResponse
	if err := decodeBody(db.OpGet, res, &out); err != nil {
		return nil, err
	}
	if !out.Found {
		return nil, db.ErrDocumentNotFound
	}
	return out.Source, nil
}
