package elastic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/kailas-cloud/ordex/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Config holds connection parameters for an Elasticsearch store.
type Config struct {
	Addresses []string
	APIKey    string
	// Transport overrides the HTTP transport (tests, custom TLS).
	Transport http.RoundTripper
}

// Store implements db.Store on the Elasticsearch REST API.
type Store struct {
	es *elasticsearch.Client
}

// NewStore creates an Elasticsearch store. Retries are disabled: every store
// error surfaces to the caller after a single attempt.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addresses) == 0 {
		return nil, fmt.Errorf("addresses is required")
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    cfg.Addresses,
		APIKey:       cfg.APIKey,
		Transport:    cfg.Transport,
		DisableRetry: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return &Store{es: es}, nil
}

// Dialer returns a db.Dialer. The endpoint is a comma-separated list of node
// URLs; the credential, when set, is an API key.
func Dialer(transport http.RoundTripper) db.Dialer {
	return func(_ context.Context, p db.ConnParams) (db.Store, error) {
		var addrs []string
		for _, a := range strings.Split(p.Endpoint, ",") {
			if a = strings.TrimSpace(a); a != "" {
				addrs = append(addrs, a)
			}
		}
		return NewStore(Config{Addresses: addrs, APIKey: p.Credential, Transport: transport})
	}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	res, err := s.es.Ping(s.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	defer closeBody(res)
	if res.IsError() {
		return fmt.Errorf("ping: %s", res.Status())
	}
	return nil
}

// Close is a no-op: the HTTP client holds no resources that need releasing.
func (s *Store) Close() {}

// WaitForReady polls Ping until the cluster responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// ResponseError is an error response returned by the cluster.
type ResponseError struct {
	StatusCode int
	Status     string
	Type       string
	Reason     string
}

func (e *ResponseError) Error() string {
	if e.Type == "" {
		return "[" + e.Status + "] " + e.Reason
	}
	return "[" + e.Status + "] " + e.Type + ": " + e.Reason
}

// responseError converts an error response into a *db.Error wrapping a
// *ResponseError with the server's error type and reason.
func responseError(op string, res *esapi.Response) error {
	body, _ := io.ReadAll(res.Body)

	re := &ResponseError{StatusCode: res.StatusCode, Status: res.Status()}
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Error) > 0 {
		var detail struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		}
		if err := json.Unmarshal(envelope.Error, &detail); err == nil {
			re.Type, re.Reason = detail.Type, detail.Reason
		} else {
			// some endpoints report the error as a plain string
			_ = json.Unmarshal(envelope.Error, &re.Reason)
		}
	}
	if re.Type == "" && re.Reason == "" {
		re.Reason = strings.TrimSpace(string(body))
	}
	return &db.Error{Op: op, Err: re}
}

func isErrorType(err error, typ string) bool {
	var re *ResponseError
	return errors.As(err, &re) && re.Type == typ
}

func decodeBody(op string, res *esapi.Response, v any) error {
	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return &db.Error{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func closeBody(res *esapi.Response) {
	if res != nil && res.Body != nil {
		_ = res.Body.Close()
	}
}
