package redis

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/ordex/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// DefaultKeyPrefix namespaces every key and index created by the store.
const DefaultKeyPrefix = "ordex:"

// Config holds connection parameters for a Redis store.
type Config struct {
	Addrs     []string
	Username  string
	Password  string
	DB        int
	KeyPrefix string
}

// Store implements db.Store via rueidis for Redis Stack / Redis 8+
// (RedisJSON documents indexed by RediSearch).
type Store struct {
	client rueidis.Client
	prefix string

	schemas sync.Map // logical index -> fieldSet
}

// NewStore creates a Redis store via rueidis.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
		AlwaysRESP2:  true, // FT.SEARCH result parsing expects RESP2 array format
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Store{client: client, prefix: prefixOrDefault(cfg.KeyPrefix)}, nil
}

// Dialer returns a db.Dialer that connects to the endpoint in the connection
// parameters. The endpoint is either a redis:// URL or a comma-separated list
// of host:port addresses; the credential, when set, is the password.
func Dialer(keyPrefix string) db.Dialer {
	return func(_ context.Context, p db.ConnParams) (db.Store, error) {
		cfg := Config{KeyPrefix: keyPrefix, Password: p.Credential}
		if strings.HasPrefix(p.Endpoint, "redis://") || strings.HasPrefix(p.Endpoint, "rediss://") {
			opt, err := rueidis.ParseURL(p.Endpoint)
			if err != nil {
				return nil, fmt.Errorf("parse endpoint: %w", err)
			}
			cfg.Addrs = opt.InitAddress
			cfg.Username = opt.Username
			cfg.DB = opt.SelectDB
			if cfg.Password == "" {
				cfg.Password = opt.Password
			}
		} else {
			for _, a := range strings.Split(p.Endpoint, ",") {
				if a = strings.TrimSpace(a); a != "" {
					cfg.Addrs = append(cfg.Addrs, a)
				}
			}
		}
		return NewStore(cfg)
	}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	cmd := s.client.B().Ping().Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady polls Ping until the store responds or timeout expires.
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

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}

// ftIndex is the RediSearch index backing a logical index.
func (s *Store) ftIndex(index string) string {
	return s.prefix + index + ":idx"
}

// docPrefix is the key prefix of documents in a logical index. The hash tag
// keeps one index in one cluster slot so scripts may touch all of its keys.
func (s *Store) docPrefix(index string) string {
	return s.prefix + "{" + index + "}:"
}

func (s *Store) docKey(index, id string) string {
	return s.docPrefix(index) + id
}

func (s *Store) docID(index, key string) string {
	return strings.TrimPrefix(key, s.docPrefix(index))
}

func prefixOrDefault(p string) string {
	if p == "" {
		return DefaultKeyPrefix
	}
	return p
}

// isRedisErr checks if err is a Redis server error containing substr (case-insensitive).
func isRedisErr(err error, substr string) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(re.Error()), strings.ToLower(substr))
}
