package ordex

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver     string // "elastic" or "redis"
	endpoint   string
	credential string
	keyPrefix  string
	transport  http.RoundTripper

	mappingsDir      string
	readinessTimeout time.Duration
	maxResults       int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithElastic connects the client to an Elasticsearch cluster. apiKey may be
// empty for an unauthenticated cluster.
func WithElastic(endpoint, apiKey string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "elastic"
		c.endpoint = endpoint
		c.credential = apiKey
	})
}

// WithRedis connects the client to a Redis instance with the search and JSON
// modules loaded.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.endpoint = addr
		c.credential = password
	})
}

// WithKeyPrefix sets the Redis key prefix. Ignored by Elasticsearch.
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithHTTPTransport sets the round tripper used for Elasticsearch requests.
func WithHTTPTransport(rt http.RoundTripper) Option {
	return optionFunc(func(c *clientConfig) {
		c.transport = rt
	})
}

// WithMappingsDir loads index mappings from dir instead of the ones compiled
// into the package.
func WithMappingsDir(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.mappingsDir = dir
	})
}

// WithReadinessTimeout bounds the wait for the store on New. Default: 10s.
func WithReadinessTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.readinessTimeout = d
	})
}

// WithMaxResults caps list reads. Default: 1000.
func WithMaxResults(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxResults = n
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default).
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
