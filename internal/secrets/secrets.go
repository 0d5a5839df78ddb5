// Package secrets resolves named secrets such as store endpoints and
// credentials from the environment, mounted secret files or a static map.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Source looks up a secret by key. ok is false when the key is not set;
// err is reserved for lookups that could not be performed.
type Source interface {
	Lookup(ctx context.Context, key string) (value string, ok bool, err error)
}

// Env reads secrets from environment variables.
type Env struct{}

// Lookup implements Source.
func (Env) Lookup(_ context.Context, key string) (string, bool, error) {
	v, ok := os.LookupEnv(key)
	return v, ok, nil
}

// Dir reads secrets from one file per key inside a directory, the layout used
// by Docker and Kubernetes secret mounts. Trailing newlines are trimmed.
type Dir struct {
	Path string
}

// Lookup implements Source.
func (d Dir) Lookup(_ context.Context, key string) (string, bool, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", false, fmt.Errorf("invalid secret key %q", key)
	}
	data, err := os.ReadFile(filepath.Join(d.Path, key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read secret %s: %w", key, err)
	}
	return strings.TrimRight(string(data), "\r\n"), true, nil
}

// Static serves secrets from a fixed map.
type Static map[string]string

// Lookup implements Source.
func (s Static) Lookup(_ context.Context, key string) (string, bool, error) {
	v, ok := s[key]
	return v, ok, nil
}

// Cached memoises successful resolutions of an underlying Source for the
// lifetime of the process. Misses and errors are not cached.
type Cached struct {
	src Source
	mu  sync.RWMutex
	hit map[string]string
}

// NewCached wraps src.
func NewCached(src Source) *Cached {
	return &Cached{src: src, hit: make(map[string]string)}
}

// Lookup implements Source.
func (c *Cached) Lookup(ctx context.Context, key string) (string, bool, error) {
	c.mu.RLock()
	v, ok := c.hit[key]
	c.mu.RUnlock()
	if ok {
		return v, true, nil
	}

	v, ok, err := c.src.Lookup(ctx, key)
	if err != nil || !ok {
		return v, ok, err
	}

	c.mu.Lock()
	c.hit[key] = v
	c.mu.Unlock()
	return v, true, nil
}

// New builds the Source named by provider ("env" or "file"). dir is used by
// the file provider.
func New(provider, dir string) (Source, error) {
	switch provider {
	case "", "env":
		return NewCached(Env{}), nil
	case "file":
		if dir == "" {
			return nil, fmt.Errorf("file secrets provider requires a directory")
		}
		return NewCached(Dir{Path: dir}), nil
	default:
		return nil, fmt.Errorf("unknown secrets provider %q", provider)
	}
}
