// Package schema loads index mapping definitions by file name.
package schema

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/ordex/internal/domain"
)

//go:embed mappings/*
var embedded embed.FS

// Schema is a parsed mapping document.
type Schema map[string]any

// Loader reads mapping files from a root filesystem. Files are parsed on
// every call.
type Loader struct {
	root fs.FS
}

// NewLoader returns a loader over root.
func NewLoader(root fs.FS) *Loader {
	return &Loader{root: root}
}

// Embedded returns a loader over the mappings compiled into the binary.
func Embedded() *Loader {
	sub, err := fs.Sub(embedded, "mappings")
	if err != nil {
		panic(fmt.Sprintf("schema: embedded mappings: %v", err))
	}
	return NewLoader(sub)
}

// FromConfig returns a loader over dir, or the embedded mappings when dir
// is empty.
func FromConfig(dir string) *Loader {
	if dir == "" {
		return Embedded()
	}
	return NewLoader(os.DirFS(dir))
}

// Load reads and parses the named mapping. JSON is parsed for .json files,
// YAML for .yaml and .yml.
func (l *Loader) Load(name string) (Schema, error) {
	if strings.TrimSpace(name) == "" {
		return nil, domain.InvalidInputf("schema name is required")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, domain.InvalidInputf("schema name %q must be a plain file name", name)
	}

	data, err := fs.ReadFile(l.root, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.InvalidInputf("schema %q not found", name)
		}
		return nil, fmt.Errorf("read schema %s: %w", name, err)
	}

	var s Schema
	switch ext := strings.ToLower(path.Ext(name)); ext {
	case ".json":
		err = json.Unmarshal(data, &s)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &s)
	default:
		return nil, domain.InvalidInputf("schema %q: unsupported extension %q", name, ext)
	}
	if err != nil {
		return nil, domain.InvalidInputf("schema %q is malformed: %v", name, err)
	}
	if len(s) == 0 {
		return nil, domain.InvalidInputf("schema %q is empty", name)
	}
	return s, nil
}
