package db

import (
	"errors"
	"strings"
)

// IndexDefinition describes an index to create: its name and the mapping
// document (field types) it is created with.
type IndexDefinition struct {
	Name   string
	Schema map[string]any
}

// Validate checks that the index definition is well-formed.
func (idx *IndexDefinition) Validate() error {
	if strings.TrimSpace(idx.Name) == "" {
		return errors.New("index name is required")
	}
	if !IsValidIdentifier(idx.Name) {
		return errors.New("index name contains invalid characters")
	}
	if idx.Schema == nil {
		return errors.New("index schema is required")
	}
	return nil
}

// Properties returns the field definitions of the schema: the
// "mappings.properties" object, or a top-level "properties" object.
func (idx *IndexDefinition) Properties() map[string]any {
	if m, ok := idx.Schema["mappings"].(map[string]any); ok {
		if p, ok := m["properties"].(map[string]any); ok {
			return p
		}
	}
	if p, ok := idx.Schema["properties"].(map[string]any); ok {
		return p
	}
	return nil
}

// ArrayFields returns the object paths declared as arrays of objects in the
// mapping's "_meta.array_fields" list. Elasticsearch flattens such arrays on
// its own; other stores need to know which paths hold several values.
func (idx *IndexDefinition) ArrayFields() []string {
	m, ok := idx.Schema["mappings"].(map[string]any)
	if !ok {
		m = idx.Schema
	}
	meta, ok := m["_meta"].(map[string]any)
	if !ok {
		return nil
	}
	list, ok := meta["array_fields"].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// IsValidIdentifier returns true if s matches [a-zA-Z0-9_.:-]+.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		isSpecial := r == '_' || r == ':' || r == '-' || r == '.'
		if !isAlpha && !isDigit && !isSpecial {
			return false
		}
	}
	return true
}
