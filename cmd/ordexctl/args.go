package main

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/kailas-cloud/ordex/internal/domain"
	"github.com/kailas-cloud/ordex/internal/domain/filter"
	"github.com/kailas-cloud/ordex/internal/domain/patch"
)

// parseWhere turns repeated key=value flags into a filter. Identities are
// always strings, whatever they look like.
func parseWhere(pairs []string) (filter.Filter, error) {
	f := filter.Filter{}
	for _, p := range pairs {
		k, v, err := splitPair(p)
		if err != nil {
			return nil, err
		}
		if _, dup := f[k]; dup {
			return nil, domain.InvalidInputf("filter field %q given twice", k)
		}
		if k == filter.IDKey {
			f[k] = v
			continue
		}
		f[k] = parseValue(v)
	}
	return f, nil
}

// parseSet turns repeated path=value flags into a nested update spec.
// Dotted paths address nested objects: customer.email=x.
func parseSet(pairs []string) (patch.Spec, error) {
	spec := patch.Spec{}
	for _, p := range pairs {
		path, v, err := splitPair(p)
		if err != nil {
			return nil, err
		}
		if err := setPath(spec, strings.Split(path, "."), parseValue(v)); err != nil {
			return nil, err
		}
	}
	return spec, nil
}

func setPath(m map[string]any, segs []string, v any) error {
	head := segs[0]
	if head == "" {
		return domain.InvalidInputf("empty segment in update path")
	}
	if len(segs) == 1 {
		if _, exists := m[head]; exists {
			return domain.InvalidInputf("update path %q given twice", head)
		}
		m[head] = v
		return nil
	}
	child, exists := m[head]
	if !exists {
		next := map[string]any{}
		m[head] = next
		return setPath(next, segs[1:], v)
	}
	next, ok := child.(map[string]any)
	if !ok {
		return domain.InvalidInputf("update path %q is both a value and an object", head)
	}
	return setPath(next, segs[1:], v)
}

func splitPair(s string) (string, string, error) {
	k, v, ok := strings.Cut(s, "=")
	k = strings.TrimSpace(k)
	if !ok || k == "" {
		return "", "", domain.InvalidInputf("expected key=value, got %q", s)
	}
	return k, v, nil
}

// parseValue reads v as a JSON scalar (number, bool, null, quoted string) and
// falls back to the raw text.
func parseValue(v string) any {
	dec := json.NewDecoder(bytes.NewReader([]byte(v)))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil || dec.More() {
		return v
	}
	switch out.(type) {
	case map[string]any, []any:
		return v
	}
	return out
}
