package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/ordex/internal/db"
)

// ftFieldType enumerates RediSearch attribute types.
type ftFieldType string

const (
	ftTag     ftFieldType = "TAG"
	ftText    ftFieldType = "TEXT"
	ftNumeric ftFieldType = "NUMERIC"
)

// ftField is one JSONPath attribute of an FT.CREATE SCHEMA clause.
type ftField struct {
	Path     string // dotted document path, e.g. customer.email
	JSONPath string // e.g. $.customer.email, $.items[*].sku
	Alias    string
	Type     ftFieldType
}

// fieldSet maps dotted document paths to their indexed attributes.
type fieldSet map[string]ftField

// CreateIndex creates a RediSearch index over the JSON documents of def.Name.
// The schema's mapping properties decide the attribute types.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	fields, err := indexFields(def)
	if err != nil {
		return err
	}
	args, err := s.buildCreateArgs(def.Name, fields)
	if err != nil {
		return err
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return db.ErrIndexExists
		}
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	s.rememberFields(def.Name, fields)
	return nil
}

// DropIndex removes the RediSearch index of a logical index; documents stay.
func (s *Store) DropIndex(ctx context.Context, name string) error {
	s.schemas.Delete(name)
	cmd := s.b().Arbitrary("FT.DROPINDEX").Args(s.ftIndex(name)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "unknown index name") || isRedisErr(err, "no such index") {
			return db.ErrIndexNotFound
		}
		return &db.Error{Op: db.OpDropIndex, Err: err}
	}
	return nil
}

// IndexExists probes index existence via FT.INFO; "unknown index name" means absent.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(s.ftIndex(name)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "unknown index name") || isRedisErr(err, "no such index") {
			return false, nil
		}
		return false, &db.Error{Op: db.OpIndexExists, Err: err}
	}
	return true, nil
}

func (s *Store) buildCreateArgs(name string, fields []ftField) ([]string, error) {
	if len(fields) == 0 {
		return nil, errors.New("at least one indexable field is required")
	}

	args := []string{
		s.ftIndex(name),
		"ON", "JSON",
		"PREFIX", "1", s.docPrefix(name),
		"SCHEMA",
	}
	for _, f := range fields {
		args = append(args, f.JSONPath, "AS", f.Alias, string(f.Type))
	}
	return args, nil
}

// indexFields derives the attributes of def. Objects listed in the mapping's
// array fields are addressed element-wise.
func indexFields(def *db.IndexDefinition) ([]ftField, error) {
	arrays := make(map[string]bool)
	for _, p := range def.ArrayFields() {
		arrays[p] = true
	}
	return schemaFields(def.Properties(), "", "$", arrays, nil)
}

// schemaFields walks mapping properties depth-first in key order. Object
// fields recurse through their own "properties"; unsupported types are skipped.
func schemaFields(
	props map[string]any, prefix, jsonPrefix string, arrays map[string]bool, out []ftField,
) ([]ftField, error) {
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		spec, ok := props[name].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("mapping for field %q must be an object", name)
		}
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}
		jsonPath := jsonPrefix + "." + name

		if nested, ok := spec["properties"].(map[string]any); ok {
			if arrays[path] {
				jsonPath += "[*]"
			}
			var err error
			out, err = schemaFields(nested, path, jsonPath, arrays, out)
			if err != nil {
				return nil, err
			}
			continue
		}

		typ, _ := spec["type"].(string)
		ft, ok := attributeType(typ)
		if !ok {
			continue
		}
		out = append(out, ftField{Path: path, JSONPath: jsonPath, Alias: fieldAlias(path), Type: ft})
	}
	return out, nil
}

func attributeType(mappingType string) (ftFieldType, bool) {
	switch mappingType {
	case "keyword", "constant_keyword", "boolean", "date", "ip":
		return ftTag, true
	case "text", "match_only_text":
		return ftText, true
	case "long", "integer", "short", "byte", "double", "float",
		"half_float", "scaled_float", "unsigned_long":
		return ftNumeric, true
	default:
		return "", false
	}
}

// fieldAlias maps a dotted path onto a RediSearch attribute name.
func fieldAlias(path string) string {
	return strings.ReplaceAll(path, ".", "_")
}

func (s *Store) rememberFields(index string, fields []ftField) {
	set := make(fieldSet, len(fields))
	for _, f := range fields {
		set[f.Path] = f
	}
	s.schemas.Store(index, set)
}

// fieldsOf returns the indexed attributes of a logical index, reading them
// with FT.INFO when the index was not created through this store.
func (s *Store) fieldsOf(ctx context.Context, index string) (fieldSet, error) {
	if v, ok := s.schemas.Load(index); ok {
		return v.(fieldSet), nil
	}

	cmd := s.b().Arbitrary("FT.INFO").Args(s.ftIndex(index)).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isRedisErr(err, "unknown index name") || isRedisErr(err, "no such index") {
			return nil, &db.Error{Op: db.OpSearch, Err: db.ErrIndexNotFound}
		}
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	var fields []ftField
	for i := 0; i+1 < len(raw); i += 2 {
		if key, _ := raw[i].ToString(); key != "attributes" {
			continue
		}
		attrs, err := raw[i+1].ToArray()
		if err != nil {
			return nil, fmt.Errorf("parse FT.INFO attributes: %w", err)
		}
		for _, a := range attrs {
			if f, ok := parseAttribute(a); ok {
				fields = append(fields, f)
			}
		}
	}
	s.rememberFields(index, fields)
	v, _ := s.schemas.Load(index)
	return v.(fieldSet), nil
}

// parseAttribute reads one FT.INFO attribute: a flat list of option names,
// each followed by its value, mixed with bare flags such as SORTABLE.
func parseAttribute(m rueidis.RedisMessage) (ftField, bool) {
	items, err := m.ToArray()
	if err != nil {
		return ftField{}, false
	}
	var f ftField
	for i := 0; i+1 < len(items); i++ {
		key, err := items[i].ToString()
		if err != nil {
			continue
		}
		val, err := items[i+1].ToString()
		if err != nil {
			continue
		}
		switch key {
		case "identifier":
			f.JSONPath = val
		case "attribute":
			f.Alias = val
		case "type":
			f.Type = ftFieldType(val)
		default:
			continue
		}
		i++
	}
	if !strings.HasPrefix(f.JSONPath, "$.") || f.Alias == "" || f.Type == "" {
		return ftField{}, false
	}
	f.Path = strings.ReplaceAll(strings.TrimPrefix(f.JSONPath, "$."), "[*]", "")
	return f, true
}
