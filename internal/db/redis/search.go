package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/ordex/internal/db"
	"github.com/kailas-cloud/ordex/internal/domain/patch"
	"github.com/kailas-cloud/ordex/internal/domain/query"
)

// maxMutationKeys bounds how many keys one FT.SEARCH round returns; it matches
// the default RediSearch MAXSEARCHRESULTS. Deletes run rounds until nothing
// matches; updates matching more documents are refused.
const maxMutationKeys = 10000

// updateScript applies (mode, path, value) triples to every key that still
// exists. Paths and values arrive as ARGV, never in the script body.
var updateScript = rueidis.NewLuaScript(`
local updated = 0
for i = 1, #KEYS do
  if redis.call('EXISTS', KEYS[i]) == 1 then
    for j = 1, #ARGV, 3 do
      if ARGV[j] == 'NX' then
        redis.call('JSON.SET', KEYS[i], ARGV[j + 1], ARGV[j + 2], 'NX')
      else
        redis.call('JSON.SET', KEYS[i], ARGV[j + 1], ARGV[j + 2])
      end
    end
    updated = updated + 1
  end
end
return updated
`)

// ftQuery is a translated query: an FT.SEARCH query string plus an optional
// INKEYS restriction for identity clauses.
type ftQuery struct {
	expr   string
	inKeys []string
	hasIDs bool
	// none is set when a term names a field the index does not hold.
	none bool
}

// matchesNothing reports whether the query is known to match no document.
func (fq ftQuery) matchesNothing() bool {
	return fq.none || (fq.hasIDs && len(fq.inKeys) == 0)
}

// Search runs FT.SEARCH and returns the JSON source of every hit.
func (s *Store) Search(ctx context.Context, index string, q query.Query, size int) (*db.SearchResult, error) {
	if size <= 0 {
		return nil, fmt.Errorf("size must be positive")
	}
	fq, err := s.translate(ctx, index, q)
	if err != nil {
		return nil, err
	}
	if fq.matchesNothing() {
		return &db.SearchResult{}, nil
	}

	args := s.searchArgs(index, fq)
	args = append(args, "LIMIT", "0", strconv.Itoa(size), "RETURN", "1", "$", "DIALECT", "2")

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	return s.parseSearchResult(index, raw)
}

// UpdateByQuery resolves the matching keys and runs the update script over them.
// RediSearch indexes JSON writes synchronously, so no refresh step is needed.
func (s *Store) UpdateByQuery(
	ctx context.Context, index string, q query.Query, script patch.Script,
) (*db.MutationResponse, error) {
	if script.IsEmpty() {
		return nil, fmt.Errorf("script has no operations")
	}
	args, err := scriptArgs(script)
	if err != nil {
		return nil, err
	}

	fq, err := s.translate(ctx, index, q)
	if err != nil {
		return nil, err
	}
	if fq.matchesNothing() {
		return &db.MutationResponse{Count: 0, Counted: true}, nil
	}

	keys, total, err := s.matchKeys(ctx, index, fq)
	if err != nil {
		return nil, err
	}
	if total > len(keys) {
		return nil, &db.Error{Op: db.OpUpdateByQuery, Err: fmt.Errorf(
			"%w: %d documents match, at most %d per update", db.ErrTooManyMatches, total, maxMutationKeys)}
	}
	if len(keys) == 0 {
		return &db.MutationResponse{Count: 0, Counted: true}, nil
	}

	n, err := updateScript.Exec(ctx, s.client, keys, args).AsInt64()
	if err != nil {
		return nil, &db.Error{Op: db.OpUpdateByQuery, Err: err}
	}
	return &db.MutationResponse{Count: int(n), Counted: true}, nil
}

// DeleteByQuery removes the matching keys with DEL, one search round at a
// time, until no match is left.
func (s *Store) DeleteByQuery(ctx context.Context, index string, q query.Query) (*db.MutationResponse, error) {
	fq, err := s.translate(ctx, index, q)
	if err != nil {
		return nil, err
	}
	if fq.matchesNothing() {
		return &db.MutationResponse{Count: 0, Counted: true}, nil
	}

	deleted := 0
	for {
		keys, total, err := s.matchKeys(ctx, index, fq)
		if err != nil {
			return nil, err
		}
		if len(keys) == 0 {
			break
		}

		cmd := s.b().Del().Key(keys...).Build()
		n, err := s.do(ctx, cmd).AsInt64()
		if err != nil {
			return nil, &db.Error{Op: db.OpDeleteByQuery, Err: err}
		}
		deleted += int(n)
		if total <= len(keys) || n == 0 {
			break
		}
	}
	return &db.MutationResponse{Count: deleted, Counted: true}, nil
}

// matchKeys returns up to maxMutationKeys keys of documents matching fq via
// FT.SEARCH NOCONTENT, plus the total number of matches.
func (s *Store) matchKeys(ctx context.Context, index string, fq ftQuery) ([]string, int, error) {
	args := s.searchArgs(index, fq)
	args = append(args, "NOCONTENT", "LIMIT", "0", strconv.Itoa(maxMutationKeys), "DIALECT", "2")

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, 0, &db.Error{Op: db.OpSearch, Err: err}
	}
	if len(raw) == 0 {
		return nil, 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, 0, fmt.Errorf("parse total: %w", err)
	}

	keys := make([]string, 0, len(raw)-1)
	for _, m := range raw[1:] {
		key, err := m.ToString()
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	return keys, int(total), nil
}

func (s *Store) searchArgs(index string, fq ftQuery) []string {
	args := []string{s.ftIndex(index), fq.expr}
	if len(fq.inKeys) > 0 {
		args = append(args, "INKEYS", strconv.Itoa(len(fq.inKeys)))
		args = append(args, fq.inKeys...)
	}
	return args
}

// --- Query translation ---

// translate renders q for FT.SEARCH. Terms are rendered by the attribute type
// the field is indexed with; a term on a field the index does not hold
// matches nothing, like an unmapped field in Elasticsearch.
func (s *Store) translate(ctx context.Context, index string, q query.Query) (ftQuery, error) {
	var fq ftQuery
	var parts []string
	var fields fieldSet

	var walk func(n query.Query) error
	walk = func(n query.Query) error {
		switch n.Kind() {
		case query.KindMatchAll:
		case query.KindIDs:
			keys := make([]string, len(n.IDs()))
			for i, id := range n.IDs() {
				keys[i] = s.docKey(index, id)
			}
			if fq.hasIDs {
				fq.inKeys = intersect(fq.inKeys, keys)
			} else {
				fq.inKeys = keys
				fq.hasIDs = true
			}
		case query.KindTerm:
			if fields == nil {
				var err error
				if fields, err = s.fieldsOf(ctx, index); err != nil {
					return err
				}
			}
			f, ok := fields[n.Field()]
			if !ok {
				fq.none = true
				return nil
			}
			p, err := termExpr(f, n.Value())
			if err != nil {
				return err
			}
			parts = append(parts, p)
		case query.KindAnd:
			for _, c := range n.Clauses() {
				if err := walk(c); err != nil {
					return err
				}
			}
		default:
			return fmt.Errorf("unsupported query node %d", n.Kind())
		}
		return nil
	}

	if err := walk(q); err != nil {
		return ftQuery{}, err
	}
	fq.expr = "*"
	if len(parts) > 0 {
		fq.expr = strings.Join(parts, " ")
	}
	return fq, nil
}

// termExpr renders one exact-match clause: a tag set for TAG attributes, a
// closed range for NUMERIC ones and an exact phrase for TEXT ones.
func termExpr(f ftField, value any) (string, error) {
	switch f.Type {
	case ftNumeric:
		n, ok := numericValue(value)
		if !ok {
			return "", fmt.Errorf("field %q is numeric, got %T %v", f.Path, value, value)
		}
		return fmt.Sprintf("@%s:[%s %s]", f.Alias, n, n), nil
	case ftText:
		v, ok := scalarString(value)
		if !ok {
			return "", fmt.Errorf("unsupported term value %T for field %q", value, f.Path)
		}
		return fmt.Sprintf(`@%s:"%s"`, f.Alias, phraseEscaper.Replace(v)), nil
	case ftTag:
		v, ok := scalarString(value)
		if !ok {
			return "", fmt.Errorf("unsupported term value %T for field %q", value, f.Path)
		}
		return fmt.Sprintf("@%s:{%s}", f.Alias, tagEscaper.Replace(v)), nil
	default:
		return "", fmt.Errorf("field %q has unsupported attribute type %s", f.Path, f.Type)
	}
}

// scalarString renders a scalar the way it is stored in a tag or text field.
func scalarString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case json.Number:
		return v.String(), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return "", false
	}
}

// numericValue renders a finite numeric range bound. Numeric strings are
// accepted the way Elasticsearch coerces them on numeric fields.
func numericValue(value any) (string, bool) {
	if _, isBool := value.(bool); isBool {
		return "", false
	}
	v, ok := scalarString(value)
	if !ok {
		return "", false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return "", false
	}
	return v, true
}

func intersect(a, b []string) []string {
	set := make(map[string]struct{}, len(b))
	for _, k := range b {
		set[k] = struct{}{}
	}
	out := a[:0]
	for _, k := range a {
		if _, ok := set[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// scriptArgs renders the script as (mode, JSONPath, JSON value) triples.
// Missing parent objects are created first with NX so nested assignments land.
func scriptArgs(script patch.Script) ([]string, error) {
	seenParents := make(map[string]struct{})
	args := make([]string, 0, len(script.Ops)*3)

	for _, op := range script.Ops {
		segs := strings.Split(op.Path, ".")
		for i := 1; i < len(segs); i++ {
			parent := strings.Join(segs[:i], ".")
			if _, ok := seenParents[parent]; ok {
				continue
			}
			seenParents[parent] = struct{}{}
			args = append(args, "NX", "$."+parent, "{}")
		}

		value, err := json.Marshal(script.Params[op.Param])
		if err != nil {
			return nil, fmt.Errorf("encode param %s: %w", op.Param, err)
		}
		args = append(args, "SET", "$."+op.Path, string(value))
	}
	return args, nil
}

// --- Result parsing ---

func (s *Store) parseSearchResult(index string, raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	hits := make([]db.Hit, 0, (len(raw)-1)/2)
	// 2-stride: [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		source := parseFieldPairs(fields)["$"]
		if source == "" {
			continue
		}
		hits = append(hits, db.Hit{ID: s.docID(index, key), Source: []byte(source)})
	}

	return &db.SearchResult{Total: int(total), Hits: hits}, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

var phraseEscaper = strings.NewReplacer(
	"\\", "\\\\",
	"\"", "\\\"",
)

var tagEscaper = strings.NewReplacer(
	"\\", "\\\\",
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"[", "\\[",
	"]", "\\]",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"|", "\\|",
	"/", "\\/",
	" ", "\\ ",
)
