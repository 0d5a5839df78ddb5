package filter

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/ordex/internal/domain"
	"github.com/kailas-cloud/ordex/internal/domain/query"
)

// IDKey is the reserved filter key selecting a document by identity.
const IDKey = "id"

// MaxConditions is the maximum number of entries accepted in one filter.
const MaxConditions = 32

// ErrEmpty signals that no filter was supplied. Mutating callers must treat it as
// "match nothing", never as match-all.
var ErrEmpty = errors.New("no filter supplied")

// Filter maps field names to scalar values. The IDKey entry matches by identity,
// every other entry is exact-term equality.
type Filter map[string]any

// Build converts f into a query.
//
// A single clause is returned as is; several are wrapped in a conjunction with
// the identity clause first and the remaining fields in key order.
func Build(f Filter) (query.Query, error) {
	if len(f) == 0 {
		return query.Query{}, ErrEmpty
	}
	if len(f) > MaxConditions {
		return query.Query{}, domain.InvalidInputf("too many filter fields (max %d)", MaxConditions)
	}

	clauses := make([]query.Query, 0, len(f))

	if id, ok := f[IDKey].(string); ok {
		if id = strings.TrimSpace(id); id != "" {
			clauses = append(clauses, query.IDs(id))
		}
	}

	keys := make([]string, 0, len(f))
	for k := range f {
		if k == IDKey {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := f[k]
		if v == nil {
			continue
		}
		if !domain.IsFieldPath(k) {
			return query.Query{}, domain.InvalidInputf("filter field %q is not a valid field path", k)
		}
		if !isScalar(v) {
			return query.Query{}, domain.InvalidInputf("filter field %q must be a scalar, got %T", k, v)
		}
		clauses = append(clauses, query.Term(k, v))
	}

	switch len(clauses) {
	case 0:
		return query.Query{}, domain.InvalidInputf("filter has no usable values")
	case 1:
		return clauses[0], nil
	default:
		return query.And(clauses...), nil
	}
}

// Count returns the number of entries that produce a clause.
func (f Filter) Count() int {
	n := 0
	for k, v := range f {
		if v == nil {
			continue
		}
		if k == IDKey {
			if id, ok := v.(string); !ok || strings.TrimSpace(id) == "" {
				continue
			}
		}
		n++
	}
	return n
}

// String returns a stable debug form.
func (f Filter) String() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, f[k])
	}
	return "{" + strings.Join(parts, " ") + "}"
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, bool, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}
