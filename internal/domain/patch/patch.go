// Package patch flattens nested partial updates into field assignments
// executed by the store as an update script.
package patch

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/ordex/internal/domain"
)

// MaxDepth bounds the nesting of an update payload.
const MaxDepth = 16

// Spec is a possibly nested partial update. Nil values leave the stored field
// untouched; nested maps address dotted paths.
type Spec map[string]any

// Assignment is one flattened leaf of a Spec.
type Assignment struct {
	Path  string
	Value any
}

// Op assigns the parameter Param to the field Path.
type Op struct {
	Path  string
	Param string
}

// String renders the op as "path := param".
func (o Op) String() string { return o.Path + " := " + o.Param }

// Script is an ordered list of assignments with out-of-band parameters.
type Script struct {
	Ops    []Op
	Params map[string]any
}

// Flatten walks spec and returns one assignment per non-nil leaf. Scalars and
// slices are leaves; keys are visited in sorted order at every level.
func Flatten(spec Spec) []Assignment {
	return flatten(map[string]any(spec), "", nil)
}

func flatten(m map[string]any, prefix string, acc []Assignment) []Assignment {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := m[k]
		if v == nil {
			continue
		}
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		switch nested := v.(type) {
		case map[string]any:
			acc = flatten(nested, path, acc)
		case Spec:
			acc = flatten(nested, path, acc)
		default:
			acc = append(acc, Assignment{Path: path, Value: v})
		}
	}
	return acc
}

// ParamName derives the script parameter name of a dotted path.
func ParamName(path string) string {
	return strings.ReplaceAll(path, ".", "_")
}

// Build flattens spec into a Script. It fails with domain.ErrInvalidInput when
// nothing would change, when a path segment is not an identifier, or when two
// paths map to the same parameter name.
func Build(spec Spec) (Script, error) {
	if err := checkDepth(spec, 0); err != nil {
		return Script{}, err
	}

	leaves := Flatten(spec)
	if len(leaves) == 0 {
		return Script{}, domain.InvalidInputf("update has no fields to set")
	}

	s := Script{
		Ops:    make([]Op, 0, len(leaves)),
		Params: make(map[string]any, len(leaves)),
	}
	owners := make(map[string]string, len(leaves))

	for _, a := range leaves {
		if err := validatePath(a.Path); err != nil {
			return Script{}, err
		}
		param := ParamName(a.Path)
		if prev, dup := owners[param]; dup {
			return Script{}, domain.InvalidInputf(
				"update paths %q and %q collide on parameter %q", prev, a.Path, param)
		}
		owners[param] = a.Path
		s.Ops = append(s.Ops, Op{Path: a.Path, Param: param})
		s.Params[param] = a.Value
	}
	return s, nil
}

// IsEmpty reports whether the script has no operations.
func (s Script) IsEmpty() bool { return len(s.Ops) == 0 }

// String renders one "path := param" line per op.
func (s Script) String() string {
	lines := make([]string, len(s.Ops))
	for i, op := range s.Ops {
		lines[i] = op.String()
	}
	return strings.Join(lines, "\n")
}

// Source renders the ops as painless statements reading from params.
func (s Script) Source() string {
	var b strings.Builder
	for i, op := range s.Ops {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "ctx._source.%s = params.%s;", op.Path, op.Param)
	}
	return b.String()
}

func validatePath(path string) error {
	if !domain.IsFieldPath(path) {
		return domain.InvalidInputf("update field %q is not a valid identifier", path)
	}
	return nil
}

func checkDepth(m map[string]any, depth int) error {
	if depth > MaxDepth {
		return domain.InvalidInputf("update nested deeper than %d levels", MaxDepth)
	}
	for _, v := range m {
		switch nested := v.(type) {
		case map[string]any:
			if err := checkDepth(nested, depth+1); err != nil {
				return err
			}
		case Spec:
			if err := checkDepth(nested, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}
