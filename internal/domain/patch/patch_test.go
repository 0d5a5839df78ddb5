package patch

import (
	"errors"
	"reflect"
	"testing"

	"github.com/kailas-cloud/ordex/internal/domain"
)

func TestFlatten_SkipsNullsAtAnyDepth(t *testing.T) {
	got := Flatten(Spec{
		"a": map[string]any{"b": 1, "c": nil},
		"d": 2,
	})
	want := []Assignment{{Path: "a.b", Value: 1}, {Path: "d", Value: 2}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestFlatten_OnlyNestedNulls(t *testing.T) {
	got := Flatten(Spec{"a": map[string]any{"b": nil, "c": map[string]any{"d": nil}}})
	if len(got) != 0 {
		t.Fatalf("expected no assignments, got %v", got)
	}
}

func TestFlatten_SlicesAreLeaves(t *testing.T) {
	items := []any{map[string]any{"sku": "A1"}}
	got := Flatten(Spec{"items": items})
	if len(got) != 1 || got[0].Path != "items" {
		t.Fatalf("got %v", got)
	}
	if !reflect.DeepEqual(got[0].Value, items) {
		t.Errorf("value = %v", got[0].Value)
	}
}

func TestBuild_CustomerEmail(t *testing.T) {
	s, err := Build(Spec{"customer": map[string]any{"email": "x@y.com"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.String() != "customer.email := customer_email" {
		t.Errorf("ops = %q", s.String())
	}
	if !reflect.DeepEqual(s.Params, map[string]any{"customer_email": "x@y.com"}) {
		t.Errorf("params = %v", s.Params)
	}
	if s.Source() != "ctx._source.customer.email = params.customer_email;" {
		t.Errorf("source = %q", s.Source())
	}
}

func TestBuild_StableOrder(t *testing.T) {
	spec := Spec{"z": 1, "a": map[string]any{"y": 2, "b": 3}, "m": "x"}
	want := []Op{
		{Path: "a.b", Param: "a_b"},
		{Path: "a.y", Param: "a_y"},
		{Path: "m", Param: "m"},
		{Path: "z", Param: "z"},
	}
	for range 10 {
		s, err := Build(spec)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(s.Ops, want) {
			t.Fatalf("ops = %v, want %v", s.Ops, want)
		}
	}
}

func TestBuild_EmptyRejected(t *testing.T) {
	for _, spec := range []Spec{nil, {}, {"a": nil}, {"a": map[string]any{"b": nil}}} {
		_, err := Build(spec)
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("spec %v: expected ErrInvalidInput, got %v", spec, err)
		}
	}
}

func TestBuild_ParamCollision(t *testing.T) {
	_, err := Build(Spec{"a_b": 1, "a": map[string]any{"b": 2}})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestBuild_RejectsNonIdentifierSegments(t *testing.T) {
	bad := []Spec{
		{"x; ctx.op = 'delete'": 1},
		{"customer": map[string]any{"e-mail": "x"}},
		{"": 1},
		{"1abc": 1},
	}
	for _, spec := range bad {
		_, err := Build(spec)
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("spec %v: expected ErrInvalidInput, got %v", spec, err)
		}
	}
}

func TestBuild_ValuesNeverInSource(t *testing.T) {
	s, err := Build(Spec{"note": "'; ctx.op = 'delete"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Source() != "ctx._source.note = params.note;" {
		t.Errorf("source = %q", s.Source())
	}
}

func TestBuild_TooDeep(t *testing.T) {
	spec := map[string]any{"leaf": 1}
	for range MaxDepth + 2 {
		spec = map[string]any{"n": spec}
	}
	_, err := Build(Spec(spec))
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
