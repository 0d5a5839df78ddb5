// Package query holds the storage-agnostic boolean query that drivers translate
// into their own search syntax.
package query

import (
	"fmt"
	"strings"
)

// Kind enumerates query node types.
type Kind int

const (
	// KindMatchAll matches every document of an index.
	KindMatchAll Kind = iota
	// KindIDs matches documents by identity.
	KindIDs
	// KindTerm matches documents whose field equals a value exactly.
	KindTerm
	// KindAnd matches documents satisfying every clause.
	KindAnd
)

// Query is an immutable query node.
type Query struct {
	kind    Kind
	ids     []string
	field   string
	value   any
	clauses []Query
}

// MatchAll returns a query matching every document.
func MatchAll() Query { return Query{kind: KindMatchAll} }

// IDs returns an identity-match query.
func IDs(ids ...string) Query {
	cp := make([]string, len(ids))
	copy(cp, ids)
	return Query{kind: KindIDs, ids: cp}
}

// Term returns an exact-term equality query on field.
func Term(field string, value any) Query {
	return Query{kind: KindTerm, field: field, value: value}
}

// And returns a conjunction of clauses.
func And(clauses ...Query) Query {
	cp := make([]Query, len(clauses))
	copy(cp, clauses)
	return Query{kind: KindAnd, clauses: cp}
}

// Kind returns the node type.
func (q Query) Kind() Kind { return q.kind }

// IDs returns the identities of a KindIDs node.
func (q Query) IDs() []string { return q.ids }

// Field returns the field of a KindTerm node.
func (q Query) Field() string { return q.field }

// Value returns the value of a KindTerm node.
func (q Query) Value() any { return q.value }

// Clauses returns the children of a KindAnd node.
func (q Query) Clauses() []Query { return q.clauses }

// String returns a compact debug form, e.g. and(ids(abc), term(status=paid)).
func (q Query) String() string {
	switch q.kind {
	case KindMatchAll:
		return "match_all"
	case KindIDs:
		return "ids(" + strings.Join(q.ids, ",") + ")"
	case KindTerm:
		return fmt.Sprintf("term(%s=%v)", q.field, q.value)
	case KindAnd:
		parts := make([]string, len(q.clauses))
		for i, c := range q.clauses {
			parts[i] = c.String()
		}
		return "and(" + strings.Join(parts, ", ") + ")"
	default:
		return "invalid"
	}
}
