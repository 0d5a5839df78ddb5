package ordex

import (
	"github.com/kailas-cloud/ordex/internal/domain"
	domorder "github.com/kailas-cloud/ordex/internal/domain/order"
)

// Filter selects documents by exact field values. Keys are dotted field
// paths; the "id" key selects by document identity. An empty filter matches
// nothing.
type Filter map[string]any

// Update sets fields on matching documents. Nested maps address nested
// fields; nil values are skipped.
type Update map[string]any

// Outcome kinds of a Result.
const (
	OutcomeCounted  = "counted"
	OutcomeNoFilter = "no_filter"
	OutcomeUnknown  = "unknown"
)

// Result reports the outcome of an update or delete.
type Result struct {
	Outcome string // OutcomeCounted, OutcomeNoFilter or OutcomeUnknown
	Count   int    // meaningful only when Outcome is OutcomeCounted
}

// HasCount reports whether Count holds the number of affected documents.
func (r Result) HasCount() bool { return r.Outcome == OutcomeCounted }

func fromMutation(m domain.MutationResult) Result {
	return Result{Outcome: m.Kind.String(), Count: m.Count}
}

// Document is a stored value with its identity.
type Document[T any] struct {
	ID    string
	Value T
}

// Order types re-exported from the domain layer.
type (
	Order       = domorder.Order
	OrderRecord = domorder.Record
	OrderStatus = domorder.Status
	Customer    = domorder.Customer
	OrderItem   = domorder.Item
)

// Order statuses.
const (
	StatusNew       = domorder.StatusNew
	StatusPaid      = domorder.StatusPaid
	StatusShipped   = domorder.StatusShipped
	StatusDelivered = domorder.StatusDelivered
	StatusCancelled = domorder.StatusCancelled
)
