package domain

// MutationKind tags the outcome of an update- or delete-by-filter call.
type MutationKind int

const (
	// MutationCounted means the store reported how many documents were affected (zero included).
	MutationCounted MutationKind = iota
	// MutationNoFilter means the caller supplied an empty filter and nothing was sent to the store.
	MutationNoFilter
	// MutationUnknown means the store accepted the request but did not report a count.
	MutationUnknown
)

// SentinelCount is the legacy integer for "no countable result".
const SentinelCount = -1

// String returns the wire name of the kind.
func (k MutationKind) String() string {
	switch k {
	case MutationCounted:
		return "counted"
	case MutationNoFilter:
		return "no_filter"
	case MutationUnknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// MutationResult distinguishes a counted outcome from the two no-count outcomes.
// Hard failures are returned as errors alongside it, never encoded here.
type MutationResult struct {
	Kind  MutationKind
	Count int
}

// Counted returns a result carrying n affected documents.
func Counted(n int) MutationResult { return MutationResult{Kind: MutationCounted, Count: n} }

// NoFilter returns the result for an empty filter.
func NoFilter() MutationResult { return MutationResult{Kind: MutationNoFilter} }

// UnknownCount returns the result for a store response without a count.
func UnknownCount() MutationResult { return MutationResult{Kind: MutationUnknown} }

// HasCount reports whether Count is meaningful.
func (r MutationResult) HasCount() bool { return r.Kind == MutationCounted }

// Sentinel renders the result as a single integer: the count, or SentinelCount.
func (r MutationResult) Sentinel() int {
	if r.HasCount() {
		return r.Count
	}
	return SentinelCount
}
