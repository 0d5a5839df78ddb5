package db

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total int
	Hits  []Hit
}

// Hit is a single document returned by a search.
type Hit struct {
	ID     string
	Source []byte
}

// MutationResponse is the outcome of an update- or delete-by-query call.
// Counted is false when the store did not report how many documents it touched.
type MutationResponse struct {
	Count   int
	Counted bool
}
