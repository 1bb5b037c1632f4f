package store

import "github.com/aqua777/go-vectorstores/schema"

// Default maximal-marginal-relevance parameters.
const (
	DefaultMMRFetchK = 20
	DefaultMMRLambda = 0.5
)

// AddOptions holds settings for write operations.
type AddOptions struct {
	// ExtraPayload is merged into each stored point's payload by backends
	// that persist documents as payloads (the Qdrant adapter). Backends
	// without a payload concept ignore it. The content and metadata keys
	// always win over extras.
	ExtraPayload map[string]interface{}
}

// AddOption configures a write operation.
type AddOption func(*AddOptions)

// WithExtraPayload adds top-level payload fields to every point written by
// the call.
func WithExtraPayload(fields map[string]interface{}) AddOption {
	return func(o *AddOptions) {
		o.ExtraPayload = fields
	}
}

// ApplyAddOptions resolves a set of AddOptions. Backends use this to read
// the caller's settings.
func ApplyAddOptions(opts ...AddOption) AddOptions {
	var options AddOptions
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// SearchOptions holds settings for similarity searches.
type SearchOptions struct {
	// Filters restricts results to documents whose metadata matches.
	Filters *schema.MetadataFilters
	// ScoreThreshold drops results scoring below it when positive.
	ScoreThreshold float32
}

// SearchOption configures a similarity search.
type SearchOption func(*SearchOptions)

// WithFilters restricts a search to documents matching the metadata filters.
func WithFilters(filters *schema.MetadataFilters) SearchOption {
	return func(o *SearchOptions) {
		o.Filters = filters
	}
}

// WithScoreThreshold drops results scoring below the threshold.
func WithScoreThreshold(threshold float32) SearchOption {
	return func(o *SearchOptions) {
		o.ScoreThreshold = threshold
	}
}

// ApplySearchOptions resolves a set of SearchOptions.
func ApplySearchOptions(opts ...SearchOption) SearchOptions {
	var options SearchOptions
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// DeleteOptions selects the documents a Delete call removes. Exactly one of
// IDs and Filters must be set.
type DeleteOptions struct {
	IDs     []string
	Filters *schema.MetadataFilters
}

// DeleteOption configures a delete operation.
type DeleteOption func(*DeleteOptions)

// WithDeleteIDs selects documents by ID.
func WithDeleteIDs(ids ...string) DeleteOption {
	return func(o *DeleteOptions) {
		o.IDs = ids
	}
}

// WithDeleteFilters selects documents by metadata filter.
func WithDeleteFilters(filters *schema.MetadataFilters) DeleteOption {
	return func(o *DeleteOptions) {
		o.Filters = filters
	}
}

// ApplyDeleteOptions resolves a set of DeleteOptions.
func ApplyDeleteOptions(opts ...DeleteOption) DeleteOptions {
	var options DeleteOptions
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// Validate checks that exactly one selector is set. It runs before any
// backend call.
func (o DeleteOptions) Validate() error {
	hasIDs := len(o.IDs) > 0
	hasFilters := o.Filters != nil
	switch {
	case hasIDs && hasFilters:
		return ErrBothSelectors
	case !hasIDs && !hasFilters:
		return ErrMissingSelector
	}
	return nil
}

// MMROptions holds settings for maximal-marginal-relevance searches.
type MMROptions struct {
	// K is the number of documents to return.
	K int
	// FetchK is the number of nearest neighbors fetched before re-ranking.
	FetchK int
	// Lambda balances relevance against diversity: 1 is pure relevance,
	// 0 is maximum diversity.
	Lambda float32
	// Filters restricts the fetched candidates.
	Filters *schema.MetadataFilters
}

// MMROption configures a maximal-marginal-relevance search.
type MMROption func(*MMROptions)

// WithTopK sets the number of documents returned.
func WithTopK(k int) MMROption {
	return func(o *MMROptions) {
		o.K = k
	}
}

// WithFetchK sets the number of candidates fetched before re-ranking.
func WithFetchK(fetchK int) MMROption {
	return func(o *MMROptions) {
		o.FetchK = fetchK
	}
}

// WithLambda sets the relevance/diversity balance.
func WithLambda(lambda float32) MMROption {
	return func(o *MMROptions) {
		o.Lambda = lambda
	}
}

// WithMMRFilters restricts the fetched candidates by metadata.
func WithMMRFilters(filters *schema.MetadataFilters) MMROption {
	return func(o *MMROptions) {
		o.Filters = filters
	}
}

// ApplyMMROptions resolves a set of MMROptions, filling in the defaults
// (k 4, fetchK 20, lambda 0.5).
func ApplyMMROptions(opts ...MMROption) MMROptions {
	options := MMROptions{
		K:      DefaultTopK,
		FetchK: DefaultMMRFetchK,
		Lambda: DefaultMMRLambda,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.K <= 0 {
		options.K = DefaultTopK
	}
	if options.FetchK < options.K {
		options.FetchK = options.K
	}
	return options
}
