package market

import "errors"

// Error taxonomy for market data requests.
//
// ErrInvalidRequest means the caller violated an adapter's contract (e.g. a
// crypto asset without its provider identifier). Not retriable.
//
// ErrUpstreamUnavailable means the provider call failed or returned unusable
// data for a price request. Price callers see it; history and details
// degrade to empty/"N/A" instead.
//
// ErrUnsupportedAssetClass means an asset record references a class with no
// registered adapter. That is a data integrity problem, not a transient one.
var (
	ErrInvalidRequest        = errors.New("invalid request")
	ErrUpstreamUnavailable   = errors.New("upstream data unavailable")
	ErrUnsupportedAssetClass = errors.New("unsupported asset class")
)
