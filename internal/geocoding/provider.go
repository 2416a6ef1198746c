package geocoding

import (
	"context"
	"net/http"
)

// FailureKind tags the client-level failure category of an Outcome.
type FailureKind int

const (
	// FailureNone means the provider answered, possibly with zero candidates.
	FailureNone FailureKind = iota
	// FailureTransport means the request could not be completed (connection
	// failure or timeout) after retries were exhausted.
	FailureTransport
	// FailureProvider means the provider kept returning a non-success HTTP
	// status after retries were exhausted.
	FailureProvider
	// FailureParse means the provider payload could not be decoded.
	FailureParse
)

// Outcome is the result of one geocode lookup. Every failure mode is folded
// into an unmatched Outcome; a lookup never surfaces an error that could
// abort the batch it belongs to.
type Outcome struct {
	Matched          bool
	FormattedAddress string
	Latitude         float64
	Longitude        float64
	CandidateCount   int
	Status           string // raw provider status or failure category
	Failure          FailureKind
}

// Provider is an interface that defines a method for resolving an address.
// Resolve takes a context and an address string as input and returns the
// outcome of the lookup, which always carries either the first candidate or
// an explanatory status.
type Provider interface {
	Resolve(ctx context.Context, address string) Outcome
}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
