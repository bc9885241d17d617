package model

import "errors"

// Error kinds for the compilation run. All three are fatal: the run aborts on
// first occurrence, with station and lever/token identity in the wrap chain.
var (
	// ErrMalformedExpression is returned for structural violations in a lock
	// expression: unterminated or mismatched brackets, a dangling timer
	// suffix, or an invalid reverse-group arity.
	ErrMalformedExpression = errors.New("malformed lock expression")

	// ErrUnresolvedReference is returned when the resolver finds zero matches
	// for a token outside the documented exception cases.
	ErrUnresolvedReference = errors.New("unresolved object reference")

	// ErrMissingUpstreamData is returned when a referenced route, station or
	// object is absent from the registry.
	ErrMissingUpstreamData = errors.New("missing upstream data")
)
