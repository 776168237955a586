package attackkb

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common knowledge-base error conditions.
// These errors can be used with errors.Is() for error checking.
var (
	// ErrNotFound indicates an identifier or alias did not resolve to any
	// object in the requested domain and version.
	ErrNotFound = errors.New("object not found")

	// ErrTypeMismatch indicates an identifier resolved, but to an object of a
	// different STIX type than the caller expected.
	ErrTypeMismatch = errors.New("object type mismatch")

	// ErrMultipleMatches indicates an alias remained ambiguous after revoked
	// and deprecated objects were filtered out. The caller must disambiguate;
	// the core never silently picks one candidate.
	ErrMultipleMatches = errors.New("multiple objects match")

	// ErrDataFormat indicates a malformed STIX document at load time.
	ErrDataFormat = errors.New("malformed STIX data")

	// ErrUnknownDomain indicates a domain name outside enterprise, mobile,
	// and ics, or a domain that was not loaded into the current snapshot.
	ErrUnknownDomain = errors.New("unknown domain")

	// ErrInvalidLayer indicates layer synthesis was asked to run on an empty
	// technique set, or on technique IDs that do not resolve in the declared
	// domain and version.
	ErrInvalidLayer = errors.New("invalid layer")
)

// Error kinds categorize errors by their type.
const (
	// KindNotFound represents errors where an object was not found.
	KindNotFound = "not_found"

	// KindTypeMismatch represents errors where an object resolved to an
	// unexpected STIX type.
	KindTypeMismatch = "type_mismatch"

	// KindMultipleMatches represents ambiguous alias resolutions.
	KindMultipleMatches = "multiple_matches"

	// KindDataFormat represents malformed input documents at load time.
	KindDataFormat = "data_format"

	// KindUnknownDomain represents unsupported or unloaded domain names.
	KindUnknownDomain = "unknown_domain"

	// KindInvalidLayer represents invalid layer synthesis input.
	KindInvalidLayer = "invalid_layer"
)

// Error is a structured error type that wraps underlying errors with the
// operation that failed and the category of error.
//
// Error implements the error interface and supports error unwrapping, making
// it compatible with errors.Is() and errors.As().
//
// Example usage:
//
//	err := &attackkb.Error{
//		Op:   "dataset.GetByAttackID",
//		Kind: attackkb.KindNotFound,
//		Err:  attackkb.ErrNotFound,
//	}
type Error struct {
	// Op is the operation that failed (e.g., "dataset.GetByStixID",
	// "navlayer.GenerateLayer").
	Op string

	// Kind categorizes the error (e.g., KindNotFound, KindUnknownDomain).
	Kind string

	// Err is the underlying error that caused this error.
	Err error

	// Context provides additional context about the error (optional).
	// This typically includes the offending identifier or alias and the
	// domain/version scope, so the caller can retry with corrected input.
	Context map[string]any
}

// Error implements the error interface, returning a formatted error message
// that includes the operation, kind, and underlying error.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("attackkb: %s: %s", e.Op, e.Kind)
	}

	if len(e.Context) > 0 {
		return fmt.Sprintf("attackkb: %s (%s): %v [context: %+v]", e.Op, e.Kind, e.Err, e.Context)
	}

	return fmt.Sprintf("attackkb: %s (%s): %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error, allowing errors.Is() and errors.As()
// to work correctly with wrapped errors.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements error matching for Error, allowing comparison based on the
// underlying error or on another Error's Op/Kind.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}

	if t, ok := target.(*Error); ok {
		if t.Kind != "" && e.Kind == t.Kind {
			if t.Op == "" || e.Op == t.Op {
				return true
			}
		}
	}

	return errors.Is(e.Err, target)
}

// WithContext returns a copy of the error with the provided context merged in.
func (e *Error) WithContext(ctx map[string]any) *Error {
	newErr := *e
	if newErr.Context == nil {
		newErr.Context = make(map[string]any, len(ctx))
	}
	for k, v := range ctx {
		newErr.Context[k] = v
	}
	return &newErr
}

// E constructs an *Error for the given operation and kind, wrapping the
// matching sentinel so errors.Is(err, ErrNotFound) and friends work.
func E(op, kind string, ctx map[string]any) *Error {
	return &Error{Op: op, Kind: kind, Err: sentinelFor(kind), Context: ctx}
}

func sentinelFor(kind string) error {
	switch kind {
	case KindNotFound:
		return ErrNotFound
	case KindTypeMismatch:
		return ErrTypeMismatch
	case KindMultipleMatches:
		return ErrMultipleMatches
	case KindDataFormat:
		return ErrDataFormat
	case KindUnknownDomain:
		return ErrUnknownDomain
	case KindInvalidLayer:
		return ErrInvalidLayer
	default:
		return nil
	}
}

// Candidate is one possible resolution of an ambiguous alias.
type Candidate struct {
	StixID   string `json:"stix_id"`
	AttackID string `json:"attack_id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
}

// MultipleMatchesError reports an alias that still resolves to more than one
// non-revoked object. It carries the full candidate list so the caller can
// disambiguate and retry; the core never picks a winner on its own.
type MultipleMatchesError struct {
	// Alias is the alias or name that was being resolved.
	Alias string

	// Domain is the domain the lookup was scoped to.
	Domain string

	// Candidates lists every surviving match, ordered by ATT&CK ID.
	Candidates []Candidate
}

// Error implements the error interface.
func (e *MultipleMatchesError) Error() string {
	ids := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		ids[i] = c.AttackID
	}
	return fmt.Sprintf("attackkb: alias %q is ambiguous in domain %s: candidates [%s]",
		e.Alias, e.Domain, strings.Join(ids, ", "))
}

// Unwrap makes errors.Is(err, ErrMultipleMatches) work.
func (e *MultipleMatchesError) Unwrap() error {
	return ErrMultipleMatches
}
