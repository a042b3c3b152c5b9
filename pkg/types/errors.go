package types

import "errors"

// Protocol error taxonomy. Every failure of a protocol call wraps exactly
// one of these sentinels so callers can branch with errors.Is and the
// dispatcher can map the failure to a status code.
var (
	// ErrForbidden: the caller does not hold the origin role the header
	// requires for this method.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound: the resource, or a chunk it references, does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrMethodNotAllowed: the method bit is not set in the governing
	// header.
	ErrMethodNotAllowed = errors.New("method not allowed")

	// ErrImmutable: a mutating method targeted an immutable resource.
	// Maps to 405 like ErrMethodNotAllowed; kept distinct so callers can
	// tell the two conditions apart.
	ErrImmutable = errors.New("resource is immutable")

	// ErrRangeNotSatisfiable: a chunk index beyond the append bound, or a
	// read range outside the resource's chunk list.
	ErrRangeNotSatisfiable = errors.New("range not satisfiable")

	// ErrInsufficientPayment: the supplied value does not cover the data
	// point royalty.
	ErrInsufficientPayment = errors.New("insufficient royalty payment")
)

// StatusFor maps a protocol error to its status code. Unrecognized errors
// have no protocol status and report 0; the dispatcher treats those as
// internal failures and surfaces the error itself.
func StatusFor(err error) StatusCode {
	switch {
	case errors.Is(err, ErrForbidden):
		return StatusForbidden
	case errors.Is(err, ErrNotFound):
		return StatusNotFound
	case errors.Is(err, ErrMethodNotAllowed), errors.Is(err, ErrImmutable):
		return StatusMethodNotAllowed
	case errors.Is(err, ErrRangeNotSatisfiable):
		return StatusRangeNotSatisfiable
	case errors.Is(err, ErrInsufficientPayment):
		return StatusPaymentRequired
	}
	return 0
}
