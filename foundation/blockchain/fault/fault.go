// Package fault provides the error kinds produced while validating and
// applying transactions. Every error the blockchain packages return for a
// rejected or failed transaction carries exactly one kind.
package fault

import (
	"errors"
	"fmt"
)

// Kind is the class of a transaction error. A Kind is itself an error so it
// can be used as a sentinel with errors.Is.
type Kind string

// The set of error kinds. Keep in alphabetic order.
const (
	InsufficientBalance   Kind = "insufficient balance"
	InsufficientLiquidity Kind = "insufficient liquidity"
	InsufficientShares    Kind = "insufficient shares"
	InternalFault         Kind = "internal fault"
	InvalidNonce          Kind = "invalid nonce"
	InvalidTransaction    Kind = "invalid transaction"
	NotFound              Kind = "not found"
	StaleNonce            Kind = "stale nonce"
)

// Error implements the error interface.
func (k Kind) Error() string { return string(k) }

// =============================================================================

// Error is a kind with a specific message.
type Error struct {
	Kind Kind
	Msg  string
}

// New constructs an error of the specified kind.
func New(kind Kind, format string, args ...any) error {
	return &Error{
		Kind: kind,
		Msg:  fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Unwrap exposes the kind so errors.Is works against the kind constants.
func (e *Error) Unwrap() error {
	return e.Kind
}

// =============================================================================

// KindOf returns the kind carried by the error. Errors without a kind are
// treated as internal faults.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}

	var k Kind
	if errors.As(err, &k) {
		return k
	}

	return InternalFault
}

// IsInternal reports whether the error must halt block production.
func IsInternal(err error) bool {
	return err != nil && KindOf(err) == InternalFault
}
