package tipping

import (
	"errors"
	"fmt"
)

var (
	// ErrCancelled marks a signing prompt dismissed by the user. It is
	// informational: the attempt ends in Cancelled, not Failed.
	ErrCancelled = errors.New("transaction signing cancelled")

	// ErrInsufficientBalance marks an amount at or above the available
	// balance, caught before the signer is invoked.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrRecipientUnresolved marks a tipped entity with no linked wallet.
	ErrRecipientUnresolved = errors.New("recipient has no linked wallet")
)

// TransportError wraps a chain RPC or backend HTTP failure with the step it
// interrupted. These are terminal for the attempt and never retried.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
