package domain

import "errors"

var (
	// ErrDebtNotFound is returned when a debt id references nothing.
	ErrDebtNotFound = errors.New("debt not found")

	// ErrDebtAlreadySettled is returned for payment attempts against a debt
	// whose balance already reached zero. Paid is terminal.
	ErrDebtAlreadySettled = errors.New("debt already settled")

	// ErrTransactionTimeout is returned when a ledger transaction exceeds its
	// deadline, so callers can tell a hung store from a failed one.
	ErrTransactionTimeout = errors.New("transaction timed out")
)

// ValidationError reports a missing or malformed field in a request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
