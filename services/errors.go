package services

import "errors"

// ValidationError marks operator input rejected before any persistence attempt.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidation reports whether err is a pre-persistence validation failure.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// ErrDebitNotDeletable guards the ledger invariant: debits always correspond
// to a currently-completed order, so they are only removed through status
// transitions, never deleted directly.
var ErrDebitNotDeletable = errors.New("debit transactions can only be removed by order status transitions")
