package services

import "errors"

// ErrCartEmpty is returned when checkout is entered with no cart and no
// resumable snapshot; the caller redirects to the cart view.
var ErrCartEmpty = errors.New("cart is empty")

// ErrSubmissionFailed wraps any pipeline failure after payment
// validation. The shopper sees a generic retryable message; the cause
// is logged.
var ErrSubmissionFailed = errors.New("order submission failed")

// ValidationError carries field-scoped input errors. Submission is
// blocked while any field error exists.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// AsValidationError unwraps err into a *ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
