package delivery

import (
	"errors"
	"fmt"
)

// PermanentError marks a delivery failure that retrying cannot fix, such as a
// subscription the push service reports as gone.
type PermanentError struct {
	StatusCode int
	Err        error
}

func (e *PermanentError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("permanent delivery failure (status %d): %v", e.StatusCode, e.Err)
	}
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

func NewGoneError(status int) error {
	return &PermanentError{StatusCode: status, Err: errors.New("subscription is no longer valid")}
}

func IsPermanent(err error) bool {
	var permErr *PermanentError
	return errors.As(err, &permErr)
}

// IsGone reports whether err means the subscription should be dropped.
func IsGone(err error) bool {
	var permErr *PermanentError
	return errors.As(err, &permErr) && (permErr.StatusCode == 404 || permErr.StatusCode == 410)
}
