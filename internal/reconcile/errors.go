package reconcile

import (
	"errors"
	"fmt"
)

// WriteError reports a failed Update. Either or both fields are set; the
// side that is nil succeeded and was not rolled back.
type WriteError struct {
	Persist error
	Publish error
}

func (e *WriteError) Error() string {
	return e.joined().Error()
}

// Unwrap exposes both causes to errors.Is / errors.As.
func (e *WriteError) Unwrap() []error {
	var errs []error
	if e.Persist != nil {
		errs = append(errs, e.Persist)
	}
	if e.Publish != nil {
		errs = append(errs, e.Publish)
	}
	return errs
}

// Partial is true when exactly one of the two writes landed.
func (e *WriteError) Partial() bool {
	return (e.Persist == nil) != (e.Publish == nil)
}

func (e *WriteError) joined() error {
	var errs []error
	if e.Persist != nil {
		errs = append(errs, fmt.Errorf("persist: %w", e.Persist))
	}
	if e.Publish != nil {
		errs = append(errs, fmt.Errorf("publish: %w", e.Publish))
	}
	return errors.Join(errs...)
}
