package errors

import (
	"fmt"
	"strings"
)

// MultipleErrors collects the errors of a run that keeps going after the
// first failure, such as extraction across packages or resolution of every
// group in a scope. It unwraps to all of its members.
type MultipleErrors struct {
	Errors []MeldError
}

// NewMultipleErrors creates an empty collection
func NewMultipleErrors() *MultipleErrors {
	return &MultipleErrors{}
}

// CollectErrors creates a collection holding errs
func CollectErrors(errs ...MeldError) *MultipleErrors {
	return &MultipleErrors{Errors: errs}
}

func (e *MultipleErrors) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "multiple errors (%d total):", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&b, "\n  %d. %s", i+1, err)
	}
	return b.String()
}

// Unwrap exposes every member to errors.Is and errors.As
func (e *MultipleErrors) Unwrap() []error {
	out := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		out[i] = err
	}
	return out
}

func (e *MultipleErrors) Add(err MeldError) {
	e.Errors = append(e.Errors, err)
}

func (e *MultipleErrors) IsEmpty() bool { return len(e.Errors) == 0 }
func (e *MultipleErrors) Count() int    { return len(e.Errors) }

// GetByCode returns the members with code
func (e *MultipleErrors) GetByCode(code ErrorCode) []MeldError {
	var out []MeldError
	for _, err := range e.Errors {
		if err.ErrorCode() == code {
			out = append(out, err)
		}
	}
	return out
}

// HasCode reports whether any member has code
func (e *MultipleErrors) HasCode(code ErrorCode) bool {
	return len(e.GetByCode(code)) > 0
}

// ErrorOrNil returns nil for an empty collection, the only error of a
// single-entry collection, or the collection itself
func (e *MultipleErrors) ErrorOrNil() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	if len(e.Errors) == 1 {
		return e.Errors[0]
	}
	return e
}

// AddToMultiple adds err to *multiple, allocating the collection on first use
func AddToMultiple(multiple **MultipleErrors, err MeldError) {
	if *multiple == nil {
		*multiple = NewMultipleErrors()
	}
	(*multiple).Add(err)
}

// AppendError adds err to *multiple. Nested collections are flattened and
// foreign errors are wrapped.
func AppendError(multiple **MultipleErrors, err error) {
	if err == nil {
		return
	}
	if inner, ok := err.(*MultipleErrors); ok {
		for _, e := range inner.Errors {
			AddToMultiple(multiple, e)
		}
		return
	}
	AddToMultiple(multiple, AsMeldError(err))
}

// AsMeldError returns err as a MeldError, wrapping foreign errors
func AsMeldError(err error) MeldError {
	if err == nil {
		return nil
	}
	if me, ok := err.(MeldError); ok {
		return me
	}
	return Wrap(UnknownErrorCode, err.Error(), err)
}
