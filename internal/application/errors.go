package application

import (
	"context"
	"errors"
	"strings"

	"github.com/oksasatya/clientsphere/internal/domain"
	"github.com/oksasatya/clientsphere/pkg/validation"
)

// Kind classifies every failure the directory returns to its callers.
type Kind string

const (
	KindValidation       Kind = "validation_failed"
	KindDuplicateEmail   Kind = "duplicate_email"
	KindNotFound         Kind = "not_found"
	KindStoreUnavailable Kind = "store_unavailable"
	KindUnexpected       Kind = "unexpected"
)

// Error is a classified directory failure.
type Error struct {
	Kind   Kind
	Op     string
	Fields []validation.FieldError
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(string(e.Kind))
	if len(e.Fields) > 0 {
		b.WriteString(" (")
		for i, f := range e.Fields {
			if i > 0 {
				b.WriteString("; ")
			}
			b.WriteString(f.Error())
		}
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of err, or KindUnexpected for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// FieldsOf returns the validation messages carried by err, if any.
func FieldsOf(err error) []validation.FieldError {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}

func validationFailed(op string, fields []validation.FieldError) *Error {
	return &Error{Kind: KindValidation, Op: op, Fields: fields}
}

// classify maps a store error onto the directory taxonomy.
func classify(op string, err error) *Error {
	switch {
	case domain.IsNotFound(err):
		return &Error{Kind: KindNotFound, Op: op, Err: err}
	case domain.IsDuplicateEmail(err):
		return &Error{Kind: KindDuplicateEmail, Op: op, Err: err}
	case domain.IsStoreUnavailable(err), errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindStoreUnavailable, Op: op, Err: err}
	default:
		return &Error{Kind: KindUnexpected, Op: op, Err: err}
	}
}
