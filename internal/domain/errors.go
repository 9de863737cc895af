package domain

import "errors"

var (
	// ErrCustomerNotFound is returned when no record matches the id.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrInvalidCustomerID marks an id that cannot exist in the store.
	// It matches ErrCustomerNotFound under errors.Is.
	ErrInvalidCustomerID = invalidIDError{}
	// ErrDuplicateEmail is returned when the normalized email is already taken.
	ErrDuplicateEmail = errors.New("email already exists for another customer")
	// ErrStoreUnavailable is a transient store failure (timeout, lost connection).
	ErrStoreUnavailable = errors.New("customer store unavailable")
)

type invalidIDError struct{}

func (invalidIDError) Error() string { return "invalid customer id format" }

func (invalidIDError) Is(target error) bool {
	return target == ErrCustomerNotFound
}

// IsNotFound reports whether err means the target customer does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCustomerNotFound)
}

// IsDuplicateEmail reports whether err is an email uniqueness conflict.
func IsDuplicateEmail(err error) bool {
	return errors.Is(err, ErrDuplicateEmail)
}

// IsStoreUnavailable reports whether err is a retryable store failure.
func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
