package ledger

import "errors"

// Sentinel errors for the caller-facing taxonomy. A lookup that fails because
// the id does not exist and one that fails because the row belongs to another
// user both surface as ErrNotFound, so ownership cannot be probed.
var (
	ErrNotFound      = errors.New("not found")
	ErrCategoryInUse = errors.New("category is referenced by transactions")
)

// ValidationError reports malformed input. It is always raised before any
// mutation is attempted, so no rollback is ever needed for it.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func invalid(reason string) error { return &ValidationError{Reason: reason} }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StorageError wraps a failure of the transactional backend. The wrapped
// detail is for operator logs only; callers get a generic failure and may
// retry, since a failed write never commits a partial mutation.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string { return "storage failure: " + e.Err.Error() }

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(err error) error { return &StorageError{Err: err} }

// IsStorage reports whether err is a StorageError.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
