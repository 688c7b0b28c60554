package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrEntryNotFound          = errors.New("entry not found")
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
)

// PersistenceError reports a failed read or write of the backing store. It
// matches ErrPersistenceUnavailable and unwraps to the storage error.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrPersistenceUnavailable, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistenceUnavailable
}
