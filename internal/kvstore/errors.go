package kvstore

import "fmt"

// StorageError reports a failed persistence write. The caller's in-memory
// collection stays authoritative for the session; the error is surfaced as
// a dismissible warning, never as a fatal failure.
type StorageError struct {
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("store write %s: %v", e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
