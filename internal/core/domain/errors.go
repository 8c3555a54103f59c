package domain

import "fmt"

// NotFoundError indicates a referenced job or asset record does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// RetrievalError indicates an asset could not be fetched to local storage.
type RetrievalError struct {
	AssetID string
	Err     error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieving asset %s: %v", e.AssetID, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// PersistError indicates the local manifest write failed. It aborts the
// job's recording step: the manifest is the audit record.
type PersistError struct {
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persisting manifest %s: %v", e.Path, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// StoreError indicates the record store was unreachable or rejected an
// operation. A StoreError from the due-job query is batch-fatal.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("record store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
