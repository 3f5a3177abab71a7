package store

import "errors"

// ErrStaleReservation is wrapped by WriteFailedError when a reservation was
// issued before a cleanup reset the article's sequence range.
var ErrStaleReservation = errors.New("reservation invalidated by cleanup")

// StorageUnavailableError reports that a container could not be created or
// accessed, or that the article id was rejected.
type StorageUnavailableError struct {
	Message string
	Err     error
}

func (e *StorageUnavailableError) Error() string {
	return joinMessage(e.Message, e.Err)
}

func (e *StorageUnavailableError) Unwrap() error {
	return e.Err
}

// AllocationConflictError reports that a sequence number would have been used
// twice. The allocator makes this unreachable for reservations it issued; it
// surfaces only when a caller writes a reservation that is not pending.
type AllocationConflictError struct {
	Message string
}

func (e *AllocationConflictError) Error() string {
	return e.Message
}

// WriteFailedError reports that persisting a comment failed. The sequence
// number of the failed write stays consumed.
type WriteFailedError struct {
	Message string
	Err     error
}

func (e *WriteFailedError) Error() string {
	return joinMessage(e.Message, e.Err)
}

func (e *WriteFailedError) Unwrap() error {
	return e.Err
}

// NotFoundError reports a read of a comment that is not stored.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func joinMessage(msg string, err error) string {
	if err == nil {
		return msg
	}
	return msg + ": " + err.Error()
}
