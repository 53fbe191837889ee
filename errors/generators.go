package errors

import "fmt"

// NewResourceNotFoundError returns a new ErrNotFound error with kind
// KindResourceNotFound and the given message.
func NewResourceNotFoundError(message string, details Details) error {
	return Error{
		Code:    ErrNotFound,
		Kind:    KindResourceNotFound,
		Message: message,
		Details: details,
	}
}

// NewInternalError creates a new ErrInternal error with the given message.
func NewInternalError(message string, details Details) error {
	return Error{
		Code:    ErrInternal,
		Message: message,
		Details: details,
	}
}

// NewInternalErrorFromErr creates a new ErrInternal error wrapping the given
// error.
func NewInternalErrorFromErr(err error, message string, details Details) error {
	return Error{
		Code:    ErrInternal,
		Err:     err,
		Message: message,
		Details: details,
	}
}

// NewContextAbortedError creates a new ErrAborted error with kind
// KindContextAborted for the given operation.
func NewContextAbortedError(currentOperation string) error {
	return Error{
		Code:    ErrAborted,
		Kind:    KindContextAborted,
		Message: fmt.Sprintf("context aborted while %s", currentOperation),
	}
}

// NewExecQueryError creates a new ErrInternal error with kind KindDB for a
// failed query.
func NewExecQueryError(err error, message string, query string) error {
	return Error{
		Code:    ErrInternal,
		Kind:    KindDB,
		Err:     err,
		Message: message,
		Details: Details{"query": query},
	}
}

// NewScanDBRowError creates a new ErrInternal error with kind KindDB for a
// failed row scan.
func NewScanDBRowError(err error, message string, query string) error {
	return Error{
		Code:    ErrInternal,
		Kind:    KindDB,
		Err:     err,
		Message: message,
		Details: Details{"query": query},
	}
}

// NewDBTxBeginError creates a new ErrInternal error for a failed transaction
// begin.
func NewDBTxBeginError(err error) error {
	return Error{
		Code:    ErrInternal,
		Kind:    KindDB,
		Err:     err,
		Message: "begin tx",
	}
}

// NewDBTxCommitError creates a new ErrInternal error for a failed transaction
// commit.
func NewDBTxCommitError(err error) error {
	return Error{
		Code:    ErrInternal,
		Kind:    KindDB,
		Err:     err,
		Message: "commit tx",
	}
}

// NewCapacityError creates a new ErrCapacity error.
func NewCapacityError(kind Kind, message string, details Details) error {
	return Error{
		Code:    ErrCapacity,
		Kind:    kind,
		Message: message,
		Details: details,
	}
}

// NewForbiddenError creates a new ErrForbidden error.
func NewForbiddenError(kind Kind, message string, details Details) error {
	return Error{
		Code:    ErrForbidden,
		Kind:    kind,
		Message: message,
		Details: details,
	}
}

// NewInvalidStateError creates a new ErrInvalidState error.
func NewInvalidStateError(kind Kind, message string, details Details) error {
	return Error{
		Code:    ErrInvalidState,
		Kind:    kind,
		Message: message,
		Details: details,
	}
}

// NewAccessDeniedError creates a new ErrAccessDenied error.
func NewAccessDeniedError(kind Kind, message string, details Details) error {
	return Error{
		Code:    ErrAccessDenied,
		Kind:    kind,
		Message: message,
		Details: details,
	}
}

// NewDesyncError creates a new ErrDesync error.
func NewDesyncError(kind Kind, message string, details Details) error {
	return Error{
		Code:    ErrDesync,
		Kind:    kind,
		Message: message,
		Details: details,
	}
}

// NewBadRequestError creates a new ErrBadRequest error.
func NewBadRequestError(kind Kind, message string, details Details) error {
	return Error{
		Code:    ErrBadRequest,
		Kind:    kind,
		Message: message,
		Details: details,
	}
}
