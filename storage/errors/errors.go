package errors

import "errors"

var (
	ErrStorageNotOpen = errors.New("storage is not open")
	ErrInvalidLimit   = errors.New("limit must be positive")
)
