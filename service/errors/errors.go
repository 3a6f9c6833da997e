package errors

import stdErrors "errors"

var (
	ErrSnapshotUnavailable  = stdErrors.New("cluster metadata snapshot unavailable")
	ErrInvalidConfiguration = stdErrors.New("invalid configuration")
	ErrHistoryDisabled      = stdErrors.New("report history is disabled")
)
