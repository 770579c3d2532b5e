package services

import "errors"

// ErrReceiptsDisabled is returned when receipt operations are used
// without a configured object store.
var ErrReceiptsDisabled = errors.New("receipt storage is not configured")
