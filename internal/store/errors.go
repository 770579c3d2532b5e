package store

import "errors"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a unique constraint is violated, e.g.
// registering an email or creating a category name that already exists.
var ErrDuplicate = errors.New("duplicate")
