package probe

import "errors"

// ErrNotFound is returned when a signal could not be extracted from its source
var ErrNotFound = errors.New("not found")
