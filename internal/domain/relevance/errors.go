package relevance

import "errors"

// ErrUnresolvable is returned when a person has no usable year hints. It is
// not fatal: callers drop the person from the candidate pool.
var ErrUnresolvable = errors.New("relevance window unresolvable")
