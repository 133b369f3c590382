package selection

import "errors"

// ErrInsufficientData is returned when too few usable figures survive
// estimation to build a session.
var ErrInsufficientData = errors.New("insufficient usable figures")
