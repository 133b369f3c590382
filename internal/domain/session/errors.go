package session

import "errors"

// ErrInvalidState is returned when an action is not valid for the session's
// current status or index. The session is left unmodified.
var ErrInvalidState = errors.New("invalid session state")
