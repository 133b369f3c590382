package playtest

import (
	"errors"
	"fmt"
)

var (
	// ErrUnhealthy is returned when the health endpoint does not answer 200.
	ErrUnhealthy = errors.New("service unhealthy")
	// ErrStuck is returned when a session does not finish within its move budget.
	ErrStuck = errors.New("session did not finish")
	// ErrInvariant marks a results payload that breaks a result invariant.
	ErrInvariant = errors.New("results invariant violated")
	// ErrFailures is returned by Run when any session failed or was invalid.
	ErrFailures = errors.New("playtest failures")
)

// StatusError is a non-2xx response from the service.
type StatusError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d %s: %s", e.Status, e.Code, e.Message)
}
