package session

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned for an unknown or abandoned session ID.
	ErrNotFound = errors.New("session not found")

	// ErrInvalidTransition is returned when an action is not allowed in the
	// session's current state, such as retrying an accepted session.
	ErrInvalidTransition = errors.New("invalid session transition")
)

func invalidTransition(action string, from State) error {
	return fmt.Errorf("%w: cannot %s a session in state %s", ErrInvalidTransition, action, from)
}
