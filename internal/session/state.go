// Package session obtains and keeps the signed-in account, gates it by an
// allow-list and resolves the active profile.
package session

import (
	"errors"
	"slices"
)

// Session errors.
var (
	ErrEmailNotAllowed   = errors.New("email is not allowed to use this tracker")
	ErrNotAuthenticated  = errors.New("not signed in")
	ErrSessionExpired    = errors.New("session expired")
	ErrInvalidTransition = errors.New("invalid session transition")
)

// State is the session lifecycle state.
type State int

// Session states. A Manager starts in StateRestoring.
const (
	StateRestoring State = iota
	StateUnauthenticated
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateRestoring:
		return "restoring"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

var transitions = map[State][]State{
	StateRestoring:       {StateUnauthenticated, StateAuthenticated},
	StateUnauthenticated: {StateAuthenticated},
	StateAuthenticated:   {StateUnauthenticated},
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to State) bool {
	return slices.Contains(transitions[from], to)
}
