package auth

import "github.com/fragmede/ojterm/internal/api"

// Phase is the position of a session in its lifecycle.
type Phase int

const (
	PhaseInitializing Phase = iota
	PhaseAuthenticated
	PhaseUnauthenticated
)

func (p Phase) String() string {
	switch p {
	case PhaseInitializing:
		return "initializing"
	case PhaseAuthenticated:
		return "authenticated"
	case PhaseUnauthenticated:
		return "unauthenticated"
	}
	return "unknown"
}

// State is an immutable snapshot of a Session. Every flag is derived from
// the identity, so they can never disagree.
type State struct {
	user        *api.User
	initialized bool
	loading     bool
}

func (s State) IsAuthenticated() bool { return s.user != nil }
func (s State) IsLoggedIn() bool      { return s.IsAuthenticated() }
func (s State) IsNotLoggedIn() bool   { return !s.IsLoggedIn() }

// Loading is true until restore completes and while login or signup is in flight.
func (s State) Loading() bool { return s.loading }

// IsAdmin reports whether the signed-in user holds an admin role.
func (s State) IsAdmin() bool {
	return s.user != nil && HasAdminPrivilege(s.user.Roles)
}

// User returns the identity captured in the snapshot, or nil.
func (s State) User() *api.User { return s.user.Clone() }

func (s State) Phase() Phase {
	switch {
	case !s.initialized:
		return PhaseInitializing
	case s.user != nil:
		return PhaseAuthenticated
	}
	return PhaseUnauthenticated
}
