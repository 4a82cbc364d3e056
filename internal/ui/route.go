package ui

import "github.com/fragmede/ojterm/internal/auth"

// ViewType identifies the active view.
type ViewType int

const (
	ViewProblemList ViewType = iota
	ViewProblem
	ViewSubmissions
	ViewSubmission
	ViewLogin
	ViewSignup
	ViewSubmit
	ViewStats
	ViewProfile
	ViewNotifications
	ViewProblemForm
	ViewLoading
)

var viewNames = map[ViewType]string{
	ViewProblemList:   "problems",
	ViewProblem:       "problem",
	ViewSubmissions:   "submissions",
	ViewSubmission:    "submission",
	ViewLogin:         "login",
	ViewSignup:        "signup",
	ViewSubmit:        "submit",
	ViewStats:         "stats",
	ViewProfile:       "profile",
	ViewNotifications: "notifications",
	ViewProblemForm:   "problem form",
	ViewLoading:       "loading",
}

func (v ViewType) String() string {
	if n, ok := viewNames[v]; ok {
		return n
	}
	return "unknown"
}

// Access is who may open a view.
type Access int

const (
	AccessPublic Access = iota
	AccessGuestOnly
	AccessAuthenticated
	AccessAdmin
)

// Access returns the access level required to open v.
func (v ViewType) Access() Access {
	switch v {
	case ViewLogin, ViewSignup:
		return AccessGuestOnly
	case ViewSubmit, ViewStats, ViewProfile, ViewNotifications:
		return AccessAuthenticated
	case ViewProblemForm:
		return AccessAdmin
	default:
		return AccessPublic
	}
}

// Outcome explains how Resolve treated a navigation.
type Outcome int

const (
	Allow Outcome = iota
	// Wait means the session is still being restored.
	Wait
	// NeedLogin means the view requires a signed-in user.
	NeedLogin
	// AlreadyAuthenticated means a guest-only view was requested while signed in.
	AlreadyAuthenticated
	// Forbidden means the user lacks admin privilege.
	Forbidden
)

// Resolve decides which view to show when v is requested in session state st.
func Resolve(v ViewType, st auth.State) (ViewType, Outcome) {
	access := v.Access()
	if access == AccessPublic {
		return v, Allow
	}
	if st.Loading() {
		return ViewLoading, Wait
	}

	switch access {
	case AccessGuestOnly:
		if st.IsAuthenticated() {
			return ViewProblemList, AlreadyAuthenticated
		}
	case AccessAuthenticated:
		if !st.IsAuthenticated() {
			return ViewLogin, NeedLogin
		}
	case AccessAdmin:
		if !st.IsAuthenticated() {
			return ViewLogin, NeedLogin
		}
		if !st.IsAdmin() {
			return ViewProblemList, Forbidden
		}
	}
	return v, Allow
}
