package messages

import (
	"github.com/fragmede/ojterm/internal/api"
	"github.com/fragmede/ojterm/internal/auth"
)

// View transition messages.
type (
	OpenProblemListMsg struct{}
	OpenProblemMsg     struct{ ID string }
	OpenSubmitMsg      struct{ Problem *api.Problem }
	OpenSubmissionsMsg struct {
		Query api.SubmissionQuery
		Title string
	}
	OpenSubmissionMsg  struct{ ID string }
	OpenProblemFormMsg struct{ Problem *api.Problem } // nil creates a new problem
	OpenLoginMsg       struct{}
	OpenSignupMsg      struct{}
	OpenStatsMsg       struct {
		UserID string
		Handle string
	}
	OpenProfileMsg struct{}
	OpenNotifyMsg  struct{}
	GoBackMsg      struct{}
	LogoutMsg      struct{}
)

// Data messages.
type (
	ProblemsLoadedMsg struct {
		Page *api.Page[api.Problem]
		Err  error
	}

	ProblemLoadedMsg struct {
		Problem *api.Problem
		Err     error
	}

	ProblemSavedMsg struct {
		Problem *api.Problem
		Created bool
		Err     error
	}

	ProblemDeletedMsg struct {
		ID  string
		Err error
	}

	SubmissionsLoadedMsg struct {
		Page *api.Page[api.Submission]
		Err  error
	}

	SubmissionLoadedMsg struct {
		Submission *api.Submission
		Err        error
	}

	SubmitResultMsg struct {
		Submission *api.Submission
		Err        error
	}

	StatsLoadedMsg struct {
		Stats *api.UserStats
		Err   error
	}

	// AuthResultMsg reports a finished login or signup.
	AuthResultMsg struct {
		State  auth.State
		Signup bool
		Err    error
	}

	// SessionRestoredMsg is sent once startup restore has finished,
	// whether or not it produced a user.
	SessionRestoredMsg struct {
		State auth.State
	}

	// VerdictMsg is sent by the monitor when a watched submission is judged.
	VerdictMsg struct {
		Submission *api.Submission
		Unread     int
	}

	// UnreadChangedMsg is sent when notifications are read locally.
	UnreadChangedMsg struct {
		Unread int
	}

	StatusMsg struct {
		Text    string
		IsError bool
	}
)
