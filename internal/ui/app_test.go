package ui

import (
	"context"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragmede/ojterm/internal/api"
	"github.com/fragmede/ojterm/internal/auth"
	"github.com/fragmede/ojterm/internal/cache"
	"github.com/fragmede/ojterm/internal/config"
	"github.com/fragmede/ojterm/internal/monitor"
	"github.com/fragmede/ojterm/internal/ui/messages"
)

// guestBackend has no session to restore but accepts logins for user.
type guestBackend struct{ stubBackend }

func (guestBackend) Refresh(context.Context) (string, error) { return "", errUnauthorized }

func newTestApp(t *testing.T, backend auth.Backend) (*App, *auth.Session) {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	db, err := cache.Open(filepath.Join(cfg.DataDir, "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	client := api.NewClient("http://judge.invalid")
	session := auth.NewSession(backend, auth.NewMemoryStore())
	t.Cleanup(session.Wait)

	app := NewApp(cfg, client, db, session, monitor.New(cfg, client, db))
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return app, session
}

func restore(a *App, s *auth.Session) {
	a.Update(messages.SessionRestoredMsg{State: s.Restore(context.Background())})
}

func TestApp_WaitsForRestore(t *testing.T) {
	a, s := newTestApp(t, stubBackend{user: member})

	a.Update(messages.OpenProfileMsg{})
	assert.Equal(t, ViewLoading, a.ActiveView())
	assert.Contains(t, a.View(), "Restoring session...")

	restore(a, s)
	assert.Equal(t, ViewProfile, a.ActiveView())

	a.Update(messages.GoBackMsg{})
	assert.Equal(t, ViewProblemList, a.ActiveView(), "loading screen is not kept in history")
}

func TestApp_RestoreAsGuestSendsToLogin(t *testing.T) {
	a, s := newTestApp(t, stubBackend{})

	a.Update(messages.OpenStatsMsg{})
	restore(a, s)
	assert.Equal(t, ViewLogin, a.ActiveView())
}

func TestApp_LoginReplaysPendingNavigation(t *testing.T) {
	a, s := newTestApp(t, guestBackend{stubBackend{user: member}})
	restore(a, s)

	a.Update(messages.OpenNotifyMsg{})
	require.Equal(t, ViewLogin, a.ActiveView())
	assert.Contains(t, a.View(), "Sign in to continue")

	require.NoError(t, s.Login(context.Background(), "ada@example.com", "secret1"))
	a.Update(messages.AuthResultMsg{State: s.State()})

	assert.Equal(t, ViewNotifications, a.ActiveView())
	a.Update(messages.GoBackMsg{})
	assert.Equal(t, ViewProblemList, a.ActiveView(), "login form is popped after success")
}

func TestApp_LeavingAbandonsPendingNavigation(t *testing.T) {
	t.Run("loading screen", func(t *testing.T) {
		a, s := newTestApp(t, stubBackend{user: member})
		a.Update(messages.OpenProfileMsg{})
		a.Update(messages.GoBackMsg{})
		restore(a, s)
		assert.Equal(t, ViewProblemList, a.ActiveView())
	})

	t.Run("login form", func(t *testing.T) {
		a, s := newTestApp(t, guestBackend{stubBackend{user: member}})
		restore(a, s)
		a.Update(messages.OpenNotifyMsg{})
		require.Equal(t, ViewLogin, a.ActiveView())
		a.Update(messages.GoBackMsg{})

		a.Update(messages.OpenLoginMsg{})
		require.NoError(t, s.Login(context.Background(), "ada@example.com", "secret1"))
		a.Update(messages.AuthResultMsg{State: s.State()})
		assert.Equal(t, ViewProblemList, a.ActiveView())
	})
}

func TestApp_FailedLoginStaysOnForm(t *testing.T) {
	a, s := newTestApp(t, stubBackend{})
	restore(a, s)

	a.Update(messages.OpenLoginMsg{})
	a.Update(messages.AuthResultMsg{State: s.State(), Err: errUnauthorized})
	assert.Equal(t, ViewLogin, a.ActiveView())
	assert.False(t, a.state.IsAuthenticated())
}

func TestApp_GuestFormsReplaceEachOther(t *testing.T) {
	a, s := newTestApp(t, stubBackend{})
	restore(a, s)

	a.Update(messages.OpenLoginMsg{})
	a.Update(messages.OpenSignupMsg{})
	assert.Equal(t, ViewSignup, a.ActiveView())
	a.Update(messages.OpenLoginMsg{})
	assert.Equal(t, ViewLogin, a.ActiveView())

	a.Update(messages.GoBackMsg{})
	assert.Equal(t, ViewProblemList, a.ActiveView())
}

func TestApp_Guards(t *testing.T) {
	t.Run("guest-only views when signed in", func(t *testing.T) {
		a, s := newTestApp(t, stubBackend{user: member})
		restore(a, s)
		a.Update(messages.OpenSubmissionsMsg{Title: "Submissions"})

		a.Update(messages.OpenSignupMsg{})
		assert.Equal(t, ViewProblemList, a.ActiveView())
		assert.Contains(t, a.View(), "Already signed in")
	})

	t.Run("admin views for members", func(t *testing.T) {
		a, s := newTestApp(t, stubBackend{user: member})
		restore(a, s)

		a.Update(messages.OpenProblemFormMsg{})
		assert.Equal(t, ViewProblemList, a.ActiveView())
		assert.Contains(t, a.View(), "Admin privileges required")
	})

	t.Run("admin views for admins", func(t *testing.T) {
		a, s := newTestApp(t, stubBackend{user: admin})
		restore(a, s)

		a.Update(messages.OpenProblemFormMsg{})
		assert.Equal(t, ViewProblemForm, a.ActiveView())
	})

	t.Run("public views never wait", func(t *testing.T) {
		a, _ := newTestApp(t, stubBackend{user: member})
		a.Update(messages.OpenSubmissionMsg{ID: "s1"})
		assert.Equal(t, ViewSubmission, a.ActiveView())
	})
}

func TestApp_Logout(t *testing.T) {
	a, s := newTestApp(t, stubBackend{user: member})
	restore(a, s)
	a.Update(messages.OpenProfileMsg{})
	require.Equal(t, ViewProfile, a.ActiveView())

	a.Update(messages.LogoutMsg{})
	s.Wait()

	assert.Equal(t, ViewProblemList, a.ActiveView())
	assert.False(t, s.State().IsAuthenticated())
	assert.Contains(t, a.View(), "Signed out")

	a.Update(messages.OpenProfileMsg{})
	assert.Equal(t, ViewLogin, a.ActiveView())
}

func TestApp_Keys(t *testing.T) {
	a, s := newTestApp(t, stubBackend{})
	restore(a, s)

	a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("2")})
	assert.Equal(t, ViewSubmissions, a.ActiveView())
	assert.Contains(t, a.View(), "Submissions")

	a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("L")})
	assert.Equal(t, ViewLogin, a.ActiveView())

	// Printable keys belong to the form while typing.
	a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.Equal(t, ViewLogin, a.ActiveView())

	a.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewSubmissions, a.ActiveView())

	a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("1")})
	assert.Equal(t, ViewProblemList, a.ActiveView())

	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestApp_VerdictUpdatesStatus(t *testing.T) {
	a, s := newTestApp(t, stubBackend{user: member})
	restore(a, s)

	a.Update(messages.VerdictMsg{
		Submission: &api.Submission{ID: "s1", Problem: api.SubmissionProblem{Code: "A1"}, Verdict: api.VerdictAccepted, TimeUsedMs: 15},
		Unread:     3,
	})
	view := a.View()
	assert.Contains(t, view, "A1: Accepted (15ms)")
	assert.Contains(t, view, " 3 ")
}
