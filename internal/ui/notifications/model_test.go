package notifications

import (
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragmede/ojterm/internal/api"
	"github.com/fragmede/ojterm/internal/cache"
	"github.com/fragmede/ojterm/internal/ui/messages"
)

func TestNotifications(t *testing.T) {
	db, err := cache.Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	now := time.Now()
	require.NoError(t, db.AddNotification(cache.Notification{SubmissionID: "s1", UserID: "u1", ProblemCode: "A1", Verdict: api.VerdictAccepted, CreatedAt: now.Add(-time.Minute)}))
	require.NoError(t, db.AddNotification(cache.Notification{SubmissionID: "s2", UserID: "u1", ProblemCode: "B2", Verdict: api.VerdictRuntimeError, CreatedAt: now}))
	require.NoError(t, db.AddNotification(cache.Notification{SubmissionID: "s3", UserID: "u2", ProblemCode: "C3", Verdict: api.VerdictAccepted, CreatedAt: now}))

	m := New(db, "u1")
	m.Load()
	assert.Equal(t, 2, m.UnreadCount())
	assert.Contains(t, m.View(), "Runtime Error")
	assert.NotContains(t, m.View(), "C3")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, 1, m.UnreadCount())
	assert.Equal(t, 1, db.UnreadNotificationCount("u1"))

	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.UnreadChangedMsg{Unread: 0}, cmd())
	assert.Zero(t, db.UnreadNotificationCount("u1"))
	assert.Equal(t, 1, db.UnreadNotificationCount("u2"))
}

func TestNotifications_Empty(t *testing.T) {
	db, err := cache.Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	m := New(db, "u1")
	m.Load()
	assert.Contains(t, m.View(), "No verdicts yet")
}
