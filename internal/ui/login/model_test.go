package login

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragmede/ojterm/internal/api"
	"github.com/fragmede/ojterm/internal/auth"
	"github.com/fragmede/ojterm/internal/judgetest"
	"github.com/fragmede/ojterm/internal/ui/messages"
)

var enter = tea.KeyMsg{Type: tea.KeyEnter}

func newForm(t *testing.T) Model {
	t.Helper()
	srv := judgetest.NewServer(t)
	srv.AddUser("ada@example.com", "secret1", "ada")
	session := auth.NewSession(api.NewClient(srv.URL), auth.NewMemoryStore())
	return New(session)
}

func TestLogin_RequiresBothFields(t *testing.T) {
	m := newForm(t)
	m, cmd := m.Update(enter)
	assert.Nil(t, cmd)
	assert.Equal(t, "Email and password required", m.err)
	assert.False(t, m.submitting)
}

func TestLogin_Success(t *testing.T) {
	m := newForm(t)
	m.emailInput.SetValue(" ada@example.com ")
	m.passwordInput.SetValue("secret1")

	m, cmd := m.Update(enter)
	require.NotNil(t, cmd)
	assert.True(t, m.submitting)

	// A second enter while the request is in flight is ignored.
	_, again := m.Update(enter)
	assert.Nil(t, again)

	res, ok := cmd().(messages.AuthResultMsg)
	require.True(t, ok)
	require.NoError(t, res.Err)
	assert.True(t, res.State.IsAuthenticated())
	assert.Equal(t, "ada", res.State.User().Handle)

	m, _ = m.Update(res)
	assert.False(t, m.submitting)
	assert.Empty(t, m.err)
}

func TestLogin_WrongPassword(t *testing.T) {
	m := newForm(t)
	m.emailInput.SetValue("ada@example.com")
	m.passwordInput.SetValue("nope")

	m, cmd := m.Update(enter)
	require.NotNil(t, cmd)
	m, _ = m.Update(cmd())
	assert.Equal(t, "Invalid email or password", m.err)
	assert.Empty(t, m.passwordInput.Value())
}

func TestFailureText(t *testing.T) {
	assert.Equal(t, "Invalid email or password",
		FailureText(&api.HTTPError{StatusCode: http.StatusUnauthorized}))
	assert.Equal(t, "An account with that email or handle already exists",
		FailureText(&api.HTTPError{StatusCode: http.StatusConflict}))
	assert.Equal(t, "handle must not be empty",
		FailureText(fmt.Errorf("registering: %w", &api.HTTPError{StatusCode: http.StatusBadRequest, Body: "handle must not be empty"})))
	assert.Contains(t, FailureText(api.ErrMalformedResponse), "unexpected response")
	assert.Equal(t, "Could not reach the judge: dial tcp: refused",
		FailureText(errors.New("dial tcp: refused")))
}
