package commands

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragmede/ojterm/internal/api"
	"github.com/fragmede/ojterm/internal/cache"
	"github.com/fragmede/ojterm/internal/judgetest"
)

type harness struct {
	srv     *judgetest.Server
	globals *Globals
	out     *bytes.Buffer
	dir     string
	user    api.User
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := judgetest.NewServer(t)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	yaml := fmt.Sprintf("data_dir: %[1]s\ndb_path: %[1]s/state.db\ncookie_path: %[1]s/cookies.json\nmonitor_interval: 5ms\nmonitor_max_interval: 20ms\n", dir)
	require.NoError(t, os.WriteFile(cfgPath, []byte(yaml), 0o600))

	out := &bytes.Buffer{}
	return &harness{
		srv:     srv,
		globals: &Globals{Config: cfgPath, BaseURL: srv.URL, Out: out},
		out:     out,
		dir:     dir,
		user:    srv.AddUser("ada@example.com", "secret1", "ada"),
	}
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	cmd := &LoginCmd{Email: "ada@example.com", Password: "secret1"}
	require.NoError(t, cmd.Run(context.Background(), h.globals))
}

func TestSessionCommands(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	err := (&WhoamiCmd{}).Run(ctx, h.globals)
	assert.ErrorIs(t, err, ErrNotSignedIn)

	err = (&LoginCmd{Email: "ada@example.com", Password: "nope"}).Run(ctx, h.globals)
	require.Error(t, err)
	assert.True(t, api.IsUnauthorized(err))

	h.login(t)
	assert.Contains(t, h.out.String(), "Signed in as ada")

	t.Run("session survives between invocations", func(t *testing.T) {
		h.out.Reset()
		require.NoError(t, (&WhoamiCmd{}).Run(ctx, h.globals))
		assert.Contains(t, h.out.String(), "ada <ada@example.com>")
		assert.Contains(t, h.out.String(), h.user.ID)
	})

	t.Run("login again is a no-op", func(t *testing.T) {
		h.out.Reset()
		h.login(t)
		assert.Contains(t, h.out.String(), "Already signed in")
	})

	t.Run("logout", func(t *testing.T) {
		h.out.Reset()
		require.NoError(t, (&LogoutCmd{}).Run(ctx, h.globals))
		assert.Contains(t, h.out.String(), "Signed out ada")
		assert.Equal(t, 1, h.srv.Calls(judgetest.RouteLogout))

		err := (&WhoamiCmd{}).Run(ctx, h.globals)
		assert.ErrorIs(t, err, ErrNotSignedIn)
	})
}

func TestEphemeralSession(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.globals.Ephemeral = true

	h.login(t)
	err := (&WhoamiCmd{}).Run(ctx, h.globals)
	assert.ErrorIs(t, err, ErrNotSignedIn)
	_, err = os.Stat(filepath.Join(h.dir, "cookies.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestProblemsCmd(t *testing.T) {
	h := newHarness(t)
	h.srv.AddProblem(api.ProblemInput{Code: "A1", Title: "Sum of Two", Difficulty: 2, TimeLimitMs: 1000, MemoryLimitMb: 256, Tags: []string{"math"}})
	h.srv.AddProblem(api.ProblemInput{Code: "B2", Title: "Graph Walk", Difficulty: 8, TimeLimitMs: 2000, MemoryLimitMb: 512})

	require.NoError(t, (&ProblemsCmd{Page: 1, PageSize: 1}).Run(context.Background(), h.globals))
	out := h.out.String()
	assert.Contains(t, out, "Sum of Two")
	assert.Contains(t, out, "Easy")
	assert.Contains(t, out, "1.00s / 256MB")
	assert.NotContains(t, out, "Graph Walk")
	assert.Contains(t, out, "Page 1/2 (2 problems)")
	assert.Contains(t, out, "--page=2")
}

func TestSubmitCmd(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	p := h.srv.AddProblem(api.ProblemInput{Code: "A1", Title: "Sum"})
	src := filepath.Join(h.dir, "main.py")
	require.NoError(t, os.WriteFile(src, []byte("print(sum(map(int, input().split())))\n"), 0o600))

	cmd := &SubmitCmd{Problem: p.ID, Language: "python", File: src}
	assert.ErrorIs(t, cmd.Run(ctx, h.globals), ErrNotSignedIn)

	t.Run("rejects unknown languages", func(t *testing.T) {
		bad := &SubmitCmd{Problem: p.ID, Language: "cobol", File: src}
		assert.ErrorContains(t, bad.Run(ctx, h.globals), "unknown language")
	})

	t.Run("rejects empty files", func(t *testing.T) {
		empty := filepath.Join(h.dir, "empty.py")
		require.NoError(t, os.WriteFile(empty, []byte("  \n"), 0o600))
		assert.ErrorContains(t, (&SubmitCmd{Problem: p.ID, Language: "python", File: empty}).Run(ctx, h.globals), "empty")
	})

	t.Run("queues the submission for the monitor", func(t *testing.T) {
		h.login(t)
		h.out.Reset()
		require.NoError(t, cmd.Run(ctx, h.globals))
		assert.Contains(t, h.out.String(), "(A1, Python)")

		db, err := cache.Open(filepath.Join(h.dir, "state.db"))
		require.NoError(t, err)
		defer db.Close()
		assert.Equal(t, 1, db.WatchCount(h.user.ID))
	})
}

func TestWaitForVerdict(t *testing.T) {
	ctx := context.Background()
	srv := judgetest.NewServer(t)
	u := srv.AddUser("ada@example.com", "secret1", "ada")
	token := srv.IssueToken(u.ID)
	client := api.NewClient(srv.URL, api.WithTokenSource(func() string { return token }))
	p := srv.AddProblem(api.ProblemInput{Code: "A1", Title: "Sum"})

	submit := func() *api.Submission {
		s, err := client.SubmitSolution(ctx, api.NewSubmission{Problem: p.ID, Language: api.LanguageC, Code: "int main(){}"})
		require.NoError(t, err)
		return s
	}

	t.Run("returns once judged", func(t *testing.T) {
		s := submit()
		go func() {
			time.Sleep(30 * time.Millisecond)
			srv.SetVerdict(s.ID, api.VerdictAccepted)
		}()
		judged, err := WaitForVerdict(ctx, client, s.ID, 5*time.Millisecond, 20*time.Millisecond, 5*time.Second)
		require.NoError(t, err)
		assert.Equal(t, api.VerdictAccepted, judged.Verdict)
		assert.Contains(t, VerdictLine(judged), "A1: Accepted")
	})

	t.Run("gives up after the timeout", func(t *testing.T) {
		s := submit()
		_, err := WaitForVerdict(ctx, client, s.ID, 5*time.Millisecond, 10*time.Millisecond, 50*time.Millisecond)
		assert.ErrorContains(t, err, "no verdict")
	})

	t.Run("missing submissions are not retried", func(t *testing.T) {
		before := srv.Calls(judgetest.RouteSubmissionsGet)
		_, err := WaitForVerdict(ctx, client, "missing", 5*time.Millisecond, 10*time.Millisecond, time.Second)
		require.Error(t, err)
		assert.Equal(t, 404, api.StatusCode(err))
		assert.Equal(t, before+1, srv.Calls(judgetest.RouteSubmissionsGet))
	})
}

func TestVerdictLine(t *testing.T) {
	s := &api.Submission{
		Problem:         api.SubmissionProblem{Code: "B2"},
		Verdict:         api.VerdictWrongAnswer,
		TimeUsedMs:      1500,
		MemoryUsedKb:    2048,
		TestCasesPassed: 3,
		TotalTestCases:  10,
	}
	assert.Equal(t, "B2: Wrong Answer  tests 3/10  1.50s  2.00MB", VerdictLine(s))

	s.Verdict = api.VerdictCompilationError
	s.TotalTestCases = 0
	assert.Equal(t, "B2: Compilation Error", VerdictLine(s))
}

func TestStatsTable(t *testing.T) {
	out := StatsTable(&api.UserStats{
		TotalSubmissions: 4,
		VerdictBreakdown: []api.VerdictCount{
			{Verdict: api.VerdictAccepted, Count: 3},
			{Verdict: api.VerdictRuntimeError, Count: 1},
		},
	})
	assert.Contains(t, out, "Accepted")
	assert.Contains(t, out, "75%")
	assert.Contains(t, out, "Runtime Error")
	assert.NotContains(t, out, "Wrong Answer")
}
