package monitor

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragmede/ojterm/internal/api"
	"github.com/fragmede/ojterm/internal/cache"
	"github.com/fragmede/ojterm/internal/config"
	"github.com/fragmede/ojterm/internal/judgetest"
	"github.com/fragmede/ojterm/internal/ui/messages"
)

type recorder struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (r *recorder) Send(msg tea.Msg) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recorder) verdicts() []messages.VerdictMsg {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []messages.VerdictMsg
	for _, m := range r.msgs {
		if v, ok := m.(messages.VerdictMsg); ok {
			out = append(out, v)
		}
	}
	return out
}

type fixture struct {
	srv     *judgetest.Server
	client  *api.Client
	db      *cache.DB
	mon     *Monitor
	user    api.User
	problem api.Problem
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := judgetest.NewServer(t)
	user := srv.AddUser("ada@example.com", "secret1", "ada")
	token := srv.IssueToken(user.ID)
	client := api.NewClient(srv.URL, api.WithTokenSource(func() string { return token }))

	db, err := cache.Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := config.Default()
	cfg.MonitorInterval = 10 * time.Millisecond
	cfg.MonitorMaxInterval = 40 * time.Millisecond

	return &fixture{
		srv:     srv,
		client:  client,
		db:      db,
		mon:     New(cfg, client, db),
		user:    user,
		problem: srv.AddProblem(api.ProblemInput{Code: "A1", Title: "Sum"}),
	}
}

func (f *fixture) submit(t *testing.T) *api.Submission {
	t.Helper()
	s, err := f.client.SubmitSolution(context.Background(), api.NewSubmission{
		Problem:  f.problem.ID,
		Language: api.LanguageCPP,
		Code:     "int main() {}",
	})
	require.NoError(t, err)
	require.NoError(t, f.mon.Watch(s))
	return s
}

func TestPoll(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rec := &recorder{}
	s := f.submit(t)

	judged, err := f.mon.poll(ctx, rec, f.user.ID)
	require.NoError(t, err)
	assert.Zero(t, judged)
	assert.Equal(t, 1, f.db.WatchCount(f.user.ID), "pending submissions stay watched")

	f.srv.SetVerdict(s.ID, api.VerdictAccepted)
	judged, err = f.mon.poll(ctx, rec, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, judged)
	assert.Zero(t, f.db.WatchCount(f.user.ID))

	got := rec.verdicts()
	require.Len(t, got, 1)
	assert.Equal(t, s.ID, got[0].Submission.ID)
	assert.Equal(t, api.VerdictAccepted, got[0].Submission.Verdict)
	assert.Equal(t, 1, got[0].Unread)

	notes, err := f.db.Notifications(f.user.ID, 10)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "A1", notes[0].ProblemCode)
	assert.Equal(t, "Sum", notes[0].ProblemTitle)
}

func TestPoll_UnreachableWatches(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Watch(cache.WatchedSubmission{SubmissionID: "gone-old", UserID: f.user.ID, CreatedAt: time.Now().Add(-25 * time.Hour)}))
	require.NoError(t, f.db.Watch(cache.WatchedSubmission{SubmissionID: "gone-new", UserID: f.user.ID}))

	judged, err := f.mon.poll(context.Background(), nil, f.user.ID)
	require.NoError(t, err)
	assert.Zero(t, judged)

	watched, err := f.db.Watched(f.user.ID, 10)
	require.NoError(t, err)
	require.Len(t, watched, 1)
	assert.Equal(t, "gone-new", watched[0].SubmissionID)
}

func TestWatch_IgnoresFinalVerdicts(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.mon.Watch(nil))
	require.NoError(t, f.mon.Watch(&api.Submission{ID: "s1", User: api.SubmissionUser{ID: f.user.ID}, Verdict: api.VerdictAccepted}))
	assert.Zero(t, f.db.WatchCount(f.user.ID))
}

func TestLoop(t *testing.T) {
	f := newFixture(t)
	rec := &recorder{}

	f.mon.Start(rec, f.user.ID)
	t.Cleanup(f.mon.Stop)
	assert.True(t, f.mon.Running())

	s := f.submit(t)
	f.srv.SetVerdict(s.ID, api.VerdictWrongAnswer)

	require.Eventually(t, func() bool { return len(rec.verdicts()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, api.VerdictWrongAnswer, rec.verdicts()[0].Submission.Verdict)

	f.mon.Stop()
	f.mon.Stop()
	assert.False(t, f.mon.Running())
}

func TestStart_SwitchesUser(t *testing.T) {
	f := newFixture(t)
	rec := &recorder{}
	f.mon.Start(rec, "u1")
	f.mon.Start(rec, "u1")
	f.mon.Start(rec, "u2")
	assert.Equal(t, "u2", f.mon.userID)
	f.mon.Stop()
	assert.False(t, f.mon.Running())
}

// stalledSender blocks like Program.Send while the event loop is busy.
type stalledSender struct {
	attempts chan struct{}
	release  chan struct{}
}

func (s *stalledSender) Send(tea.Msg) {
	s.attempts <- struct{}{}
	<-s.release
}

func TestStop_DoesNotWaitForBlockedSend(t *testing.T) {
	f := newFixture(t)
	sender := &stalledSender{attempts: make(chan struct{}, 1), release: make(chan struct{})}
	defer close(sender.release)

	f.mon.Start(sender, f.user.ID)
	s := f.submit(t)
	f.srv.SetVerdict(s.ID, api.VerdictAccepted)

	select {
	case <-sender.attempts:
	case <-time.After(2 * time.Second):
		t.Fatal("verdict was never sent")
	}

	stopped := make(chan struct{})
	go func() {
		f.mon.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked on an undelivered verdict")
	}
	assert.False(t, f.mon.Running())
	assert.Equal(t, 1, f.db.UnreadNotificationCount(f.user.ID), "verdict is still recorded")
}
