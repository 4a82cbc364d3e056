package api_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragmede/ojterm/internal/api"
	"github.com/fragmede/ojterm/internal/judgetest"
)

func TestSubmissionQuery_Encode(t *testing.T) {
	t.Run("only defined fields are serialized", func(t *testing.T) {
		qs := api.SubmissionQuery{Problem: "A1"}.Encode()
		assert.Contains(t, qs, "problem=A1")
		assert.NotContains(t, qs, "verdict")
		assert.NotContains(t, qs, "current")
		assert.NotContains(t, qs, "user")
	})

	t.Run("all fields", func(t *testing.T) {
		v := api.SubmissionQuery{
			Current:  2,
			PageSize: 20,
			User:     "ada",
			Problem:  "A1",
			Language: api.LanguageCPP,
			Verdict:  api.VerdictAccepted,
		}.Values()
		assert.Equal(t, "2", v.Get("current"))
		assert.Equal(t, "20", v.Get("pageSize"))
		assert.Equal(t, "ada", v.Get("user"))
		assert.Equal(t, "cpp", v.Get("language"))
		assert.Equal(t, "accepted", v.Get("verdict"))
	})

	t.Run("empty query", func(t *testing.T) {
		assert.Empty(t, api.SubmissionQuery{}.Encode())
	})
}

type judge struct {
	srv    *judgetest.Server
	client *api.Client
	token  string
	user   api.User
	admin  api.User
}

func newJudge(t *testing.T) *judge {
	t.Helper()
	srv := judgetest.NewServer(t)
	j := &judge{srv: srv}
	j.user = srv.AddUser("ada@example.com", "secret1", "ada")
	j.admin = srv.AddUser("root@example.com", "hunter22", "root", api.RoleAdmin)
	j.token = srv.IssueToken(j.user.ID)
	j.client = api.NewClient(srv.URL, api.WithTokenSource(func() string { return j.token }))
	return j
}

func (j *judge) as(u api.User) {
	j.token = j.srv.IssueToken(u.ID)
}

func TestSubmissions(t *testing.T) {
	ctx := context.Background()
	j := newJudge(t)
	p1 := j.srv.AddProblem(api.ProblemInput{Code: "A1", Title: "Sum"})
	p2 := j.srv.AddProblem(api.ProblemInput{Code: "B2", Title: "Product"})

	first, err := j.client.SubmitSolution(ctx, api.NewSubmission{Problem: p1.ID, Language: api.LanguageCPP, Code: "int main(){}"})
	require.NoError(t, err)
	assert.Equal(t, api.VerdictPending, first.Verdict)
	assert.Equal(t, "ada", first.User.Handle)
	assert.Equal(t, "A1", first.Problem.Code)

	second, err := j.client.SubmitSolution(ctx, api.NewSubmission{Problem: p2.ID, Language: api.LanguagePython, Code: "print(1)"})
	require.NoError(t, err)
	j.srv.SetVerdict(second.ID, api.VerdictAccepted)

	t.Run("list filters by problem code", func(t *testing.T) {
		page, err := j.client.ListSubmissions(ctx, api.SubmissionQuery{Problem: "A1"})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, first.ID, page.Items[0].ID)
	})

	t.Run("list filters by verdict and paginates", func(t *testing.T) {
		page, err := j.client.ListSubmissions(ctx, api.SubmissionQuery{Verdict: api.VerdictAccepted, PageSize: 1})
		require.NoError(t, err)
		assert.Equal(t, 1, page.Total)
		assert.Equal(t, 1, page.TotalPages)
		assert.False(t, page.HasNext())
		assert.False(t, page.HasPrev())
	})

	t.Run("get", func(t *testing.T) {
		s, err := j.client.GetSubmission(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, api.VerdictAccepted, s.Verdict)
		assert.Equal(t, "print(1)", s.Code)
	})

	t.Run("by problem and by user", func(t *testing.T) {
		subs, err := j.client.ListProblemSubmissions(ctx, p2.ID)
		require.NoError(t, err)
		require.Len(t, subs, 1)
		assert.Equal(t, second.ID, subs[0].ID)

		subs, err = j.client.ListUserSubmissions(ctx, j.user.ID)
		require.NoError(t, err)
		require.Len(t, subs, 2)
		assert.Equal(t, second.ID, subs[0].ID, "newest first")
	})

	t.Run("stats", func(t *testing.T) {
		stats, err := j.client.GetUserStats(ctx, j.user.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.TotalSubmissions)
		assert.Equal(t, 1, stats.Count(api.VerdictAccepted))
		assert.Equal(t, 1, stats.Count(api.VerdictPending))
		assert.Equal(t, 50, stats.AcceptanceRate())
	})

	t.Run("batch get leaves failures nil", func(t *testing.T) {
		subs, err := j.client.BatchGetSubmissions(ctx, []string{first.ID, "missing", second.ID})
		require.NoError(t, err)
		require.Len(t, subs, 3)
		require.NotNil(t, subs[0])
		assert.Nil(t, subs[1])
		require.NotNil(t, subs[2])
		assert.Equal(t, second.ID, subs[2].ID)
	})

	t.Run("verdict update requires admin", func(t *testing.T) {
		ms := 42
		_, err := j.client.UpdateVerdict(ctx, first.ID, api.VerdictUpdate{Verdict: api.VerdictWrongAnswer, TimeUsedMs: &ms})
		assert.Equal(t, http.StatusForbidden, api.StatusCode(err))

		j.as(j.admin)
		defer j.as(j.user)
		s, err := j.client.UpdateVerdict(ctx, first.ID, api.VerdictUpdate{Verdict: api.VerdictWrongAnswer, TimeUsedMs: &ms})
		require.NoError(t, err)
		assert.Equal(t, api.VerdictWrongAnswer, s.Verdict)
		assert.Equal(t, 42, s.TimeUsedMs)
	})

	t.Run("submit without token is unauthorized", func(t *testing.T) {
		anon := api.NewClient(j.srv.URL)
		_, err := anon.SubmitSolution(ctx, api.NewSubmission{Problem: p1.ID, Language: api.LanguageC, Code: "x"})
		assert.True(t, api.IsUnauthorized(err))
	})
}

func TestUserStats_AcceptanceRate(t *testing.T) {
	tests := []struct {
		name  string
		stats api.UserStats
		want  int
	}{
		{"no submissions", api.UserStats{}, 0},
		{"all accepted", api.UserStats{TotalSubmissions: 3, VerdictBreakdown: []api.VerdictCount{{Verdict: api.VerdictAccepted, Count: 3}}}, 100},
		{"rounds", api.UserStats{TotalSubmissions: 3, VerdictBreakdown: []api.VerdictCount{{Verdict: api.VerdictAccepted, Count: 2}}}, 67},
		{"none accepted", api.UserStats{TotalSubmissions: 4, VerdictBreakdown: []api.VerdictCount{{Verdict: api.VerdictWrongAnswer, Count: 4}}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.stats.AcceptanceRate())
		})
	}
}
