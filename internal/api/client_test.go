package api_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragmede/ojterm/internal/api"
	"github.com/fragmede/ojterm/internal/judgetest"
)

func TestClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/problems/list":
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"statusCode":400,"message":["code must not be empty","title must not be empty"]}`))
		case "/problems/plain":
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("upstream down"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	c := api.NewClient(srv.URL)

	t.Run("json message list", func(t *testing.T) {
		_, err := c.GetProblem(context.Background(), "list")
		var he *api.HTTPError
		require.True(t, errors.As(err, &he))
		assert.Equal(t, http.StatusBadRequest, he.StatusCode)
		assert.Equal(t, http.MethodGet, he.Method)
		assert.Equal(t, "/problems/list", he.Path)
		assert.Equal(t, "code must not be empty; title must not be empty", he.Body)
		assert.Contains(t, err.Error(), "fetching problem list")
	})

	t.Run("plain body", func(t *testing.T) {
		_, err := c.GetProblem(context.Background(), "plain")
		assert.Equal(t, http.StatusBadGateway, api.StatusCode(err))
		assert.Contains(t, err.Error(), "upstream down")
		assert.False(t, api.IsUnauthorized(err))
	})

	t.Run("empty body falls back to status text", func(t *testing.T) {
		_, err := c.GetProblem(context.Background(), "nothing")
		assert.Contains(t, err.Error(), "Not Found")
	})

	t.Run("transport errors carry no status", func(t *testing.T) {
		dead := httptest.NewServer(http.NotFoundHandler())
		dead.Close()
		_, err := api.NewClient(dead.URL).GetProblem(context.Background(), "x")
		require.Error(t, err)
		assert.Zero(t, api.StatusCode(err))
	})
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	c := api.NewClient(srv.URL, api.WithTimeout(50*time.Millisecond))
	_, err := c.ListProblems(context.Background(), 1, 10)
	require.Error(t, err)
}

func TestClient_Problems(t *testing.T) {
	ctx := context.Background()
	j := newJudge(t)
	for _, code := range []string{"A1", "A2", "A3"} {
		j.srv.AddProblem(api.ProblemInput{Code: code, Title: "Problem " + code})
	}

	t.Run("defaults page and size", func(t *testing.T) {
		page, err := j.client.ListProblems(ctx, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, page.Current)
		assert.Equal(t, 10, page.PageSize)
		assert.Len(t, page.Items, 3)
	})

	t.Run("paginates", func(t *testing.T) {
		page, err := j.client.ListProblems(ctx, 2, 2)
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "A3", page.Items[0].Code)
		assert.True(t, page.HasPrev())
		assert.False(t, page.HasNext())
	})

	t.Run("crud requires admin", func(t *testing.T) {
		in := api.ProblemInput{Code: "Z9", Title: "Zigzag", TimeLimitMs: 1000, MemoryLimitMb: 256}
		_, err := j.client.CreateProblem(ctx, in)
		assert.Equal(t, http.StatusForbidden, api.StatusCode(err))

		j.as(j.admin)
		defer j.as(j.user)

		p, err := j.client.CreateProblem(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, api.VisibilityPublic, p.Visibility)

		in = p.Input()
		in.Title = "Zigzag II"
		p, err = j.client.UpdateProblem(ctx, p.ID, in)
		require.NoError(t, err)
		assert.Equal(t, "Zigzag II", p.Title)

		require.NoError(t, j.client.DeleteProblem(ctx, p.ID))
		_, err = j.client.GetProblem(ctx, p.ID)
		assert.Equal(t, http.StatusNotFound, api.StatusCode(err))
	})
}

func TestClient_Auth(t *testing.T) {
	ctx := context.Background()
	srv := judgetest.NewServer(t)
	u := srv.AddUser("ada@example.com", "secret1", "ada")
	jar, err := api.NewFileJar(srv.URL, "")
	require.NoError(t, err)
	c := api.NewClient(srv.URL, api.WithCookieJar(jar))

	resp, err := c.Login(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, resp.User.ID)
	assert.Empty(t, srv.LastAuthorization(judgetest.RouteLogin))

	me, err := c.Me(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "ada", me.Handle)
	assert.Equal(t, "Bearer "+resp.AccessToken, srv.LastAuthorization(judgetest.RouteMe))

	token, err := c.Refresh(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	require.NoError(t, c.Logout(ctx))
	_, err = c.Refresh(ctx)
	assert.True(t, api.IsUnauthorized(err))
}

func TestFileJar(t *testing.T) {
	ctx := context.Background()
	srv := judgetest.NewServer(t)
	srv.AddUser("ada@example.com", "secret1", "ada")
	path := filepath.Join(t.TempDir(), "cookies.json")

	jar, err := api.NewFileJar(srv.URL, path)
	require.NoError(t, err)
	_, err = api.NewClient(srv.URL, api.WithCookieJar(jar)).Login(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	t.Run("survives a restart", func(t *testing.T) {
		reloaded, err := api.NewFileJar(srv.URL, path)
		require.NoError(t, err)
		_, err = api.NewClient(srv.URL, api.WithCookieJar(reloaded)).Refresh(ctx)
		require.NoError(t, err)
	})

	t.Run("ignores cookies saved for another origin", func(t *testing.T) {
		other, err := api.NewFileJar("http://judge.invalid", path)
		require.NoError(t, err)
		_, err = api.NewClient(srv.URL, api.WithCookieJar(other)).Refresh(ctx)
		assert.True(t, api.IsUnauthorized(err))
	})

	t.Run("clear removes the file", func(t *testing.T) {
		require.NoError(t, jar.Clear())
		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err))
		_, err = api.NewClient(srv.URL, api.WithCookieJar(jar)).Refresh(ctx)
		assert.True(t, api.IsUnauthorized(err))
	})

	t.Run("unreadable file is discarded", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "cookies.json")
		require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o600))
		_, err := api.NewFileJar(srv.URL, bad)
		assert.NoError(t, err)
	})
}

func TestFileJar_ConcurrentWrites(t *testing.T) {
	const origin = "http://judge.example"
	path := filepath.Join(t.TempDir(), "cookies.json")
	u, err := url.Parse(origin + "/")
	require.NoError(t, err)

	jar, err := api.NewFileJar(origin, path)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			jar.SetCookies(u, []*http.Cookie{{Name: fmt.Sprintf("c%d", i), Value: "v", Path: "/"}})
		}(i)
	}
	wg.Wait()

	reloaded, err := api.NewFileJar(origin, path)
	require.NoError(t, err)
	assert.Len(t, reloaded.Cookies(u), 16)
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestFileJar_SameNameDifferentPaths(t *testing.T) {
	const origin = "http://judge.example"
	path := filepath.Join(t.TempDir(), "cookies.json")
	base, err := url.Parse(origin + "/")
	require.NoError(t, err)

	jar, err := api.NewFileJar(origin, path)
	require.NoError(t, err)
	jar.SetCookies(base, []*http.Cookie{
		{Name: "session", Value: "auth", Path: "/auth"},
		{Name: "session", Value: "api", Path: "/api"},
	})

	reloaded, err := api.NewFileJar(origin, path)
	require.NoError(t, err)
	valueAt := func(p string) string {
		for _, c := range reloaded.Cookies(base.JoinPath(p)) {
			if c.Name == "session" {
				return c.Value
			}
		}
		return ""
	}
	assert.Equal(t, "auth", valueAt("/auth/refresh"))
	assert.Equal(t, "api", valueAt("/api/problems"))

	t.Run("expiring one path keeps the other", func(t *testing.T) {
		jar.SetCookies(base, []*http.Cookie{{Name: "session", Path: "/api", MaxAge: -1}})
		reloaded, err = api.NewFileJar(origin, path)
		require.NoError(t, err)
		assert.Equal(t, "auth", valueAt("/auth/refresh"))
		assert.Empty(t, valueAt("/api/problems"))
	})
}
