// Package judgetest runs an in-process fake of the judge API for tests.
//
// It implements every endpoint the client consumes, issues HS256 access
// tokens and an HTTP-only refresh cookie, and lets tests force a status code
// on any route by name.
package judgetest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/fragmede/ojterm/internal/api"
)

// Route names accepted by Fail and Calls.
const (
	RouteLogin             = "login"
	RouteRegister          = "register"
	RouteRefresh           = "refresh"
	RouteMe                = "me"
	RouteLogout            = "logout"
	RouteProblemsList      = "problems.list"
	RouteProblemsGet       = "problems.get"
	RouteProblemsCreate    = "problems.create"
	RouteProblemsUpdate    = "problems.update"
	RouteProblemsDelete    = "problems.delete"
	RouteSubmissionsCreate = "submissions.create"
	RouteSubmissionsList   = "submissions.list"
	RouteSubmissionsGet    = "submissions.get"
	RouteSubmissionsByProb = "submissions.problem"
	RouteSubmissionsByUser = "submissions.user"
	RouteSubmissionsStats  = "submissions.stats"
	RouteSubmissionsVerdct = "submissions.verdict"
)

// RefreshCookie is the name of the refresh credential cookie.
const RefreshCookie = "refresh_token"

type account struct {
	user     api.User
	password string
}

// Server is a fake judge API.
type Server struct {
	*httptest.Server

	TokenTTL time.Duration

	mu          sync.Mutex
	secret      []byte
	accounts    map[string]*account // by email
	refresh     map[string]string   // refresh token -> user id
	problems    map[string]*api.Problem
	problemIDs  []string
	submissions map[string]*api.Submission
	submitIDs   []string
	faults      map[string]int
	calls       map[string]int
	lastAuth    map[string]string
}

// NewServer starts a fake judge that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	s := &Server{
		TokenTTL:    15 * time.Minute,
		secret:      []byte(uuid.NewString()),
		accounts:    make(map[string]*account),
		refresh:     make(map[string]string),
		problems:    make(map[string]*api.Problem),
		submissions: make(map[string]*api.Submission),
		faults:      make(map[string]int),
		calls:       make(map[string]int),
		lastAuth:    make(map[string]string),
	}
	s.Server = httptest.NewServer(s.router())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.instrument)

	r.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost).Name(RouteLogin)
	r.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost).Name(RouteRegister)
	r.HandleFunc("/auth/refresh", s.handleRefresh).Methods(http.MethodPost).Name(RouteRefresh)
	r.HandleFunc("/auth/me", s.handleMe).Methods(http.MethodGet).Name(RouteMe)
	r.HandleFunc("/auth/logout", s.handleLogout).Methods(http.MethodPost).Name(RouteLogout)

	r.HandleFunc("/problems", s.handleListProblems).Methods(http.MethodGet).Name(RouteProblemsList)
	r.HandleFunc("/problems", s.handleCreateProblem).Methods(http.MethodPost).Name(RouteProblemsCreate)
	r.HandleFunc("/problems/{id}", s.handleGetProblem).Methods(http.MethodGet).Name(RouteProblemsGet)
	r.HandleFunc("/problems/{id}", s.handleUpdateProblem).Methods(http.MethodPut).Name(RouteProblemsUpdate)
	r.HandleFunc("/problems/{id}", s.handleDeleteProblem).Methods(http.MethodDelete).Name(RouteProblemsDelete)

	r.HandleFunc("/submissions", s.handleCreateSubmission).Methods(http.MethodPost).Name(RouteSubmissionsCreate)
	r.HandleFunc("/submissions", s.handleListSubmissions).Methods(http.MethodGet).Name(RouteSubmissionsList)
	r.HandleFunc("/submissions/problem/{id}", s.handleProblemSubmissions).Methods(http.MethodGet).Name(RouteSubmissionsByProb)
	r.HandleFunc("/submissions/user/{id}/stats", s.handleUserStats).Methods(http.MethodGet).Name(RouteSubmissionsStats)
	r.HandleFunc("/submissions/user/{id}", s.handleUserSubmissions).Methods(http.MethodGet).Name(RouteSubmissionsByUser)
	r.HandleFunc("/submissions/{id}/verdict", s.handleUpdateVerdict).Methods(http.MethodPut).Name(RouteSubmissionsVerdct)
	r.HandleFunc("/submissions/{id}", s.handleGetSubmission).Methods(http.MethodGet).Name(RouteSubmissionsGet)
	return r
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := ""
		if route := mux.CurrentRoute(r); route != nil {
			name = route.GetName()
		}
		s.mu.Lock()
		s.calls[name]++
		s.lastAuth[name] = r.Header.Get("Authorization")
		status := s.faults[name]
		s.mu.Unlock()

		if status != 0 {
			writeError(w, status, "injected failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Fail makes every request to route answer with status. Zero clears it.
func (s *Server) Fail(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.faults, route)
		return
	}
	s.faults[route] = status
}

// Calls returns how many requests route has received.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// LastAuthorization returns the Authorization header of the latest request to route.
func (s *Server) LastAuthorization(route string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAuth[route]
}

// AddUser registers an account directly.
func (s *Server) AddUser(email, password, handle string, roles ...api.Role) api.User {
	if len(roles) == 0 {
		roles = []api.Role{api.RoleUser}
	}
	u := api.User{
		ID:     uuid.NewString(),
		Handle: handle,
		Name:   handle,
		Email:  email,
		Roles:  roles,
	}
	s.mu.Lock()
	s.accounts[strings.ToLower(email)] = &account{user: u, password: password}
	s.mu.Unlock()
	return u
}

// IssueToken returns a valid access token for userID.
func (s *Server) IssueToken(userID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueLocked(userID)
}

// RevokeTokens invalidates every access token issued so far.
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	s.secret = []byte(uuid.NewString())
	s.mu.Unlock()
}

// RefreshSessions returns the number of live refresh credentials.
func (s *Server) RefreshSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.refresh)
}

// AddProblem stores a public problem directly.
func (s *Server) AddProblem(in api.ProblemInput) api.Problem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.createProblemLocked(in)
}

// SetVerdict grades a submission directly.
func (s *Server) SetVerdict(id string, v api.Verdict) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub, ok := s.submissions[id]; ok {
		sub.Verdict = v
		sub.UpdatedAt = time.Now().UTC()
	}
}

// Submission returns a copy of a stored submission.
func (s *Server) Submission(id string) (api.Submission, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.submissions[id]
	if !ok {
		return api.Submission{}, false
	}
	return *sub, true
}

func (s *Server) issueLocked(userID string) string {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.TokenTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		panic(err)
	}
	return signed
}

// authenticate resolves the bearer token on r to an account.
func (s *Server) authenticate(r *http.Request) (*account, bool) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		return nil, false
	}

	s.mu.Lock()
	secret := s.secret
	s.mu.Unlock()

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accountByIDLocked(claims.Subject)
}

func (s *Server) accountByIDLocked(id string) (*account, bool) {
	for _, a := range s.accounts {
		if a.user.ID == id {
			return a, true
		}
	}
	return nil, false
}

func isAdmin(a *account) bool {
	for _, r := range a.user.Roles {
		if r == api.RoleAdmin || r == api.RoleSuperAdmin {
			return true
		}
	}
	return false
}

func (s *Server) startSession(w http.ResponseWriter, a *account) {
	s.mu.Lock()
	token := s.issueLocked(a.user.ID)
	rt := uuid.NewString()
	s.refresh[rt] = a.user.ID
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    rt,
		Path:     "/auth",
		HttpOnly: true,
		MaxAge:   int((7 * 24 * time.Hour).Seconds()),
	})
	writeJSON(w, http.StatusOK, api.AuthResponse{AccessToken: token, User: a.user.Clone()})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in api.Credentials
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.mu.Lock()
	a, ok := s.accounts[strings.ToLower(in.Email)]
	s.mu.Unlock()
	if !ok || a.password != in.Password {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	s.startSession(w, a)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in api.Registration
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if in.Email == "" || in.Password == "" || in.Handle == "" {
		writeError(w, http.StatusBadRequest, "email, password and handle are required")
		return
	}
	s.mu.Lock()
	_, exists := s.accounts[strings.ToLower(in.Email)]
	s.mu.Unlock()
	if exists {
		writeError(w, http.StatusConflict, "Email already registered")
		return
	}
	s.AddUser(in.Email, in.Password, in.Handle)
	s.mu.Lock()
	a := s.accounts[strings.ToLower(in.Email)]
	s.mu.Unlock()
	s.startSession(w, a)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(RefreshCookie)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "missing refresh token")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.refresh[c.Value]
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": s.issueLocked(userID)})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	a, ok := s.authenticate(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, a.user)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(RefreshCookie); err == nil {
		s.mu.Lock()
		delete(s.refresh, c.Value)
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: RefreshCookie, Path: "/auth", MaxAge: -1})
	w.WriteHeader(http.StatusNoContent)
}

func pageParams(r *http.Request) (int, int) {
	current, _ := strconv.Atoi(r.URL.Query().Get("current"))
	if current <= 0 {
		current = 1
	}
	size, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if size <= 0 {
		size = 10
	}
	return current, size
}

func paginate[T any](all []T, current, size int) api.Page[T] {
	total := len(all)
	pages := (total + size - 1) / size
	start := (current - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	return api.Page[T]{
		Items:      append([]T{}, all[start:end]...),
		Total:      total,
		Current:    current,
		PageSize:   size,
		TotalPages: pages,
	}
}

func (s *Server) handleListProblems(w http.ResponseWriter, r *http.Request) {
	current, size := pageParams(r)
	s.mu.Lock()
	all := make([]api.Problem, 0, len(s.problemIDs))
	for _, id := range s.problemIDs {
		all = append(all, *s.problems[id])
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, paginate(all, current, size))
}

func (s *Server) handleGetProblem(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	p, ok := s.problems[mux.Vars(r)["id"]]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Problem not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// requireAdmin writes the failure response and returns false when r does not
// carry an admin token.
func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	a, ok := s.authenticate(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return false
	}
	if !isAdmin(a) {
		writeError(w, http.StatusForbidden, "Forbidden resource")
		return false
	}
	return true
}

func (s *Server) createProblemLocked(in api.ProblemInput) *api.Problem {
	now := time.Now().UTC()
	vis := in.Visibility
	if vis == "" {
		vis = api.VisibilityPublic
	}
	p := &api.Problem{
		ID:            uuid.NewString(),
		Code:          in.Code,
		Title:         in.Title,
		Statement:     in.Statement,
		Difficulty:    in.Difficulty,
		TimeLimitMs:   in.TimeLimitMs,
		MemoryLimitMb: in.MemoryLimitMb,
		InputSpec:     in.InputSpec,
		OutputSpec:    in.OutputSpec,
		Samples:       in.Samples,
		Tags:          in.Tags,
		Visibility:    vis,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.problems[p.ID] = p
	s.problemIDs = append(s.problemIDs, p.ID)
	return p
}

func (s *Server) handleCreateProblem(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	var in api.ProblemInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Code == "" || in.Title == "" {
		writeError(w, http.StatusBadRequest, "code and title are required")
		return
	}
	s.mu.Lock()
	p := s.createProblemLocked(in)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleUpdateProblem(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	var in api.ProblemInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.problems[mux.Vars(r)["id"]]
	if !ok {
		writeError(w, http.StatusNotFound, "Problem not found")
		return
	}
	id, created := p.ID, p.CreatedAt
	vis := in.Visibility
	if vis == "" {
		vis = p.Visibility
	}
	*p = api.Problem{
		ID:            id,
		Code:          in.Code,
		Title:         in.Title,
		Statement:     in.Statement,
		Difficulty:    in.Difficulty,
		TimeLimitMs:   in.TimeLimitMs,
		MemoryLimitMb: in.MemoryLimitMb,
		InputSpec:     in.InputSpec,
		OutputSpec:    in.OutputSpec,
		Samples:       in.Samples,
		Tags:          in.Tags,
		Visibility:    vis,
		CreatedAt:     created,
		UpdatedAt:     time.Now().UTC(),
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProblem(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.problems[id]; !ok {
		writeError(w, http.StatusNotFound, "Problem not found")
		return
	}
	delete(s.problems, id)
	for i, pid := range s.problemIDs {
		if pid == id {
			s.problemIDs = append(s.problemIDs[:i], s.problemIDs[i+1:]...)
			break
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateSubmission(w http.ResponseWriter, r *http.Request) {
	a, ok := s.authenticate(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var in api.NewSubmission
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Code == "" || in.Language == "" {
		writeError(w, http.StatusBadRequest, "problem, language and code are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.problems[in.Problem]
	if !ok {
		writeError(w, http.StatusNotFound, "Problem not found")
		return
	}
	now := time.Now().UTC()
	sub := &api.Submission{
		ID:       uuid.NewString(),
		User:     api.SubmissionUser{ID: a.user.ID, Handle: a.user.Handle},
		Problem:  api.SubmissionProblem{ID: p.ID, Code: p.Code, Title: p.Title},
		Language: in.Language,
		Verdict:  api.VerdictPending,
		Code:     in.Code,
		// Submissions arrive in order; keep creation times distinct for sorting.
		CreatedAt: now.Add(time.Duration(len(s.submitIDs)) * time.Millisecond),
		UpdatedAt: now,
	}
	s.submissions[sub.ID] = sub
	s.submitIDs = append(s.submitIDs, sub.ID)
	writeJSON(w, http.StatusCreated, sub)
}

// filteredLocked returns submissions newest first.
func (s *Server) filteredLocked(match func(*api.Submission) bool) []api.Submission {
	var out []api.Submission
	for _, id := range s.submitIDs {
		if sub := s.submissions[id]; match(sub) {
			out = append(out, *sub)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	current, size := pageParams(r)
	user, problem := q.Get("user"), q.Get("problem")
	lang, verdict := api.Language(q.Get("language")), api.Verdict(q.Get("verdict"))

	s.mu.Lock()
	all := s.filteredLocked(func(sub *api.Submission) bool {
		switch {
		case user != "" && sub.User.ID != user && sub.User.Handle != user:
			return false
		case problem != "" && sub.Problem.ID != problem && sub.Problem.Code != problem:
			return false
		case lang != "" && sub.Language != lang:
			return false
		case verdict != "" && sub.Verdict != verdict:
			return false
		}
		return true
	})
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, paginate(all, current, size))
}

func (s *Server) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	sub, ok := s.submissions[mux.Vars(r)["id"]]
	var out api.Submission
	if ok {
		out = *sub
	}
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Submission not found")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleProblemSubmissions(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	out := s.filteredLocked(func(sub *api.Submission) bool { return sub.Problem.ID == id })
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, nonNil(out))
}

func (s *Server) handleUserSubmissions(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	out := s.filteredLocked(func(sub *api.Submission) bool { return sub.User.ID == id })
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, nonNil(out))
}

func (s *Server) handleUserStats(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(r); !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	counts := make(map[api.Verdict]int)
	total := 0
	for _, sub := range s.submissions {
		if sub.User.ID == id {
			counts[sub.Verdict]++
			total++
		}
	}
	s.mu.Unlock()

	stats := api.UserStats{TotalSubmissions: total, VerdictBreakdown: []api.VerdictCount{}}
	for _, v := range api.Verdicts {
		if n := counts[v]; n > 0 {
			stats.VerdictBreakdown = append(stats.VerdictBreakdown, api.VerdictCount{Verdict: v, Count: n})
		}
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleUpdateVerdict(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	var upd api.VerdictUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil || upd.Verdict == "" {
		writeError(w, http.StatusBadRequest, "verdict is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.submissions[mux.Vars(r)["id"]]
	if !ok {
		writeError(w, http.StatusNotFound, "Submission not found")
		return
	}
	sub.Verdict = upd.Verdict
	if upd.TimeUsedMs != nil {
		sub.TimeUsedMs = *upd.TimeUsedMs
	}
	if upd.MemoryUsedKb != nil {
		sub.MemoryUsedKb = *upd.MemoryUsedKb
	}
	if upd.ErrorMessage != nil {
		sub.ErrorMessage = *upd.ErrorMessage
	}
	if upd.TestCasesPassed != nil {
		sub.TestCasesPassed = *upd.TestCasesPassed
	}
	if upd.TotalTestCases != nil {
		sub.TotalTestCases = *upd.TotalTestCases
	}
	sub.UpdatedAt = time.Now().UTC()
	writeJSON(w, http.StatusOK, sub)
}

func nonNil(subs []api.Submission) []api.Submission {
	if subs == nil {
		return []api.Submission{}
	}
	return subs
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"statusCode": status,
		"message":    msg,
	})
}
