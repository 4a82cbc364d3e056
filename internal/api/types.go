package api

import (
	"strings"
	"time"
)

// Verdict is the grading outcome of a submission.
type Verdict string

const (
	VerdictPending             Verdict = "pending"
	VerdictAccepted            Verdict = "accepted"
	VerdictWrongAnswer         Verdict = "wrong_answer"
	VerdictTimeLimitExceeded   Verdict = "time_limit_exceeded"
	VerdictMemoryLimitExceeded Verdict = "memory_limit_exceeded"
	VerdictRuntimeError        Verdict = "runtime_error"
	VerdictCompilationError    Verdict = "compilation_error"
	VerdictSystemError         Verdict = "system_error"
)

// Verdicts lists every verdict the judge reports, in display order.
var Verdicts = []Verdict{
	VerdictAccepted,
	VerdictWrongAnswer,
	VerdictTimeLimitExceeded,
	VerdictMemoryLimitExceeded,
	VerdictRuntimeError,
	VerdictCompilationError,
	VerdictSystemError,
	VerdictPending,
}

// IsFinal reports whether the judge is done with the submission.
func (v Verdict) IsFinal() bool {
	return v != VerdictPending && v != ""
}

// Language is a programming language accepted by the judge.
type Language string

const (
	LanguageCPP        Language = "cpp"
	LanguageJava       Language = "java"
	LanguagePython     Language = "python"
	LanguageJavaScript Language = "javascript"
	LanguageC          Language = "c"
)

var Languages = []Language{
	LanguageCPP,
	LanguageJava,
	LanguagePython,
	LanguageJavaScript,
	LanguageC,
}

// ParseLanguage accepts either the wire value or the display name.
func ParseLanguage(s string) (Language, bool) {
	s = strings.TrimSpace(s)
	for _, l := range Languages {
		if strings.EqualFold(s, string(l)) || strings.EqualFold(s, l.DisplayName()) {
			return l, true
		}
	}
	return "", false
}

// Role is a permission tag carried on a user identity.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// Known reports whether r is one of the roles the client understands.
func (r Role) Known() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// User is the identity snapshot returned by the auth endpoints.
type User struct {
	ID     string `json:"id"`
	Handle string `json:"handle"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email"`
	Roles  []Role `json:"roles,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// DisplayName prefers the handle, then the name, then the email.
func (u *User) DisplayName() string {
	switch {
	case u == nil:
		return ""
	case u.Handle != "":
		return u.Handle
	case u.Name != "":
		return u.Name
	}
	return u.Email
}

// Clone returns a deep copy of u.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Roles = append([]Role(nil), u.Roles...)
	return &c
}

// AuthResponse is the body of a successful login or registration.
type AuthResponse struct {
	AccessToken string `json:"accessToken"`
	User        *User  `json:"user"`
}

// Valid reports whether both the token and the identity are present.
func (r *AuthResponse) Valid() bool {
	return r != nil && r.AccessToken != "" && r.User != nil && r.User.ID != ""
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Registration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Handle   string `json:"handle"`
}

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Sample is an example input/output pair shown with a problem.
type Sample struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

type Problem struct {
	ID            string     `json:"_id"`
	Code          string     `json:"code"`
	Title         string     `json:"title"`
	Statement     string     `json:"statement"`
	Difficulty    int        `json:"difficulty"`
	TimeLimitMs   int        `json:"timeLimitMs"`
	MemoryLimitMb int        `json:"memoryLimitMb"`
	InputSpec     string     `json:"inputSpec"`
	OutputSpec    string     `json:"outputSpec"`
	Samples       []Sample   `json:"samples"`
	Tags          []string   `json:"tags"`
	Visibility    Visibility `json:"visibility"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Input returns the editable fields of p.
func (p *Problem) Input() ProblemInput {
	return ProblemInput{
		Code:          p.Code,
		Title:         p.Title,
		Statement:     p.Statement,
		Difficulty:    p.Difficulty,
		TimeLimitMs:   p.TimeLimitMs,
		MemoryLimitMb: p.MemoryLimitMb,
		InputSpec:     p.InputSpec,
		OutputSpec:    p.OutputSpec,
		Samples:       append([]Sample(nil), p.Samples...),
		Tags:          append([]string(nil), p.Tags...),
		Visibility:    p.Visibility,
	}
}

// ProblemInput is the body for creating or updating a problem.
type ProblemInput struct {
	Code          string     `json:"code"`
	Title         string     `json:"title"`
	Statement     string     `json:"statement"`
	Difficulty    int        `json:"difficulty"`
	TimeLimitMs   int        `json:"timeLimitMs"`
	MemoryLimitMb int        `json:"memoryLimitMb"`
	InputSpec     string     `json:"inputSpec"`
	OutputSpec    string     `json:"outputSpec"`
	Samples       []Sample   `json:"samples"`
	Tags          []string   `json:"tags"`
	Visibility    Visibility `json:"visibility,omitempty"`
}

// Page is one page of a paginated listing.
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Current    int `json:"current"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

// HasNext reports whether a later page exists.
func (p *Page[T]) HasNext() bool {
	return p.Current < p.TotalPages
}

// HasPrev reports whether an earlier page exists.
func (p *Page[T]) HasPrev() bool {
	return p.Current > 1
}

type SubmissionUser struct {
	ID     string `json:"_id"`
	Handle string `json:"handle"`
}

type SubmissionProblem struct {
	ID    string `json:"_id"`
	Code  string `json:"code"`
	Title string `json:"title"`
}

type Submission struct {
	ID              string            `json:"_id"`
	User            SubmissionUser    `json:"user"`
	Problem         SubmissionProblem `json:"problem"`
	Language        Language          `json:"language"`
	Verdict         Verdict           `json:"verdict"`
	TimeUsedMs      int               `json:"timeUsedMs"`
	MemoryUsedKb    int               `json:"memoryUsedKb"`
	Code            string            `json:"code"`
	ErrorMessage    string            `json:"errorMessage,omitempty"`
	TestCasesPassed int               `json:"testCasesPassed"`
	TotalTestCases  int               `json:"totalTestCases"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// NewSubmission is the body for submitting a solution.
type NewSubmission struct {
	Problem  string   `json:"problem"`
	Language Language `json:"language"`
	Code     string   `json:"code"`
}

// VerdictUpdate is the grader's report for a submission. Nil fields are omitted.
type VerdictUpdate struct {
	Verdict         Verdict `json:"verdict"`
	TimeUsedMs      *int    `json:"timeUsedMs,omitempty"`
	MemoryUsedKb    *int    `json:"memoryUsedKb,omitempty"`
	ErrorMessage    *string `json:"errorMessage,omitempty"`
	TestCasesPassed *int    `json:"testCasesPassed,omitempty"`
	TotalTestCases  *int    `json:"totalTestCases,omitempty"`
}

type VerdictCount struct {
	Verdict Verdict `json:"_id"`
	Count   int     `json:"count"`
}

// UserStats is the per-user aggregate returned by the judge.
type UserStats struct {
	TotalSubmissions int            `json:"totalSubmissions"`
	VerdictBreakdown []VerdictCount `json:"verdictBreakdown"`
}

// Count returns the number of submissions with verdict v.
func (s *UserStats) Count(v Verdict) int {
	for _, vc := range s.VerdictBreakdown {
		if vc.Verdict == v {
			return vc.Count
		}
	}
	return 0
}

// AcceptanceRate is the rounded percentage of accepted submissions.
func (s *UserStats) AcceptanceRate() int {
	if s.TotalSubmissions <= 0 {
		return 0
	}
	return (s.Count(VerdictAccepted)*100 + s.TotalSubmissions/2) / s.TotalSubmissions
}
