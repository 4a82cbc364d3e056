// Package auth owns the signed-in identity of the client.
//
// A Session is created once per process and handed to every view and command
// that needs to know who is using the client. It restores the previous
// session at startup, performs login, signup and logout, and persists the
// credential record through an injected Store.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fragmede/ojterm/internal/api"
)

// Keys of the persisted credential record.
const (
	KeyAccessToken  = "accessToken"
	KeyUser         = "user"
	KeyUserExtended = "userExtended"
)

var persistedKeys = []string{KeyAccessToken, KeyUser, KeyUserExtended}

// Store is durable key/value storage for the credential record.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(keys ...string) error
}

// Backend is the subset of the judge API the session talks to.
// *api.Client satisfies it.
type Backend interface {
	Login(ctx context.Context, email, password string) (*api.AuthResponse, error)
	Register(ctx context.Context, reg api.Registration) (*api.AuthResponse, error)
	Refresh(ctx context.Context) (string, error)
	Me(ctx context.Context, token string) (*api.User, error)
	Logout(ctx context.Context) error
}

// ExtendedProfile is supplementary profile data kept alongside the identity.
type ExtendedProfile struct {
	Role        string      `json:"role"`
	Permissions []string    `json:"permissions"`
	LastLogin   time.Time   `json:"lastLogin"`
	Department  string      `json:"department"`
	Avatar      string      `json:"avatar,omitempty"`
	Preferences Preferences `json:"preferences"`
}

type Preferences struct {
	Theme         string `json:"theme"`
	Language      string `json:"language"`
	Notifications bool   `json:"notifications"`
}

// Session is the single source of truth for the current identity.
//
// Operations are not serialized against each other: if two mutate the
// session concurrently, whichever finishes last determines the outcome.
type Session struct {
	backend Backend
	store   Store
	reset   func() error

	restoreOnce sync.Once
	background  sync.WaitGroup

	mu          sync.Mutex
	user        *api.User
	initialized bool
	inflight    int
	signIns     uint64 // bumped when a login or signup starts
}

type Option func(*Session)

// WithCredentialReset registers fn to drop the refresh credential held by the
// HTTP layer once a logout has been sent.
func WithCredentialReset(fn func() error) Option {
	return func(s *Session) { s.reset = fn }
}

// NewSession returns an empty session in the Initializing phase.
func NewSession(backend Backend, store Store, opts ...Option) *Session {
	s := &Session{backend: backend, store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TokenFromStore reads the access token from store on every call.
func TokenFromStore(store Store) api.TokenSource {
	return func() string {
		token, ok, err := store.Get(KeyAccessToken)
		if err != nil {
			log.Warn().Err(err).Msg("reading access token")
			return ""
		}
		if !ok {
			return ""
		}
		return token
	}
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		user:        s.user.Clone(),
		initialized: s.initialized,
		loading:     !s.initialized || s.inflight > 0,
	}
}

// User returns a copy of the current identity, or nil.
func (s *Session) User() *api.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user.Clone()
}

// AccessToken returns the persisted access token, or "".
func (s *Session) AccessToken() string {
	return TokenFromStore(s.store)()
}

// beginSignIn marks a login or signup as in flight and invalidates the
// credential reset of any logout still running.
func (s *Session) beginSignIn() {
	s.mu.Lock()
	s.inflight++
	s.signIns++
	s.mu.Unlock()
}

func (s *Session) end() {
	s.mu.Lock()
	s.inflight--
	s.mu.Unlock()
}

// Restore reconstructs the previous session. Only the first call does any
// work; concurrent and later callers wait for it and get its result. Failures
// of any kind leave the session unauthenticated and are never returned.
func (s *Session) Restore(ctx context.Context) State {
	s.restoreOnce.Do(func() {
		user := s.restore(ctx)

		s.mu.Lock()
		s.user = user
		s.initialized = true
		s.mu.Unlock()
	})
	return s.State()
}

func (s *Session) restore(ctx context.Context) *api.User {
	token, ok, err := s.store.Get(KeyAccessToken)
	if err != nil {
		log.Warn().Err(err).Msg("reading stored access token")
	}

	if !ok || token == "" {
		token, err = s.backend.Refresh(ctx)
		if err != nil {
			log.Debug().Err(err).Msg("no session to restore")
			s.clear()
			return nil
		}
		if err := s.store.Set(KeyAccessToken, token); err != nil {
			log.Error().Err(err).Msg("persisting refreshed token")
			s.clear()
			return nil
		}
	}

	user, err := s.backend.Me(ctx, token)
	if err != nil {
		log.Info().Err(err).Msg("stored session rejected, clearing credentials")
		s.clear()
		return nil
	}

	snapshot, err := json.Marshal(user)
	if err == nil {
		err = s.store.Set(KeyUser, string(snapshot))
	}
	if err != nil {
		log.Error().Err(err).Msg("persisting user snapshot")
		s.clear()
		return nil
	}

	log.Info().Str("user", user.ID).Str("handle", user.Handle).Msg("session restored")
	return user
}

// Login exchanges credentials for a session. On any error the session is
// left exactly as it was.
func (s *Session) Login(ctx context.Context, email, password string) error {
	s.beginSignIn()
	defer s.end()

	resp, err := s.backend.Login(ctx, email, password)
	if err != nil {
		logFailure(err, "login")
		return err
	}
	return s.establish(resp)
}

// Signup registers an account and signs it in, with the same guarantees as
// Login. Reserved addresses are not checked here.
func (s *Session) Signup(ctx context.Context, email, password, handle string) error {
	s.beginSignIn()
	defer s.end()

	resp, err := s.backend.Register(ctx, api.Registration{Email: email, Password: password, Handle: handle})
	if err != nil {
		logFailure(err, "signup")
		return err
	}
	return s.establish(resp)
}

func logFailure(err error, op string) {
	if api.StatusCode(err) == 0 && !errors.Is(err, api.ErrMalformedResponse) {
		log.Error().Err(err).Str("op", op).Msg("auth request failed")
		return
	}
	log.Debug().Err(err).Str("op", op).Msg("auth request rejected")
}

func (s *Session) establish(resp *api.AuthResponse) error {
	if !resp.Valid() {
		return api.ErrMalformedResponse
	}
	snapshot, err := json.Marshal(resp.User)
	if err != nil {
		return fmt.Errorf("encoding user: %w", err)
	}
	if err := s.persist(resp.AccessToken, string(snapshot)); err != nil {
		return err
	}

	s.mu.Lock()
	s.user = resp.User.Clone()
	s.mu.Unlock()

	log.Info().Str("user", resp.User.ID).Str("handle", resp.User.Handle).Msg("signed in")
	return nil
}

// persist writes both keys of the credential record or neither.
func (s *Session) persist(token, user string) error {
	prevToken, hadToken, err := s.store.Get(KeyAccessToken)
	if err != nil {
		return fmt.Errorf("reading credentials: %w", err)
	}
	prevUser, hadUser, err := s.store.Get(KeyUser)
	if err != nil {
		return fmt.Errorf("reading credentials: %w", err)
	}

	if err := s.store.Set(KeyAccessToken, token); err != nil {
		return fmt.Errorf("saving access token: %w", err)
	}
	if err := s.store.Set(KeyUser, user); err != nil {
		s.rollback(KeyAccessToken, prevToken, hadToken)
		s.rollback(KeyUser, prevUser, hadUser)
		return fmt.Errorf("saving user: %w", err)
	}

	// The extended record belongs to whoever signed in before.
	if err := s.store.Remove(KeyUserExtended); err != nil {
		log.Warn().Err(err).Msg("dropping extended profile")
	}
	return nil
}

func (s *Session) rollback(key, prev string, had bool) {
	var err error
	if had {
		err = s.store.Set(key, prev)
	} else {
		err = s.store.Remove(key)
	}
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("rolling back credential record")
	}
}

func (s *Session) clear() {
	if err := s.store.Remove(persistedKeys...); err != nil {
		log.Error().Err(err).Msg("clearing credential record")
	}
}

// Logout forgets the identity immediately and revokes the refresh credential
// on the server in the background. Failure of the revoke is only logged.
func (s *Session) Logout(ctx context.Context) {
	s.mu.Lock()
	s.user = nil
	gen := s.signIns
	s.mu.Unlock()
	s.clear()

	ctx = context.WithoutCancel(ctx)
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		if err := s.backend.Logout(ctx); err != nil {
			log.Warn().Err(err).Msg("server logout failed")
		}
		if s.reset == nil {
			return
		}
		s.mu.Lock()
		stale := s.signIns != gen
		s.mu.Unlock()
		if stale {
			// The jar now holds the credential of the newer sign-in.
			log.Debug().Msg("keeping refresh credential of newer sign-in")
			return
		}
		if err := s.reset(); err != nil {
			log.Warn().Err(err).Msg("dropping refresh credential")
		}
	}()
	log.Info().Msg("signed out")
}

// Wait blocks until background logout calls have finished.
func (s *Session) Wait() {
	s.background.Wait()
}

// UserExtendedData returns the cached extended profile of the signed-in
// user, or nil when there is none.
//
// TODO: fetch the extended profile from the judge once it exposes an
// endpoint for it, and cache it under KeyUserExtended.
func (s *Session) UserExtendedData() *ExtendedProfile {
	if !s.State().IsAuthenticated() {
		return nil
	}
	raw, ok, err := s.store.Get(KeyUserExtended)
	if err != nil || !ok {
		return nil
	}
	var p ExtendedProfile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		log.Warn().Err(err).Msg("discarding unreadable extended profile")
		return nil
	}
	return &p
}
