package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// FileJar is a cookie jar for a single API origin that survives restarts.
// The refresh credential lives here; nothing outside the HTTP layer reads it.
type FileJar struct {
	jar    *cookiejar.Jar
	origin *url.URL
	path   string

	writeMu sync.Mutex // serializes file writes; taken before mu
	mu      sync.Mutex
	cookies map[string]savedCookie
}

// savedJar is the JSON structure written to disk.
type savedJar struct {
	Origin  string        `json:"origin"`
	Cookies []savedCookie `json:"cookies"`
	SavedAt time.Time     `json:"saved_at"`
}

type savedCookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Path     string    `json:"path"`
	Expires  time.Time `json:"expires"`
	Secure   bool      `json:"secure"`
	HttpOnly bool      `json:"http_only"`
}

// cookieKey identifies a cookie the way the jar does within one host.
func cookieKey(name, path string) string {
	return name + ";" + path
}

func (sc savedCookie) expired(now time.Time) bool {
	return !sc.Expires.IsZero() && now.After(sc.Expires)
}

// NewFileJar creates a jar for baseURL backed by path. An empty path keeps
// cookies in memory only.
func NewFileJar(baseURL, path string) (*FileJar, error) {
	origin, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	j := &FileJar{
		jar:     jar,
		origin:  origin,
		path:    path,
		cookies: make(map[string]savedCookie),
	}
	if err := j.load(); err != nil {
		return nil, err
	}
	return j, nil
}

// SetCookies implements http.CookieJar and persists the result.
func (j *FileJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.jar.SetCookies(u, cookies)
	if u.Host != j.origin.Host {
		return
	}

	j.writeMu.Lock()
	defer j.writeMu.Unlock()

	now := time.Now()
	j.mu.Lock()
	for _, c := range cookies {
		if c.MaxAge < 0 || (!c.Expires.IsZero() && c.Expires.Before(now)) {
			delete(j.cookies, cookieKey(c.Name, c.Path))
			continue
		}
		sc := savedCookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		}
		if c.MaxAge > 0 {
			sc.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}
		j.cookies[cookieKey(c.Name, c.Path)] = sc
	}
	j.mu.Unlock()

	if err := j.save(); err != nil {
		log.Warn().Err(err).Str("path", j.path).Msg("persisting cookies failed")
	}
}

// Cookies implements http.CookieJar.
func (j *FileJar) Cookies(u *url.URL) []*http.Cookie {
	return j.jar.Cookies(u)
}

// Clear forgets every cookie, in memory and on disk.
func (j *FileJar) Clear() error {
	j.writeMu.Lock()
	defer j.writeMu.Unlock()

	j.mu.Lock()
	stale := make([]*http.Cookie, 0, len(j.cookies))
	for _, sc := range j.cookies {
		stale = append(stale, &http.Cookie{Name: sc.Name, Path: sc.Path, MaxAge: -1})
	}
	j.cookies = make(map[string]savedCookie)
	j.mu.Unlock()

	j.jar.SetCookies(j.origin, stale)
	if j.path == "" {
		return nil
	}
	if err := os.Remove(j.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (j *FileJar) load() error {
	if j.path == "" {
		return nil
	}
	data, err := os.ReadFile(j.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading cookies: %w", err)
	}

	var saved savedJar
	if err := json.Unmarshal(data, &saved); err != nil {
		// A corrupt file only costs a re-login.
		log.Warn().Err(err).Str("path", j.path).Msg("discarding unreadable cookie file")
		return nil
	}
	if saved.Origin != j.origin.String() {
		return nil
	}

	now := time.Now()
	restored := make([]*http.Cookie, 0, len(saved.Cookies))
	for _, sc := range saved.Cookies {
		if sc.expired(now) {
			continue
		}
		j.cookies[cookieKey(sc.Name, sc.Path)] = sc
		restored = append(restored, &http.Cookie{
			Name:     sc.Name,
			Value:    sc.Value,
			Path:     sc.Path,
			Expires:  sc.Expires,
			Secure:   sc.Secure,
			HttpOnly: sc.HttpOnly,
		})
	}
	j.jar.SetCookies(j.origin, restored)
	return nil
}

// save writes the jar to disk. Callers hold writeMu.
func (j *FileJar) save() error {
	if j.path == "" {
		return nil
	}

	j.mu.Lock()
	saved := savedJar{Origin: j.origin.String(), SavedAt: time.Now()}
	for _, sc := range j.cookies {
		saved.Cookies = append(saved.Cookies, sc)
	}
	j.mu.Unlock()

	data, err := json.MarshalIndent(saved, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(j.path), 0o700); err != nil {
		return err
	}
	tmp := j.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, j.path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
