// Package commands implements the ojterm command line.
package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/fragmede/ojterm/internal/api"
	"github.com/fragmede/ojterm/internal/auth"
	"github.com/fragmede/ojterm/internal/cache"
	"github.com/fragmede/ojterm/internal/config"
	"github.com/fragmede/ojterm/internal/logger"
)

type Globals struct {
	Config    string
	BaseURL   string
	Debug     bool
	Ephemeral bool
	Version   string

	// Out receives command output. Nil means stdout.
	Out io.Writer
}

func (g *Globals) out() io.Writer {
	if g.Out != nil {
		return g.Out
	}
	return os.Stdout
}

// loadConfig reads the config file and applies flag overrides.
func (g *Globals) loadConfig() (config.Config, error) {
	path := g.Config
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if g.BaseURL != "" {
		cfg.BaseURL = g.BaseURL
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// setupLogging sends logs to stderr. Without --debug only warnings and
// errors are shown.
func (g *Globals) setupLogging() {
	logger.Setup(os.Stderr, g.Debug)
	if !g.Debug {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}
}

// Deps is everything a command needs to talk to the judge as the stored user.
type Deps struct {
	Config  config.Config
	DB      *cache.DB
	Jar     *api.FileJar
	Client  *api.Client
	Session *auth.Session
}

// open builds the client stack. With --ephemeral the credential record and
// cookies are kept in memory and forgotten on exit.
func (g *Globals) open(cfg config.Config) (*Deps, error) {
	for _, dir := range []string{cfg.DataDir, filepath.Dir(cfg.DBPath)} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating data dir: %w", err)
		}
	}
	db, err := cache.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening state: %w", err)
	}

	var store auth.Store = db.Sessions()
	cookiePath := cfg.CookiePath
	if g.Ephemeral {
		store = auth.NewMemoryStore()
		cookiePath = ""
	}

	jar, err := api.NewFileJar(cfg.BaseURL, cookiePath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("loading cookies: %w", err)
	}

	client := api.NewClient(cfg.BaseURL,
		api.WithTimeout(cfg.RequestTimeout),
		api.WithCookieJar(jar),
		api.WithTokenSource(auth.TokenFromStore(store)),
	)
	session := auth.NewSession(client, store, auth.WithCredentialReset(jar.Clear))

	return &Deps{Config: cfg, DB: db, Jar: jar, Client: client, Session: session}, nil
}

// Close waits for background session work and closes the state database.
func (d *Deps) Close() error {
	d.Session.Wait()
	return d.DB.Close()
}

// ErrNotSignedIn is returned by commands that need a session when none
// could be restored.
var ErrNotSignedIn = errors.New("not signed in: run `ojterm login` or sign in from the TUI")
