package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/fragmede/ojterm/internal/auth"
)

// connect opens the client stack and restores the stored session.
func (g *Globals) connect(ctx context.Context) (*Deps, auth.State, error) {
	g.setupLogging()
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, auth.State{}, err
	}
	d, err := g.open(cfg)
	if err != nil {
		return nil, auth.State{}, err
	}
	return d, d.Session.Restore(ctx), nil
}

type WhoamiCmd struct{}

func (w *WhoamiCmd) Run(ctx context.Context, globals *Globals) error {
	d, st, err := globals.connect(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	if !st.IsAuthenticated() {
		return ErrNotSignedIn
	}
	u := st.User()
	roles := make([]string, len(u.Roles))
	for i, r := range u.Roles {
		roles[i] = string(r)
	}
	out := globals.out()
	fmt.Fprintf(out, "%s <%s>\n", u.DisplayName(), u.Email)
	fmt.Fprintf(out, "id:    %s\n", u.ID)
	fmt.Fprintf(out, "roles: %s\n", strings.Join(roles, ", "))
	return nil
}

type LoginCmd struct {
	Email    string `help:"Account email" required:""`
	Password string `help:"Account password" env:"OJTERM_PASSWORD" required:""`
}

func (l *LoginCmd) Run(ctx context.Context, globals *Globals) error {
	d, st, err := globals.connect(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	if st.IsAuthenticated() {
		fmt.Fprintf(globals.out(), "Already signed in as %s\n", st.User().DisplayName())
		return nil
	}
	if err := d.Session.Login(ctx, l.Email, l.Password); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	fmt.Fprintf(globals.out(), "Signed in as %s\n", d.Session.State().User().DisplayName())
	return nil
}

type LogoutCmd struct{}

func (l *LogoutCmd) Run(ctx context.Context, globals *Globals) error {
	d, st, err := globals.connect(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	if !st.IsAuthenticated() {
		fmt.Fprintln(globals.out(), "Not signed in")
		return nil
	}
	d.Session.Logout(ctx)
	fmt.Fprintf(globals.out(), "Signed out %s\n", st.User().DisplayName())
	return nil
}
