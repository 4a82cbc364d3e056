package commands

import (
	"context"
	"fmt"

	"github.com/fragmede/ojterm/internal/api"
	"github.com/fragmede/ojterm/internal/render"
)

type StatsCmd struct {
	User string `help:"User id (defaults to the signed-in user)"`
}

func (s *StatsCmd) Run(ctx context.Context, globals *Globals) error {
	d, st, err := globals.connect(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	id, name := s.User, s.User
	if id == "" {
		if !st.IsAuthenticated() {
			return ErrNotSignedIn
		}
		id, name = st.User().ID, st.User().DisplayName()
	}

	stats, err := d.Client.GetUserStats(ctx, id)
	if err != nil {
		return err
	}
	out := globals.out()
	fmt.Fprintf(out, "%s: %s submissions, %d%% accepted\n", name, render.Count(stats.TotalSubmissions), stats.AcceptanceRate())
	if stats.TotalSubmissions > 0 {
		fmt.Fprintln(out, StatsTable(stats))
	}
	return nil
}

// StatsTable renders the per-verdict breakdown, skipping verdicts with no
// submissions.
func StatsTable(stats *api.UserStats) string {
	t := newTable("Verdict", "Count", "Share")
	for _, v := range api.Verdicts {
		n := stats.Count(v)
		if n == 0 {
			continue
		}
		t.Row(v.Text(), render.Count(n), fmt.Sprintf("%d%%", n*100/stats.TotalSubmissions))
	}
	return t.Render()
}
