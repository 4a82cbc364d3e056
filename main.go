package main

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/fragmede/ojterm/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Config    string `help:"Config file (defaults to the user config dir)" type:"path"`
		BaseURL   string `help:"Judge API base URL" env:"OJTERM_BASE_URL"`
		Debug     bool   `help:"Enable debug logging."`
		Ephemeral bool   `help:"Keep the session in memory only."`
		Version   kong.VersionFlag

		Tui      commands.TuiCmd      `cmd:"" default:"1" help:"Run the terminal UI"`
		Login    commands.LoginCmd    `cmd:"" help:"Sign in"`
		Whoami   commands.WhoamiCmd   `cmd:"" help:"Show the signed-in user"`
		Logout   commands.LogoutCmd   `cmd:"" help:"Sign out"`
		Problems commands.ProblemsCmd `cmd:"" help:"List problems"`
		Submit   commands.SubmitCmd   `cmd:"" help:"Submit a solution"`
		Stats    commands.StatsCmd    `cmd:"" help:"Show submission statistics"`
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("ojterm"),
		kong.Description("Terminal client for an online judge."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{
		Config:    cli.Config,
		BaseURL:   cli.BaseURL,
		Debug:     cli.Debug,
		Ephemeral: cli.Ephemeral,
		Version:   version,
	})
	cmd.FatalIfErrorf(err)
}
