package commands

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/fragmede/ojterm/internal/logger"
	"github.com/fragmede/ojterm/internal/monitor"
	"github.com/fragmede/ojterm/internal/ui"
)

type TuiCmd struct{}

func (t *TuiCmd) Run(ctx context.Context, globals *Globals) error {
	cfg, err := globals.loadConfig()
	if err != nil {
		return err
	}
	// The program owns the terminal, so logs go to a file.
	closer, err := logger.SetupFile(cfg.LogPath, globals.Debug)
	if err != nil {
		return err
	}
	defer closer.Close()

	d, err := globals.open(cfg)
	if err != nil {
		return err
	}
	defer d.Close()

	mon := monitor.New(cfg, d.Client, d.DB)
	defer mon.Stop()

	log.Info().Str("version", globals.Version).Str("base_url", cfg.BaseURL).Msg("starting")

	app := ui.NewApp(cfg, d.Client, d.DB, d.Session, mon)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	app.SetProgram(p)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}
