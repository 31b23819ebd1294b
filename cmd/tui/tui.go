package tui

import (
	"context"
	"io"

	"github.com/paularlott/cli"

	"github.com/martinsuchenak/circuits/internal/client"
	"github.com/martinsuchenak/circuits/internal/config"
	"github.com/martinsuchenak/circuits/internal/log"
	"github.com/martinsuchenak/circuits/internal/session"
	ui "github.com/martinsuchenak/circuits/internal/tui"
)

func Command() *cli.Command {
	return &cli.Command{
		Name:        "tui",
		Usage:       "Start the terminal UI",
		Description: "Browse, filter, sort and edit circuits interactively",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "export-dir", Usage: "Directory for CSV exports", DefaultValue: "."},
			&cli.StringFlag{Name: "username", Usage: "Pre-fill the login form", EnvVars: []string{"CIRCUITS_USERNAME"}},
		}, config.ClientFlags()...),
		Run: func(ctx context.Context, cmd *cli.Command) error {
			cfg := config.Load()
			if cfg.LogFile == "" {
				// Anything written to stderr would tear the screen.
				log.ConfigureWriter(cfg.LogLevel, cfg.LogFormat, io.Discard)
			} else {
				closer, err := cfg.SetupLogging()
				if err != nil {
					return err
				}
				defer closer.Close()
			}

			c := client.New(cfg.ServerURL, session.FromToken(cfg.Token))
			log.Info("Starting terminal UI", "server", cfg.ServerURL)
			return ui.Run(c, ui.Options{
				ExportDir: cmd.GetString("export-dir"),
				Username:  cmd.GetString("username"),
			})
		},
	}
}
