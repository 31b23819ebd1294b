package main

import (
	"context"
	"fmt"
	"os"

	"github.com/paularlott/cli"

	"github.com/martinsuchenak/circuits/cmd/auth"
	"github.com/martinsuchenak/circuits/cmd/circuit"
	"github.com/martinsuchenak/circuits/cmd/report"
	"github.com/martinsuchenak/circuits/cmd/server"
	"github.com/martinsuchenak/circuits/cmd/tui"
	"github.com/martinsuchenak/circuits/cmd/user"
	"github.com/martinsuchenak/circuits/internal/config"
)

func main() {
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading .env: %v\n", err)
		os.Exit(1)
	}

	cmd := &cli.Command{
		Name:        "circuits",
		Usage:       "Telecom circuit inventory",
		Description: "Server, command line client and terminal UI for the circuit inventory",
		Commands: []*cli.Command{
			server.Command(),
			user.Command(),
			auth.LoginCommand(),
			circuit.Command(),
			report.Command(),
			tui.Command(),
		},
	}

	if err := cmd.Execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
