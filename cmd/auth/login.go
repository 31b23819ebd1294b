package auth

import (
	"context"
	"fmt"
	"os"

	"github.com/paularlott/cli"

	"github.com/martinsuchenak/circuits/internal/client"
	"github.com/martinsuchenak/circuits/internal/config"
	"github.com/martinsuchenak/circuits/internal/log"
	"github.com/martinsuchenak/circuits/internal/model"
)

func LoginCommand() *cli.Command {
	return &cli.Command{
		Name:        "login",
		Usage:       "Log in and print a token",
		Description: "Authenticate against the server and print a bearer token for CIRCUITS_TOKEN",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "username", Required: true},
		},
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "password", Usage: "Password", EnvVars: []string{"CIRCUITS_PASSWORD"}, Required: true},
			&cli.StringFlag{Name: "role", Usage: "Requested role (admin or user)", DefaultValue: model.RoleUser},
		}, config.ClientFlags()...),
		Run: func(ctx context.Context, cmd *cli.Command) error {
			cfg := config.Load()
			closer, err := cfg.SetupLogging()
			if err != nil {
				return err
			}
			defer closer.Close()

			username := cmd.GetStringArg("username")
			role := cmd.GetString("role")
			if !model.ValidRole(role) {
				return fmt.Errorf("invalid role %q", role)
			}

			c := client.New(cfg.ServerURL, nil)
			res := c.Login(ctx, client.LoginRequest{
				Username:      username,
				Password:      cmd.GetString("password"),
				RequestedRole: role,
			})
			data, ok := res.Get()
			if !ok {
				f, _ := res.Failure()
				log.Error("Login failed", "username", username, "error", f.Message)
				return fmt.Errorf("login: %w", f)
			}

			if exp := c.Session().ExpiresAt(); !exp.IsZero() {
				fmt.Fprintf(os.Stderr, "Token valid until %s\n", exp.Format("2006-01-02 15:04:05 MST"))
			}
			fmt.Println(data.Token)
			return nil
		},
	}
}
