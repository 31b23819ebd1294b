package user

import (
	"context"
	"fmt"

	"github.com/paularlott/cli"

	"github.com/martinsuchenak/circuits/internal/auth"
	"github.com/martinsuchenak/circuits/internal/config"
	"github.com/martinsuchenak/circuits/internal/log"
	"github.com/martinsuchenak/circuits/internal/model"
	"github.com/martinsuchenak/circuits/internal/storage"
)

func Command() *cli.Command {
	return &cli.Command{
		Name:        "user",
		Usage:       "Manage login accounts",
		Description: "Manage the accounts the server accepts at /auth/login",
		Commands: []*cli.Command{
			AddCommand(),
		},
	}
}

func AddCommand() *cli.Command {
	return &cli.Command{
		Name:        "add",
		Usage:       "Create or replace a user",
		Description: "Store a user with a bcrypt password hash directly in the database",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "username", Required: true},
		},
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "password", Usage: "Password", EnvVars: []string{"CIRCUITS_USER_PASSWORD"}, Required: true},
			&cli.StringFlag{Name: "role", Usage: "Role (admin or user)", DefaultValue: model.RoleUser},
		}, config.StorageFlags()...),
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

			hash, err := auth.HashPassword(cmd.GetString("password"))
			if err != nil {
				return err
			}

			store, err := storage.Open(ctx, cfg.DBDriver, cfg.DatabaseDSN())
			if err != nil {
				log.Error("Failed to initialize storage", "error", err)
				return err
			}
			defer store.Close()

			if err := store.PutUser(ctx, model.User{Username: username, PasswordHash: hash, Role: role}); err != nil {
				log.Error("Failed to save user", "error", err, "username", username)
				return err
			}

			log.Info("User saved", "username", username, "role", role)
			fmt.Printf("User saved: %s (%s)\n", username, role)
			return nil
		},
	}
}
