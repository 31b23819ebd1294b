package circuit

import (
	"context"
	"errors"
	"fmt"

	"github.com/paularlott/cli"

	"github.com/martinsuchenak/circuits/internal/config"
	"github.com/martinsuchenak/circuits/internal/editor"
	"github.com/martinsuchenak/circuits/internal/log"
)

var errNothingToUpdate = errors.New("no fields given to update")

func UpdateCommand() *cli.Command {
	return &cli.Command{
		Name:        "update",
		Usage:       "Update a circuit",
		Description: "Load a circuit, change the fields given as flags and save the full record",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id", Required: true},
		},
		Flags: append(fieldFlags(), config.ClientFlags()...),
		Run: func(ctx context.Context, cmd *cli.Command) error {
			c, done, err := setup()
			if err != nil {
				return err
			}
			defer done()

			id := cmd.GetStringArg("id")
			ed := editor.NewForUpdate(id)
			if err := ed.Load(ctx, c); err != nil {
				return fmt.Errorf("load circuit: %w", err)
			}

			n, err := setFields(cmd, ed.Set)
			if err != nil {
				return err
			}
			if n == 0 {
				return errNothingToUpdate
			}

			log.Debug("Updating circuit", "id", id, "fields", n)
			if err := ed.Save(ctx, c); err != nil {
				return fmt.Errorf("update circuit: %w", err)
			}

			log.Info("Circuit updated", "id", id)
			fmt.Fprintf(stdout, "Circuit updated: %s\n", id)
			return nil
		},
	}
}
