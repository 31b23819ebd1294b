package circuit

import (
	"context"
	"fmt"

	"github.com/paularlott/cli"

	"github.com/martinsuchenak/circuits/internal/config"
	"github.com/martinsuchenak/circuits/internal/editor"
	"github.com/martinsuchenak/circuits/internal/log"
)

func AddCommand() *cli.Command {
	return &cli.Command{
		Name:        "add",
		Usage:       "Add a circuit",
		Description: "Create a circuit from the field flags; unset fields are left empty",
		Flags:       append(fieldFlags(), config.ClientFlags()...),
		Run: func(ctx context.Context, cmd *cli.Command) error {
			c, done, err := setup()
			if err != nil {
				return err
			}
			defer done()

			ed := editor.NewForCreate()
			if _, err := setFields(cmd, ed.Set); err != nil {
				return err
			}

			if err := ed.Save(ctx, c); err != nil {
				return fmt.Errorf("add circuit: %w", err)
			}

			log.Info("Circuit created", "id", ed.ID(), "ckt_id", ed.Draft().CktID)
			fmt.Fprintf(stdout, "Circuit created: %s\n", ed.ID())
			return nil
		},
	}
}
