package circuit

import (
	"context"
	"fmt"

	"github.com/paularlott/cli"

	"github.com/martinsuchenak/circuits/internal/client"
	"github.com/martinsuchenak/circuits/internal/config"
	"github.com/martinsuchenak/circuits/internal/log"
)

func ImportCommand() *cli.Command {
	return &cli.Command{
		Name:        "import",
		Usage:       "Import circuits from CSV",
		Description: "Upload a CSV file; rows without an id are created, the rest update existing circuits. Progress is recorded as import reports.",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "file", Required: true},
		},
		Flags: config.ClientFlags(),
		Run: func(ctx context.Context, cmd *cli.Command) error {
			c, done, err := setup()
			if err != nil {
				return err
			}
			defer done()

			path := cmd.GetStringArg("file")
			u, f, err := client.OpenUpload(path)
			if err != nil {
				log.Error("Failed to open import file", "error", err, "path", path)
				return err
			}
			defer f.Close()

			res := c.ImportCircuits(ctx, u)
			msg, ok := res.Get()
			if !ok {
				fail, _ := res.Failure()
				return failed("import circuits", fail)
			}

			log.Info("Import started", "file", u.Name)
			fmt.Fprintln(stdout, msg)
			return nil
		},
	}
}
