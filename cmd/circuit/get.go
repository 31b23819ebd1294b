package circuit

import (
	"context"

	"github.com/paularlott/cli"

	"github.com/martinsuchenak/circuits/internal/config"
	"github.com/martinsuchenak/circuits/internal/log"
)

func GetCommand() *cli.Command {
	return &cli.Command{
		Name:        "get",
		Usage:       "Get a circuit",
		Description: "Show every field of one circuit",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id", Required: true},
		},
		Flags: config.ClientFlags(),
		Run: func(ctx context.Context, cmd *cli.Command) error {
			c, done, err := setup()
			if err != nil {
				return err
			}
			defer done()

			id := cmd.GetStringArg("id")
			log.Debug("Getting circuit", "id", id)

			res := c.GetCircuit(ctx, id)
			circuit, ok := res.Get()
			if !ok {
				f, _ := res.Failure()
				return failed("get circuit", f)
			}

			printCircuit(stdout, circuit)
			return nil
		},
	}
}
