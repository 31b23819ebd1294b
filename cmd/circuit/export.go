package circuit

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/paularlott/cli"

	"github.com/martinsuchenak/circuits/internal/client"
	"github.com/martinsuchenak/circuits/internal/config"
	"github.com/martinsuchenak/circuits/internal/log"
)

func ExportCommand() *cli.Command {
	return &cli.Command{
		Name:        "export",
		Usage:       "Export circuits to CSV",
		Description: "Download every circuit as CSV into circuits_<timestamp>.csv, or to --output ('-' for stdout)",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "dir", Usage: "Directory for the timestamped export file", DefaultValue: "."},
			&cli.StringFlag{Name: "output", Usage: "Write to this path instead"},
		}, config.ClientFlags()...),
		Run: func(ctx context.Context, cmd *cli.Command) error {
			c, done, err := setup()
			if err != nil {
				return err
			}
			defer done()

			res := c.ExportCircuits(ctx)
			data, ok := res.Get()
			if !ok {
				f, _ := res.Failure()
				return failed("export circuits", f)
			}

			var path string
			switch out := cmd.GetString("output"); out {
			case "-":
				_, err = stdout.Write(data)
				return err
			case "":
				path, err = client.SaveExport(cmd.GetString("dir"), data, time.Now())
			default:
				path, err = out, os.WriteFile(out, data, 0o644)
			}
			if err != nil {
				log.Error("Failed to write export", "error", err)
				return err
			}

			log.Info("Exported circuits", "path", path, "bytes", len(data))
			fmt.Fprintf(stdout, "Exported to %s\n", path)
			return nil
		},
	}
}
