package report

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/paularlott/cli"

	"github.com/martinsuchenak/circuits/internal/client"
	"github.com/martinsuchenak/circuits/internal/config"
	"github.com/martinsuchenak/circuits/internal/log"
	"github.com/martinsuchenak/circuits/internal/model"
	"github.com/martinsuchenak/circuits/internal/session"
)

func Command() *cli.Command {
	return &cli.Command{
		Name:        "report",
		Usage:       "Manage import reports",
		Description: "List and acknowledge CSV import reports",
		Commands: []*cli.Command{
			ListCommand(),
			AckCommand(),
		},
	}
}

func setup() (*client.Client, func(), error) {
	cfg := config.Load()
	closer, err := cfg.SetupLogging()
	if err != nil {
		return nil, nil, err
	}
	return client.New(cfg.ServerURL, session.FromToken(cfg.Token)), func() { closer.Close() }, nil
}

func ListCommand() *cli.Command {
	return &cli.Command{
		Name:        "list",
		Usage:       "List import reports",
		Description: "List finished imports that have not been acknowledged, or every report with --all",
		Flags: append([]cli.Flag{
			&cli.BoolFlag{Name: "all", Usage: "Include acknowledged reports and row errors"},
		}, config.ClientFlags()...),
		Run: func(ctx context.Context, cmd *cli.Command) error {
			c, done, err := setup()
			if err != nil {
				return err
			}
			defer done()

			var res model.Result[[]model.ImportReport]
			if cmd.GetBool("all") {
				res = c.AllReports(ctx)
			} else {
				res = c.UnseenReports(ctx)
			}
			reports, ok := res.Get()
			if !ok {
				f, _ := res.Failure()
				log.Error("Failed to list reports", "kind", f.Kind, "error", f.Message)
				return fmt.Errorf("list reports: %w", f)
			}

			if len(reports) == 0 {
				fmt.Println("No reports found")
				return nil
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TYPE\tID\tMESSAGE\tFILE")
			for _, r := range reports {
				file := ""
				if r.FileName != nil {
					file = *r.FileName
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Type, r.ID, r.Message, file)
			}
			return tw.Flush()
		},
	}
}

func AckCommand() *cli.Command {
	return &cli.Command{
		Name:        "ack",
		Usage:       "Acknowledge an import report",
		Description: "Mark a finished import report as seen",
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
			if err := c.AcknowledgeReport(ctx, id).Err(); err != nil {
				log.Error("Failed to acknowledge report", "id", id, "error", err)
				return fmt.Errorf("acknowledge report: %w", err)
			}

			log.Info("Report acknowledged", "id", id)
			fmt.Printf("Report acknowledged: %s\n", id)
			return nil
		},
	}
}
