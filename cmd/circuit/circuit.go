package circuit

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/paularlott/cli"

	"github.com/martinsuchenak/circuits/internal/client"
	"github.com/martinsuchenak/circuits/internal/config"
	"github.com/martinsuchenak/circuits/internal/log"
	"github.com/martinsuchenak/circuits/internal/model"
	"github.com/martinsuchenak/circuits/internal/session"
	"github.com/martinsuchenak/circuits/internal/table"
)

func Command() *cli.Command {
	return &cli.Command{
		Name:        "circuit",
		Usage:       "Manage circuits",
		Description: "List, view, create, update, import and export circuits",
		Commands: []*cli.Command{
			ListCommand(),
			GetCommand(),
			AddCommand(),
			UpdateCommand(),
			ImportCommand(),
			ExportCommand(),
		},
	}
}

func parseList(s string) []string {
	if s == "" {
		return nil
	}
	var result []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}

// setup loads the client configuration and applies the log flags. The
// returned func releases the log file, if any.
func setup() (*client.Client, func(), error) {
	cfg := config.Load()
	closer, err := cfg.SetupLogging()
	if err != nil {
		return nil, nil, err
	}
	c := client.New(cfg.ServerURL, session.FromToken(cfg.Token))
	return c, func() { closer.Close() }, nil
}

func failed(op string, f model.Failure) error {
	log.Error("Request failed", "op", op, "kind", f.Kind, "error", f.Message)
	if f.Kind == model.FailureMissingCredential {
		return fmt.Errorf("%s: %w (run 'circuits login' and set CIRCUITS_TOKEN)", op, f)
	}
	return fmt.Errorf("%s: %w", op, f)
}

// flagName maps a field to its flag, e.g. site_name -> site-name.
func flagName(field string) string {
	return strings.ReplaceAll(field, "_", "-")
}

func fieldFlags() []cli.Flag {
	flags := make([]cli.Flag, 0, len(model.Fields))
	for _, f := range model.Fields {
		flags = append(flags, &cli.StringFlag{Name: flagName(f), Usage: model.Header(f)})
	}
	return flags
}

// setFields copies every non-empty field flag into set.
func setFields(cmd *cli.Command, set func(field, value string) error) (int, error) {
	n := 0
	for _, f := range model.Fields {
		v := cmd.GetString(flagName(f))
		if v == "" {
			continue
		}
		if err := set(f, v); err != nil {
			return n, fmt.Errorf("%s: %w", flagName(f), err)
		}
		n++
	}
	return n, nil
}

func printView(w io.Writer, v table.View) {
	if v.Filtered == 0 {
		fmt.Fprintln(w, "No circuits found")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	headers := []string{"ID"}
	for _, c := range v.Columns {
		headers = append(headers, strings.ToUpper(model.Header(c)))
	}
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, r := range v.Rows {
		cells := []string{r.ID}
		for _, c := range v.Columns {
			val, _ := r.Get(c)
			cells = append(cells, val)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	tw.Flush()
	fmt.Fprintf(w, "\nPage %d/%d (%d of %d circuits)\n", v.PageIndex+1, v.PageCount, v.Filtered, v.Total)
}

func printCircuit(w io.Writer, c model.Circuit) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, f := range model.AllFields {
		v, _ := c.Get(f)
		fmt.Fprintf(tw, "%s:\t%s\n", model.Header(f), v)
	}
	tw.Flush()
}

var stdout io.Writer = os.Stdout
