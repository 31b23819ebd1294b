package circuit

import (
	"context"
	"fmt"
	"strings"

	"github.com/paularlott/cli"

	"github.com/martinsuchenak/circuits/internal/config"
	"github.com/martinsuchenak/circuits/internal/log"
	"github.com/martinsuchenak/circuits/internal/model"
	"github.com/martinsuchenak/circuits/internal/table"
)

func ListCommand() *cli.Command {
	return &cli.Command{
		Name:        "list",
		Usage:       "List circuits",
		Description: "List circuits with optional filter, sort, paging and column selection",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "filter-field", Usage: "Field the filter applies to", DefaultValue: model.FieldSiteName},
			&cli.StringFlag{Name: "filter", Usage: "Case-insensitive substring to match"},
			&cli.StringFlag{Name: "sort", Usage: "Comma-separated sort keys, prefix with - for descending"},
			&cli.IntFlag{Name: "page", Usage: "Page number, starting at 1", DefaultValue: 1},
			&cli.IntFlag{Name: "page-size", Usage: "Rows per page", DefaultValue: table.DefaultPageSize},
			&cli.StringFlag{Name: "columns", Usage: "Comma-separated columns to show, or 'all'"},
		}, config.ClientFlags()...),
		Run: func(ctx context.Context, cmd *cli.Command) error {
			c, done, err := setup()
			if err != nil {
				return err
			}
			defer done()

			st, err := listState(
				cmd.GetString("filter-field"),
				cmd.GetString("filter"),
				cmd.GetString("sort"),
				cmd.GetString("columns"),
				cmd.GetInt("page"),
				cmd.GetInt("page-size"),
			)
			if err != nil {
				return err
			}

			log.Debug("Listing circuits", "filter", st.Filter, "sort", st.Sort)
			res := c.ListCircuits(ctx)
			records, ok := res.Get()
			if !ok {
				f, _ := res.Failure()
				return failed("list circuits", f)
			}

			view := table.Project(records, st)
			log.Info("Listed circuits", "total", view.Total, "matched", view.Filtered)
			printView(stdout, view)
			return nil
		},
	}
}

// listState builds a table state from the list flags. page is 1-based.
func listState(filterField, filter, sortKeys, columns string, page, pageSize int) (table.State, error) {
	st := table.DefaultState()

	if !model.IsField(filterField) {
		return st, fmt.Errorf("unknown filter field %q", filterField)
	}
	st = st.WithFilter(filterField, filter)

	for _, k := range parseList(sortKeys) {
		desc := strings.HasPrefix(k, "-")
		field := strings.TrimPrefix(k, "-")
		if !model.IsField(field) {
			return st, fmt.Errorf("unknown sort field %q", field)
		}
		st.Sort = append(st.Sort, table.SortKey{Field: field, Desc: desc})
	}

	switch cols := parseList(columns); {
	case columns == "all":
		for f := range st.Visible {
			st.Visible[f] = true
		}
	case len(cols) > 0:
		for f := range st.Visible {
			st.Visible[f] = false
		}
		for _, f := range cols {
			if !model.IsField(f) {
				return st, fmt.Errorf("unknown column %q", f)
			}
			st.Visible[f] = true
		}
	}

	st = st.WithPageSize(pageSize)
	return st.WithPage(page - 1), nil
}
