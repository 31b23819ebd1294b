// Package table derives the rows a circuit table shows from the full record
// set and a client-held view state: one substring filter, an ordered list of
// sort keys, a page cursor and a column visibility map.
//
// Project is pure. It copies the records it reorders and never writes to the
// slice it is given, so the same inputs always give the same View.
package table

import (
	"slices"
	"strings"

	"github.com/martinsuchenak/circuits/internal/model"
)

// DefaultPageSize is used whenever a page size below one is requested.
const DefaultPageSize = 10

// SortKey orders rows by one field.
type SortKey struct {
	Field string `json:"field"`
	Desc  bool   `json:"desc"`
}

// Filter keeps rows whose Field contains Pattern, ignoring case.
// An empty Pattern disables filtering.
type Filter struct {
	Field   string `json:"field"`
	Pattern string `json:"pattern"`
}

// Page is the pagination cursor.
type Page struct {
	Index int `json:"index"`
	Size  int `json:"size"`
}

// State is the complete view state of a table.
type State struct {
	Sort    []SortKey       `json:"sort"`
	Filter  Filter          `json:"filter"`
	Page    Page            `json:"page"`
	Visible map[string]bool `json:"visible"`
}

// View is the projection of a record set through a State.
type View struct {
	Rows      []model.Circuit
	Columns   []string
	Total     int
	Filtered  int
	PageIndex int
	PageCount int
	PageSize  int
}

// CanPrev reports whether a previous page exists.
func (v View) CanPrev() bool { return v.PageIndex > 0 }

// CanNext reports whether a next page exists.
func (v View) CanNext() bool { return v.PageIndex+1 < v.PageCount }

// DefaultState filters on site_name, shows ten rows per page and the first
// five columns.
func DefaultState() State {
	visible := make(map[string]bool, len(model.Fields))
	for i, f := range model.Fields {
		visible[f] = i < 5
	}
	return State{
		Filter:  Filter{Field: model.FieldSiteName},
		Page:    Page{Size: DefaultPageSize},
		Visible: visible,
	}
}

// Project applies filter, sort, pagination and visibility, in that order.
func Project(records []model.Circuit, st State) View {
	rows := FilterRows(records, st.Filter)
	rows = SortRows(rows, st.Sort)

	size := st.Page.Size
	if size < 1 {
		size = DefaultPageSize
	}
	pageCount := PageCount(len(rows), size)
	index := ClampPage(st.Page.Index, pageCount)

	start := index * size
	end := min(start+size, len(rows))

	return View{
		Rows:      rows[start:end:end],
		Columns:   VisibleColumns(st.Visible),
		Total:     len(records),
		Filtered:  len(rows),
		PageIndex: index,
		PageCount: pageCount,
		PageSize:  size,
	}
}

// FilterRows returns a new slice holding the records that match f.
func FilterRows(records []model.Circuit, f Filter) []model.Circuit {
	out := make([]model.Circuit, 0, len(records))
	if f.Pattern == "" {
		return append(out, records...)
	}
	if !model.IsField(f.Field) {
		return out
	}
	pattern := strings.ToLower(f.Pattern)
	for _, r := range records {
		v, _ := r.Get(f.Field)
		if strings.Contains(strings.ToLower(v), pattern) {
			out = append(out, r)
		}
	}
	return out
}

// SortRows returns a sorted copy of records. Keys apply in order; rows that
// compare equal on every key keep their input order. Unknown fields are skipped.
func SortRows(records []model.Circuit, keys []SortKey) []model.Circuit {
	out := slices.Clone(records)
	if len(keys) == 0 {
		return out
	}
	slices.SortStableFunc(out, func(a, b model.Circuit) int {
		for _, k := range keys {
			av, ok := a.Get(k.Field)
			if !ok {
				continue
			}
			bv, _ := b.Get(k.Field)
			c := CompareNatural(av, bv)
			if k.Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
	return out
}

// PageCount is ceil(n/size), and at least one so an empty table has a page.
func PageCount(n, size int) int {
	if size < 1 {
		size = DefaultPageSize
	}
	if n == 0 {
		return 1
	}
	return (n + size - 1) / size
}

// ClampPage limits index to [0, pageCount-1].
func ClampPage(index, pageCount int) int {
	if index >= pageCount {
		index = pageCount - 1
	}
	if index < 0 {
		index = 0
	}
	return index
}

// VisibleColumns lists visible fields in catalogue order. Fields missing
// from the map are visible.
func VisibleColumns(visible map[string]bool) []string {
	cols := make([]string, 0, len(model.Fields))
	for _, f := range model.Fields {
		if shown, ok := visible[f]; ok && !shown {
			continue
		}
		cols = append(cols, f)
	}
	return cols
}
