package table

import (
	"maps"
	"slices"
)

// The helpers below return an updated copy and leave the receiver untouched.

func (s State) clone() State {
	s.Sort = slices.Clone(s.Sort)
	s.Visible = maps.Clone(s.Visible)
	return s
}

// ToggleSort cycles field through ascending, descending and unsorted. With
// multi the other keys are kept and a new field is appended; otherwise field
// becomes the only key.
func (s State) ToggleSort(field string, multi bool) State {
	out := s.clone()
	i := slices.IndexFunc(out.Sort, func(k SortKey) bool { return k.Field == field })

	var next *SortKey
	switch {
	case i < 0:
		next = &SortKey{Field: field}
	case !out.Sort[i].Desc:
		next = &SortKey{Field: field, Desc: true}
	}

	if !multi {
		out.Sort = nil
		if next != nil {
			out.Sort = []SortKey{*next}
		}
		return out
	}

	switch {
	case i < 0:
		out.Sort = append(out.Sort, *next)
	case next == nil:
		out.Sort = slices.Delete(out.Sort, i, i+1)
	default:
		out.Sort[i] = *next
	}
	return out
}

// WithFilter sets the active filter and returns to the first page.
func (s State) WithFilter(field, pattern string) State {
	out := s.clone()
	out.Filter = Filter{Field: field, Pattern: pattern}
	out.Page.Index = 0
	return out
}

// WithPageSize changes the page size, keeping the first visible row on screen.
func (s State) WithPageSize(size int) State {
	out := s.clone()
	if size < 1 {
		size = DefaultPageSize
	}
	old := out.Page.Size
	if old < 1 {
		old = DefaultPageSize
	}
	out.Page = Page{Index: out.Page.Index * old / size, Size: size}
	return out
}

// WithPage moves to index. Project clamps it against the data.
func (s State) WithPage(index int) State {
	out := s.clone()
	out.Page.Index = max(index, 0)
	return out
}

// NextPage advances one page when v says one exists.
func (s State) NextPage(v View) State {
	if !v.CanNext() {
		return s.WithPage(v.PageIndex)
	}
	return s.WithPage(v.PageIndex + 1)
}

// PrevPage goes back one page when possible.
func (s State) PrevPage(v View) State {
	if !v.CanPrev() {
		return s.WithPage(v.PageIndex)
	}
	return s.WithPage(v.PageIndex - 1)
}

// ToggleColumn flips the visibility of field.
func (s State) ToggleColumn(field string) State {
	out := s.clone()
	if out.Visible == nil {
		out.Visible = map[string]bool{}
	}
	shown, ok := out.Visible[field]
	out.Visible[field] = ok && !shown
	return out
}

// SortDirection returns the direction and priority (1-based) of field in
// the sort list, or 0 when field is not sorted.
func (s State) SortDirection(field string) (desc bool, priority int) {
	for i, k := range s.Sort {
		if k.Field == field {
			return k.Desc, i + 1
		}
	}
	return false, 0
}
