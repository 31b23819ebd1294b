package table

import (
	"fmt"
	"math/rand"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/martinsuchenak/circuits/internal/model"
)

func sampleCircuits() []model.Circuit {
	return []model.Circuit{
		{ID: "1", SiteName: "Main Office", State: "Active", BwMbps: "100", Provider: "Lumen"},
		{ID: "2", SiteName: "Branch Office", State: "Active", BwMbps: "20", Provider: "AT&T"},
		{ID: "3", SiteName: "Warehouse", State: "Pending", BwMbps: "1000", Provider: "Lumen"},
		{ID: "4", SiteName: "main street kiosk", State: "Active", BwMbps: "20", Provider: "Comcast"},
		{ID: "5", SiteName: "Data Center", State: "Decom", BwMbps: "10000", Provider: "Zayo"},
	}
}

func ids(rows []model.Circuit) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func randomCircuits(r *rand.Rand, n int) []model.Circuit {
	sites := []string{"Main Office", "Branch Office", "Warehouse", "Lab", "main annex", ""}
	out := make([]model.Circuit, n)
	for i := range out {
		out[i] = model.Circuit{
			ID:       fmt.Sprintf("%03d", i),
			SiteName: sites[r.Intn(len(sites))],
			BwMbps:   fmt.Sprint(r.Intn(5) * 10),
			State:    []string{"Active", "Pending"}[r.Intn(2)],
		}
	}
	return out
}

func TestProject_FilterScenario(t *testing.T) {
	records := []model.Circuit{
		{ID: "a", SiteName: "Main Office"},
		{ID: "b", SiteName: "Branch Office"},
	}

	st := DefaultState().WithFilter(model.FieldSiteName, "Main")
	v := Project(records, st)

	require.Len(t, v.Rows, 1)
	assert.Equal(t, "Main Office", v.Rows[0].SiteName)
	assert.Equal(t, 2, v.Total)
	assert.Equal(t, 1, v.Filtered)
}

func TestFilterRows_CaseInsensitiveSubstring(t *testing.T) {
	got := FilterRows(sampleCircuits(), Filter{Field: model.FieldSiteName, Pattern: "MAIN"})
	assert.Equal(t, []string{"1", "4"}, ids(got))

	got = FilterRows(sampleCircuits(), Filter{Field: model.FieldSiteName, Pattern: ""})
	assert.Len(t, got, 5)

	got = FilterRows(sampleCircuits(), Filter{Field: "nope", Pattern: "x"})
	assert.Empty(t, got)
}

func TestFilterRows_Property(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		records := randomCircuits(r, r.Intn(40))
		pattern := []string{"Main", "office", "a", "zzz", "Lab"}[r.Intn(5)]

		got := FilterRows(records, Filter{Field: model.FieldSiteName, Pattern: pattern})
		for _, row := range got {
			assert.Contains(t, records, row)
			assert.Contains(t, strings.ToLower(row.SiteName), strings.ToLower(pattern))
		}
		for _, row := range records {
			if strings.Contains(strings.ToLower(row.SiteName), strings.ToLower(pattern)) {
				assert.Contains(t, got, row)
			}
		}
	}
}

func TestSortRows_EmptyKeysKeepsOrder(t *testing.T) {
	records := sampleCircuits()
	assert.Equal(t, ids(records), ids(SortRows(records, nil)))
}

func TestSortRows_NaturalAndStable(t *testing.T) {
	got := SortRows(sampleCircuits(), []SortKey{{Field: model.FieldBwMbps}})
	// 20 (id 2), 20 (id 4) keep insertion order
	assert.Equal(t, []string{"2", "4", "1", "3", "5"}, ids(got))

	got = SortRows(sampleCircuits(), []SortKey{{Field: model.FieldBwMbps, Desc: true}})
	assert.Equal(t, []string{"5", "3", "1", "2", "4"}, ids(got))
}

func TestSortRows_MultiKey(t *testing.T) {
	got := SortRows(sampleCircuits(), []SortKey{
		{Field: model.FieldProvider},
		{Field: model.FieldBwMbps, Desc: true},
	})
	assert.Equal(t, []string{"2", "4", "3", "1", "5"}, ids(got))
}

func TestSortRows_OppositeDirectionsReverse(t *testing.T) {
	records := sampleCircuits()
	asc := SortRows(records, []SortKey{{Field: model.FieldSiteName}})
	desc := SortRows(records, []SortKey{{Field: model.FieldSiteName, Desc: true}})

	reversed := slices.Clone(asc)
	slices.Reverse(reversed)
	assert.Equal(t, ids(reversed), ids(desc))
}

func TestSortRows_DoesNotMutateInput(t *testing.T) {
	records := sampleCircuits()
	before := slices.Clone(records)
	_ = SortRows(records, []SortKey{{Field: model.FieldSiteName, Desc: true}})
	_ = Project(records, State{Sort: []SortKey{{Field: model.FieldBwMbps}}, Page: Page{Size: 2}})
	assert.Equal(t, before, records)
}

func TestProject_PagesReconstructSet(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 40; i++ {
		records := randomCircuits(r, r.Intn(60))
		size := 1 + r.Intn(12)
		st := State{
			Sort:   []SortKey{{Field: model.FieldBwMbps}, {Field: model.FieldSiteName, Desc: true}},
			Filter: Filter{Field: model.FieldSiteName, Pattern: "o"},
			Page:   Page{Size: size},
		}

		want := SortRows(FilterRows(records, st.Filter), st.Sort)

		first := Project(records, st)
		var all []model.Circuit
		for p := 0; p < first.PageCount; p++ {
			v := Project(records, st.WithPage(p))
			require.Equal(t, p, v.PageIndex)
			require.LessOrEqual(t, len(v.Rows), size)
			all = append(all, v.Rows...)
		}
		if len(want) == 0 {
			assert.Empty(t, all)
			continue
		}
		assert.Equal(t, want, all)
	}
}

func TestProject_ClampsPageIndex(t *testing.T) {
	records := sampleCircuits()

	v := Project(records, State{Page: Page{Index: 99, Size: 2}})
	assert.Equal(t, 2, v.PageIndex)
	assert.Equal(t, 3, v.PageCount)
	assert.Equal(t, []string{"5"}, ids(v.Rows))
	assert.True(t, v.CanPrev())
	assert.False(t, v.CanNext())

	v = Project(records, State{Page: Page{Index: -4, Size: 2}})
	assert.Equal(t, 0, v.PageIndex)
	assert.False(t, v.CanPrev())

	v = Project(nil, State{Page: Page{Index: 3}})
	assert.Equal(t, 0, v.PageIndex)
	assert.Equal(t, 1, v.PageCount)
	assert.Equal(t, DefaultPageSize, v.PageSize)
	assert.Empty(t, v.Rows)
}

func TestProject_VisibilityDoesNotAffectRows(t *testing.T) {
	records := sampleCircuits()
	st := DefaultState().WithFilter(model.FieldSiteName, "office")
	st.Sort = []SortKey{{Field: model.FieldSiteName}}

	hidden := st.ToggleColumn(model.FieldSiteName)
	a, b := Project(records, st), Project(records, hidden)

	assert.Equal(t, a.Rows, b.Rows)
	assert.Contains(t, a.Columns, model.FieldSiteName)
	assert.NotContains(t, b.Columns, model.FieldSiteName)
}

func TestDefaultState(t *testing.T) {
	st := DefaultState()
	assert.Equal(t, model.FieldSiteName, st.Filter.Field)
	assert.Equal(t, DefaultPageSize, st.Page.Size)
	assert.Equal(t, []string{
		model.FieldState, model.FieldSiteName, model.FieldCktID, model.FieldParent, model.FieldLinkType,
	}, VisibleColumns(st.Visible))
}

func TestToggleSort(t *testing.T) {
	st := State{}

	st = st.ToggleSort(model.FieldSiteName, false)
	assert.Equal(t, []SortKey{{Field: model.FieldSiteName}}, st.Sort)

	st = st.ToggleSort(model.FieldSiteName, false)
	assert.Equal(t, []SortKey{{Field: model.FieldSiteName, Desc: true}}, st.Sort)

	st = st.ToggleSort(model.FieldBwMbps, true)
	assert.Equal(t, []SortKey{{Field: model.FieldSiteName, Desc: true}, {Field: model.FieldBwMbps}}, st.Sort)

	desc, prio := st.SortDirection(model.FieldBwMbps)
	assert.False(t, desc)
	assert.Equal(t, 2, prio)

	st = st.ToggleSort(model.FieldSiteName, true)
	assert.Equal(t, []SortKey{{Field: model.FieldBwMbps}}, st.Sort)

	st = st.ToggleSort(model.FieldCktID, false)
	assert.Equal(t, []SortKey{{Field: model.FieldCktID}}, st.Sort)
}

func TestStateHelpersDoNotAlias(t *testing.T) {
	st := DefaultState()
	st.Sort = []SortKey{{Field: model.FieldState}}

	next := st.ToggleSort(model.FieldState, true).ToggleColumn(model.FieldProvider)
	assert.Equal(t, []SortKey{{Field: model.FieldState}}, st.Sort)
	assert.False(t, st.Visible[model.FieldProvider])
	assert.True(t, next.Visible[model.FieldProvider])
}

func TestWithPageSize(t *testing.T) {
	st := State{Page: Page{Index: 3, Size: 10}}

	st = st.WithPageSize(25)
	assert.Equal(t, Page{Index: 1, Size: 25}, st.Page)

	st = st.WithPageSize(0)
	assert.Equal(t, DefaultPageSize, st.Page.Size)
}

func TestNextPrevPage(t *testing.T) {
	records := sampleCircuits()
	st := State{Page: Page{Size: 2}}

	v := Project(records, st)
	st = st.NextPage(v)
	v = Project(records, st)
	assert.Equal(t, 1, v.PageIndex)

	st = st.NextPage(v)
	v = Project(records, st)
	st = st.NextPage(v)
	v = Project(records, st)
	assert.Equal(t, 2, v.PageIndex)

	st = st.PrevPage(v)
	assert.Equal(t, 1, Project(records, st).PageIndex)
}

func TestCompareNatural(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"20", "100", -1},
		{"100", "20", 1},
		{"ge-0/0/9", "ge-0/0/10", -1},
		{"Main", "main", -1},
		{"abc", "abd", -1},
		{"", "a", -1},
		{"1a", "a1", -1},
		{"x", "x", 0},
		{"007", "7", -1},
	}
	for _, tc := range cases {
		t.Run(tc.a+"_"+tc.b, func(t *testing.T) {
			assert.Equal(t, tc.want, CompareNatural(tc.a, tc.b))
			assert.Equal(t, -tc.want, CompareNatural(tc.b, tc.a))
		})
	}
}
