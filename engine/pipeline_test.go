package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	Name string
	Code *string
	Qty  float64
}

func str(s string) *string { return &s }

var rowView = View[row]{
	Fields: map[string]Field[row]{
		"name": func(r row) Value { return String(r.Name) },
		"code": func(r row) Value { return StringPtr(r.Code) },
		"qty":  func(r row) Value { return Number(r.Qty) },
	},
}

func sampleRows() []row {
	return []row{
		{Name: "Alpha", Code: str("x1"), Qty: 3},
		{Name: "bravo", Code: nil, Qty: 1},
		{Name: "Charlie", Code: str("y2"), Qty: 2},
		{Name: "alphabet", Code: str("x9"), Qty: 3},
	}
}

func TestFilterEmptyIsIdentity(t *testing.T) {
	rows := sampleRows()

	out := Filter(rowView, rows, map[string]string{})
	assert.Equal(t, rows, out)

	// whitespace-free empty values count as inactive too
	out = Filter(rowView, rows, map[string]string{"name": "", "code": ""})
	assert.Equal(t, rows, out)
}

func TestFilterCaseInsensitiveSubstring(t *testing.T) {
	rows := sampleRows()

	out := Filter(rowView, rows, map[string]string{"name": "ALPHA"})
	require.Len(t, out, 2)
	assert.Equal(t, "Alpha", out[0].Name)
	assert.Equal(t, "alphabet", out[1].Name)
}

func TestFilterConjunction(t *testing.T) {
	rows := sampleRows()

	out := Filter(rowView, rows, map[string]string{"name": "alpha", "code": "x1"})
	require.Len(t, out, 1)
	assert.Equal(t, "Alpha", out[0].Name)
}

func TestFilterNullNeverMatches(t *testing.T) {
	rows := sampleRows()

	out := Filter(rowView, rows, map[string]string{"code": "x"})
	for _, r := range out {
		require.NotNil(t, r.Code)
	}
}

func TestFilterOutputIsSubset(t *testing.T) {
	rows := sampleRows()
	out := Filter(rowView, rows, map[string]string{"name": "a"})

	seen := make(map[string]bool, len(rows))
	for _, r := range rows {
		seen[r.Name] = true
	}
	for _, r := range out {
		assert.True(t, seen[r.Name])
	}
	assert.LessOrEqual(t, len(out), len(rows))
}

func TestSortCycle(t *testing.T) {
	var s SortState

	s.Toggle("name")
	assert.Equal(t, SortState{Key: "name", Direction: SortDesc}, s)

	s.Toggle("name")
	assert.Equal(t, SortState{Key: "name", Direction: SortAsc}, s)

	s.Toggle("name")
	assert.Equal(t, SortState{}, s)
	assert.False(t, s.Active())
}

func TestSortCycleDifferentKey(t *testing.T) {
	var s SortState
	s.Toggle("name")
	s.Toggle("name") // name asc

	s.Toggle("qty")
	assert.Equal(t, SortState{Key: "qty", Direction: SortDesc}, s)
}

func TestSortDirections(t *testing.T) {
	rows := sampleRows()

	desc := Sort(rowView, rows, SortState{Key: "qty", Direction: SortDesc})
	assert.Equal(t, 3.0, desc[0].Qty)
	assert.Equal(t, 1.0, desc[len(desc)-1].Qty)

	asc := Sort(rowView, rows, SortState{Key: "qty", Direction: SortAsc})
	assert.Equal(t, 1.0, asc[0].Qty)
}

func TestSortInactiveIsIdentity(t *testing.T) {
	rows := sampleRows()
	out := Sort(rowView, rows, SortState{})
	assert.Equal(t, rows, out)
}

func TestSortDoesNotModifyInput(t *testing.T) {
	rows := sampleRows()
	original := sampleRows()

	Sort(rowView, rows, SortState{Key: "name", Direction: SortAsc})
	assert.Equal(t, original, rows)
}

func TestSortStability(t *testing.T) {
	rows := sampleRows()

	// Alpha and alphabet tie on qty=3; they must keep input order
	out := Sort(rowView, rows, SortState{Key: "qty", Direction: SortDesc})
	require.Len(t, out, 4)
	assert.Equal(t, "Alpha", out[0].Name)
	assert.Equal(t, "alphabet", out[1].Name)

	// sorting an already sorted set changes nothing
	again := Sort(rowView, out, SortState{Key: "qty", Direction: SortDesc})
	assert.Equal(t, out, again)
}

func TestSortNullOrdering(t *testing.T) {
	rows := sampleRows()

	asc := Sort(rowView, rows, SortState{Key: "code", Direction: SortAsc})
	assert.Nil(t, asc[len(asc)-1].Code, "null sorts after non-null ascending")

	desc := Sort(rowView, rows, SortState{Key: "code", Direction: SortDesc})
	assert.Nil(t, desc[0].Code, "null sorts before non-null descending")
}

func TestCompareMixedKindsEqual(t *testing.T) {
	assert.Equal(t, 0, compare(String("10"), Number(10)))
	assert.Equal(t, 0, compare(Number(10), String("10")))
}

func TestPaginate(t *testing.T) {
	records := make([]int, 25)
	for i := range records {
		records[i] = i
	}

	page1 := Paginate(records, PageState{Current: 1, Size: 10})
	require.Len(t, page1, 10)
	assert.Equal(t, 0, page1[0])

	page3 := Paginate(records, PageState{Current: 3, Size: 10})
	require.Len(t, page3, 5)
	assert.Equal(t, 20, page3[0])

	beyond := Paginate(records, PageState{Current: 4, Size: 10})
	assert.Empty(t, beyond)
}

func TestPaginateNoPageSize(t *testing.T) {
	records := []int{1, 2, 3}
	assert.Equal(t, records, Paginate(records, PageState{Current: 1}))
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 3, TotalPages(25, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 0, TotalPages(10, 0))
}

func TestListStateFilterResetsPage(t *testing.T) {
	ls := NewListState(rowView, 2)
	ls.Page.Current = 2

	ls.SetFilter("name", "a")
	assert.Equal(t, 1, ls.Page.Current)
}

func TestListStatePageSizeResetsPage(t *testing.T) {
	ls := NewListState(rowView, 2)
	ls.Page.Current = 2

	ls.SetPageSize(5)
	assert.Equal(t, 1, ls.Page.Current)
	assert.Equal(t, 5, ls.Page.Size)
}

func TestListStatePageClamping(t *testing.T) {
	ls := NewListState(rowView, 2)

	ls.PrevPage()
	assert.Equal(t, 1, ls.Page.Current)

	ls.NextPage(2)
	assert.Equal(t, 2, ls.Page.Current)
	ls.NextPage(2)
	assert.Equal(t, 2, ls.Page.Current)
}

func TestListStateApply(t *testing.T) {
	ls := NewListState(rowView, 2)
	result := ls.Apply(sampleRows())

	assert.Equal(t, 4, result.Total)
	assert.Equal(t, 2, result.TotalPages)
	assert.Len(t, result.Rows, 2)

	ls.SetFilter("name", "alpha")
	result = ls.Apply(sampleRows())
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.TotalPages)
}

func TestParseSortDirection(t *testing.T) {
	assert.Equal(t, SortAsc, ParseSortDirection("asc"))
	assert.Equal(t, SortDesc, ParseSortDirection("desc"))
	assert.Equal(t, SortNone, ParseSortDirection(""))
	assert.Equal(t, SortNone, ParseSortDirection("sideways"))
}
