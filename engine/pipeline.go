package engine

import (
	"sort"
	"strconv"
	"strings"
)

// ValueKind drives the comparison rules during sorting.
type ValueKind int

const (
	ValueNull ValueKind = iota
	ValueString
	ValueNumber
)

// Value is a loosely typed cell pulled out of a record for filtering
// and sorting. Records never expose raw field access to the pipeline;
// a View supplies one accessor per declared field.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
}

func String(s string) Value  { return Value{Kind: ValueString, Str: s} }
func Number(n float64) Value { return Value{Kind: ValueNumber, Num: n} }
func Null() Value            { return Value{Kind: ValueNull} }

// StringPtr maps a nullable wire field onto a Value.
func StringPtr(s *string) Value {
	if s == nil {
		return Null()
	}
	return String(*s)
}

// Text renders the value for substring matching. Null renders as the
// empty string so absent fields never match an active filter and never
// panic.
func (v Value) Text() string {
	switch v.Kind {
	case ValueString:
		return v.Str
	case ValueNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	default:
		return ""
	}
}

// compare orders two values ascending: strings lexicographically,
// numbers numerically, null after any non-null, mixed kinds equal.
func compare(a, b Value) int {
	if a.Kind == ValueNull || b.Kind == ValueNull {
		switch {
		case a.Kind == ValueNull && b.Kind == ValueNull:
			return 0
		case a.Kind == ValueNull:
			return 1
		default:
			return -1
		}
	}
	if a.Kind != b.Kind {
		return 0
	}
	switch a.Kind {
	case ValueString:
		return strings.Compare(a.Str, b.Str)
	case ValueNumber:
		switch {
		case a.Num < b.Num:
			return -1
		case a.Num > b.Num:
			return 1
		}
	}
	return 0
}

// Field extracts one declared field from a record.
type Field[T any] func(T) Value

// View declares the filterable/sortable fields of a resource. One View
// per resource replaces the per-screen copies the original UI carried.
type View[T any] struct {
	Fields map[string]Field[T]
}

func (v View[T]) value(rec T, field string) Value {
	f, ok := v.Fields[field]
	if !ok {
		return Null()
	}
	return f(rec)
}

// SortDirection is the three-state sort flag.
type SortDirection int

const (
	SortNone SortDirection = iota
	SortDesc
	SortAsc
)

func (d SortDirection) String() string {
	switch d {
	case SortDesc:
		return "desc"
	case SortAsc:
		return "asc"
	default:
		return ""
	}
}

// ParseSortDirection maps a query parameter back onto a direction.
func ParseSortDirection(s string) SortDirection {
	switch s {
	case "asc":
		return SortAsc
	case "desc":
		return SortDesc
	default:
		return SortNone
	}
}

// SortState holds the current sort key and direction. The resting state
// is {Key: "", Direction: SortNone}.
type SortState struct {
	Key       string
	Direction SortDirection
}

// Toggle advances the sort cycle for key: none → desc → asc → none.
// Toggling a different key jumps straight to descending.
func (s *SortState) Toggle(key string) {
	switch {
	case s.Key != key:
		s.Key = key
		s.Direction = SortDesc
	case s.Direction == SortDesc:
		s.Direction = SortAsc
	default:
		s.Key = ""
		s.Direction = SortNone
	}
}

// Active reports whether a sort should be applied.
func (s SortState) Active() bool {
	return s.Key != "" && s.Direction != SortNone
}

// PageState holds the current page number and size. CurrentPage never
// drops below 1.
type PageState struct {
	Current int
	Size    int
}

// Filter keeps the records whose declared fields case-insensitively
// contain every non-empty filter value. Unknown or absent fields match
// as the empty string.
func Filter[T any](view View[T], records []T, filters map[string]string) []T {
	active := make(map[string]string, len(filters))
	for field, needle := range filters {
		if needle != "" {
			active[field] = strings.ToLower(needle)
		}
	}
	if len(active) == 0 {
		return records
	}

	out := make([]T, 0, len(records))
	for _, rec := range records {
		keep := true
		for field, needle := range active {
			text := strings.ToLower(view.value(rec, field).Text())
			if !strings.Contains(text, needle) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, rec)
		}
	}
	return out
}

// Sort orders records by the sort state. The sort is stable: ties keep
// their original relative order, so re-sorting an already sorted set is
// a no-op. The input slice is not modified.
func Sort[T any](view View[T], records []T, s SortState) []T {
	if !s.Active() {
		return records
	}

	out := make([]T, len(records))
	copy(out, records)

	sort.SliceStable(out, func(i, j int) bool {
		c := compare(view.value(out[i], s.Key), view.value(out[j], s.Key))
		if s.Direction == SortDesc {
			return c > 0
		}
		return c < 0
	})
	return out
}

// Paginate slices one page out of the record set. A page past the end
// yields an empty slice, not an error.
func Paginate[T any](records []T, page PageState) []T {
	if page.Size <= 0 {
		return records
	}
	start := (page.Current - 1) * page.Size
	if start < 0 || start >= len(records) {
		return nil
	}
	end := start + page.Size
	if end > len(records) {
		end = len(records)
	}
	return records[start:end]
}

// TotalPages computes the page count for a filtered total.
func TotalPages(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// Result is one recomputed page of visible rows.
type Result[T any] struct {
	Rows       []T
	Total      int
	TotalPages int
}

// ListState composes the filter, sort and page models for the
// client-side variant of a list view.
type ListState[T any] struct {
	view    View[T]
	Filters map[string]string
	Sort    SortState
	Page    PageState
}

// NewListState builds a list state with empty filters on page 1.
func NewListState[T any](view View[T], pageSize int) *ListState[T] {
	return &ListState[T]{
		view:    view,
		Filters: make(map[string]string),
		Page:    PageState{Current: 1, Size: pageSize},
	}
}

// SetFilter records a filter value and resets to the first page.
func (ls *ListState[T]) SetFilter(field, value string) {
	ls.Filters[field] = value
	ls.Page.Current = 1
}

// SetPageSize changes the page size and resets to the first page.
func (ls *ListState[T]) SetPageSize(size int) {
	ls.Page.Size = size
	ls.Page.Current = 1
}

// ToggleSort advances the sort cycle for key.
func (ls *ListState[T]) ToggleSort(key string) {
	ls.Sort.Toggle(key)
}

// NextPage advances a page, clamped to the given extent.
func (ls *ListState[T]) NextPage(totalPages int) {
	if ls.Page.Current < totalPages {
		ls.Page.Current++
	}
}

// PrevPage steps back a page, never below 1.
func (ls *ListState[T]) PrevPage() {
	if ls.Page.Current > 1 {
		ls.Page.Current--
	}
}

// Apply recomputes the visible rows from the full record set.
func (ls *ListState[T]) Apply(records []T) Result[T] {
	filtered := Filter(ls.view, records, ls.Filters)
	sorted := Sort(ls.view, filtered, ls.Sort)
	return Result[T]{
		Rows:       Paginate(sorted, ls.Page),
		Total:      len(sorted),
		TotalPages: TotalPages(len(sorted), ls.Page.Size),
	}
}
