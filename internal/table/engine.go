package table

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// Getter reads a named field from a row.
type Getter[R any] func(row R, field string) any

// Comparator orders rows by the orderBy field in the given direction.
// Fields are compared by their natural type, see CompareValues.
func Comparator[R any](orderBy string, order Order, get Getter[R]) func(a, b R) int {
	return func(a, b R) int {
		c := CompareValues(get(a, orderBy), get(b, orderBy))
		if order == Descending {
			return -c
		}
		return c
	}
}

// CompareValues compares two scalar field values. Values of the same kind
// compare naturally: numbers numerically, strings lexicographically,
// false before true. Different kinds order nil < bool < number < string < other.
func CompareValues(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch ra {
	case rankNil:
		return 0
	case rankBool:
		ba, bb := a.(bool), b.(bool)
		switch {
		case ba == bb:
			return 0
		case !ba:
			return -1
		default:
			return 1
		}
	case rankNumber:
		return cmp.Compare(toFloat(a), toFloat(b))
	case rankString:
		return strings.Compare(a.(string), b.(string))
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

const (
	rankNil = iota
	rankBool
	rankNumber
	rankString
	rankOther
)

func rank(v any) int {
	switch v.(type) {
	case nil:
		return rankNil
	case bool:
		return rankBool
	case float64, float32, int, int32, int64, uint, uint32, uint64:
		return rankNumber
	case string:
		return rankString
	}
	return rankOther
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	}
	return 0
}

// Apply returns the rows to display: a stably sorted copy of rows, narrowed
// to those whose display name (nameOf) contains the trimmed filter text,
// ignoring case. A blank filter keeps every row. rows is never modified.
func Apply[R any](rows []R, filterText string, compare func(a, b R) int, nameOf func(R) string) []R {
	type indexed struct {
		row R
		idx int
	}

	decorated := make([]indexed, len(rows))
	for i, r := range rows {
		decorated[i] = indexed{row: r, idx: i}
	}
	slices.SortFunc(decorated, func(a, b indexed) int {
		if c := compare(a.row, b.row); c != 0 {
			return c
		}
		return cmp.Compare(a.idx, b.idx)
	})

	query := strings.TrimSpace(filterText)
	fold := cases.Fold()
	if query != "" {
		query = fold.String(query)
	}

	out := make([]R, 0, len(decorated))
	for _, d := range decorated {
		if query != "" && !strings.Contains(fold.String(nameOf(d.row)), query) {
			continue
		}
		out = append(out, d.row)
	}
	return out
}

// IsBlank reports whether filterText filters nothing.
func IsBlank(filterText string) bool {
	return strings.TrimSpace(filterText) == ""
}

// NotFound is true when a non-blank filter matched no row. An empty list
// with no filter is not "not found".
func NotFound(filterText string, matched int) bool {
	return matched == 0 && !IsBlank(filterText)
}

// Slice returns rows[page*rowsPerPage : page*rowsPerPage+rowsPerPage],
// clipped to the bounds. Out-of-range pages yield an empty slice.
func Slice[R any](rows []R, page, rowsPerPage int) []R {
	if rowsPerPage <= 0 || page < 0 {
		return nil
	}
	start := page * rowsPerPage
	if start >= len(rows) {
		return nil
	}
	end := min(start+rowsPerPage, len(rows))
	return rows[start:end]
}

// EmptyRows is the number of filler rows that keep a page at rowsPerPage
// lines when only visible real rows are shown.
func EmptyRows(visible, rowsPerPage int) int {
	return max(0, rowsPerPage-visible)
}

// Window is everything a renderer needs for one screen refresh.
type Window[R any] struct {
	Rows     []R // the visible page slice
	Matched  int // rows left after filtering
	Total    int // rows before filtering
	Filler   int
	NotFound bool
}

// View runs the engine for s and cuts out the current local page.
func View[R any](s *State, rows []R, filterText string, get Getter[R], nameOf func(R) string) Window[R] {
	filtered := Apply(rows, filterText, Comparator(s.OrderBy, s.Order, get), nameOf)
	visible := Slice(filtered, s.Page, s.RowsPerPage)
	return Window[R]{
		Rows:     visible,
		Matched:  len(filtered),
		Total:    len(rows),
		Filler:   EmptyRows(len(visible), s.RowsPerPage),
		NotFound: NotFound(filterText, len(filtered)),
	}
}
