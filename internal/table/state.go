// Package table holds the per-screen table state (paging, sort, selection)
// and the pure filter-and-sort engine that produces the rows a list screen
// renders.
package table

import (
	"sort"
)

// DefaultRowsPerPage is the local page size a fresh State starts with.
const DefaultRowsPerPage = 5

// RowsPerPageOptions are the sizes a screen cycles through.
var RowsPerPageOptions = []int{5, 10, 25}

// Order is a sort direction.
type Order int

const (
	Ascending Order = iota
	Descending
)

func (o Order) String() string {
	if o == Descending {
		return "desc"
	}
	return "asc"
}

// Arrow returns the header indicator for the direction.
func (o Order) Arrow() string {
	if o == Descending {
		return "▼"
	}
	return "▲"
}

// ParseOrder accepts "asc"/"desc" (anything else is ascending).
func ParseOrder(s string) Order {
	if s == "desc" {
		return Descending
	}
	return Ascending
}

// State is the sort, pagination and selection state of one listing screen.
// It lives as long as the screen and is never persisted.
type State struct {
	Page        int
	RowsPerPage int
	OrderBy     string
	Order       Order

	selected map[string]struct{}
}

// NewState returns a State sorted ascending by orderBy, on page 0.
func NewState(orderBy string) *State {
	return &State{
		RowsPerPage: DefaultRowsPerPage,
		OrderBy:     orderBy,
		Order:       Ascending,
		selected:    make(map[string]struct{}),
	}
}

// SetSort sorts by field. Choosing the current field again flips the
// direction; a different field starts ascending.
func (s *State) SetSort(field string) {
	if s.OrderBy == field && s.Order == Ascending {
		s.Order = Descending
	} else {
		s.Order = Ascending
	}
	s.OrderBy = field
}

// SelectAll replaces the selection with keys when checked, or clears it.
func (s *State) SelectAll(checked bool, keys []string) {
	s.selected = make(map[string]struct{}, len(keys))
	if !checked {
		return
	}
	for _, k := range keys {
		s.selected[k] = struct{}{}
	}
}

// ToggleRow flips the membership of key in the selection.
func (s *State) ToggleRow(key string) {
	if s.selected == nil {
		s.selected = make(map[string]struct{})
	}
	if _, ok := s.selected[key]; ok {
		delete(s.selected, key)
		return
	}
	s.selected[key] = struct{}{}
}

// ResetPage returns to the first local page.
func (s *State) ResetPage() {
	s.Page = 0
}

// SetRowsPerPage changes the page size and returns to page 0.
// Non-positive sizes are ignored.
func (s *State) SetRowsPerPage(n int) {
	if n <= 0 {
		return
	}
	s.RowsPerPage = n
	s.ResetPage()
}

// CycleRowsPerPage moves to the next entry of RowsPerPageOptions.
func (s *State) CycleRowsPerPage() {
	next := RowsPerPageOptions[0]
	for i, n := range RowsPerPageOptions {
		if n == s.RowsPerPage && i+1 < len(RowsPerPageOptions) {
			next = RowsPerPageOptions[i+1]
			break
		}
	}
	s.SetRowsPerPage(next)
}

// SetPage moves to page p (negative pages clamp to 0). Pages past the end
// are allowed and render empty.
func (s *State) SetPage(p int) {
	s.Page = max(0, p)
}

// PageCount is the number of local pages needed for total rows (at least 1).
func (s *State) PageCount(total int) int {
	if total <= 0 || s.RowsPerPage <= 0 {
		return 1
	}
	return (total + s.RowsPerPage - 1) / s.RowsPerPage
}

// NextPage advances one local page if there is one.
func (s *State) NextPage(total int) bool {
	if s.Page+1 >= s.PageCount(total) {
		return false
	}
	s.Page++
	return true
}

// PrevPage goes back one local page if possible.
func (s *State) PrevPage() bool {
	if s.Page == 0 {
		return false
	}
	s.Page--
	return true
}

func (s *State) IsSelected(key string) bool {
	_, ok := s.selected[key]
	return ok
}

func (s *State) SelectedCount() int {
	return len(s.selected)
}

// SelectedKeys returns the selection in sorted order.
func (s *State) SelectedKeys() []string {
	keys := make([]string, 0, len(s.selected))
	for k := range s.selected {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Retain drops every selected key that is not in keys. It is called when a
// fresh page of rows replaces the loaded data.
func (s *State) Retain(keys []string) {
	present := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		present[k] = struct{}{}
	}
	for k := range s.selected {
		if _, ok := present[k]; !ok {
			delete(s.selected, k)
		}
	}
}
