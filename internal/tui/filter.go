package tui

// filterChanged applies a new filter text: every keystroke returns to the
// first local page.
func (m *Model) filterChanged() {
	if m.table != nil {
		m.table.ResetPage()
	}
	m.cursor = 0
}

func (m *Model) clearFilter() {
	m.filterInput.SetValue("")
	m.filterChanged()
}
