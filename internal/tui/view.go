package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/whatsmynameidontknow/crm-admin/internal/entity"
	"github.com/whatsmynameidontknow/crm-admin/internal/report"
	"github.com/whatsmynameidontknow/crm-admin/internal/table"
)

// View renders the current TUI state.
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("CRM Admin") + "\n")

	if m.notice != nil {
		switch m.notice.kind {
		case noticeSuccess:
			sb.WriteString(successStyle.Render("✓ " + m.notice.text))
		case noticeError:
			sb.WriteString(errorStyle.Render("✗ " + m.notice.text))
		}
	}
	sb.WriteString("\n\n")

	switch m.state {
	case stateSignIn:
		m.viewSignIn(&sb)

	case stateMenu:
		sb.WriteString(m.menu.View())

	case stateList:
		m.viewList(&sb)

	case stateForm:
		m.viewForm(&sb)

	case stateConfirmDelete:
		m.viewConfirmDelete(&sb)

	case stateBulkProgress:
		m.viewProgress(&sb)

	case stateBulkDone:
		m.viewBulkDone(&sb)
	}

	if m.err != nil {
		sb.WriteString("\n" + errorStyle.Render(m.err.Error()) + "\n")
	}

	return sb.String()
}

func (m Model) viewSignIn(sb *strings.Builder) {
	sb.WriteString("Sign in to continue:\n\n")
	sb.WriteString(m.userInput.View() + "\n")
	sb.WriteString(m.passInput.View() + "\n\n")
	if m.signingIn {
		sb.WriteString(statusStyle.Render("Signing in...") + "\n")
	}
	sb.WriteString("[tab:switch] [enter:sign in] [esc:quit]\n")
}

func (m Model) viewList(sb *strings.Builder) {
	if m.table == nil {
		return
	}
	fmt.Fprintf(sb, "%s\n", headerStyle.Render(m.desc.Plural))
	sb.WriteString(statusStyle.Render(fmt.Sprintf("signed in as %s (%s)", m.session.Username, m.session.Role)) + "\n\n")

	if m.inputMode || m.filterInput.Value() != "" {
		sb.WriteString(m.filterInput.View() + "\n\n")
	}

	w := m.window()
	sb.WriteString(m.tableHeader() + "\n")

	for i, row := range w.Rows {
		cursor := " "
		if m.cursor == i {
			cursor = ">"
		}
		check := "[ ]"
		if m.table.IsSelected(m.desc.Key(row)) {
			check = "[✓]"
		}
		line := check + " " + m.tableCells(row)
		if m.cursor == i {
			line = selectedStyle.Render(line)
		}
		fmt.Fprintf(sb, "%s %s\n", cursor, line)
	}

	filler := w.Filler
	if len(w.Rows) == 0 {
		switch {
		case w.NotFound:
			fmt.Fprintf(sb, "  No results found for %q. Try checking for typos or using complete words.\n", strings.TrimSpace(m.filterInput.Value()))
		case m.loading:
			sb.WriteString(statusStyle.Render("  Loading...") + "\n")
		default:
			sb.WriteString("  No data\n")
		}
		filler--
	}
	for range max(0, filler) {
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	m.viewListStatusLine(sb, w)

	if m.inputMode {
		sb.WriteString("\n[enter:apply] [esc:clear]\n")
	} else if m.readOnly() {
		sb.WriteString("\n[/:filter] [1-9:sort] [space:toggle] [←/→:page] [[/]:fetch page] [+:rows] [r:refresh] [esc:menu]\n")
	} else {
		sb.WriteString("\n[/:filter] [1-9:sort] [space:toggle] [a:all] [n:none] [←/→:page] [[/]:fetch page] [+:rows]\n")
		sb.WriteString("[c:create] [e:edit] [d:delete] [D:delete selected] [r:refresh] [esc:menu] [ctrl+l:sign out]\n")
	}
}

func (m Model) tableHeader() string {
	cells := make([]string, len(m.desc.Columns))
	for i, col := range m.desc.Columns {
		label := fmt.Sprintf("%d %s", i+1, col.Label)
		if m.table.OrderBy == col.ID {
			label += " " + m.table.Order.Arrow()
		}
		cells[i] = fit(label, col.Width)
	}
	return "      " + headerStyle.Render(strings.Join(cells, " "))
}

func (m Model) tableCells(row entity.Row) string {
	cells := make([]string, len(m.desc.Columns))
	for i, col := range m.desc.Columns {
		cells[i] = fit(row.String(col.ID), col.Width)
	}
	return strings.Join(cells, " ")
}

// fit pads or truncates s to exactly width cells.
func fit(s string, width int) string {
	if lipgloss.Width(s) > width {
		r := []rune(s)
		for len(r) > 0 && lipgloss.Width(string(r))+1 > width {
			r = r[:len(r)-1]
		}
		s = string(r) + "…"
	}
	return s + strings.Repeat(" ", max(0, width-lipgloss.Width(s)))
}

func (m Model) viewListStatusLine(sb *strings.Builder, w table.Window[entity.Row]) {
	filteredOut := w.Total - w.Matched
	pages := m.table.PageCount(w.Matched)

	var line string
	switch {
	case w.Matched == 0 && w.Total > 0:
		line = fmt.Sprintf("none matched (%d filtered)", filteredOut)
	case filteredOut > 0:
		line = fmt.Sprintf("%d items (%d filtered)", w.Matched, filteredOut)
	default:
		line = fmt.Sprintf("%d items", w.Matched)
	}
	line += fmt.Sprintf(" | %d selected | %d per page | page %d/%d", m.table.SelectedCount(), m.table.RowsPerPage, m.table.Page+1, pages)
	sb.WriteString(line + "\n")

	fetched := fmt.Sprintf("fetched page %d/%d ", m.backendPage, m.totalPages)
	if m.loading {
		fetched += "(loading) "
	}
	sb.WriteString(statusStyle.Render(fetched) + m.pager.View() + "\n")
}

func (m Model) viewForm(sb *strings.Builder) {
	f := m.form
	if f == nil {
		return
	}
	verb := "Add"
	if f.editing {
		verb = "Edit"
	}
	fmt.Fprintf(sb, "%s %s:\n\n", verb, m.desc.Name)

	if f.loading {
		sb.WriteString(statusStyle.Render("Loading...") + "\n\n")
	}

	for i, fd := range m.desc.Fields {
		cursor := " "
		label := fd.Label
		if fd.Required && !(fd.CreateOnly && f.editing) {
			label += "*"
		}
		if i == f.focus {
			cursor = ">"
			label = selectedStyle.Render(label)
		}
		fmt.Fprintf(sb, "%s %s\n    %s\n", cursor, label, f.display(i))
		if msg, ok := f.errors[fd.Name]; ok {
			sb.WriteString("    " + errorStyle.Render(msg) + "\n")
		}
	}

	if f.editing {
		sb.WriteString("\n" + statusStyle.Render("Leave the password blank to keep it.") + "\n")
	}
	if f.submitting {
		sb.WriteString("\n" + statusStyle.Render("Saving...") + "\n")
	}
	sb.WriteString("\n[tab/shift+tab:move] [ctrl+n/ctrl+p:choose] [enter:save] [esc:cancel]\n")
}

func (m Model) viewConfirmDelete(sb *strings.Builder) {
	if m.bulk {
		fmt.Fprintf(sb, "Delete %d selected %s?\n\n", len(m.pendingDelete), strings.ToLower(m.desc.Plural))
		for _, k := range m.pendingDelete {
			fmt.Fprintf(sb, "- %s\n", k)
		}
		sb.WriteString("\n")
	} else if len(m.pendingDelete) == 1 {
		fmt.Fprintf(sb, "Delete %s %q?\n\n", strings.ToLower(m.desc.Name), m.pendingDelete[0])
	}

	if m.desc.DeleteWarning != "" {
		sb.WriteString(errorStyle.Render("⚠ "+m.desc.DeleteWarning) + "\n\n")
	}

	sb.WriteString("[Y:confirm] [N:back]\n")
}

func (m Model) viewProgress(sb *strings.Builder) {
	fmt.Fprintf(sb, "Deleting... (%d/%d)\n", len(m.bulkResults), m.bulkTotal)
	sb.WriteString(m.progress.View() + "\n")
	if n := len(m.bulkResults); n > 0 {
		sb.WriteString(statusStyle.Render("Last: "+m.bulkResults[n-1].Key) + "\n")
	}
}

func (m Model) viewBulkDone(sb *strings.Builder) {
	ok, failed := report.Counts(m.bulkResults)
	if failed == 0 {
		sb.WriteString(successStyle.Render("✓ Delete Complete!") + "\n")
	} else {
		sb.WriteString(errorStyle.Render(fmt.Sprintf("⚠ %d of %d deletes failed", failed, ok+failed)) + "\n")
	}
	sb.WriteString("\n" + report.Generate("deleted", m.bulkResults) + "\n")
	sb.WriteString("\nPress any key to return\n")
}
