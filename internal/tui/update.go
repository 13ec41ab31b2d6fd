package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/whatsmynameidontknow/crm-admin/internal/api"
	"github.com/whatsmynameidontknow/crm-admin/internal/entity"
	"github.com/whatsmynameidontknow/crm-admin/internal/report"
	"github.com/whatsmynameidontknow/crm-admin/internal/table"
)

const sessionExpired = "Session expired, please sign in again"

// Update handles all Bubble Tea messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case signedInMsg:
		return m.handleSignedIn(msg)

	case signInFailedMsg:
		m.signingIn = false
		m.err = errors.New(api.Message(msg.err, "Login failed"))
		m.log.WithError(msg.err).Warn("sign-in failed")
		return m, nil

	case openEntityMsg:
		m.openEntity = ""
		d, ok := entity.Lookup(msg.name)
		if !ok || !m.allowed(d) {
			return m, nil
		}
		return m.openList(d)

	case pageLoadedMsg:
		return m.handlePageLoaded(msg)

	case recordLoadedMsg:
		return m.handleRecordLoaded(msg)

	case optionsLoadedMsg:
		return m.handleOptionsLoaded(msg)

	case mutationDoneMsg:
		return m.handleMutationDone(msg)

	case bulkStartedMsg:
		m.progressCh = msg.ch
		m.bulkTotal = msg.total
		return m, waitForProgress(msg.ch)

	case bulkProgressMsg:
		return m.handleProgress(msg)

	case bulkDoneMsg:
		return m.handleBulkDone()

	case progress.FrameMsg:
		updatedProgress, progressCmd := m.progress.Update(msg)
		m.progress = updatedProgress.(progress.Model)
		return m, progressCmd

	case noticeExpiredMsg:
		if m.notice != nil && m.notice.id == msg.id {
			m.notice = nil
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.menu.SetSize(msg.Width, max(5, msg.Height-5))
		m.progress.Width = msg.Width - 10
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	default:
		if m.state == stateMenu {
			m.menu, cmd = m.menu.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

// allowed reports whether the signed-in role can open d at all.
func (m Model) allowed(d entity.Descriptor) bool {
	for _, it := range menuItems(m.session) {
		if it.(menuItem).desc.Path == d.Path {
			return true
		}
	}
	return false
}

// unauthorized signs out when err is a 401. The second result tells the
// caller whether it happened.
func (m *Model) unauthorized(err error) (tea.Cmd, bool) {
	if !errors.Is(err, api.ErrUnauthorized) {
		return nil, false
	}
	return m.signOut(sessionExpired), true
}

func (m Model) handleSignedIn(msg signedInMsg) (tea.Model, tea.Cmd) {
	m.signingIn = false
	m.session = msg.session
	m.saveSession()
	m.passInput.SetValue("")
	m.err = nil
	m.log.WithFields(logrus.Fields{"user": m.session.Username, "role": m.session.Role}).Info("signed in")

	w, h := 60, 20
	if m.width > 0 {
		w = m.width
	}
	if m.height > 5 {
		h = m.height - 5
	}
	m.menu = newMenu(menuItems(m.session), w, h)
	m.state = stateMenu

	noticeCmd := m.showNotice(noticeSuccess, "Signed in as "+m.session.Username)
	if name := m.openEntity; name != "" {
		m.openEntity = ""
		return m, tea.Batch(noticeCmd, openEntityCmd(name))
	}
	return m, noticeCmd
}

func (m Model) openList(d entity.Descriptor) (tea.Model, tea.Cmd) {
	m.desc = d
	m.table = table.NewState(d.DefaultOrderBy)
	m.table.SetRowsPerPage(m.rowsPerPage)
	m.rows = nil
	m.cursor = 0
	m.backendPage = 1
	m.totalPages = 1
	m.pager.TotalPages = 1
	m.pager.Page = 0
	m.inputMode = false
	m.filterInput.Blur()
	m.filterInput.SetValue("")
	m.form = nil
	m.pendingDelete = nil
	m.state = stateList
	cmd := m.requestPage(1)
	return m, cmd
}

func (m Model) handlePageLoaded(msg pageLoadedMsg) (tea.Model, tea.Cmd) {
	if m.table == nil || msg.entity != m.desc.Path || msg.seq != m.requestSeq || msg.page != m.pendingPage {
		m.log.WithFields(logrus.Fields{"entity": msg.entity, "page": msg.page, "seq": msg.seq, "latest": m.requestSeq}).
			Debug("discarding stale page")
		return m, nil
	}
	m.loading = false

	if msg.err != nil {
		if cmd, ok := m.unauthorized(msg.err); ok {
			return m, cmd
		}
		m.log.WithFields(logrus.Fields{"entity": msg.entity, "page": msg.page}).WithError(msg.err).Error("fetch failed")
		return m, nil
	}

	m.backendPage = msg.page
	m.rows = msg.result.Results
	m.totalPages = max(1, msg.result.TotalPages)
	m.pager.TotalPages = m.totalPages
	m.pager.Page = min(msg.page-1, m.totalPages-1)
	m.table.Retain(m.desc.Keys(m.rows))

	w := m.window()
	if pages := m.table.PageCount(w.Matched); m.table.Page >= pages {
		m.table.SetPage(pages - 1)
	}
	m.clampCursor()
	return m, nil
}

func (m Model) handleRecordLoaded(msg recordLoadedMsg) (tea.Model, tea.Cmd) {
	f := m.form
	if f == nil || !f.editing || f.key != msg.key {
		return m, nil
	}
	f.loading = false
	if msg.err != nil {
		if cmd, ok := m.unauthorized(msg.err); ok {
			return m, cmd
		}
		m.form = nil
		m.state = stateList
		cmd := m.showNotice(noticeError, "Error: "+api.Message(msg.err, "Failed to load "+strings.ToLower(m.desc.Name)))
		return m, cmd
	}
	f.fill(msg.row)
	return m, nil
}

func (m Model) handleOptionsLoaded(msg optionsLoadedMsg) (tea.Model, tea.Cmd) {
	f := m.form
	if f == nil {
		return m, nil
	}
	f.optionsLoading = false
	if msg.err != nil {
		if cmd, ok := m.unauthorized(msg.err); ok {
			return m, cmd
		}
		m.log.WithError(msg.err).Warn("could not load client options")
		cmd := m.showNotice(noticeError, api.Message(msg.err, "Failed to load dropdown data"))
		return m, cmd
	}
	f.setOptions(msg.options)
	return m, nil
}

func (m Model) handleMutationDone(msg mutationDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if cmd, ok := m.unauthorized(msg.err); ok {
			return m, cmd
		}
		m.log.WithFields(logrus.Fields{"entity": m.desc.Path, "op": msg.verb}).WithError(msg.err).Error("mutation failed")
		if m.form != nil {
			m.form.submitting = false
		}
		cmd := m.showNotice(noticeError, "Error: "+api.Message(msg.err, mutationFallback(msg.verb, m.desc.Name)))
		return m, cmd
	}

	m.log.WithFields(logrus.Fields{"entity": m.desc.Path, "op": msg.verb}).Info("mutation succeeded")
	m.form = nil
	m.pendingDelete = nil
	m.state = stateList
	noticeCmd := m.showNotice(noticeSuccess, fmt.Sprintf("%s %s successfully", m.desc.Name, msg.verb))
	fetchCmd := m.requestPage(m.backendPage)
	return m, tea.Batch(noticeCmd, fetchCmd)
}

// mutationFallback is shown when a failed mutation carries no backend message.
func mutationFallback(verb, name string) string {
	name = strings.ToLower(name)
	switch verb {
	case "updated":
		return "Failed to update " + name
	case "deleted":
		return "Failed to delete " + name
	default:
		return "Failed to add " + name
	}
}

func (m Model) handleProgress(msg bulkProgressMsg) (tea.Model, tea.Cmd) {
	m.bulkResults = append(m.bulkResults, msg.result)

	percent := 1.0
	if m.bulkTotal > 0 {
		percent = float64(len(m.bulkResults)) / float64(m.bulkTotal)
	}

	progressCmd := m.progress.SetPercent(percent)
	return m, tea.Batch(progressCmd, waitForProgress(m.progressCh))
}

func (m Model) handleBulkDone() (tea.Model, tea.Cmd) {
	m.progressCh = nil
	m.state = stateBulkDone

	ok, failed := report.Counts(m.bulkResults)
	m.log.WithFields(logrus.Fields{"entity": m.desc.Path, "deleted": ok, "failed": failed}).Info("bulk delete finished")

	for _, r := range m.bulkResults {
		if cmd, unauthorized := m.unauthorized(r.Err); unauthorized {
			return m, cmd
		}
	}
	if m.table != nil {
		m.table.SelectAll(false, nil)
	}
	progressCmd := m.progress.SetPercent(1)
	return m, progressCmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	m.notice = nil

	switch m.state {
	case stateSignIn:
		return m.handleKeySignIn(msg)
	case stateMenu:
		return m.handleKeyMenu(msg)
	case stateList:
		return m.handleKeyList(msg)
	case stateForm:
		return m.handleKeyForm(msg)
	case stateConfirmDelete:
		return m.handleKeyConfirmDelete(msg)
	case stateBulkDone:
		return m.handleKeyBulkDone(msg)
	}

	return m, nil
}

func (m Model) handleKeySignIn(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, tea.Quit
	case "tab", "shift+tab", "up", "down":
		m.toggleSignInFocus()
		return m, nil
	case "enter":
		if m.userInput.Focused() && m.passInput.Value() == "" {
			m.toggleSignInFocus()
			return m, nil
		}
		if m.signingIn {
			return m, nil
		}
		username := strings.TrimSpace(m.userInput.Value())
		password := m.passInput.Value()
		if username == "" || password == "" {
			m.err = errors.New("Username and password are required")
			return m, nil
		}
		m.err = nil
		m.signingIn = true
		return m, m.signInCmd(username, password)
	}

	var cmd tea.Cmd
	if m.userInput.Focused() {
		m.userInput, cmd = m.userInput.Update(msg)
	} else {
		m.passInput, cmd = m.passInput.Update(msg)
	}
	return m, cmd
}

func (m *Model) toggleSignInFocus() {
	if m.userInput.Focused() {
		m.userInput.Blur()
		m.passInput.Focus()
		return
	}
	m.passInput.Blur()
	m.userInput.Focus()
}

func (m Model) handleKeyMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if item, ok := m.menu.SelectedItem().(menuItem); ok {
			return m.openList(item.desc)
		}
		return m, nil
	case "ctrl+l":
		cmd := m.signOut("")
		return m, cmd
	}
	var cmd tea.Cmd
	m.menu, cmd = m.menu.Update(msg)
	return m, cmd
}

func (m Model) handleKeyList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.table == nil {
		return m, nil
	}
	if m.inputMode {
		return m.handleKeyFilter(msg)
	}

	switch k := msg.String(); k {
	case "/":
		m.inputMode = true
		m.filterInput.Focus()
		return m, nil
	case "up", "k":
		m.moveCursor(-1)
	case "down", "j":
		m.moveCursor(1)
	case "left", "h":
		if m.table.PrevPage() {
			m.cursor = 0
		}
	case "right", "l":
		if m.table.NextPage(m.window().Matched) {
			m.cursor = 0
		}
	case "[":
		if m.backendPage > 1 {
			cmd := m.requestPage(m.backendPage - 1)
			return m, cmd
		}
	case "]":
		if m.backendPage < m.totalPages {
			cmd := m.requestPage(m.backendPage + 1)
			return m, cmd
		}
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		if i := int(k[0] - '1'); i < len(m.desc.Columns) {
			m.table.SetSort(m.desc.Columns[i].ID)
			m.cursor = 0
		}
	case " ":
		if row, ok := m.currentRow(); ok {
			m.table.ToggleRow(m.desc.Key(row))
		}
	case "a", "A":
		m.table.SelectAll(true, m.desc.Keys(m.rows))
	case "n", "N":
		m.table.SelectAll(false, nil)
	case "+":
		m.table.CycleRowsPerPage()
		m.cursor = 0
	case "r":
		cmd := m.requestPage(m.backendPage)
		return m, cmd
	case "c", "e", "enter", "d", "D":
		return m.handleKeyListAction(k)
	case "esc":
		m.state = stateMenu
	case "ctrl+l":
		cmd := m.signOut("")
		return m, cmd
	}

	return m, nil
}

// handleKeyListAction covers the keys that change data.
func (m Model) handleKeyListAction(k string) (tea.Model, tea.Cmd) {
	if m.readOnly() {
		cmd := m.showNotice(noticeError, fmt.Sprintf("%s are read-only for your account", m.desc.Plural))
		return m, cmd
	}

	switch k {
	case "c":
		f := newForm(m.desc, m.session.Role, m.session.Username)
		m.form = f
		m.state = stateForm
		if f.hasChoice() {
			f.optionsLoading = true
			return m, m.loadOptionsCmd()
		}
	case "e", "enter":
		row, ok := m.currentRow()
		if !ok {
			return m, nil
		}
		key := m.desc.Key(row)
		f := newForm(m.desc, m.session.Role, m.session.Username)
		f.editing = true
		f.key = key
		f.locked[m.desc.IdentityField] = key
		f.loading = true
		f.setFocus(f.firstEditable())
		m.form = f
		m.state = stateForm
		cmds := []tea.Cmd{m.loadRecordCmd(key)}
		if f.hasChoice() {
			f.optionsLoading = true
			cmds = append(cmds, m.loadOptionsCmd())
		}
		return m, tea.Batch(cmds...)
	case "d":
		row, ok := m.currentRow()
		if !ok {
			return m, nil
		}
		m.pendingDelete = []string{m.desc.Key(row)}
		m.bulk = false
		m.state = stateConfirmDelete
	case "D":
		keys := m.table.SelectedKeys()
		if len(keys) == 0 {
			cmd := m.showNotice(noticeError, "No rows selected")
			return m, cmd
		}
		m.pendingDelete = keys
		m.bulk = true
		m.state = stateConfirmDelete
	}
	return m, nil
}

func (m Model) handleKeyFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "up", "down":
		m.inputMode = false
		m.filterInput.Blur()
		if key == "up" {
			m.moveCursor(-1)
		} else {
			m.moveCursor(1)
		}
		return m, nil
	case "enter":
		m.inputMode = false
		m.filterInput.Blur()
		return m, nil
	case "esc":
		m.inputMode = false
		m.filterInput.Blur()
		m.clearFilter()
		return m, nil
	default:
		var cmd tea.Cmd
		before := m.filterInput.Value()
		m.filterInput, cmd = m.filterInput.Update(msg)
		if m.filterInput.Value() != before {
			m.filterChanged()
		}
		return m, cmd
	}
}

func (m Model) handleKeyForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.form
	if f == nil {
		m.state = stateList
		return m, nil
	}

	switch msg.String() {
	case "esc":
		m.form = nil
		m.state = stateList
		return m, nil
	case "tab", "down":
		f.setFocus(f.focus + 1)
		return m, nil
	case "shift+tab", "up":
		f.setFocus(f.focus - 1)
		return m, nil
	case "ctrl+n":
		f.cycle(1)
		return m, nil
	case "ctrl+p":
		f.cycle(-1)
		return m, nil
	case "left", "right":
		if f.focused().Kind == entity.KindChoice {
			if msg.String() == "left" {
				f.cycle(-1)
			} else {
				f.cycle(1)
			}
			return m, nil
		}
	case "enter":
		if f.loading || f.submitting {
			return m, nil
		}
		if !f.validate() {
			m.log.WithFields(logrus.Fields{"entity": m.desc.Path, "fields": f.errors.Fields()}).Info("form rejected")
			return m, nil
		}
		f.submitting = true
		return m, m.submitCmd(f)
	}

	return m, f.update(msg)
}

func (m Model) handleKeyConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch strings.ToLower(msg.String()) {
	case "y", "enter":
		keys := m.pendingDelete
		if len(keys) == 0 {
			m.state = stateList
			return m, nil
		}
		if m.bulk {
			m.state = stateBulkProgress
			m.bulkResults = nil
			m.bulkTotal = len(keys)
			progressCmd := m.progress.SetPercent(0)
			return m, tea.Batch(progressCmd, m.startBulkDelete(keys))
		}
		m.state = stateList
		return m, m.deleteCmd(keys[0])
	case "n", "esc", "backspace":
		m.pendingDelete = nil
		m.state = stateList
	}
	return m, nil
}

func (m Model) handleKeyBulkDone(tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.state = stateList
	m.pendingDelete = nil
	m.bulkResults = nil
	cmd := m.requestPage(m.backendPage)
	return m, cmd
}

func (m *Model) moveCursor(delta int) {
	n := len(m.window().Rows)
	if n == 0 {
		m.cursor = 0
		return
	}
	m.cursor = (m.cursor + delta + n) % n
}

func (m *Model) clampCursor() {
	n := len(m.window().Rows)
	if m.cursor >= n {
		m.cursor = max(0, n-1)
	}
}
