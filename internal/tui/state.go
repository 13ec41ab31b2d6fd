package tui

import (
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/whatsmynameidontknow/crm-admin/internal/api"
	"github.com/whatsmynameidontknow/crm-admin/internal/entity"
	"github.com/whatsmynameidontknow/crm-admin/internal/report"
	"github.com/whatsmynameidontknow/crm-admin/internal/session"
)

type sessionState int

const (
	stateSignIn sessionState = iota
	stateMenu
	stateList
	stateForm
	stateConfirmDelete
	stateBulkProgress
	stateBulkDone
)

const (
	noticeTTL   = 3 * time.Second
	bulkWorkers = 4
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1).
			MarginBottom(1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AD58B4")).
			Bold(true)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Underline(true)
)

type noticeKind int

const (
	noticeSuccess noticeKind = iota
	noticeError
)

// notice is a transient toast. id lets an expiry tick tell whether it still
// refers to the notice on screen.
type notice struct {
	id   int
	kind noticeKind
	text string
}

// Messages

type signedInMsg struct {
	session session.Session
}

type signInFailedMsg struct {
	err error
}

// pageLoadedMsg carries the tag of the request that produced it: seq is the
// request number, page the backend page asked for.
type pageLoadedMsg struct {
	seq    int
	entity string
	page   int
	result api.Page
	err    error
}

type recordLoadedMsg struct {
	key string
	row entity.Row
	err error
}

type optionsLoadedMsg struct {
	options []entity.Option
	err     error
}

type mutationDoneMsg struct {
	verb string // "added", "updated", "deleted"
	err  error
}

type bulkStartedMsg struct {
	ch    <-chan bulkProgressMsg
	total int
}

type bulkProgressMsg struct {
	result report.Result
}

type bulkDoneMsg struct{}

type noticeExpiredMsg struct {
	id int
}

type openEntityMsg struct {
	name string
}
