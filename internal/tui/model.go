package tui

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/whatsmynameidontknow/crm-admin/internal/api"
	"github.com/whatsmynameidontknow/crm-admin/internal/entity"
	"github.com/whatsmynameidontknow/crm-admin/internal/report"
	"github.com/whatsmynameidontknow/crm-admin/internal/session"
	"github.com/whatsmynameidontknow/crm-admin/internal/table"
)

// Backend is the REST collaborator. *api.Client implements it.
type Backend interface {
	SignIn(ctx context.Context, username, password string) (session.Session, error)
	List(ctx context.Context, sess session.Session, d entity.Descriptor, page, limit int) (api.Page, error)
	Get(ctx context.Context, sess session.Session, d entity.Descriptor, key string) (entity.Row, error)
	Create(ctx context.Context, sess session.Session, d entity.Descriptor, row entity.Row) error
	Update(ctx context.Context, sess session.Session, d entity.Descriptor, row entity.Row) error
	Delete(ctx context.Context, sess session.Session, d entity.Descriptor, key string) error
	ClientOptions(ctx context.Context, sess session.Session) ([]entity.Option, error)
}

// SessionStore persists the signed-in session. *session.Store implements it.
type SessionStore interface {
	Save(s session.Session) error
	Clear() error
}

// Options configures NewModel.
type Options struct {
	Backend Backend
	Store   SessionStore
	Logger  logrus.FieldLogger

	// Session is the stored session, if any. An expired one is ignored.
	Session session.Session
	// Username pre-fills the sign-in form.
	Username string
	// Entity opens that list right after sign-in instead of the menu.
	Entity string

	RowsPerPage int
	Limit       int
	Timeout     time.Duration

	Now func() time.Time
}

// Model is the top-level Bubble Tea model for the TUI.
type Model struct {
	state   sessionState
	backend Backend
	store   SessionStore
	log     logrus.FieldLogger
	session session.Session
	err     error
	timeout time.Duration

	notice   *notice
	noticeID int

	// Sign-in
	userInput  textinput.Model
	passInput  textinput.Model
	signingIn  bool
	openEntity string

	// Menu
	menu list.Model

	// List screen
	desc        entity.Descriptor
	table       *table.State
	rows        []entity.Row
	rowsPerPage int
	limit       int
	backendPage int // 1-based, last page that loaded
	pendingPage int // page of the request in flight
	totalPages  int
	pager       paginator.Model
	requestSeq  int
	loading     bool
	cursor      int
	inputMode   bool // for name filter
	filterInput textinput.Model

	// Form
	form *form

	// Delete
	pendingDelete []string
	bulk          bool

	// Bulk delete progress
	progress    progress.Model
	progressCh  <-chan bulkProgressMsg
	bulkTotal   int
	bulkResults []report.Result

	// Window size
	width  int
	height int
}

// NewModel creates the TUI model. It starts on the menu when opts.Session
// is still valid, else on the sign-in form.
func NewModel(opts Options) Model {
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = api.DefaultTimeout
	}
	rpp := opts.RowsPerPage
	if rpp <= 0 {
		rpp = table.DefaultRowsPerPage
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = table.DefaultRowsPerPage
	}

	ui := textinput.New()
	ui.Placeholder = "username"
	ui.Prompt = "Username: "
	ui.SetValue(opts.Username)

	pi := textinput.New()
	pi.Placeholder = "password"
	pi.Prompt = "Password: "
	pi.EchoMode = textinput.EchoPassword
	pi.EchoCharacter = '•'

	if opts.Username == "" {
		ui.Focus()
	} else {
		pi.Focus()
	}

	fi := textinput.New()
	fi.Placeholder = "type to filter by name..."
	fi.Prompt = "/ "

	pg := paginator.New()
	pg.Type = paginator.Dots
	pg.ActiveDot = selectedStyle.Render("●")
	pg.InactiveDot = statusStyle.Render("○")
	pg.TotalPages = 1

	m := Model{
		backend:     opts.Backend,
		store:       opts.Store,
		log:         log,
		timeout:     timeout,
		userInput:   ui,
		passInput:   pi,
		openEntity:  opts.Entity,
		menu:        newMenu(nil, 60, 20),
		rowsPerPage: rpp,
		limit:       limit,
		backendPage: 1,
		pendingPage: 1,
		totalPages:  1,
		pager:       pg,
		filterInput: fi,
		progress:    progress.New(progress.WithDefaultGradient()),
	}

	if !opts.Session.IsZero() && opts.Session.Valid(now()) {
		m.session = opts.Session
		m.state = stateMenu
		m.menu = newMenu(menuItems(m.session), 60, 20)
	}
	return m
}

// Run starts the TUI program.
func Run(opts Options) error {
	m := NewModel(opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init returns the initial command for the Bubble Tea program.
func (m Model) Init() tea.Cmd {
	if m.state == stateMenu && m.openEntity != "" {
		return openEntityCmd(m.openEntity)
	}
	return textinput.Blink
}

func newMenu(items []list.Item, w, h int) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), w, h)
	l.Title = "CRM Admin"
	l.SetFilteringEnabled(false)
	l.KeyMap.Quit = key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "quit"))
	signOut := key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "sign out"))
	l.AdditionalShortHelpKeys = func() []key.Binding { return []key.Binding{signOut} }
	l.AdditionalFullHelpKeys = func() []key.Binding { return []key.Binding{signOut} }
	return l
}

func (m Model) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), m.timeout)
}

func (m Model) readOnly() bool {
	return m.desc.ReadOnly(m.session.Role)
}

// window runs the table engine over the loaded backend page.
func (m Model) window() table.Window[entity.Row] {
	return table.View(m.table, m.rows, m.filterInput.Value(), entity.Row.Get, m.desc.DisplayName)
}

// currentRow is the row under the cursor.
func (m Model) currentRow() (entity.Row, bool) {
	w := m.window()
	if m.cursor < 0 || m.cursor >= len(w.Rows) {
		return nil, false
	}
	return w.Rows[m.cursor], true
}
