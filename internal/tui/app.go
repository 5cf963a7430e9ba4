package tui

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/modbrowse/internal/adapter"
	"github.com/mmcdole/modbrowse/internal/domain"
	"github.com/mmcdole/modbrowse/internal/install"
	"github.com/mmcdole/modbrowse/internal/progress"
	"github.com/mmcdole/modbrowse/internal/row"
	"github.com/mmcdole/modbrowse/internal/search"
	"github.com/mmcdole/modbrowse/internal/slot"
	"github.com/mmcdole/modbrowse/internal/tui/styles"
)

// ApplicationState represents the current state of the application
type ApplicationState int

const (
	StateBrowsing ApplicationState = iota
	StateQuery
	StateFind
	StateHelp
)

const (
	// Query bar plus footer
	ChromeHeight = 3

	statusTimeout = 4 * time.Second
)

// Services are the collaborators the model drives. Installer and Launcher
// are optional.
type Services struct {
	Search    domain.SearchRepository
	Details   domain.DetailRepository
	Icons     row.IconRequester
	Exec      slot.Executor
	Inbox     *Inbox
	Issuer    *slot.Issuer
	Tasks     *progress.Counter
	Installer *install.Service
	Launcher  *adapter.Launcher
	Logger    *slog.Logger
}

// Model is the main Bubble Tea model for the application
type Model struct {
	State ApplicationState
	Ready bool

	svc      Services
	logger   *slog.Logger
	session  *search.Session
	proj     *search.Projection
	criteria domain.SearchCriteria
	rowDeps  row.Deps
	unsub    []func()

	// Recycled row containers, one per screen line
	rows    []*row.Controller
	visible []*row.Controller // nil marks the sentinel
	nextRow int

	offset int
	cursor int
	dirty  bool

	Width  int
	Height int

	query     textinput.Model
	find      textinput.Model
	findQuery string
	spinner   spinner.Model
	help      help.Model

	StatusMsg   string
	StatusIsErr bool
	statusSeq   int
	progress    map[string]string // task id -> percent
	pending     []tea.Cmd         // commands produced while draining the inbox
}

// NewModel creates the model and its search session
func NewModel(svc Services, criteria domain.SearchCriteria) *Model {
	logger := svc.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if svc.Inbox == nil {
		svc.Inbox = NewInbox()
	}
	if svc.Issuer == nil {
		svc.Issuer = slot.NewIssuer(logger)
	}
	if svc.Tasks == nil {
		svc.Tasks = progress.NewCounter(svc.Inbox, logger)
	}

	m := &Model{
		svc:      svc,
		logger:   logger,
		criteria: criteria,
		progress: make(map[string]string),
		help:     help.New(),
	}

	m.session = search.NewSession(search.Deps{
		Repo:     svc.Search,
		Exec:     svc.Exec,
		Post:     svc.Inbox,
		Issuer:   svc.Issuer,
		Observer: m,
		Logger:   logger,
	})
	m.proj = search.NewProjection(m.session)

	m.rowDeps = row.Deps{
		Details:  svc.Details,
		Icons:    svc.Icons,
		Exec:     svc.Exec,
		Post:     svc.Inbox,
		Issuer:   svc.Issuer,
		Tasks:    svc.Tasks,
		OnChange: func(*row.Controller) { m.dirty = true },
		Logger:   logger,
	}
	if svc.Installer != nil {
		m.rowDeps.Installer = svc.Installer
		svc.Installer.OnResult(m.installFinished)
		svc.Installer.OnProgress(func(taskID string, loaded, total int64) {
			if total <= 0 {
				return
			}
			pct := fmt.Sprintf("%d%%", loaded*100/total)
			svc.Inbox.Post(func() { m.progress[taskID] = pct })
		})
	}

	m.unsub = append(m.unsub,
		m.proj.Subscribe(search.ListenerFuncs{
			Reset: func() {
				m.cursor, m.offset = 0, 0
				m.dirty = true
			},
			Inserted: func(int, int) { m.dirty = true },
			Removed: func(int, int) {
				m.clampCursor()
				m.dirty = true
			},
			Changed: func(int) { m.dirty = true },
		}),
		svc.Tasks.Subscribe(func(int) {
			for _, c := range m.rows {
				c.TasksChanged()
			}
		}),
	)

	m.query = textinput.New()
	m.query.Prompt = "search › "
	m.query.PromptStyle = styles.PromptStyle
	m.query.Placeholder = "mods, e.g. tech"
	m.query.CharLimit = 120
	m.query.SetValue(criteria.Query)

	m.find = textinput.New()
	m.find.Prompt = "find / "
	m.find.PromptStyle = styles.PromptStyle
	m.find.CharLimit = 120

	m.spinner = spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(styles.SpinnerStyle),
	)
	return m
}

// Init starts the first search and the inbox listener
func (m *Model) Init() tea.Cmd {
	m.session.Start(m.criteria)
	m.syncRows()
	return tea.Batch(
		m.svc.Inbox.WaitCmd(),
		m.spinner.Tick,
	)
}

// Session returns the search session driven by the model
func (m *Model) Session() *search.Session { return m.session }

// Update handles all messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.help.Width = msg.Width
		m.query.Width = max(msg.Width-lipgloss.Width(m.query.Prompt)-24, 10)
		m.resizeRows(m.Height - ChromeHeight)
		m.syncRows()
		return m, nil

	case InboxMsg:
		m.svc.Inbox.Drain()
		if m.dirty {
			m.syncRows()
		}
		cmds := append(m.pending, m.svc.Inbox.WaitCmd())
		m.pending = nil
		return m, tea.Batch(cmds...)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ClearStatusMsg:
		if msg.Seq == m.statusSeq {
			m.StatusMsg = ""
			m.StatusIsErr = false
		}
		return m, nil

	case LaunchedMsg:
		if msg.Err != nil {
			m.logger.Error("failed to open project page", "error", msg.Err, "url", msg.URL)
			return m, m.setStatus("could not open "+msg.URL, true)
		}
		return m, m.setStatus("opened "+msg.URL, false)

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}
	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.State {
	case StateHelp:
		m.State = StateBrowsing
		return m, nil
	case StateQuery:
		return m.handleQueryKey(msg)
	case StateFind:
		return m.handleFindKey(msg)
	}

	switch {
	case key.Matches(msg, Keys.Quit):
		m.Close()
		return m, tea.Quit
	case key.Matches(msg, Keys.Help):
		m.State = StateHelp
	case key.Matches(msg, Keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, Keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, Keys.PageUp):
		m.moveCursor(-m.pageSize())
	case key.Matches(msg, Keys.PageDown):
		m.moveCursor(m.pageSize())
	case key.Matches(msg, Keys.Home):
		m.moveCursor(-m.cursor)
	case key.Matches(msg, Keys.End):
		m.moveCursor(m.proj.Count() - 1 - m.cursor)

	case key.Matches(msg, Keys.Expand):
		if c := m.current(); c != nil {
			if c.Expanded() && c.DetailState() != row.DetailFailed {
				c.Collapse()
			} else {
				c.Expand()
			}
		}
	case key.Matches(msg, Keys.Collapse):
		if c := m.current(); c != nil {
			c.Collapse()
		}
	case key.Matches(msg, Keys.PrevVersion):
		m.stepVersion(-1)
	case key.Matches(msg, Keys.NextVersion):
		m.stepVersion(1)
	case key.Matches(msg, Keys.Install):
		return m, m.install()
	case key.Matches(msg, Keys.Open):
		return m, m.open()

	case key.Matches(msg, Keys.Search):
		m.State = StateQuery
		m.query.CursorEnd()
		return m, m.query.Focus()
	case key.Matches(msg, Keys.Find):
		m.State = StateFind
		m.find.SetValue("")
		return m, m.find.Focus()
	case key.Matches(msg, Keys.FindNext):
		return m, m.findNext()
	case key.Matches(msg, Keys.Modpacks):
		m.criteria.Modpacks = !m.criteria.Modpacks
		m.restart()
	case key.Matches(msg, Keys.Retry):
		return m, m.retry()
	}
	return m, nil
}

func (m *Model) handleQueryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Escape):
		m.State = StateBrowsing
		m.query.SetValue(m.criteria.Query)
		m.query.Blur()
		return m, nil
	case key.Matches(msg, Keys.Submit):
		m.State = StateBrowsing
		m.query.Blur()
		m.criteria.Query = strings.TrimSpace(m.query.Value())
		m.restart()
		return m, nil
	}
	var cmd tea.Cmd
	m.query, cmd = m.query.Update(msg)
	return m, cmd
}

func (m *Model) handleFindKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Escape):
		m.State = StateBrowsing
		m.find.Blur()
		return m, nil
	case key.Matches(msg, Keys.Submit):
		m.State = StateBrowsing
		m.find.Blur()
		m.findQuery = strings.TrimSpace(m.find.Value())
		return m, m.findNext()
	}
	var cmd tea.Cmd
	m.find, cmd = m.find.Update(msg)
	return m, cmd
}

func (m *Model) restart() {
	m.logger.Info("search", "query", m.criteria.Query, "modpacks", m.criteria.Modpacks)
	m.session.Start(m.criteria)
	m.syncRows()
}

func (m *Model) findNext() tea.Cmd {
	if m.findQuery == "" {
		return nil
	}
	idx, ok := m.proj.Find(m.findQuery, m.cursor)
	if !ok {
		return m.setStatus(fmt.Sprintf("no loaded match for %q", m.findQuery), false)
	}
	m.moveCursor(idx - m.cursor)
	return nil
}

func (m *Model) retry() tea.Cmd {
	if m.session.Retry() {
		m.syncRows()
		return m.setStatus("retrying", false)
	}
	if c := m.current(); c != nil && c.DetailState() == row.DetailFailed {
		c.Expand()
	}
	return nil
}

func (m *Model) stepVersion(delta int) {
	c := m.current()
	if c == nil || c.DetailState() != row.DetailLoaded {
		return
	}
	n := len(c.Detail().Versions)
	if n == 0 {
		return
	}
	_ = c.SelectVersion((c.Selected() + delta + n) % n)
}

func (m *Model) install() tea.Cmd {
	c := m.current()
	if c == nil {
		return nil
	}
	if err := c.Install(); err != nil {
		return m.setStatus("cannot install: "+err.Error(), true)
	}
	v := c.Detail().Versions[c.Selected()]
	return m.setStatus(fmt.Sprintf("installing %s %s", c.Item().Title, v.Number), false)
}

func (m *Model) installFinished(res domain.InstallResult) {
	delete(m.progress, res.TaskID)
	if res.Err != nil {
		m.pending = append(m.pending, m.setStatus("install failed: "+res.Err.Error(), true))
	} else {
		m.pending = append(m.pending, m.setStatus("installed "+res.Path, false))
	}
	m.dirty = true
}

func (m *Model) open() tea.Cmd {
	c := m.current()
	if c == nil || m.svc.Launcher == nil {
		return nil
	}
	url := adapter.ProjectURL(c.Item())
	if url == "" {
		return m.setStatus("no project page for this item", false)
	}
	return OpenURLCmd(m.svc.Launcher, url)
}

func (m *Model) setStatus(text string, isErr bool) tea.Cmd {
	m.statusSeq++
	m.StatusMsg = text
	m.StatusIsErr = isErr
	return ClearStatusCmd(m.statusSeq, statusTimeout)
}

// OnSearchFinished implements search.Observer
func (m *Model) OnSearchFinished() {
	m.dirty = true
}

// OnSearchError implements search.Observer
func (m *Model) OnSearchError(kind domain.ErrorKind, err error) {
	m.dirty = true
	if kind == domain.ErrorTransport {
		m.pending = append(m.pending, m.setStatus("search failed: "+err.Error(), true))
	}
}

// Close releases everything the model holds. Safe to call twice.
func (m *Model) Close() {
	for _, u := range m.unsub {
		u()
	}
	m.unsub = nil
	for _, c := range m.rows {
		c.Unbind()
	}
	m.session.Close()
	m.svc.Inbox.Close()
}
