package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/esterlin12/tvplus/internal/catalog"
	"github.com/esterlin12/tvplus/internal/models"
	"github.com/esterlin12/tvplus/internal/player"
	"github.com/esterlin12/tvplus/internal/session"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	BrowseView ViewState = iota
	SearchView
	LoginView
	PlayerView
	ConfirmDeleteView
)

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	catalog  *catalog.Synchronizer
	sess     *session.Manager
	selector *player.Selector

	width  int
	height int

	channelList list.Model
	streamList  list.Model
	searchInput textinput.Model
	username    textinput.Model
	password    textinput.Model
	loginFocus  int

	confirmTarget *models.Channel
	snapshot      session.Snapshot
	sessionCh     chan session.Snapshot
	err           error
	notice        string

	help help.Model
	keys keyMap
}

type channelsRefreshedMsg struct {
	channels []models.Channel
	err      error
}

type channelOpenedMsg struct {
	channel models.Channel
	err     error
}

type loginResultMsg struct {
	err error
}

type deleteDoneMsg struct {
	name string
	err  error
}

type sessionChangedMsg session.Snapshot

// NewModel creates a new TUI model with the provided dependencies.
//
// The model subscribes to session transitions so a forced logout while the
// TUI is running downgrades the browse scope immediately.
func NewModel(ctx context.Context, cat *catalog.Synchronizer, sess *session.Manager, selector *player.Selector) *Model {
	search := textinput.New()
	search.Placeholder = "search channels..."

	username := textinput.New()
	username.Placeholder = "username"
	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword

	channelList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	channelList.Title = "Channels"
	streamList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	streamList.Title = "Streams"

	m := &Model{
		ctx:         ctx,
		view:        BrowseView,
		catalog:     cat,
		sess:        sess,
		selector:    selector,
		channelList: channelList,
		streamList:  streamList,
		searchInput: search,
		username:    username,
		password:    password,
		snapshot:    sess.Snapshot(),
		sessionCh:   make(chan session.Snapshot, 8),
		help:        help.New(),
		keys:        newKeyMap(),
	}

	sess.Subscribe(func(snap session.Snapshot) {
		select {
		case m.sessionCh <- snap:
		default:
		}
	})
	return m
}

// Init starts the initial channel fetch, the category fetch, and the session
// watcher.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.refreshChannels(), m.refreshCategories(), m.waitForSession())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.channelList.SetSize(msg.Width-4, msg.Height-8)
		m.streamList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case BrowseView:
			return m.handleBrowseKeys(msg)
		case SearchView:
			return m.handleSearchKeys(msg)
		case LoginView:
			return m.handleLoginKeys(msg)
		case PlayerView:
			return m.handlePlayerKeys(msg)
		case ConfirmDeleteView:
			return m.handleConfirmKeys(msg)
		}

	case channelsRefreshedMsg:
		m.err = msg.err
		m.setChannelItems(msg.channels)
		return m, nil

	case channelOpenedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.setStreamItems()
		m.view = PlayerView
		return m, nil

	case loginResultMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.notice = fmt.Sprintf("Signed in as %s", m.snapshotUser())
		m.view = BrowseView
		return m, m.refreshChannels()

	case deleteDoneMsg:
		m.confirmTarget = nil
		m.view = BrowseView
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.notice = fmt.Sprintf("Deleted %s", msg.name)
		return m, m.refreshChannels()

	case sessionChangedMsg:
		m.snapshot = session.Snapshot(msg)
		cmds := []tea.Cmd{m.waitForSession()}
		if m.catalog.HandleSession(m.snapshot) {
			m.notice = "Signed out; showing public channels"
			if m.view == ConfirmDeleteView {
				m.confirmTarget = nil
				m.view = BrowseView
			}
			cmds = append(cmds, m.refreshChannels())
		}
		return m, tea.Batch(cmds...)
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case BrowseView:
		return m.renderBrowse()
	case SearchView:
		return m.renderSearch()
	case LoginView:
		return m.renderLogin()
	case PlayerView:
		return m.renderPlayer()
	case ConfirmDeleteView:
		return m.renderConfirm()
	default:
		return ""
	}
}

func (m *Model) handleBrowseKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.enter):
		if item, ok := m.channelList.SelectedItem().(channelItem); ok {
			return m, m.openChannel(item.channel)
		}

	case key.Matches(msg, m.keys.search):
		m.view = SearchView
		m.searchInput.SetValue(m.catalog.Filters().Search)
		m.searchInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.category):
		categories := m.catalog.Categories()
		if len(categories) == 0 {
			m.notice = "No categories known yet"
			return m, nil
		}
		filters := m.catalog.Filters()
		filters.Category = nextCategory(categories, filters.Category)
		m.catalog.SetFilters(filters)
		return m, m.refreshChannels()

	case key.Matches(msg, m.keys.scope):
		if m.catalog.Scope() == catalog.ScopeOwned {
			m.catalog.SetScope(catalog.ScopePublic)
			return m, m.refreshChannels()
		}
		if !m.sess.IsAuthenticated() {
			m.notice = "Sign in to see your channels"
			return m.openLogin()
		}
		m.catalog.SetScope(catalog.ScopeOwned)
		return m, m.refreshChannels()

	case key.Matches(msg, m.keys.account):
		if m.sess.IsAuthenticated() {
			m.sess.Logout()
			m.notice = "Signed out"
			return m, nil
		}
		return m.openLogin()

	case key.Matches(msg, m.keys.delete):
		if m.catalog.Scope() != catalog.ScopeOwned {
			return m, nil
		}
		if item, ok := m.channelList.SelectedItem().(channelItem); ok {
			channel := item.channel
			m.confirmTarget = &channel
			m.view = ConfirmDeleteView
		}
		return m, nil

	case key.Matches(msg, m.keys.refresh):
		return m, m.refreshChannels()
	}

	var cmd tea.Cmd
	m.channelList, cmd = m.channelList.Update(msg)
	return m, cmd
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		filters := m.catalog.Filters()
		filters.Search = m.searchInput.Value()
		m.catalog.SetFilters(filters)
		m.searchInput.Blur()
		m.view = BrowseView
		return m, m.refreshChannels()
	case "esc":
		m.searchInput.Blur()
		m.view = BrowseView
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m *Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.view = BrowseView
		return m, nil
	case "tab", "shift+tab":
		m.loginFocus = (m.loginFocus + 1) % 2
		if m.loginFocus == 0 {
			m.password.Blur()
			m.username.Focus()
		} else {
			m.username.Blur()
			m.password.Focus()
		}
		return m, textinput.Blink
	case "enter":
		return m, m.login(m.username.Value(), m.password.Value())
	case "ctrl+c":
		return m, tea.Quit
	}

	var cmd tea.Cmd
	if m.loginFocus == 0 {
		m.username, cmd = m.username.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m *Model) handlePlayerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.back):
		m.selector.Close()
		m.view = BrowseView
		return m, nil

	case key.Matches(msg, m.keys.enter):
		if item, ok := m.streamList.SelectedItem().(streamItem); ok {
			if _, err := m.selector.Select(item.index); err != nil {
				m.err = err
			} else {
				m.err = nil
			}
			m.setStreamItems()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.streamList, cmd = m.streamList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y":
		if m.confirmTarget != nil {
			return m, m.deleteChannel(*m.confirmTarget)
		}
		m.view = BrowseView
		return m, nil
	case "n", "esc", "q":
		m.confirmTarget = nil
		m.view = BrowseView
		return m, nil
	case "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case BrowseView:
		m.channelList, cmd = m.channelList.Update(msg)
	case PlayerView:
		m.streamList, cmd = m.streamList.Update(msg)
	}
	return m, cmd
}

func (m *Model) openLogin() (tea.Model, tea.Cmd) {
	m.view = LoginView
	m.loginFocus = 0
	m.username.SetValue("")
	m.password.SetValue("")
	m.password.Blur()
	m.username.Focus()
	return m, textinput.Blink
}

func (m *Model) setChannelItems(channels []models.Channel) {
	items := make([]list.Item, len(channels))
	for i, channel := range channels {
		items[i] = channelItem{channel: channel}
	}

	title := "Channels"
	if m.catalog.Scope() == catalog.ScopeOwned {
		title = "My Channels"
	}
	filters := m.catalog.Filters()
	if filters.Search != "" {
		title = fmt.Sprintf("%s · %q", title, filters.Search)
	}
	if filters.Category != "" {
		title = fmt.Sprintf("%s · %s", title, filters.Category)
	}

	m.channelList.SetItems(items)
	m.channelList.Title = title
	if m.width > 0 {
		m.channelList.SetSize(m.width-4, m.height-8)
	}
}

func (m *Model) setStreamItems() {
	urls := m.selector.URLs()
	active := m.selector.ActiveIndex()

	items := make([]list.Item, len(urls))
	for i, url := range urls {
		items[i] = streamItem{index: i, url: url, active: i == active}
	}

	title := "Streams"
	if channel := m.selector.Channel(); channel != nil {
		title = channel.Name
	}

	m.streamList.SetItems(items)
	m.streamList.Title = title
	if m.width > 0 {
		m.streamList.SetSize(m.width-4, m.height-8)
	}
	if active >= 0 {
		m.streamList.Select(active)
	}
}

func (m *Model) refreshChannels() tea.Cmd {
	return func() tea.Msg {
		err := m.catalog.Refresh(m.ctx)
		return channelsRefreshedMsg{channels: m.catalog.Items(), err: err}
	}
}

// refreshCategories warms the category set for the cycle key. Failures are
// ignored; the key reports the empty set instead.
func (m *Model) refreshCategories() tea.Cmd {
	return func() tea.Msg {
		_ = m.catalog.RefreshCategories(m.ctx)
		return nil
	}
}

// nextCategory advances the category filter through categories and back to
// unfiltered.
func nextCategory(categories []string, current string) string {
	if current == "" {
		return categories[0]
	}
	for i, c := range categories {
		if c == current && i+1 < len(categories) {
			return categories[i+1]
		}
	}
	return ""
}

func (m *Model) openChannel(channel models.Channel) tea.Cmd {
	return func() tea.Msg {
		_, err := m.selector.Open(m.ctx, channel)
		return channelOpenedMsg{channel: channel, err: err}
	}
}

func (m *Model) login(username, password string) tea.Cmd {
	return func() tea.Msg {
		return loginResultMsg{err: m.sess.Login(m.ctx, username, password)}
	}
}

func (m *Model) deleteChannel(channel models.Channel) tea.Cmd {
	return func() tea.Msg {
		return deleteDoneMsg{name: channel.Name, err: m.catalog.Delete(m.ctx, channel.ID)}
	}
}

func (m *Model) waitForSession() tea.Cmd {
	return func() tea.Msg {
		return sessionChangedMsg(<-m.sessionCh)
	}
}

func (m *Model) snapshotUser() string {
	if m.snapshot.User != nil {
		return m.snapshot.User.Username
	}
	return "unknown"
}

func (m *Model) renderBrowse() string {
	var status string
	if m.snapshot.Status == session.Authenticated {
		status = styles.ok.Render(fmt.Sprintf("● %s", m.snapshotUser()))
	} else {
		status = styles.help.Render("○ anonymous")
	}

	var footer string
	if m.err != nil {
		footer = styles.err.Render(fmt.Sprintf("Error: %v", m.err))
	} else if m.notice != "" {
		footer = styles.warn.Render(m.notice)
	}

	helpKeys := []key.Binding{m.keys.enter, m.keys.search, m.keys.category, m.keys.scope, m.keys.account, m.keys.quit}
	if m.catalog.Scope() == catalog.ScopeOwned {
		helpKeys = append(helpKeys, m.keys.delete)
	}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n\n%s\n%s", status, m.channelList.View(), footer, helpView)
}

func (m *Model) renderSearch() string {
	title := styles.title.Render("Search Channels")
	hint := styles.help.Render("enter to apply, esc to cancel")
	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.searchInput.View(), hint)
}

func (m *Model) renderLogin() string {
	title := styles.title.Render("Sign In")

	var footer string
	if m.err != nil {
		footer = styles.err.Render(fmt.Sprintf("%v", m.err))
	}
	hint := styles.help.Render("tab to switch fields, enter to sign in, esc to cancel")

	return fmt.Sprintf("%s\n\n%s\n%s\n\n%s\n%s", title, m.username.View(), m.password.View(), footer, hint)
}

func (m *Model) renderPlayer() string {
	var footer string
	if m.err != nil {
		footer = styles.err.Render(fmt.Sprintf("Error: %v", m.err))
	} else if loadErr := m.selector.LastError(); loadErr != nil {
		footer = styles.err.Render(fmt.Sprintf("Stream failed: %v (pick another stream)", loadErr))
	} else {
		footer = styles.ok.Render(fmt.Sprintf("Playing %s", m.selector.ActiveURL()))
	}

	helpKeys := []key.Binding{m.keys.enter, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n\n%s\n%s", m.streamList.View(), footer, helpView)
}

func (m *Model) renderConfirm() string {
	name := ""
	if m.confirmTarget != nil {
		name = m.confirmTarget.Name
	}
	title := styles.title.Render(fmt.Sprintf("Delete '%s'?", name))
	warning := styles.warn.Render("This removes the channel from the directory.")

	helpKeys := []key.Binding{m.keys.yes, m.keys.no}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n\n%s", title, warning, helpView)
}
