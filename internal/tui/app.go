package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/davep/oldnews/internal/app"
	"github.com/davep/oldnews/internal/config"
	"github.com/davep/oldnews/internal/domain"
	"github.com/davep/oldnews/internal/remote"
	"github.com/davep/oldnews/internal/store"
)

type pane int

const (
	paneNav pane = iota
	paneList
	paneReader
)

// --- async result messages ---

type initialLoadedMsg struct {
	folders       []domain.Folder
	subscriptions []domain.Subscription
	counts        domain.UnreadCounts
	expanded      map[string]bool
	lastSync      time.Time
}

type articlesLoadedMsg struct {
	articles    []domain.Article
	streamTitle string
}

type countsLoadedMsg struct {
	counts domain.UnreadCounts
}

type markedMsg struct {
	articleID string
	isRead    bool
}

type navSavedMsg struct{}

type errMsg struct {
	err error
}

// --- sync progress messages ---

type syncProgressMsg struct {
	text string
}

type syncFoldersMsg struct {
	folders []domain.Folder
}

type syncSubscriptionsMsg struct {
	subscriptions []domain.Subscription
}

type syncCountsMsg struct {
	counts domain.UnreadCounts
}

type syncFinishedMsg struct {
	err error
}

// --- root model ---

type model struct {
	store   store.Store
	remote  remote.Client
	queries *app.Queries
	cfg     *config.Config

	nav    navModel
	list   articlesModel
	reader readerModel

	activePane pane
	statusBar  statusBar

	// Selected stream and list filter, reapplied on reloads.
	activeStream streamSelectedMsg
	unreadOnly   bool

	// syncing guards against overlapping refreshes; only one runs at
	// a time.
	syncing    bool
	syncEvents chan tea.Msg

	width  int
	height int
}

// NewModel creates the root TUI model.
func NewModel(s store.Store, r remote.Client, cfg *config.Config) model {
	applyTheme(cfg.UI.Theme)

	nav := newNav()
	nav.focused = true

	return model{
		store:      s,
		remote:     r,
		queries:    app.NewQueries(s, r),
		cfg:        cfg,
		nav:        nav,
		list:       newArticles(),
		reader:     newReader(),
		activePane: paneNav,
		statusBar:  newStatusBar(),
	}
}

func (m model) Init() tea.Cmd {
	return m.initialLoadCmd()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.width = msg.Width
		m.resizeSubModels()
		return m, nil

	// --- async result messages ---

	case initialLoadedMsg:
		m.nav.SetFolders(msg.folders)
		m.nav.SetSubscriptions(msg.subscriptions)
		m.nav.SetCounts(msg.counts)
		m.nav.SetExpanded(msg.expanded)
		m.statusBar.setMessage(fmt.Sprintf("%d subscriptions", len(msg.subscriptions)))
		// Kick off a refresh on startup unless one ran recently.
		if !m.syncing && m.staleEnough(msg.lastSync) {
			return m, m.startSync()
		}
		return m, nil

	case articlesLoadedMsg:
		m.list.SetArticles(msg.articles, msg.streamTitle)
		m.statusBar.setMessage(fmt.Sprintf("%d articles in %s", len(msg.articles), msg.streamTitle))
		return m, nil

	case countsLoadedMsg:
		m.nav.SetCounts(msg.counts)
		return m, nil

	case markedMsg:
		m.list.MarkRead(msg.articleID, msg.isRead)
		m.reader.MarkRead(msg.articleID, msg.isRead)
		return m, m.loadCountsCmd()

	case navSavedMsg:
		return m, nil

	case errMsg:
		m.statusBar.setError(fmt.Sprintf("Error: %v", msg.err))
		return m, nil

	// --- sync progress messages ---

	case syncProgressMsg:
		m.statusBar.setMessage(msg.text)
		return m, m.waitForSyncEvent()

	case syncFoldersMsg:
		m.nav.SetFolders(msg.folders)
		return m, m.waitForSyncEvent()

	case syncSubscriptionsMsg:
		m.nav.SetSubscriptions(msg.subscriptions)
		return m, m.waitForSyncEvent()

	case syncCountsMsg:
		m.nav.SetCounts(msg.counts)
		return m, m.waitForSyncEvent()

	case syncFinishedMsg:
		m.syncing = false
		m.statusBar.syncing = false
		m.syncEvents = nil
		if msg.err != nil {
			notice := "Refresh failed"
			if remote.IsTransient(msg.err) {
				notice = "Network problem"
			}
			m.statusBar.setError(fmt.Sprintf("%s: %v", notice, msg.err))
			return m, nil
		}
		m.statusBar.setMessage("Refresh finished")
		// Reload the open list so new articles show up.
		if m.activeStream.id != "" {
			return m, m.loadArticlesCmd()
		}
		return m, nil

	// --- sub-model emitted messages ---

	case streamSelectedMsg:
		m.activeStream = msg
		m.reader.Close()
		m.statusBar.readerVisible = false
		m.list.cursor = 0
		m.list.offset = 0
		m.setFocus(paneList)
		m.statusBar.setMessage(fmt.Sprintf("Loading %s...", msg.title))
		m.resizeSubModels()
		return m, m.loadArticlesCmd()

	case navToggledMsg:
		return m, m.saveNavCmd(msg.expanded)

	case articleSelectedMsg:
		if article, ok := m.list.Selected(); ok && article.ID == msg.articleID {
			m.reader.Show(&article)
			m.setFocus(paneReader)
			m.statusBar.readerVisible = true
			m.resizeSubModels()
			// Opening an article marks it read.
			if !article.IsRead {
				return m, m.markCmd(article.ID, true)
			}
		}
		return m, nil

	case toggleReadMsg:
		return m, m.markCmd(msg.articleID, !msg.isRead)

	case unreadOnlyToggledMsg:
		m.unreadOnly = msg.unreadOnly
		return m, m.loadArticlesCmd()

	case closeReaderMsg:
		m.reader.Close()
		m.statusBar.readerVisible = false
		m.setFocus(paneList)
		m.resizeSubModels()
		return m, nil

	// --- key events ---

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, keys.Refresh):
			if m.syncing {
				m.statusBar.setMessage("A refresh is already running")
				return m, nil
			}
			return m, m.startSync()

		case key.Matches(msg, keys.Tab):
			if m.reader.IsVisible() {
				if m.activePane == paneList {
					m.setFocus(paneReader)
				} else {
					m.setFocus(paneList)
				}
			} else {
				if m.activePane == paneNav {
					m.setFocus(paneList)
				} else {
					m.setFocus(paneNav)
				}
			}
			return m, nil
		}

		// Delegate to the focused sub-model.
		switch m.activePane {
		case paneNav:
			var cmd tea.Cmd
			m.nav, cmd = m.nav.Update(msg)
			if cmd != nil {
				cmds = append(cmds, cmd)
			}

		case paneList:
			var cmd tea.Cmd
			m.list, cmd = m.list.Update(msg)
			if cmd != nil {
				cmds = append(cmds, cmd)
			}

		case paneReader:
			var cmd tea.Cmd
			m.reader, cmd = m.reader.Update(msg)
			if cmd != nil {
				cmds = append(cmds, cmd)
			}
		}

		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	navWidth, contentWidth := m.layoutWidths()
	contentHeight := m.height - 3

	navView := navStyle.
		Width(navWidth).
		Height(contentHeight).
		Render(m.nav.View())

	var contentView string
	if m.reader.IsVisible() {
		listHeight := contentHeight / 2
		readerHeight := contentHeight - listHeight

		listView := listStyle.
			Width(contentWidth).
			Height(listHeight).
			Render(m.list.View())

		readerView := readerStyle.
			Width(contentWidth).
			Height(readerHeight).
			Render(m.reader.View())

		contentView = lipgloss.JoinVertical(lipgloss.Left, listView, readerView)
	} else {
		contentView = listStyle.
			Width(contentWidth).
			Height(contentHeight).
			Render(m.list.View())
	}

	main := lipgloss.JoinHorizontal(lipgloss.Top, navView, contentView)
	sb := m.statusBar.View()

	return lipgloss.JoinVertical(lipgloss.Left, main, sb)
}

// --- focus management ---

func (m *model) setFocus(p pane) {
	m.activePane = p
	m.nav.focused = (p == paneNav)
	m.list.focused = (p == paneList)
	m.reader.focused = (p == paneReader)
}

// --- layout helpers ---

func (m model) layoutWidths() (navWidth, contentWidth int) {
	navWidth = m.width / 4
	if navWidth < 24 {
		navWidth = 24
	}
	contentWidth = m.width - navWidth - 2
	return
}

func (m *model) resizeSubModels() {
	navWidth, contentWidth := m.layoutWidths()
	contentHeight := m.height - 3

	// navStyle: Border(2h + 2v) + Padding(2h + 2v) = 4h, 4v
	m.nav.SetSize(navWidth-4, contentHeight-4)

	// listStyle: Border(2h + 2v) + Padding(2h + 0v) = 4h, 2v
	if m.reader.IsVisible() {
		listHeight := contentHeight / 2
		readerHeight := contentHeight - listHeight
		m.list.SetSize(contentWidth-4, listHeight-2)
		// readerStyle: Border(2h + 2v) + Padding(4h + 2v) = 6h, 4v
		m.reader.SetSize(contentWidth-6, readerHeight-4)
	} else {
		m.list.SetSize(contentWidth-4, contentHeight-2)
	}
}

// staleEnough reports whether the last sync is old enough for a startup
// refresh.
func (m model) staleEnough(lastSync time.Time) bool {
	if lastSync.IsZero() {
		return true
	}
	return time.Since(lastSync) > m.cfg.Sync.Holdoff()
}

// --- async commands ---

func (m model) initialLoadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()

		folders, err := m.queries.Folders(ctx)
		if err != nil {
			return errMsg{err: fmt.Errorf("failed to load folders: %w", err)}
		}
		subscriptions, err := m.queries.Subscriptions(ctx)
		if err != nil {
			return errMsg{err: fmt.Errorf("failed to load subscriptions: %w", err)}
		}
		counts, err := m.store.UnreadCounts(ctx, folders, subscriptions)
		if err != nil {
			return errMsg{err: fmt.Errorf("failed to load unread counts: %w", err)}
		}
		expanded, err := m.queries.NavigationState(ctx)
		if err != nil {
			return errMsg{err: fmt.Errorf("failed to load navigation state: %w", err)}
		}
		lastSync, err := m.store.LastSync(ctx)
		if err != nil {
			return errMsg{err: fmt.Errorf("failed to load sync state: %w", err)}
		}

		return initialLoadedMsg{
			folders:       folders,
			subscriptions: subscriptions,
			counts:        counts,
			expanded:      expanded,
			lastSync:      lastSync,
		}
	}
}

func (m model) loadArticlesCmd() tea.Cmd {
	stream := m.activeStream
	opts := store.ListArticleOptions{UnreadOnly: m.unreadOnly}
	if stream.isFolder {
		opts.FolderID = stream.id
	} else {
		opts.SubscriptionID = stream.id
	}

	return func() tea.Msg {
		articles, err := m.queries.Articles(context.Background(), opts)
		if err != nil {
			return errMsg{err: fmt.Errorf("failed to load articles: %w", err)}
		}
		return articlesLoadedMsg{articles: articles, streamTitle: stream.title}
	}
}

func (m model) loadCountsCmd() tea.Cmd {
	return func() tea.Msg {
		counts, err := m.queries.UnreadCounts(context.Background())
		if err != nil {
			return errMsg{err: fmt.Errorf("failed to load unread counts: %w", err)}
		}
		return countsLoadedMsg{counts: counts}
	}
}

func (m model) markCmd(articleID string, read bool) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()

		// Local store first for immediate feedback, then the remote
		// service.
		var err error
		if read {
			err = m.queries.MarkRead(ctx, []string{articleID})
		} else {
			err = m.queries.MarkUnread(ctx, []string{articleID})
		}
		if err != nil {
			return errMsg{err: err}
		}
		return markedMsg{articleID: articleID, isRead: read}
	}
}

func (m model) saveNavCmd(expanded map[string]bool) tea.Cmd {
	return func() tea.Msg {
		if err := m.queries.SaveNavigationState(context.Background(), expanded); err != nil {
			return errMsg{err: fmt.Errorf("failed to save navigation state: %w", err)}
		}
		return navSavedMsg{}
	}
}

// startSync launches a background refresh, streaming its progress into
// the update loop over a channel.
func (m *model) startSync() tea.Cmd {
	m.syncing = true
	m.statusBar.syncing = true
	m.statusBar.setMessage("Refreshing...")

	events := make(chan tea.Msg, 32)
	m.syncEvents = events

	syncer := app.NewSyncer(m.store, m.remote, m.cfg.Sync.Retention(), m.cfg.Sync.PageSize, app.Events{
		Step:          func(description string) { events <- syncProgressMsg{text: description} },
		Result:        func(description string) { events <- syncProgressMsg{text: description} },
		Folders:       func(folders []domain.Folder) { events <- syncFoldersMsg{folders: folders} },
		Subscriptions: func(subscriptions []domain.Subscription) { events <- syncSubscriptionsMsg{subscriptions: subscriptions} },
		Unread:        func(counts domain.UnreadCounts) { events <- syncCountsMsg{counts: counts} },
	})

	go func() {
		err := syncer.Refresh(context.Background())
		events <- syncFinishedMsg{err: err}
	}()

	return m.waitForSyncEvent()
}

// waitForSyncEvent returns a command that delivers the next sync event
// from the running refresh.
func (m model) waitForSyncEvent() tea.Cmd {
	events := m.syncEvents
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		return <-events
	}
}

// Run starts the Bubble Tea TUI application.
func Run(s store.Store, r remote.Client, cfg *config.Config) error {
	prog := tea.NewProgram(
		NewModel(s, r, cfg),
		tea.WithAltScreen(),
	)
	_, err := prog.Run()
	return err
}
