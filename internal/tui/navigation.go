package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/davep/oldnews/internal/domain"
)

// streamSelectedMsg is sent when the user opens a folder or a
// subscription from the navigation pane.
type streamSelectedMsg struct {
	id       string
	title    string
	isFolder bool
}

// navToggledMsg is sent when a folder's expansion state changes, so the
// new state can be persisted.
type navToggledMsg struct {
	expanded map[string]bool
}

// navItem is one navigable row: a folder or a subscription.
type navItem struct {
	id       string
	title    string
	isFolder bool
	indent   bool
}

// navModel displays the folder tree with subscriptions nested under
// their folders and unread counts alongside.
type navModel struct {
	folders       []domain.Folder
	subscriptions []domain.Subscription
	counts        domain.UnreadCounts
	expanded      map[string]bool
	cursor        int
	activeStream  string
	width         int
	height        int
	offset        int
	focused       bool
}

func newNav() navModel {
	return navModel{expanded: make(map[string]bool)}
}

// SetFolders updates the folder list.
func (n *navModel) SetFolders(folders []domain.Folder) {
	n.folders = folders
	n.clampCursor()
}

// SetSubscriptions updates the subscription list.
func (n *navModel) SetSubscriptions(subscriptions []domain.Subscription) {
	n.subscriptions = subscriptions
	n.clampCursor()
}

// SetCounts updates the unread counts shown next to each item.
func (n *navModel) SetCounts(counts domain.UnreadCounts) {
	n.counts = counts
}

// SetExpanded replaces the folder expansion state.
func (n *navModel) SetExpanded(expanded map[string]bool) {
	if expanded == nil {
		expanded = make(map[string]bool)
	}
	n.expanded = expanded
}

// SetSize updates the navigation pane dimensions.
func (n *navModel) SetSize(w, h int) {
	n.width = w
	n.height = h
	n.adjustScroll()
}

// Update handles key events for tree navigation.
func (n navModel) Update(msg tea.Msg) (navModel, tea.Cmd) {
	if !n.focused {
		return n, nil
	}

	items := n.items()
	if len(items) == 0 {
		return n, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if n.cursor > 0 {
				n.cursor--
				n.adjustScroll()
			}

		case key.Matches(msg, keys.Down):
			if n.cursor < len(items)-1 {
				n.cursor++
				n.adjustScroll()
			}

		case key.Matches(msg, keys.Expand):
			item := items[n.cursor]
			if !item.isFolder {
				return n, nil
			}
			n.expanded[item.id] = !n.expanded[item.id]
			expanded := n.expanded
			return n, func() tea.Msg {
				return navToggledMsg{expanded: expanded}
			}

		case key.Matches(msg, keys.Enter):
			item := items[n.cursor]
			n.activeStream = item.id
			return n, func() tea.Msg {
				return streamSelectedMsg{id: item.id, title: item.title, isFolder: item.isFolder}
			}
		}
	}

	return n, nil
}

// View renders the navigation pane.
func (n navModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("oldnews"))
	b.WriteString("\n\n")

	items := n.items()
	if len(items) == 0 {
		b.WriteString(mutedTextStyle.Render("No subscriptions.\nPress r to refresh."))
		return b.String()
	}

	visible := n.height - 2
	if visible < 1 {
		visible = 1
	}
	end := n.offset + visible
	if end > len(items) {
		end = len(items)
	}

	for i := n.offset; i < end; i++ {
		b.WriteString(n.renderLine(items[i], i))
		b.WriteString("\n")
	}

	return b.String()
}

// items flattens the folder tree into the visible rows: folders in
// their remote sort order with member subscriptions nested when
// expanded, then subscriptions that belong to no folder.
func (n navModel) items() []navItem {
	var items []navItem

	placed := make(map[string]bool)
	for _, folder := range n.folders {
		items = append(items, navItem{id: folder.ID, title: folder.Name(), isFolder: true})
		for _, sub := range n.subscriptions {
			if !sub.InFolder(folder.ID) {
				continue
			}
			placed[sub.ID] = true
			if n.expanded[folder.ID] {
				items = append(items, navItem{id: sub.ID, title: sub.Title, indent: true})
			}
		}
	}

	for _, sub := range n.subscriptions {
		if !placed[sub.ID] {
			items = append(items, navItem{id: sub.ID, title: sub.Title})
		}
	}

	return items
}

func (n navModel) renderLine(item navItem, idx int) string {
	var prefix string
	switch {
	case item.isFolder && n.expanded[item.id]:
		prefix = "▾ "
	case item.isFolder:
		prefix = "▸ "
	case item.indent:
		prefix = "  · "
	default:
		prefix = "· "
	}

	badge := ""
	if count := n.counts[item.id]; count > 0 {
		badge = fmt.Sprintf(" (%d)", count)
	}

	width := max(n.width, 10)
	title := truncate(item.title, width-lipgloss.Width(prefix)-len(badge))
	line := prefix + title + badge

	if n.counts[item.id] > 0 {
		line = unreadStyle.Render(line)
	}

	marker := "  "
	if item.id == n.activeStream {
		marker = "▶ "
	}
	padded := lipgloss.NewStyle().Width(width).Render(marker + line)

	if n.focused && idx == n.cursor {
		return selectedStyle.Render(padded)
	}
	return padded
}

func (n *navModel) adjustScroll() {
	visible := n.height - 2
	if visible < 1 {
		visible = 1
	}
	if n.cursor < n.offset {
		n.offset = n.cursor
	}
	if n.cursor >= n.offset+visible {
		n.offset = n.cursor - visible + 1
	}
}

func (n *navModel) clampCursor() {
	count := len(n.items())
	if count == 0 {
		n.cursor = 0
		n.offset = 0
		return
	}
	if n.cursor >= count {
		n.cursor = count - 1
	}
	n.adjustScroll()
}
