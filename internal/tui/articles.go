package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/davep/oldnews/internal/domain"
)

// Messages emitted by articlesModel.

type articleSelectedMsg struct {
	articleID string
}

type toggleReadMsg struct {
	articleID string
	isRead    bool
}

type unreadOnlyToggledMsg struct {
	unreadOnly bool
}

// articlesModel displays the article list for the selected folder or
// subscription, newest first.
type articlesModel struct {
	articles    []domain.Article
	cursor      int
	offset      int
	streamTitle string
	unreadOnly  bool
	width       int
	height      int
	focused     bool
}

func newArticles() articlesModel {
	return articlesModel{}
}

func (m articlesModel) Update(msg tea.Msg) (articlesModel, tea.Cmd) {
	if !m.focused {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
				m.adjustScroll()
			}

		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.articles)-1 {
				m.cursor++
				m.adjustScroll()
			}

		case key.Matches(msg, keys.Enter):
			if article, ok := m.selected(); ok {
				return m, func() tea.Msg {
					return articleSelectedMsg{articleID: article.ID}
				}
			}

		case key.Matches(msg, keys.ToggleRead):
			if article, ok := m.selected(); ok {
				return m, func() tea.Msg {
					return toggleReadMsg{articleID: article.ID, isRead: article.IsRead}
				}
			}

		case key.Matches(msg, keys.UnreadOnly):
			m.unreadOnly = !m.unreadOnly
			unreadOnly := m.unreadOnly
			return m, func() tea.Msg {
				return unreadOnlyToggledMsg{unreadOnly: unreadOnly}
			}
		}
	}

	return m, nil
}

func (m articlesModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	if len(m.articles) == 0 {
		if m.unreadOnly {
			return mutedTextStyle.Render("No unread articles")
		}
		return mutedTextStyle.Render("No articles")
	}

	visible := m.visibleRows()
	end := m.offset + visible
	if end > len(m.articles) {
		end = len(m.articles)
	}

	var b strings.Builder
	for i := m.offset; i < end; i++ {
		if i > m.offset {
			b.WriteByte('\n')
		}
		line := m.renderRow(i)
		if i == m.cursor && m.focused {
			line = selectedStyle.Width(m.width).Render(line)
		}
		b.WriteString(line)
	}

	return b.String()
}

// SetArticles replaces the article list.
func (m *articlesModel) SetArticles(articles []domain.Article, streamTitle string) {
	m.articles = articles
	m.streamTitle = streamTitle
	m.clampCursor()
}

// SetSize updates the dimensions available for rendering.
func (m *articlesModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.adjustScroll()
}

// Selected returns the currently highlighted article.
func (m articlesModel) Selected() (domain.Article, bool) {
	return m.selected()
}

// MarkRead updates the displayed read flag for an article without a
// reload.
func (m *articlesModel) MarkRead(articleID string, isRead bool) {
	for i := range m.articles {
		if m.articles[i].ID == articleID {
			m.articles[i].IsRead = isRead
			return
		}
	}
}

func (m articlesModel) selected() (domain.Article, bool) {
	if len(m.articles) == 0 || m.cursor >= len(m.articles) {
		return domain.Article{}, false
	}
	return m.articles[m.cursor], true
}

func (m articlesModel) visibleRows() int {
	if m.height < 1 {
		return 1
	}
	return m.height
}

func (m *articlesModel) adjustScroll() {
	visible := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
}

func (m *articlesModel) clampCursor() {
	if len(m.articles) == 0 {
		m.cursor = 0
		m.offset = 0
		return
	}
	if m.cursor >= len(m.articles) {
		m.cursor = len(m.articles) - 1
	}
	m.adjustScroll()
}

func (m articlesModel) renderRow(idx int) string {
	article := m.articles[idx]

	marker := "  "
	if !article.IsRead {
		marker = "● "
	}

	feed := article.Origin.Title
	date := relativeDate(article.Published)

	feedWidth := 20
	dateWidth := len(date)
	titleWidth := m.width - feedWidth - dateWidth - 6
	if titleWidth < 10 {
		titleWidth = 10
	}

	feedCol := mutedTextStyle.Width(feedWidth).Render(truncate(feed, feedWidth))
	titleCol := lipgloss.NewStyle().Width(titleWidth).Render(truncate(article.Title, titleWidth))
	dateCol := mutedTextStyle.Width(dateWidth).Render(date)

	line := marker + titleCol + "  " + feedCol + "  " + dateCol

	if !article.IsRead {
		line = unreadStyle.Render(line)
	}

	return line
}

// --- utility functions ---

func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func relativeDate(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	default:
		return t.Format("Jan 2")
	}
}
