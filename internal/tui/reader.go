package tui

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/davep/oldnews/internal/domain"
)

type closeReaderMsg struct{}

// readerModel displays the content of a single article in a scrollable
// pane.
type readerModel struct {
	article      *domain.Article
	content      string
	scrollOffset int
	maxScroll    int
	width        int
	height       int
	focused      bool
	visible      bool
}

func newReader() readerModel {
	return readerModel{}
}

func (r readerModel) Update(msg tea.Msg) (readerModel, tea.Cmd) {
	if !r.focused || !r.visible {
		return r, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if r.scrollOffset > 0 {
				r.scrollOffset--
			}

		case key.Matches(msg, keys.Down):
			if r.scrollOffset < r.maxScroll {
				r.scrollOffset++
			}

		case key.Matches(msg, keys.Back):
			return r, func() tea.Msg {
				return closeReaderMsg{}
			}

		case key.Matches(msg, keys.ToggleRead):
			if r.article != nil {
				article := r.article
				return r, func() tea.Msg {
					return toggleReadMsg{articleID: article.ID, isRead: article.IsRead}
				}
			}
		}
	}

	return r, nil
}

func (r readerModel) View() string {
	if !r.visible || r.width == 0 || r.height == 0 {
		return ""
	}

	if r.content == "" {
		return mutedTextStyle.Render("No article selected")
	}

	lines := strings.Split(r.content, "\n")

	visibleHeight := r.height
	if visibleHeight < 1 {
		visibleHeight = 1
	}

	end := r.scrollOffset + visibleHeight
	if end > len(lines) {
		end = len(lines)
	}
	start := r.scrollOffset
	if start > len(lines) {
		start = len(lines)
	}

	return strings.Join(lines[start:end], "\n")
}

// Show displays an article in the reader pane.
func (r *readerModel) Show(article *domain.Article) {
	r.article = article
	r.visible = true
	r.scrollOffset = 0
	r.content = renderArticle(article, r.width)
	r.recalcMaxScroll()
}

// Close hides the reader and clears its content.
func (r *readerModel) Close() {
	r.visible = false
	r.article = nil
	r.content = ""
	r.scrollOffset = 0
	r.maxScroll = 0
}

// SetSize updates the reader dimensions and recalculates scroll bounds.
func (r *readerModel) SetSize(w, h int) {
	r.width = w
	r.height = h
	if r.article != nil {
		r.content = renderArticle(r.article, r.width)
	}
	r.recalcMaxScroll()
}

// IsVisible returns whether the reader pane is currently shown.
func (r readerModel) IsVisible() bool {
	return r.visible
}

// MarkRead updates the displayed article's read flag.
func (r *readerModel) MarkRead(articleID string, isRead bool) {
	if r.article != nil && r.article.ID == articleID {
		r.article.IsRead = isRead
	}
}

func (r *readerModel) recalcMaxScroll() {
	if r.content == "" {
		r.maxScroll = 0
		r.scrollOffset = 0
		return
	}

	lines := strings.Split(r.content, "\n")
	visibleHeight := r.height
	if visibleHeight < 1 {
		visibleHeight = 1
	}

	r.maxScroll = len(lines) - visibleHeight
	if r.maxScroll < 0 {
		r.maxScroll = 0
	}
	if r.scrollOffset > r.maxScroll {
		r.scrollOffset = r.maxScroll
	}
}

// renderArticle formats an article as plain text with a header block
// and the summary with markup removed.
func renderArticle(article *domain.Article, width int) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(article.Title))
	b.WriteByte('\n')

	b.WriteString(mutedTextStyle.Render("Feed:    "))
	b.WriteString(article.Origin.Title)
	b.WriteByte('\n')

	if article.Author != "" {
		b.WriteString(mutedTextStyle.Render("Author:  "))
		b.WriteString(article.Author)
		b.WriteByte('\n')
	}

	b.WriteString(mutedTextStyle.Render("Date:    "))
	b.WriteString(article.Published.Format("Jan 2, 2006 3:04 PM"))
	b.WriteByte('\n')

	if link := article.Link(); link != "" {
		b.WriteString(mutedTextStyle.Render("Link:    "))
		b.WriteString(link)
		b.WriteByte('\n')
	}

	sepWidth := width
	if sepWidth < 20 {
		sepWidth = 20
	}
	b.WriteString(mutedTextStyle.Render(strings.Repeat("─", sepWidth)))
	b.WriteByte('\n')

	if body := summaryText(article.Summary.Content, width); body != "" {
		b.WriteByte('\n')
		b.WriteString(body)
	}

	return b.String()
}

var (
	breakRe = regexp.MustCompile(`(?i)</p>|<br\s*/?>`)
	tagRe   = regexp.MustCompile(`<[^>]*>`)
)

// summaryText turns an HTML summary into readable plain text: block
// breaks become blank lines, remaining tags are dropped and long lines
// are wrapped to the pane width.
func summaryText(content string, width int) string {
	if content == "" {
		return ""
	}

	text := breakRe.ReplaceAllString(content, "\n\n")
	text = tagRe.ReplaceAllString(text, " ")

	var paragraphs []string
	for _, paragraph := range strings.Split(text, "\n\n") {
		paragraph = strings.TrimSpace(strings.Join(strings.Fields(paragraph), " "))
		if paragraph == "" {
			continue
		}
		paragraphs = append(paragraphs, wrap(paragraph, width))
	}
	return strings.Join(paragraphs, "\n\n")
}

// wrap breaks a single-line paragraph into lines no longer than width.
func wrap(s string, width int) string {
	if width < 20 {
		width = 20
	}

	var b strings.Builder
	lineLen := 0
	for _, word := range strings.Fields(s) {
		wordLen := len([]rune(word))
		if lineLen > 0 && lineLen+1+wordLen > width {
			b.WriteByte('\n')
			lineLen = 0
		} else if lineLen > 0 {
			b.WriteByte(' ')
			lineLen++
		}
		b.WriteString(word)
		lineLen += wordLen
	}
	return b.String()
}
