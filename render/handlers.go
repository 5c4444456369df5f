package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"chatinput/model"
)

const (
	citationPattern = `\[(\d+)\]`
	thinkPattern    = `(?s)<think>(.*?)</think>`
)

// CitationHandler turns [N] markers into styled citations when sources
// contains an entry with Index N. Unknown indices are left as typed.
func CitationHandler(sources []model.Source, style lipgloss.Style) PatternHandler {
	byIndex := make(map[int]model.Source, len(sources))
	for _, s := range sources {
		byIndex[s.Index] = s
	}

	return MustPatternHandler("citation", citationPattern, func(m Match) (string, error) {
		n, err := strconv.Atoi(m.Group(1))
		if err != nil {
			return "", fmt.Errorf("citation index %q: %w", m.Group(1), err)
		}
		if _, ok := byIndex[n]; !ok {
			return m.Text, nil
		}
		return style.Render(m.Text), nil
	})
}

// ThinkHandler renders <think>...</think> reasoning as a dimmed aside.
// It is a block handler: it runs on the raw message before Markdown parsing
// so the reasoning may span several paragraphs.
func ThinkHandler(labelStyle, bodyStyle lipgloss.Style) PatternHandler {
	h := MustPatternHandler("think", thinkPattern, func(m Match) (string, error) {
		body := strings.TrimSpace(m.Group(1))

		var b strings.Builder
		b.WriteString(labelStyle.Render("Reasoning"))
		b.WriteString("\n")
		if body == "" {
			return b.String(), nil
		}
		for _, line := range strings.Split(body, "\n") {
			b.WriteString(bodyStyle.Render("│ " + line))
			b.WriteString("\n")
		}
		return b.String(), nil
	})
	h.Block = true
	return h
}

// FormatSources lists citation targets as "[N] Title - URL" lines.
func FormatSources(sources []model.Source) string {
	if len(sources) == 0 {
		return ""
	}
	lines := make([]string, 0, len(sources))
	for _, s := range sources {
		line := fmt.Sprintf("[%d] %s", s.Index, s.Title)
		if s.URL != "" {
			line += " - " + s.URL
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
