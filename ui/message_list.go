package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"chatinput/config"
	"chatinput/model"
	"chatinput/render"
)

const placeholderText = "Ask me anything..."

type ButtonPosition int

const (
	// PositionInside buttons render under the message body
	PositionInside ButtonPosition = iota
	// PositionOutside buttons render right-aligned on their own row
	PositionOutside
)

// ActionButton is one action offered on the selected message.
type ActionButton struct {
	Label    string
	Key      string
	Position ButtonPosition
	Active   bool
}

func (b ActionButton) View() string {
	label := b.Label
	if b.Key != "" {
		label += " " + DimStyle.Render(b.Key)
	}
	if b.Active {
		return ActiveButtonStyle.Render("[") + label + ActiveButtonStyle.Render("]")
	}
	return ButtonStyle.Render("[") + label + ButtonStyle.Render("]")
}

type renderedEntry struct {
	content string
	width   int
	out     string
}

// MessageList renders the conversation and owns one MessageComponent per
// message.
type MessageList struct {
	renderer    *render.Renderer
	components  map[string]*MessageComponent
	cache       map[string]renderedEntry
	citations   bool
	thinkBlocks bool
}

func NewMessageList(cfg *config.Config) *MessageList {
	return &MessageList{
		renderer:    render.NewRenderer(80),
		components:  make(map[string]*MessageComponent),
		cache:       make(map[string]renderedEntry),
		citations:   cfg.Citations,
		thinkBlocks: cfg.ThinkBlocks,
	}
}

// Component returns the component for message id, creating it on first use.
func (l *MessageList) Component(id string) *MessageComponent {
	c, ok := l.components[id]
	if !ok {
		c = NewMessageComponent(id)
		l.components[id] = c
	}
	return c
}

// Lookup returns the component for message id without creating one.
func (l *MessageList) Lookup(id string) (*MessageComponent, bool) {
	c, ok := l.components[id]
	return c, ok
}

// Prune forgets components and cached renders of messages no longer present.
func (l *MessageList) Prune(messages []Message) {
	live := make(map[string]bool, len(messages))
	for _, m := range messages {
		live[m.ID] = true
	}
	for id := range l.components {
		if !live[id] {
			delete(l.components, id)
		}
	}
	for id := range l.cache {
		if !live[id] {
			delete(l.cache, id)
		}
	}
}

// Reset drops all component state, used when the conversation changes.
func (l *MessageList) Reset() {
	l.components = make(map[string]*MessageComponent)
	l.cache = make(map[string]renderedEntry)
}

// Handlers returns the pattern handlers applied to message m. User messages
// render as plain Markdown.
func (l *MessageList) Handlers(m Message) []render.PatternHandler {
	if !m.IsAssistant() {
		return nil
	}
	var handlers []render.PatternHandler
	if l.thinkBlocks {
		handlers = append(handlers, render.ThinkHandler(ThinkLabelStyle, ThinkBodyStyle))
	}
	if l.citations {
		handlers = append(handlers, render.CitationHandler(m.Sources(), CitationStyle))
	}
	return handlers
}

// Render renders messages in order. buttons supplies the actions shown on
// the selected message; stage adds the generation status line when not idle.
func (l *MessageList) Render(messages []Message, buttons func(Message) []ActionButton, selectedID string, stage model.GenerationStage, spinnerView string, width int) string {
	if width < 20 {
		width = 20
	}
	if l.renderer.Width() != width {
		l.renderer = render.NewRenderer(width)
	}

	if len(messages) == 0 && stage == model.StageIdle {
		return DimStyle.Render(placeholderText)
	}

	var content strings.Builder
	for _, msg := range messages {
		comp := l.Component(msg.ID)
		selected := msg.ID == selectedID

		content.WriteString(l.renderHeader(msg, selected))
		content.WriteString("\n")
		content.WriteString(l.renderBody(msg, comp))
		content.WriteString("\n")

		if selected && buttons != nil {
			if row := renderButtons(buttons(msg), width); row != "" {
				content.WriteString(row)
				content.WriteString("\n")
			}
		}
		if comp.ShowInfo() {
			content.WriteString(renderMetadata(msg))
			content.WriteString("\n")
		}
		content.WriteString("\n")
	}

	if stage != model.StageIdle {
		content.WriteString(fmt.Sprintf("%s %s", spinnerView, AssistantStyle.Render(stage.String())))
		content.WriteString("\n")
	}

	return strings.TrimRight(content.String(), "\n")
}

func (l *MessageList) renderHeader(msg Message, selected bool) string {
	prefix := ""
	if selected {
		prefix = HighlightStyle.Render(">>> ")
	}

	timestamp := DimStyle.Render(msg.Timestamp.Format("[15:04]"))

	var role string
	switch msg.Sender {
	case model.SenderUser:
		role = UserStyle.Render("You")
	default:
		role = AssistantStyle.Render("Assistant")
		if msg.Metadata != nil && msg.Metadata.Model != "" {
			role += DimStyle.Render(" · " + msg.Metadata.Model)
		}
	}

	switch msg.Reaction {
	case model.ReactionLike:
		role += " " + ToolOnStyle.Render("+1")
	case model.ReactionDislike:
		role += " " + ErrorTextStyle.Render("-1")
	}

	return fmt.Sprintf("%s%s %s", prefix, timestamp, role)
}

func (l *MessageList) renderBody(msg Message, comp *MessageComponent) string {
	if comp.Editing() {
		return formatUserMessage(comp.Draft()) + "\n" + DimStyle.Render("  editing: enter to save, esc to cancel")
	}

	if msg.Metadata != nil {
		switch {
		case msg.Metadata.Stopped:
			return DimStyle.Italic(true).Render(msg.Content)
		case msg.Metadata.Failed:
			return ErrorTextStyle.Render(msg.Content)
		}
	}

	out := l.renderContent(msg)
	if msg.IsUser() {
		return formatUserMessage(out)
	}
	return out
}

// renderContent runs the Markdown pipeline, caching per message until the
// content or width changes.
func (l *MessageList) renderContent(msg Message) string {
	width := l.renderer.Width()
	if entry, ok := l.cache[msg.ID]; ok && entry.content == msg.Content && entry.width == width {
		return entry.out
	}

	out := l.renderer.Render(msg.Content, l.Handlers(msg))
	l.cache[msg.ID] = renderedEntry{content: msg.Content, width: width, out: out}
	return out
}

// formatUserMessage prefixes every line with the green user gutter.
func formatUserMessage(content string) string {
	bar := UserStyle.Render("┃")
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = bar + " " + line
	}
	return strings.Join(lines, "\n")
}

func renderButtons(buttons []ActionButton, width int) string {
	var inside, outside []string
	for _, b := range buttons {
		if b.Position == PositionOutside {
			outside = append(outside, b.View())
		} else {
			inside = append(inside, b.View())
		}
	}

	var rows []string
	if len(inside) > 0 {
		rows = append(rows, "  "+strings.Join(inside, " "))
	}
	if len(outside) > 0 {
		row := strings.Join(outside, " ")
		pad := width - runewidth.StringWidth(render.StripANSI(row))
		if pad < 0 {
			pad = 0
		}
		rows = append(rows, strings.Repeat(" ", pad)+row)
	}
	return strings.Join(rows, "\n")
}

func renderMetadata(msg Message) string {
	if msg.Metadata == nil {
		return DimStyle.Render("  " + msg.Timestamp.Format("2006-01-02 15:04:05"))
	}

	meta := msg.Metadata
	parts := []string{}
	if meta.Model != "" {
		parts = append(parts, "Model: "+meta.Model)
	}
	if meta.ResponseTime > 0 {
		parts = append(parts, "Time: "+formatDuration(meta.ResponseTime))
	}
	if meta.TokenCount > 0 {
		parts = append(parts, fmt.Sprintf("Tokens: %d", meta.TokenCount))
	}

	lines := []string{"  " + strings.Join(parts, " · ")}
	if len(meta.Sources) > 0 {
		lines = append(lines, "  Sources:")
		for _, line := range strings.Split(render.FormatSources(meta.Sources), "\n") {
			lines = append(lines, "    "+line)
		}
	}
	return DimStyle.Render(strings.Join(lines, "\n"))
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	seconds := float64(d.Milliseconds()) / 1000.0
	return fmt.Sprintf("%.1fs", seconds)
}
