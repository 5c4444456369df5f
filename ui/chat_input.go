package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"chatinput/config"
)

const inputHeight = 3

// ChatInput is the multi-line composer. Enter submits; the newline action
// (alt+enter by default) inserts a line break.
type ChatInput struct {
	textarea textarea.Model
}

func NewChatInput(kb *config.KeyBindingsConfig) ChatInput {
	ta := textarea.New()
	ta.Placeholder = placeholderText
	ta.Focus()
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.SetHeight(inputHeight)

	newline := "alt+enter"
	if kb != nil {
		if k := kb.GetActionKey("newline"); k != "" {
			newline = k
		}
	}
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys(newline))

	// Custom prompt: "> " on first line, "| " on continuation lines
	ta.SetPromptFunc(2, func(lineIdx int) string {
		if lineIdx == 0 {
			return "> "
		}
		return "| "
	})

	return ChatInput{textarea: ta}
}

// Update forwards msg to the textarea.
func (c *ChatInput) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	c.textarea, cmd = c.textarea.Update(msg)
	return cmd
}

// Submit returns the trimmed input. ok is false when there is nothing to
// send; the input is left untouched either way.
func (c *ChatInput) Submit() (text string, ok bool) {
	text = strings.TrimSpace(c.textarea.Value())
	return text, text != ""
}

func (c *ChatInput) Value() string {
	return c.textarea.Value()
}

func (c *ChatInput) SetValue(s string) {
	c.textarea.SetValue(s)
}

func (c *ChatInput) Reset() {
	c.textarea.Reset()
}

func (c *ChatInput) SetWidth(w int) {
	c.textarea.SetWidth(w)
}

func (c *ChatInput) SetPlaceholder(s string) {
	c.textarea.Placeholder = s
}

func (c *ChatInput) Focus() tea.Cmd {
	return c.textarea.Focus()
}

func (c *ChatInput) Blur() {
	c.textarea.Blur()
}

func (c *ChatInput) Height() int {
	return inputHeight
}

func (c ChatInput) View() string {
	return c.textarea.View()
}
