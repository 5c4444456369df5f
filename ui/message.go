package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type MessageState int

const (
	MessageViewing MessageState = iota
	MessageEditing
)

func (s MessageState) String() string {
	if s == MessageEditing {
		return "editing"
	}
	return "viewing"
}

// MessageComponent holds the per-message UI state that is not part of the
// message itself: edit draft, copy feedback and the metadata panel.
type MessageComponent struct {
	ID string

	state    MessageState
	draft    string
	copied   bool
	copySeq  int
	showInfo bool
}

func NewMessageComponent(id string) *MessageComponent {
	return &MessageComponent{ID: id}
}

func (c *MessageComponent) State() MessageState {
	return c.state
}

func (c *MessageComponent) Editing() bool {
	return c.state == MessageEditing
}

func (c *MessageComponent) Draft() string {
	return c.draft
}

// BeginEdit enters editing with a draft of content. Non-editable messages
// stay in viewing.
func (c *MessageComponent) BeginEdit(content string, editable bool) bool {
	if !editable || c.state == MessageEditing {
		return false
	}
	c.state = MessageEditing
	c.draft = content
	return true
}

func (c *MessageComponent) SetDraft(s string) {
	if c.state != MessageEditing {
		return
	}
	c.draft = s
}

// SaveEdit leaves editing. changed is true only when the draft differs from
// original, in which case edited should be applied to the message.
func (c *MessageComponent) SaveEdit(original string) (edited string, changed bool) {
	if c.state != MessageEditing {
		return original, false
	}
	edited = c.draft
	c.state = MessageViewing
	c.draft = ""
	return edited, edited != original
}

func (c *MessageComponent) CancelEdit() {
	c.state = MessageViewing
	c.draft = ""
}

// MarkCopied flags the message as copied and returns the command that
// clears the flag after delay.
func (c *MessageComponent) MarkCopied(delay time.Duration) tea.Cmd {
	c.copied = true
	c.copySeq++

	id, seq := c.ID, c.copySeq
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return copiedResetMsg{ID: id, Seq: seq}
	})
}

// ResetCopied handles a copiedResetMsg. Resets from an earlier copy are
// ignored.
func (c *MessageComponent) ResetCopied(msg copiedResetMsg) bool {
	if msg.ID != c.ID || msg.Seq != c.copySeq {
		return false
	}
	c.copied = false
	return true
}

func (c *MessageComponent) Copied() bool {
	return c.copied
}

func (c *MessageComponent) ToggleInfo() {
	c.showInfo = !c.showInfo
}

func (c *MessageComponent) ShowInfo() bool {
	return c.showInfo
}
