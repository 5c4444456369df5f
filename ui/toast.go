package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

type ToastKind int

const (
	ToastInfo ToastKind = iota
	ToastSuccess
	ToastError
)

type Toast struct {
	Message string
	Kind    ToastKind
}

// Toaster shows one transient notification at a time. A new toast replaces
// the current one and restarts the expiry timer.
type Toaster struct {
	current  *Toast
	seq      int
	duration time.Duration
}

func NewToaster(duration time.Duration) *Toaster {
	if duration <= 0 {
		duration = 2 * time.Second
	}
	return &Toaster{duration: duration}
}

// Notify shows message and returns the command that expires it.
func (t *Toaster) Notify(message string, kind ToastKind) tea.Cmd {
	t.seq++
	t.current = &Toast{Message: message, Kind: kind}

	seq := t.seq
	return tea.Tick(t.duration, func(time.Time) tea.Msg {
		return toastExpiredMsg{Seq: seq}
	})
}

// Expire clears the toast if msg belongs to it. Expiry of a replaced toast
// is ignored.
func (t *Toaster) Expire(msg toastExpiredMsg) bool {
	if t.current == nil || msg.Seq != t.seq {
		return false
	}
	t.current = nil
	return true
}

func (t *Toaster) Current() (Toast, bool) {
	if t.current == nil {
		return Toast{}, false
	}
	return *t.current, true
}

// View renders the toast line, empty when nothing is shown.
func (t *Toaster) View(width int) string {
	toast, ok := t.Current()
	if !ok {
		return ""
	}

	var style lipgloss.Style
	icon := "•"
	switch toast.Kind {
	case ToastSuccess:
		style = lipgloss.NewStyle().Foreground(successColor).Bold(true)
		icon = "✓"
	case ToastError:
		style = lipgloss.NewStyle().Foreground(dangerColor).Bold(true)
		icon = "✗"
	default:
		style = lipgloss.NewStyle().Foreground(accentColor)
	}

	text := icon + " " + toast.Message
	if width > 0 {
		text = runewidth.Truncate(text, width, "...")
	}
	return style.Render(text)
}
