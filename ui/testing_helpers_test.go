package ui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"chatinput/config"
	appmodel "chatinput/model"
)

type stubResponder struct {
	resp  appmodel.Response
	err   error
	calls int
	last  appmodel.Request
}

func (s *stubResponder) Name() string { return "stub" }

func (s *stubResponder) Respond(ctx context.Context, req appmodel.Request) (appmodel.Response, error) {
	s.calls++
	s.last = req
	if err := ctx.Err(); err != nil {
		return appmodel.Response{}, err
	}
	return s.resp, s.err
}

type fakeClipboard struct {
	text string
	err  error
}

func (f *fakeClipboard) WriteAll(text string) error {
	if f.err != nil {
		return f.err
	}
	f.text = text
	return nil
}

var errClipboard = errors.New("no clipboard utility found")

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Timing = config.TimingConfig{
		ThinkingMS:    1,
		SearchingMS:   1,
		RespondingMS:  1,
		CopiedResetMS: 1,
		ToastMS:       1,
	}
	return cfg
}

func newTestApp(t *testing.T, r appmodel.Responder, clip Clipboard) AppView {
	t.Helper()
	a := NewAppView(Options{Config: testConfig(), Responder: r, Clipboard: clip})
	a, _ = update(t, a, tea.WindowSizeMsg{Width: 100, Height: 40})
	require.True(t, a.ready)
	return a
}

func update(t *testing.T, a AppView, msg tea.Msg) (AppView, tea.Cmd) {
	t.Helper()
	m, cmd := a.Update(msg)
	next, ok := m.(AppView)
	require.True(t, ok, "Update must return an AppView")
	return next, cmd
}

// run executes cmd and flattens batches into the resulting messages.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// settle feeds generation messages back into the app until it stops
// producing them.
func settle(t *testing.T, a AppView, cmd tea.Cmd) AppView {
	t.Helper()
	for i := 0; i < 10 && cmd != nil; i++ {
		var next []tea.Cmd
		for _, msg := range run(cmd) {
			switch msg.(type) {
			case appmodel.StageTickMsg, appmodel.ResponseReadyMsg:
				var c tea.Cmd
				a, c = update(t, a, msg)
				next = append(next, c)
			}
		}
		cmd = tea.Batch(next...)
	}
	return a
}

func altKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}, Alt: true}
}

var (
	enterKey = tea.KeyMsg{Type: tea.KeyEnter}
	escKey   = tea.KeyMsg{Type: tea.KeyEsc}
	altUp    = tea.KeyMsg{Type: tea.KeyUp, Alt: true}
)
