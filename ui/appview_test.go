package ui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appmodel "chatinput/model"
	"chatinput/render"
	"chatinput/storage"
)

func sendText(t *testing.T, a AppView, text string) AppView {
	t.Helper()
	a.input.SetValue(text)
	a, cmd := update(t, a, enterKey)
	return settle(t, a, cmd)
}

func TestAppViewSendFlow(t *testing.T) {
	r := &stubResponder{resp: appmodel.Response{
		Content:    "Go is great [1].",
		Model:      "gpt-4",
		TokenCount: 4,
		Sources:    []appmodel.Source{{Index: 1, Title: "Go", URL: "https://go.dev"}},
	}}
	a := newTestApp(t, r, &fakeClipboard{})

	a.footer.ToggleSearch()
	a.input.SetValue("  tell me about go  ")
	a, cmd := update(t, a, enterKey)

	assert.Equal(t, appmodel.StageThinking, a.controller.Stage())
	assert.Empty(t, a.input.Value(), "input is cleared after sending")
	require.Len(t, a.controller.Messages(), 1)
	assert.Equal(t, "tell me about go", a.controller.Messages()[0].Content)

	a = settle(t, a, cmd)

	assert.Equal(t, appmodel.StageIdle, a.controller.Stage())
	assert.Equal(t, 1, r.calls)
	assert.True(t, r.last.Search)
	assert.Equal(t, a.footer.Model(), r.last.Model)

	messages := a.controller.Messages()
	require.Len(t, messages, 2)
	reply := messages[1]
	assert.True(t, reply.IsAssistant())
	assert.Equal(t, "Go is great [1].", reply.Content)
	require.NotNil(t, reply.Metadata)
	assert.Equal(t, 4, reply.Metadata.TokenCount)
	assert.Len(t, reply.Metadata.Sources, 1)

	view := render.StripANSI(a.View())
	assert.Contains(t, view, "Go is great")
	assert.Contains(t, view, "Chat Example")
}

func TestAppViewEmptySendIgnored(t *testing.T) {
	r := &stubResponder{}
	a := newTestApp(t, r, &fakeClipboard{})

	a.input.SetValue("   ")
	a, _ = update(t, a, enterKey)
	assert.Empty(t, a.controller.Messages())
	assert.Equal(t, appmodel.StageIdle, a.controller.Stage())
}

func TestAppViewBusySendShowsToast(t *testing.T) {
	a := newTestApp(t, &stubResponder{}, &fakeClipboard{})

	a.input.SetValue("first")
	a, _ = update(t, a, enterKey)
	require.True(t, a.controller.Loading())

	a.input.SetValue("second")
	a, _ = update(t, a, enterKey)

	toast, ok := a.toaster.Current()
	require.True(t, ok)
	assert.Equal(t, busyToast, toast.Message)
	assert.Equal(t, "second", a.input.Value(), "rejected input is kept")
	assert.Len(t, a.controller.Messages(), 1)
}

func TestAppViewEscStopsGeneration(t *testing.T) {
	r := &stubResponder{resp: appmodel.Response{Content: "late"}}
	a := newTestApp(t, r, &fakeClipboard{})

	a.input.SetValue("hello")
	a, cmd := update(t, a, enterKey)

	a, _ = update(t, a, escKey)
	assert.Equal(t, appmodel.StageIdle, a.controller.Stage())

	// Pending ticks of the stopped attempt change nothing
	a = settle(t, a, cmd)
	assert.Equal(t, 0, r.calls)

	messages := a.controller.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, appmodel.StoppedContent, messages[1].Content)
	assert.True(t, messages[1].Metadata.Stopped)

	a, _ = update(t, a, escKey)
	assert.Len(t, a.controller.Messages(), 2, "esc while idle adds nothing")
}

func TestAppViewResponderErrorBecomesMessage(t *testing.T) {
	a := newTestApp(t, &stubResponder{err: errors.New("connection refused")}, &fakeClipboard{})

	a = sendText(t, a, "hello")

	messages := a.controller.Messages()
	require.Len(t, messages, 2)
	assert.Contains(t, messages[1].Content, "connection refused")
	assert.True(t, messages[1].Metadata.Failed)

	toast, ok := a.toaster.Current()
	require.True(t, ok)
	assert.Equal(t, ToastError, toast.Kind)
}

func TestAppViewCopySelected(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		clip := &fakeClipboard{}
		a := newTestApp(t, &stubResponder{resp: appmodel.Response{Content: "answer"}}, clip)
		a = sendText(t, a, "question")

		a, _ = update(t, a, altUp)
		require.Equal(t, a.controller.Messages()[1].ID, a.selectedID, "selection starts at the newest message")

		a, cmd := update(t, a, altKey('y'))
		require.NotNil(t, cmd)
		assert.Equal(t, "answer", clip.text)
		assert.True(t, a.list.Component(a.selectedID).Copied())

		toast, ok := a.toaster.Current()
		require.True(t, ok)
		assert.Equal(t, ToastSuccess, toast.Kind)

		for _, msg := range run(cmd) {
			if reset, ok := msg.(copiedResetMsg); ok {
				a, _ = update(t, a, reset)
			}
		}
		assert.False(t, a.list.Component(a.selectedID).Copied())
	})

	t.Run("failure toasts", func(t *testing.T) {
		clip := &fakeClipboard{err: errClipboard}
		a := newTestApp(t, &stubResponder{resp: appmodel.Response{Content: "answer"}}, clip)
		a = sendText(t, a, "question")

		a, _ = update(t, a, altUp)
		a, _ = update(t, a, altKey('y'))

		assert.False(t, a.list.Component(a.selectedID).Copied())
		toast, ok := a.toaster.Current()
		require.True(t, ok)
		assert.Equal(t, ToastError, toast.Kind)
		assert.Contains(t, toast.Message, errClipboard.Error())
	})
}

func TestAppViewCopyConversation(t *testing.T) {
	clip := &fakeClipboard{}
	a := newTestApp(t, &stubResponder{resp: appmodel.Response{Content: "answer"}}, clip)
	a = sendText(t, a, "question")

	a, _ = update(t, a, altKey('c'))
	assert.Contains(t, clip.text, "You:\nquestion")
	assert.Contains(t, clip.text, "Assistant:\nanswer")
}

func TestAppViewEditCancelKeepsContent(t *testing.T) {
	a := newTestApp(t, &stubResponder{resp: appmodel.Response{Content: "hey"}}, &fakeClipboard{})
	a = sendText(t, a, "hi")

	a, _ = update(t, a, altUp)
	a, _ = update(t, a, altUp)
	user := a.controller.Messages()[0]
	require.Equal(t, user.ID, a.selectedID)

	a.input.SetValue("draft in progress")
	a, _ = update(t, a, altKey('e'))
	require.Equal(t, user.ID, a.editingID)
	assert.Equal(t, "hi", a.input.Value(), "the composer holds the draft")
	assert.Equal(t, editPlaceholder, a.input.textarea.Placeholder)

	a.input.SetValue("hello")
	a.list.Component(user.ID).SetDraft(a.input.Value())
	a.controller.MarkSaved()

	a, _ = update(t, a, escKey)
	assert.Empty(t, a.editingID)
	assert.Equal(t, "hi", a.controller.Messages()[0].Content)
	assert.False(t, a.controller.Dirty(), "cancel must not edit the message")
	assert.Equal(t, "draft in progress", a.input.Value(), "the stashed input comes back")
	assert.Equal(t, placeholderText, a.input.textarea.Placeholder)
}

func TestAppViewEditSave(t *testing.T) {
	a := newTestApp(t, &stubResponder{resp: appmodel.Response{Content: "hey"}}, &fakeClipboard{})
	a = sendText(t, a, "hi")

	a, _ = update(t, a, altUp)
	a, _ = update(t, a, altUp)
	a, _ = update(t, a, altKey('e'))

	a.input.SetValue("hello")
	a.list.Component(a.editingID).SetDraft(a.input.Value())
	a, _ = update(t, a, enterKey)

	assert.Empty(t, a.editingID)
	assert.Equal(t, "hello", a.controller.Messages()[0].Content)
	assert.Len(t, a.controller.Messages(), 2, "saving an edit does not send")
}

func TestAppViewEditAssistantIgnored(t *testing.T) {
	a := newTestApp(t, &stubResponder{resp: appmodel.Response{Content: "hey"}}, &fakeClipboard{})
	a = sendText(t, a, "hi")

	a, _ = update(t, a, altUp)
	a, _ = update(t, a, altKey('e'))
	assert.Empty(t, a.editingID)
}

func TestAppViewRegenerate(t *testing.T) {
	r := &stubResponder{resp: appmodel.Response{Content: "first"}}
	a := newTestApp(t, r, &fakeClipboard{})
	a = sendText(t, a, "question")
	oldReply := a.controller.Messages()[1].ID

	r.resp.Content = "second"
	a, _ = update(t, a, altUp)
	a, cmd := update(t, a, altKey('r'))
	assert.True(t, a.controller.Loading())
	a = settle(t, a, cmd)

	messages := a.controller.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, "question", messages[0].Content)
	assert.Equal(t, "second", messages[1].Content)
	assert.NotEqual(t, oldReply, messages[1].ID)
	assert.Equal(t, 2, r.calls)
}

func TestAppViewDeleteUserMessage(t *testing.T) {
	a := newTestApp(t, &stubResponder{resp: appmodel.Response{Content: "answer"}}, &fakeClipboard{})
	a = sendText(t, a, "question")

	// Assistant messages can't be deleted
	a, _ = update(t, a, altUp)
	a, _ = update(t, a, altKey('d'))
	assert.Len(t, a.controller.Messages(), 2)

	a, _ = update(t, a, altUp)
	a, _ = update(t, a, altKey('d'))
	messages := a.controller.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "answer", messages[0].Content)
	assert.Equal(t, messages[0].ID, a.selectedID)
}

func TestAppViewCopiedResetAfterDelete(t *testing.T) {
	a := newTestApp(t, &stubResponder{resp: appmodel.Response{Content: "answer"}}, &fakeClipboard{})
	a = sendText(t, a, "question")

	a, _ = update(t, a, altUp)
	a, _ = update(t, a, altUp)
	user := a.controller.Messages()[0]
	require.Equal(t, user.ID, a.selectedID)

	a, cmd := update(t, a, altKey('y'))
	var reset copiedResetMsg
	for _, msg := range run(cmd) {
		if r, ok := msg.(copiedResetMsg); ok {
			reset = r
		}
	}
	require.Equal(t, user.ID, reset.ID)

	a, _ = update(t, a, altKey('d'))
	_, ok := a.list.Lookup(user.ID)
	require.False(t, ok)

	a, _ = update(t, a, reset)
	_, ok = a.list.Lookup(user.ID)
	assert.False(t, ok, "a late reset must not bring the component back")
}

func TestAppViewReactions(t *testing.T) {
	a := newTestApp(t, &stubResponder{resp: appmodel.Response{Content: "answer"}}, &fakeClipboard{})
	a = sendText(t, a, "question")
	a, _ = update(t, a, altUp)

	a, _ = update(t, a, altKey('l'))
	assert.Equal(t, appmodel.ReactionLike, a.controller.Messages()[1].Reaction)

	a, _ = update(t, a, altKey('L'))
	assert.Equal(t, appmodel.ReactionDislike, a.controller.Messages()[1].Reaction)

	a, _ = update(t, a, altKey('L'))
	assert.Equal(t, appmodel.ReactionNone, a.controller.Messages()[1].Reaction)
}

func TestAppViewToolToggles(t *testing.T) {
	a := newTestApp(t, &stubResponder{}, &fakeClipboard{})

	a, _ = update(t, a, altKey('s'))
	a, _ = update(t, a, altKey('t'))
	sel := a.footer.ToolSelection()
	assert.True(t, sel.Search)
	assert.True(t, sel.Think)

	a, _ = update(t, a, altKey('m'))
	require.True(t, a.selector.Visible())
	assert.Contains(t, render.StripANSI(a.View()), "Select Model")

	a, _ = update(t, a, escKey)
	assert.False(t, a.selector.Visible())
}

func TestAppViewHelpModal(t *testing.T) {
	a := newTestApp(t, &stubResponder{}, &fakeClipboard{})

	a, _ = update(t, a, altKey('h'))
	require.True(t, a.showHelp)
	assert.Contains(t, render.StripANSI(a.View()), "Keyboard Shortcuts")

	// Keys other than close are swallowed
	a, _ = update(t, a, altKey('s'))
	assert.False(t, a.footer.ToolSelection().Search)

	a, _ = update(t, a, escKey)
	assert.False(t, a.showHelp)
}

func TestAppViewNewConversation(t *testing.T) {
	a := newTestApp(t, &stubResponder{resp: appmodel.Response{Content: "answer"}}, &fakeClipboard{})
	a = sendText(t, a, "question")
	oldID := a.conversationID

	a, _ = update(t, a, altKey('n'))
	assert.Empty(t, a.controller.Messages())
	assert.NotEqual(t, oldID, a.conversationID)
	assert.Contains(t, render.StripANSI(a.View()), placeholderText)
}

func TestAppViewPersistsHistory(t *testing.T) {
	store, err := storage.NewHistory(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	r := &stubResponder{resp: appmodel.Response{Content: "answer"}}
	a := NewAppView(Options{Config: testConfig(), Responder: r, Clipboard: &fakeClipboard{}, History: store})
	a, _ = update(t, a, tea.WindowSizeMsg{Width: 100, Height: 40})

	a = sendText(t, a, "question")
	assert.False(t, a.controller.Dirty(), "the reply was handed to the store")

	// A fresh view restores the latest conversation
	b := NewAppView(Options{Config: testConfig(), Responder: r, Clipboard: &fakeClipboard{}, History: store})
	b, _ = update(t, b, tea.WindowSizeMsg{Width: 100, Height: 40})
	for _, msg := range run(appmodel.LoadLatestHistory(store)) {
		b, _ = update(t, b, msg)
	}

	assert.Equal(t, a.conversationID, b.conversationID)
	got := b.controller.Messages()
	require.Len(t, got, 2)
	assert.Equal(t, "question", got[0].Content)
	assert.Equal(t, "answer", got[1].Content)
}
