package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"chatinput/config"
	appmodel "chatinput/model"
)

const (
	busyToast       = "Wait for the current response or stop it"
	editPlaceholder = "Edit message (Enter save, Esc cancel)"
)

func (a AppView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	// Update spinner FIRST to handle TickMsg before anything else
	if a.controller.Loading() {
		if _, ok := msg.(tea.KeyMsg); !ok {
			a.loadingSpinner, cmd = a.loadingSpinner.Update(msg)
			cmds = append(cmds, cmd)
			a.updateViewportContent(false)
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.input.SetWidth(a.width)
		a.viewport.Width = a.width
		a.ready = true
		a.updateViewportContent(true)
		return a, tea.Batch(cmds...)

	case tea.KeyMsg:
		m, keyCmd := a.handleKey(msg)
		return m, tea.Batch(append(cmds, keyCmd)...)

	case stageTickMsg:
		cmds = append(cmds, a.controller.HandleStageTick(msg))
		a.updateViewportContent(true)
		return a, tea.Batch(cmds...)

	case responseReadyMsg:
		if !a.controller.HandleResponse(msg) {
			return a, tea.Batch(cmds...)
		}
		if msg.Err != nil && !errors.Is(msg.Err, context.Canceled) {
			cmds = append(cmds, a.toaster.Notify(fmt.Sprintf("Assistant error: %v", msg.Err), ToastError))
		}
		a.updateViewportContent(true)
		cmds = append(cmds, a.saveHistory())
		return a, tea.Batch(cmds...)

	case copiedResetMsg:
		// the message may have been deleted while the mark was showing
		if comp, ok := a.list.Lookup(msg.ID); ok && comp.ResetCopied(msg) {
			a.updateViewportContent(false)
		}
		return a, tea.Batch(cmds...)

	case toastExpiredMsg:
		a.toaster.Expire(msg)
		a.layout()
		return a, tea.Batch(cmds...)

	case historyLoadedMsg:
		if msg.Err != nil {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[AppView] History load failed: %v", msg.Err)
			}
			cmds = append(cmds, a.toaster.Notify("Could not load history: "+msg.Err.Error(), ToastError))
			return a, tea.Batch(cmds...)
		}
		// Don't clobber a conversation the user already started
		if msg.ConversationID == "" || len(a.controller.Messages()) > 0 || a.controller.Loading() {
			return a, tea.Batch(cmds...)
		}
		a.conversationID = msg.ConversationID
		a.controller.Load(msg.Messages)
		a.list.Reset()
		a.updateViewportContent(true)
		return a, tea.Batch(cmds...)

	case historySavedMsg:
		if msg.Err != nil {
			cmds = append(cmds, a.toaster.Notify("History not saved: "+msg.Err.Error(), ToastError))
		}
		return a, tea.Batch(cmds...)

	case historyDeletedMsg:
		if msg.Err != nil {
			cmds = append(cmds, a.toaster.Notify("History not deleted: "+msg.Err.Error(), ToastError))
		}
		return a, tea.Batch(cmds...)
	}

	// Cursor blink and other textarea housekeeping
	cmds = append(cmds, a.input.Update(msg))
	return a, tea.Batch(cmds...)
}

func (a AppView) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	kb := a.cfg.Keybindings
	key := msg.String()

	// PRIORITY 0: Always-global shortcuts
	if key == kb.GetActionKey("quit") || key == "ctrl+c" {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[AppView] Quit requested")
		}
		return a, tea.Sequence(a.saveHistory(), tea.Quit)
	}

	// PRIORITY 1: Help modal swallows everything but its close keys
	if a.showHelp {
		if key == "esc" || key == kb.GetActionKey("help") {
			a.showHelp = false
		}
		return a, nil
	}

	// PRIORITY 2: Model dropdown
	if a.selector.Visible() {
		chosen, done, cmd := a.selector.Update(msg, kb)
		if done && chosen != "" && chosen != a.footer.Model() {
			a.footer.SetModel(chosen)
			return a, tea.Batch(cmd, a.toaster.Notify("Model: "+chosen, ToastInfo))
		}
		return a, cmd
	}

	// PRIORITY 3: Editing a message reuses the composer
	if a.editingID != "" {
		return a.handleEditKey(msg)
	}

	switch key {
	case kb.GetActionKey("help"):
		a.showHelp = true
		return a, nil

	case kb.GetActionKey("new_conversation"):
		return a.newConversation()

	case kb.GetActionKey("copy_conversation"):
		return a, a.copyText(formatConversation(a.controller.Messages()), "Conversation copied")

	case kb.GetActionKey("model_selector"):
		return a, a.selector.Open(a.footer.Model())

	case kb.GetActionKey("toggle_search"):
		a.footer.ToggleSearch()
		return a, nil

	case kb.GetActionKey("toggle_think"):
		a.footer.ToggleThink()
		return a, nil

	case kb.GetActionKey("clear_input"):
		a.input.Reset()
		return a, nil

	case kb.GetActionKey("select_prev"), kb.GetActionKey("select_prev_vim"):
		a.moveSelection(-1)
		return a, nil

	case kb.GetActionKey("select_next"), kb.GetActionKey("select_next_vim"):
		a.moveSelection(1)
		return a, nil

	case kb.GetActionKey("page_up"):
		a.viewport.PageUp()
		return a, nil

	case kb.GetActionKey("page_down"):
		a.viewport.PageDown()
		return a, nil

	case kb.GetActionKey("scroll_to_top"):
		a.viewport.GotoTop()
		return a, nil

	case kb.GetActionKey("scroll_to_bottom"):
		a.viewport.GotoBottom()
		return a, nil

	case kb.GetActionKey("copy_message"):
		return a.copySelected()

	case kb.GetActionKey("edit_message"):
		return a.beginEdit()

	case kb.GetActionKey("delete_message"):
		return a.deleteSelected()

	case kb.GetActionKey("regenerate"):
		return a.regenerateSelected()

	case kb.GetActionKey("like"):
		return a.reactSelected(appmodel.ReactionLike)

	case kb.GetActionKey("dislike"):
		return a.reactSelected(appmodel.ReactionDislike)

	case kb.GetActionKey("info"):
		if a.selectedID != "" {
			a.list.Component(a.selectedID).ToggleInfo()
			a.updateViewportContent(false)
		}
		return a, nil

	case "esc":
		if a.controller.Stop() {
			a.updateViewportContent(true)
			return a, a.saveHistory()
		}
		if a.selectedID != "" {
			a.selectedID = ""
			a.updateViewportContent(false)
		}
		return a, nil

	case "enter":
		return a.send()
	}

	return a, a.input.Update(msg)
}

func (a AppView) send() (tea.Model, tea.Cmd) {
	text, ok := a.input.Submit()
	if !ok {
		return a, nil
	}

	cmd, err := a.controller.Send(text, a.footer.ToolSelection())
	if err != nil {
		if errors.Is(err, appmodel.ErrGenerationInProgress) {
			return a, a.toaster.Notify(busyToast, ToastInfo)
		}
		return a, nil
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[AppView] Sent message (%d chars)", len(text))
	}

	a.input.Reset()
	a.selectedID = ""
	a.loadingSpinner = newLoadingSpinner()
	a.updateViewportContent(true)

	return a, tea.Batch(cmd, a.loadingSpinner.Tick, a.saveHistory())
}

func (a AppView) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	comp := a.list.Component(a.editingID)

	switch msg.String() {
	case "esc":
		comp.CancelEdit()
		a.endEdit()
		return a, nil

	case "enter":
		original, idx := a.controller.Find(a.editingID)
		edited, changed := comp.SaveEdit(original.Content)
		a.endEdit()
		if idx < 0 || !changed {
			return a, nil
		}
		if strings.TrimSpace(edited) == "" {
			return a, a.toaster.Notify("A message cannot be empty", ToastError)
		}
		a.controller.Edit(original.ID, edited)
		a.updateViewportContent(false)
		return a, a.saveHistory()
	}

	cmd := a.input.Update(msg)
	comp.SetDraft(a.input.Value())
	a.updateViewportContent(false)
	return a, cmd
}

func (a *AppView) beginEdit() (tea.Model, tea.Cmd) {
	msg, idx := a.controller.Find(a.selectedID)
	if idx < 0 {
		return *a, nil
	}

	comp := a.list.Component(msg.ID)
	if !comp.BeginEdit(msg.Content, msg.IsUser()) {
		return *a, nil
	}

	a.editingID = msg.ID
	a.stashedInput = a.input.Value()
	a.input.SetValue(msg.Content)
	a.input.SetPlaceholder(editPlaceholder)
	a.updateViewportContent(false)
	return *a, nil
}

func (a *AppView) endEdit() {
	a.editingID = ""
	a.input.SetValue(a.stashedInput)
	a.input.SetPlaceholder(placeholderText)
	a.stashedInput = ""
	a.updateViewportContent(false)
}

func (a *AppView) copySelected() (tea.Model, tea.Cmd) {
	msg, idx := a.controller.Find(a.selectedID)
	if idx < 0 {
		return *a, nil
	}

	if err := a.clipboard.WriteAll(msg.Content); err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[AppView] Copy failed: %v", err)
		}
		return *a, a.toaster.Notify("Copy failed: "+err.Error(), ToastError)
	}

	reset := a.list.Component(msg.ID).MarkCopied(a.cfg.CopiedResetDelay())
	a.updateViewportContent(false)
	return *a, tea.Batch(reset, a.toaster.Notify("Copied to clipboard", ToastSuccess))
}

func (a *AppView) copyText(text, success string) tea.Cmd {
	if text == "" {
		return nil
	}
	if err := a.clipboard.WriteAll(text); err != nil {
		return a.toaster.Notify("Copy failed: "+err.Error(), ToastError)
	}
	return a.toaster.Notify(success, ToastSuccess)
}

func (a *AppView) deleteSelected() (tea.Model, tea.Cmd) {
	msg, idx := a.controller.Find(a.selectedID)
	if idx < 0 || !msg.IsUser() {
		return *a, nil
	}

	a.controller.Delete(msg.ID)
	messages := a.controller.Messages()
	a.list.Prune(messages)

	a.selectedID = ""
	if len(messages) > 0 {
		if idx >= len(messages) {
			idx = len(messages) - 1
		}
		a.selectedID = messages[idx].ID
	}
	a.updateViewportContent(false)
	return *a, a.saveHistory()
}

func (a *AppView) regenerateSelected() (tea.Model, tea.Cmd) {
	if a.selectedID == "" {
		return *a, nil
	}

	cmd, err := a.controller.Regenerate(a.selectedID)
	switch {
	case errors.Is(err, appmodel.ErrGenerationInProgress):
		return *a, a.toaster.Notify(busyToast, ToastInfo)
	case err != nil:
		return *a, nil
	}

	a.list.Prune(a.controller.Messages())
	a.selectedID = ""
	a.loadingSpinner = newLoadingSpinner()
	a.updateViewportContent(true)
	return *a, tea.Batch(cmd, a.loadingSpinner.Tick, a.saveHistory())
}

func (a *AppView) reactSelected(r appmodel.Reaction) (tea.Model, tea.Cmd) {
	if !a.controller.React(a.selectedID, r) {
		return *a, nil
	}
	a.updateViewportContent(false)
	return *a, a.saveHistory()
}

func (a *AppView) newConversation() (tea.Model, tea.Cmd) {
	save := a.saveHistory()

	a.controller.Clear()
	a.controller.MarkSaved()
	a.list.Reset()
	a.conversationID = appmodel.NewConversationID()
	a.selectedID = ""
	a.input.Reset()
	a.updateViewportContent(true)

	if config.DebugLog != nil {
		config.DebugLog.Printf("[AppView] New conversation %s", a.conversationID)
	}
	return *a, tea.Batch(save, a.toaster.Notify("New conversation", ToastInfo))
}

// moveSelection moves the selected message by delta, starting from the
// newest message when nothing is selected.
func (a *AppView) moveSelection(delta int) {
	messages := a.controller.Messages()
	if len(messages) == 0 {
		return
	}

	_, idx := a.controller.Find(a.selectedID)
	switch {
	case idx < 0:
		idx = len(messages) - 1
	default:
		idx += delta
	}
	if idx < 0 {
		idx = 0
	}
	if idx >= len(messages) {
		idx = len(messages) - 1
	}

	a.selectedID = messages[idx].ID
	a.updateViewportContent(false)
}

// saveHistory persists the conversation when it changed. An emptied
// conversation is removed from history instead.
func (a *AppView) saveHistory() tea.Cmd {
	if a.history == nil || !a.controller.Dirty() {
		return nil
	}
	a.controller.MarkSaved()

	messages := a.controller.Messages()
	if len(messages) == 0 {
		return appmodel.DeleteHistory(a.history, a.conversationID)
	}
	return appmodel.SaveHistory(a.history, a.conversationID, messages)
}

// layout sizes the viewport to the space left by the fixed sections.
func (a *AppView) layout() {
	if !a.ready {
		return
	}
	fixed := lipgloss.Height(a.headerView()) +
		1 + // toast line
		1 + // separator
		a.input.Height() +
		lipgloss.Height(a.footer.View(a.controller.Stage(), a.width))

	h := a.height - fixed
	if h < 1 {
		h = 1
	}
	a.viewport.Height = h
}
