package ui

import (
	"fmt"
	"strings"

	appmodel "chatinput/model"
)

// updateViewportContent re-renders the message list into the viewport.
func (a *AppView) updateViewportContent(gotoBottom bool) {
	a.layout()

	content := a.list.Render(
		a.controller.Messages(),
		a.actionButtons,
		a.selectedID,
		a.controller.Stage(),
		a.loadingSpinner.View(),
		a.width,
	)

	a.viewport.SetContent(content)
	if gotoBottom {
		a.viewport.GotoBottom()
	}
}

// actionButtons lists the actions offered on message m. Reactions sit
// outside the bubble, everything else under it.
func (a *AppView) actionButtons(m Message) []ActionButton {
	kb := a.cfg.Keybindings
	comp := a.list.Component(m.ID)

	copyLabel := "Copy"
	if comp.Copied() {
		copyLabel = "Copied"
	}

	buttons := []ActionButton{
		{Label: copyLabel, Key: kb.DisplayActionKey("copy_message"), Position: PositionInside, Active: comp.Copied()},
	}

	if m.IsUser() {
		buttons = append(buttons,
			ActionButton{Label: "Edit", Key: kb.DisplayActionKey("edit_message"), Position: PositionInside, Active: comp.Editing()},
			ActionButton{Label: "Delete", Key: kb.DisplayActionKey("delete_message"), Position: PositionInside},
		)
	} else {
		buttons = append(buttons,
			ActionButton{Label: "Regenerate", Key: kb.DisplayActionKey("regenerate"), Position: PositionInside},
			ActionButton{Label: "Like", Key: kb.DisplayActionKey("like"), Position: PositionOutside, Active: m.Reaction == appmodel.ReactionLike},
			ActionButton{Label: "Dislike", Key: kb.DisplayActionKey("dislike"), Position: PositionOutside, Active: m.Reaction == appmodel.ReactionDislike},
		)
	}

	return append(buttons, ActionButton{Label: "Info", Key: kb.DisplayActionKey("info"), Position: PositionInside, Active: comp.ShowInfo()})
}

// formatConversation renders messages as plain text for the clipboard.
func formatConversation(messages []Message) string {
	var allText strings.Builder
	for _, msg := range messages {
		role := "Assistant"
		if msg.IsUser() {
			role = "You"
		}
		allText.WriteString(fmt.Sprintf("[%s] %s:\n%s\n\n",
			msg.Timestamp.Format("15:04"),
			role,
			msg.Content))
	}
	return strings.TrimRight(allText.String(), "\n")
}
