package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"chatinput/config"
)

func renderHelpModal(kb *config.KeyBindingsConfig, width, height int) string {
	green := lipgloss.NewStyle().
		Bold(true).
		Foreground(successColor)

	title := green.Render(appTitle + " - Keyboard Shortcuts")

	blue := lipgloss.NewStyle().Foreground(accentColor)

	globalActions := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Global Actions"),
		fmt.Sprintf("• %-13s New conversation", kb.DisplayActionKey("new_conversation")),
		fmt.Sprintf("• %-13s Copy conversation", kb.DisplayActionKey("copy_conversation")),
		fmt.Sprintf("• %-13s Toggle this help", kb.DisplayActionKey("help")),
		fmt.Sprintf("• %-13s Quit", kb.DisplayActionKey("quit")),
	)

	composer := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Composer"),
		"• Enter         Send message",
		"• Esc           Stop generation",
		fmt.Sprintf("• %-13s New line", kb.DisplayActionKey("newline")),
		fmt.Sprintf("• %-13s Clear input", kb.DisplayActionKey("clear_input")),
		fmt.Sprintf("• %-13s Toggle Search", kb.DisplayActionKey("toggle_search")),
		fmt.Sprintf("• %-13s Toggle Think", kb.DisplayActionKey("toggle_think")),
		fmt.Sprintf("• %-13s Choose model", kb.DisplayActionKey("model_selector")),
	)

	navigation := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Navigation"),
		fmt.Sprintf("• %-13s Previous message", kb.DisplayActionKey("select_prev")),
		fmt.Sprintf("• %-13s Next message", kb.DisplayActionKey("select_next")),
		fmt.Sprintf("• %-13s Full page up", kb.DisplayActionKey("page_up")),
		fmt.Sprintf("• %-13s Full page down", kb.DisplayActionKey("page_down")),
		fmt.Sprintf("• %-13s Jump to top", kb.DisplayActionKey("scroll_to_top")),
		fmt.Sprintf("• %-13s Jump to bottom", kb.DisplayActionKey("scroll_to_bottom")),
	)

	messageActions := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Selected Message"),
		fmt.Sprintf("• %-13s Copy", kb.DisplayActionKey("copy_message")),
		fmt.Sprintf("• %-13s Edit (yours)", kb.DisplayActionKey("edit_message")),
		fmt.Sprintf("• %-13s Delete (yours)", kb.DisplayActionKey("delete_message")),
		fmt.Sprintf("• %-13s Regenerate", kb.DisplayActionKey("regenerate")),
		fmt.Sprintf("• %-13s Like", kb.DisplayActionKey("like")),
		fmt.Sprintf("• %-13s Dislike", kb.DisplayActionKey("dislike")),
		fmt.Sprintf("• %-13s Details", kb.DisplayActionKey("info")),
	)

	links := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Links"),
		"• Repository  "+repositoryURL,
		"• Docs        "+docsURL,
	)

	column1 := lipgloss.JoinVertical(lipgloss.Left, globalActions, "", composer)
	column2 := lipgloss.JoinVertical(lipgloss.Left, navigation, "", messageActions)

	columnStyle := lipgloss.NewStyle().Width(42).PaddingLeft(4)

	twoColumns := lipgloss.JoinHorizontal(
		lipgloss.Top,
		columnStyle.Render(column1),
		"  ",
		columnStyle.Render(column2),
	)

	footer := lipgloss.NewStyle().
		Foreground(dimColor).
		Render(fmt.Sprintf("Press %s or Esc to close this help", kb.DisplayActionKey("help")))

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		title,
		"",
		twoColumns,
		"",
		links,
		"",
		footer,
	)

	helpBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8")).
		Padding(1, 2)

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		helpBox.Render(content),
	)
}
