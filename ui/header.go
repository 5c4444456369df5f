package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"chatinput/render"
)

const (
	appTitle      = "Chat Example"
	repositoryURL = "https://github.com/charmbracelet/bubbletea"
	docsURL       = "https://pkg.go.dev/github.com/charmbracelet/bubbletea"
)

// renderHeader renders the title line and the separator under it.
func renderHeader(backend, modelName string, historyOn bool, width int) string {
	left := TitleStyle.Render(appTitle) + " " + DimStyle.Render(backend+" · "+modelName)
	if historyOn {
		left += " " + DimStyle.Render("· history on")
	} else {
		left += " " + DimStyle.Render("· history off")
	}

	right := DimStyle.Render("Repository") + "  " + DimStyle.Render("Docs")

	gap := width - runewidth.StringWidth(render.StripANSI(left)) - runewidth.StringWidth(render.StripANSI(right))
	line := left
	if gap >= 2 {
		line = left + strings.Repeat(" ", gap) + right
	}

	sepWidth := width
	if sepWidth < 1 {
		sepWidth = 1
	}
	return line + "\n" + BorderStyle.Render(strings.Repeat("─", sepWidth))
}
