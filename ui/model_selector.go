package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"chatinput/config"
)

// ModelSelector is the dropdown of the Model tool: a fuzzy-filtered list.
type ModelSelector struct {
	models   []string
	filtered []string
	selected int
	filter   textinput.Model
	visible  bool
}

func NewModelSelector(models []string) ModelSelector {
	filter := textinput.New()
	filter.Prompt = "Filter: "
	filter.CharLimit = 64

	return ModelSelector{
		models:   models,
		filtered: models,
		filter:   filter,
	}
}

func (s *ModelSelector) Visible() bool {
	return s.visible
}

// Open shows the selector with current highlighted.
func (s *ModelSelector) Open(current string) tea.Cmd {
	s.visible = true
	s.filter.SetValue("")
	s.filtered = s.models
	s.selected = 0
	for i, m := range s.models {
		if m == current {
			s.selected = i
			break
		}
	}
	return s.filter.Focus()
}

func (s *ModelSelector) Close() {
	s.visible = false
	s.filter.Blur()
}

// Selected returns the highlighted model, if any.
func (s *ModelSelector) Selected() (string, bool) {
	if s.selected < 0 || s.selected >= len(s.filtered) {
		return "", false
	}
	return s.filtered[s.selected], true
}

// Update handles a key while open. It returns the chosen model once the
// user confirms; done is true whenever the selector closed.
func (s *ModelSelector) Update(msg tea.KeyMsg, kb *config.KeyBindingsConfig) (chosen string, done bool, cmd tea.Cmd) {
	switch msg.String() {
	case "esc":
		s.Close()
		return "", true, nil
	case "enter":
		chosen, _ = s.Selected()
		s.Close()
		return chosen, true, nil
	case kb.GetActionKey("model_selector_up"):
		if s.selected > 0 {
			s.selected--
		}
		return "", false, nil
	case kb.GetActionKey("model_selector_down"):
		if s.selected < len(s.filtered)-1 {
			s.selected++
		}
		return "", false, nil
	}

	s.filter, cmd = s.filter.Update(msg)
	s.applyFilter()
	return "", false, cmd
}

func (s *ModelSelector) applyFilter() {
	value := s.filter.Value()
	if value == "" {
		s.filtered = s.models
	} else {
		matches := fuzzy.Find(value, s.models)
		s.filtered = make([]string, len(matches))
		for i, match := range matches {
			s.filtered[i] = s.models[match.Index]
		}
	}

	if s.selected >= len(s.filtered) {
		s.selected = len(s.filtered) - 1
	}
	if s.selected < 0 {
		s.selected = 0
	}
}

func (s ModelSelector) View(current string, width, height int) string {
	modalWidth := 50

	lines := []string{s.filter.View(), ""}

	if len(s.filtered) == 0 {
		lines = append(lines, lipgloss.NewStyle().
			Foreground(dimColor).
			Italic(true).
			Render("No matches found"))
	}
	for i, m := range s.filtered {
		label := m
		if m == current {
			label += " (current)"
		}
		if i == s.selected {
			lines = append(lines, SelectedStyle.Render("▶ "+label))
		} else {
			lines = append(lines, "  "+label)
		}
	}

	if len(s.filtered) != len(s.models) {
		lines = append(lines, "", DimStyle.Render(fmt.Sprintf("%d of %d models", len(s.filtered), len(s.models))))
	}

	footer := FormatFooter("↑/↓", "Navigate", "Enter", "Select", "Esc", "Close")
	return RenderThreeSectionModal("Select Model", lines, footer, ModalTypeInfo, modalWidth, width, height)
}
