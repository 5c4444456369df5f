package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// ErrorModal is a standalone program for showing errors before the main UI
// starts, such as an unreadable settings file.
type ErrorModal struct {
	title   string
	message string
	width   int
	height  int
}

func NewErrorModal(title, message string) ErrorModal {
	return ErrorModal{
		title:   title,
		message: message,
	}
}

func (m ErrorModal) Init() tea.Cmd {
	return nil
}

func (m ErrorModal) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "esc", "ctrl+c":
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m ErrorModal) View() string {
	if m.width < 20 || m.height < 10 {
		return "Terminal too small"
	}

	modalWidth := 60
	if m.width < modalWidth+10 {
		modalWidth = m.width - 10
	}

	return RenderThreeSectionModal(
		m.title,
		centeredLines(m.message, modalWidth),
		"Press Enter to quit",
		ModalTypeError,
		modalWidth,
		m.width,
		m.height,
	)
}
