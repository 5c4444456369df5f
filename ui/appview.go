package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"chatinput/config"
	appmodel "chatinput/model"
	"chatinput/storage"
)

// Options wires the AppView to its collaborators.
type Options struct {
	Config    *config.Config
	Responder appmodel.Responder
	// ResponderErr explains why Responder is a fallback, shown once at startup
	ResponderErr error
	// History is nil when persistence is disabled
	History   *storage.History
	Clipboard Clipboard
}

type AppView struct {
	cfg        *config.Config
	controller *appmodel.Controller

	history        *storage.History
	conversationID string
	startupErr     error

	// UI Components
	viewport       viewport.Model
	input          ChatInput
	footer         *Footer
	list           *MessageList
	selector       ModelSelector
	toaster        *Toaster
	clipboard      Clipboard
	loadingSpinner spinner.Model

	// Selection and edit state
	selectedID   string
	editingID    string
	stashedInput string

	// Window state
	width    int
	height   int
	ready    bool
	showHelp bool
}

func NewAppView(opts Options) AppView {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if cfg.Keybindings == nil {
		cfg.Keybindings = config.DefaultKeybindings()
	}

	clip := opts.Clipboard
	if clip == nil {
		clip = SystemClipboard{}
	}

	controller := appmodel.NewController(opts.Responder, appmodel.Timing{
		Thinking:  cfg.ThinkingDelay(),
		Searching: cfg.SearchingDelay(),
	})

	footer := NewFooter(cfg)

	return AppView{
		cfg:            cfg,
		controller:     controller,
		history:        opts.History,
		conversationID: appmodel.NewConversationID(),
		startupErr:     opts.ResponderErr,
		viewport:       viewport.New(0, 0),
		input:          NewChatInput(cfg.Keybindings),
		footer:         footer,
		list:           NewMessageList(cfg),
		selector:       NewModelSelector(footer.Models()),
		toaster:        NewToaster(cfg.ToastDuration()),
		clipboard:      clip,
		loadingSpinner: newLoadingSpinner(),
	}
}

func newLoadingSpinner() spinner.Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("15")) // Bright white
	return s
}

// Controller exposes the chat controller, mainly for tests.
func (a AppView) Controller() *appmodel.Controller {
	return a.controller
}

func (a AppView) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textarea.Blink,
		appmodel.LoadLatestHistory(a.history),
	}

	if a.startupErr != nil {
		cmds = append(cmds, a.toaster.Notify(a.startupErr.Error(), ToastError))
	}

	return tea.Batch(cmds...)
}

func (a AppView) View() string {
	if !a.ready {
		return "Loading..."
	}

	// Modal rendering order: help on top, then the model dropdown
	if a.showHelp {
		return renderHelpModal(a.cfg.Keybindings, a.width, a.height)
	}
	if a.selector.Visible() {
		return a.selector.View(a.footer.Model(), a.width, a.height)
	}

	return strings.Join([]string{
		a.headerView(),
		a.viewport.View(),
		a.toaster.View(a.width),
		BorderStyle.Render(strings.Repeat("─", max(a.width, 1))),
		a.input.View(),
		a.footer.View(a.controller.Stage(), a.width),
	}, "\n")
}

func (a AppView) headerView() string {
	backend := a.cfg.Backend
	if r := a.controller.Responder(); r != nil {
		backend = r.Name()
	}
	return renderHeader(backend, a.footer.Model(), a.history != nil, a.width)
}
