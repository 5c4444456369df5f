package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"chatinput/config"
	"chatinput/model"
	"chatinput/render"
)

type ToolKind int

const (
	ToolToggle ToolKind = iota
	ToolDropdown
)

// Tool is one entry of the footer tools bar.
type Tool struct {
	Name    string
	Label   string
	Key     string
	Kind    ToolKind
	Enabled bool
	Value   string
	Options []string
}

func (t Tool) View() string {
	label := t.Label
	if t.Kind == ToolDropdown {
		label = t.Label + ": " + t.Value + " ▾"
	}

	style := ToolOffStyle
	if t.Kind == ToolDropdown || t.Enabled {
		style = ToolOnStyle
	}
	view := style.Render(label)
	if t.Key != "" {
		view += " " + DimStyle.Render(t.Key)
	}
	return view
}

// Footer holds the tool selection sent along with each message.
type Footer struct {
	search bool
	think  bool
	model  string
	models []string
	kb     *config.KeyBindingsConfig
}

func NewFooter(cfg *config.Config) *Footer {
	models := cfg.Models
	if len(models) == 0 {
		models = config.ModelsFor(cfg.Backend)
	}
	current := cfg.Model
	if current == "" {
		current = models[0]
	}
	return &Footer{
		model:  current,
		models: models,
		kb:     cfg.Keybindings,
	}
}

func (f *Footer) ToggleSearch() bool {
	f.search = !f.search
	return f.search
}

func (f *Footer) ToggleThink() bool {
	f.think = !f.think
	return f.think
}

func (f *Footer) Model() string {
	return f.model
}

func (f *Footer) Models() []string {
	return f.models
}

func (f *Footer) SetModel(name string) {
	if name != "" {
		f.model = name
	}
}

// Tools lists the bar entries in display order.
func (f *Footer) Tools() []Tool {
	return []Tool{
		{Name: "search", Label: "Search", Key: f.displayKey("toggle_search"), Kind: ToolToggle, Enabled: f.search},
		{Name: "think", Label: "Think", Key: f.displayKey("toggle_think"), Kind: ToolToggle, Enabled: f.think},
		{Name: "model", Label: "Model", Key: f.displayKey("model_selector"), Kind: ToolDropdown, Enabled: true, Value: f.model, Options: f.models},
	}
}

func (f *Footer) ToolSelection() model.ToolSelection {
	return model.ToolSelection{
		Search: f.search,
		Think:  f.think,
		Model:  f.model,
	}
}

func (f *Footer) displayKey(action string) string {
	if f.kb == nil {
		return ""
	}
	return f.kb.DisplayActionKey(action)
}

// View renders the tools bar with the send (or stop) hint right-aligned.
func (f *Footer) View(stage model.GenerationStage, width int) string {
	var tools []string
	for _, t := range f.Tools() {
		tools = append(tools, t.View())
	}
	left := strings.Join(tools, "  ")

	var hint string
	if stage != model.StageIdle {
		hint = FormatFooter("Esc", "Stop")
	} else {
		hint = FormatFooter("Enter", "Send", f.displayKey("help"), "Help")
	}

	gap := width - runewidth.StringWidth(render.StripANSI(left)) - runewidth.StringWidth(render.StripANSI(hint))
	if gap < 2 {
		return left + "\n" + hint
	}
	return left + strings.Repeat(" ", gap) + hint
}
