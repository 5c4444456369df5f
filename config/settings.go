package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// DefaultModels are the dropdown options of the simulated backend
var DefaultModels = []string{"gpt-4", "gpt-3.5", "claude-3", "gemini-pro", "llama-3"}

// backendModels are offered when the settings name no models. Live backends
// reject the simulated labels, so each one gets real model names.
var backendModels = map[string][]string{
	BackendSimulated: DefaultModels,
	BackendOllama:    {"llama3.2", "qwen3", "mistral"},
	BackendOpenAI:    {"gpt-4o-mini", "gpt-4o", "gpt-4.1"},
	BackendAnthropic: {"claude-sonnet-4-5", "claude-haiku-4-5", "claude-opus-4-1"},
}

// ModelsFor returns a copy of the default dropdown options for backend.
func ModelsFor(backend string) []string {
	models, ok := backendModels[backend]
	if !ok {
		models = DefaultModels
	}
	out := make([]string, len(models))
	copy(out, models)
	return out
}

func DefaultSettings() *Settings {
	return &Settings{
		DataDirectory: "~/.local/share/chatinput",
		Assistant: AssistantConfig{
			Backend: BackendSimulated,
		},
		Timing: TimingConfig{
			ThinkingMS:    1000,
			SearchingMS:   1000,
			RespondingMS:  1000,
			CopiedResetMS: 2000,
			ToastMS:       2000,
		},
		Render: RenderConfig{
			Citations:   true,
			ThinkBlocks: false,
		},
		History: HistoryConfig{
			Enabled: true,
		},
	}
}

// LoadSettings decodes settingsPath on top of the defaults. A missing file is
// created from the commented template.
func LoadSettings(settingsPath string) (*Settings, error) {
	cfg := DefaultSettings()

	if !FileExists(settingsPath) {
		if err := CreateDefaultSettings(settingsPath); err != nil {
			return nil, fmt.Errorf("failed to create settings: %w", err)
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(settingsPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}

	return cfg, nil
}

func CreateDefaultSettings(settingsPath string) error {
	if err := EnsureDir(filepath.Dir(settingsPath)); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if FileExists(settingsPath) {
		return nil
	}

	if err := os.WriteFile(settingsPath, []byte(GenerateSettingsTemplate()), 0600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}

	return nil
}

func GenerateSettingsTemplate() string {
	return `# chatinput settings
# Location: ~/.config/chatinput/settings.toml
# This file uses TOML format: https://toml.io

# Directory for conversation history, keybindings and debug.log
data_directory = "~/.local/share/chatinput"

[assistant]
# simulated | ollama | openai | anthropic
# Live backends read OLLAMA_HOST, OPENAI_API_KEY and ANTHROPIC_API_KEY
backend = "simulated"
# Leave model and models unset to get the defaults of the chosen backend
# (simulated: gpt-4, gpt-3.5, claude-3, gemini-pro, llama-3)
# model = "gpt-4"
# models = ["gpt-4", "gpt-3.5", "claude-3", "gemini-pro", "llama-3"]
# base_url = "http://localhost:11434"

[timing]
# Simulated generation stages (milliseconds)
thinking_ms = 1000
searching_ms = 1000
responding_ms = 1000
# How long the "copied" mark and toasts stay visible
copied_reset_ms = 2000
toast_ms = 2000

[render]
# Turn [1] style markers into highlighted citations
citations = true
# Show <think>...</think> as a separate reasoning aside instead of literal text
think_blocks = false

[history]
# Persist the conversation to <data_directory>/history.db
enabled = true
`
}
