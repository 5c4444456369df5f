package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	BackendSimulated = "simulated"
	BackendOllama    = "ollama"
	BackendOpenAI    = "openai"
	BackendAnthropic = "anthropic"
)

type AssistantConfig struct {
	Backend string   `toml:"backend"`
	Model   string   `toml:"model"`
	Models  []string `toml:"models"`
	BaseURL string   `toml:"base_url,omitempty"`
}

type TimingConfig struct {
	ThinkingMS    int `toml:"thinking_ms"`
	SearchingMS   int `toml:"searching_ms"`
	RespondingMS  int `toml:"responding_ms"`
	CopiedResetMS int `toml:"copied_reset_ms"`
	ToastMS       int `toml:"toast_ms"`
}

type RenderConfig struct {
	Citations   bool `toml:"citations"`
	ThinkBlocks bool `toml:"think_blocks"`
}

type HistoryConfig struct {
	Enabled bool `toml:"enabled"`
}

// Settings mirrors settings.toml one to one
type Settings struct {
	DataDirectory string          `toml:"data_directory"`
	Assistant     AssistantConfig `toml:"assistant"`
	Timing        TimingConfig    `toml:"timing"`
	Render        RenderConfig    `toml:"render"`
	History       HistoryConfig   `toml:"history"`
}

// Config is the resolved runtime configuration (file + env + flags)
type Config struct {
	DataDirectory  string
	Backend        string
	Model          string
	Models         []string
	BaseURL        string
	OpenAIKey      string
	AnthropicKey   string
	Timing         TimingConfig
	Citations      bool
	ThinkBlocks    bool
	HistoryEnabled bool
	Keybindings    *KeyBindingsConfig
}

var Debug = false
var DebugLog *log.Logger

func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

func (c *Config) ThinkingDelay() time.Duration {
	return msDuration(c.Timing.ThinkingMS, 1000)
}

func (c *Config) SearchingDelay() time.Duration {
	return msDuration(c.Timing.SearchingMS, 1000)
}

func (c *Config) RespondingDelay() time.Duration {
	return msDuration(c.Timing.RespondingMS, 1000)
}

func (c *Config) CopiedResetDelay() time.Duration {
	return msDuration(c.Timing.CopiedResetMS, 2000)
}

func (c *Config) ToastDuration() time.Duration {
	return msDuration(c.Timing.ToastMS, 2000)
}

func msDuration(ms, fallback int) time.Duration {
	if ms <= 0 {
		ms = fallback
	}
	return time.Duration(ms) * time.Millisecond
}

func (c *Config) applySettings(s *Settings) {
	if s.DataDirectory != "" {
		c.DataDirectory = s.DataDirectory
	}
	if s.Assistant.Backend != "" {
		c.Backend = s.Assistant.Backend
	}
	if s.Assistant.Model != "" {
		c.Model = s.Assistant.Model
	}
	if len(s.Assistant.Models) > 0 {
		c.Models = s.Assistant.Models
	}
	c.BaseURL = s.Assistant.BaseURL
	c.Timing = s.Timing
	c.Citations = s.Render.Citations
	c.ThinkBlocks = s.Render.ThinkBlocks
	c.HistoryEnabled = s.History.Enabled
}

func (c *Config) applyEnvOverrides() {
	if dataDir := os.Getenv("CHATINPUT_DATA_DIR"); dataDir != "" {
		c.DataDirectory = dataDir
	}
	if backend := os.Getenv("CHATINPUT_BACKEND"); backend != "" {
		c.Backend = backend
	}
	if model := os.Getenv("CHATINPUT_MODEL"); model != "" {
		c.Model = model
	}
	if host := os.Getenv("OLLAMA_HOST"); host != "" && strings.EqualFold(c.Backend, BackendOllama) {
		c.BaseURL = host
	}
	c.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	c.AnthropicKey = os.Getenv("ANTHROPIC_API_KEY")
}

func (c *Config) applyOverrides(o Overrides) {
	if o.DataDir != "" {
		c.DataDirectory = o.DataDir
	}
	if o.Backend != "" {
		c.Backend = o.Backend
	}
	if o.Model != "" {
		c.Model = o.Model
	}
	if o.NoHistory {
		c.HistoryEnabled = false
	}
}

// Validate normalizes the backend name, fills in the backend's default models
// and makes sure the selected model is part of the dropdown options.
func (c *Config) Validate() error {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	switch c.Backend {
	case BackendSimulated, BackendOllama, BackendOpenAI, BackendAnthropic:
	case "":
		c.Backend = BackendSimulated
	default:
		return fmt.Errorf("unknown assistant backend %q (want simulated, ollama, openai or anthropic)", c.Backend)
	}

	if len(c.Models) == 0 {
		c.Models = ModelsFor(c.Backend)
	}
	if c.Model == "" && len(c.Models) > 0 {
		c.Model = c.Models[0]
	}
	found := false
	for _, m := range c.Models {
		if m == c.Model {
			found = true
			break
		}
	}
	if !found && c.Model != "" {
		c.Models = append([]string{c.Model}, c.Models...)
	}
	return nil
}

func CheckDebug() bool {
	debug := os.Getenv("CHATINPUT_DEBUG")
	return debug == "true" || debug == "1"
}

// InitDebugLog opens <dataDir>/debug.log when debugging is requested either
// through CHATINPUT_DEBUG or force (the --debug flag).
func InitDebugLog(dataDir string, force bool) {
	if !force && !CheckDebug() {
		return
	}

	Debug = true
	logPath := filepath.Join(dataDir, "debug.log")

	// 0600 - the log contains conversation snippets
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not open debug log at %s: %v\n", logPath, err)
		return
	}

	DebugLog = log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile)
	DebugLog.Printf("=== Debug logging started (CHATINPUT_DEBUG=%s) ===", os.Getenv("CHATINPUT_DEBUG"))
	DebugLog.Printf("Log path: %s", logPath)
}

// Default returns the configuration used when no settings file exists.
func Default() *Config {
	s := DefaultSettings()
	cfg := &Config{}
	cfg.applySettings(s)
	cfg.Models = ModelsFor(cfg.Backend)
	cfg.Model = cfg.Models[0]
	cfg.Keybindings = DefaultKeybindings()
	return cfg
}

// Overrides are command line values. They win over settings and env.
type Overrides struct {
	DataDir   string
	Backend   string
	Model     string
	NoHistory bool
}

// Load reads settingsPath (or the default location when empty), applies
// environment overrides and prepares the data directory.
func Load(settingsPath string) (*Config, error) {
	return LoadWithOverrides(settingsPath, Overrides{})
}

func LoadWithOverrides(settingsPath string, o Overrides) (*Config, error) {
	if settingsPath == "" {
		settingsPath = GetSettingsFilePath()
	}

	settings, err := LoadSettings(settingsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	cfg := &Config{}
	cfg.applySettings(settings)
	cfg.applyEnvOverrides()
	cfg.applyOverrides(o)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dataDir := cfg.DataDir()
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	kb, err := LoadKeybindings(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load keybindings: %w", err)
	}
	cfg.Keybindings = kb

	return cfg, nil
}
