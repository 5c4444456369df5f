package cmd

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"chatinput/assistant"
	"chatinput/config"
	"chatinput/storage"
	"chatinput/ui"
)

var (
	settingsPath string
	overrides    config.Overrides
	debug        bool
)

var rootCmd = &cobra.Command{
	Use:   "chatinput",
	Short: "Terminal chat with search, think and model tools",
	Long: `chatinput is a terminal chat UI. Messages go through a thinking,
searching and responding cycle and replies render as Markdown with
inline citations.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVar(&settingsPath, "config", "", "settings file (default ~/.config/chatinput/settings.toml)")
	rootCmd.Flags().StringVar(&overrides.DataDir, "data-dir", "", "directory for history, keybindings and debug log")
	rootCmd.Flags().StringVar(&overrides.Backend, "backend", "", "assistant backend: simulated, ollama, openai or anthropic")
	rootCmd.Flags().StringVar(&overrides.Model, "model", "", "model selected at startup")
	rootCmd.Flags().BoolVar(&overrides.NoHistory, "no-history", false, "don't load or save conversation history")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "write a debug log to the data directory")

	rootCmd.AddCommand(versionCmd)
}

func run() error {
	cfg, err := config.LoadWithOverrides(settingsPath, overrides)
	if err != nil {
		showError("Configuration Error", err.Error())
		return err
	}

	// Initialize debug logging after config is loaded
	config.InitDebugLog(cfg.DataDir(), debug)

	responder, responderErr := assistant.New(cfg)

	var history *storage.History
	if cfg.HistoryEnabled {
		history, err = storage.NewHistory(cfg.DataDir())
		if err != nil {
			// Keep running without persistence
			if config.DebugLog != nil {
				config.DebugLog.Printf("[History] Disabled: %v", err)
			}
			history = nil
			if responderErr == nil {
				responderErr = fmt.Errorf("history disabled: %w", err)
			}
		} else {
			defer history.Close()
		}
	}

	p := tea.NewProgram(
		ui.NewAppView(ui.Options{
			Config:       cfg,
			Responder:    responder,
			ResponderErr: responderErr,
			History:      history,
			Clipboard:    ui.SystemClipboard{},
		}),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running chatinput: %w", err)
	}
	return nil
}

// showError shows a standalone error modal until the user dismisses it.
func showError(title, message string) {
	p := tea.NewProgram(
		ui.NewErrorModal(title, message),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
}
