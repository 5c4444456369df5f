package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetActionKey(t *testing.T) {
	tests := []struct {
		name   string
		kb     *KeyBindingsConfig
		action string
		want   string
	}{
		{"primary default", DefaultKeybindings(), "copy_message", "alt+y"},
		{"secondary letter uses uppercase", DefaultKeybindings(), "dislike", "alt+L"},
		{"no modifier", DefaultKeybindings(), "page_down", "pgdown"},
		{"unknown action", DefaultKeybindings(), "launch_rockets", ""},
		{
			name: "override wins",
			kb: &KeyBindingsConfig{
				Modifiers: ModifierConfig{Primary: "alt", Secondary: "alt+shift"},
				Actions:   map[string]string{"regenerate": "ctrl+r"},
			},
			action: "regenerate",
			want:   "ctrl+r",
		},
		{
			name:   "ctrl modifier",
			kb:     &KeyBindingsConfig{Modifiers: ModifierConfig{Primary: "ctrl", Secondary: "ctrl+shift"}},
			action: "toggle_think",
			want:   "ctrl+t",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kb.GetActionKey(tt.action))
		})
	}
}

func TestDisplayActionKey(t *testing.T) {
	kb := DefaultKeybindings()
	assert.Equal(t, "Alt+Y", kb.DisplayActionKey("copy_message"))
	assert.Equal(t, "Alt+Shift+L", kb.DisplayActionKey("dislike"))
	assert.Equal(t, "", kb.DisplayActionKey("nope"))
}

func TestLoadKeybindingsOverrides(t *testing.T) {
	dir := t.TempDir()
	content := `[modifiers]
primary = "ctrl"

[actions]
info = "f1"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keybindings.toml"), []byte(content), 0600))

	kb, err := LoadKeybindings(dir)
	require.NoError(t, err)

	assert.Equal(t, "ctrl", kb.Primary())
	assert.Equal(t, "alt+shift", kb.Secondary(), "missing secondary falls back to default")
	assert.Equal(t, "f1", kb.GetActionKey("info"))
	assert.Equal(t, "ctrl+e", kb.GetActionKey("edit_message"))
}
