package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "chatinput "+Version+" ("+License+")\n", out.String())
}

func TestRootFlags(t *testing.T) {
	for _, name := range []string{"config", "data-dir", "backend", "model", "no-history", "debug"} {
		assert.NotNil(t, rootCmd.Flags().Lookup(name), name)
	}
}
