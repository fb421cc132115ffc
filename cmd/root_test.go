package cmd

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certhook/certhook/internal/config"
	"github.com/certhook/certhook/internal/ui"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	oldOut, oldErr := ui.Out, ui.ErrOut
	ui.Out, ui.ErrOut = buf, buf
	t.Cleanup(func() {
		ui.Out, ui.ErrOut = oldOut, oldErr
	})
	return buf
}

func TestMissingCredentialFailsBeforeNetwork(t *testing.T) {
	captureOutput(t)
	t.Setenv("DREAMHOST_API_KEY", "")
	require.NoError(t, os.Unsetenv("DREAMHOST_API_KEY"))

	rootCmd.SetArgs([]string{"deploy_challenge", "example.com", "TOKEN", "VALIDATION123"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrMissingAPIKey)
}

func TestUnknownEventRejected(t *testing.T) {
	captureOutput(t)
	t.Setenv("DREAMHOST_API_KEY", "abc123")

	rootCmd.SetArgs([]string{"definitely_not_an_event"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown hook event")
}
