package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func unsetenv(t *testing.T, key string) {
	t.Helper()
	// t.Setenv registers the restore; the variable can then be removed.
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestLoadDefaults(t *testing.T) {
	unsetenv(t, "DREAMHOST_API_KEY")
	unsetenv(t, "DREAMHOST_API_URL")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://api.dreamhost.com", cfg.APIURL)
	assert.Equal(t, 30*time.Second, cfg.APITimeout)
	assert.Equal(t, "dreamhost", cfg.Provider)
	assert.Equal(t, "/etc/dehydrated/certs", cfg.CertsRoot)
	assert.Equal(t, 10*time.Second, cfg.Propagation.Settle)
	assert.Equal(t, 30*time.Second, cfg.Propagation.Poll)
	assert.Equal(t, 3, cfg.Propagation.Sightings)
	assert.False(t, cfg.Propagation.Disabled)
	assert.Contains(t, cfg.DeployConfig, filepath.Join(".config", "dehydrated", "deploy.conf"))
}

func TestRequireAPIKeyMissing(t *testing.T) {
	unsetenv(t, "DREAMHOST_API_KEY")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.ErrorIs(t, cfg.RequireAPIKey(), ErrMissingAPIKey)
}

func TestRequireAPIKeyPresent(t *testing.T) {
	t.Setenv("DREAMHOST_API_KEY", "abc123")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.NoError(t, cfg.RequireAPIKey())
	assert.Equal(t, "abc123", cfg.APIKey)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DREAMHOST_API_KEY", "abc123")
	t.Setenv("DREAMHOST_API_URL", "http://127.0.0.1:8080")
	t.Setenv("DNS_PROPAGATION_DISABLED", "true")
	t.Setenv("DNS_REQUIRED_SIGHTINGS", "5")
	t.Setenv("DNS_NAMESERVERS", "10.0.0.1,10.0.0.2:5353")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8080", cfg.APIURL)
	assert.True(t, cfg.Propagation.Disabled)
	assert.Equal(t, 5, cfg.Propagation.Sightings)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2:5353"}, cfg.Propagation.Nameservers)
}

func TestLoadWithoutHomeWarns(t *testing.T) {
	out := captureOutput(t)
	unsetenv(t, "DEPLOY_CONFIG")
	unsetenv(t, "HOME")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.DeployConfig)
	assert.Contains(t, out.String(), "DEPLOY_CONFIG")
}

func TestLoadEnvFile(t *testing.T) {
	captureOutput(t)
	unsetenv(t, "DREAMHOST_API_KEY")

	envFile := filepath.Join(t.TempDir(), "dreamhost.env")
	require.NoError(t, os.WriteFile(envFile, []byte("DREAMHOST_API_KEY=from-file\n"), 0o600))

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.APIKey)
}

func TestLoadEnvFileLoosePermissionsWarns(t *testing.T) {
	out := captureOutput(t)
	unsetenv(t, "DREAMHOST_API_KEY")

	envFile := filepath.Join(t.TempDir(), "dreamhost.env")
	require.NoError(t, os.WriteFile(envFile, []byte("DREAMHOST_API_KEY=from-file\n"), 0o644))

	_, err := Load(envFile)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "insecure permissions")
}

func TestLoadEnvFileMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}
