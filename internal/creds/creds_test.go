package creds

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssertPermissionsOwnerOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dreamhost.env")
	require.NoError(t, os.WriteFile(path, []byte("DREAMHOST_API_KEY=abc"), 0o600))
	assert.NoError(t, AssertPermissions(path))
}

func TestAssertPermissionsGroupReadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dreamhost.env")
	require.NoError(t, os.WriteFile(path, []byte("DREAMHOST_API_KEY=abc"), 0o640))

	err := AssertPermissions(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insecure permissions")
}

func TestAssertPermissionsMissingFile(t *testing.T) {
	assert.Error(t, AssertPermissions(filepath.Join(t.TempDir(), "missing")))
}

func TestAssertPermissionsDirectory(t *testing.T) {
	assert.Error(t, AssertPermissions(t.TempDir()))
}
