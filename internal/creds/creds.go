// Package creds checks permission hygiene on credential files.
package creds

import (
	"errors"
	"fmt"
	"os"
)

// AssertPermissions checks that the credentials file exists, is a regular
// file, and is not readable by group or world. The API key lives in this
// file, so anything looser than owner-only is a leak.
func AssertPermissions(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("credentials file %s: %w", path, err)
	}
	if fi.IsDir() {
		return errors.New("credentials path is a directory, expected a file")
	}
	mode := fi.Mode().Perm()
	if mode&0o077 != 0 {
		return fmt.Errorf("insecure permissions on %s: %o (expected owner-only)", path, mode)
	}
	return nil
}
