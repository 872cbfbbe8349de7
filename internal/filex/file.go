// Package filex contains small filesystem helpers for the CLI's file
// delivery path.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnsureDir resolves dir (cwd when empty) and creates it if missing. The
// returned path is absolute.
func EnsureDir(dir string) (string, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		dir = cwd
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", dir, err)
	}

	if err := os.MkdirAll(abs, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", abs, err)
	}

	return abs, nil
}

// SaveSecretFile writes data into dir under name, refusing to overwrite.
// The name is flattened to its base so a hostile sender cannot point the
// write outside dir. File mode is owner-only: the content is a secret.
func SaveSecretFile(dir, name string, data []byte) (string, error) {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == ".." || base == "/" || base == "" {
		return "", fmt.Errorf("unusable file name: %q", name)
	}

	path := filepath.Join(dir, base)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	return path, nil
}
