// Package source reads template files from a folder, decrypting them when needed.
package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when the requested file does not exist.
	ErrNotFound = errors.New("file not found")
	// ErrDecryption is returned when an encrypted file cannot be opened.
	ErrDecryption = errors.New("decryption failed")
)

// Reader resolves a file name to UTF-8 text.
type Reader interface {
	ReadText(ctx context.Context, name string) (string, error)
}

// Dir reads files under a root folder.
type Dir struct {
	root     string
	password string
	logger   *zap.Logger
}

// NewDir returns a Dir rooted at root. password may be empty, in which case
// encrypted files fail with ErrDecryption.
func NewDir(root, password string, logger *zap.Logger) *Dir {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dir{root: root, password: password, logger: logger}
}

// Root returns the folder being read.
func (d *Dir) Root() string { return d.root }

// ReadText reads name relative to the root. Files whose content starts with
// the v1 prefix are decrypted with the configured password.
func (d *Dir) ReadText(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, err := d.resolve(name)
	if err != nil {
		return "", err
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return "", fmt.Errorf("read %s: %w", name, err)
	}

	text := string(b)
	if !IsEncrypted(text) {
		return text, nil
	}
	if d.password == "" {
		d.logger.Warn("encrypted file but no password configured", zap.String("file", name))
		return "", fmt.Errorf("%s: no password: %w", name, ErrDecryption)
	}
	plain, err := Decrypt(strings.TrimSpace(text), d.password)
	if err != nil {
		d.logger.Warn("could not decrypt file", zap.String("file", name), zap.Error(err))
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return plain, nil
}

// Exists reports whether name is present under the root.
func (d *Dir) Exists(name string) bool {
	path, err := d.resolve(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// resolve joins name onto the root and rejects paths that escape it.
func (d *Dir) resolve(name string) (string, error) {
	name = strings.TrimSpace(strings.ReplaceAll(name, `\`, "/"))
	if name == "" {
		return "", fmt.Errorf("empty name: %w", ErrNotFound)
	}
	clean := filepath.Clean("/" + name)
	path := filepath.Join(d.root, clean)
	rel, err := filepath.Rel(d.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%s: outside template dir: %w", name, ErrNotFound)
	}
	return path, nil
}

// Map is an in-memory Reader keyed by file name.
type Map map[string]string

// ReadText returns the named entry or ErrNotFound.
func (m Map) ReadText(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, ok := m[name]
	if !ok {
		return "", fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return text, nil
}
