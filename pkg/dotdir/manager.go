// Package dotdir resolves the .ssetap/ directory holding persistent
// configuration.
package dotdir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DirName is the name of the ssetap directory.
	DirName = ".ssetap"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the absolute path to a .ssetap/ directory, creating it if
// needed. Order of precedence is as follows:
//  1. Provided override
//  2. Local ./.ssetap/ dir
//  3. Home ~/.ssetap/ dir
func (m *Manager) Target(overrideDir string) (string, error) {
	dir, err := m.resolve(overrideDir)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating ssetap directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

// Find resolves the directory with the same precedence as Target but never
// creates it. It returns "" when the resolved directory does not exist.
func (m *Manager) Find(overrideDir string) (string, error) {
	dir, err := m.resolve(overrideDir)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return "", nil
	case err != nil:
		return "", fmt.Errorf("checking ssetap directory %s: %w", dir, err)
	case !info.IsDir():
		return "", fmt.Errorf("ssetap path %s is not a directory", dir)
	}

	return filepath.Abs(dir)
}

func (m *Manager) resolve(overrideDir string) (string, error) {
	switch {
	case overrideDir != "":
		return overrideDir, nil

	case m.localDirExists():
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		return filepath.Join(cwd, DirName), nil

	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		return filepath.Join(home, DirName), nil
	}
}

// localDirExists checks whether a .ssetap/ directory exists in the current
// working directory.
func (m *Manager) localDirExists() bool {
	cwd, err := os.Getwd()
	if err != nil {
		return false
	}

	info, err := os.Stat(filepath.Join(cwd, DirName))
	return err == nil && info.IsDir()
}
