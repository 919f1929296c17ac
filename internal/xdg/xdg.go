package xdg

import (
	"os"
	"path/filepath"
)

const appName = "gitmsg"

// ConfigDir returns $XDG_CONFIG_HOME/gitmsg, defaulting to ~/.config/gitmsg.
func ConfigDir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// ConfigFile returns the path of name inside ConfigDir.
func ConfigFile(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}
