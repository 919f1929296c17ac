package xdg

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigDir_Default(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", "/home/test")
	dir, err := ConfigDir()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(dir, filepath.Join(".config", "gitmsg")) {
		t.Fatalf("expected suffix .config/gitmsg, got %s", dir)
	}
}

func TestConfigDir_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	dir, err := ConfigDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != filepath.Join("/tmp/xdg", "gitmsg") {
		t.Fatalf("expected /tmp/xdg/gitmsg, got %s", dir)
	}
}

func TestConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	path, err := ConfigFile("config.toml")
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join("/tmp/xdg", "gitmsg", "config.toml") {
		t.Fatalf("got %s", path)
	}
}
