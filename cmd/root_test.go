package cmd

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/rasalas/gitmsg/internal/ai"
	"github.com/rasalas/gitmsg/internal/changes"
	"github.com/rasalas/gitmsg/internal/commitmsg"
	"github.com/rasalas/gitmsg/internal/config"
)

func TestFirstLine(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"single line", "single line"},
		{"first\nsecond\nthird", "first"},
		{"", ""},
		{"\nleading newline", ""},
		{"trailing newline\n", "trailing newline"},
	}

	for _, tt := range tests {
		if got := firstLine(tt.input); got != tt.want {
			t.Errorf("firstLine(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFinish(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantNil bool
	}{
		{"nothing to commit", changes.ErrNotFound, true},
		{"wrapped not found", fmt.Errorf("select: %w", changes.ErrNotFound), true},
		{"cancelled", commitmsg.ErrCancelled, true},
		{"no repository", changes.ErrNoRepository, false},
		{"missing key", ai.ErrAPIKeyMissing, false},
		{"upstream", &ai.UpstreamError{Status: 500}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := finish(tt.err); (got == nil) != tt.wantNil {
				t.Errorf("finish(%v) = %v", tt.err, got)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	err := describe(ai.ErrAPIKeyMissing)
	if !errors.Is(err, ai.ErrAPIKeyMissing) || !strings.Contains(err.Error(), "gitmsg auth set") {
		t.Errorf("describe = %v", err)
	}
	plain := errors.New("boom")
	if describe(plain) != plain {
		t.Error("unrelated errors must pass through")
	}
}

func newFlagCommand() *cobra.Command {
	c := &cobra.Command{Use: "test"}
	c.Flags().StringVar(&providerFlag, "provider", "", "")
	c.Flags().StringVar(&urlFlag, "url", "", "")
	c.Flags().StringVar(&modelFlag, "model", "", "")
	c.Flags().BoolVar(&streamFlag, "stream", true, "")
	c.Flags().BoolVar(&noStreamFlag, "no-stream", false, "")
	return c
}

func TestApplyFlags(t *testing.T) {
	t.Run("unset flags keep config values", func(t *testing.T) {
		c := newFlagCommand()
		if err := c.ParseFlags(nil); err != nil {
			t.Fatal(err)
		}
		cfg := config.DefaultConfig()
		cfg.Model = "from-file"
		applyFlags(&cfg, c.Flags())
		if cfg.Model != "from-file" || !cfg.Stream {
			t.Errorf("got %+v", cfg)
		}
	})

	t.Run("flags win", func(t *testing.T) {
		c := newFlagCommand()
		if err := c.ParseFlags([]string{"--model", "m", "--url", "http://localhost:1234/v1", "--no-stream"}); err != nil {
			t.Fatal(err)
		}
		cfg := config.DefaultConfig()
		applyFlags(&cfg, c.Flags())
		if cfg.Model != "m" || cfg.URL != "http://localhost:1234/v1" || cfg.Stream {
			t.Errorf("got %+v", cfg)
		}
	})

	t.Run("switching provider drops lower-layer url and model", func(t *testing.T) {
		c := newFlagCommand()
		if err := c.ParseFlags([]string{"--provider", "ollama"}); err != nil {
			t.Fatal(err)
		}
		cfg := config.DefaultConfig()
		cfg.Model = "gpt-4o"
		applyFlags(&cfg, c.Flags())
		rp, err := cfg.Active()
		if err != nil {
			t.Fatal(err)
		}
		if rp.Name != "ollama" || rp.Model != "llama3" {
			t.Errorf("resolved %+v", rp)
		}
	})
}

func TestSettingsRequest(t *testing.T) {
	cfg := config.DefaultConfig()
	rp, _ := cfg.Active()
	s := settings{cfg: cfg, provider: rp, apiKey: "k"}

	req := s.request()
	if req.URL != "https://api.openai.com/v1" || req.Model != "gpt-3.5-turbo" || req.APIKey != "k" {
		t.Errorf("request = %+v", req)
	}
	if req.Temperature != 0.7 || req.MaxTokens != 8192 || !req.Stream {
		t.Errorf("request = %+v", req)
	}
	if req.Prompt != "" {
		t.Error("prompt is filled per generation")
	}
}

func TestTargetProvider(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Custom = map[string]config.ProviderConfig{"together": {URL: "https://api.together.xyz/v1", Env: "TOGETHER_API_KEY"}}

	if p, err := targetProvider(cfg, nil); err != nil || p != "openai" {
		t.Errorf("default = %q, %v", p, err)
	}
	if p, err := targetProvider(cfg, []string{"Together"}); err != nil || p != "together" {
		t.Errorf("custom = %q, %v", p, err)
	}
	if _, err := targetProvider(cfg, []string{"nope"}); err == nil || !strings.Contains(err.Error(), "valid:") {
		t.Errorf("err = %v", err)
	}
	if envs := providerEnvs(cfg, providerNames(cfg)); envs["together"] != "TOGETHER_API_KEY" || envs["ollama"] != "" {
		t.Errorf("envs = %v", envs)
	}
}
