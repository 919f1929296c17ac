package cmd

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/rasalas/gitmsg/internal/ai"
	"github.com/rasalas/gitmsg/internal/commitmsg"
	"github.com/rasalas/gitmsg/internal/config"
	"github.com/rasalas/gitmsg/internal/git"
	"github.com/rasalas/gitmsg/internal/keyring"
	"github.com/rasalas/gitmsg/internal/term"
)

// settings is the effective configuration for one run:
// flags > env > config file > defaults.
type settings struct {
	cfg      config.Config
	provider config.ResolvedProvider
	apiKey   string
	keySrc   keyring.KeySource
	logger   zerolog.Logger
}

func loadSettings(fs *pflag.FlagSet) (settings, error) {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		return settings{}, err
	}
	applyFlags(&cfg, fs)
	if err := cfg.Validate(); err != nil {
		return settings{}, err
	}

	rp, err := cfg.Active()
	if err != nil {
		return settings{}, err
	}
	key, src := keyring.Resolve(rp.Name, rp.Env)

	logger.Debug().
		Str("provider", rp.Name).
		Str("url", rp.URL).
		Str("model", rp.Model).
		Str("key_source", string(src)).
		Msg("settings loaded")

	return settings{cfg: cfg, provider: rp, apiKey: key, keySrc: src, logger: logger}, nil
}

func applyFlags(cfg *config.Config, fs *pflag.FlagSet) {
	if fs == nil {
		return
	}
	if fs.Changed("provider") && providerFlag != cfg.Provider {
		cfg.Provider = providerFlag
		// url and model from lower layers described the other provider.
		cfg.URL, cfg.Model = "", ""
	}
	if fs.Changed("url") {
		cfg.URL = urlFlag
	}
	if fs.Changed("model") {
		cfg.Model = modelFlag
	}
	if fs.Changed("stream") {
		cfg.Stream = streamFlag
	}
	if fs.Changed("no-stream") && noStreamFlag {
		cfg.Stream = false
	}
}

// newLogger writes human-readable logs to stderr. The level is warn,
// debug with -v, or whatever GITMSG_LOG_LEVEL names.
func newLogger() zerolog.Logger {
	level := zerolog.WarnLevel
	if verboseFlag {
		level = zerolog.DebugLevel
	} else if v := os.Getenv("GITMSG_LOG_LEVEL"); v != "" {
		if l, err := zerolog.ParseLevel(strings.ToLower(v)); err == nil {
			level = l
		}
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, NoColor: term.Reset == "", TimeFormat: "15:04:05"}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func (s settings) request() ai.Request {
	return ai.Request{
		URL:         s.provider.URL,
		Model:       s.provider.Model,
		APIKey:      s.apiKey,
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
		Stream:      s.cfg.Stream,
	}
}

func (s settings) client() *ai.Client {
	return ai.NewClient(
		ai.WithIdleTimeout(s.cfg.IdleTimeout.Duration),
		ai.WithLogger(s.logger),
	)
}

func (s settings) generator(paths []string) *commitmsg.Generator {
	return commitmsg.New(git.ExecGit{Paths: paths}, s.client(), s.request(), commitmsg.WithLogger(s.logger))
}
