package config

import "sort"

// ProviderEntry holds the static defaults for a known provider. Every
// entry speaks the OpenAI chat-completions protocol.
type ProviderEntry struct {
	DefaultModel string
	DefaultURL   string
	DefaultEnv   string
	NeedsAuth    bool
}

// Registry maps provider names to their static defaults.
var Registry = map[string]ProviderEntry{
	"openai": {
		DefaultModel: "gpt-3.5-turbo",
		DefaultURL:   "https://api.openai.com/v1",
		DefaultEnv:   "OPENAI_API_KEY",
		NeedsAuth:    true,
	},
	"ollama": {
		DefaultModel: "llama3",
		DefaultURL:   "http://localhost:11434/v1",
	},
	"lmstudio": {
		DefaultModel: "local-model",
		DefaultURL:   "http://localhost:1234/v1",
	},
	"google": {
		DefaultModel: "gemini-2.0-flash",
		DefaultURL:   "https://generativelanguage.googleapis.com/v1beta/openai",
		DefaultEnv:   "GOOGLE_API_KEY",
		NeedsAuth:    true,
	},
	"groq": {
		DefaultModel: "llama-3.3-70b-versatile",
		DefaultURL:   "https://api.groq.com/openai/v1",
		DefaultEnv:   "GROQ_API_KEY",
		NeedsAuth:    true,
	},
	"openrouter": {
		DefaultModel: "openrouter/auto",
		DefaultURL:   "https://openrouter.ai/api/v1",
		DefaultEnv:   "OPENROUTER_API_KEY",
		NeedsAuth:    true,
	},
	"mistral": {
		DefaultModel: "mistral-small-latest",
		DefaultURL:   "https://api.mistral.ai/v1",
		DefaultEnv:   "MISTRAL_API_KEY",
		NeedsAuth:    true,
	},
}

// Providers returns the registry names in sorted order.
func Providers() []string {
	names := make([]string, 0, len(Registry))
	for name := range Registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultModel returns the preset model for provider, or "".
func DefaultModel(provider string) string {
	return Registry[provider].DefaultModel
}

// ResolvedProvider is the fully-merged provider configuration ready for use.
type ResolvedProvider struct {
	Name      string
	Model     string
	URL       string
	Env       string
	NeedsAuth bool
}
