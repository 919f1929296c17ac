package keyring

import (
	"errors"
	"os"

	gokeyring "github.com/zalando/go-keyring"
)

const serviceName = "gitmsg"

// EnvKey overrides the key for whichever provider is selected.
const EnvKey = "GITMSG_API_KEY"

// KeySource indicates where a key was found in the lookup chain.
type KeySource string

const (
	SourceKeyring KeySource = "keyring"
	SourceEnv     KeySource = "env"
	SourceNone    KeySource = ""
)

// Set stores a key in the OS keyring.
func Set(provider, apiKey string) error {
	return gokeyring.Set(serviceName, provider, apiKey)
}

// Delete removes a key from the OS keyring. Deleting a missing key is not
// an error.
func Delete(provider string) error {
	err := gokeyring.Delete(serviceName, provider)
	if errors.Is(err, gokeyring.ErrNotFound) {
		return nil
	}
	return err
}

// Resolve finds a key for the provider using the lookup chain:
//  1. OS keyring
//  2. GITMSG_API_KEY
//  3. The provider's own env var (providerEnv, may be empty)
func Resolve(provider, providerEnv string) (string, KeySource) {
	key, err := gokeyring.Get(serviceName, provider)
	if err == nil && key != "" {
		return key, SourceKeyring
	}

	for _, name := range []string{EnvKey, providerEnv} {
		if name == "" {
			continue
		}
		if v := os.Getenv(name); v != "" {
			return v, SourceEnv
		}
	}

	return "", SourceNone
}

// KeyInfo holds the availability and source of a key.
type KeyInfo struct {
	Found  bool
	Source KeySource
}

// Status returns key availability and source for the given providers.
// envs maps provider names to their env var names.
func Status(providers []string, envs map[string]string) map[string]KeyInfo {
	status := make(map[string]KeyInfo, len(providers))
	for _, p := range providers {
		key, source := Resolve(p, envs[p])
		status[p] = KeyInfo{
			Found:  key != "",
			Source: source,
		}
	}
	return status
}
