package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rasalas/gitmsg/internal/config"
	"github.com/rasalas/gitmsg/internal/keyring"
	"github.com/rasalas/gitmsg/internal/term"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage API keys in the OS keyring",
	Args:  cobra.NoArgs,
	RunE:  runAuthStatus,
}

var authSetCmd = &cobra.Command{
	Use:   "set [provider]",
	Short: "Store an API key in the OS keyring (default: active provider)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAuthSet,
}

var authDeleteCmd = &cobra.Command{
	Use:   "delete [provider]",
	Short: "Remove an API key from the OS keyring (default: active provider)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAuthDelete,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show where each provider's key comes from",
	Args:  cobra.NoArgs,
	RunE:  runAuthStatus,
}

func init() {
	authCmd.AddCommand(authSetCmd, authDeleteCmd, authStatusCmd)
	rootCmd.AddCommand(authCmd)
}

// providerNames lists registry presets followed by custom providers.
func providerNames(cfg config.Config) []string {
	names := config.Providers()
	for name := range cfg.Custom {
		if _, ok := config.Registry[name]; !ok {
			names = append(names, name)
		}
	}
	return names
}

// providerEnvs maps each provider to its key env var.
func providerEnvs(cfg config.Config, names []string) map[string]string {
	envs := make(map[string]string, len(names))
	for _, n := range names {
		if rp, ok := cfg.ResolveProvider(n); ok && rp.Env != "" {
			envs[n] = rp.Env
		}
	}
	return envs
}

// targetProvider returns args[0] or the active provider, validated.
func targetProvider(cfg config.Config, args []string) (string, error) {
	name := cfg.Provider
	if len(args) == 1 {
		name = strings.ToLower(args[0])
	}
	if _, ok := cfg.ResolveProvider(name); !ok {
		return "", fmt.Errorf("unknown provider: %s (valid: %s)", name, strings.Join(providerNames(cfg), ", "))
	}
	return name, nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	cfg, _ := config.Load()
	names := providerNames(cfg)
	envs := providerEnvs(cfg, names)
	status := keyring.Status(names, envs)

	fmt.Printf("\n  %sAPI Keys%s\n\n", term.Bold, term.Reset)
	for _, p := range names {
		rp, _ := cfg.ResolveProvider(p)
		info := status[p]
		switch {
		case info.Found:
			fmt.Printf("  %s✓%s  %-12s%s%s%s\n", term.Green, term.Reset, p, term.Dim, info.Source, term.Reset)
		case !rp.NeedsAuth:
			fmt.Printf("  %s·%s  %-12s%sno auth needed%s\n", term.Dim, term.Reset, p, term.Dim, term.Reset)
		default:
			fmt.Printf("  %s✗%s  %-12s%s← gitmsg auth set %s%s\n", term.Red, term.Reset, p, term.Dim, p, term.Reset)
		}
	}
	fmt.Println()
	return nil
}

func runAuthSet(cmd *cobra.Command, args []string) error {
	cfg, _ := config.Load()
	provider, err := targetProvider(cfg, args)
	if err != nil {
		return err
	}
	_, err = readAndSaveKey(provider)
	return err
}

func readAndSaveKey(provider string) (string, error) {
	key, err := term.ReadSecret(fmt.Sprintf("  Enter API key for %s: ", provider))
	if err != nil {
		return "", err
	}
	if key == "" {
		return "", fmt.Errorf("empty key, nothing saved")
	}
	if err := keyring.Set(provider, key); err != nil {
		return "", fmt.Errorf("failed to save key: %w", err)
	}
	fmt.Printf("  %s✓%s API key for %s saved to keyring.\n", term.Green, term.Reset, provider)
	return key, nil
}

func runAuthDelete(cmd *cobra.Command, args []string) error {
	cfg, _ := config.Load()
	provider, err := targetProvider(cfg, args)
	if err != nil {
		return err
	}
	if err := keyring.Delete(provider); err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}
	fmt.Printf("  %s✓%s API key for %s removed from keyring.\n", term.Green, term.Reset, provider)
	return nil
}
