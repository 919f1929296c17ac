package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/rasalas/gitmsg/internal/ai"
	"github.com/rasalas/gitmsg/internal/config"
	"github.com/rasalas/gitmsg/internal/keyring"
	"github.com/rasalas/gitmsg/internal/term"
	"github.com/rasalas/gitmsg/internal/tui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Pick the provider and model interactively",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !interactive() {
			return runConfigShow(cmd, args)
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		names := providerNames(cfg)
		deps := tui.PickerDeps{
			Save: config.Save,
			Keys: keyring.Status(names, providerEnvs(cfg, names)),
			Models: func(ctx context.Context, rp config.ResolvedProvider) ([]string, error) {
				key, _ := keyring.Resolve(rp.Name, rp.Env)
				return ai.NewClient().Models(ctx, rp.URL, key)
			},
		}
		if err := tui.RunPicker(cfg, deps); err != nil {
			return fmt.Errorf("config failed: %w", err)
		}
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.Path()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as TOML",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open config.toml in $EDITOR",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.Path()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			if err := config.SaveFile(path, config.DefaultConfig()); err != nil {
				return err
			}
		}
		if err := term.EditFile(path); err != nil {
			return err
		}

		cfg, err := config.LoadFile(path)
		if err == nil {
			err = cfg.Validate()
		}
		if err != nil {
			fmt.Printf("  %s! %v%s\n", term.Red, err, term.Reset)
			return nil
		}
		fmt.Printf("  %s✓%s Config saved.\n", term.Green, term.Reset)
		return nil
	},
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyFlags(&cfg, cmd.Flags())
	return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
}

func init() {
	configCmd.AddCommand(configPathCmd, configShowCmd, configEditCmd)
	rootCmd.AddCommand(configCmd)
}
