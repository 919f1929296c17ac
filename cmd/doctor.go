package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rasalas/gitmsg/internal/ai"
	"github.com/rasalas/gitmsg/internal/config"
	"github.com/rasalas/gitmsg/internal/git"
	"github.com/rasalas/gitmsg/internal/keyring"
	"github.com/rasalas/gitmsg/internal/term"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, credentials, repository and endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd.Context(), cmd)
		},
	})
}

func runDoctor(ctx context.Context, cmd *cobra.Command) error {
	var problems []string

	cfg, err := config.Load()
	if err != nil {
		problems = append(problems, fmt.Sprintf("could not load config: %v", err))
		cfg = config.DefaultConfig()
	}
	applyFlags(&cfg, cmd.Flags())
	if err := cfg.Validate(); err != nil {
		problems = append(problems, strings.Split(err.Error(), "\n")...)
	}

	rp, _ := cfg.ResolveProvider(cfg.Provider)
	fmt.Println()
	fmt.Printf("  %sProvider%s  %s\n", term.Bold, term.Reset, cfg.Provider)
	fmt.Printf("  %sModel%s     %s\n", term.Bold, term.Reset, rp.Model)
	fmt.Printf("  %sEndpoint%s  %s\n", term.Bold, term.Reset, ai.NormalizeURL(rp.URL))
	if path, err := config.Path(); err == nil {
		fmt.Printf("  %sConfig%s    %s%s%s\n", term.Bold, term.Reset, term.Dim, path, term.Reset)
	}

	// Credentials
	key, src := keyring.Resolve(rp.Name, rp.Env)
	local := ai.IsLocal(rp.URL)
	fmt.Printf("\n  %sKey%s       ", term.Bold, term.Reset)
	switch {
	case key != "":
		fmt.Printf("%s✓%s %s\n", term.Green, term.Reset, src)
	case local:
		fmt.Printf("%s·%s local endpoint, none needed\n", term.Dim, term.Reset)
	default:
		fmt.Printf("%s✗%s not found\n", term.Red, term.Reset)
		problems = append(problems, fmt.Sprintf("no API key for %s; run `gitmsg auth set %s`", rp.Name, rp.Name))
	}

	// Repository
	fmt.Printf("  %sRepo%s      ", term.Bold, term.Reset)
	roots, err := git.ExecGit{Paths: repoFlags}.Repositories(ctx)
	switch {
	case err != nil:
		fmt.Printf("%s✗%s %v\n", term.Red, term.Reset, err)
		problems = append(problems, err.Error())
	case len(roots) == 0:
		fmt.Printf("%s✗%s none found\n", term.Red, term.Reset)
		problems = append(problems, "not inside a git repository")
	default:
		for i, root := range roots {
			if i > 0 {
				fmt.Print("            ")
			}
			branch, _ := git.CurrentBranch(ctx, root)
			fmt.Printf("%s✓%s %s %s(%s)%s\n", term.Green, term.Reset, root, term.Dim, branch, term.Reset)
		}
	}

	// Endpoint
	fmt.Printf("  %sModels%s    ", term.Bold, term.Reset)
	if key == "" && !local {
		fmt.Printf("%s·%s skipped\n", term.Dim, term.Reset)
	} else {
		start := time.Now()
		models, err := ai.NewClient().Models(ctx, rp.URL, key)
		if err != nil {
			fmt.Printf("%s✗%s %v\n", term.Red, term.Reset, err)
			problems = append(problems, "endpoint check failed")
		} else {
			fmt.Printf("%s✓%s %d available %s(%s)%s\n", term.Green, term.Reset, len(models), term.Dim, time.Since(start).Round(time.Millisecond), term.Reset)
			if len(models) > 0 && !contains(models, rp.Model) {
				problems = append(problems, fmt.Sprintf("model %q is not listed by the endpoint", rp.Model))
			}
		}
	}

	fmt.Println()
	if len(problems) == 0 {
		fmt.Printf("  %s✓%s Everything looks good.\n\n", term.Green, term.Reset)
		return nil
	}
	fmt.Printf("  %sWarnings%s\n\n", term.Bold, term.Reset)
	for _, p := range problems {
		fmt.Printf("  %s!%s %s\n", term.Red, term.Reset, p)
	}
	fmt.Println()
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
