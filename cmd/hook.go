package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rasalas/gitmsg/internal/commitmsg"
	"github.com/rasalas/gitmsg/internal/git"
)

const hookScript = "#!/bin/sh\n# installed by gitmsg\nexec gitmsg hook prepare-commit-msg \"$@\"\n"

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Git hook integration",
}

var prepareCommitMsgCmd = &cobra.Command{
	Use:   "prepare-commit-msg <file> [source [sha]]",
	Short: "Fill the commit message file; called by git",
	Args:  cobra.RangeArgs(1, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(cmd.Flags())
		if err == nil {
			s.cfg.Stream = false
			err = prepareCommitMsg(cmd.Context(), s.generator([]string{"."}), args)
		}
		// A failing hook would block the commit; report and carry on.
		if err != nil && !errors.Is(err, commitmsg.ErrCancelled) {
			fmt.Fprintf(os.Stderr, "gitmsg: %v\n", describe(err))
		}
		return nil
	},
}

var hookInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the prepare-commit-msg hook in the current repository",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := installHook(cmd.Context(), ".")
		if err != nil {
			return err
		}
		fmt.Printf("  ✓ installed %s\n", path)
		return nil
	},
}

// generator is the part of commitmsg.Generator the hook needs.
type generator interface {
	Generate(ctx context.Context, focused string, onProgress func(string)) (commitmsg.Result, error)
}

// prepareCommitMsg writes a generated message on top of the file git
// prepared, unless git already has a message for this commit.
func prepareCommitMsg(ctx context.Context, gen generator, args []string) error {
	msgFile := args[0]
	source := ""
	if len(args) > 1 {
		source = args[1]
	}
	// message (-m/-F), template, merge, squash and commit (-c/--amend)
	// all come with their own text.
	if source != "" {
		return nil
	}

	existing, err := os.ReadFile(msgFile)
	if err != nil {
		return fmt.Errorf("read commit message file: %w", err)
	}
	if hasNonCommentContent(string(existing)) {
		return nil
	}

	res, err := gen.Generate(ctx, "", nil)
	if err != nil {
		return err
	}

	body := res.Message + "\n"
	if strings.TrimSpace(string(existing)) != "" {
		body += "\n" + string(existing)
	}
	if err := os.WriteFile(msgFile, []byte(body), 0o644); err != nil {
		return fmt.Errorf("write commit message file: %w", err)
	}
	return nil
}

func hasNonCommentContent(s string) bool {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			return true
		}
	}
	return false
}

// installHook writes the hook script into dir's repository. An existing
// hook not written by gitmsg is left alone.
func installHook(ctx context.Context, dir string) (string, error) {
	hooksDir, err := git.HooksDir(ctx, dir)
	if err != nil {
		return "", err
	}
	path := filepath.Join(hooksDir, "prepare-commit-msg")
	if data, err := os.ReadFile(path); err == nil && !strings.Contains(string(data), "installed by gitmsg") {
		return "", fmt.Errorf("%s already exists", path)
	}
	if err := os.MkdirAll(hooksDir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(hookScript), 0o755); err != nil {
		return "", err
	}
	return path, nil
}

func init() {
	hookCmd.AddCommand(prepareCommitMsgCmd, hookInstallCmd)
	rootCmd.AddCommand(hookCmd)
}
