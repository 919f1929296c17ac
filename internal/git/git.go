package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrNotInstalled is returned when the git binary cannot be found on PATH.
var ErrNotInstalled = errors.New("git executable not found")

// Provider is the version-control surface the generator depends on.
// Implementations must not cache diffs: every call reflects the working
// tree at the time of the call.
type Provider interface {
	// Repositories returns the repository roots, in enumeration order.
	Repositories(ctx context.Context) ([]string, error)
	// StagedDiff returns the diff of the index against HEAD.
	StagedDiff(ctx context.Context, root string) (string, error)
	// HeadDiff returns all uncommitted changes relative to HEAD.
	HeadDiff(ctx context.Context, root string) (string, error)
}

// ExecGit implements Provider by shelling out to the git CLI.
type ExecGit struct {
	// Paths are directories (or files) inside the repositories to consider.
	// An empty list means the current directory.
	Paths []string
}

func run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", ErrNotInstalled
		}
		return "", fmt.Errorf("git %s failed: %w (stderr: %q)",
			strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// Repositories resolves every configured path to its repository root.
// Paths outside a repository are skipped; duplicate roots are reported once.
func (g ExecGit) Repositories(ctx context.Context) ([]string, error) {
	if _, err := exec.LookPath("git"); err != nil {
		return nil, ErrNotInstalled
	}

	paths := g.Paths
	if len(paths) == 0 {
		paths = []string{"."}
	}

	seen := make(map[string]bool, len(paths))
	var roots []string
	for _, p := range paths {
		dir, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		out, err := run(ctx, dir, "rev-parse", "--show-toplevel")
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		root := filepath.Clean(strings.TrimSpace(out))
		if seen[root] {
			continue
		}
		seen[root] = true
		roots = append(roots, root)
	}
	return roots, nil
}

func (ExecGit) StagedDiff(ctx context.Context, root string) (string, error) {
	return run(ctx, root, "diff", "--cached", "--no-color", "--no-ext-diff")
}

func (ExecGit) HeadDiff(ctx context.Context, root string) (string, error) {
	return run(ctx, root, "diff", "HEAD", "--no-color", "--no-ext-diff")
}

// Commit records changes in root with the given message. With all set,
// modified tracked files are committed too, matching HeadDiff.
func Commit(ctx context.Context, root, message string, all bool) (string, error) {
	args := []string{"commit", "-m", message}
	if all {
		args = []string{"commit", "-a", "-m", message}
	}
	out, err := run(ctx, root, args...)
	return strings.TrimSpace(out), err
}

// DiffStat returns `git diff --stat` for the staged or the HEAD diff.
func DiffStat(ctx context.Context, root string, staged bool) (string, error) {
	args := []string{"diff", "HEAD", "--stat", "--no-color"}
	if staged {
		args = []string{"diff", "--cached", "--stat", "--no-color"}
	}
	out, err := run(ctx, root, args...)
	return strings.TrimRight(out, "\n"), err
}

// CurrentBranch returns the abbreviated name of HEAD in root.
func CurrentBranch(ctx context.Context, root string) (string, error) {
	out, err := run(ctx, root, "rev-parse", "--abbrev-ref", "HEAD")
	return strings.TrimSpace(out), err
}

// HooksDir returns the absolute hooks directory of the repository at dir,
// honoring core.hooksPath.
func HooksDir(ctx context.Context, dir string) (string, error) {
	out, err := run(ctx, dir, "rev-parse", "--path-format=absolute", "--git-path", "hooks")
	if err != nil {
		return "", err
	}
	return filepath.Clean(strings.TrimSpace(out)), nil
}
