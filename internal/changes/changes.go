// Package changes picks which repository and which change-set to summarize
// when several candidates are available.
package changes

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/rasalas/gitmsg/internal/git"
)

var (
	// ErrNoRepository means no version-control integration or repository is available.
	ErrNoRepository = errors.New("no git repository found")
	// ErrNotFound means every candidate was empty: there is nothing to summarize.
	ErrNotFound = errors.New("no changes found")
)

// Strategy selects which diff of a source to fetch.
type Strategy int

const (
	// Staged is the index against HEAD.
	Staged Strategy = iota
	// Head is every uncommitted change against HEAD.
	Head
)

func (s Strategy) String() string {
	switch s {
	case Staged:
		return "staged"
	case Head:
		return "head"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// Source is one repository root.
type Source struct {
	Root   string
	Active bool
}

// Candidate is one step of the fallback plan.
type Candidate struct {
	Source   Source
	Strategy Strategy
}

// Result is the first non-empty diff found by Select.
type Result struct {
	Diff     string
	Source   Source
	Strategy Strategy
}

// ActiveIndex returns the index of the root containing focused, or 0 when
// no root contains it. When roots nest, the deepest one wins.
func ActiveIndex(roots []string, focused string) int {
	if focused == "" {
		return 0
	}
	if abs, err := filepath.Abs(focused); err == nil {
		focused = abs
	}

	best, bestLen := 0, -1
	for i, root := range roots {
		if !within(root, focused) {
			continue
		}
		if len(root) > bestLen {
			best, bestLen = i, len(root)
		}
	}
	return best
}

// within reports whether path is root or lies below it.
func within(root, path string) bool {
	root = filepath.Clean(root)
	path = filepath.Clean(path)
	if path == root {
		return true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}

// Plan returns the ordered candidates: the active source first, then the
// others in enumeration order, with staged tried before HEAD for each.
func Plan(roots []string, active int) []Candidate {
	if len(roots) == 0 {
		return nil
	}

	ordered := make([]string, 0, len(roots))
	if active >= 0 && active < len(roots) {
		ordered = append(ordered, roots[active])
	}
	ordered = append(ordered, roots...)

	seen := make(map[string]bool, len(ordered))
	plan := make([]Candidate, 0, 2*len(roots))
	for i, root := range ordered {
		if seen[root] {
			continue
		}
		seen[root] = true
		src := Source{Root: root, Active: i == 0}
		plan = append(plan,
			Candidate{Source: src, Strategy: Staged},
			Candidate{Source: src, Strategy: Head},
		)
	}
	return plan
}

// Select walks the plan built from provider's repositories and returns the
// first candidate with a non-blank diff. Fetch failures are logged and
// skipped. It returns ErrNoRepository when there is nothing to enumerate and
// ErrNotFound when every candidate came back empty.
func Select(ctx context.Context, provider git.Provider, focused string, logger zerolog.Logger) (Result, error) {
	if provider == nil {
		return Result{}, ErrNoRepository
	}

	roots, err := provider.Repositories(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{}, fmt.Errorf("%w: %v", ErrNoRepository, err)
	}
	if len(roots) == 0 {
		return Result{}, ErrNoRepository
	}

	for _, c := range Plan(roots, ActiveIndex(roots, focused)) {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		diff, err := fetch(ctx, provider, c)
		if err != nil {
			logger.Warn().Err(err).
				Str("root", c.Source.Root).
				Stringer("strategy", c.Strategy).
				Msg("diff fetch failed, trying next candidate")
			continue
		}
		if strings.TrimSpace(diff) == "" {
			logger.Debug().
				Str("root", c.Source.Root).
				Stringer("strategy", c.Strategy).
				Msg("empty diff")
			continue
		}

		logger.Debug().
			Str("root", c.Source.Root).
			Stringer("strategy", c.Strategy).
			Int("bytes", len(diff)).
			Msg("selected changes")
		return Result{Diff: diff, Source: c.Source, Strategy: c.Strategy}, nil
	}

	return Result{}, ErrNotFound
}

func fetch(ctx context.Context, provider git.Provider, c Candidate) (string, error) {
	switch c.Strategy {
	case Staged:
		return provider.StagedDiff(ctx, c.Source.Root)
	case Head:
		return provider.HeadDiff(ctx, c.Source.Root)
	default:
		return "", fmt.Errorf("unknown strategy %v", c.Strategy)
	}
}
