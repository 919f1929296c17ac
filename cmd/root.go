package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/rasalas/gitmsg/internal/ai"
	"github.com/rasalas/gitmsg/internal/changes"
	"github.com/rasalas/gitmsg/internal/commitmsg"
	"github.com/rasalas/gitmsg/internal/git"
	"github.com/rasalas/gitmsg/internal/keyring"
	"github.com/rasalas/gitmsg/internal/term"
	"github.com/rasalas/gitmsg/internal/tui"
)

var (
	repoFlags    []string
	fileFlag     string
	providerFlag string
	urlFlag      string
	modelFlag    string
	streamFlag   bool
	noStreamFlag bool
	copyFlag     bool
	commitFlag   bool
	yesFlag      bool
	verboseFlag  bool
)

func init() {
	f := rootCmd.Flags()
	f.StringArrayVarP(&repoFlags, "repo", "C", nil, "Repository path to consider (repeatable, default: current directory)")
	f.StringVar(&fileFlag, "file", "", "Focused file; its repository is tried first")
	f.BoolVar(&streamFlag, "stream", true, "Stream the reply and show progress")
	f.BoolVar(&noStreamFlag, "no-stream", false, "Wait for the full reply")
	f.BoolVar(&copyFlag, "copy", false, "Copy the message to the clipboard")
	f.BoolVar(&commitFlag, "commit", false, "Commit with the generated message")
	f.BoolVarP(&yesFlag, "yes", "y", false, "Commit without asking for confirmation")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&providerFlag, "provider", "", "Provider preset (openai, ollama, groq, ...)")
	pf.StringVar(&urlFlag, "url", "", "Chat-completions endpoint or API root")
	pf.StringVar(&modelFlag, "model", "", "Model name")
	pf.BoolVarP(&verboseFlag, "verbose", "v", false, "Debug logging on stderr")
}

var rootCmd = &cobra.Command{
	Use:   "gitmsg",
	Short: "Write a commit message for your pending changes",
	Long: "Read the staged changes (or, when nothing is staged, every change against HEAD),\n" +
		"ask an OpenAI-compatible endpoint to summarize them and print one clean\n" +
		"conventional-commit line.",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runGenerate,
}

// Execute runs the root command. Interrupts cancel the context so a
// running request stops cleanly.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "  %s%v%s\n", term.Red, describe(err), term.Reset)
		os.Exit(1)
	}
}

// describe adds a hint to errors the user can act on.
func describe(err error) error {
	switch {
	case errors.Is(err, ai.ErrAPIKeyMissing):
		return fmt.Errorf("%w; run `gitmsg auth set` or set %s", err, keyring.EnvKey)
	case errors.Is(err, changes.ErrNoRepository):
		return fmt.Errorf("%w; run inside a repository or pass --repo", err)
	case errors.Is(err, commitmsg.ErrEmptyResult):
		return fmt.Errorf("%w; try again or pick another model", err)
	}
	return err
}

// finish maps the outcomes that are not failures to a notice and nil.
func finish(err error) error {
	switch {
	case errors.Is(err, changes.ErrNotFound):
		notice("Nothing to commit.")
		return nil
	case errors.Is(err, commitmsg.ErrCancelled):
		notice("Cancelled.")
		return nil
	}
	return err
}

func notice(msg string) {
	fmt.Fprintf(os.Stderr, "  %s%s%s\n", term.Dim, msg, term.Reset)
}

func interactive() bool {
	return term.IsTerminal(os.Stdin) && term.IsTerminal(os.Stderr)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := loadSettings(cmd.Flags())
	if err != nil {
		return err
	}

	res, err := generate(ctx, s)
	if errors.Is(err, ai.ErrAPIKeyMissing) && interactive() {
		if s, err = quickSetup(s); err == nil {
			res, err = generate(ctx, s)
		}
	}
	if err != nil {
		return finish(err)
	}

	if !commitFlag {
		printResult(res)
		if copyFlag {
			copyMessage(res.Message)
		}
		return nil
	}
	return confirmAndCommit(ctx, s, res)
}

// generate runs the pipeline, with a spinner when a terminal is attached.
func generate(ctx context.Context, s settings) (commitmsg.Result, error) {
	gen := s.generator(repoFlags)
	if !interactive() {
		return gen.Generate(ctx, fileFlag, nil)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	label := fmt.Sprintf("Asking %s...", s.provider.Model)
	var res commitmsg.Result
	err := tui.RunProgress(label, cancel, func(onProgress func(string)) error {
		var err error
		res, err = gen.Generate(ctx, fileFlag, onProgress)
		return err
	})
	return res, err
}

func quickSetup(s settings) (settings, error) {
	fmt.Fprintf(os.Stderr, "  No API key found for %s. Set one now? (y/n)\n", s.provider.Name)
	yes, err := term.WaitForYesNo()
	if err != nil || !yes {
		return s, ai.ErrAPIKeyMissing
	}
	key, err := readAndSaveKey(s.provider.Name)
	if err != nil {
		return s, err
	}
	s.apiKey, s.keySrc = key, keyring.SourceKeyring
	return s, nil
}

func printResult(res commitmsg.Result) {
	if !term.IsTerminal(os.Stdout) {
		fmt.Println(res.Message)
		return
	}
	printStat(res)
	printMessage(res.Message)
}

func printStat(res commitmsg.Result) {
	stat, err := git.DiffStat(context.Background(), res.Source.Root, res.Strategy == changes.Staged)
	if err != nil || stat == "" {
		return
	}
	fmt.Println()
	for _, line := range strings.Split(stat, "\n") {
		fmt.Println("  " + term.ColorizeDiffStat(line))
	}
}

// printMessage displays the commit message card and returns the number of lines used.
func printMessage(message string) int {
	card := term.Card(message)
	fmt.Printf("\n%s\n\n", card)
	return strings.Count(card, "\n") + 3
}

func copyMessage(message string) {
	if err := clipboard.WriteAll(message); err != nil {
		fmt.Fprintf(os.Stderr, "  %s! could not copy: %v%s\n", term.Red, err, term.Reset)
		return
	}
	notice("Copied to clipboard.")
}

func confirmAndCommit(ctx context.Context, s settings, res commitmsg.Result) error {
	message := res.Message
	if yesFlag || !interactive() {
		printResult(res)
		return commit(ctx, res, message)
	}

	printStat(res)
	for {
		lines := printMessage(message)
		fmt.Fprintf(os.Stderr, "  %s%s  ·  %s  ·  %s  ·  %s  ·  %s%s\n",
			term.Dim,
			term.Keyhint("enter", "commit"),
			term.Keyhint("e", "edit"),
			term.Keyhint("E", "editor"),
			term.Keyhint("r", "regenerate"),
			term.Keyhint("q", "cancel"),
			term.Reset)

		action, err := term.WaitForAction()
		if err != nil {
			return err
		}

		switch action {
		case term.ActionCancel:
			return finish(commitmsg.ErrCancelled)
		case term.ActionEdit:
			term.ClearLines(os.Stdout, lines)
			if edited, err := tui.EditLine(message); err == nil && strings.TrimSpace(edited) != "" {
				message = strings.TrimSpace(edited)
			}
			continue
		case term.ActionEditExternal:
			edited, err := term.EditExternal(message)
			if err != nil {
				fmt.Fprintf(os.Stderr, "\n  Editor failed: %v\n", err)
			} else {
				message = edited
			}
			continue
		case term.ActionRegenerate:
			next, err := generate(ctx, s)
			if err != nil {
				return finish(err)
			}
			res, message = next, next.Message
			continue
		case term.ActionConfirm:
		}
		break
	}

	if copyFlag {
		copyMessage(message)
	}
	return commit(ctx, res, message)
}

func commit(ctx context.Context, res commitmsg.Result, message string) error {
	out, err := git.Commit(ctx, res.Source.Root, message, res.Strategy == changes.Head)
	if err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "  %s✓%s %s\n", term.Green, term.Reset, firstLine(out))
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
