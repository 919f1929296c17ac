package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rasalas/gitmsg/internal/ai"
	"github.com/rasalas/gitmsg/internal/changes"
	"github.com/rasalas/gitmsg/internal/git"
)

var promptDiffFlag bool

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Inspect the prompt sent to the model",
	Args:  cobra.NoArgs,
	RunE:  runPromptShow,
}

var promptShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the instruction, or the full prompt with --diff",
	Args:  cobra.NoArgs,
	RunE:  runPromptShow,
}

func runPromptShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if !promptDiffFlag {
		fmt.Fprintln(out, ai.DefaultInstruction)
		return nil
	}

	sel, err := changes.Select(cmd.Context(), git.ExecGit{Paths: repoFlags}, fileFlag, newLogger())
	if err != nil {
		return finish(err)
	}
	fmt.Fprint(out, ai.BuildPrompt(sel.Diff))
	return nil
}

func init() {
	for _, c := range []*cobra.Command{promptCmd, promptShowCmd} {
		c.Flags().BoolVar(&promptDiffFlag, "diff", false, "Include the diff that would be sent")
		c.Flags().StringArrayVarP(&repoFlags, "repo", "C", nil, "Repository path to consider (repeatable)")
		c.Flags().StringVar(&fileFlag, "file", "", "Focused file; its repository is tried first")
	}
	promptCmd.AddCommand(promptShowCmd)
	rootCmd.AddCommand(promptCmd)
}
