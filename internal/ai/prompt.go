package ai

// DefaultInstruction asks for a bare conventional-commit message. The
// model's reply is used verbatim, so it must not add commentary.
const DefaultInstruction = `Based on the following git diff, generate a concise git commit message following the conventional commit format (type(scope): description).
Only respond with the commit message, nothing else: no explanation, no quotes, no code fences.`

// BuildPrompt appends diff, untouched, to the fixed instruction.
func BuildPrompt(diff string) string {
	return DefaultInstruction + "\n\nDiff:\n" + diff
}
