// Package clean turns free-form model output into a single commit-message line.
package clean

import (
	"regexp"
	"strings"
)

var (
	openingFence = regexp.MustCompile("^\\s*```(?:[\\w+.#-]*[ \\t]*\\r?\\n)?")
	closingFence = regexp.MustCompile("\\r?\\n?```\\s*$")
	fencedBlock  = regexp.MustCompile("(?s)```(?:[\\w+.#-]*[ \\t]*\\r?\\n)?(.*?)\\r?\\n?```")

	leadIn = regexp.MustCompile(`(?i)^\s*(?:(?:here\s+is|here's|here’s)\s+)?(?:(?:a|an|the|your)\s+)?(?:(?:suggested|generated|proposed)\s+)?(?:(?:conventional\s+)?commit\s+)?message\b\s*:?\s*`)

	leadingNonWord  = regexp.MustCompile(`^[^\p{L}\p{N}_]+`)
	trailingNonWord = regexp.MustCompile(`[^\p{L}\p{N}_]+$`)

	sentenceBreak = regexp.MustCompile(`\.\s+\S`)

	explanation = regexp.MustCompile(`(?i)[\s,;:–—-]*\b(?:this commit message|the message|consider using this|possible commit message)\b.*$`)

	label = regexp.MustCompile(`(?i)^\s*commit(?:\s+message)?\s*:\s*`)
)

const quotes = "\"'`“”‘’"

// Message applies the cleaning steps in order. The steps depend on each
// other: later ones assume fences, quotes and lead-ins are already gone.
// The result may be empty when the input held nothing but boilerplate.
func Message(raw string) string {
	s := stripOuterFence(raw)
	s = fencedBlock.ReplaceAllString(s, "$1")
	s = stripQuotes(s)
	s = leadIn.ReplaceAllString(s, "")
	s = trimNonWord(s)
	s = firstLine(s)
	s = firstSentence(s)
	s = explanation.ReplaceAllString(s, "")
	s = label.ReplaceAllString(s, "")
	// Removing a clause or label can expose punctuation that the first
	// pass never saw at an edge.
	s = trimNonWord(s)
	return strings.TrimSpace(s)
}

// trimNonWord strips non-word characters from both ends. A closing
// parenthesis that balances one in the text survives, and so does a period
// written directly after the content; any other trailing run goes.
func trimNonWord(s string) string {
	s = leadingNonWord.ReplaceAllString(s, "")
	loc := trailingNonWord.FindStringIndex(s)
	if loc == nil {
		return s
	}
	core, tail := s[:loc[0]], s[loc[0]:]
	if strings.HasPrefix(tail, ")") && strings.Count(core, "(") > strings.Count(core, ")") {
		core += ")"
		tail = tail[1:]
	}
	if strings.HasPrefix(tail, ".") {
		core += "."
	}
	return core
}

func stripOuterFence(s string) string {
	s = openingFence.ReplaceAllString(s, "")
	return closingFence.ReplaceAllString(s, "")
}

// stripQuotes removes at most one quote character from each end.
func stripQuotes(s string) string {
	s = strings.TrimSpace(s)
	for _, q := range quotes {
		if r := string(q); strings.HasPrefix(s, r) {
			s = strings.TrimPrefix(s, r)
			break
		}
	}
	for _, q := range quotes {
		if r := string(q); strings.HasSuffix(s, r) {
			s = strings.TrimSuffix(s, r)
			break
		}
	}
	return s
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

// firstSentence keeps the first of several period-delimited sentences.
func firstSentence(s string) string {
	loc := sentenceBreak.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + "."
}
