package term

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Hex palette shared by the ANSI codes below and the lipgloss styles.
const (
	HexPrimary = "#FF8C42"
	HexMuted   = "#78716C"
	HexSuccess = "#4ADE80"
	HexDanger  = "#FF6B6B"
	HexCardBg  = "#2C241E"
)

// ANSI color codes, disabled when NO_COLOR is set.
var (
	Bold  = "\033[1m"
	Dim   = "\033[2m"
	Red   = "\033[31m"
	Green = "\033[32m"
	Reset = "\033[0m"
)

func init() {
	if os.Getenv("NO_COLOR") != "" {
		disableColor()
	}
}

func disableColor() {
	Bold, Dim, Red, Green, Reset = "", "", "", "", ""
	plain = true
}

// Keyhint formats a keybinding: key in bold, description in dim.
func Keyhint(key, desc string) string {
	return Reset + Bold + key + Reset + Dim + " " + desc
}

// ClearLines clears n lines of w going upward from the cursor.
func ClearLines(w *os.File, n int) {
	fmt.Fprint(w, "\033[2K")
	for i := 1; i < n; i++ {
		fmt.Fprint(w, "\033[1A\033[2K")
	}
	fmt.Fprint(w, "\r")
}

// diffStatRe matches lines like "  file.go | 29 ++---"
var diffStatRe = regexp.MustCompile(`^(.*\|[^+-]*?)(\+*)(-*)$`)

// ColorizeDiffStat colorizes a single `git diff --stat` line.
func ColorizeDiffStat(line string) string {
	if strings.Contains(line, "files changed") || strings.Contains(line, "file changed") {
		return Dim + line + Reset
	}

	m := diffStatRe.FindStringSubmatch(line)
	if m == nil {
		return line
	}
	var b strings.Builder
	b.WriteString(m[1])
	if m[2] != "" {
		b.WriteString(Green + m[2] + Reset)
	}
	if m[3] != "" {
		b.WriteString(Red + m[3] + Reset)
	}
	return b.String()
}
