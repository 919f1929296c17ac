package term

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/term"
)

// Action represents a user action from the confirmation prompt.
type Action int

const (
	ActionConfirm Action = iota
	ActionCancel
	ActionEdit
	ActionEditExternal
	ActionRegenerate
)

// actionKeys maps raw key bytes to actions.
var actionKeys = map[byte]Action{
	'\r': ActionConfirm,
	'\n': ActionConfirm,
	27:   ActionCancel, // Esc
	3:    ActionCancel, // Ctrl+C
	'q':  ActionCancel,
	'e':  ActionEdit,
	'E':  ActionEditExternal,
	'r':  ActionRegenerate,
}

// WaitForAction reads keys from stdin until one maps to an action.
func WaitForAction() (Action, error) {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return ActionCancel, fmt.Errorf("failed to set raw terminal: %w", err)
	}
	defer term.Restore(fd, oldState)

	buf := make([]byte, 3)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return ActionCancel, err
		}
		if a, ok := decodeAction(buf[:n]); ok {
			return a, nil
		}
	}
}

func decodeAction(p []byte) (Action, bool) {
	for _, b := range p {
		if a, ok := actionKeys[b]; ok {
			return a, true
		}
	}
	return ActionCancel, false
}

// WaitForYesNo waits for the user to press y/n or Enter/Esc.
func WaitForYesNo() (bool, error) {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return false, err
	}
	defer term.Restore(fd, oldState)

	buf := make([]byte, 1)
	for {
		if _, err := os.Stdin.Read(buf); err != nil {
			return false, err
		}
		switch buf[0] {
		case 'y', 'Y', '\r', '\n':
			return true, nil
		case 'n', 'N', 27, 3:
			return false, nil
		}
	}
}

// ReadSecret prints prompt to stderr and reads a line without echo.
func ReadSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

// GetEditor returns the user's preferred editor.
func GetEditor() string {
	if e := os.Getenv("VISUAL"); e != "" {
		return e
	}
	if e := os.Getenv("EDITOR"); e != "" {
		return e
	}
	return "vi"
}

// EditFile opens path in the user's editor and waits for it to exit.
func EditFile(path string) error {
	cmd := exec.Command(GetEditor(), path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("editor exited with error: %w", err)
	}
	return nil
}

// EditExternal opens the message in an external editor. An emptied file
// keeps the original message.
func EditExternal(initial string) (string, error) {
	f, err := os.CreateTemp("", "gitmsg-*.txt")
	if err != nil {
		return initial, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpFile := f.Name()
	defer os.Remove(tmpFile)
	_, err = f.WriteString(initial)
	f.Close()
	if err != nil {
		return initial, fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := EditFile(filepath.Clean(tmpFile)); err != nil {
		return initial, err
	}

	content, err := os.ReadFile(tmpFile)
	if err != nil {
		return initial, fmt.Errorf("failed to read edited file: %w", err)
	}
	if edited := strings.TrimSpace(string(content)); edited != "" {
		return edited, nil
	}
	return initial, nil
}
