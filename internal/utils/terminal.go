package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	kerrors "github.com/PolarWolf314/fmp/internal/errors"
	"github.com/PolarWolf314/fmp/internal/securemem"

	"golang.org/x/term"
)

// ReadSecret prompts for a secret without echoing input and wraps it
// immediately. When stdin is not a terminal it falls back to /dev/tty (or
// CON on Windows) so a piped stdin does not block the prompt.
func ReadSecret(prompt string) (*securemem.Secret, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		return readHidden(fd, prompt)
	}

	tty, err := os.Open(ttyPath())
	if err != nil {
		return nil, fmt.Errorf("cannot read secret: stdin is not a terminal and %s is unavailable: %w", ttyPath(), err)
	}
	defer tty.Close()

	fd = int(tty.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("cannot read secret: %s is not a terminal", ttyPath())
	}
	return readHidden(fd, prompt)
}

// ReadSecretConfirm prompts twice and fails if the entries differ.
func ReadSecretConfirm(prompt, confirmPrompt string) (*securemem.Secret, error) {
	first, err := ReadSecret(prompt)
	if err != nil {
		return nil, err
	}
	second, err := ReadSecret(confirmPrompt)
	if err != nil {
		first.Destroy()
		return nil, err
	}
	defer second.Destroy()

	if !first.Equal(second) {
		first.Destroy()
		return nil, kerrors.ErrPassphraseMismatch
	}
	return first, nil
}

func readHidden(fd int, prompt string) (*securemem.Secret, error) {
	fmt.Fprint(os.Stderr, prompt)
	input, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr) // Add newline after hidden input

	if err != nil {
		securemem.Wipe(input)
		return nil, fmt.Errorf("failed to read secret: %w", err)
	}
	return securemem.New(input), nil
}

// ReadLine prompts for a single line of visible input.
func ReadLine(r io.Reader, prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// IsTerminal returns true if stdin is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func ttyPath() string {
	if runtime.GOOS == "windows" {
		return "CON"
	}
	return "/dev/tty"
}
