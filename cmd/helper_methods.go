package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	kerrors "github.com/PolarWolf314/fmp/internal/errors"
	"github.com/PolarWolf314/fmp/internal/password"
	"github.com/PolarWolf314/fmp/internal/securemem"
	"github.com/PolarWolf314/fmp/internal/ui"
	"github.com/PolarWolf314/fmp/internal/utils"
	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
)

// Input sources, swapped in tests.
var (
	promptSecret        = utils.ReadSecret
	promptSecretConfirm = utils.ReadSecretConfirm
	stdinIsTerminal     = utils.IsTerminal
	readStdinSecret     = utils.ReadSecretStdin
	readLine            = func(prompt string) (string, error) { return utils.ReadLine(os.Stdin, prompt) }
)

// activeSpinner is the spinner of the running command, paused while a
// prompt reads from the terminal.
var activeSpinner *spinner.Spinner

// startSpinner creates and starts a spinner with the given message when not in verbose or debug mode.
// Returns the spinner and a function that should be deferred to clean up.
//
// IMPORTANT: spinner.FinalMSG values do NOT need trailing newlines. The cleanup function
// automatically calls ui.EnsureNewline() on the final message before printing it.
func startSpinner(message string, verbose bool) (*spinner.Spinner, func()) {
	Logger.Debugf("Starting spinner with message: %s", message)
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message
	s.Writer = os.Stderr

	err := s.Color("cyan")
	if err != nil {
		// If we can't set spinner color, just continue without it.
		Logger.Warnf("Failed to set spinner color: %v", err)
	}

	activeSpinner = s
	if !verbose && !debug {
		s.Start()
		// Ensure log output is discarded unless in verbose mode.
		log.SetOutput(io.Discard)
	} else {
		Logger.Infof("Running in verbose or debug mode: %s", message)
	}

	cleanup := func() {
		activeSpinner = nil
		if !verbose && !debug {
			log.SetOutput(os.Stderr)
		}

		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ui.EnsureNewline(s.FinalMSG)
			// Clear FinalMSG so s.Stop() doesn't print it.
			s.FinalMSG = ""
		}

		if !verbose && !debug {
			s.Stop()
		}

		// Print final message to stdout (for tests to capture).
		if finalMsg != "" {
			fmt.Print(finalMsg)
		}
	}

	return s, cleanup
}

// withPausedSpinner stops s while fn reads from the terminal.
func withPausedSpinner[T any](s *spinner.Spinner, fn func() (T, error)) (T, error) {
	active := s != nil && s.Active()
	if active {
		s.Stop()
	}
	defer func() {
		if active {
			s.Start()
		}
	}()
	return fn()
}

// reportedError marks an error whose message was already shown to the user.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// IsReported reports whether err was already printed by a command.
func IsReported(err error) bool {
	var r *reportedError
	return errors.As(err, &r)
}

// fail sets the spinner's final message to a formatted err and returns it
// marked as reported.
func fail(s *spinner.Spinner, err error) error {
	Logger.Debugf("Command failed: %v", err)
	s.FinalMSG = formatError(err)
	return &reportedError{err: err}
}

// formatError formats an error for display to the user.
func formatError(err error) string {
	cross := ui.Error.Sprint("✗") + " "
	arrow := "\n" + ui.Info.Sprint("→") + " "

	switch {
	case errors.Is(err, kerrors.ErrNoVaultSelected):
		return cross + "No vault selected" +
			arrow + "Pass " + ui.Flag.Sprint("--vault") + " or run " + ui.Code.Sprint("fmp vaults --default <name>")

	case errors.Is(err, kerrors.ErrNoRecipient):
		return cross + err.Error() +
			arrow + "Run " + ui.Code.Sprint("fmp change-recipient <recipient>") + " to set one"

	case errors.Is(err, kerrors.ErrPassphraseMismatch):
		return cross + "The entries do not match"

	case errors.Is(err, kerrors.ErrVaultNotFound):
		return cross + err.Error() +
			arrow + "Run " + ui.Code.Sprint("fmp vaults") + " to see the available vaults"

	case errors.Is(err, kerrors.ErrBackupNotFound):
		return cross + err.Error() +
			arrow + "Run " + ui.Code.Sprint("fmp backup") + " first"

	case errors.Is(err, kerrors.ErrVaultBusy):
		return cross + err.Error() +
			arrow + "Wait for the other session to finish, or raise " + ui.Flag.Sprint("lock_timeout")

	case errors.Is(err, kerrors.ErrCodeRequired):
		return cross + err.Error() +
			arrow + "Pass the code from your authenticator with " + ui.Flag.Sprint("--otp")

	case errors.Is(err, kerrors.ErrInvalidCode):
		return cross + err.Error() +
			arrow + "Use the current code and check that this machine's clock is right"

	case errors.Is(err, kerrors.ErrTOTPSecretNotFound):
		return cross + err.Error() +
			arrow + "Restore the vault's .totp.gpg file; the vault stays locked without it"

	case errors.Is(err, kerrors.ErrRecipientNotFound):
		return cross + err.Error() +
			arrow + "Check the key with " + ui.Code.Sprint("gpg --list-keys")

	case errors.Is(err, kerrors.ErrDecryption):
		return cross + err.Error() +
			arrow + "Check that the private key and passphrase are available"

	case errors.Is(err, kerrors.ErrCorruptArchive):
		return cross + err.Error() +
			arrow + "Run " + ui.Code.Sprint("fmp restore") + " to go back to the last backup"

	case errors.Is(err, context.Canceled):
		return cross + "Interrupted; the vault was left untouched"

	default:
		return cross + err.Error()
	}
}

// commandContext returns the command's context, or Background when run
// outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// promptPassphrase is the workflow prompt for private key passphrases.
func promptPassphrase(prompt string) (*securemem.Secret, error) {
	return withPausedSpinner(activeSpinner, func() (*securemem.Secret, error) {
		return promptSecret(prompt)
	})
}

// readCode supplies one-time codes from --otp, or asks on the terminal.
func readCode(vault string) (string, error) {
	if otpCode != "" {
		return otpCode, nil
	}
	if !stdinIsTerminal() {
		return "", fmt.Errorf("%w for vault %q", kerrors.ErrCodeRequired, vault)
	}
	return withPausedSpinner(activeSpinner, func() (string, error) {
		return readLine(fmt.Sprintf("One-time code for %s: ", vault))
	})
}

// readNewPassword reads a password from piped stdin, or asks twice on the
// terminal.
func readNewPassword(account string) (*securemem.Secret, error) {
	if !stdinIsTerminal() {
		Logger.Debugf("Reading password for %s from stdin", account)
		return readStdinSecret()
	}
	return promptSecretConfirm(
		fmt.Sprintf("Password for %s: ", account),
		"Confirm password: ",
	)
}

// classFlags holds the --no-* character class switches shared by commands
// that generate passwords.
type classFlags struct {
	noLower   bool
	noUpper   bool
	noDigits  bool
	noSymbols bool
}

func (f *classFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.noLower, "no-lower", false, "exclude lowercase letters")
	cmd.Flags().BoolVar(&f.noUpper, "no-upper", false, "exclude uppercase letters")
	cmd.Flags().BoolVar(&f.noDigits, "no-digits", false, "exclude digits")
	cmd.Flags().BoolVar(&f.noSymbols, "no-symbols", false, "exclude symbols")
}

func (f *classFlags) classes() password.Class {
	c := password.All
	if f.noLower {
		c &^= password.Lower
	}
	if f.noUpper {
		c &^= password.Upper
	}
	if f.noDigits {
		c &^= password.Digit
	}
	if f.noSymbols {
		c &^= password.Symbol
	}
	return c
}

// printSecret writes a revealed secret to stdout without an intermediate
// string copy.
func printSecret(s *securemem.Secret) error {
	return s.Use(func(b []byte) error {
		if _, err := os.Stdout.Write(b); err != nil {
			return err
		}
		_, err := os.Stdout.Write([]byte("\n"))
		return err
	})
}
