package errors

import "errors"

// Exit codes returned by the fmp binary.
const (
	ExitOK                = 0
	ExitFailure           = 1
	ExitUserInput         = 2
	ExitNotFound          = 3
	ExitVaultBusy         = 4
	ExitDecryption        = 5
	ExitEncryption        = 6
	ExitCorruptArchive    = 7
	ExitIO                = 8
	ExitRecipientNotFound = 9
)

var exitCodes = []struct {
	err  error
	code int
}{
	{ErrUserInput, ExitUserInput},
	{ErrNotFound, ExitNotFound},
	{ErrVaultBusy, ExitVaultBusy},
	{ErrRecipientNotFound, ExitRecipientNotFound},
	{ErrDecryption, ExitDecryption},
	{ErrEncryption, ExitEncryption},
	{ErrCorruptArchive, ExitCorruptArchive},
	{ErrIO, ExitIO},
}

// ExitCode maps err to the process exit status for its error class.
// A nil error is ExitOK and an unclassified error is ExitFailure.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	for _, c := range exitCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return ExitFailure
}

// Classify reports whether err already carries one of the class errors.
func Classify(err error) bool {
	for _, c := range exitCodes {
		if errors.Is(err, c.err) {
			return true
		}
	}
	return false
}
