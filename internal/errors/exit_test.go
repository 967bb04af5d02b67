package errors

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"Nil", nil, ExitOK},
		{"Unclassified", errors.New("boom"), ExitFailure},
		{"Canceled", context.Canceled, ExitFailure},
		{"Duplicate", ErrDuplicate, ExitUserInput},
		{"WrappedDuplicate", fmt.Errorf("adding github: %w", ErrDuplicate), ExitUserInput},
		{"InvalidLength", ErrInvalidLength, ExitUserInput},
		{"AccountNotFound", ErrAccountNotFound, ExitNotFound},
		{"BackupNotFound", ErrBackupNotFound, ExitNotFound},
		{"InvalidCode", ErrInvalidCode, ExitUserInput},
		{"TOTPSecretNotFound", ErrTOTPSecretNotFound, ExitNotFound},
		{"Busy", ErrVaultBusy, ExitVaultBusy},
		{"Decryption", ErrDecryption, ExitDecryption},
		{"Encryption", ErrEncryption, ExitEncryption},
		{"Corrupt", ErrCorruptArchive, ExitCorruptArchive},
		{"IO", fmt.Errorf("%w: %w", ErrIO, fs.ErrPermission), ExitIO},
		{"Recipient", fmt.Errorf("%w: alice@example.com", ErrRecipientNotFound), ExitRecipientNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExitCode(tc.err); got != tc.want {
				t.Errorf("ExitCode(%v) = %d, expected %d", tc.err, got, tc.want)
			}
		})
	}
}

func TestSpecificErrorsWrapClass(t *testing.T) {
	pairs := []struct {
		specific error
		class    error
	}{
		{ErrDuplicate, ErrUserInput},
		{ErrInvalidName, ErrUserInput},
		{ErrNoClasses, ErrUserInput},
		{ErrVaultExists, ErrUserInput},
		{ErrNoVaultSelected, ErrUserInput},
		{ErrAccountNotFound, ErrNotFound},
		{ErrVaultNotFound, ErrNotFound},
		{ErrCodeRequired, ErrUserInput},
		{ErrTOTPEnabled, ErrUserInput},
		{ErrTOTPNotEnabled, ErrUserInput},
	}

	for _, p := range pairs {
		if !errors.Is(p.specific, p.class) {
			t.Errorf("expected %q to wrap %q", p.specific, p.class)
		}
	}
}

func TestIOWrapKeepsCause(t *testing.T) {
	err := fmt.Errorf("%w: %w", ErrIO, fs.ErrNotExist)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("expected cause to remain inspectable")
	}
	if !Classify(err) {
		t.Error("expected error to be classified")
	}
	if Classify(errors.New("plain")) {
		t.Error("expected plain error to be unclassified")
	}
}
