// Package cmd contains testing utilities shared between command tests.
// This file provides common functions for setting up test environments,
// capturing output, and running the CLI against a throwaway data directory.
package cmd

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/PolarWolf314/fmp/internal/configs"
	"github.com/PolarWolf314/fmp/internal/securemem"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"golang.org/x/crypto/openpgp"        //nolint:staticcheck
	"golang.org/x/crypto/openpgp/armor"  //nolint:staticcheck
	"golang.org/x/crypto/openpgp/packet" //nolint:staticcheck
)

const testRecipient = "alice@example.com"

var (
	testEntityOnce sync.Once
	testEntity     *openpgp.Entity
	testEntityErr  error
)

// testEnvironment is a config file and data directory for one test.
type testEnvironment struct {
	ConfigPath string
	DataDir    string
	WorkDir    string
}

// setupTestEnvironment writes an OpenPGP keyring and a config file pointing
// at temporary directories, and restores global state afterwards.
func setupTestEnvironment(t *testing.T) *testEnvironment {
	t.Helper()
	ResetGlobalState()
	color.NoColor = true

	dir := t.TempDir()
	env := &testEnvironment{
		ConfigPath: filepath.Join(dir, "config.toml"),
		DataDir:    filepath.Join(dir, "data"),
		WorkDir:    filepath.Join(dir, "work"),
	}

	cfg := &configs.Config{
		Backend:     configs.BackendOpenPGP,
		KeyringFile: writeTestKeyring(t, dir),
		DataDir:     env.DataDir,
		WorkDir:     env.WorkDir,
	}
	if err := cfg.Save(env.ConfigPath); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	// The test key has no passphrase; setting one skips the prompt.
	t.Setenv("FMP_PASSPHRASE", "unused")
	t.Setenv("FMP_CONFIG", env.ConfigPath)

	origTerminal, origStdin := stdinIsTerminal, readStdinSecret
	origConfirm, origLine := promptSecretConfirm, readLine
	t.Cleanup(func() {
		stdinIsTerminal, readStdinSecret = origTerminal, origStdin
		promptSecretConfirm, readLine = origConfirm, origLine
		ResetGlobalState()
	})
	stdinIsTerminal = func() bool { return false }
	readStdinSecret = func() (*securemem.Secret, error) {
		return nil, fmt.Errorf("no data provided on stdin")
	}
	return env
}

// pipePassword makes the next stdin read return pw.
func pipePassword(pw string) {
	readStdinSecret = func() (*securemem.Secret, error) {
		return securemem.New([]byte(pw)), nil
	}
}

func writeTestKeyring(t *testing.T, dir string) string {
	t.Helper()
	testEntityOnce.Do(func() {
		testEntity, testEntityErr = openpgp.NewEntity("Alice", "test", testRecipient, &packet.Config{RSABits: 1024})
	})
	if testEntityErr != nil {
		t.Fatalf("Failed to generate key: %v", testEntityErr)
	}

	var buf bytes.Buffer
	w, err := armor.Encode(&buf, openpgp.PrivateKeyType, nil)
	if err != nil {
		t.Fatalf("armor.Encode failed: %v", err)
	}
	if err := testEntity.SerializePrivate(w, nil); err != nil {
		t.Fatalf("SerializePrivate failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close armor writer: %v", err)
	}

	path := filepath.Join(dir, "keyring.asc")
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		t.Fatalf("Failed to write keyring: %v", err)
	}
	return path
}

// captureOutput captures both stdout and stderr during function execution.
func captureOutput(fn func() error) (string, error) {
	// Save original stdout and stderr
	originalStdout := os.Stdout
	originalStderr := os.Stderr

	// Create pipes to capture output
	stdoutReader, stdoutWriter, _ := os.Pipe()
	stderrReader, stderrWriter, _ := os.Pipe()

	// Replace stdout and stderr
	os.Stdout = stdoutWriter
	os.Stderr = stderrWriter

	// Channel to collect output
	outputChan := make(chan string, 2)

	// Start goroutines to read from pipes
	go func() {
		var buf bytes.Buffer
		_, err := io.Copy(&buf, stdoutReader)
		if err != nil {
			log.Fatalf("Failed to run copy command: %s", err)
		}
		outputChan <- buf.String()
	}()

	go func() {
		var buf bytes.Buffer
		_, err := io.Copy(&buf, stderrReader)
		if err != nil {
			log.Fatalf("Failed to run copy command: %s", err)
		}
		outputChan <- buf.String()
	}()

	// Execute the function
	err := fn()

	// Close writers to signal EOF
	stdoutWriter.Close()
	stderrWriter.Close()

	// Restore original stdout and stderr
	os.Stdout = originalStdout
	os.Stderr = originalStderr

	// Collect output
	stdout := <-outputChan
	stderr := <-outputChan

	return stdout + stderr, err
}

// createTestCLI creates a complete CLI instance for testing with the given arguments.
func createTestCLI(args ...string) *cobra.Command {
	ResetGlobalState()

	// Create a fresh root command for this test
	rootCmd := &cobra.Command{
		Use:   "fmp",
		Short: "fmp - a local password manager backed by GnuPG.",
	}
	Register(rootCmd)
	rootCmd.SetArgs(args)
	return rootCmd
}

// runCLI executes the CLI with args and returns its combined output.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return captureOutput(func() error {
		return createTestCLI(args...).Execute()
	})
}

// mustRunCLI is runCLI that fails the test on error.
func mustRunCLI(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCLI(t, args...)
	if err != nil {
		t.Fatalf("fmp %v failed: %v\n%s", args, err, out)
	}
	return out
}
