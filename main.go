package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/PolarWolf314/fmp/cmd"
	kerrors "github.com/PolarWolf314/fmp/internal/errors"
	"github.com/PolarWolf314/fmp/internal/securemem"
	"github.com/PolarWolf314/fmp/internal/ui"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fmp",
	Short: "fmp - a local password manager backed by GnuPG.",
	Long: `fmp keeps accounts (a name, a username and a password) in vaults.

Each vault is a single encrypted file. It is decrypted into a private
working directory only for the duration of one command and re-encrypted
before that directory is overwritten and removed.

Usage:
  fmp <command> [flags]

Run 'fmp help <command>' for more details on a specific command.
`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println()
		figure.NewColorFigure("fmp", "alligator2", "green", true).Print()
		fmt.Println()
		fmt.Println("Welcome to fmp! Run " + ui.Code.Sprint("fmp --help") + " to see available commands.")
	},
}

func main() {
	os.Exit(run())
}

func run() int {
	defer securemem.Purge()

	// An interrupt cancels the running command so its session aborts and
	// the plaintext tree is purged before exit.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Register(rootCmd)
	err := rootCmd.ExecuteContext(ctx)
	if err != nil && !cmd.IsReported(err) {
		fmt.Fprintln(os.Stderr, ui.Error.Sprint("✗")+" "+err.Error())
	}
	return kerrors.ExitCode(err)
}
