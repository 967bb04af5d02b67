package cmd

import (
	"fmt"

	"github.com/PolarWolf314/fmp/internal/password"
	"github.com/PolarWolf314/fmp/internal/securemem"
	"github.com/PolarWolf314/fmp/internal/ui"
	"github.com/spf13/cobra"
)

var entropyCmd = &cobra.Command{
	Use:   "entropy [password]",
	Short: "Estimate the strength of a password",
	Long: `Estimates the entropy of a password as length × log2(pool), where the
pool is the combined size of the character classes the password uses.

Passing the password as an argument leaves it in your shell history.
Without an argument it is read from stdin when piped, or prompted for.

Examples:
  fmp entropy
  echo "correct horse" | fmp entropy`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting entropy command")

		var pw *securemem.Secret
		var err error
		switch {
		case len(args) == 1:
			Logger.Warnf("Passwords given as arguments can end up in shell history")
			pw = securemem.New([]byte(args[0]))
		case !stdinIsTerminal():
			pw, err = readStdinSecret()
		default:
			pw, err = promptSecret("Password: ")
		}
		if err != nil {
			fmt.Println(formatError(err))
			return &reportedError{err: err}
		}
		defer pw.Destroy()

		var bits float64
		_ = pw.Use(func(b []byte) error {
			bits = password.Entropy(b)
			return nil
		})
		rating := password.Rating(bits)
		fmt.Printf("%.2f bits %s\n", bits, ui.ForRating(rating).Sprint(rating))
		return nil
	},
}
