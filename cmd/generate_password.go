package cmd

import (
	"fmt"
	"os"

	"github.com/PolarWolf314/fmp/internal/password"
	"github.com/PolarWolf314/fmp/internal/ui"
	"github.com/spf13/cobra"
)

var (
	generateLength  int
	generateQuiet   bool
	generateClasses classFlags
)

func init() {
	generatePasswordCmd.Flags().IntVarP(&generateLength, "length", "l", password.DefaultLength, "number of characters")
	generatePasswordCmd.Flags().BoolVarP(&generateQuiet, "quiet", "q", false, "print only the password")
	generateClasses.register(generatePasswordCmd)
}

func resetGeneratePasswordCommandState() {
	generateLength = password.DefaultLength
	generateQuiet = false
	generateClasses = classFlags{}
}

var generatePasswordCmd = &cobra.Command{
	Use:   "generate-password",
	Short: "Generate a random password",
	Long: `Prints a random password drawn uniformly from the selected character
classes, followed by its entropy estimate on stderr.

Examples:
  fmp generate-password
  fmp generate-password -l 32 --no-symbols
  fmp generate-password -q | xclip`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting generate-password command")
		Logger.Debugf("Length %d, classes %q", generateLength, generateClasses.classes().Alphabet())

		pw, err := password.Generate(generateLength, generateClasses.classes())
		if err != nil {
			fmt.Println(formatError(err))
			return &reportedError{err: err}
		}
		defer pw.Destroy()

		if err := printSecret(pw); err != nil {
			return err
		}
		if generateQuiet {
			return nil
		}

		var bits float64
		_ = pw.Use(func(b []byte) error {
			bits = password.Entropy(b)
			return nil
		})
		rating := password.Rating(bits)
		fmt.Fprintln(os.Stderr, ui.Muted.Sprintf("%.2f bits, %s", bits, ui.ForRating(rating).Sprint(rating)))
		return nil
	},
}
