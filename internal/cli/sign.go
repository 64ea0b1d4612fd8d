package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/piratenetwork/zsign/internal/pkg/signing"
	"github.com/piratenetwork/zsign/internal/pkg/zsign"
)

func newSignCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "sign [command...]",
		Short: "Sign one z_sign_offline command",
		Long: `Sign one z_sign_offline command read from the arguments, from --file or
from stdin. The shell strips the quotes the command relies on, so pass it as a
single quoted argument or feed it through stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readCommand(cmd, args, file)
			if err != nil {
				return err
			}

			outcome := a.signer.Sign(cmd.Context(), raw)
			printOutcome(cmd.OutOrStdout(), outcome)

			if outcome.Changed && outcome.Kind != zsign.KindNone {
				return ErrSignFailed
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "read the command from a file")

	return cmd
}

func readCommand(cmd *cobra.Command, args []string, file string) (string, error) {
	switch {
	case len(args) != 0 && file != "":
		return "", fmt.Errorf("pass the command either as arguments or with --file")
	case len(args) != 0:
		return strings.Join(args, " "), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("could not read command: %w", err)
		}
		return string(data), nil
	default:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("could not read command: %w", err)
		}
		return string(data), nil
	}
}

func printOutcome(w io.Writer, outcome signing.Outcome) {
	if !outcome.Changed {
		return
	}

	fmt.Fprintln(w, outcome.Display.Heading)
	fmt.Fprintln(w, strings.TrimRight(outcome.Display.Text, "\n"))
	if outcome.ID != "" {
		fmt.Fprintf(w, "Hand-off id: %s\n", outcome.ID)
	}
}

func newUsageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Print the z_sign_offline argument reference",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), zsign.Usage())
		},
	}
}
