package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var removeUnlink bool

func init() {
	removeCmd.Flags().BoolVar(&removeUnlink, "unlink", false, "Remove the package's links from every linked project first")
	rootCmd.AddCommand(removeCmd)
}

var removeCmd = &cobra.Command{
	Use:               "remove <name>",
	Aliases:           []string{"rm"},
	Short:             "Forget a registered package",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completePackageNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		rep, err := a.linker.Remove(cmd.Context(), args[0], removeUnlink)
		if removeUnlink && len(rep.Actions) > 0 {
			renderReport(cmd.OutOrStdout(), rep)
		}
		if err != nil {
			return err
		}
		if !removeUnlink {
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s.\n", args[0])
		}
		return nil
	},
}
