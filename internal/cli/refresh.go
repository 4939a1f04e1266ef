package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var refreshAll bool

func init() {
	refreshCmd.Flags().BoolVarP(&refreshAll, "all", "a", false, "Refresh every registered package")
	rootCmd.AddCommand(refreshCmd)
}

var refreshCmd = &cobra.Command{
	Use:               "refresh [name]",
	Short:             "Update declared versions from package descriptors",
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completePackageNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		if refreshAll == (len(args) == 1) {
			return errors.New("pass a package name or --all")
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if refreshAll {
			rep, _ := a.linker.RefreshAll(cmd.Context())
			renderReport(cmd.OutOrStdout(), rep)
			return batchError(rep)
		}
		rep, err := a.linker.Refresh(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		renderReport(cmd.OutOrStdout(), rep)
		return nil
	},
}
