package cli

import (
	"github.com/spf13/cobra"
)

var syncForce bool

func init() {
	syncCmd.Flags().BoolVarP(&syncForce, "force", "f", false, "Also replace files or directories occupying a link path")
	rootCmd.AddCommand(syncCmd)
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Recreate every recorded link",
	Long: `Recreate the link of every package in every project it is recorded for.
Missing links are created and symlinks pointing elsewhere are replaced.
Packages whose source is missing or invalid are skipped.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		rep, _ := a.linker.Sync(cmd.Context(), syncForce)
		renderReport(cmd.OutOrStdout(), rep)
		return batchError(rep)
	},
}
