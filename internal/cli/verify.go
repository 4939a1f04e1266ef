package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(verifyCmd)
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Drop recorded links that are broken",
	Long: `Check every recorded project link and forget the ones whose link path
holds a wrong or dangling symlink, or a file or directory. Entries whose link
is simply missing are kept. Nothing on disk is changed; run sync instead to
repair links.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		rep, _ := a.linker.Verify(cmd.Context())
		if len(rep.Actions) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "All %d packages verified, no stale links.\n", a.store.Len())
			return nil
		}
		renderReport(cmd.OutOrStdout(), rep)
		return batchError(rep)
	},
}
