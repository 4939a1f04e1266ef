package cli

import (
	"github.com/spf13/cobra"
)

var (
	unlinkProject string
	unlinkForce   bool
)

func init() {
	for _, c := range []*cobra.Command{unlinkCmd, unlinkAllCmd} {
		c.Flags().StringVarP(&unlinkProject, "project", "p", "", "Project root (default: the project enclosing the current directory)")
		c.Flags().BoolVarP(&unlinkForce, "force", "f", false, "Remove the link path even if it is not our symlink")
	}
	rootCmd.AddCommand(unlinkCmd)
	rootCmd.AddCommand(unlinkAllCmd)
}

var unlinkCmd = &cobra.Command{
	Use:               "unlink <name>",
	Short:             "Remove a package link from a project",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completePackageNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		root, err := a.projectRoot(unlinkProject)
		if err != nil {
			return err
		}
		rep, err := a.linker.Unlink(cmd.Context(), args[0], root, unlinkForce)
		if err != nil {
			return err
		}
		renderReport(cmd.OutOrStdout(), rep)
		return nil
	},
}

var unlinkAllCmd = &cobra.Command{
	Use:   "unlink-all",
	Short: "Remove every package link from a project",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		root, err := a.projectRoot(unlinkProject)
		if err != nil {
			return err
		}
		rep, _ := a.linker.UnlinkAll(cmd.Context(), root, unlinkForce)
		renderReport(cmd.OutOrStdout(), rep)
		return batchError(rep)
	},
}
