package cli

import (
	"github.com/spf13/cobra"
)

var (
	linkProject string
	linkForce   bool
)

func init() {
	for _, c := range []*cobra.Command{linkCmd, linkAllCmd} {
		c.Flags().StringVarP(&linkProject, "project", "p", "", "Project root (default: the project enclosing the current directory)")
		c.Flags().BoolVarP(&linkForce, "force", "f", false, "Replace whatever occupies the link path")
	}
	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(linkAllCmd)
}

var linkCmd = &cobra.Command{
	Use:   "link <name>",
	Short: "Link a registered package into a project",
	Long: `Create <dependency-dir>/<name> in the project as a symlink to the package
source and record the project. A correct existing link is left alone.

Example:
  pkglink link @acme/ui-kit
  pkglink link utils --project ~/src/storefront --force`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completePackageNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		root, err := a.projectRoot(linkProject)
		if err != nil {
			return err
		}
		rep, err := a.linker.Link(cmd.Context(), args[0], root, linkForce)
		if err != nil {
			return err
		}
		renderReport(cmd.OutOrStdout(), rep)
		return nil
	},
}

var linkAllCmd = &cobra.Command{
	Use:   "link-all",
	Short: "Link every registered package into a project",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		root, err := a.projectRoot(linkProject)
		if err != nil {
			return err
		}
		rep, _ := a.linker.LinkAll(cmd.Context(), root, linkForce)
		renderReport(cmd.OutOrStdout(), rep)
		return batchError(rep)
	},
}
