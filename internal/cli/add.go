package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(addCmd)
}

var addCmd = &cobra.Command{
	Use:   "add [name] <path>",
	Short: "Register a local package source",
	Long: `Register the package built at <path> so it can be linked into projects.
When <name> is omitted it is read from the package descriptor. The declared
version is captured from the descriptor when one is present.

Example:
  pkglink add ../ui-kit/dist
  pkglink add @acme/utils ~/src/utils`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, path := "", args[0]
		if len(args) == 2 {
			name, path = args[0], args[1]
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		rep, err := a.linker.Add(cmd.Context(), name, path)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, h := range rep.Health {
			fmt.Fprintf(out, "Added %s -> %s (%s)\n", h.Name, h.SourcePath, orDash(h.DeclaredVersion))
			if !h.Verdict.OK() {
				fmt.Fprintf(out, "  [WARN] source is %s: %s\n", styleVerdict(h.Verdict), h.Detail)
			}
		}
		return nil
	},
}
