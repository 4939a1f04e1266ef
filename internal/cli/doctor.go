package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pkglink-dev/pkglink/internal/config"
	"github.com/pkglink-dev/pkglink/internal/userdata"
)

var doctorFix bool

func init() {
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Create the state directory if it is missing")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Health check for the pkglink installation",
	Long: `Check the state directory, the link store, symlink support, the journal,
the layout settings and every registered package source.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := config.Current()
		in := userdata.DoctorInput{
			Settings:    settings,
			StorePath:   userdata.StorePath(settings.StorePath),
			JournalPath: userdata.JournalPath(),
		}
		if n := userdata.Doctor(cmd.Context(), cmd.OutOrStdout(), in, doctorFix); n > 0 {
			return fmt.Errorf("doctor found %d problem(s)", n)
		}
		return nil
	},
}
