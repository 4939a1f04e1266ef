package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/pkglink-dev/pkglink/internal/config"
	"github.com/pkglink-dev/pkglink/internal/linkstore"
	"github.com/pkglink-dev/pkglink/internal/userdata"
)

// completePackageNames offers configured package names for the first
// argument. Completion runs without the root's pre-run hook, so it loads
// the config itself and stays silent on errors.
func completePackageNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	if err := config.Load(); err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	store, err := linkstore.OpenFile(userdata.StorePath(config.Current().StorePath), nil)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	var names []string
	for _, n := range store.Names() {
		if strings.HasPrefix(n, toComplete) {
			names = append(names, n)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
