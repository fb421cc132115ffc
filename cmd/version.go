package cmd

import (
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/certhook/certhook/internal/ui"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			ui.Info("certhook (unknown build)")
			return
		}
		ui.Info("certhook %s (%s)", info.Main.Version, info.GoVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
