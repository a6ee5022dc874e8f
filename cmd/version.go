package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luma/obnet/internal/meta"
)

var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Long:  `Print the version, commit, and build context of this binary`,

	Run: func(cmd *cobra.Command, args []string) {
		info := meta.GetInfo()

		fmt.Printf("obnet %s\n", info.Version)
		fmt.Printf("  build:     %s (%s)\n", info.Build, info.Branch)
		fmt.Printf("  built at:  %s\n", info.BuildTime)
		fmt.Printf("  platform:  %s\n", info.Platform)
		fmt.Printf("  go:        %s %s\n", info.GoVersion, info.GoTag)
	},
}
