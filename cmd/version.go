package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/snowappify/snowappify/internal/version"
)

var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  "Display the version number of snowappify",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("snowappify v%s@%s %s %s\n", version.Version(), version.GetGitCommit(), version.Platform(), version.GetBuildDate())
	},
}
