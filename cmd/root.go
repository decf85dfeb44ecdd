package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/snowappify/snowappify/cmd/appify"
	"github.com/snowappify/snowappify/cmd/generate"
	"github.com/snowappify/snowappify/internal/logger"
	"github.com/snowappify/snowappify/internal/version"
)

var Debug bool

var RootCmd = &cobra.Command{
	Use:   "snowappify",
	Short: "Turn a Snowflake database into a Native App package",
	Long: fmt.Sprintf(`snowappify extracts a Snowflake database's schema objects into DDL files
and generates a deployable Native App package from them.

Version: %s@%s %s %s

Commands:
  appify    Dump a database and generate the application package
  generate  Regenerate the package from an existing dump
  version   Show version information

Use "snowappify [command] --help" for more information about a command.`,
		version.Version(), version.GetGitCommit(), version.Platform(), version.GetBuildDate()),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger()
	},
}

func init() {
	RootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "Enable debug logging")
	RootCmd.AddCommand(appify.AppifyCmd)
	RootCmd.AddCommand(generate.GenerateCmd)
	RootCmd.AddCommand(VersionCmd)
}

func setupLogger() {
	level := slog.LevelInfo
	if Debug {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger.SetGlobal(slog.New(handler), Debug)
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
