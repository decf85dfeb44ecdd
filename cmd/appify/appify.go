// Package appify dumps a live database and generates the application package
// from it in one run.
package appify

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/snowappify/snowappify/cmd/generate"
	"github.com/snowappify/snowappify/cmd/util"
	"github.com/snowappify/snowappify/internal/dumper"
	"github.com/snowappify/snowappify/internal/project"
)

var (
	config     util.ConnectionConfig
	targetPath string
	appName    string
)

var AppifyCmd = &cobra.Command{
	Use:   "appify <database>",
	Short: "Dump a database and generate an application package from it",
	Long: "Extract every supported object from the named database into DDL files, " +
		"download referenced stages, and generate the setup script, package script " +
		"and project definition for a deployable application.",
	Args:    cobra.ExactArgs(1),
	PreRunE: preRunAppify,
	RunE:    runAppify,
}

func init() {
	AppifyCmd.Flags().StringVar(&config.Account, "account", "", "Account identifier (required, can also use SNOWFLAKE_ACCOUNT env var)")
	AppifyCmd.Flags().StringVar(&config.User, "user", "", "User name (required, can also use SNOWFLAKE_USER env var)")
	AppifyCmd.Flags().StringVar(&config.Password, "password", "", "Password (optional, can also use SNOWFLAKE_PASSWORD env var)")
	AppifyCmd.Flags().StringVar(&config.Role, "role", "", "Role to assume (optional, can also use SNOWFLAKE_ROLE env var)")
	AppifyCmd.Flags().StringVar(&config.Warehouse, "warehouse", "", "Warehouse to run extraction queries on (optional, can also use SNOWFLAKE_WAREHOUSE env var)")
	AppifyCmd.Flags().StringVar(&targetPath, "path", "", "Project directory to write into (default: ./<database>)")
	AppifyCmd.Flags().StringVar(&appName, "name", "", "Application name (default: derived from the database name)")
}

func preRunAppify(cmd *cobra.Command, args []string) error {
	return util.PreRunEWithEnvVars(&config)(cmd, args)
}

func runAppify(cmd *cobra.Command, args []string) error {
	database := args[0]
	config.Database = database
	config.ApplicationName = "snowappify"

	dir := targetPath
	if dir == "" {
		dir = project.DefaultName(database)
	}
	if err := os.MkdirAll(filepath.Join(dir, dumper.MetadataDir), 0755); err != nil {
		return fmt.Errorf("failed to create project directory: %w", err)
	}

	conn, err := util.Connect(&config)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx := cmd.Context()
	cat, stageRefs, err := dumper.New(conn, database, dir).Execute(ctx)
	if err != nil {
		return err
	}

	name := appName
	if name == "" {
		name = project.DefaultName(database)
	}
	return generate.Run(ctx, dir, name, cat, stageRefs)
}
