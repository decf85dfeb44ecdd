// Package generate turns an existing dump into a deployable application
// package: it orders the catalog, rewrites the dumped DDL in place, and
// writes the setup script, package script and project definition.
package generate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/snowappify/snowappify/internal/catalog"
	"github.com/snowappify/snowappify/internal/depgraph"
	"github.com/snowappify/snowappify/internal/dumper"
	"github.com/snowappify/snowappify/internal/identifier"
	"github.com/snowappify/snowappify/internal/logger"
	"github.com/snowappify/snowappify/internal/project"
	"github.com/snowappify/snowappify/internal/rewrite"
	"github.com/snowappify/snowappify/internal/setup"
)

// SetupScriptFile is the generated setup script name.
const SetupScriptFile = "setup_script.sql"

// PackageScriptFile is the generated package script name. It is only written
// when the dump holds cross-database references.
const PackageScriptFile = "package_script.sql"

var (
	targetPath string
	appName    string
)

var GenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Regenerate the application package from an existing dump",
	Long: "Regenerate the build order, rewritten DDL, setup script and project definition " +
		"from a dump produced by a previous appify run. No database connection is made.",
	RunE: runGenerate,
}

func init() {
	GenerateCmd.Flags().StringVar(&targetPath, "path", ".", "Project directory holding the dump")
	GenerateCmd.Flags().StringVar(&appName, "name", "", "Application name (default: derived from the dumped database)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cat, err := catalog.Load(filepath.Join(targetPath, dumper.CatalogFile))
	if err != nil {
		return err
	}
	stageRefs, err := catalog.LoadStageRefs(filepath.Join(targetPath, dumper.StageRefsFile))
	if err != nil {
		return err
	}
	return Run(cmd.Context(), targetPath, appName, cat, stageRefs)
}

// Run executes the generation pipeline over an already-dumped tree. The
// appify command calls this directly after dumping; the generate command
// calls it after loading the persisted catalog and stage references.
func Run(ctx context.Context, targetPath, name string, cat catalog.Catalog, stageRefs []identifier.FullyQualifiedName) error {
	log := logger.Get()

	if name == "" {
		name = deriveName(cat)
	}
	if name == "" {
		return fmt.Errorf("application name is required: catalog is empty and --name was not given")
	}

	result, err := depgraph.Build(cat)
	if err != nil {
		return err
	}
	ordering, err := depgraph.Order(result.Graph)
	if err != nil {
		return err
	}
	if err := depgraph.SaveOrdering(filepath.Join(targetPath, dumper.OrderingFile), ordering); err != nil {
		return err
	}
	log.Debug("computed build order", "objects", len(ordering), "external_refs", len(result.External))

	rewriter := rewrite.New(filepath.Join(targetPath, dumper.MetadataDir), stageRefs)
	if err := rewriter.RewriteAll(ctx, cat, result.External); err != nil {
		return err
	}

	setupStatements := setup.GenerateSetupStatements(cat, ordering, setup.Options{})
	if err := writeScript(filepath.Join(targetPath, SetupScriptFile), setupStatements); err != nil {
		return err
	}

	def := project.New(name)
	if packageStatements := setup.GeneratePackageStatements(result.External, setup.Options{}); len(packageStatements) > 0 {
		if err := writeScript(filepath.Join(targetPath, PackageScriptFile), packageStatements); err != nil {
			return err
		}
		def.AddPackageScript(PackageScriptFile)
	}

	if err := def.Save(filepath.Join(targetPath, project.DefinitionFile)); err != nil {
		return err
	}

	log.Debug("package generation complete", "app", name, "path", targetPath)
	return nil
}

// deriveName picks the app name from the dumped database when the caller did
// not supply one.
func deriveName(cat catalog.Catalog) string {
	for _, name := range cat.SortedNames() {
		return project.DefaultName(cat[name].Database)
	}
	return ""
}

// writeScript joins statements one per line and writes the script file.
func writeScript(path string, statements []string) error {
	content := strings.Join(statements, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write script %s: %w", path, err)
	}
	return nil
}
