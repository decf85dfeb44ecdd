// Package project writes the application project definition file
// (snowflake.yml) that ties the generated artifacts together.
package project

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/snowappify/snowappify/internal/identifier"
)

// DefinitionFile is the project definition file name.
const DefinitionFile = "snowflake.yml"

// Definition is the project definition document.
type Definition struct {
	DefinitionVersion int       `yaml:"definition_version"`
	NativeApp         NativeApp `yaml:"native_app"`
}

// NativeApp describes the application package contents.
type NativeApp struct {
	Name      string     `yaml:"name"`
	Artifacts []Artifact `yaml:"artifacts"`
	Package   *Package   `yaml:"package,omitempty"`
}

// Artifact maps a source path in the project to a destination inside the
// application artifact.
type Artifact struct {
	Src  string `yaml:"src"`
	Dest string `yaml:"dest,omitempty"`
}

// Package holds package-side configuration, such as scripts run against the
// application package.
type Package struct {
	Scripts []string `yaml:"scripts,omitempty"`
}

// New returns a definition for an app with the given name and the standard
// artifact set: the setup script plus the dumped metadata and stages trees.
func New(name string) *Definition {
	return &Definition{
		DefinitionVersion: 1,
		NativeApp: NativeApp{
			Name: name,
			Artifacts: []Artifact{
				{Src: "setup_script.sql", Dest: "./setup_script.sql"},
				{Src: "metadata", Dest: "./metadata"},
				{Src: "stages", Dest: "./stages"},
			},
		},
	}
}

// AddPackageScript registers a script to run against the application package.
func (d *Definition) AddPackageScript(path string) {
	if d.NativeApp.Package == nil {
		d.NativeApp.Package = &Package{}
	}
	d.NativeApp.Package.Scripts = append(d.NativeApp.Package.Scripts, path)
}

// Save writes the definition to path.
func (d *Definition) Save(path string) error {
	data, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to serialize project definition: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write project definition: %w", err)
	}
	return nil
}

// DefaultName derives an app name from a database name. Names are treated
// as unquoted identifiers whenever possible; a database whose name only
// exists quoted keeps its quoted form.
func DefaultName(database string) string {
	value := identifier.Unquote(database)
	if identifier.IsQuoted(database) && identifier.NeedsQuoting(value) {
		return database
	}
	return value
}
