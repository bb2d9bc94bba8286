package gen

import (
	"fmt"
	"log"
	"path"

	"github.com/daveshilobod/lithify"
)

// Config carries one generation run's settings. A Config is read-only
// once Generate starts; repeated runs with equal configs and inputs
// produce byte-identical output.
type Config struct {
	// Schemas is the root directory of the YAML/JSON schema sources.
	Schemas string
	// JSONOut retains the mirrored JSON schemas when set; a temporary
	// directory is used and discarded otherwise.
	JSONOut string
	// ModelsOut is the directory the generated package is placed under.
	ModelsOut string
	// Package is the name of the generated package.
	Package string
	// ImportPath is the import path of the generated package; the alias
	// subpackage is resolved against it. Defaults to Package.
	ImportPath string
	// Exclude lists directory names skipped during schema discovery.
	Exclude []string
	// Mutability selects the immutability mode threaded through
	// emission.
	Mutability lithify.Mutability
	// BaseURL rewrites remote $refs under this prefix to local files.
	BaseURL string
	// BlockRemoteRefs turns remaining http(s) refs into errors.
	BlockRemoteRefs bool
	// Resolver handles custom-scheme $refs.
	Resolver lithify.Resolver

	// Generator is the external structural generator command. Empty
	// skips the structural phase; alias bundles are still emitted.
	Generator string
	// GeneratorArgs are prepended to the conventional -input/-output/
	// -package flags.
	GeneratorArgs []string

	// Check compares staged output against the existing output instead
	// of promoting it.
	Check bool
	// DryRun prints the plan and exits without generating.
	DryRun bool
	// Clean removes existing outputs before generating.
	Clean bool
	// Debug retains the staging directory after the run.
	Debug bool
	// Verbose is the logging verbosity: 0 quiet, 1 phases, 2 detail,
	// 3 plan dump.
	Verbose int

	// Logf receives log output. Defaults to log.Printf.
	Logf func(format string, args ...any)
}

func (c *Config) validate() error {
	if c.Schemas == "" {
		return fmt.Errorf("gen: missing schemas directory")
	}
	if c.ModelsOut == "" {
		return fmt.Errorf("gen: missing models output directory")
	}
	if c.Package == "" {
		return fmt.Errorf("gen: missing package name")
	}
	if c.Mutability == "" {
		c.Mutability = lithify.Mutable
	}
	if !c.Mutability.Valid() {
		return fmt.Errorf("gen: invalid mutability mode %q", c.Mutability)
	}
	if c.ImportPath == "" {
		c.ImportPath = c.Package
	}
	if c.Logf == nil {
		c.Logf = log.Printf
	}
	return nil
}

// aliasPackage is the subdirectory and package name of emitted alias
// bundles.
const aliasPackage = "aliases"

// AliasImportPath returns the import path of the emitted alias package.
func (c *Config) AliasImportPath() string {
	return path.Join(c.ImportPath, aliasPackage)
}

func (c *Config) logf(level int, format string, args ...any) {
	if c.Verbose >= level {
		c.Logf(format, args...)
	}
}
