package gen

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/dave/jennifer/jen"
	"github.com/davecgh/go-spew/spew"
	json "github.com/goccy/go-json"
	"golang.org/x/tools/imports"

	"github.com/daveshilobod/lithify"
	"github.com/daveshilobod/lithify/compiler/load"
	"github.com/daveshilobod/lithify/compiler/rewrite"
)

// frozenPkg is the import path of the runtime package deep-frozen models
// depend on.
const frozenPkg = "github.com/daveshilobod/lithify/frozen"

// manifestName is the per-run manifest written next to the generated
// files.
const manifestName = "manifest.json"

// Result reports one generation run.
type Result struct {
	PackageDir string
	Mutability lithify.Mutability
	// Files are the generated file paths relative to PackageDir.
	Files []string
	// Drift lists files that differ from existing output in check mode.
	Drift []string
}

// Summary returns a one-line description of the run.
func (r *Result) Summary() string {
	if len(r.Drift) > 0 {
		return fmt.Sprintf("check failed: %d file(s) drifted in %s", len(r.Drift), r.PackageDir)
	}
	return fmt.Sprintf("generated %s models in %s", r.Mutability, r.PackageDir)
}

// Generate runs the full pipeline: mirror, sanitize, validate, index,
// collapse, alias compilation, emission, structural generation, rewrite
// and promotion. Output is staged in a temporary directory and promoted
// only on full success, so a failing phase leaves existing output
// untouched.
func Generate(ctx context.Context, cfg *Config) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	finalDir := filepath.Join(cfg.ModelsOut, cfg.Package)

	if cfg.DryRun {
		cfg.logf(0, "[plan] schemas=%s", cfg.Schemas)
		cfg.logf(0, "[plan] models_out=%s", finalDir)
		cfg.logf(0, "[plan] package=%s import_path=%s", cfg.Package, cfg.ImportPath)
		cfg.logf(0, "[plan] mutability=%s check=%t", cfg.Mutability, cfg.Check)
		return &Result{PackageDir: finalDir, Mutability: cfg.Mutability}, nil
	}

	if cfg.Clean {
		if cfg.JSONOut != "" {
			if err := os.RemoveAll(cfg.JSONOut); err != nil {
				return nil, err
			}
		}
		if err := os.RemoveAll(finalDir); err != nil {
			return nil, err
		}
	}

	stage, err := os.MkdirTemp("", "lithify_stage_")
	if err != nil {
		return nil, err
	}
	if cfg.Debug {
		cfg.logf(0, "[debug] staging dir retained: %s", stage)
	} else {
		defer os.RemoveAll(stage)
	}

	jsonDir := cfg.JSONOut
	if jsonDir == "" {
		jsonDir = filepath.Join(stage, "json")
	}

	cfg.logf(1, "[mirror] %s -> %s", cfg.Schemas, jsonDir)
	written, err := load.Mirror(cfg.Schemas, jsonDir, load.MirrorOptions{
		BaseURL:  cfg.BaseURL,
		Exclude:  cfg.Exclude,
		Resolver: cfg.Resolver,
	})
	if err != nil {
		return nil, err
	}
	if len(written) == 0 {
		return nil, fmt.Errorf("gen: no schema files found under %s", cfg.Schemas)
	}

	safeDir := filepath.Join(stage, "safe")
	if _, err := load.SanitizeTree(jsonDir, safeDir); err != nil {
		return nil, err
	}
	if err := load.ValidateConsistency(safeDir, load.ValidateOptions{
		BlockRemoteRefs: cfg.BlockRemoteRefs,
		Warnf:           func(format string, args ...any) { cfg.logf(1, format, args...) },
	}); err != nil {
		return nil, err
	}

	idx, err := load.LoadIndex(collectJSON(safeDir), cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	if _, err := load.BuildGraph(idx); err != nil {
		return nil, err
	}

	cfg.logf(1, "[allof] collapsing scalar refinements")
	inline, idx, err := CollapseAllOf(safeDir, idx, cfg.BaseURL, func(format string, args ...any) {
		cfg.logf(2, format, args...)
	})
	if err != nil {
		return nil, err
	}

	sess := NewSession(idx)
	if err := sess.CollectAliases(); err != nil {
		return nil, err
	}
	if err := sess.AddInlineAliases(inline); err != nil {
		return nil, err
	}

	stagedPkg := filepath.Join(stage, "models", cfg.Package)
	cfg.logf(1, "[emit] alias bundles")
	if _, err := EmitBundles(sess, filepath.Join(stagedPkg, aliasPackage), aliasPackage); err != nil {
		return nil, err
	}
	if err := emitMutabilitySupport(stagedPkg, cfg.Package, cfg.Mutability); err != nil {
		return nil, err
	}
	if path, err := EmitDynamicSupport(sess, stagedPkg, cfg.Package, cfg.Mutability); err != nil {
		return nil, err
	} else if path != "" {
		cfg.logf(1, "[emit] dynamic field stores: %s", filepath.Base(path))
	}

	if cfg.Generator != "" {
		cfg.logf(1, "[generator] running %s", cfg.Generator)
		if err := runExternal(ctx, cfg, safeDir, stagedPkg); err != nil {
			return nil, err
		}
	}

	// The external generator names structs from titles; declared name
	// overrides are applied here so the field rewrite below addresses
	// the final type names.
	if renames := sess.TypeRenames(); len(renames) > 0 {
		renamed, err := rewrite.RenameDir(stagedPkg, renames)
		if err != nil {
			return nil, err
		}
		cfg.logf(1, "[rename] %d file(s) renamed against %d override(s)", renamed, len(renames))
	}

	plan, err := sess.BuildPlan(cfg.AliasImportPath())
	if err != nil {
		return nil, err
	}
	if cfg.Verbose >= 3 {
		cfg.Logf("[plan] %s", spew.Sdump(plan.Targets()))
	}
	if plan.Len() > 0 {
		modified, err := rewrite.Dir(stagedPkg, plan)
		if err != nil {
			return nil, err
		}
		cfg.logf(1, "[rewrite] %d file(s) rewritten against %d target(s)", modified, plan.Len())
	}

	if err := formatTree(stagedPkg); err != nil {
		return nil, err
	}

	files, err := relativeFiles(stagedPkg)
	if err != nil {
		return nil, err
	}
	if err := writeManifest(stagedPkg, cfg, files); err != nil {
		return nil, err
	}
	files = append(files, manifestName)
	sort.Strings(files)

	result := &Result{PackageDir: finalDir, Mutability: cfg.Mutability, Files: files}

	if cfg.Check {
		result.Drift = diffTrees(stagedPkg, finalDir, files)
		return result, nil
	}
	if err := promote(stagedPkg, finalDir, files); err != nil {
		return nil, err
	}
	return result, nil
}

// Validate runs the loader phases only: mirror, sanitize, reference
// consistency, graph and allOf collapse. No code is emitted.
func Validate(cfg *Config) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	stage, err := os.MkdirTemp("", "lithify_validate_")
	if err != nil {
		return err
	}
	defer os.RemoveAll(stage)

	jsonDir := filepath.Join(stage, "json")
	written, err := load.Mirror(cfg.Schemas, jsonDir, load.MirrorOptions{
		BaseURL:  cfg.BaseURL,
		Exclude:  cfg.Exclude,
		Resolver: cfg.Resolver,
	})
	if err != nil {
		return err
	}
	if len(written) == 0 {
		return fmt.Errorf("gen: no schema files found under %s", cfg.Schemas)
	}
	safeDir := filepath.Join(stage, "safe")
	if _, err := load.SanitizeTree(jsonDir, safeDir); err != nil {
		return err
	}
	if err := load.ValidateConsistency(safeDir, load.ValidateOptions{
		BlockRemoteRefs: cfg.BlockRemoteRefs,
		Warnf:           func(format string, args ...any) { cfg.logf(0, format, args...) },
	}); err != nil {
		return err
	}
	idx, err := load.LoadIndex(collectJSON(safeDir), cfg.BaseURL)
	if err != nil {
		return err
	}
	if _, err := load.BuildGraph(idx); err != nil {
		return err
	}
	_, _, err = CollapseAllOf(safeDir, idx, cfg.BaseURL, func(format string, args ...any) {
		cfg.logf(1, format, args...)
	})
	return err
}

// collectJSON returns every .json file under dir, sorted.
func collectJSON(dir string) []string {
	var files []string
	filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() && filepath.Ext(path) == ".json" {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files
}

// emitMutabilitySupport writes the construction-completion hook for the
// selected mode. Deep-frozen packages get a Seal function backed by the
// frozen runtime; the other modes need no support code.
func emitMutabilitySupport(dir, pkg string, mode lithify.Mutability) error {
	if mode != lithify.DeepFrozen {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f := jen.NewFile(pkg)
	f.HeaderComment(headerComment)
	f.Comment("Seal converts every mutable container reachable from v into its")
	f.Comment("immutable equivalent. Call it once construction completes.")
	f.Func().Id("Seal").Params(jen.Id("v").Any()).Any().Block(
		jen.Return(jen.Qual(frozenPkg, "Freeze").Call(jen.Id("v"))),
	)
	return f.Save(filepath.Join(dir, "seal.go"))
}

// formatTree runs an import-aware format pass over every generated file
// so rewritten and emitted code share one canonical format.
func formatTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".go" {
			return err
		}
		src, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		out, err := imports.Process(path, src, nil)
		if err != nil {
			return fmt.Errorf("format %s: %w", filepath.Base(path), err)
		}
		if bytes.Equal(src, out) {
			return nil
		}
		return os.WriteFile(path, out, 0o644)
	})
}

func relativeFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	sort.Strings(files)
	return files, err
}

// manifest records what one run produced. No timestamps: manifests from
// identical inputs must be byte-identical.
type manifest struct {
	Package    string   `json:"package"`
	Mutability string   `json:"mutability"`
	Files      []string `json:"files"`
}

func writeManifest(dir string, cfg *Config, files []string) error {
	data, err := json.MarshalIndent(manifest{
		Package:    cfg.Package,
		Mutability: string(cfg.Mutability),
		Files:      files,
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, manifestName), append(data, '\n'), 0o644)
}

// diffTrees compares staged files against the promoted output and
// returns the relative paths that differ or are missing.
func diffTrees(staged, final string, files []string) []string {
	var drift []string
	for _, rel := range files {
		stagedData, err := os.ReadFile(filepath.Join(staged, filepath.FromSlash(rel)))
		if err != nil {
			drift = append(drift, rel)
			continue
		}
		finalData, err := os.ReadFile(filepath.Join(final, filepath.FromSlash(rel)))
		if err != nil || !bytes.Equal(stagedData, finalData) {
			drift = append(drift, rel)
		}
	}
	return drift
}

// promote copies the staged tree to its final location. Nothing is
// written under ModelsOut before this point.
func promote(staged, final string, files []string) error {
	for _, rel := range files {
		data, err := os.ReadFile(filepath.Join(staged, filepath.FromSlash(rel)))
		if err != nil {
			return err
		}
		dst := filepath.Join(final, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return err
		}
	}
	return nil
}
