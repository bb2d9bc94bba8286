// lithify compiles JSON Schema sources into typed Go models: constrained
// scalars become validated alias types, structural generation is
// delegated to an external generator, and the generated structs are
// rewritten to reference the aliases.
//
// Run: lithify generate -schemas ./schemas -models-out ./models -package events
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"

	"github.com/daveshilobod/lithify"
	"github.com/daveshilobod/lithify/compiler/gen"
)

const usage = `Usage: lithify <command> [flags]

Commands:
  generate   run the full generation pipeline
  validate   mirror, sanitize and check schema consistency only
  watch      regenerate whenever a schema file changes
  clean      remove generated outputs
  info       print the resolved configuration

Run "lithify <command> -h" for command flags.`

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	// A .env next to the working directory supplies defaults; explicit
	// flags always win.
	_ = godotenv.Load()

	cmd, args := os.Args[1], os.Args[2:]
	var err error
	switch cmd {
	case "generate":
		err = runGenerate(args)
	case "validate":
		err = runValidate(args)
	case "watch":
		err = runWatch(args)
	case "clean":
		err = runClean(args)
	case "info":
		err = runInfo(args)
	case "-h", "--help", "help":
		fmt.Println(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "lithify: unknown command %q\n%s\n", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("lithify: %v", err)
	}
}

// repeatedFlag collects a flag given multiple times.
type repeatedFlag []string

func (f *repeatedFlag) String() string { return strings.Join(*f, ",") }

func (f *repeatedFlag) Set(value string) error {
	*f = append(*f, value)
	return nil
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseConfig(name string, args []string) (*gen.Config, error) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)

	cfg := &gen.Config{}
	var exclude repeatedFlag
	var mutability string
	var resolver string

	fs.StringVar(&cfg.Schemas, "schemas", envDefault("LITHIFY_SCHEMAS", ""), "schema source directory (YAML or JSON)")
	fs.StringVar(&cfg.JSONOut, "json-out", "", "retain the mirrored JSON schemas here")
	fs.StringVar(&cfg.ModelsOut, "models-out", envDefault("LITHIFY_MODELS_OUT", ""), "output directory for the generated package")
	fs.StringVar(&cfg.Package, "package", envDefault("LITHIFY_PACKAGE", ""), "name of the generated package")
	fs.StringVar(&cfg.ImportPath, "import-path", "", "import path of the generated package (default: package name)")
	fs.Var(&exclude, "exclude", "directory name to skip during discovery (repeatable)")
	fs.StringVar(&mutability, "mutability", "mutable", "mutable, frozen or deep-frozen")
	fs.StringVar(&resolver, "resolver", "", "registered custom-scheme resolver keyword")
	fs.StringVar(&cfg.BaseURL, "base-url", "", "rewrite remote $refs under this prefix to local files")
	fs.BoolVar(&cfg.BlockRemoteRefs, "block-remote-refs", false, "treat remaining http(s) $refs as errors")
	fs.StringVar(&cfg.Generator, "generator", "", "external structural generator command")
	fs.BoolVar(&cfg.Check, "check", false, "compare output against existing files, exit 1 on drift")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "print the plan without generating")
	fs.BoolVar(&cfg.Debug, "debug", false, "retain the staging directory")
	fs.IntVar(&cfg.Verbose, "v", 0, "verbosity: 0 quiet, 1 phases, 2 detail, 3 plan dump")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg.Exclude = exclude
	cfg.Mutability = lithify.Mutability(mutability)
	if resolver != "" {
		r, ok := lithify.ResolverByKeyword(resolver)
		if !ok {
			if known := lithify.ResolverKeywords(); len(known) > 0 {
				return nil, fmt.Errorf("unknown resolver %q, registered: %s", resolver, strings.Join(known, ", "))
			}
			return nil, fmt.Errorf("unknown resolver %q, none registered", resolver)
		}
		cfg.Resolver = r
	}
	cfg.Logf = log.Printf
	return cfg, nil
}

func runGenerate(args []string) error {
	cfg, err := parseConfig("generate", args)
	if err != nil {
		return err
	}
	return generateOnce(cfg)
}

func runClean(args []string) error {
	cfg, err := parseConfig("clean", args)
	if err != nil {
		return err
	}
	if cfg.ModelsOut == "" || cfg.Package == "" {
		return fmt.Errorf("clean requires -models-out and -package")
	}
	target := filepath.Join(cfg.ModelsOut, cfg.Package)
	if err := os.RemoveAll(target); err != nil {
		return err
	}
	if cfg.JSONOut != "" {
		if err := os.RemoveAll(cfg.JSONOut); err != nil {
			return err
		}
	}
	log.Printf("removed %s", target)
	return nil
}

func generateOnce(cfg *gen.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := gen.Generate(ctx, cfg)
	if err != nil {
		return err
	}
	log.Println(result.Summary())
	if len(result.Drift) > 0 {
		for _, file := range result.Drift {
			log.Printf("  drifted: %s", file)
		}
		os.Exit(1)
	}
	return nil
}

func runValidate(args []string) error {
	cfg, err := parseConfig("validate", args)
	if err != nil {
		return err
	}
	// Validation needs no output settings.
	if cfg.ModelsOut == "" {
		cfg.ModelsOut = os.TempDir()
	}
	if cfg.Package == "" {
		cfg.Package = "models"
	}
	if err := gen.Validate(cfg); err != nil {
		return err
	}
	log.Printf("schemas under %s are consistent", cfg.Schemas)
	return nil
}

func runInfo(args []string) error {
	cfg, err := parseConfig("info", args)
	if err != nil {
		return err
	}
	fmt.Printf("schemas:      %s\n", cfg.Schemas)
	fmt.Printf("json-out:     %s\n", cfg.JSONOut)
	fmt.Printf("models-out:   %s\n", filepath.Join(cfg.ModelsOut, cfg.Package))
	fmt.Printf("package:      %s\n", cfg.Package)
	fmt.Printf("import-path:  %s\n", cfg.ImportPath)
	fmt.Printf("mutability:   %s\n", cfg.Mutability)
	fmt.Printf("generator:    %s\n", cfg.Generator)
	fmt.Printf("exclude:      %s\n", strings.Join(cfg.Exclude, ", "))
	return nil
}

// runWatch regenerates on every schema change, debouncing bursts of
// filesystem events from editors that write twice.
func runWatch(args []string) error {
	cfg, err := parseConfig("watch", args)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := filepath.WalkDir(cfg.Schemas, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return err
		}
		return watcher.Add(path)
	}); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := gen.Generate(ctx, cfg); err != nil {
		log.Printf("generate: %v", err)
	}
	log.Printf("watching %s", cfg.Schemas)

	var timer *time.Timer
	regen := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isSchemaFile(event.Name) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(250*time.Millisecond, func() {
				select {
				case regen <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch: %v", err)
		case <-regen:
			result, err := gen.Generate(ctx, cfg)
			if err != nil {
				log.Printf("generate: %v", err)
				continue
			}
			log.Println(result.Summary())
		}
	}
}

func isSchemaFile(name string) bool {
	switch filepath.Ext(name) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}
