package load

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/daveshilobod/lithify"
)

// MirrorOptions configures the schema mirroring phase.
type MirrorOptions struct {
	// BaseURL, when set, rewrites remote $refs under this prefix to
	// relative file refs.
	BaseURL string
	// Exclude lists directory names skipped during discovery.
	Exclude []string
	// Resolver handles custom-scheme $refs. Nil leaves them untouched,
	// which the consistency check will then reject.
	Resolver lithify.Resolver
}

// Mirror copies every YAML and JSON schema under schemaRoot into jsonRoot
// as normalized JSON: remote refs rewritten against BaseURL, custom-scheme
// refs resolved to relative paths, const rewritten to enum. Returns the
// written file paths in sorted order.
func Mirror(schemaRoot, jsonRoot string, opts MirrorOptions) ([]string, error) {
	schemaMap, err := buildSchemaMap(schemaRoot)
	if err != nil {
		return nil, err
	}

	var memo *memoResolver
	if opts.Resolver != nil {
		memo = newMemoResolver(opts.Resolver)
	}

	var written []string
	err = filepath.WalkDir(schemaRoot, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if excluded(d.Name(), opts.Exclude) {
				return filepath.SkipDir
			}
			return nil
		}

		var doc any
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			if err := yaml.Unmarshal(data, &doc); err != nil {
				return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
			}
			doc = normalizeYAML(doc)
		case ".json":
			m, err := ReadSchema(path)
			if err != nil {
				return err
			}
			doc = m
		default:
			return nil
		}

		rel, err := filepath.Rel(schemaRoot, path)
		if err != nil {
			return err
		}
		dst := filepath.Join(jsonRoot, strings.TrimSuffix(rel, filepath.Ext(rel))+".json")

		doc = rewriteRemoteRefs(doc, schemaMap, opts.BaseURL)
		if memo != nil {
			doc, err = rewriteCustomRefs(doc, jsonRoot, dst, memo)
			if err != nil {
				return err
			}
		}
		NormalizeConst(doc)

		if err := WriteSchema(dst, doc); err != nil {
			return err
		}
		written = append(written, dst)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return written, nil
}

func excluded(name string, patterns []string) bool {
	for _, p := range patterns {
		if name == p {
			return true
		}
	}
	return false
}

// buildSchemaMap maps the schema file names that appear in refs to their
// mirrored JSON names, covering the ".schema.json" and numbered-prefix
// conventions.
func buildSchemaMap(schemaRoot string) (map[string]string, error) {
	schemaMap := make(map[string]string)
	err := filepath.WalkDir(schemaRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".yaml" && ext != ".yml" && ext != ".json" {
			return nil
		}
		name := stem(path)
		target := name + ".json"
		unprefixed := name
		if i := strings.Index(name, "_"); i > 0 && allDigits(name[:i]) {
			unprefixed = name[i+1:]
		}
		schemaMap[unprefixed+".schema.json"] = target
		schemaMap[unprefixed+".json"] = target
		return nil
	})
	if err != nil {
		return nil, err
	}
	return schemaMap, nil
}

// rewriteRemoteRefs converts remote refs under baseURL, and bare
// ".schema.json" file refs, to local relative refs.
func rewriteRemoteRefs(node any, schemaMap map[string]string, baseURL string) any {
	switch v := node.(type) {
	case map[string]any:
		for key, sub := range v {
			if key == "$ref" {
				if ref, ok := sub.(string); ok {
					v[key] = rewriteSingleRef(ref, schemaMap, baseURL)
					continue
				}
			}
			v[key] = rewriteRemoteRefs(sub, schemaMap, baseURL)
		}
		return v
	case []any:
		for i, sub := range v {
			v[i] = rewriteRemoteRefs(sub, schemaMap, baseURL)
		}
		return v
	}
	return node
}

func rewriteSingleRef(ref string, schemaMap map[string]string, baseURL string) string {
	localize := func(s string) string {
		base, frag := SplitFragment(s)
		key := strings.TrimPrefix(base, "./")
		mapped, ok := schemaMap[key]
		if !ok {
			mapped = strings.Replace(key, ".schema.json", ".json", 1)
		}
		return "./" + mapped + frag
	}

	if baseURL != "" && strings.HasPrefix(ref, baseURL) {
		return localize(strings.TrimPrefix(ref, baseURL))
	}
	if strings.HasPrefix(ref, "./") || strings.Contains(ref, ".schema.json") {
		return localize(ref)
	}
	return ref
}

// rewriteCustomRefs resolves custom-scheme $refs through the memoized
// resolver and rewrites them to paths relative to the referencing file.
// Resolved files outside jsonRoot are copied in, and the copies are
// processed recursively because they may carry custom refs of their own.
func rewriteCustomRefs(node any, jsonRoot, currentFile string, memo *memoResolver) (any, error) {
	switch v := node.(type) {
	case map[string]any:
		for key, sub := range v {
			if key == "$ref" {
				ref, ok := sub.(string)
				if ok && isCustomScheme(ref) {
					rewritten, err := resolveCustomRef(ref, jsonRoot, currentFile, memo)
					if err != nil {
						return nil, err
					}
					v[key] = rewritten
					continue
				}
			}
			replaced, err := rewriteCustomRefs(sub, jsonRoot, currentFile, memo)
			if err != nil {
				return nil, err
			}
			v[key] = replaced
		}
		return v, nil
	case []any:
		for i, sub := range v {
			replaced, err := rewriteCustomRefs(sub, jsonRoot, currentFile, memo)
			if err != nil {
				return nil, err
			}
			v[i] = replaced
		}
		return v, nil
	}
	return node, nil
}

func resolveCustomRef(ref, jsonRoot, currentFile string, memo *memoResolver) (string, error) {
	refBase, pointer := SplitFragment(ref)

	resolved, err := memo.Resolve(refBase)
	if err != nil {
		return "", lithify.NewUnresolvedReferenceError(ref, currentFile, err)
	}
	if _, err := os.Stat(resolved); err != nil {
		return "", lithify.NewUnresolvedReferenceError(ref, currentFile, err)
	}

	target := resolved
	if rel, err := filepath.Rel(jsonRoot, resolved); err != nil || strings.HasPrefix(rel, "..") {
		// Out-of-tree target: copy it under jsonRoot and chase its own
		// custom refs.
		target = filepath.Join(jsonRoot, filepath.Base(resolved))
		if _, err := os.Stat(target); os.IsNotExist(err) {
			doc, err := ReadSchema(resolved)
			if err != nil {
				return "", err
			}
			rewritten, err := rewriteCustomRefs(doc, jsonRoot, target, memo)
			if err != nil {
				return "", err
			}
			if err := WriteSchema(target, rewritten); err != nil {
				return "", err
			}
		}
	}

	rel, err := filepath.Rel(filepath.Dir(currentFile), target)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if !strings.HasPrefix(rel, ".") {
		rel = "./" + rel
	}
	return rel + pointer, nil
}

// normalizeYAML converts yaml.v3 decoding artifacts (map[any]any keys) to
// the JSON-shaped form the rest of the pipeline expects.
func normalizeYAML(node any) any {
	switch v := node.(type) {
	case map[string]any:
		for key, sub := range v {
			v[key] = normalizeYAML(sub)
		}
		return v
	case map[any]any:
		m := make(map[string]any, len(v))
		for key, sub := range v {
			m[fmt.Sprint(key)] = normalizeYAML(sub)
		}
		return m
	case []any:
		for i, sub := range v {
			v[i] = normalizeYAML(sub)
		}
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return node
}
