// Package load builds a fully resolved schema graph from YAML or JSON
// Schema documents: it mirrors sources to JSON, assigns a canonical
// identity to every reachable node, and resolves $refs, including custom
// URI schemes through a pluggable resolver.
package load

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	json "github.com/goccy/go-json"
)

// Schema is a raw JSON Schema node. Documents are kept in generic form
// because classification and constraint extraction inspect arbitrary
// keywords; typed views are built downstream in compiler/gen.
type Schema = map[string]any

// ReadSchema reads and decodes one JSON schema document.
func ReadSchema(path string) (Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc Schema
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return doc, nil
}

// WriteSchema writes a schema document as deterministic JSON (sorted keys,
// two-space indent). Byte-identical output for identical input is part of
// the pipeline's determinism guarantee.
func WriteSchema(path string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// WalkFunc visits one schema node together with its JSON Pointer.
type WalkFunc func(node Schema, pointer string)

// Walk visits every node of a schema document that can carry schema
// keywords, depth-first, yielding the node and its JSON Pointer.
func Walk(node any, pointer string, fn WalkFunc) {
	m, ok := node.(Schema)
	if !ok {
		return
	}
	fn(m, pointer)

	walkMembers := func(key string) {
		members, ok := m[key].(map[string]any)
		if !ok {
			return
		}
		for _, name := range sortedKeys(members) {
			Walk(members[name], pointer+"/"+key+"/"+EscapeToken(name), fn)
		}
	}
	walkMembers("properties")
	walkMembers("patternProperties")
	walkMembers("dependentSchemas")
	walkMembers("$defs")
	walkMembers("definitions")

	for _, key := range []string{"items", "contains", "additionalProperties", "if", "then", "else", "not"} {
		if sub, ok := m[key]; ok {
			Walk(sub, pointer+"/"+key, fn)
		}
	}
	if prefix, ok := m["prefixItems"].([]any); ok {
		for i, sub := range prefix {
			Walk(sub, fmt.Sprintf("%s/prefixItems/%d", pointer, i), fn)
		}
	}
	for _, key := range []string{"allOf", "anyOf", "oneOf"} {
		branches, ok := m[key].([]any)
		if !ok {
			continue
		}
		for i, sub := range branches {
			Walk(sub, fmt.Sprintf("%s/%s/%d", pointer, key, i), fn)
		}
	}
}

// Refs collects every $ref string reachable from node, in document order.
func Refs(node any) []string {
	var refs []string
	var visit func(any)
	visit = func(n any) {
		switch v := n.(type) {
		case map[string]any:
			if ref, ok := v["$ref"].(string); ok {
				refs = append(refs, ref)
			}
			for _, key := range sortedKeys(v) {
				visit(v[key])
			}
		case []any:
			for _, item := range v {
				visit(item)
			}
		}
	}
	visit(node)
	return refs
}

// NormalizeConst rewrites const keywords into single-value enums in place,
// inferring a type when absent. Downstream phases only deal with enum.
func NormalizeConst(doc any) {
	switch node := doc.(type) {
	case map[string]any:
		if c, ok := node["const"]; ok {
			delete(node, "const")
			if values, ok := node["enum"].([]any); ok {
				if !containsValue(values, c) {
					node["enum"] = append(values, c)
				}
			} else {
				node["enum"] = []any{c}
			}
			if _, ok := node["type"]; !ok {
				if t := inferType(c); t != "" {
					node["type"] = t
				}
			}
		}
		for _, v := range node {
			NormalizeConst(v)
		}
	case []any:
		for _, v := range node {
			NormalizeConst(v)
		}
	}
}

func inferType(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case float64:
		if val == float64(int64(val)) {
			return "integer"
		}
		return "number"
	case json.Number:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return ""
}

func containsValue(values []any, v any) bool {
	for _, existing := range values {
		if existing == v {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
