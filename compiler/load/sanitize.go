package load

import (
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

var invalidIdentChars = regexp.MustCompile(`[^0-9A-Za-z_]`)

// isIdentifier reports whether name is a legal Go identifier and not a
// keyword.
func isIdentifier(name string) bool {
	if name == "" || token.IsKeyword(name) {
		return false
	}
	for i, r := range name {
		if i == 0 && !unicode.IsLetter(r) && r != '_' {
			return false
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}

// SafeStem turns an arbitrary file stem (e.g. "01_user" or "finding.v1.schema")
// into a valid bundle name. Identical input always yields identical output.
func SafeStem(stem string) string {
	name := strings.TrimSuffix(stem, ".schema")

	// Numeric ordering prefixes like 01_user carry no meaning downstream.
	if i := strings.Index(name, "_"); i > 0 && allDigits(name[:i]) {
		name = name[i+1:]
	}

	name = invalidIdentChars.ReplaceAllString(name, "_")
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		name = "_" + name
	}
	if token.IsKeyword(name) {
		name += "_schema"
	}
	for strings.Contains(name, "__") {
		name = strings.ReplaceAll(name, "__", "_")
	}
	return name
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FilenameMap maps original schema file names to sanitized ones,
// deterministically: collisions get numeric suffixes in sorted first-seen
// order.
func FilenameMap(root string) (map[string]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".json" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	taken := make(map[string]bool)
	mapping := make(map[string]string)
	for _, f := range files {
		candidate := SafeStem(stem(f)) + ".json"
		base := strings.TrimSuffix(candidate, ".json")
		for i := 1; taken[candidate]; i++ {
			candidate = fmt.Sprintf("%s_%d.json", base, i)
		}
		taken[candidate] = true
		mapping[filepath.Base(f)] = candidate
	}
	return mapping, nil
}

// SanitizeTree copies the mirrored JSON tree into dst with safe file names
// and every relative $ref rewritten to match. Custom-scheme refs were
// already resolved by the mirror phase and pass through untouched.
func SanitizeTree(jsonRoot, dst string) (map[string]string, error) {
	nameMap, err := FilenameMap(jsonRoot)
	if err != nil {
		return nil, err
	}

	err = filepath.WalkDir(jsonRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		doc, err := ReadSchema(path)
		if err != nil {
			return err
		}
		rewriteRefNames(doc, nameMap)
		sanitizeID(doc, nameMap)

		rel, err := filepath.Rel(jsonRoot, path)
		if err != nil {
			return err
		}
		out := filepath.Join(dst, filepath.Dir(rel), nameMap[filepath.Base(path)])
		return WriteSchema(out, doc)
	})
	if err != nil {
		return nil, err
	}
	return nameMap, nil
}

// rewriteRefNames rewrites relative file $refs to use sanitized names.
func rewriteRefNames(node any, nameMap map[string]string) {
	switch v := node.(type) {
	case map[string]any:
		if ref, ok := v["$ref"].(string); ok && !strings.HasPrefix(ref, "#") {
			if !isCustomScheme(ref) {
				base, frag := SplitFragment(ref)
				base = strings.TrimPrefix(base, "./")
				if mapped, ok := nameMap[base]; ok {
					v["$ref"] = "./" + mapped + frag
				}
			}
		}
		for _, sub := range v {
			rewriteRefNames(sub, nameMap)
		}
	case []any:
		for _, sub := range v {
			rewriteRefNames(sub, nameMap)
		}
	}
}

// sanitizeID renames the $id to match a sanitized file name and strips
// custom-scheme $ids, which would otherwise override the pseudo-scheme
// identities the index mints.
func sanitizeID(doc Schema, nameMap map[string]string) {
	id, ok := doc["$id"].(string)
	if !ok {
		return
	}
	for original, sanitized := range nameMap {
		if strings.HasSuffix(id, original) {
			id = strings.TrimSuffix(id, original) + sanitized
			doc["$id"] = id
			break
		}
	}
	if isCustomScheme(id) {
		delete(doc, "$id")
	}
}

// isCustomScheme reports whether a reference uses a non-file URI scheme
// other than http(s), e.g. urn: or pkg:.
func isCustomScheme(ref string) bool {
	if strings.HasPrefix(ref, "./") || strings.HasPrefix(ref, "../") ||
		strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") ||
		strings.HasPrefix(ref, "#") {
		return false
	}
	return strings.Contains(ref, ":")
}
