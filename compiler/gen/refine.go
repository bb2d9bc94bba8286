package gen

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/daveshilobod/lithify"
	"github.com/daveshilobod/lithify/compiler/load"
)

// maxCollapseIterations bounds the fixpoint loop. Refinement chains
// through $defs rarely nest more than two or three levels deep.
const maxCollapseIterations = 10

// InlineAlias records an untitled allOf found inside a properties path.
// It receives a synthetic ParentType_field alias name after the collapse.
type InlineAlias struct {
	Property   string
	Parent     string
	Schema     load.Schema
	Pointer    string
	OriginFile string
}

// resolveBranches resolves $refs inside allOf branches to their target
// nodes. A branch seen twice means the chain loops back on itself.
func resolveBranches(branches []any, idx *load.Index, pointer, docURI string) ([]load.Schema, error) {
	seen := make(map[string]bool)
	resolved := make([]load.Schema, 0, len(branches))
	for i, b := range branches {
		m, ok := b.(load.Schema)
		if !ok {
			return nil, lithify.NewUnsupportedShapeError(docURI, pointer, fmt.Sprintf("allOf[%d] is not a schema", i))
		}
		ref, ok := m["$ref"].(string)
		if !ok {
			resolved = append(resolved, m)
			continue
		}
		target := idx.ResolveRef(ref, docURI)
		node := idx.NodeFor(target)
		if node == nil {
			return nil, lithify.NewUnresolvedReferenceError(ref, pointer, nil)
		}
		if seen[target] {
			return nil, lithify.NewUnsupportedShapeError(docURI, pointer, "reference cycle in allOf")
		}
		seen[target] = true
		resolved = append(resolved, node)
	}
	return resolved, nil
}

// scalarType returns the single scalar type shared by all branches.
func scalarType(branches []load.Schema, docURI, pointer string) (string, error) {
	scalar := map[string]bool{"string": true, "number": true, "integer": true, "boolean": true}
	seen := make(map[string]bool)
	for i, b := range branches {
		t, ok := b["type"].(string)
		if !ok {
			continue
		}
		if !scalar[t] {
			return "", lithify.NewUnsupportedShapeError(docURI, pointer,
				fmt.Sprintf("allOf[%d] has non-scalar type %q", i, t))
		}
		seen[t] = true
	}
	if len(seen) == 0 {
		return "", lithify.NewUnsupportedShapeError(docURI, pointer, "allOf carries no type information")
	}
	if len(seen) > 1 {
		return "", lithify.NewIncompatibleRefinementError(docURI, pointer,
			fmt.Sprintf("allOf mixes scalar types %v", sortedStrings(seen)))
	}
	for t := range seen {
		return t, nil
	}
	return "", nil
}

// uuidVersionSet extracts the version-nibble character set from the third
// group of a UUID pattern. Nil means the pattern is not a recognizable
// UUID or carries no version constraint.
func uuidVersionSet(pattern string) map[byte]bool {
	clean := stripAnchors(pattern)

	var hyphens []int
	bracket, brace := 0, 0
	for i := 0; i < len(clean); i++ {
		switch clean[i] {
		case '[':
			bracket++
		case ']':
			bracket--
		case '{':
			brace++
		case '}':
			brace--
		case '-':
			if bracket == 0 && brace == 0 {
				hyphens = append(hyphens, i)
			}
		}
	}
	if len(hyphens) != 4 {
		return nil
	}
	third := clean[hyphens[1]+1 : hyphens[2]]

	if strings.HasPrefix(third, "[") {
		end := strings.IndexByte(third, ']')
		if end < 0 {
			return nil
		}
		class := third[1:end]

		// [1-5] style digit range.
		if len(class) == 3 && class[1] == '-' && isDigit(class[0]) && isDigit(class[2]) {
			set := make(map[byte]bool)
			for c := class[0]; c <= class[2]; c++ {
				set[c] = true
			}
			return set
		}
		// [47] style digit list.
		if allDigitBytes(class) {
			set := make(map[byte]bool)
			for i := 0; i < len(class); i++ {
				set[class[i]] = true
			}
			return set
		}
		// Full hex class means no version constraint.
		return nil
	}
	if len(third) > 0 && isDigit(third[0]) {
		return map[byte]bool{third[0]: true}
	}
	return nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func allDigitBytes(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

// specializeUUIDPattern detects a UUID version refinement across exactly
// two patterns and returns the more specific one. An empty version
// intersection is unsatisfiable.
func specializeUUIDPattern(patterns []string, docURI, pointer string) (string, error) {
	if len(patterns) != 2 {
		return "", nil
	}
	v1 := uuidVersionSet(patterns[0])
	v2 := uuidVersionSet(patterns[1])
	if v1 == nil || v2 == nil {
		return "", nil
	}

	intersects := false
	for c := range v2 {
		if v1[c] {
			intersects = true
			break
		}
	}
	if !intersects {
		return "", lithify.NewIncompatibleRefinementError(docURI, pointer, fmt.Sprintf(
			"UUID version conflict: base allows %v, refinement requires %v",
			versionList(v1), versionList(v2)))
	}

	switch {
	case subset(v2, v1) && !subset(v1, v2):
		return patterns[1], nil
	case subset(v1, v2) && !subset(v2, v1):
		return patterns[0], nil
	default:
		return patterns[0], nil
	}
}

func subset(a, b map[byte]bool) bool {
	for c := range a {
		if !b[c] {
			return false
		}
	}
	return true
}

func versionList(set map[byte]bool) []string {
	list := make(map[string]bool, len(set))
	for c := range set {
		list[string(c)] = true
	}
	return sortedStrings(list)
}

// mergeBranches collapses resolved allOf branches into one constrained
// scalar schema: the most specific pattern wins, length and numeric
// bounds intersect, enum sets intersect.
func mergeBranches(branches []load.Schema, typ, docURI, pointer string) (load.Schema, error) {
	merged := load.Schema{"type": typ}

	var patterns []string
	for _, b := range branches {
		if p, ok := b["pattern"].(string); ok {
			patterns = append(patterns, p)
		}
	}
	switch len(patterns) {
	case 0:
	case 1:
		merged["pattern"] = patterns[0]
	default:
		specialized, err := specializeUUIDPattern(patterns, docURI, pointer)
		if err != nil {
			return nil, err
		}
		if specialized != "" {
			merged["pattern"] = specialized
		} else {
			// No specialization applies; all patterns must hold.
			merged["pattern"] = patterns[0]
			merged["x-and-patterns"] = toAnySlice(patterns)
		}
	}

	if v, ok := maxOf(branches, "minLength"); ok {
		merged["minLength"] = v
	}
	if v, ok := minOf(branches, "maxLength"); ok {
		merged["maxLength"] = v
	}
	if v, ok := maxOf(branches, "minimum"); ok {
		merged["minimum"] = v
	}
	if v, ok := minOf(branches, "maximum"); ok {
		merged["maximum"] = v
	}
	if v, ok := maxOf(branches, "exclusiveMinimum"); ok {
		merged["exclusiveMinimum"] = v
	}
	if v, ok := minOf(branches, "exclusiveMaximum"); ok {
		merged["exclusiveMaximum"] = v
	}

	enum, err := intersectEnums(branches, docURI, pointer)
	if err != nil {
		return nil, err
	}
	if enum != nil {
		merged["enum"] = enum
	}

	for _, b := range branches {
		if f, ok := b["format"].(string); ok {
			merged["format"] = f
			break
		}
	}
	for _, b := range branches {
		if d, ok := b["description"].(string); ok {
			merged["description"] = d
			break
		}
	}
	if err := checkSatisfiable(merged, docURI, pointer); err != nil {
		return nil, err
	}
	return merged, nil
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func maxOf(branches []load.Schema, key string) (float64, bool) {
	var best float64
	found := false
	for _, b := range branches {
		if f, ok := asFloat(b[key]); ok {
			if !found || f > best {
				best = f
			}
			found = true
		}
	}
	return best, found
}

func minOf(branches []load.Schema, key string) (float64, bool) {
	var best float64
	found := false
	for _, b := range branches {
		if f, ok := asFloat(b[key]); ok {
			if !found || f < best {
				best = f
			}
			found = true
		}
	}
	return best, found
}

func intersectEnums(branches []load.Schema, docURI, pointer string) ([]any, error) {
	var sets []map[string]bool
	for _, b := range branches {
		values := EnumValues(b)
		if values == nil {
			if _, ok := b["enum"]; ok {
				return nil, lithify.NewUnsupportedShapeError(docURI, pointer, "non-string enum in allOf")
			}
			continue
		}
		set := make(map[string]bool, len(values))
		for _, v := range values {
			set[v] = true
		}
		sets = append(sets, set)
	}
	if len(sets) == 0 {
		return nil, nil
	}
	intersection := sets[0]
	for _, set := range sets[1:] {
		next := make(map[string]bool)
		for v := range intersection {
			if set[v] {
				next[v] = true
			}
		}
		intersection = next
	}
	if len(intersection) == 0 {
		return nil, lithify.NewIncompatibleRefinementError(docURI, pointer, "allOf enum intersection is empty")
	}
	return toAnySlice(sortedStrings(intersection)), nil
}

// checkSatisfiable rejects merged constraint sets no value can satisfy.
func checkSatisfiable(merged load.Schema, docURI, pointer string) error {
	if lo, ok := asFloat(merged["minLength"]); ok {
		if hi, ok := asFloat(merged["maxLength"]); ok && lo > hi {
			return lithify.NewIncompatibleRefinementError(docURI, pointer,
				fmt.Sprintf("minLength %v > maxLength %v", lo, hi))
		}
	}
	if lo, ok := asFloat(merged["minimum"]); ok {
		if hi, ok := asFloat(merged["maximum"]); ok && lo > hi {
			return lithify.NewIncompatibleRefinementError(docURI, pointer,
				fmt.Sprintf("minimum %v > maximum %v", lo, hi))
		}
	}
	if lo, ok := asFloat(merged["exclusiveMinimum"]); ok {
		if hi, ok := asFloat(merged["exclusiveMaximum"]); ok && lo >= hi {
			return lithify.NewIncompatibleRefinementError(docURI, pointer,
				fmt.Sprintf("exclusiveMinimum %v >= exclusiveMaximum %v", lo, hi))
		}
	}
	return nil
}

// CollapseAllOf rewrites every scalar allOf refinement under jsonDir into
// its merged form, iterating to a fixpoint so refinements reaching through
// $defs chains collapse too. Untitled allOfs inside properties are tracked
// as inline aliases. The index is rebuilt after each modifying pass and
// the final one is returned.
func CollapseAllOf(jsonDir string, idx *load.Index, baseURL string, logf func(format string, args ...any)) ([]InlineAlias, *load.Index, error) {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	var inline []InlineAlias

	for iteration := 0; iteration < maxCollapseIterations; iteration++ {
		collapsed := 0

		files, err := filepath.Glob(filepath.Join(jsonDir, "*.json"))
		if err != nil {
			return nil, nil, err
		}
		for _, file := range files {
			doc, err := load.ReadSchema(file)
			if err != nil {
				return nil, nil, err
			}
			docURI := idx.DocURIForPath(file)
			if docURI == "" {
				logf("[allof] %s not in index, skipping", filepath.Base(file))
				continue
			}
			parent := ""
			if title, ok := doc["title"].(string); ok {
				parent = idx.Override(title)
			}

			modified := false
			var walkErr error
			load.Walk(doc, "", func(node load.Schema, pointer string) {
				if walkErr != nil || !isRefinement(node) {
					return
				}
				branches, err := resolveBranches(node["allOf"].([]any), idx, pointer, docURI)
				if err != nil {
					walkErr = err
					return
				}
				typ, err := scalarType(branches, docURI, pointer)
				if err != nil {
					walkErr = err
					return
				}
				merged, err := mergeBranches(branches, typ, docURI, pointer)
				if err != nil {
					walkErr = err
					return
				}

				if _, titled := node["title"]; !titled && parent != "" && strings.Contains(pointer, "/properties/") {
					if prop := propertyName(pointer); prop != "" {
						inline = append(inline, InlineAlias{
							Property:   prop,
							Parent:     parent,
							Schema:     copySchema(merged),
							Pointer:    "#" + pointer,
							OriginFile: file,
						})
					}
				}

				for key := range node {
					delete(node, key)
				}
				for key, v := range merged {
					node[key] = v
				}
				modified = true
				collapsed++
				logf("[allof] collapsed %s:%s", filepath.Base(file), pointer)
			})
			if walkErr != nil {
				return nil, nil, walkErr
			}
			if modified {
				if err := load.WriteSchema(file, doc); err != nil {
					return nil, nil, err
				}
			}
		}

		if collapsed == 0 {
			logf("[allof] fixpoint after %d iteration(s)", iteration+1)
			break
		}

		files, err = filepath.Glob(filepath.Join(jsonDir, "*.json"))
		if err != nil {
			return nil, nil, err
		}
		idx, err = load.LoadIndex(files, baseURL)
		if err != nil {
			return nil, nil, err
		}
	}
	return inline, idx, nil
}

// propertyName returns the token after the last /properties/ segment.
func propertyName(pointer string) string {
	parts := strings.Split(pointer, "/")
	last := -1
	for i, p := range parts {
		if p == "properties" {
			last = i
		}
	}
	if last >= 0 && last+1 < len(parts) {
		return load.UnescapeToken(parts[last+1])
	}
	return ""
}

func copySchema(s load.Schema) load.Schema {
	out := make(load.Schema, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
