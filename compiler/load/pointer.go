package load

import (
	"fmt"
	"strconv"
	"strings"
)

// EscapeToken escapes a JSON Pointer reference token per RFC 6901.
func EscapeToken(token string) string {
	token = strings.ReplaceAll(token, "~", "~0")
	return strings.ReplaceAll(token, "/", "~1")
}

// UnescapeToken reverses EscapeToken. Order matters: ~1 before ~0.
func UnescapeToken(token string) string {
	token = strings.ReplaceAll(token, "~1", "/")
	return strings.ReplaceAll(token, "~0", "~")
}

// ResolvePointer resolves an RFC 6901 JSON Pointer against doc. The leading
// "#" of a fragment pointer is accepted and ignored.
func ResolvePointer(doc any, pointer string) (any, error) {
	if pointer == "" || pointer == "#" {
		return doc, nil
	}
	pointer = strings.TrimPrefix(pointer, "#")
	if !strings.HasPrefix(pointer, "/") {
		return nil, fmt.Errorf("pointer %q must start with /", pointer)
	}

	cur := doc
	for _, raw := range strings.Split(pointer, "/")[1:] {
		token := UnescapeToken(raw)
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[token]
			if !ok {
				return nil, fmt.Errorf("pointer token %q not found", token)
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(token)
			if err != nil {
				return nil, fmt.Errorf("pointer token %q is not an array index", token)
			}
			if idx < 0 || idx >= len(node) {
				return nil, fmt.Errorf("pointer index %d out of range", idx)
			}
			cur = node[idx]
		default:
			return nil, fmt.Errorf("cannot dereference %q in non-container value", token)
		}
	}
	return cur, nil
}

// SplitFragment splits a URI into its document part and "#"-prefixed
// fragment. The fragment is empty when absent.
func SplitFragment(uri string) (doc, fragment string) {
	if i := strings.Index(uri, "#"); i >= 0 {
		return uri[:i], uri[i:]
	}
	return uri, ""
}
