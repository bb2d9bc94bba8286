// Package lithify compiles JSON Schema definitions into typed scalar
// aliases and rewrites generated struct declarations to reference them.
package lithify

import (
	"fmt"
	"sort"
	"sync"
)

// Mutability selects the immutability behavior of generated models.
// It is chosen once per generation run and threaded through code emission.
type Mutability string

const (
	// Mutable generates standard models with no freeze behavior.
	Mutable Mutability = "mutable"
	// Frozen forbids field reassignment after construction but leaves
	// container values untouched.
	Frozen Mutability = "frozen"
	// DeepFrozen recursively converts container values to immutable
	// equivalents at construction time and makes instances hashable.
	DeepFrozen Mutability = "deep-frozen"
)

// Valid reports whether m is a known mutability mode.
func (m Mutability) Valid() bool {
	switch m {
	case Mutable, Frozen, DeepFrozen:
		return true
	}
	return false
}

// Resolver resolves a custom-scheme $ref (urn:, pkg:, repo:, ...) to the
// absolute path of a schema file. A JSON Pointer suffix, if present in the
// original reference, is stripped before the resolver is invoked and
// re-applied afterwards. Implementations must be side-effect-free; the
// loader memoizes results per unique reference string.
type Resolver func(ref string) (string, error)

var (
	resolverMu sync.RWMutex
	resolvers  = make(map[string]Resolver)
)

// RegisterResolver makes a resolver selectable by keyword through the
// command line's -resolver flag. Embedding programs register theirs in
// an init function or before dispatching to the CLI. Registering the
// same keyword twice panics.
func RegisterResolver(keyword string, r Resolver) {
	if keyword == "" || r == nil {
		panic("lithify: RegisterResolver requires a keyword and a resolver")
	}
	resolverMu.Lock()
	defer resolverMu.Unlock()
	if _, dup := resolvers[keyword]; dup {
		panic(fmt.Sprintf("lithify: resolver %q already registered", keyword))
	}
	resolvers[keyword] = r
}

// ResolverByKeyword returns the resolver registered under keyword.
func ResolverByKeyword(keyword string) (Resolver, bool) {
	resolverMu.RLock()
	defer resolverMu.RUnlock()
	r, ok := resolvers[keyword]
	return r, ok
}

// ResolverKeywords returns the registered keywords, sorted.
func ResolverKeywords() []string {
	resolverMu.RLock()
	defer resolverMu.RUnlock()
	out := make([]string, 0, len(resolvers))
	for k := range resolvers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
