package load

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/daveshilobod/lithify"
)

// resolverCacheSize bounds the memoization cache. Schema sets reference at
// most a few hundred distinct custom refs in practice.
const resolverCacheSize = 512

type resolution struct {
	path string
	err  error
}

// memoResolver wraps a lithify.Resolver so each unique reference string is
// resolved at most once per session. The cache belongs to the session, not
// the process: repeated runs start cold, which keeps output deterministic.
type memoResolver struct {
	fn    lithify.Resolver
	cache *lru.Cache[string, resolution]
}

func newMemoResolver(fn lithify.Resolver) *memoResolver {
	cache, err := lru.New[string, resolution](resolverCacheSize)
	if err != nil {
		// lru.New fails only on a non-positive size.
		panic(err)
	}
	return &memoResolver{fn: fn, cache: cache}
}

// Resolve resolves ref to an absolute file path, consulting the memoization
// cache first. Failures are cached too; a reference that failed once fails
// identically for the rest of the session.
func (r *memoResolver) Resolve(ref string) (string, error) {
	if res, ok := r.cache.Get(ref); ok {
		return res.path, res.err
	}
	path, err := r.fn(ref)
	r.cache.Add(ref, resolution{path: path, err: err})
	return path, err
}
