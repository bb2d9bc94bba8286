package load

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/daveshilobod/lithify"
)

// ValidateOptions configures the consistency check over mirrored schemas.
type ValidateOptions struct {
	// BlockRemoteRefs treats http(s) refs as errors instead of warnings.
	BlockRemoteRefs bool
	// Warnf receives non-fatal findings. Nil discards them.
	Warnf func(format string, args ...any)
}

// ValidateConsistency ensures every file $ref under jsonRoot resolves to an
// existing file inside jsonRoot. Remote refs warn, or fail when
// BlockRemoteRefs is set. The first problem is returned; mirroring has
// already normalized paths so one failure usually means many.
func ValidateConsistency(jsonRoot string, opts ValidateOptions) error {
	warnf := opts.Warnf
	if warnf == nil {
		warnf = func(string, ...any) {}
	}
	root, err := filepath.Abs(jsonRoot)
	if err != nil {
		return err
	}

	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".json" {
			return err
		}
		doc, err := ReadSchema(path)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)

		for _, ref := range Refs(doc) {
			if strings.HasPrefix(ref, "#") {
				continue
			}
			if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
				if opts.BlockRemoteRefs {
					return lithify.NewUnresolvedReferenceError(ref, rel, fmt.Errorf("remote refs are blocked"))
				}
				warnf("[validate] remote ref in %s: %s", rel, ref)
				continue
			}
			if isCustomScheme(ref) {
				return lithify.NewUnresolvedReferenceError(ref, rel, fmt.Errorf("custom scheme without resolver"))
			}

			base, _ := SplitFragment(ref)
			target, err := filepath.Abs(filepath.Join(filepath.Dir(path), base))
			if err != nil {
				return err
			}
			info, err := os.Stat(target)
			if err != nil {
				return lithify.NewUnresolvedReferenceError(ref, rel, err)
			}
			if info.IsDir() {
				return lithify.NewUnresolvedReferenceError(ref, rel, fmt.Errorf("target is a directory"))
			}
			if !strings.HasPrefix(target, root+string(filepath.Separator)) {
				return lithify.NewUnresolvedReferenceError(ref, rel, fmt.Errorf("target %s outside %s", target, root))
			}
		}
		return nil
	})
}
