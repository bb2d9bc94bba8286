package gen

import (
	"strings"

	"github.com/daveshilobod/lithify/compiler/load"
)

// nsPattern is the exact all-digits pattern that, combined with the _ns
// name suffix, marks a nanosecond-timestamp field.
const nsPattern = "^[0-9]+$"

// nsSuffix is the field naming convention for nanosecond timestamps.
const nsSuffix = "_ns"

// NsFields returns the property names of a document that follow the
// nanosecond-timestamp convention, in sorted order.
func NsFields(doc load.Schema) []string {
	props, ok := doc["properties"].(map[string]any)
	if !ok {
		return nil
	}
	set := make(map[string]bool)
	for name, raw := range props {
		if !strings.HasSuffix(name, nsSuffix) {
			continue
		}
		prop, ok := raw.(load.Schema)
		if !ok {
			continue
		}
		if prop["type"] == "string" && prop["pattern"] == nsPattern {
			set[name] = true
		}
	}
	if len(set) == 0 {
		return nil
	}
	return sortedStrings(set)
}
