package frozen

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

// canonString renders a frozen value in a canonical form: structurally
// equal values always render identically, so canonical equality implies
// Equal and hash equality.
func canonString(v any) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case string:
		return strconv.Quote(x)
	case bool:
		return strconv.FormatBool(x)
	case *List:
		parts := make([]string, len(x.items))
		for i, item := range x.items {
			parts[i] = canonString(item)
		}
		return "(" + strings.Join(parts, ",") + ")"
	case *Set:
		return "{" + strings.Join(x.keys, ",") + "}"
	case *Map:
		parts := make([]string, 0, len(x.keys))
		for _, k := range x.keys {
			parts = append(parts, k+":"+canonString(x.byKey[k].value))
		}
		return "map[" + strings.Join(parts, ",") + "]"
	case *Record:
		parts := make([]string, 0, len(x.fields))
		for _, name := range x.Fields() {
			parts = append(parts, name+"="+canonString(x.fields[name]))
		}
		return "record[" + strings.Join(parts, ",") + "]"
	}
	return fmt.Sprintf("%T(%v)", v, v)
}

// hashValue hashes a frozen value over its canonical form.
func hashValue(v any) uint64 {
	h := fnv.New64a()
	h.Write([]byte(canonString(v)))
	return h.Sum64()
}
