package gen

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"

	"github.com/daveshilobod/lithify"
)

var nonIdentChars = regexp.MustCompile(`[^0-9A-Za-z_]`)

// exportedName turns a declared schema name into an exported Go
// identifier: invalid characters become underscores, then the result is
// camelized. Identical input always yields identical output.
func exportedName(name string) string {
	name = nonIdentChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")
	if name == "" {
		return ""
	}
	// Already exported CamelCase names pass through untouched.
	if !strings.Contains(name, "_") && unicode.IsUpper(rune(name[0])) {
		return name
	}
	return inflect.Camelize(name)
}

// fieldAliasName builds the positional synthetic name for an inline
// alias: parent type plus camelized field name.
func fieldAliasName(parent, field string) string {
	return parent + inflect.Camelize(field)
}

// namer assigns collision-free names within one session. Distinct
// constraint sets that want the same name get numeric suffixes in
// first-seen order.
type namer struct {
	taken map[string]bool
}

func newNamer() *namer {
	return &namer{taken: make(map[string]bool)}
}

// claim reserves a legal exported identifier for the declared name.
func (n *namer) claim(declared, origin string) (string, error) {
	name := exportedName(declared)
	if name == "" || !unicode.IsLetter(rune(name[0])) {
		return "", lithify.NewInvalidIdentifierError(declared, origin)
	}
	candidate := name
	for i := 2; n.taken[candidate]; i++ {
		candidate = fmt.Sprintf("%s%d", name, i)
	}
	n.taken[candidate] = true
	return candidate, nil
}
