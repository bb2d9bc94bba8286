package gen

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/daveshilobod/lithify/compiler/load"
)

// formatPatterns maps well-known format keywords to default validation
// patterns, used when the schema declares a format but no explicit pattern.
var formatPatterns = map[string]string{
	"date-time": `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:\d{2})$`,
	"date":      `^\d{4}-\d{2}-\d{2}$`,
	"email":     `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`,
	"uri":       `^[a-zA-Z][a-zA-Z0-9+.-]*:`,
	"url":       `^[a-zA-Z][a-zA-Z0-9+.-]*:`,
	"uuid":      `^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`,
	"ipv4":      `^(?:\d{1,3}\.){3}\d{1,3}$`,
	"hostname":  `^[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`,
}

// Constraints is the canonical constraint set of a compiled alias.
// Optional numeric members are pointers so "absent" and "zero" stay
// distinct.
type Constraints struct {
	Pattern   string
	MinLength *int
	MaxLength *int

	Minimum          *float64
	Maximum          *float64
	ExclusiveMinimum bool
	ExclusiveMaximum bool
	MultipleOf       *float64

	Enum []string
}

// Empty reports whether no constraint is set.
func (c Constraints) Empty() bool {
	return c.Pattern == "" && c.MinLength == nil && c.MaxLength == nil &&
		c.Minimum == nil && c.Maximum == nil && c.MultipleOf == nil && len(c.Enum) == 0
}

// Key returns a canonical representation used for deduplication: two
// constraint sets with the same key collapse to one alias per bundle.
func (c Constraints) Key() string {
	var b strings.Builder
	fmt.Fprintf(&b, "p=%q", c.Pattern)
	if c.MinLength != nil {
		fmt.Fprintf(&b, ";minlen=%d", *c.MinLength)
	}
	if c.MaxLength != nil {
		fmt.Fprintf(&b, ";maxlen=%d", *c.MaxLength)
	}
	if c.Minimum != nil {
		fmt.Fprintf(&b, ";min=%v,excl=%t", *c.Minimum, c.ExclusiveMinimum)
	}
	if c.Maximum != nil {
		fmt.Fprintf(&b, ";max=%v,excl=%t", *c.Maximum, c.ExclusiveMaximum)
	}
	if c.MultipleOf != nil {
		fmt.Fprintf(&b, ";mult=%v", *c.MultipleOf)
	}
	if len(c.Enum) > 0 {
		fmt.Fprintf(&b, ";enum=%q", strings.Join(c.Enum, "\x00"))
	}
	return b.String()
}

// StringConstraints extracts the canonical string constraint set from a
// scalar-string node, falling back to the format's default pattern when no
// explicit pattern is declared.
func StringConstraints(node load.Schema) Constraints {
	var c Constraints
	if p, ok := node["pattern"].(string); ok {
		c.Pattern = p
	}
	if n, ok := asInt(node["minLength"]); ok {
		c.MinLength = &n
	}
	if n, ok := asInt(node["maxLength"]); ok {
		c.MaxLength = &n
	}
	if c.Pattern == "" {
		if format, ok := node["format"].(string); ok {
			c.Pattern = formatPatterns[format]
		}
	}
	return c
}

// NumberConstraints extracts the canonical numeric constraint set.
// Exclusive variants are recorded as strict bounds.
func NumberConstraints(node load.Schema) Constraints {
	var c Constraints
	if f, ok := asFloat(node["minimum"]); ok {
		c.Minimum = &f
	}
	if f, ok := asFloat(node["maximum"]); ok {
		c.Maximum = &f
	}
	if f, ok := asFloat(node["exclusiveMinimum"]); ok {
		c.Minimum, c.ExclusiveMinimum = &f, true
	}
	if f, ok := asFloat(node["exclusiveMaximum"]); ok {
		c.Maximum, c.ExclusiveMaximum = &f, true
	}
	if f, ok := asFloat(node["multipleOf"]); ok {
		c.MultipleOf = &f
	}
	return c
}

// EnumValues extracts the literal value set of a string enum in
// declaration order.
func EnumValues(node load.Schema) []string {
	raw, ok := node["enum"].([]any)
	if !ok {
		return nil
	}
	values := make([]string, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil
		}
		values = append(values, s)
	}
	return values
}

// UnionPattern combines the branch patterns of a scalar union into one
// anchored alternation in declaration order. A branch without an
// extractable pattern returns "", which sends the union back to
// unclassified.
func UnionPattern(node load.Schema) string {
	branches, ok := node["oneOf"].([]any)
	if !ok {
		return ""
	}
	parts := make([]string, 0, len(branches))
	for _, b := range branches {
		m, ok := b.(load.Schema)
		if !ok {
			return ""
		}
		p, ok := m["pattern"].(string)
		if !ok || p == "" {
			return ""
		}
		parts = append(parts, stripAnchors(p))
	}
	if len(parts) == 0 {
		return ""
	}
	return "^(?:" + strings.Join(parts, "|") + ")$"
}

func stripAnchors(pattern string) string {
	pattern = strings.TrimPrefix(pattern, "^")
	return strings.TrimSuffix(pattern, "$")
}

// Validate checks a candidate string value against the constraint set.
// Used by compiled aliases and by tests exercising pattern round trips.
func (c Constraints) Validate(value string) error {
	if len(c.Enum) > 0 {
		for _, v := range c.Enum {
			if v == value {
				return nil
			}
		}
		return fmt.Errorf("%q is not one of %v", value, c.Enum)
	}
	if c.MinLength != nil && len(value) < *c.MinLength {
		return fmt.Errorf("%q shorter than minLength %d", value, *c.MinLength)
	}
	if c.MaxLength != nil && len(value) > *c.MaxLength {
		return fmt.Errorf("%q longer than maxLength %d", value, *c.MaxLength)
	}
	if c.Pattern != "" {
		re, err := regexp.Compile(c.Pattern)
		if err != nil {
			return fmt.Errorf("invalid pattern %q: %w", c.Pattern, err)
		}
		if !re.MatchString(value) {
			return fmt.Errorf("%q does not match pattern %q", value, c.Pattern)
		}
	}
	return nil
}

// ValidateNumber checks a numeric value against the bounds.
func (c Constraints) ValidateNumber(value float64) error {
	if c.Minimum != nil {
		if c.ExclusiveMinimum && value <= *c.Minimum {
			return fmt.Errorf("%v is not greater than %v", value, *c.Minimum)
		}
		if !c.ExclusiveMinimum && value < *c.Minimum {
			return fmt.Errorf("%v is less than minimum %v", value, *c.Minimum)
		}
	}
	if c.Maximum != nil {
		if c.ExclusiveMaximum && value >= *c.Maximum {
			return fmt.Errorf("%v is not less than %v", value, *c.Maximum)
		}
		if !c.ExclusiveMaximum && value > *c.Maximum {
			return fmt.Errorf("%v exceeds maximum %v", value, *c.Maximum)
		}
	}
	if c.MultipleOf != nil && *c.MultipleOf != 0 {
		q := value / *c.MultipleOf
		if q != float64(int64(q)) {
			return fmt.Errorf("%v is not a multiple of %v", value, *c.MultipleOf)
		}
	}
	return nil
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func sortedStrings(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
