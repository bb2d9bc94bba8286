package gen

import (
	"fmt"
	"regexp"

	"github.com/daveshilobod/lithify"
	"github.com/daveshilobod/lithify/compiler/load"
)

// Kind is the base primitive of a compiled alias.
type Kind int

const (
	KindString Kind = iota
	KindInteger
	KindNumber
	KindBoolean
)

var kindGoTypes = [...]string{
	KindString:  "string",
	KindInteger: "int64",
	KindNumber:  "float64",
	KindBoolean: "bool",
}

// GoType returns the Go primitive the alias is defined over.
func (k Kind) GoType() string {
	return kindGoTypes[k]
}

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindNumber:
		return "number"
	default:
		return "boolean"
	}
}

func kindOf(typ string) (Kind, bool) {
	switch typ {
	case "string":
		return KindString, true
	case "integer":
		return KindInteger, true
	case "number":
		return KindNumber, true
	case "boolean":
		return KindBoolean, true
	}
	return 0, false
}

// AliasSpec is one compiled scalar alias: a named Go defined type with an
// attached constraint set. Specs with identical (Kind, constraint key)
// within a bundle collapse to a single declaration.
type AliasSpec struct {
	Name        string
	Kind        Kind
	Constraints Constraints
	// AndPatterns holds additional patterns that must all match, used
	// when a refinement merge could not be specialized to one pattern.
	AndPatterns []string
	Bundle      string
	// URI is the canonical schema node the alias was compiled from.
	URI         string
	Description string
	// NsInt marks the shared nanosecond-timestamp alias: string on the
	// wire, int64 in memory.
	NsInt bool
}

// DedupKey identifies structurally identical aliases within a bundle.
func (a *AliasSpec) DedupKey() string {
	return fmt.Sprintf("%d|%s|%q", a.Kind, a.Constraints.Key(), a.AndPatterns)
}

// Validate checks a candidate value against the alias's constraints,
// mirroring the Validate method the emitted Go type carries.
func (a *AliasSpec) Validate(value any) error {
	switch a.Kind {
	case KindString:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("%s: expected string, got %T", a.Name, value)
		}
		if err := a.Constraints.Validate(s); err != nil {
			return fmt.Errorf("%s: %w", a.Name, err)
		}
		for _, p := range a.AndPatterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return fmt.Errorf("%s: invalid pattern %q: %w", a.Name, p, err)
			}
			if !re.MatchString(s) {
				return fmt.Errorf("%s: %q does not match pattern %q", a.Name, s, p)
			}
		}
		return nil
	case KindInteger, KindNumber:
		f, ok := asFloat(value)
		if !ok {
			return fmt.Errorf("%s: expected number, got %T", a.Name, value)
		}
		if err := a.Constraints.ValidateNumber(f); err != nil {
			return fmt.Errorf("%s: %w", a.Name, err)
		}
		return nil
	}
	return nil
}

// compileAlias turns a classified node into an unnamed alias spec.
// Callers assign the name and bundle through the session.
func compileAlias(node load.Schema, shape Shape, docURI, pointer string) (*AliasSpec, error) {
	switch shape {
	case ShapeScalarString:
		spec := &AliasSpec{Kind: KindString, Constraints: StringConstraints(node)}
		if extra, ok := node["x-and-patterns"].([]any); ok {
			for _, p := range extra[1:] {
				if s, ok := p.(string); ok {
					spec.AndPatterns = append(spec.AndPatterns, s)
				}
			}
		}
		return spec, nil
	case ShapeScalarNumber:
		kind := KindNumber
		if node["type"] == "integer" {
			kind = KindInteger
		}
		return &AliasSpec{Kind: kind, Constraints: NumberConstraints(node)}, nil
	case ShapeEnum:
		return &AliasSpec{Kind: KindString, Constraints: Constraints{Enum: EnumValues(node)}}, nil
	case ShapeScalarUnion:
		pattern := UnionPattern(node)
		if pattern == "" {
			return nil, nil
		}
		return &AliasSpec{Kind: KindString, Constraints: Constraints{Pattern: pattern}}, nil
	}
	return nil, lithify.NewUnsupportedShapeError(docURI, pointer, fmt.Sprintf("shape %s does not compile to an alias", shape))
}
