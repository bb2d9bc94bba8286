package gen

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/daveshilobod/lithify"
)

// rootPkg is the import path of the runtime support package.
const rootPkg = "github.com/daveshilobod/lithify"

// DynamicModel describes one object schema that carries
// patternProperties: its declared properties plus open-ended fields
// whose names match the schema's patterns.
type DynamicModel struct {
	// Name is the struct type name, overrides applied.
	Name string
	// Declared are the schema property names, sorted.
	Declared []string
	// Patterns are the patternProperties keys, sorted.
	Patterns []string
}

// FieldPattern combines the model's patternProperties keys into one
// anchored alternation for the runtime field store.
func (m DynamicModel) FieldPattern() string {
	if len(m.Patterns) == 1 {
		return m.Patterns[0]
	}
	parts := make([]string, len(m.Patterns))
	for i, p := range m.Patterns {
		parts[i] = "(?:" + stripAnchors(p) + ")"
	}
	return "^(?:" + strings.Join(parts, "|") + ")$"
}

// DynamicModels returns every object document declaring
// patternProperties, sorted by model name. Patterns must compile; a bad
// one fails the run here rather than in generated code.
func (s *Session) DynamicModels() ([]DynamicModel, error) {
	var out []DynamicModel
	for _, docURI := range s.idx.DocURIs() {
		doc := s.idx.Doc(docURI)
		pp, ok := doc["patternProperties"].(map[string]any)
		if !ok || len(pp) == 0 {
			continue
		}
		name := s.modelGoName(docURI, doc)
		if name == "" {
			continue
		}
		patterns := sortedKeys(pp)
		for _, p := range patterns {
			if _, err := regexp.Compile(p); err != nil {
				return nil, fmt.Errorf("gen: %s: patternProperties key %q: %w", name, p, err)
			}
		}
		m := DynamicModel{Name: name, Patterns: patterns}
		if props, ok := doc["properties"].(map[string]any); ok {
			m.Declared = sortedKeys(props)
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

var mutabilityConsts = map[lithify.Mutability]string{
	lithify.Mutable:    "Mutable",
	lithify.Frozen:     "Frozen",
	lithify.DeepFrozen: "DeepFrozen",
}

// EmitDynamicSupport writes the per-model field store constructors for
// every schema with patternProperties into dynamic.go under dir. It
// returns the written path, or "" when no model needs one.
func EmitDynamicSupport(s *Session, dir, pkg string, mode lithify.Mutability) (string, error) {
	models, err := s.DynamicModels()
	if err != nil {
		return "", err
	}
	if len(models) == 0 {
		return "", nil
	}

	f := jen.NewFile(pkg)
	f.HeaderComment(headerComment)
	for _, m := range models {
		varName := lowerFirst(m.Name) + "DynamicFields"
		f.Var().Id(varName).Op("=").Qual("regexp", "MustCompile").Call(jen.Lit(m.FieldPattern()))

		args := []jen.Code{jen.Lit(m.Name), jen.Qual(rootPkg, mutabilityConsts[mode])}
		for _, field := range m.Declared {
			args = append(args, jen.Lit(field))
		}
		f.Commentf("New%sRecord returns the field store backing %s: its declared", m.Name, m.Name)
		f.Comment("properties plus any field matching the schema's patternProperties.")
		f.Func().Id("New" + m.Name + "Record").Params().Op("*").Qual(frozenPkg, "Record").Block(
			jen.Return(
				jen.Qual(frozenPkg, "NewRecord").Call(args...).
					Dot("WithDynamicFields").Call(jen.Id(varName)),
			),
		)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, "dynamic.go")
	return path, f.Save(path)
}
