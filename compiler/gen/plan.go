package gen

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-openapi/inflect"

	"github.com/daveshilobod/lithify/compiler/load"
	"github.com/daveshilobod/lithify/compiler/rewrite"
)

// fieldGoName maps a schema property name to the exported struct field
// name the external generator produces for it.
func fieldGoName(property string) string {
	name := nonIdentChars.ReplaceAllString(property, "_")
	name = strings.Trim(name, "_")
	if name == "" {
		return "Field"
	}
	return inflect.Camelize(name)
}

// modelGoName derives the struct type name for a document: the (possibly
// overridden) title, or a camelized stem when the document is untitled.
func (s *Session) modelGoName(docURI string, doc load.Schema) string {
	if title, ok := doc["title"].(string); ok {
		return exportedName(s.idx.Override(title))
	}
	return exportedName(load.SafeStem(stemOf(s.idx.OriginFile(docURI))))
}

func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// TypeRenames maps title-derived struct names to their declared
// overrides. The external generator names structs from titles; the rename
// pass brings the generated declarations in line before plan targets,
// which already use the overridden names, are applied.
func (s *Session) TypeRenames() map[string]string {
	out := make(map[string]string)
	for title, override := range s.idx.Overrides() {
		from := exportedName(title)
		to := exportedName(override)
		if from == "" || to == "" || from == to {
			continue
		}
		out[from] = to
	}
	return out
}

// BuildPlan maps every struct field whose schema resolves to a compiled
// alias onto a rewrite target, covering the bare, pointer, slice-element
// and map-value positions. aliasImportPath is the import path of the
// emitted alias package.
func (s *Session) BuildPlan(aliasImportPath string) (*rewrite.Plan, error) {
	plan := rewrite.NewPlan()

	for _, docURI := range s.idx.DocURIs() {
		doc := s.idx.Doc(docURI)
		props, ok := doc["properties"].(map[string]any)
		if !ok {
			continue
		}
		model := s.modelGoName(docURI, doc)
		if model == "" {
			continue
		}

		var addErr error
		add := func(field string, slot rewrite.Slot, spec *AliasSpec) {
			if addErr != nil {
				return
			}
			addErr = plan.Add(
				rewrite.Target{Type: model, Field: fieldGoName(field), Slot: slot},
				rewrite.AliasRef{ImportPath: aliasImportPath, Name: spec.Name, Primitive: spec.Kind.GoType()},
			)
		}

		for _, property := range sortedKeys(props) {
			prop, ok := props[property].(load.Schema)
			if !ok {
				continue
			}
			if spec, ok := s.InlineAliasFor(model, property); ok {
				add(property, rewrite.SlotSelf, spec)
				continue
			}
			s.planProperty(prop, docURI, property, rewrite.SlotSelf, add)
		}

		for _, field := range NsFields(doc) {
			nsInt, err := s.EnsureNsInt()
			if err != nil {
				return nil, err
			}
			add(field, rewrite.SlotSelf, nsInt)
		}
		if addErr != nil {
			return nil, addErr
		}
	}
	return plan, nil
}

// planProperty chases a property schema into its ref, slice and map
// positions, registering a target for every position that resolves to a
// compiled alias.
func (s *Session) planProperty(prop load.Schema, docURI, property string, slot rewrite.Slot, add func(string, rewrite.Slot, *AliasSpec)) {
	if ref, ok := prop["$ref"].(string); ok {
		target := s.idx.ResolveRef(ref, docURI)
		if spec, ok := s.AliasFor(target); ok {
			add(property, slot, spec)
		}
	}
	if items, ok := prop["items"].(load.Schema); ok {
		s.planProperty(items, docURI, property, rewrite.SlotElem, add)
	}
	if ap, ok := prop["additionalProperties"].(load.Schema); ok {
		s.planProperty(ap, docURI, property, rewrite.SlotValue, add)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
