package gen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/daveshilobod/lithify/compiler/load"
)

// commonBundle holds aliases shared across origins, like NsInt.
const commonBundle = "common"

// Bundle collects the compiled aliases of one schema-origin file. It is
// append-only until finalized and immutable afterwards.
type Bundle struct {
	Name      string
	aliases   []*AliasSpec
	finalized bool
}

// Aliases returns the bundle's aliases, sorted by name once finalized.
func (b *Bundle) Aliases() []*AliasSpec {
	return b.aliases
}

func (b *Bundle) add(spec *AliasSpec) {
	if b.finalized {
		panic(fmt.Sprintf("bundle %s already finalized", b.Name))
	}
	b.aliases = append(b.aliases, spec)
}

func (b *Bundle) finalize() {
	sort.Slice(b.aliases, func(i, j int) bool { return b.aliases[i].Name < b.aliases[j].Name })
	b.finalized = true
}

// Session carries all naming, deduplication and bundling state of one
// generation run. Every run builds a fresh session; nothing persists
// across runs, which is what makes repeated runs byte-identical.
type Session struct {
	idx     *load.Index
	namer   *namer
	bundles map[string]*Bundle
	byKey   map[string]*AliasSpec // bundle + dedup key
	refMap  map[string]*AliasSpec // canonical node URI
	inline  map[string]*AliasSpec // ParentType.property
	nsInt   *AliasSpec
}

func NewSession(idx *load.Index) *Session {
	return &Session{
		idx:     idx,
		namer:   newNamer(),
		bundles: make(map[string]*Bundle),
		byKey:   make(map[string]*AliasSpec),
		refMap:  make(map[string]*AliasSpec),
		inline:  make(map[string]*AliasSpec),
	}
}

// Index returns the schema index the session compiles from.
func (s *Session) Index() *load.Index {
	return s.idx
}

// Bundles returns all non-empty bundles in sorted order, finalizing them.
func (s *Session) Bundles() []*Bundle {
	names := make([]string, 0, len(s.bundles))
	for name := range s.bundles {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*Bundle, 0, len(names))
	for _, name := range names {
		b := s.bundles[name]
		if len(b.aliases) == 0 {
			continue
		}
		if !b.finalized {
			b.finalize()
		}
		out = append(out, b)
	}
	return out
}

// AliasFor returns the compiled alias for a canonical node URI.
func (s *Session) AliasFor(uri string) (*AliasSpec, bool) {
	spec, ok := s.refMap[uri]
	return spec, ok
}

// InlineAliasFor returns the synthetic alias for an inline allOf
// property.
func (s *Session) InlineAliasFor(parent, property string) (*AliasSpec, bool) {
	spec, ok := s.inline[parent+"."+property]
	return spec, ok
}

// NsIntAlias returns the shared nanosecond-timestamp alias, if any field
// triggered its synthesis.
func (s *Session) NsIntAlias() *AliasSpec {
	return s.nsInt
}

func (s *Session) bundle(name string) *Bundle {
	b, ok := s.bundles[name]
	if !ok {
		b = &Bundle{Name: name}
		s.bundles[name] = b
	}
	return b
}

// addAlias registers a compiled spec under the given name and bundle,
// collapsing structural duplicates within the bundle onto one
// declaration.
func (s *Session) addAlias(spec *AliasSpec, declared, bundleName, uri string) (*AliasSpec, error) {
	key := bundleName + "\x00" + spec.DedupKey()
	if existing, ok := s.byKey[key]; ok {
		if uri != "" {
			s.refMap[uri] = existing
		}
		return existing, nil
	}
	name, err := s.namer.claim(declared, uri)
	if err != nil {
		return nil, err
	}
	spec.Name = name
	spec.Bundle = bundleName
	spec.URI = uri
	s.byKey[key] = spec
	s.bundle(bundleName).add(spec)
	if uri != "" {
		s.refMap[uri] = spec
	}
	return spec, nil
}

// CollectAliases classifies every exportable node of every document and
// compiles the aliasable ones into per-origin bundles. Titled $defs that
// nothing references are skipped; the external generator will not emit a
// struct for them either.
func (s *Session) CollectAliases() error {
	allRefs := s.idx.AllRefs()

	for _, docURI := range s.idx.DocURIs() {
		for _, export := range s.idx.Exportables(docURI) {
			node := s.idx.NodeFor(export.ID.URI())
			if node == nil {
				continue
			}
			if strings.HasPrefix(export.ID.Fragment, "#/$defs/") {
				if _, titled := node["title"]; titled && !allRefs[export.ID.URI()] {
					continue
				}
			}

			shape := Classify(node)
			if !shape.Aliasable() {
				continue
			}
			spec, err := compileAlias(node, shape, docURI, export.ID.Fragment)
			if err != nil {
				return err
			}
			if spec == nil {
				continue
			}
			if desc, ok := node["description"].(string); ok {
				spec.Description = desc
			}
			declared := s.idx.Override(export.Name)
			if _, err := s.addAlias(spec, declared, export.Bundle, export.ID.URI()); err != nil {
				return err
			}
		}
	}
	return nil
}

// AddInlineAliases compiles the synthetic ParentType+field aliases
// tracked during the allOf collapse.
func (s *Session) AddInlineAliases(inline []InlineAlias) error {
	for _, info := range inline {
		shape := Classify(info.Schema)
		if !shape.Aliasable() {
			continue
		}
		spec, err := compileAlias(info.Schema, shape, info.OriginFile, info.Pointer)
		if err != nil {
			return err
		}
		if spec == nil {
			continue
		}
		if desc, ok := info.Schema["description"].(string); ok {
			spec.Description = desc
		}
		bundleName := load.SafeStem(stemOf(info.OriginFile))
		added, err := s.addAlias(spec, fieldAliasName(info.Parent, info.Property), bundleName, "")
		if err != nil {
			return err
		}
		s.inline[info.Parent+"."+info.Property] = added
	}
	return nil
}

// EnsureNsInt registers the shared NsInt alias the first time a
// nanosecond-timestamp field is seen.
func (s *Session) EnsureNsInt() (*AliasSpec, error) {
	if s.nsInt != nil {
		return s.nsInt, nil
	}
	spec := &AliasSpec{
		Kind:        KindInteger,
		NsInt:       true,
		Description: "Nanosecond timestamp: int64 in memory, decimal string on the wire.",
	}
	added, err := s.addAlias(spec, "NsInt", commonBundle, "")
	if err != nil {
		return nil, err
	}
	s.nsInt = added
	return added, nil
}
