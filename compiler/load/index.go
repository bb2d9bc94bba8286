package load

import (
	"net/url"
	"path/filepath"
	"sort"
	"strings"

	"github.com/daveshilobod/lithify"
)

// OverrideKeyword is the vendor keyword that overrides the generated name
// of a titled schema node.
const OverrideKeyword = "x-go-name"

// pseudoScheme is minted for documents that declare no $id and run without
// a configured base URL. It keeps URI resolution semantics uniform.
const pseudoScheme = "lithify:///"

// NodeID identifies a schema node: the canonical document URI plus an
// optional "#"-prefixed fragment. Two references to the same location
// always produce the same NodeID regardless of the path they took.
type NodeID struct {
	DocURI   string
	Fragment string // "" or "#/..." or "#anchor"
}

// URI returns the full canonical URI of the node.
func (id NodeID) URI() string {
	return id.DocURI + id.Fragment
}

// Export is one exportable symbol of a document: a titled root or a named
// $defs/definitions entry.
type Export struct {
	ID     NodeID
	Name   string
	Bundle string // origin bundle name (sanitized file stem)
}

// Index maps document URIs to schemas, anchors and pointers to nodes, and
// tracks which file each document came from. It is built once per
// generation session and read-only afterwards.
type Index struct {
	docs     map[string]Schema
	anchors  map[string]Schema  // uri#anchor -> node
	pointers map[string]Schema  // uri#/pointer -> node
	origins  map[string]string  // doc URI -> source file path
	override map[string]string  // title -> x-go-name
	baseURL  string
}

// LoadIndex indexes every JSON schema document in paths. Document URIs come
// from $id when declared, from baseURL when configured, and from the
// lithify:/// pseudo-scheme otherwise. Two documents claiming the same URI
// fail with an AmbiguousIdentityError.
func LoadIndex(paths []string, baseURL string) (*Index, error) {
	idx := &Index{
		docs:     make(map[string]Schema),
		anchors:  make(map[string]Schema),
		pointers: make(map[string]Schema),
		origins:  make(map[string]string),
		override: make(map[string]string),
		baseURL:  baseURL,
	}

	sort.Strings(paths)
	for _, path := range paths {
		if filepath.Ext(path) != ".json" {
			continue
		}
		doc, err := ReadSchema(path)
		if err != nil {
			return nil, err
		}

		docURI := pseudoScheme + stem(path) + ".json"
		if id, ok := doc["$id"].(string); ok && id != "" {
			docURI = id
		} else if baseURL != "" {
			docURI = joinURL(baseURL, filepath.Base(path))
		}

		if first, ok := idx.origins[docURI]; ok {
			return nil, lithify.NewAmbiguousIdentityError(docURI, first, path)
		}
		idx.docs[docURI] = doc
		idx.origins[docURI] = path
		if err := idx.indexTree(doc, docURI, ""); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

// indexTree registers pointers, anchors and name overrides for every node
// under doc.
func (idx *Index) indexTree(doc Schema, docURI, pointer string) error {
	var walkErr error
	Walk(doc, pointer, func(m Schema, p string) {
		if walkErr != nil {
			return
		}
		if title, ok := m["title"].(string); ok {
			if override, ok := m[OverrideKeyword].(string); ok && override != "" {
				if !isIdentifier(override) {
					walkErr = lithify.NewInvalidIdentifierError(override, docURI+"#"+p)
					return
				}
				idx.override[title] = override
			}
		}
		if p != "" {
			idx.pointers[docURI+"#"+p] = m
		}
		if anchor, ok := m["$anchor"].(string); ok {
			idx.anchors[docURI+"#"+anchor] = m
		}
	})
	return walkErr
}

// ResolveRef resolves a $ref against the URI of the document it appears in,
// returning the absolute URI of the target.
func (idx *Index) ResolveRef(ref, contextDocURI string) string {
	// url.Parse mishandles the triple-slash pseudo-scheme, so it is
	// resolved by hand.
	if strings.HasPrefix(contextDocURI, pseudoScheme) {
		switch {
		case strings.HasPrefix(ref, "#"):
			base, _ := SplitFragment(contextDocURI)
			return base + ref
		case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"), strings.HasPrefix(ref, pseudoScheme):
			return ref
		default:
			rel := strings.TrimPrefix(strings.TrimPrefix(ref, "./"), "/")
			return pseudoScheme + rel
		}
	}
	return joinURL(contextDocURI, ref)
}

// NodeFor returns the node for a canonical URI, or nil when the URI does
// not resolve. Anchors take precedence over JSON Pointers for fragment
// resolution, per the JSON Schema spec.
func (idx *Index) NodeFor(uri string) Schema {
	docURI, fragment := SplitFragment(uri)

	doc, ok := idx.docs[docURI]
	if !ok {
		return nil
	}
	if fragment == "" || fragment == "#" {
		return doc
	}

	if node, ok := idx.anchors[docURI+fragment]; ok {
		return node
	}
	if strings.HasPrefix(fragment, "#/") {
		if node, ok := idx.pointers[docURI+fragment]; ok {
			return node
		}
		resolved, err := ResolvePointer(doc, fragment)
		if err != nil {
			return nil
		}
		if m, ok := resolved.(Schema); ok {
			return m
		}
	}
	return nil
}

// DocURIs returns all indexed document URIs in sorted order.
func (idx *Index) DocURIs() []string {
	uris := make([]string, 0, len(idx.docs))
	for uri := range idx.docs {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}

// Doc returns the document for a URI.
func (idx *Index) Doc(uri string) Schema {
	return idx.docs[uri]
}

// OriginFile returns the source file a document was loaded from.
func (idx *Index) OriginFile(docURI string) string {
	return idx.origins[docURI]
}

// DocURIForPath reverse-looks-up the document URI assigned to a file path
// during loading. Phases that re-read files from disk must use the same
// URIs the index minted, not ones derived from the filesystem.
func (idx *Index) DocURIForPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	for uri, origin := range idx.origins {
		originAbs, err := filepath.Abs(origin)
		if err != nil {
			originAbs = origin
		}
		if originAbs == abs {
			return uri
		}
	}
	return ""
}

// Override returns the declared name override for a title, or the title
// itself.
func (idx *Index) Override(title string) string {
	if name, ok := idx.override[title]; ok {
		return name
	}
	return title
}

// Overrides reports whether any name overrides were declared.
func (idx *Index) Overrides() map[string]string {
	return idx.override
}

// Exportables lists the exportable symbols of one document: the titled root
// plus every $defs / definitions entry, with the bundle each belongs to.
func (idx *Index) Exportables(docURI string) []Export {
	doc, ok := idx.docs[docURI]
	if !ok {
		return nil
	}
	bundle := bundleName(idx.origins[docURI])

	var exports []Export
	if title, ok := doc["title"].(string); ok {
		exports = append(exports, Export{ID: NodeID{DocURI: docURI}, Name: title, Bundle: bundle})
	}
	for _, defKey := range []string{"$defs", "definitions"} {
		defs, ok := doc[defKey].(map[string]any)
		if !ok {
			continue
		}
		names := make([]string, 0, len(defs))
		for name := range defs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			exports = append(exports, Export{
				ID:     NodeID{DocURI: docURI, Fragment: "#/" + defKey + "/" + EscapeToken(name)},
				Name:   name,
				Bundle: bundle,
			})
		}
	}
	return exports
}

// AllRefs returns the set of absolute target URIs referenced from any
// document in the index.
func (idx *Index) AllRefs() map[string]bool {
	targets := make(map[string]bool)
	for _, docURI := range idx.DocURIs() {
		for _, ref := range Refs(idx.docs[docURI]) {
			targets[idx.ResolveRef(ref, docURI)] = true
		}
	}
	return targets
}

// bundleName derives the bundle name for an origin file: the sanitized
// stem with any numeric ordering prefix removed.
func bundleName(path string) string {
	return SafeStem(stem(path))
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// joinURL resolves ref against base with net/url semantics, falling back
// to string concatenation for unparsable input.
func joinURL(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
