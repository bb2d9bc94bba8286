package load

import (
	"path/filepath"
	"strings"

	"github.com/daveshilobod/lithify"
)

// Node is one canonical schema node in the graph. References are stored as
// indices into the graph's node table, so a cycle is a cycle in the index
// graph, not an embedded copy.
type Node struct {
	ID     NodeID
	Schema Schema
	// Ref is the node-table index of the resolved $ref target, or -1.
	Ref int
}

// Graph is the arena of canonical schema nodes. It is built once per
// session and read-only afterwards; every node reachable from a schema
// root has exactly one entry regardless of how many times it is referenced.
type Graph struct {
	index *Index
	nodes []*Node
	byURI map[string]int
}

// BuildGraph resolves every node and $ref of the index into a canonical
// node table. Dangling references fail with UnresolvedReferenceError;
// reference cycles fail with UnsupportedShapeError.
func BuildGraph(idx *Index) (*Graph, error) {
	g := &Graph{index: idx, byURI: make(map[string]int)}

	for _, docURI := range idx.DocURIs() {
		doc := idx.Doc(docURI)
		var walkErr error
		Walk(doc, "", func(m Schema, pointer string) {
			if walkErr != nil {
				return
			}
			id := NodeID{DocURI: docURI}
			if pointer != "" {
				id.Fragment = "#" + pointer
			}
			nodeIdx := g.intern(id, m)

			ref, ok := m["$ref"].(string)
			if !ok {
				return
			}
			targetURI := idx.ResolveRef(ref, docURI)
			target := idx.NodeFor(targetURI)
			if target == nil {
				walkErr = lithify.NewUnresolvedReferenceError(ref, origin(idx, docURI), nil)
				return
			}
			targetDoc, targetFrag := SplitFragment(targetURI)
			g.nodes[nodeIdx].Ref = g.intern(NodeID{DocURI: targetDoc, Fragment: targetFrag}, target)
		})
		if walkErr != nil {
			return nil, walkErr
		}
	}

	if err := g.checkCycles(); err != nil {
		return nil, err
	}
	return g, nil
}

// intern returns the canonical index for id, creating the node on first
// sight.
func (g *Graph) intern(id NodeID, schema Schema) int {
	if i, ok := g.byURI[id.URI()]; ok {
		return i
	}
	i := len(g.nodes)
	g.nodes = append(g.nodes, &Node{ID: id, Schema: schema, Ref: -1})
	g.byURI[id.URI()] = i
	return i
}

// Nodes returns the canonical node table.
func (g *Graph) Nodes() []*Node {
	return g.nodes
}

// NodeByURI returns the canonical node for a URI, or nil.
func (g *Graph) NodeByURI(uri string) *Node {
	if i, ok := g.byURI[uri]; ok {
		return g.nodes[i]
	}
	return nil
}

// Index returns the index the graph was built from.
func (g *Graph) Index() *Index {
	return g.index
}

// Resolve follows $ref indirection from a node to its final target.
// Cycles were rejected at build time, so the walk terminates.
func (g *Graph) Resolve(n *Node) *Node {
	for n.Ref >= 0 {
		n = g.nodes[n.Ref]
	}
	return n
}

// checkCycles rejects reference cycles, including a node referencing its
// own ancestor. Edges are $ref indirection plus containment: entering a
// node means entering every ref-bearing node inside it. Recursion support
// is explicitly out of scope; a cycle is reported, not silently ignored.
func (g *Graph) checkCycles() error {
	adjacency := make([][]int, len(g.nodes))
	for i, n := range g.nodes {
		if n.Ref >= 0 {
			adjacency[i] = append(adjacency[i], n.Ref)
			// Containment: every ancestor of a ref-bearing node reaches it.
			for j, m := range g.nodes {
				if j != i && m.ID.DocURI == n.ID.DocURI && contains(m.ID.Fragment, n.ID.Fragment) {
					adjacency[j] = append(adjacency[j], i)
				}
			}
		}
	}

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make([]int, len(g.nodes))

	var visit func(i int) error
	visit = func(i int) error {
		switch state[i] {
		case done:
			return nil
		case visiting:
			n := g.nodes[i]
			return lithify.NewUnsupportedShapeError(
				origin(g.index, n.ID.DocURI), n.ID.Fragment, "reference cycle")
		}
		state[i] = visiting
		for _, next := range adjacency[i] {
			if err := visit(next); err != nil {
				return err
			}
		}
		state[i] = done
		return nil
	}

	for i := range g.nodes {
		if err := visit(i); err != nil {
			return err
		}
	}
	return nil
}

// contains reports whether the ancestor fragment strictly contains the
// descendant fragment ("" contains everything).
func contains(ancestor, descendant string) bool {
	if ancestor == descendant {
		return false
	}
	if ancestor == "" {
		return true
	}
	return strings.HasPrefix(descendant, ancestor+"/")
}

func origin(idx *Index, docURI string) string {
	if f := idx.OriginFile(docURI); f != "" {
		return filepath.Base(f)
	}
	return docURI
}
