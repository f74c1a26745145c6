package graphmodel

import (
	"sort"
	"strings"

	"github.com/matzehuels/mdview/pkg/scene"
)

// IDMap maps bare ids to node element ids.
type IDMap map[string]string

// BareIDs returns the keys in sorted order.
func (m IDMap) BareIDs() []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Edge is one recovered edge and the element that draws it.
type Edge struct {
	Element *scene.Element
	Source  string
	Target  string
}

// Connections is the neighbourhood of a selected node.
type Connections struct {
	NodeIDs []string         // element ids of neighbour nodes, first-seen order
	Edges   []*scene.Element // edge elements touching the node
}

// IsNode reports whether e carries the node class.
func (g Grammar) IsNode(e *scene.Element) bool {
	return e.HasClass(g.NodeClass)
}

// IsEdge reports whether e is an edge element: anything carrying the edge
// class, or a path directly inside an edge container.
func (g Grammar) IsEdge(e *scene.Element) bool {
	if e.HasClass(g.EdgeClass) {
		return true
	}
	p := e.Parent()
	return e.Name == "path" && p != nil && p.HasClass(g.EdgeContainerClass)
}

// BuildIDMap indexes every node element that has an id. Later duplicates
// win.
func (g Grammar) BuildIDMap(s *scene.Scene) IDMap {
	m := IDMap{}
	s.Walk(func(e *scene.Element) bool {
		if id := e.ID(); id != "" && g.IsNode(e) {
			m[g.ExtractBareID(id)] = id
		}
		return true
	})
	return m
}

// BuildEdgeMap returns every edge element whose id decomposes into two
// known bare ids, in document order.
func (g Grammar) BuildEdgeMap(s *scene.Scene, known []string) []Edge {
	var edges []Edge
	s.Walk(func(e *scene.Element) bool {
		if !g.IsEdge(e) {
			return true
		}
		if src, dst, ok := g.ParseEdgeID(e.ID(), known); ok {
			edges = append(edges, Edge{Element: e, Source: src, Target: dst})
		}
		return true
	})
	return edges
}

// FindConnections returns the nodes and edges adjacent to the node with
// element id selectedID, regardless of edge direction. Unknown or isolated
// nodes yield an empty result.
func (g Grammar) FindConnections(selectedID string, s *scene.Scene) Connections {
	ids := g.BuildIDMap(s)
	edges := g.BuildEdgeMap(s, ids.BareIDs())
	return connections(g.ExtractBareID(selectedID), ids, edges)
}

func connections(bare string, ids IDMap, edges []Edge) Connections {
	var c Connections
	seen := map[string]bool{}
	for _, e := range edges {
		var other string
		switch bare {
		case e.Source:
			other = e.Target
		case e.Target:
			other = e.Source
		default:
			continue
		}
		c.Edges = append(c.Edges, e.Element)
		if seen[other] {
			continue
		}
		seen[other] = true
		if id, ok := ids[other]; ok {
			c.NodeIDs = append(c.NodeIDs, id)
		}
	}
	return c
}

// Label returns the display label of a node element: the text of a
// label-marked descendant, else the text of the first <text> descendant,
// else bareID.
func (g Grammar) Label(e *scene.Element, bareID string) string {
	if e == nil {
		return bareID
	}
	if l := e.First(scene.HasClassFunc(g.LabelClass)); l != nil {
		if t := l.TextContent(); t != "" {
			return t
		}
	}
	if t := e.First(func(n *scene.Element) bool { return n.Name == "text" }); t != nil {
		if s := t.TextContent(); s != "" {
			return s
		}
	}
	return bareID
}

// BuildIDMap applies [DefaultGrammar].
func BuildIDMap(s *scene.Scene) IDMap { return DefaultGrammar.BuildIDMap(s) }

// BuildEdgeMap applies [DefaultGrammar].
func BuildEdgeMap(s *scene.Scene, known []string) []Edge {
	return DefaultGrammar.BuildEdgeMap(s, known)
}

// FindConnections applies [DefaultGrammar].
func FindConnections(selectedID string, s *scene.Scene) Connections {
	return DefaultGrammar.FindConnections(selectedID, s)
}

// Node is one recovered graph node.
type Node struct {
	BareID    string `json:"id"`
	ElementID string `json:"element_id"`
	Label     string `json:"label"`
}

// Graph is a snapshot of the logical graph of one scene. It goes stale as
// soon as the scene is replaced.
type Graph struct {
	grammar Grammar
	nodes   []Node
	index   map[string]int
	ids     IDMap
	edges   []Edge
}

// Build recovers the whole graph of s in one pass.
func (g Grammar) Build(s *scene.Scene) *Graph {
	gr := &Graph{grammar: g, index: map[string]int{}, ids: g.BuildIDMap(s)}
	s.Walk(func(e *scene.Element) bool {
		id := e.ID()
		if id == "" || !g.IsNode(e) {
			return true
		}
		bare := g.ExtractBareID(id)
		if gr.ids[bare] != id {
			return true // superseded duplicate
		}
		gr.index[bare] = len(gr.nodes)
		gr.nodes = append(gr.nodes, Node{BareID: bare, ElementID: id, Label: g.Label(e, bare)})
		return true
	})
	gr.edges = g.BuildEdgeMap(s, gr.ids.BareIDs())
	return gr
}

// Build applies [DefaultGrammar].
func Build(s *scene.Scene) *Graph { return DefaultGrammar.Build(s) }

// Nodes returns the nodes in document order.
func (gr *Graph) Nodes() []Node { return gr.nodes }

// Edges returns the edges in document order.
func (gr *Graph) Edges() []Edge { return gr.edges }

// IDs returns the bare id to element id map.
func (gr *Graph) IDs() IDMap { return gr.ids }

// Node looks up a node by bare id.
func (gr *Graph) Node(bareID string) (Node, bool) {
	i, ok := gr.index[bareID]
	if !ok {
		return Node{}, false
	}
	return gr.nodes[i], true
}

// Connections is [Grammar.FindConnections] over the snapshot.
func (gr *Graph) Connections(selectedID string) Connections {
	return connections(gr.grammar.ExtractBareID(selectedID), gr.ids, gr.edges)
}

// HasEdge reports whether an edge source → target exists.
func (gr *Graph) HasEdge(source, target string) bool {
	for _, e := range gr.edges {
		if e.Source == source && e.Target == target {
			return true
		}
	}
	return false
}

// Search returns the nodes whose bare id or label contains query, case
// insensitively, in document order. An empty query matches nothing.
func (gr *Graph) Search(query string) []Node {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var out []Node
	for _, n := range gr.nodes {
		if strings.Contains(strings.ToLower(n.BareID), q) || strings.Contains(strings.ToLower(n.Label), q) {
			out = append(out, n)
		}
	}
	return out
}
