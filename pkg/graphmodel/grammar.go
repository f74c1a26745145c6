package graphmodel

import (
	"sort"
	"strings"
)

// Grammar describes how a renderer encodes graph structure into element
// identifiers and classes.
type Grammar struct {
	// Version names the renderer output format the grammar was written
	// against. It is folded into render cache keys.
	Version string

	NodePrefix string // stripped from node element ids
	EdgePrefix string // required on edge element ids

	NodeClass          string // marks node groups
	EdgeClass          string // marks edge elements of any tag
	EdgeContainerClass string // path children of this container are edges
	LabelClass         string // marks the element holding a node's label text

	// NodeAttr is an alternate node marker for elements that are not the
	// canonical node group. Its value names the node's element id; an empty
	// value stands for the marked element's own id.
	NodeAttr string
}

// DefaultGrammar matches Mermaid v10/v11 flowchart output.
var DefaultGrammar = Grammar{
	Version:            "mermaid-flowchart-v1",
	NodePrefix:         "flowchart-",
	EdgePrefix:         "L_",
	NodeClass:          "node",
	EdgeClass:          "flowchart-link",
	EdgeContainerClass: "edgePaths",
	LabelClass:         "nodeLabel",
	NodeAttr:           "data-node-id",
}

// ExtractBareID strips the node prefix if present, then one trailing
// "-<digits>" suffix.
func (g Grammar) ExtractBareID(elementID string) string {
	bare := strings.TrimPrefix(elementID, g.NodePrefix)
	return trimCounter(bare, '-')
}

// trimCounter removes a trailing sep followed by one or more ASCII digits.
func trimCounter(s string, sep byte) string {
	i := strings.LastIndexByte(s, sep)
	if i < 0 || i == len(s)-1 {
		return s
	}
	for _, c := range s[i+1:] {
		if c < '0' || c > '9' {
			return s
		}
	}
	return s[:i]
}

// ParseEdgeID decomposes an edge identifier into its endpoint bare ids.
// Candidate sources are tried longest first; a candidate is accepted when
// the remainder after "<candidate>_" is itself a known bare id.
func (g Grammar) ParseEdgeID(edgeID string, known []string) (source, target string, ok bool) {
	if !strings.HasPrefix(edgeID, g.EdgePrefix) {
		return "", "", false
	}
	body := trimCounter(edgeID[len(g.EdgePrefix):], '_')

	knownSet := make(map[string]bool, len(known))
	for _, k := range known {
		knownSet[k] = true
	}
	candidates := make([]string, len(known))
	copy(candidates, known)
	sort.SliceStable(candidates, func(i, j int) bool {
		return len(candidates[i]) > len(candidates[j])
	})

	for _, c := range candidates {
		if !strings.HasPrefix(body, c+"_") {
			continue
		}
		rest := body[len(c)+1:]
		if knownSet[rest] {
			return c, rest, true
		}
	}
	return "", "", false
}

// ExtractBareID applies [DefaultGrammar].
func ExtractBareID(elementID string) string {
	return DefaultGrammar.ExtractBareID(elementID)
}

// ParseEdgeID applies [DefaultGrammar].
func ParseEdgeID(edgeID string, known []string) (source, target string, ok bool) {
	return DefaultGrammar.ParseEdgeID(edgeID, known)
}
