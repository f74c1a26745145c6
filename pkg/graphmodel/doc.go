// Package graphmodel recovers a logical node/edge graph from a rendered
// scene's element identifiers.
//
// Renderers decorate the user's node names ("bare ids") when they emit
// markup: node groups become "flowchart-<bare>-<n>" and edge paths become
// "L_<source>_<target>_<n>". Because a bare id may itself contain '-' or
// '_', recovering edge endpoints needs the set of bare ids actually present
// in the scene; [ParseEdgeID] tries candidates longest-first so that
// "L_my_node_B_0" resolves to my_node → B rather than a false split on "my".
//
// The naming convention belongs to the renderer, so it is captured in a
// versioned [Grammar]. [DefaultGrammar] matches both the Mermaid CLI output
// and the in-process flowchart renderer.
//
// Nothing here fails on malformed content: unmatched identifiers and
// decorative elements are silently left out of the results.
package graphmodel
