// Package selection turns pointer activity on a rendered scene into
// selection state, highlight classes and node metadata.
//
// A single [Controller] serves the whole scene: the host forwards every
// pointer event with the element under the pointer, and the controller
// resolves the node by walking up the ancestry ([Controller.HitTest])
// instead of registering per-node handlers.
package selection

import (
	"github.com/matzehuels/mdview/pkg/graphmodel"
	"github.com/matzehuels/mdview/pkg/observability"
	"github.com/matzehuels/mdview/pkg/scene"
)

// Highlight classes.
const (
	SelectedClass      = "node-selected"
	ConnectedClass     = "node-connected"
	EdgeConnectedClass = "edge-connected"
)

// TooltipOffset is the distance in pixels between pointer and tooltip.
const TooltipOffset = 8

// Direction of a connection relative to the selected node.
type Direction string

const (
	Outgoing Direction = "outgoing"
	Incoming Direction = "incoming"
)

// Arrow returns the side-panel glyph for d.
func (d Direction) Arrow() string {
	if d == Outgoing {
		return "→"
	}
	return "←"
}

// Connection is one neighbour of the selected node.
type Connection struct {
	TargetBareID string    `json:"target_id"`
	TargetLabel  string    `json:"target_label"`
	Direction    Direction `json:"direction"`
}

// NodeMetadata describes the selected node for display.
type NodeMetadata struct {
	BareID      string       `json:"id"`
	Label       string       `json:"label"`
	Connections []Connection `json:"connections"`
}

// Tooltip is the hover label state.
type Tooltip struct {
	Visible bool    `json:"visible"`
	Label   string  `json:"label,omitempty"`
	BareID  string  `json:"id,omitempty"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

// Text formats the tooltip as "label – bare id".
func (t Tooltip) Text() string {
	if !t.Visible {
		return ""
	}
	return t.Label + " – " + t.BareID
}

// Controller is bound to one scene at a time and belongs to one event
// loop.
type Controller struct {
	grammar graphmodel.Grammar
	scene   *scene.Scene
	tooltip Tooltip
	hovered string
}

// New creates an unbound controller.
func New(g graphmodel.Grammar) *Controller {
	return &Controller{grammar: g}
}

// Bind switches to a new scene, dropping hover state from the old one.
// A nil scene unbinds.
func (c *Controller) Bind(s *scene.Scene) {
	c.scene = s
	c.hovered = ""
	c.tooltip = Tooltip{}
}

// Scene returns the bound scene.
func (c *Controller) Scene() *scene.Scene { return c.scene }

// Tooltip returns the current tooltip.
func (c *Controller) Tooltip() Tooltip { return c.tooltip }

// HitTest walks from target up to the scene root and returns the element
// id of the first node it meets.
func (c *Controller) HitTest(target *scene.Element) (string, bool) {
	if c.scene == nil || target == nil || !c.scene.Contains(target) {
		return "", false
	}
	var id string
	target.Closest(func(e *scene.Element) bool {
		var ok bool
		id, ok = c.nodeID(e)
		return ok
	}, c.scene.Root())
	return id, id != ""
}

// IsNode reports whether elementID names a node of the bound scene.
func (c *Controller) IsNode(elementID string) bool {
	if c.scene == nil {
		return false
	}
	el := c.scene.ByID(elementID)
	return el != nil && c.isNode(el)
}

func (c *Controller) isNode(e *scene.Element) bool {
	_, ok := c.nodeID(e)
	return ok
}

// nodeID reports whether e marks a node and which element id it stands for.
func (c *Controller) nodeID(e *scene.Element) (string, bool) {
	if c.grammar.NodeAttr != "" {
		if v, ok := e.Attr(c.grammar.NodeAttr); ok {
			if v == "" {
				v = e.ID()
			}
			return v, v != ""
		}
	}
	if c.grammar.IsNode(e) && e.ID() != "" {
		return e.ID(), true
	}
	return "", false
}

// Click resolves target to the new selection: the hit node's element id,
// or "" to clear.
func (c *Controller) Click(target *scene.Element) string {
	id, _ := c.HitTest(target)
	return id
}

// Hover shows the tooltip for the node under target at pointer (x, y). A
// miss hides it. Moving within the same node only repositions it.
func (c *Controller) Hover(target *scene.Element, x, y float64) {
	id, ok := c.HitTest(target)
	if !ok {
		c.hide()
		return
	}
	if id != c.hovered || !c.tooltip.Visible {
		bare := c.grammar.ExtractBareID(id)
		c.hovered = id
		c.tooltip = Tooltip{
			Visible: true,
			BareID:  bare,
			Label:   c.grammar.Label(c.nodeElement(id, target), bare),
		}
	}
	c.Move(x, y)
}

// Move tracks the pointer while the tooltip is visible.
func (c *Controller) Move(x, y float64) {
	if !c.tooltip.Visible {
		return
	}
	c.tooltip.X = x + TooltipOffset
	c.tooltip.Y = y + TooltipOffset
}

// Leave hides the tooltip unless the pointer moved onto another part of a
// node.
func (c *Controller) Leave(related *scene.Element) {
	if _, ok := c.HitTest(related); ok {
		return
	}
	c.hide()
}

func (c *Controller) hide() {
	c.hovered = ""
	c.tooltip = Tooltip{}
}

// nodeElement finds the element to read the label from.
func (c *Controller) nodeElement(id string, target *scene.Element) *scene.Element {
	if el := c.scene.ByID(id); el != nil {
		return el
	}
	return target.Closest(c.isNode, c.scene.Root())
}

// Apply clears every highlight, then marks selectedID and its neighbours
// and returns the node's metadata. An empty id, an unknown id or the id of
// an element that is not a node leaves the scene unhighlighted and returns
// nil.
func (c *Controller) Apply(selectedID string) *NodeMetadata {
	if c.scene == nil {
		return nil
	}
	c.scene.Walk(func(e *scene.Element) bool {
		e.RemoveClass(SelectedClass)
		e.RemoveClass(ConnectedClass)
		e.RemoveClass(EdgeConnectedClass)
		return true
	})

	el := c.scene.ByID(selectedID)
	if el == nil || !c.isNode(el) {
		observability.Interaction().OnSelect(false, 0)
		return nil
	}
	el.AddClass(SelectedClass)

	gr := c.grammar.Build(c.scene)
	conns := gr.Connections(selectedID)
	for _, id := range conns.NodeIDs {
		if n := c.scene.ByID(id); n != nil {
			n.AddClass(ConnectedClass)
		}
	}
	for _, e := range conns.Edges {
		e.AddClass(EdgeConnectedClass)
	}

	bare := c.grammar.ExtractBareID(selectedID)
	meta := &NodeMetadata{
		BareID:      bare,
		Label:       c.grammar.Label(el, bare),
		Connections: []Connection{},
	}
	for _, id := range conns.NodeIDs {
		target := c.grammar.ExtractBareID(id)
		label := target
		if n, ok := gr.Node(target); ok {
			label = n.Label
		}
		dir := Incoming
		if gr.HasEdge(bare, target) {
			dir = Outgoing
		}
		meta.Connections = append(meta.Connections, Connection{
			TargetBareID: target,
			TargetLabel:  label,
			Direction:    dir,
		})
	}
	observability.Interaction().OnSelect(true, len(meta.Connections))
	return meta
}
