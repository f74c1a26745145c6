package scene

import (
	"strings"
)

// Kind distinguishes element nodes from the character data and markup
// that sits between them.
type Kind uint8

const (
	ElementNode Kind = iota
	TextNode
	CommentNode
	// RawNode holds markup that is carried through verbatim
	// (processing instructions, directives).
	RawNode
)

// Attr is a single attribute. Prefixed names keep their prefix
// ("xlink:href").
type Attr struct {
	Name  string
	Value string
}

// Element is one node of the scene tree.
//
// For [ElementNode] values Name, Attrs and Children are meaningful. For the
// other kinds only Data is set.
type Element struct {
	Kind     Kind
	Name     string
	Attrs    []Attr
	Children []*Element
	Data     string

	parent *Element
}

// El builds an element node. attrs are name/value pairs; a trailing odd
// name is ignored.
//
//	El("g", "id", "flowchart-A-0", "class", "node default")
func El(name string, attrs ...string) *Element {
	e := &Element{Kind: ElementNode, Name: name}
	for i := 0; i+1 < len(attrs); i += 2 {
		e.Attrs = append(e.Attrs, Attr{Name: attrs[i], Value: attrs[i+1]})
	}
	return e
}

// Text builds a character data node.
func Text(s string) *Element {
	return &Element{Kind: TextNode, Data: s}
}

// Append adds children and returns e for chaining.
func (e *Element) Append(children ...*Element) *Element {
	for _, c := range children {
		if c == nil {
			continue
		}
		if c.parent != nil {
			c.parent.removeChild(c)
		}
		c.parent = e
		e.Children = append(e.Children, c)
	}
	return e
}

// Remove detaches e from its parent.
func (e *Element) Remove() {
	if e.parent != nil {
		e.parent.removeChild(e)
	}
}

func (e *Element) removeChild(c *Element) {
	for i, ch := range e.Children {
		if ch == c {
			e.Children = append(e.Children[:i], e.Children[i+1:]...)
			break
		}
	}
	c.parent = nil
}

// Parent returns the enclosing element, or nil for a root.
func (e *Element) Parent() *Element { return e.parent }

// IsElement reports whether e is an element node.
func (e *Element) IsElement() bool { return e != nil && e.Kind == ElementNode }

// Attr returns the value of the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Get returns the named attribute, or "" if it is absent.
func (e *Element) Get(name string) string {
	v, _ := e.Attr(name)
	return v
}

// Set creates or replaces an attribute.
func (e *Element) Set(name, value string) {
	for i := range e.Attrs {
		if e.Attrs[i].Name == name {
			e.Attrs[i].Value = value
			return
		}
	}
	e.Attrs = append(e.Attrs, Attr{Name: name, Value: value})
}

// Unset removes an attribute if present.
func (e *Element) Unset(name string) {
	for i := range e.Attrs {
		if e.Attrs[i].Name == name {
			e.Attrs = append(e.Attrs[:i], e.Attrs[i+1:]...)
			return
		}
	}
}

// ID returns the element identifier.
func (e *Element) ID() string { return e.Get("id") }

// Classes returns the whitespace-separated class list.
func (e *Element) Classes() []string {
	return strings.Fields(e.Get("class"))
}

// HasClass reports whether class is present in the class list.
func (e *Element) HasClass(class string) bool {
	for _, c := range e.Classes() {
		if c == class {
			return true
		}
	}
	return false
}

// AddClass adds class if missing and reports whether the list changed.
func (e *Element) AddClass(class string) bool {
	if class == "" || e.HasClass(class) {
		return false
	}
	cs := append(e.Classes(), class)
	e.Set("class", strings.Join(cs, " "))
	return true
}

// RemoveClass drops every occurrence of class and reports whether the list
// changed. An emptied list removes the attribute.
func (e *Element) RemoveClass(class string) bool {
	cs := e.Classes()
	kept := cs[:0]
	for _, c := range cs {
		if c != class {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(cs) {
		return false
	}
	if len(kept) == 0 {
		e.Unset("class")
	} else {
		e.Set("class", strings.Join(kept, " "))
	}
	return true
}

// Style returns the value of one declaration in the inline style attribute.
func (e *Element) Style(prop string) string {
	for _, d := range splitStyle(e.Get("style")) {
		if d[0] == prop {
			return d[1]
		}
	}
	return ""
}

// SetStyle creates or replaces one inline style declaration, keeping the
// others in order.
func (e *Element) SetStyle(prop, value string) {
	decls := splitStyle(e.Get("style"))
	found := false
	for i := range decls {
		if decls[i][0] == prop {
			decls[i][1] = value
			found = true
		}
	}
	if !found {
		decls = append(decls, [2]string{prop, value})
	}
	parts := make([]string, len(decls))
	for i, d := range decls {
		parts[i] = d[0] + ": " + d[1]
	}
	e.Set("style", strings.Join(parts, "; "))
}

func splitStyle(s string) [][2]string {
	var out [][2]string
	for _, decl := range strings.Split(s, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		out = append(out, [2]string{k, strings.TrimSpace(v)})
	}
	return out
}

// Prop resolves a presentation property from the inline style first, then
// the attribute of the same name.
func (e *Element) Prop(name string) string {
	if v := e.Style(name); v != "" {
		return v
	}
	return e.Get(name)
}

// TextContent concatenates the descendant character data with runs of
// whitespace collapsed to single spaces.
func (e *Element) TextContent() string {
	var b strings.Builder
	var collect func(*Element)
	collect = func(n *Element) {
		switch n.Kind {
		case TextNode:
			b.WriteString(n.Data)
			b.WriteByte(' ')
		case ElementNode:
			for _, c := range n.Children {
				collect(c)
			}
		}
	}
	collect(e)
	return strings.Join(strings.Fields(b.String()), " ")
}

// ElementChildren returns the direct element children.
func (e *Element) ElementChildren() []*Element {
	var out []*Element
	for _, c := range e.Children {
		if c.Kind == ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// Walk visits e and its element descendants in document order. Returning
// false from fn skips the children of the visited element.
func (e *Element) Walk(fn func(*Element) bool) {
	if e == nil || e.Kind != ElementNode {
		return
	}
	if !fn(e) {
		return
	}
	for _, c := range e.Children {
		c.Walk(fn)
	}
}

// Find returns every element in the subtree rooted at e (e included) that
// satisfies pred, in document order.
func (e *Element) Find(pred func(*Element) bool) []*Element {
	var out []*Element
	e.Walk(func(n *Element) bool {
		if pred(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// First returns the first descendant of e (e excluded) that satisfies pred.
func (e *Element) First(pred func(*Element) bool) *Element {
	var found *Element
	for _, c := range e.Children {
		c.Walk(func(n *Element) bool {
			if found != nil {
				return false
			}
			if pred(n) {
				found = n
				return false
			}
			return true
		})
		if found != nil {
			break
		}
	}
	return found
}

// Closest walks from e up through its ancestors and returns the first
// element satisfying pred, stopping after stop has been tested. A nil stop
// walks to the top of the tree.
func (e *Element) Closest(pred func(*Element) bool, stop *Element) *Element {
	for n := e; n != nil; n = n.parent {
		if n.Kind == ElementNode && pred(n) {
			return n
		}
		if n == stop {
			break
		}
	}
	return nil
}

// HasClassFunc returns a predicate matching elements carrying class.
func HasClassFunc(class string) func(*Element) bool {
	return func(e *Element) bool { return e.HasClass(class) }
}

// HasAttrFunc returns a predicate matching elements carrying attribute name.
func HasAttrFunc(name string) func(*Element) bool {
	return func(e *Element) bool {
		_, ok := e.Attr(name)
		return ok
	}
}
