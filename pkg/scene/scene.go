package scene

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Scene is a rendered diagram: the root <svg> element plus any prolog
// markup that preceded it.
type Scene struct {
	prolog []*Element
	root   *Element
}

// New wraps root as a scene. The root is detached from any former parent.
func New(root *Element) *Scene {
	root.Remove()
	return &Scene{root: root}
}

// Root returns the outermost element.
func (s *Scene) Root() *Element { return s.root }

// ByID returns the first element whose id equals id, or nil.
func (s *Scene) ByID(id string) *Element {
	if id == "" {
		return nil
	}
	return s.First(func(e *Element) bool { return e.ID() == id })
}

// First returns the first element in document order satisfying pred.
func (s *Scene) First(pred func(*Element) bool) *Element {
	if pred(s.root) {
		return s.root
	}
	return s.root.First(pred)
}

// Find returns every element satisfying pred in document order.
func (s *Scene) Find(pred func(*Element) bool) []*Element {
	return s.root.Find(pred)
}

// ByClass returns every element carrying class.
func (s *Scene) ByClass(class string) []*Element {
	return s.Find(HasClassFunc(class))
}

// Walk visits every element in document order.
func (s *Scene) Walk(fn func(*Element) bool) { s.root.Walk(fn) }

// Contains reports whether e is attached somewhere under the root.
func (s *Scene) Contains(e *Element) bool {
	for n := e; n != nil; n = n.parent {
		if n == s.root {
			return true
		}
	}
	return false
}

// SetViewTransform writes the viewport transform onto the root as an
// inline CSS matrix anchored at the top-left corner.
func (s *Scene) SetViewTransform(scale, x, y float64) {
	s.root.SetStyle("transform-origin", "0 0")
	s.root.SetStyle("transform", fmt.Sprintf("matrix(%s, 0, 0, %s, %s, %s)",
		FormatNumber(scale), FormatNumber(scale), FormatNumber(x), FormatNumber(y)))
}

// ViewBox parses the root viewBox attribute.
func (s *Scene) ViewBox() (Rect, bool) {
	nums := parseNumbers(s.root.Get("viewBox"))
	if len(nums) != 4 || nums[2] <= 0 || nums[3] <= 0 {
		return Rect{}, false
	}
	return Rect{X: nums[0], Y: nums[1], W: nums[2], H: nums[3]}, true
}

// Parse decodes SVG markup into a scene. The decoder is lenient: HTML
// entities and unclosed void elements inside foreignObject labels are
// accepted.
func Parse(data []byte) (*Scene, error) {
	d := xml.NewDecoder(bytes.NewReader(data))
	d.Strict = false
	d.Entity = xml.HTMLEntity

	s := &Scene{}
	var stack []*Element
	for {
		tok, err := d.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse scene: %w", err)
		}

		var node *Element
		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{Kind: ElementNode, Name: qualified(t.Name)}
			for _, a := range t.Attr {
				el.Attrs = append(el.Attrs, Attr{Name: qualified(a.Name), Value: a.Value})
			}
			if len(stack) == 0 {
				if s.root != nil {
					return nil, fmt.Errorf("parse scene: multiple root elements")
				}
				s.root = el
			} else {
				stack[len(stack)-1].Append(el)
			}
			if !voidElements[el.Name] {
				stack = append(stack, el)
			}
			continue
		case xml.EndElement:
			// Pop to the matching start tag; stray end tags are dropped.
			name := qualified(t.Name)
			for i := len(stack) - 1; i >= 0; i-- {
				if stack[i].Name == name {
					stack = stack[:i]
					break
				}
			}
			continue
		case xml.CharData:
			node = &Element{Kind: TextNode, Data: string(t)}
		case xml.Comment:
			node = &Element{Kind: CommentNode, Data: string(t)}
		case xml.ProcInst:
			node = &Element{Kind: RawNode, Data: "<?" + t.Target + " " + string(t.Inst) + "?>"}
		case xml.Directive:
			node = &Element{Kind: RawNode, Data: "<!" + string(t) + ">"}
		}
		if node == nil {
			continue
		}
		if len(stack) > 0 {
			stack[len(stack)-1].Append(node)
		} else if s.root == nil && node.Kind != TextNode {
			s.prolog = append(s.prolog, node)
		}
	}
	if s.root == nil {
		return nil, fmt.Errorf("parse scene: no root element")
	}
	return s, nil
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// Markup serializes the scene back to SVG text.
func (s *Scene) Markup() []byte {
	var buf bytes.Buffer
	_, _ = s.WriteTo(&buf)
	return buf.Bytes()
}

// WriteTo serializes the scene to w.
func (s *Scene) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	for _, p := range s.prolog {
		writeNode(cw, p, false)
		cw.WriteString("\n")
	}
	writeNode(cw, s.root, false)
	return cw.n, cw.err
}

var voidElements = map[string]bool{"br": true, "hr": true, "img": true, "input": true, "meta": true, "link": true}

func writeNode(w *countingWriter, e *Element, html bool) {
	switch e.Kind {
	case TextNode:
		if p := e.parent; p != nil && (p.Name == "style" || p.Name == "script") {
			if strings.ContainsAny(e.Data, "<&") {
				w.WriteString("<![CDATA[" + e.Data + "]]>")
			} else {
				w.WriteString(e.Data)
			}
			return
		}
		escape(w, e.Data)
		return
	case CommentNode:
		w.WriteString("<!--" + e.Data + "-->")
		return
	case RawNode:
		w.WriteString(e.Data)
		return
	}

	w.WriteString("<" + e.Name)
	for _, a := range e.Attrs {
		w.WriteString(" " + a.Name + `="`)
		escape(w, a.Value)
		w.WriteString(`"`)
	}
	childHTML := html || e.Name == "foreignObject"
	if len(e.Children) == 0 && (!html || voidElements[e.Name]) {
		w.WriteString("/>")
		return
	}
	w.WriteString(">")
	for _, c := range e.Children {
		writeNode(w, c, childHTML)
	}
	w.WriteString("</" + e.Name + ">")
}

func escape(w *countingWriter, s string) {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	w.Write(buf.Bytes())
}

type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) {
	if c.err != nil {
		return
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
}

func (c *countingWriter) WriteString(s string) { c.Write([]byte(s)) }

// FormatNumber renders v with at most four decimals and no trailing zeros.
func FormatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', 4, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}
