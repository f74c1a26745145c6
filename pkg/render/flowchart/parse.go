package flowchart

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"

	"github.com/matzehuels/mdview/pkg/errors"
)

// Direction is the flow direction declared in the chart header.
type Direction string

// Flow directions.
const (
	TopBottom Direction = "TB"
	BottomTop Direction = "BT"
	LeftRight Direction = "LR"
	RightLeft Direction = "RL"
)

// Shape is a node outline.
type Shape string

// Node shapes, named after Mermaid's.
const (
	ShapeRect          Shape = "rect"
	ShapeRound         Shape = "round"
	ShapeStadium       Shape = "stadium"
	ShapeSubroutine    Shape = "subroutine"
	ShapeCylinder      Shape = "cylinder"
	ShapeCircle        Shape = "circle"
	ShapeDoubleCircle  Shape = "doublecircle"
	ShapeDiamond       Shape = "diamond"
	ShapeHexagon       Shape = "hexagon"
	ShapeAsymmetric    Shape = "asymmetric"
	ShapeParallelogram Shape = "parallelogram"
)

// LinkStyle is the stroke of a link.
type LinkStyle string

// Link strokes.
const (
	StrokeNormal LinkStyle = "normal"
	StrokeDotted LinkStyle = "dotted"
	StrokeThick  LinkStyle = "thick"
)

// Node is a declared vertex.
type Node struct {
	ID       string
	Label    string
	Shape    Shape
	Subgraph string // innermost enclosing subgraph id, "" at top level
}

// Link is a declared edge.
type Link struct {
	From, To string
	Label    string
	Style    LinkStyle
	Arrow    bool
}

// Subgraph is a named cluster of nodes.
type Subgraph struct {
	ID     string
	Title  string
	Parent string
}

// Chart is a parsed flowchart. Nodes and Links keep declaration order.
type Chart struct {
	Direction Direction
	Nodes     []*Node
	Links     []Link
	Subgraphs []Subgraph

	index map[string]*Node
}

// Node returns the node with the given id, or nil.
func (c *Chart) Node(id string) *Node { return c.index[id] }

// Parse reads flowchart text.
func Parse(src string) (*Chart, error) {
	p := &parser{chart: &Chart{Direction: TopBottom, index: make(map[string]*Node)}}
	if err := p.run(src); err != nil {
		return nil, err
	}
	return p.chart, nil
}

type parser struct {
	chart  *Chart
	line   int
	header bool
	stack  []string // open subgraph ids
	anon   int
}

func (p *parser) fail(format string, args ...any) error {
	args = append([]any{p.line}, args...)
	return errors.New(errors.ErrCodeSyntax, "Parse error on line %d: "+format, args...)
}

func (p *parser) run(src string) error {
	sc := bufio.NewScanner(strings.NewReader(src))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	frontMatter := false
	for sc.Scan() {
		p.line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "---" && !p.header {
			frontMatter = !frontMatter
			continue
		}
		if frontMatter || raw == "" || strings.HasPrefix(raw, "%%") {
			continue
		}
		for _, stmt := range splitStatements(raw) {
			if err := p.statement(stmt); err != nil {
				return err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeSyntax, err, "read diagram")
	}
	if !p.header {
		return errors.New(errors.ErrCodeSyntax, "Parse error on line %d: expected 'graph' or 'flowchart'", p.line)
	}
	if len(p.stack) > 0 {
		return p.fail("subgraph %q is not closed", p.stack[len(p.stack)-1])
	}
	return nil
}

var styleKeywords = []string{"classDef", "class", "style", "linkStyle", "click", "direction"}

func (p *parser) statement(stmt string) error {
	stmt = strings.TrimSpace(stmt)
	if stmt == "" {
		return nil
	}
	word, rest, _ := strings.Cut(stmt, " ")
	if !p.header {
		if word != "graph" && word != "flowchart" && word != "flowchart-elk" {
			return p.fail("expected 'graph' or 'flowchart', got %q", word)
		}
		p.header = true
		return p.direction(strings.TrimSpace(rest))
	}
	switch word {
	case "subgraph":
		return p.openSubgraph(strings.TrimSpace(rest))
	case "end":
		if len(p.stack) == 0 {
			return p.fail("'end' without subgraph")
		}
		p.stack = p.stack[:len(p.stack)-1]
		return nil
	}
	for _, kw := range styleKeywords {
		if word == kw {
			return nil
		}
	}
	return p.chain(stmt)
}

func (p *parser) direction(d string) error {
	switch strings.ToUpper(d) {
	case "", "TB", "TD":
		p.chart.Direction = TopBottom
	case "BT":
		p.chart.Direction = BottomTop
	case "LR":
		p.chart.Direction = LeftRight
	case "RL":
		p.chart.Direction = RightLeft
	default:
		return p.fail("unknown direction %q", d)
	}
	return nil
}

func (p *parser) openSubgraph(rest string) error {
	var sg Subgraph
	if rest == "" {
		p.anon++
		sg.ID = "subGraph" + strconv.Itoa(p.anon-1)
	} else if i := strings.IndexByte(rest, '['); i > 0 && strings.HasSuffix(rest, "]") {
		sg.ID = strings.TrimSpace(rest[:i])
		sg.Title = unquote(rest[i+1 : len(rest)-1])
	} else if strings.HasPrefix(rest, `"`) || strings.ContainsRune(rest, ' ') {
		p.anon++
		sg.ID = "subGraph" + strconv.Itoa(p.anon-1)
		sg.Title = unquote(rest)
	} else {
		sg.ID = rest
	}
	if sg.Title == "" {
		sg.Title = sg.ID
	}
	if n := len(p.stack); n > 0 {
		sg.Parent = p.stack[n-1]
	}
	p.chart.Subgraphs = append(p.chart.Subgraphs, sg)
	p.stack = append(p.stack, sg.ID)
	return nil
}

// chain parses "group (link group)*" where a group is "node (& node)*".
func (p *parser) chain(stmt string) error {
	s := &cursor{src: stmt}
	prev, err := p.group(s)
	if err != nil {
		return err
	}
	for {
		s.skipSpace()
		if s.done() {
			return nil
		}
		link, err := p.link(s)
		if err != nil {
			return err
		}
		next, err := p.group(s)
		if err != nil {
			return err
		}
		for _, from := range prev {
			for _, to := range next {
				l := link
				l.From, l.To = from, to
				p.chart.Links = append(p.chart.Links, l)
			}
		}
		prev = next
	}
}

func (p *parser) group(s *cursor) ([]string, error) {
	var ids []string
	for {
		s.skipSpace()
		id, err := p.node(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
		s.skipSpace()
		if !s.consume("&") {
			return ids, nil
		}
	}
}

// Bracket pairs, longest openers first.
var shapes = []struct {
	open, close string
	shape       Shape
}{
	{"(((", ")))", ShapeDoubleCircle},
	{"((", "))", ShapeCircle},
	{"([", "])", ShapeStadium},
	{"[[", "]]", ShapeSubroutine},
	{"[(", ")]", ShapeCylinder},
	{"{{", "}}", ShapeHexagon},
	{"[/", "/]", ShapeParallelogram},
	{`[\`, `\]`, ShapeParallelogram},
	{"[", "]", ShapeRect},
	{"(", ")", ShapeRound},
	{"{", "}", ShapeDiamond},
	{">", "]", ShapeAsymmetric},
}

func (p *parser) node(s *cursor) (string, error) {
	id := s.ident()
	if id == "" {
		if s.done() {
			return "", p.fail("expected node id at end of statement")
		}
		return "", p.fail("expected node id, got %q", s.peekWord())
	}
	for _, sh := range shapes {
		if !s.consume(sh.open) {
			continue
		}
		text, ok := s.until(sh.close)
		if !ok {
			return "", p.fail("unterminated %q after %q", sh.open, id)
		}
		p.declare(id, unquote(text), sh.shape)
		return id, nil
	}
	p.declare(id, "", "")
	return id, nil
}

func (p *parser) declare(id, label string, shape Shape) {
	n := p.chart.index[id]
	if n == nil {
		n = &Node{ID: id, Label: id, Shape: ShapeRect}
		if k := len(p.stack); k > 0 {
			n.Subgraph = p.stack[k-1]
		}
		p.chart.index[id] = n
		p.chart.Nodes = append(p.chart.Nodes, n)
	}
	if shape != "" {
		n.Shape = shape
		if label != "" {
			n.Label = label
		}
	}
}

var (
	linkRe = regexp.MustCompile(`^(?:<?-{2,}[>ox]|<?={2,}[>ox]|<?-\.+-[>ox]|-{3,}|={3,}|-\.+-)`)
	// "-- text -->", "== text ==>", "-. text .->"
	textLinkRe = regexp.MustCompile(`^(--|==|-\.)\s+(.+?)\s*(-{2,}[>ox]|-{3,}|={2,}[>ox]|={3,}|\.+-[>ox]|\.+-)`)
)

func (p *parser) link(s *cursor) (Link, error) {
	rest := s.rest()
	var op, label string
	if m := textLinkRe.FindStringSubmatch(rest); m != nil && !linkRe.MatchString(rest) {
		op, label = m[1]+m[3], m[2]
		s.pos += len(m[0])
	} else if m := linkRe.FindString(rest); m != "" {
		op = m
		s.pos += len(m)
	} else {
		return Link{}, p.fail("expected link, got %q", s.peekWord())
	}

	l := Link{Label: unquote(label), Style: StrokeNormal}
	switch {
	case strings.Contains(op, "."):
		l.Style = StrokeDotted
	case strings.Contains(op, "="):
		l.Style = StrokeThick
	}
	last := op[len(op)-1]
	l.Arrow = last == '>' || last == 'o' || last == 'x'

	s.skipSpace()
	if s.consume("|") {
		text, ok := s.until("|")
		if !ok {
			return Link{}, p.fail("unterminated link label")
		}
		l.Label = unquote(text)
	}
	return l, nil
}

// splitStatements splits a line on semicolons outside quotes and brackets.
func splitStatements(line string) []string {
	var out []string
	depth, start := 0, 0
	quoted := false
	for i := 0; i < len(line); i++ {
		switch c := line[i]; {
		case c == '"':
			quoted = !quoted
		case quoted:
		case c == '[' || c == '(' || c == '{':
			depth++
		case (c == ']' || c == ')' || c == '}') && depth > 0:
			depth--
		case c == ';' && depth == 0:
			out = append(out, line[start:i])
			start = i + 1
		}
	}
	return append(out, line[start:])
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return s
}

type cursor struct {
	src string
	pos int
}

func (c *cursor) done() bool   { return c.pos >= len(c.src) }
func (c *cursor) rest() string { return c.src[c.pos:] }

func (c *cursor) skipSpace() {
	for c.pos < len(c.src) && (c.src[c.pos] == ' ' || c.src[c.pos] == '\t') {
		c.pos++
	}
}

func (c *cursor) consume(tok string) bool {
	if strings.HasPrefix(c.rest(), tok) {
		c.pos += len(tok)
		return true
	}
	return false
}

// until returns the text up to tok and moves past it. Quoted text may
// contain tok.
func (c *cursor) until(tok string) (string, bool) {
	rest := c.rest()
	from := 0
	if strings.HasPrefix(strings.TrimLeft(rest, " "), `"`) {
		q := strings.IndexByte(rest, '"')
		if end := strings.IndexByte(rest[q+1:], '"'); end >= 0 {
			from = q + 1 + end + 1
		}
	}
	i := strings.Index(rest[from:], tok)
	if i < 0 {
		return "", false
	}
	i += from
	c.pos += i + len(tok)
	return rest[:i], true
}

// ident reads a node id: letters, digits, '_' and inner '-' that does not
// start a link.
func (c *cursor) ident() string {
	start := c.pos
	for c.pos < len(c.src) {
		ch := c.src[c.pos]
		if isIDChar(ch) {
			c.pos++
			continue
		}
		if ch == '-' && c.pos > start && c.pos+1 < len(c.src) && isIDChar(c.src[c.pos+1]) {
			c.pos++
			continue
		}
		break
	}
	return c.src[start:c.pos]
}

func (c *cursor) peekWord() string {
	rest := c.rest()
	if i := strings.IndexAny(rest, " \t"); i > 0 {
		return rest[:i]
	}
	return rest
}

func isIDChar(ch byte) bool {
	return ch == '_' || ch >= '0' && ch <= '9' || ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= 0x80
}
