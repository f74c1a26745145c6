// Package source locates the diagram definition inside a markdown document.
//
// Documents are parsed with goldmark, so fences inside lists or block
// quotes are found and indented or tilde fences are handled the way any
// CommonMark renderer would. The first fenced block tagged with the
// configured language wins.
package source

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/matzehuels/mdview/pkg/errors"
)

// DefaultLanguage is the fence tag looked for when none is configured.
const DefaultLanguage = "mermaid"

// Block is one fenced code block.
type Block struct {
	Language string `json:"language"`
	Source   string `json:"source"`
	Line     int    `json:"line"` // 1-based line of the first content line
}

// Extractor finds fenced diagram blocks. The zero value looks for
// [DefaultLanguage].
type Extractor struct {
	Language string
}

// New returns an extractor for lang ("" means [DefaultLanguage]).
func New(lang string) *Extractor {
	return &Extractor{Language: lang}
}

func (x *Extractor) language() string {
	if x == nil || strings.TrimSpace(x.Language) == "" {
		return DefaultLanguage
	}
	return strings.ToLower(strings.TrimSpace(x.Language))
}

// Extract returns the body of the first non-empty block tagged with the
// extractor's language. An empty document fails with INVALID_INPUT; a
// document without such a block fails with DIAGRAM_NOT_FOUND.
func (x *Extractor) Extract(doc []byte) (string, error) {
	if len(bytes.TrimSpace(doc)) == 0 {
		return "", errors.New(errors.ErrCodeInvalidInput, "document is empty")
	}
	lang := x.language()
	for _, b := range Blocks(doc) {
		if b.Language == lang && strings.TrimSpace(b.Source) != "" {
			return b.Source, nil
		}
	}
	return "", errors.New(errors.ErrCodeDiagramNotFound, "no %s code block found in document", lang)
}

// Blocks returns every fenced code block in document order. Languages are
// lower-cased; the trailing newline of each body is dropped.
func Blocks(doc []byte) []Block {
	root := goldmark.New().Parser().Parse(text.NewReader(doc))

	var blocks []Block
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fcb, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		var body bytes.Buffer
		lines := fcb.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			body.Write(seg.Value(doc))
		}
		line := 0
		if lines.Len() > 0 {
			line = bytes.Count(doc[:lines.At(0).Start], []byte("\n")) + 1
		}
		blocks = append(blocks, Block{
			Language: strings.ToLower(string(fcb.Language(doc))),
			Source:   strings.TrimSuffix(strings.TrimSuffix(body.String(), "\n"), "\r"),
			Line:     line,
		})
		return ast.WalkSkipChildren, nil
	})
	return blocks
}
