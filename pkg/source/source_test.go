package source

import (
	"testing"

	"github.com/matzehuels/mdview/pkg/errors"
)

const doc = "# Title\n\nSome prose.\n\n```go\nfmt.Println()\n```\n\n```mermaid\nflowchart TD\n  A[Start] --> B[End]\n```\n\n```mermaid\nflowchart LR\n  X --> Y\n```\n"

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		lang string
		doc  string
		want string
	}{
		{"first block wins", "", doc, "flowchart TD\n  A[Start] --> B[End]"},
		{"configured language", "go", doc, "fmt.Println()"},
		{"case insensitive tag", "", "```Mermaid\ngraph TD\nA-->B\n```\n", "graph TD\nA-->B"},
		{"tilde fence", "", "~~~mermaid\ngraph TD\n~~~\n", "graph TD"},
		{"inside list", "", "- item\n\n  ```mermaid\n  graph TD\n  ```\n", "graph TD"},
		{"info string extras", "", "```mermaid title=x\ngraph TD\n```\n", "graph TD"},
		{"empty block skipped", "", "```mermaid\n```\n\n```mermaid\ngraph LR\n```\n", "graph LR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(tt.lang).Extract([]byte(tt.doc))
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Extract() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code errors.Code
	}{
		{"empty", "", errors.ErrCodeInvalidInput},
		{"whitespace", "  \n\t", errors.ErrCodeInvalidInput},
		{"no block", "# Just prose\n", errors.ErrCodeDiagramNotFound},
		{"other language only", "```go\nx\n```\n", errors.ErrCodeDiagramNotFound},
		{"indented code is not fenced", "    mermaid\n    graph TD\n", errors.ErrCodeDiagramNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&Extractor{}).Extract([]byte(tt.doc))
			if !errors.Is(err, tt.code) {
				t.Errorf("Extract() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestBlocks(t *testing.T) {
	blocks := Blocks([]byte(doc))
	if len(blocks) != 3 {
		t.Fatalf("len(Blocks()) = %d, want 3", len(blocks))
	}
	if blocks[0].Language != "go" || blocks[0].Line != 6 {
		t.Errorf("blocks[0] = %+v", blocks[0])
	}
	if blocks[2].Source != "flowchart LR\n  X --> Y" || blocks[2].Line != 15 {
		t.Errorf("blocks[2] = %+v", blocks[2])
	}
}

func TestNilExtractorUsesDefault(t *testing.T) {
	var x *Extractor
	if got := x.language(); got != DefaultLanguage {
		t.Errorf("language() = %q", got)
	}
}
