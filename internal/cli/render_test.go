package cli

import (
	"context"
	"reflect"
	"testing"
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty defaults to svg", "", []string{"svg"}},
		{"single format", "svg", []string{"svg"}},
		{"multiple formats", "svg,pdf,png", []string{"svg", "pdf", "png"}},
		{"spaces and case", " PNG , Pdf", []string{"png", "pdf"}},
		{"repeats and blanks", "svg,,SVG, png", []string{"svg", "png"}},
		{"only separators", " , ", []string{"svg"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseFormats(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseFormats(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateFormats(t *testing.T) {
	tests := []struct {
		name    string
		formats []string
		wantErr bool
	}{
		{"valid svg", []string{"svg"}, false},
		{"valid multiple", []string{"svg", "pdf", "png"}, false},
		{"json is not an export", []string{"json"}, true},
		{"mixed valid invalid", []string{"svg", "invalid"}, true},
		{"empty slice", []string{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFormats(tt.formats)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateFormats(%v) error = %v, wantErr %v", tt.formats, err, tt.wantErr)
			}
		})
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		output, input, want string
	}{
		{"", "docs/arch.md", "docs/arch"},
		{"out/diagram.svg", "arch.md", "out/diagram"},
		{"out/diagram.PDF", "arch.md", "out/diagram.PDF"},
		{"out/diagram", "arch.md", "out/diagram"},
		{"out/diagram.v2", "arch.md", "out/diagram.v2"},
	}

	for _, tt := range tests {
		if got := basePath(tt.output, tt.input); got != tt.want {
			t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
		}
	}
}

func TestConvertSceneSVG(t *testing.T) {
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg"/>`)
	got, err := convertScene(context.Background(), svg, formatSVG, 1)
	if err != nil {
		t.Fatalf("convertScene(svg) error: %v", err)
	}
	if string(got) != string(svg) {
		t.Errorf("convertScene(svg) = %q", got)
	}
	if _, err := convertScene(context.Background(), svg, "gif", 1); err == nil {
		t.Error("convertScene(gif) should fail")
	}
}
