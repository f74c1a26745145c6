package cli

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/mdview/pkg/errors"
	"github.com/matzehuels/mdview/pkg/viewer"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestModel(t *testing.T) viewModel {
	t.Helper()
	v := viewer.New(testRenderer(), testLogger(), viewer.Options{Now: func() time.Time { return epoch }})
	m := newViewModel(context.Background(), v, "docs/pipeline.md", testLogger())
	return update(t, m, tea.WindowSizeMsg{Width: 60, Height: 12})
}

// update feeds msg to m and returns the new model, dropping commands.
func update(t *testing.T, m viewModel, msg tea.Msg) viewModel {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(viewModel)
}

// drive feeds msg to m and keeps running the commands it returns until none
// is left. Only the load pipeline is followed.
func drive(t *testing.T, m viewModel, msg tea.Msg) viewModel {
	t.Helper()
	for msg != nil {
		next, cmd := m.Update(msg)
		m = next.(viewModel)
		msg = nil
		if cmd != nil {
			switch out := cmd().(type) {
			case renderDoneMsg, flushMsg:
				msg = out
			}
		}
	}
	return m
}

func loadedModel(t *testing.T) viewModel {
	t.Helper()
	m := drive(t, newTestModel(t), docReadMsg{data: []byte(testDoc)})
	if st := m.v.State(); !st.HasScene || st.Loading {
		t.Fatalf("after load: HasScene=%v Loading=%v", st.HasScene, st.Loading)
	}
	return m
}

func keyRunes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func TestViewModelLoad(t *testing.T) {
	m := loadedModel(t)
	st := m.v.State()

	if st.FileName != "pipeline.md" {
		t.Errorf("FileName = %q, want pipeline.md", st.FileName)
	}
	if st.Status == nil || st.Status.Kind != viewer.StatusSuccess {
		t.Errorf("Status = %+v, want success", st.Status)
	}
	if m.v.Pending() {
		t.Error("auto-fit still pending after flush")
	}

	view := m.View()
	for _, want := range []string{appName, "pipeline.md", "Loaded: pipeline.md"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestViewModelLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		msg  docReadMsg
		kind viewer.StatusKind
	}{
		{"missing file", docReadMsg{err: errors.New(errors.ErrCodeFileNotFound, "docs/pipeline.md does not exist")}, viewer.StatusError},
		{"no diagram", docReadMsg{data: []byte("# Just prose\n")}, viewer.StatusWarning},
		{"render failure", docReadMsg{data: []byte("```mermaid\nbroken\n```\n")}, viewer.StatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := drive(t, newTestModel(t), tt.msg)
			st := m.v.State()
			if st.Status == nil || st.Status.Kind != tt.kind {
				t.Fatalf("Status = %+v, want %s", st.Status, tt.kind)
			}
			if st.HasScene {
				t.Error("HasScene = true after failed load")
			}
		})
	}
}

func TestViewModelNoDiagramKeepsScene(t *testing.T) {
	m := loadedModel(t)
	m = drive(t, m, docReadMsg{data: []byte("# Just prose\n")})

	st := m.v.State()
	if !st.HasScene {
		t.Error("scene dropped by a document without a diagram")
	}
	if st.Status == nil || st.Status.Action != viewer.ActionOpen {
		t.Errorf("Status = %+v, want open action", st.Status)
	}
	if !strings.Contains(m.View(), "press r") {
		t.Error("View() should hint at reloading")
	}
}

func TestViewModelStaleRender(t *testing.T) {
	m := newTestModel(t)

	next, first := m.Update(docReadMsg{data: []byte(testDoc)})
	m = next.(viewModel)
	next, second := m.Update(docReadMsg{data: []byte(testDoc)})
	m = next.(viewModel)

	stale := first()
	m = drive(t, m, second())
	if m.v.State().Generation != 2 {
		t.Fatalf("Generation = %d, want 2", m.v.State().Generation)
	}

	next, cmd := m.Update(stale)
	m = next.(viewModel)
	if cmd != nil {
		t.Error("stale render scheduled a flush")
	}
	if !m.v.State().HasScene {
		t.Error("stale render replaced the scene")
	}
}

func TestViewModelKeys(t *testing.T) {
	m := loadedModel(t)

	zoom := m.v.State().Zoom
	m = update(t, m, keyRunes("+"))
	if got := m.v.State().Zoom; got <= zoom {
		t.Errorf("zoom after + = %v, want > %v", got, zoom)
	}

	m = update(t, m, keyRunes("0"))
	if st := m.v.State(); st.Zoom != 1 || st.PanX != 0 || st.PanY != 0 {
		t.Errorf("after reset: zoom=%v pan=(%v,%v)", st.Zoom, st.PanX, st.PanY)
	}

	m = update(t, m, keyRunes("l"))
	if got := m.v.State().PanX; got != -panStep {
		t.Errorf("PanX after l = %v, want %v", got, -panStep)
	}

	m = update(t, m, keyRunes("t"))
	if got := m.v.State().Theme; got != viewer.ThemeLight {
		t.Errorf("Theme after t = %q, want light", got)
	}
}

func TestViewModelCycleSelection(t *testing.T) {
	m := loadedModel(t)

	steps := []struct {
		key  tea.KeyMsg
		want string
	}{
		{tea.KeyMsg{Type: tea.KeyTab}, "A"},
		{tea.KeyMsg{Type: tea.KeyTab}, "B"},
		{tea.KeyMsg{Type: tea.KeyShiftTab}, "A"},
		{tea.KeyMsg{Type: tea.KeyShiftTab}, "C"},
	}
	for i, s := range steps {
		m = update(t, m, s.key)
		meta := m.v.State().Meta
		if meta == nil || meta.BareID != s.want {
			t.Fatalf("step %d: Meta = %+v, want %s", i, meta, s.want)
		}
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.v.State().Meta != nil {
		t.Error("esc did not clear the selection")
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.v.State().Status != nil {
		t.Error("second esc did not dismiss the status")
	}
}

func TestViewModelSearch(t *testing.T) {
	m := loadedModel(t)

	m = update(t, m, keyRunes("/"))
	if !m.searching {
		t.Fatal("/ did not open the search line")
	}
	m = update(t, m, keyRunes("cat"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.searching {
		t.Error("enter did not close the search line")
	}
	st := m.v.State()
	if st.Meta == nil || st.Meta.BareID != "C" {
		t.Errorf("Meta = %+v, want C", st.Meta)
	}
	if st.SearchQuery != "cat" {
		t.Errorf("SearchQuery = %q, want cat", st.SearchQuery)
	}

	m = update(t, m, keyRunes("/"))
	m = update(t, m, keyRunes("zzz"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if st := m.v.State(); st.Status == nil || st.Status.Kind != viewer.StatusWarning {
		t.Errorf("Status = %+v, want no-match warning", st.Status)
	}
}

func TestViewModelMouse(t *testing.T) {
	m := loadedModel(t)
	m = update(t, m, keyRunes("0"))

	// Cell (18, 3) of the canvas is inside B at scale 1.
	col, row := 18, 3+headerRows
	m = update(t, m, tea.MouseMsg{X: col, Y: row, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	m = update(t, m, tea.MouseMsg{X: col, Y: row, Button: tea.MouseButtonLeft, Action: tea.MouseActionRelease})
	if meta := m.v.State().Meta; meta == nil || meta.BareID != "B" {
		t.Fatalf("click selected %+v, want B", meta)
	}

	m = update(t, m, tea.MouseMsg{X: col, Y: row, Action: tea.MouseActionMotion})
	if tip := m.v.State().Tooltip; !tip.Visible || tip.BareID != "B" {
		t.Errorf("Tooltip = %+v, want B", tip)
	}

	m = update(t, m, tea.MouseMsg{X: col, Y: row, Button: tea.MouseButtonWheelUp, Action: tea.MouseActionPress})
	if got := m.v.State().Zoom; got <= 1 {
		t.Errorf("zoom after wheel up = %v, want > 1", got)
	}

	// A press outside the canvas is ignored.
	m = update(t, m, tea.MouseMsg{X: col, Y: 0, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	if m.pressed {
		t.Error("press on the header started a drag")
	}
}

func TestViewModelStatusExpires(t *testing.T) {
	m := loadedModel(t)

	m = update(t, m, tickMsg(epoch.Add(viewer.StatusTimeout-time.Second)))
	if m.v.State().Status == nil {
		t.Fatal("status expired early")
	}
	m = update(t, m, tickMsg(epoch.Add(viewer.StatusTimeout)))
	if m.v.State().Status != nil {
		t.Error("status did not expire")
	}
}

func TestViewModelCanvasSize(t *testing.T) {
	m := newTestModel(t)
	if w, h := m.canvasSize(); w != 60 || h != 12-headerRows-footerRows {
		t.Errorf("canvasSize() = %dx%d", w, h)
	}
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	if w, _ := m.canvasSize(); w != 100-panelWidth-1 {
		t.Errorf("canvasSize() with panel width = %d", w)
	}
}
