package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/mdview/pkg/errors"
	"github.com/matzehuels/mdview/pkg/viewer"
)

const (
	// headerRows are the title and status lines above the canvas.
	headerRows = 2
	footerRows = 1

	panelWidth    = 32
	panelMinTotal = 80

	panStep       = 40 // pixels per arrow key
	wheelDelta    = 100
	statusRefresh = 250 * time.Millisecond
)

// =============================================================================
// Key Bindings
// =============================================================================

type viewKeys struct {
	ZoomIn, ZoomOut, Reset, Fit key.Binding
	Up, Down, Left, Right       key.Binding
	Next, Prev                  key.Binding
	Search, Clear               key.Binding
	Theme, Reload               key.Binding
	Help, Quit                  key.Binding
}

func defaultViewKeys() viewKeys {
	return viewKeys{
		ZoomIn:  key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
		ZoomOut: key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "zoom out")),
		Reset:   key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "reset")),
		Fit:     key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "fit")),
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "pan up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "pan down")),
		Left:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "pan left")),
		Right:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "pan right")),
		Next:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next node")),
		Prev:    key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous node")),
		Search:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Clear:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear")),
		Theme:   key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "theme")),
		Reload:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k viewKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.ZoomIn, k.ZoomOut, k.Fit, k.Next, k.Search, k.Help, k.Quit}
}

func (k viewKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ZoomIn, k.ZoomOut, k.Reset, k.Fit},
		{k.Up, k.Down, k.Left, k.Right},
		{k.Next, k.Prev, k.Search, k.Clear},
		{k.Theme, k.Reload, k.Help, k.Quit},
	}
}

// =============================================================================
// Messages
// =============================================================================

type (
	docReadMsg struct {
		data []byte
		err  error
	}
	renderDoneMsg  struct{ res viewer.Result }
	flushMsg       struct{}
	tickMsg        time.Time
	fileChangedMsg struct{}
)

// =============================================================================
// viewModel - Interactive diagram viewer
// =============================================================================

// viewModel drives a viewer from the bubbletea event loop. Every viewer
// call happens in Update; only the render itself runs in a command.
type viewModel struct {
	ctx    context.Context
	v      *viewer.Viewer
	path   string
	logger *log.Logger

	keys      viewKeys
	help      help.Model
	search    textinput.Model
	spinner   spinner.Model
	searching bool
	pressed   bool

	width, height int
}

func newViewModel(ctx context.Context, v *viewer.Viewer, path string, logger *log.Logger) viewModel {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "node id or label"
	ti.CharLimit = 128

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styleIconSpinner))

	return viewModel{
		ctx:     ctx,
		v:       v,
		path:    path,
		logger:  logger,
		keys:    defaultViewKeys(),
		help:    help.New(),
		search:  ti,
		spinner: sp,
	}
}

func (m viewModel) Init() tea.Cmd {
	return tea.Batch(m.readCmd(), m.spinner.Tick, tickCmd())
}

func (m viewModel) readCmd() tea.Cmd {
	path := m.path
	return func() tea.Msg {
		data, err := readDocument(path)
		return docReadMsg{data: data, err: err}
	}
}

func (m viewModel) renderCmd(job viewer.Job) tea.Cmd {
	ctx, v := m.ctx, m.v
	return func() tea.Msg {
		return renderDoneMsg{res: v.Render(ctx, job)}
	}
}

func flushCmd() tea.Msg { return flushMsg{} }

func tickCmd() tea.Cmd {
	return tea.Tick(statusRefresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m viewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		w, h := m.canvasSize()
		m.v.Resize(float64(w*cellWidth), float64(h*cellHeight))
		return m, nil

	case docReadMsg:
		if msg.err != nil {
			m.logger.Error("read document", "file", m.path, "err", msg.err)
			m.v.SetStatus(viewer.StatusError, errors.UserMessage(msg.err))
			return m, nil
		}
		job, err := m.v.Open(m.ctx, filepath.Base(m.path), msg.data)
		if err != nil {
			return m, nil
		}
		return m, m.renderCmd(job)

	case renderDoneMsg:
		err := m.v.Complete(m.ctx, msg.res)
		if err != nil {
			if !stderrors.Is(err, viewer.ErrStale) {
				m.logger.Debug("load failed", "err", err)
			}
			return m, nil
		}
		return m, flushCmd

	case flushMsg:
		m.v.Flush()
		return m, nil

	case fileChangedMsg:
		return m, m.readCmd()

	case tickMsg:
		m.v.Tick(time.Time(msg))
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		m.mouse(msg)
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m viewModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.ZoomIn, m.keys.ZoomOut, m.keys.Reset, m.keys.Fit):
		m.v.Key(msg.String())
	case key.Matches(msg, m.keys.Up):
		m.v.PanBy(0, panStep)
	case key.Matches(msg, m.keys.Down):
		m.v.PanBy(0, -panStep)
	case key.Matches(msg, m.keys.Left):
		m.v.PanBy(panStep, 0)
	case key.Matches(msg, m.keys.Right):
		m.v.PanBy(-panStep, 0)
	case key.Matches(msg, m.keys.Next):
		m.cycle(1)
	case key.Matches(msg, m.keys.Prev):
		m.cycle(-1)
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.search.SetValue(m.v.State().SearchQuery)
		cmd := m.search.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Clear):
		if m.v.State().Meta != nil {
			m.v.ClearSelection()
		} else {
			m.v.DismissStatus()
		}
	case key.Matches(msg, m.keys.Theme):
		m.v.ToggleTheme()
	case key.Matches(msg, m.keys.Reload):
		return m, m.readCmd()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m viewModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		return m, nil
	case tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		q := strings.TrimSpace(m.search.Value())
		if q == "" {
			return m, nil
		}
		switch matches := m.v.Search(q); len(matches) {
		case 0:
			m.v.SetStatus(viewer.StatusWarning, fmt.Sprintf("No node matches %q", q))
		case 1:
			m.v.DismissStatus()
		default:
			m.v.SetStatus(viewer.StatusInfo, fmt.Sprintf("%d nodes match %q", len(matches), q))
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

// cycle moves the selection to the next or previous node in document
// order.
func (m viewModel) cycle(step int) {
	g := m.v.Graph()
	if g == nil || len(g.Nodes()) == 0 {
		return
	}
	nodes := g.Nodes()
	cur := -1
	if sel := m.v.State().SelectedNodeID; sel != "" {
		for i, n := range nodes {
			if n.ElementID == sel {
				cur = i
				break
			}
		}
	}
	next := 0
	switch {
	case cur >= 0:
		next = (cur + step + len(nodes)) % len(nodes)
	case step < 0:
		next = len(nodes) - 1
	}
	m.v.Select(nodes[next].ElementID)
}

// mouse translates terminal cells into container pixels. A press only
// starts inside the canvas; its release is always delivered so a drag that
// leaves the canvas still ends.
func (m *viewModel) mouse(msg tea.MouseMsg) {
	x, y, inside := m.toContainer(msg.X, msg.Y)

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if inside {
			m.v.Wheel(x, y, -wheelDelta)
		}
		return
	case tea.MouseButtonWheelDown:
		if inside {
			m.v.Wheel(x, y, wheelDelta)
		}
		return
	}

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonLeft && inside {
			m.pressed = true
			m.v.PointerDown(x, y)
		}
	case tea.MouseActionRelease:
		if m.pressed {
			m.pressed = false
			m.v.PointerUp(x, y)
		}
	case tea.MouseActionMotion:
		if inside || m.pressed {
			m.v.PointerMove(x, y)
		} else {
			m.v.PointerLeave()
		}
	}
}

// toContainer maps the centre of cell (col, row) to canvas pixels.
func (m viewModel) toContainer(col, row int) (x, y float64, inside bool) {
	w, h := m.canvasSize()
	r := row - headerRows
	inside = col >= 0 && col < w && r >= 0 && r < h
	return (float64(col) + 0.5) * cellWidth, (float64(r) + 0.5) * cellHeight, inside
}

// canvasSize is the diagram area in cells.
func (m viewModel) canvasSize() (w, h int) {
	w = m.width
	if m.width >= panelMinTotal {
		w -= panelWidth + 1
	}
	h = m.height - headerRows - footerRows
	return max(w, 0), max(h, 0)
}

// =============================================================================
// View
// =============================================================================

func (m viewModel) View() string {
	if m.width == 0 {
		return ""
	}
	st := m.v.State()
	w, h := m.canvasSize()

	var body string
	if st.HasScene {
		body = rasterize(m.v, w, h).String(paletteFor(st.Theme))
	} else {
		body = lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, m.placeholder(st))
	}
	if m.width >= panelMinTotal {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, " ", m.panel(st, h))
	}

	footer := m.help.View(m.keys)
	if m.searching {
		footer = m.search.View()
	}
	return strings.Join([]string{m.header(st), m.status(st), body, footer}, "\n")
}

func (m viewModel) header(st viewer.State) string {
	name := st.FileName
	if name == "" {
		name = filepath.Base(m.path)
	}
	left := StyleTitle.Render(appName) + " " + StyleValue.Render(name) +
		StyleDim.Render(fmt.Sprintf("  %3.0f%%", st.Zoom*100))
	if st.Loading {
		left += " " + m.spinner.View()
	}
	right := StyleHighlight.Render(st.Tooltip.Text())
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m viewModel) status(st viewer.State) string {
	s := st.Status
	if s == nil {
		return ""
	}
	style, icon := statusStyle(s.Kind)
	line := style.Render(icon) + " " + s.Message
	if s.Action == viewer.ActionOpen {
		line += StyleDim.Render("  (edit the file and press r)")
	}
	return line
}

func (m viewModel) placeholder(st viewer.State) string {
	if st.Loading {
		return m.spinner.View() + " " + StyleDim.Render("Rendering diagram")
	}
	return StyleDim.Render("No diagram loaded")
}

func (m viewModel) panel(st viewer.State, h int) string {
	style := lipgloss.NewStyle().Width(panelWidth).Height(h)
	if st.Meta == nil {
		return style.Render(StyleDim.Render("Click a node or press tab"))
	}
	return style.Render(renderMeta(st.Meta, panelWidth))
}
