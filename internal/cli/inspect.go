package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mdview/pkg/graphmodel"
	"github.com/matzehuels/mdview/pkg/selection"
	"github.com/matzehuels/mdview/pkg/viewer"
)

// inspectOpts holds the command-line flags for the inspect command.
type inspectOpts struct {
	renderOptions
	node   string
	search string
	json   bool
}

// inspectReport is the --json output of inspect.
type inspectReport struct {
	File      string                  `json:"file"`
	Nodes     []graphmodel.Node       `json:"nodes"`
	Edges     []reportEdge            `json:"edges"`
	Matches   []graphmodel.Node       `json:"matches,omitempty"`
	Selection *selection.NodeMetadata `json:"selection,omitempty"`
}

type reportEdge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// inspectCommand creates the inspect command, which prints the graph
// recovered from a rendered diagram.
func (c *CLI) inspectCommand() *cobra.Command {
	var opts inspectOpts
	cmd := &cobra.Command{
		Use:               "inspect [file.md]",
		Short:             "Print the nodes, edges and connections of a Markdown diagram",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDocument,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(cmd.Context(), os.Stdout, args[0], &opts)
		},
	}
	cmd.Flags().StringVar(&opts.node, "node", "", "show the connections of the node with this id")
	cmd.Flags().StringVar(&opts.search, "search", "", "select the first node whose id or label matches")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print a JSON report")
	addRenderFlags(cmd, &opts.renderOptions)
	return cmd
}

func (c *CLI) runInspect(ctx context.Context, w io.Writer, input string, opts *inspectOpts) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	v, closer, err := c.loadDocument(ctx, cfg, input, opts.renderOptions)
	if err != nil {
		return err
	}
	defer closer.Close()

	report, err := buildReport(v, opts)
	if err != nil {
		return err
	}
	if opts.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	writeReport(w, report, opts.search != "")
	return nil
}

// buildReport collects the graph of the loaded scene and applies the
// requested search or selection.
func buildReport(v *viewer.Viewer, opts *inspectOpts) (*inspectReport, error) {
	g := v.Graph()
	st := v.State()
	r := &inspectReport{File: st.FileName, Nodes: g.Nodes()}
	if r.Nodes == nil {
		r.Nodes = []graphmodel.Node{}
	}
	r.Edges = make([]reportEdge, 0, len(g.Edges()))
	for _, e := range g.Edges() {
		r.Edges = append(r.Edges, reportEdge{ID: e.Element.ID(), Source: e.Source, Target: e.Target})
	}

	if opts.search != "" {
		r.Matches = v.Search(opts.search)
	}
	if opts.node != "" && !v.SelectNode(opts.node) {
		return nil, fmt.Errorf("no node %q", opts.node)
	}
	r.Selection = v.State().Meta
	return r, nil
}

func writeReport(w io.Writer, r *inspectReport, searched bool) {
	fmt.Fprintln(w, StyleTitle.Render(r.File))
	fmt.Fprintln(w, StyleDim.Render(fmt.Sprintf("%d nodes · %d edges", len(r.Nodes), len(r.Edges))))
	fmt.Fprintln(w)

	degree := map[string]int{}
	for _, e := range r.Edges {
		degree[e.Source]++
		degree[e.Target]++
	}
	rows := make([][]string, 0, len(r.Nodes))
	for _, n := range r.Nodes {
		rows = append(rows, []string{n.BareID, n.Label, strconv.Itoa(degree[n.BareID])})
	}
	fmt.Fprintln(w, newTable([]string{"ID", "LABEL", "DEGREE"}, rows))

	if len(r.Edges) > 0 {
		rows = rows[:0]
		for _, e := range r.Edges {
			rows = append(rows, []string{e.Source + " " + iconArrow + " " + e.Target, e.ID})
		}
		fmt.Fprintln(w, newTable([]string{"EDGE", "ELEMENT"}, rows))
	}

	if searched {
		fmt.Fprintln(w)
		if len(r.Matches) == 0 {
			fmt.Fprintln(w, StyleWarning.Render("No matches"))
		}
		for _, m := range r.Matches {
			fmt.Fprintln(w, StyleHighlight.Render(iconInfo)+" "+m.Label+StyleDim.Render(" ("+m.BareID+")"))
		}
	}
	if r.Selection != nil {
		fmt.Fprintln(w)
		fmt.Fprint(w, renderMeta(r.Selection, 0))
	}
}

// renderMeta draws the side panel for a selected node: its label, its id
// and one line per connection with a direction arrow.
func renderMeta(m *selection.NodeMetadata, width int) string {
	var lines []string
	lines = append(lines, StyleTitle.Render(m.Label), StyleDim.Render("id: "+m.BareID), "")
	if len(m.Connections) == 0 {
		lines = append(lines, StyleDim.Render("No connections"))
	} else {
		lines = append(lines, StyleValue.Render(fmt.Sprintf("Connections (%d)", len(m.Connections))))
		for _, conn := range m.Connections {
			lines = append(lines, "  "+StyleHighlight.Render(conn.Direction.Arrow())+" "+conn.TargetLabel+StyleDim.Render(" "+conn.TargetBareID))
		}
	}
	style := lipgloss.NewStyle()
	if width > 0 {
		style = style.Width(width)
	}
	return style.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)) + "\n"
}

func newTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Foreground(colorCyan).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}
