package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/mdview/pkg/viewer"
)

// Terminal colors shared by command output and the viewer chrome.
var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorBlue   = lipgloss.Color("75")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	StyleLink      = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue     = lipgloss.NewStyle().Foreground(colorWhite)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorYellow)

	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleCommand     = lipgloss.NewStyle().Foreground(colorBlue)
	styleKey         = lipgloss.NewStyle().Foreground(colorGray).Width(12)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Command Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line under the previous message.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints one written output file.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Println(styleKey.Render(key) + " " + StyleValue.Render(value))
}

// printNextStep suggests the command to run next.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// =============================================================================
// Diagram Themes
// =============================================================================

// paletteFor returns the canvas styles of the viewer theme.
func paletteFor(theme string) palette {
	if theme == viewer.ThemeLight {
		return palette{
			edge:          lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
			edgeConnected: lipgloss.NewStyle().Foreground(lipgloss.Color("25")).Bold(true),
			node:          lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
			nodeConnected: lipgloss.NewStyle().Foreground(lipgloss.Color("25")),
			nodeSelected:  lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("25")).Bold(true),
			label:         lipgloss.NewStyle().Foreground(lipgloss.Color("232")),
			text:          lipgloss.NewStyle(),
		}
	}
	return palette{
		edge:          lipgloss.NewStyle().Foreground(colorDim),
		edgeConnected: lipgloss.NewStyle().Foreground(colorCyan).Bold(true),
		node:          lipgloss.NewStyle().Foreground(colorGray),
		nodeConnected: lipgloss.NewStyle().Foreground(colorCyan),
		nodeSelected:  lipgloss.NewStyle().Foreground(lipgloss.Color("16")).Background(colorCyan).Bold(true),
		label:         lipgloss.NewStyle().Foreground(colorWhite),
		text:          lipgloss.NewStyle(),
	}
}

// statusStyle is the banner style for a status kind.
func statusStyle(kind viewer.StatusKind) (lipgloss.Style, string) {
	switch kind {
	case viewer.StatusSuccess:
		return styleIconSuccess, iconSuccess
	case viewer.StatusError:
		return styleIconError, iconError
	case viewer.StatusWarning:
		return styleIconWarning, iconWarning
	}
	return styleIconInfo, iconInfo
}
