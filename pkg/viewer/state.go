package viewer

import (
	"time"

	"github.com/matzehuels/mdview/pkg/selection"
)

// StatusKind classifies a status banner.
type StatusKind string

// Status kinds.
const (
	StatusSuccess StatusKind = "success"
	StatusError   StatusKind = "error"
	StatusWarning StatusKind = "warning"
	StatusInfo    StatusKind = "info"
)

// StatusTimeout is how long a non-error status stays up.
const StatusTimeout = 5 * time.Second

// ActionOpen asks the host to offer the file picker again.
const ActionOpen = "open"

// Status is the dismissible banner shown above the diagram.
type Status struct {
	Kind    StatusKind `json:"kind"`
	Message string     `json:"message"`
	Action  string     `json:"action,omitempty"`

	// Expires is zero for statuses that stay until dismissed.
	Expires time.Time `json:"-"`
}

// Themes.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// State is the host application state. Zoom, PanX and PanY always equal the
// transform applied to the scene.
type State struct {
	FileName       string                  `json:"file_name,omitempty"`
	Source         string                  `json:"source,omitempty"`
	SelectedNodeID string                  `json:"selected_node_id,omitempty"`
	Zoom           float64                 `json:"zoom"`
	PanX           float64                 `json:"pan_x"`
	PanY           float64                 `json:"pan_y"`
	Meta           *selection.NodeMetadata `json:"meta"`
	Tooltip        selection.Tooltip       `json:"tooltip"`
	Status         *Status                 `json:"status"`
	Loading        bool                    `json:"loading"`
	Theme          string                  `json:"theme"`
	SearchQuery    string                  `json:"search_query,omitempty"`
	Generation     uint64                  `json:"generation"`
	HasScene       bool                    `json:"has_scene"`
}
