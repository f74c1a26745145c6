package server

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/mdview/pkg/errors"
	"github.com/matzehuels/mdview/pkg/graphmodel"
	"github.com/matzehuels/mdview/pkg/viewer"
)

// validate is shared; validator.Validate caches struct metadata and is
// safe for concurrent use.
var validate = validator.New()

// Command ops.
const (
	OpZoomIn       = "zoom_in"
	OpZoomOut      = "zoom_out"
	OpZoomTo       = "zoom_to"
	OpReset        = "reset"
	OpFit          = "fit"
	OpPan          = "pan"
	OpResize       = "resize"
	OpKey          = "key"
	OpSelect       = "select"
	OpSelectNode   = "select_node"
	OpClear        = "clear"
	OpPointerDown  = "pointer_down"
	OpPointerMove  = "pointer_move"
	OpPointerUp    = "pointer_up"
	OpPointerLeave = "pointer_leave"
	OpWheel        = "wheel"
	OpSearch       = "search"
	OpTheme        = "theme"
	OpDismiss      = "dismiss"
)

// Command is one interaction, sent as the body of POST .../commands or as
// a websocket text message.
type Command struct {
	Op     string  `json:"op" validate:"required,oneof=zoom_in zoom_out zoom_to reset fit pan resize key select select_node clear pointer_down pointer_move pointer_up pointer_leave wheel search theme dismiss"`
	Key    string  `json:"key,omitempty" validate:"omitempty,max=16"`
	ID     string  `json:"id,omitempty" validate:"omitempty,max=512"`
	Node   string  `json:"node,omitempty" validate:"omitempty,max=256"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	DX     float64 `json:"dx,omitempty"`
	DY     float64 `json:"dy,omitempty"`
	DeltaY float64 `json:"delta_y,omitempty"`
	Level  float64 `json:"level,omitempty" validate:"omitempty,gt=0,lte=100"`
	Width  float64 `json:"width,omitempty" validate:"omitempty,gt=0,lte=100000"`
	Height float64 `json:"height,omitempty" validate:"omitempty,gt=0,lte=100000"`
	Query  string  `json:"query,omitempty" validate:"max=256"`
	Theme  string  `json:"theme,omitempty" validate:"omitempty,oneof=dark light"`
}

// Validate checks field constraints, then the fields each op requires.
func (c *Command) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	missing := ""
	switch c.Op {
	case OpKey:
		if c.Key == "" {
			missing = "key"
		}
	case OpSelect:
		if c.ID != "" {
			if err := errors.ValidateElementID(c.ID); err != nil {
				return err
			}
		}
	case OpSelectNode:
		if c.Node == "" {
			missing = "node"
		}
	case OpZoomTo:
		if c.Level == 0 {
			missing = "level"
		}
	case OpResize:
		if c.Width == 0 || c.Height == 0 {
			missing = "width and height"
		}
	case OpTheme:
		if c.Theme == "" {
			missing = "theme"
		}
	}
	if missing != "" {
		return errors.New(errors.ErrCodeInvalidInput, "op %s requires %s", c.Op, missing)
	}
	return nil
}

// CommandResult is the reply to a command.
type CommandResult struct {
	State   viewer.State      `json:"state"`
	Handled bool              `json:"handled"`
	Matches []graphmodel.Node `json:"matches,omitempty"`
}

// apply runs c against v. Callers hold the session lock.
func apply(v *viewer.Viewer, c Command) (handled bool, matches []graphmodel.Node, err error) {
	handled = true
	switch c.Op {
	case OpZoomIn:
		v.ZoomIn()
	case OpZoomOut:
		v.ZoomOut()
	case OpZoomTo:
		v.ZoomTo(c.Level)
	case OpReset:
		v.ResetView()
	case OpFit:
		v.Fit()
	case OpPan:
		v.PanBy(c.DX, c.DY)
	case OpResize:
		v.Resize(c.Width, c.Height)
	case OpKey:
		handled = v.Key(c.Key)
	case OpSelect:
		handled = v.Select(c.ID) != nil || c.ID == ""
	case OpSelectNode:
		handled = v.SelectNode(c.Node)
	case OpClear:
		v.ClearSelection()
	case OpPointerDown:
		v.PointerDown(c.X, c.Y)
	case OpPointerMove:
		v.PointerMove(c.X, c.Y)
	case OpPointerUp:
		v.PointerUp(c.X, c.Y)
	case OpPointerLeave:
		v.PointerLeave()
	case OpWheel:
		handled = v.Wheel(c.X, c.Y, c.DeltaY)
	case OpSearch:
		matches = v.Search(c.Query)
		handled = len(matches) > 0
	case OpTheme:
		err = v.SetTheme(c.Theme)
	case OpDismiss:
		v.DismissStatus()
	default:
		err = errors.New(errors.ErrCodeInvalidInput, "unknown op %q", c.Op)
	}
	return handled, matches, err
}

// LoadRequest uploads a markdown document.
type LoadRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Content string `json:"content" validate:"required"`
}

// CreateRequest opens a session with an optional container size.
type CreateRequest struct {
	Width  float64 `json:"width,omitempty" validate:"omitempty,gt=0,lte=100000"`
	Height float64 `json:"height,omitempty" validate:"omitempty,gt=0,lte=100000"`
	Theme  string  `json:"theme,omitempty" validate:"omitempty,oneof=dark light"`
}

func validateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError reports the first failing field.
func formatValidationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request")
	}
	e := verrs[0]
	var msg string
	switch e.Tag() {
	case "required":
		msg = "field is required"
	case "oneof":
		msg = fmt.Sprintf("must be one of [%s]", e.Param())
	case "max", "lte":
		msg = "must not exceed " + e.Param()
	case "gt":
		msg = "must be greater than " + e.Param()
	default:
		msg = fmt.Sprintf("validation failed (%s)", e.Tag())
	}
	return errors.New(errors.ErrCodeInvalidInput, "%s: %s", e.Field(), msg)
}
