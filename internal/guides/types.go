package guides

import (
	"github.com/sketchd/sketchd/backend-go/internal/document"
	"github.com/sketchd/sketchd/backend-go/internal/geom"
)

// Role names the edge or center of the moving bounds that an alignment
// candidate matched against.
type Role string

const (
	RoleLeft    Role = "left"
	RoleRight   Role = "right"
	RoleTop     Role = "top"
	RoleBottom  Role = "bottom"
	RoleCenterX Role = "centerX"
	RoleCenterY Role = "centerY"
)

// Horizontal reports whether the role constrains movement along X.
func (r Role) Horizontal() bool {
	return r == RoleLeft || r == RoleRight || r == RoleCenterX
}

// Alignment priorities. Lower wins. Manual guides, the reference-frame
// center and element centers outrank edge-to-edge pairings.
const (
	PriorityCenter = 1
	PriorityEdge   = 2
)

// Match is one surfaced alignment candidate. ElementIDs holds every
// contributor that produced the same position: one for a direct pairing,
// more when several collinear elements share the edge or center. Offset is
// the correction that moves the moving bounds onto Position.
type Match struct {
	Role       Role     `json:"role"`
	Position   float64  `json:"position"`
	ElementIDs []string `json:"elementIds"`
	Manual     bool     `json:"manual"`
	Priority   int      `json:"-"`
	Offset     float64  `json:"-"`
}

// Axis is the orientation of a distance relationship.
type Axis string

const (
	AxisHorizontal Axis = "horizontal"
	AxisVertical   Axis = "vertical"
)

// DistanceMatch is a detected equal-gap relationship. The reference
// interval [Start, End] and its two element ids describe the existing gap
// being matched; MovingStart/MovingEnd is the moving element's own gap
// interval along the same axis. Offset moves the moving element so its
// gap equals Gap.
type DistanceMatch struct {
	Axis        Axis      `json:"axis"`
	Gap         float64   `json:"gap"`
	Start       float64   `json:"start"`
	End         float64   `json:"end"`
	ElementIDs  [2]string `json:"elementIds"`
	MovingStart float64   `json:"movingStart"`
	MovingEnd   float64   `json:"movingEnd"`
	Offset      float64   `json:"-"`
}

// Candidate is a static element participating in detection, with its
// world-space bounds precomputed for the frame.
type Candidate struct {
	ID     string
	Bounds geom.Bounds
}

// Config holds detector tuning. Threshold is in screen pixels and is
// divided by zoom before use, so the feel is zoom-independent.
type Config struct {
	Threshold      float64
	Zoom           float64
	EnableDistance bool
}

// Threshold in canvas units.
func (c Config) canvasThreshold() float64 {
	zoom := c.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	return c.Threshold / zoom
}

// Input is the per-frame detection request: the moving element's candidate
// bounds (post pointer delta, pre snap), the exclusion set, the static
// candidates, manual guides and the reference frame.
type Input struct {
	MovingID     string
	Moving       geom.Bounds
	Exclude      map[string]bool
	Candidates   []Candidate
	ManualGuides []document.Guide
	Frame        *geom.Bounds
	DistanceMode bool
}
