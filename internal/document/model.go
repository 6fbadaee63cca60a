package document

import (
	"encoding/json"

	"github.com/sketchd/sketchd/backend-go/internal/geom"
)

// Document is the full editable state of a scene: a flat element table plus
// canvas metadata, manual guides and bounded frames.
type Document struct {
	ID       string             `json:"id"`
	Name     string             `json:"name"`
	Version  int                `json:"version"`
	Canvas   Canvas             `json:"canvas"`
	Roots    []string           `json:"roots"`
	Elements map[string]Element `json:"elements"`
	Guides   []Guide            `json:"guides"`
	Frames   []Frame            `json:"frames"`
}

// Canvas describes the drawable area (the viewport geometry used as the
// fallback reference frame when no bounded frame is active).
type Canvas struct {
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Background string  `json:"background"`
}

// ElementType tags an element. Path and group are built in; any other tag
// is a contributed type resolved through the capability registries.
type ElementType string

const (
	ElementTypePath  ElementType = "path"
	ElementTypeGroup ElementType = "group"
)

// Transform is the compact translate/rotate/scale record. When an element
// also carries an explicit matrix, the matrix takes precedence.
type Transform struct {
	TX float64 `json:"tx"`
	TY float64 `json:"ty"`
	R  float64 `json:"r"`
	SX float64 `json:"sx"`
	SY float64 `json:"sy"`
}

// Style holds paint properties. StrokeWidth participates in bounds
// inflation and in transform commits.
type Style struct {
	Fill        string  `json:"fill"`
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`
	Opacity     float64 `json:"opacity"`
}

// Element is a node in the scene. A group exclusively owns its listed
// children; other references by id (paint, clip) do not imply ownership.
// The parent graph must stay acyclic; traversals cap their depth anyway.
type Element struct {
	ID        string          `json:"id"`
	Type      ElementType     `json:"type"`
	Parent    *string         `json:"parent"`
	Children  []string        `json:"children,omitempty"`
	Matrix    *geom.Matrix    `json:"matrix,omitempty"`
	Transform *Transform      `json:"transform,omitempty"`
	Geometry  *PathGeometry   `json:"geometry,omitempty"`
	Style     Style           `json:"style"`
	Visible   bool            `json:"visible"`
	Locked    bool            `json:"locked"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// PathGeometry is the geometry payload of a path element: an ordered list
// of segments with absolute anchor and control points.
type PathGeometry struct {
	Segments []Segment `json:"segments"`
	Closed   bool      `json:"closed"`
}

// Segment is one anchor with optional incoming/outgoing bezier handles,
// all in absolute coordinates.
type Segment struct {
	Point     geom.Point  `json:"point"`
	HandleIn  *geom.Point `json:"handleIn,omitempty"`
	HandleOut *geom.Point `json:"handleOut,omitempty"`
}

// GuideAxis is the orientation of a manual guide.
type GuideAxis string

const (
	GuideAxisX GuideAxis = "x" // vertical line at Position
	GuideAxisY GuideAxis = "y" // horizontal line at Position
)

// Guide is a user-placed alignment line.
type Guide struct {
	ID       string    `json:"id"`
	Axis     GuideAxis `json:"axis"`
	Position float64   `json:"position"`
}

// Frame is a named bounded region of the canvas. The active frame, when
// present, replaces the viewport as the alignment reference frame.
type Frame struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Bounds geom.Bounds `json:"bounds"`
	Active bool        `json:"active"`
}

// IsGroup reports whether the element owns children.
func (e *Element) IsGroup() bool {
	return e.Type == ElementTypeGroup
}

// ActiveFrame returns the active bounded frame, or nil when none is active.
func (d *Document) ActiveFrame() *Frame {
	for i := range d.Frames {
		if d.Frames[i].Active {
			return &d.Frames[i]
		}
	}
	return nil
}

// NewEmptyDocument creates an empty single-canvas document.
func NewEmptyDocument(docID string) *Document {
	return &Document{
		ID:      docID,
		Name:    "Untitled",
		Version: 1,
		Canvas: Canvas{
			Width:      1280,
			Height:     720,
			Background: "#1a1a2e",
		},
		Roots:    []string{},
		Elements: map[string]Element{},
		Guides:   []Guide{},
		Frames:   []Frame{},
	}
}
