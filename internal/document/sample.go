package document

import "github.com/sketchd/sketchd/backend-go/internal/geom"

// NewSampleDocument creates the built-in playground document: a few shapes
// arranged so alignment and distance guides have something to bite on, one
// nested group, a manual guide and an active frame.
func NewSampleDocument(docID string) *Document {
	doc := NewEmptyDocument(docID)
	doc.Name = "Playground"

	groupID := "el_group1"

	addRect := func(id string, x, y, w, h float64, fill string, parent *string) {
		doc.Elements[id] = Element{
			ID:       id,
			Type:     ElementTypePath,
			Parent:   parent,
			Geometry: RectPath(x, y, w, h),
			Style: Style{
				Fill:        fill,
				Stroke:      "#0f0f23",
				StrokeWidth: 2,
				Opacity:     1,
			},
			Visible: true,
		}
		if parent == nil {
			doc.Roots = append(doc.Roots, id)
		}
	}

	addRect("el_rect1", 100, 100, 120, 80, "#e94560", nil)
	addRect("el_rect2", 260, 100, 120, 80, "#f5a623", nil)
	addRect("el_rect3", 420, 100, 120, 80, "#2ecc71", nil)

	addRect("el_leaf1", 0, 0, 60, 60, "#3498db", &groupID)
	addRect("el_leaf2", 80, 20, 60, 60, "#9b59b6", &groupID)

	doc.Elements[groupID] = Element{
		ID:       groupID,
		Type:     ElementTypeGroup,
		Children: []string{"el_leaf1", "el_leaf2"},
		Transform: &Transform{
			TX: 200, TY: 320, R: 15, SX: 1, SY: 1,
		},
		Style:   Style{Opacity: 1},
		Visible: true,
	}
	doc.Roots = append(doc.Roots, groupID)

	doc.Guides = []Guide{
		{ID: "guide_center", Axis: GuideAxisX, Position: 640},
	}
	doc.Frames = []Frame{
		{
			ID:     "frame_main",
			Name:   "Frame 1",
			Bounds: geom.Bounds{MinX: 40, MinY: 40, MaxX: 1240, MaxY: 680},
			Active: true,
		},
	}

	return doc
}

// RectPath builds a closed rectangular path with absolute coordinates.
func RectPath(x, y, w, h float64) *PathGeometry {
	return &PathGeometry{
		Segments: []Segment{
			{Point: geom.Point{X: x, Y: y}},
			{Point: geom.Point{X: x + w, Y: y}},
			{Point: geom.Point{X: x + w, Y: y + h}},
			{Point: geom.Point{X: x, Y: y + h}},
		},
		Closed: true,
	}
}
