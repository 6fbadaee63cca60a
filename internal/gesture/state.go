package gesture

import (
	"github.com/sketchd/sketchd/backend-go/internal/document"
	"github.com/sketchd/sketchd/backend-go/internal/geom"
	"github.com/sketchd/sketchd/backend-go/internal/resolve"
)

// Handle identifies which control of the selection box is being dragged.
type Handle string

const (
	HandleMove        Handle = "move"
	HandleTopLeft     Handle = "topLeft"
	HandleTop         Handle = "top"
	HandleTopRight    Handle = "topRight"
	HandleRight       Handle = "right"
	HandleBottomRight Handle = "bottomRight"
	HandleBottom      Handle = "bottom"
	HandleBottomLeft  Handle = "bottomLeft"
	HandleLeft        Handle = "left"
	HandleRotate      Handle = "rotate"
)

// Pivot returns the fixed point for the handle against the original
// bounds: corner handles pivot on the opposite corner, edge midpoint
// handles on the opposite edge midpoint, rotation on the box center.
func (h Handle) Pivot(b geom.Bounds) geom.Point {
	cx, cy := b.Center()
	switch h {
	case HandleTopLeft:
		return geom.Point{X: b.MaxX, Y: b.MaxY}
	case HandleTopRight:
		return geom.Point{X: b.MinX, Y: b.MaxY}
	case HandleBottomRight:
		return geom.Point{X: b.MinX, Y: b.MinY}
	case HandleBottomLeft:
		return geom.Point{X: b.MaxX, Y: b.MinY}
	case HandleTop:
		return geom.Point{X: cx, Y: b.MaxY}
	case HandleBottom:
		return geom.Point{X: cx, Y: b.MinY}
	case HandleLeft:
		return geom.Point{X: b.MaxX, Y: cy}
	case HandleRight:
		return geom.Point{X: b.MinX, Y: cy}
	default:
		return geom.Point{X: cx, Y: cy}
	}
}

// ScaleFactors derives per-axis scale factors for a handle drag of
// (dx, dy) against the original bounds. Edge handles scale one axis only.
func (h Handle) ScaleFactors(b geom.Bounds, dx, dy float64) (sx, sy float64) {
	sx, sy = 1, 1
	w, ht := b.Width(), b.Height()

	if w > 0 {
		switch h {
		case HandleTopRight, HandleRight, HandleBottomRight:
			sx = (w + dx) / w
		case HandleTopLeft, HandleLeft, HandleBottomLeft:
			sx = (w - dx) / w
		}
	}
	if ht > 0 {
		switch h {
		case HandleBottomLeft, HandleBottom, HandleBottomRight:
			sy = (ht + dy) / ht
		case HandleTopLeft, HandleTop, HandleTopRight:
			sy = (ht - dy) / ht
		}
	}
	return sx, sy
}

// State is the per-gesture working set, created at pointer-down on a
// handle, mutated on every pointer-move, and discarded at pointer-up.
// Snapshot holds a deep copy of every affected element taken once at
// gesture start; every commit re-derives from it so repeated pointer
// moves never compound rounding error. The base table (live elements with
// the snapshot overlaid) is owned exclusively by the gesture and never
// aliased back into the live collection.
type State struct {
	Handle         Handle
	ElementIDs     []string
	OriginalBounds geom.Bounds
	PivotOverride  *geom.Point
	DistanceMode   bool

	Snapshot map[string]document.Element
	base     map[string]document.Element
	baseRes  *resolve.Resolver

	done bool
}

// Begin starts a gesture over the given top-level element ids. Returns nil
// when no affected element yields finite bounds (nothing to manipulate).
func Begin(doc *document.Document, caps *resolve.Capabilities, ids []string, handle Handle, vp resolve.Viewport) *State {
	res := resolve.New(doc.Elements, caps)

	var boxes []geom.Bounds
	for _, id := range ids {
		if b := res.GlobalBounds(id, vp); b != nil {
			boxes = append(boxes, *b)
		}
	}
	merged := geom.MergeBounds(boxes)
	if merged == nil {
		return nil
	}

	snapshot := map[string]document.Element{}
	for _, id := range ids {
		snapshotTree(doc.Elements, id, snapshot, 0)
	}

	base := make(map[string]document.Element, len(doc.Elements))
	for id, el := range doc.Elements {
		base[id] = el
	}
	for id, el := range snapshot {
		base[id] = el
	}

	return &State{
		Handle:         handle,
		ElementIDs:     append([]string(nil), ids...),
		OriginalBounds: *merged,
		Snapshot:       snapshot,
		base:           base,
		baseRes:        resolve.New(base, caps),
	}
}

// Pivot resolves the effective transform origin: the explicit override
// when set, else the handle-derived point on the original bounds.
func (st *State) Pivot() geom.Point {
	if st.PivotOverride != nil {
		return *st.PivotOverride
	}
	return st.Handle.Pivot(st.OriginalBounds)
}

// Cancel restores every affected element from the pre-gesture snapshot.
// Idempotent: repeated calls keep restoring the same snapshot values.
func (st *State) Cancel(doc *document.Document) {
	for id, el := range st.Snapshot {
		doc.Elements[id] = el.Clone()
	}
}

// Finish marks the gesture complete. Returns false if already finished.
func (st *State) Finish() bool {
	if st.done {
		return false
	}
	st.done = true
	return true
}

// snapshotTree deep-copies an element and, for groups, every descendant.
func snapshotTree(elements map[string]document.Element, id string, out map[string]document.Element, depth int) {
	if depth >= 100 {
		return
	}
	if _, seen := out[id]; seen {
		return
	}

	el, ok := elements[id]
	if !ok {
		return
	}
	out[id] = el.Clone()

	for _, childID := range el.Children {
		snapshotTree(elements, childID, out, depth+1)
	}
}
