package gesture

import (
	"math"

	"github.com/sketchd/sketchd/backend-go/internal/document"
	"github.com/sketchd/sketchd/backend-go/internal/geom"
	"github.com/sketchd/sketchd/backend-go/internal/resolve"
)

// Engine applies resolved gesture transforms to the document. Every commit
// starts from the gesture's pre-gesture snapshot, never from the previous
// frame's already-transformed state, so repeated pointer moves within one
// gesture do not accumulate rounding error.
type Engine struct {
	caps *resolve.Capabilities
}

// NewEngine creates a commit engine with the given capability registry.
func NewEngine(caps *resolve.Capabilities) *Engine {
	if caps == nil {
		caps = resolve.NewCapabilities()
	}
	return &Engine{caps: caps}
}

// Translate moves the affected elements by a world-space delta.
func (e *Engine) Translate(doc *document.Document, st *State, dx, dy float64) {
	e.Apply(doc, st, geom.Translate(dx, dy))
}

// Scale scales the affected elements about the gesture pivot.
func (e *Engine) Scale(doc *document.Document, st *State, sx, sy float64) {
	p := st.Pivot()
	e.Apply(doc, st, geom.ScaleAround(sx, sy, p.X, p.Y))
}

// Rotate rotates the affected elements about the pivot override when set,
// else about the original bounds center.
func (e *Engine) Rotate(doc *document.Document, st *State, degrees float64) {
	p := st.Pivot()
	e.Apply(doc, st, geom.RotateAround(degrees, p.X, p.Y))
}

// Skew skews the affected elements about the gesture pivot.
func (e *Engine) Skew(doc *document.Document, st *State, axDegrees, ayDegrees float64) {
	p := st.Pivot()
	m := geom.Translate(p.X, p.Y).Multiply(geom.Skew(axDegrees, ayDegrees)).Multiply(geom.Translate(-p.X, -p.Y))
	e.Apply(doc, st, m)
}

// Apply applies a world-space affine transform to every affected element.
// The transform is conjugated into each element's local space through the
// inverse parent matrix, so scale and rotation origins computed in global
// space do not compound already-applied parent transforms.
func (e *Engine) Apply(doc *document.Document, st *State, m geom.Matrix) {
	for _, id := range st.ElementIDs {
		e.applyToElement(doc, st, id, m, 0)
	}
}

func (e *Engine) applyToElement(doc *document.Document, st *State, id string, m geom.Matrix, depth int) {
	if depth >= 100 {
		return
	}

	el, ok := st.base[id]
	if !ok {
		return
	}

	local := e.localize(st, &el, m)

	switch {
	case el.Matrix != nil || el.Transform != nil:
		// Carries a local transform: compose rather than bake. The result
		// is only representable as a matrix, so the record form is
		// replaced.
		composed := local.Multiply(resolve.LocalMatrix(&el))
		out := el.Clone()
		out.Matrix = &composed
		out.Transform = nil
		doc.Elements[id] = out

	case el.IsGroup():
		for _, childID := range el.Children {
			e.applyToElement(doc, st, childID, m, depth+1)
		}

	case el.Type == document.ElementTypePath:
		doc.Elements[id] = bakePath(el, local)

	default:
		if provider, ok := e.caps.AffineFor(el.Type); ok {
			doc.Elements[id] = provider(el.Clone(), local)
		}
		// No provider and no transform fields: no-op.
	}
}

// localize conjugates a world-space transform into the element's local
// space: inv(parent) * m * parent. A singular parent matrix means no local
// mapping exists; the world transform is applied as-is.
func (e *Engine) localize(st *State, el *document.Element, m geom.Matrix) geom.Matrix {
	pg := st.baseRes.ParentGlobalMatrix(el)
	inv, ok := pg.Invert()
	if !ok {
		return m
	}
	return inv.Multiply(m).Multiply(pg)
}

// bakePath materializes a local-space transform into the path's geometry,
// rescaling the stroke width by the combined scale factor and stripping
// any transform fields so the path never carries both baked geometry and
// a pending transform.
func bakePath(el document.Element, local geom.Matrix) document.Element {
	out := el.Clone()
	out.Matrix = nil
	out.Transform = nil

	if out.Geometry != nil {
		for i := range out.Geometry.Segments {
			seg := &out.Geometry.Segments[i]
			seg.Point = transformPoint(local, seg.Point)
			if seg.HandleIn != nil {
				p := transformPoint(local, *seg.HandleIn)
				seg.HandleIn = &p
			}
			if seg.HandleOut != nil {
				p := transformPoint(local, *seg.HandleOut)
				seg.HandleOut = &p
			}
		}
	}

	if out.Style.StrokeWidth > 0 {
		out.Style.StrokeWidth *= math.Sqrt(math.Abs(local.Determinant()))
	}
	return out
}

func transformPoint(m geom.Matrix, p geom.Point) geom.Point {
	x, y := m.TransformPoint(p.X, p.Y)
	return geom.Point{X: x, Y: y}
}
