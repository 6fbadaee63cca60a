package resolve

import (
	"github.com/sketchd/sketchd/backend-go/internal/document"
	"github.com/sketchd/sketchd/backend-go/internal/geom"
)

// LocalBounds computes the element's bounds in its own coordinate space,
// before its own local transform. Returns nil for empty or degenerate
// geometry; callers exclude nil from merges rather than treating it as a
// zero box.
func (r *Resolver) LocalBounds(el *document.Element, vp Viewport) *geom.Bounds {
	if el == nil {
		return nil
	}

	switch el.Type {
	case document.ElementTypePath:
		return pathBounds(el, vp)

	case document.ElementTypeGroup:
		return r.groupBounds(el, vp, 0)

	default:
		if provider, ok := r.caps.BoundsFor(el.Type); ok {
			return provider(el, vp)
		}
		return nil
	}
}

// GlobalBounds computes the element's world-space AABB: local bounds
// transformed through the accumulated global matrix, then re-boxed from
// the four transformed corners.
func (r *Resolver) GlobalBounds(elementID string, vp Viewport) *geom.Bounds {
	el, ok := r.elements[elementID]
	if !ok {
		return nil
	}

	local := r.LocalBounds(&el, vp)
	if local == nil {
		return nil
	}

	world := r.GlobalMatrix(elementID).TransformBounds(*local)
	if !world.IsFinite() {
		return nil
	}
	return &world
}

// pathBounds accumulates min/max over every anchor and control point of
// the geometry, then inflates by half the stroke width divided by zoom.
func pathBounds(el *document.Element, vp Viewport) *geom.Bounds {
	if el.Geometry == nil || len(el.Geometry.Segments) == 0 {
		return nil
	}

	points := make([]geom.Point, 0, len(el.Geometry.Segments)*3)
	for _, seg := range el.Geometry.Segments {
		points = append(points, seg.Point)
		if seg.HandleIn != nil {
			points = append(points, *seg.HandleIn)
		}
		if seg.HandleOut != nil {
			points = append(points, *seg.HandleOut)
		}
	}

	b := geom.BoundsOfPoints(points)
	if b == nil {
		return nil
	}

	if vp.IncludeStroke && el.Style.StrokeWidth > 0 {
		inflated := b.Inflate(el.Style.StrokeWidth / 2 / vp.EffectiveZoom())
		return &inflated
	}
	return b
}

// groupBounds merges the bounds of every descendant leaf. Nested groups do
// not contribute their own box; the walk recurses into their children with
// the accumulated relative matrix, so each leaf is boxed exactly once in
// the outer group's space. Returns nil for a group with no finite leaves.
func (r *Resolver) groupBounds(group *document.Element, vp Viewport, depth int) *geom.Bounds {
	if depth >= maxDepth {
		return nil
	}

	var boxes []geom.Bounds
	r.collectLeafBounds(group, geom.Identity(), vp, depth, &boxes)
	return geom.MergeBounds(boxes)
}

func (r *Resolver) collectLeafBounds(group *document.Element, acc geom.Matrix, vp Viewport, depth int, out *[]geom.Bounds) {
	if depth >= maxDepth {
		return
	}

	for _, childID := range group.Children {
		child, ok := r.elements[childID]
		if !ok {
			continue
		}

		rel := acc.Multiply(LocalMatrix(&child))

		if child.IsGroup() {
			r.collectLeafBounds(&child, rel, vp, depth+1, out)
			continue
		}

		local := r.LocalBounds(&child, vp)
		if local == nil {
			continue
		}
		box := rel.TransformBounds(*local)
		if box.IsFinite() {
			*out = append(*out, box)
		}
	}
}
