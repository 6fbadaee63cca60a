package resolve

import (
	"github.com/sketchd/sketchd/backend-go/internal/document"
	"github.com/sketchd/sketchd/backend-go/internal/geom"
)

// Viewport is the per-frame view context handed to bounds computations.
type Viewport struct {
	Zoom          float64
	Width         float64
	Height        float64
	IncludeStroke bool
}

// ViewportNoStroke is a unit-zoom viewport without stroke inflation, for
// geometry-only bounds queries.
var ViewportNoStroke = Viewport{Zoom: 1}

// EffectiveZoom returns the zoom clamped away from zero.
func (v Viewport) EffectiveZoom() float64 {
	if v.Zoom <= 0 {
		return 1
	}
	return v.Zoom
}

// BoundsProvider computes local-space bounds for a contributed element
// type. A nil result means the element has no finite bounds this frame and
// must be excluded from the computation, never treated as a zero box.
type BoundsProvider func(el *document.Element, vp Viewport) *geom.Bounds

// AffineProvider applies an affine matrix to a contributed element's
// geometry payload, returning the updated element. When no provider is
// registered for a type, the engine composes the matrix into the element's
// transform fields if it carries any, and otherwise leaves it untouched.
type AffineProvider func(el document.Element, m geom.Matrix) document.Element

// Capabilities is the explicit type-tag registry passed into the resolver
// and commit engine. Contributed element types plug in here; modeling the
// registry as plain maps keeps unit tests free of ambient global state.
type Capabilities struct {
	Bounds map[document.ElementType]BoundsProvider
	Affine map[document.ElementType]AffineProvider
}

// NewCapabilities returns an empty registry.
func NewCapabilities() *Capabilities {
	return &Capabilities{
		Bounds: map[document.ElementType]BoundsProvider{},
		Affine: map[document.ElementType]AffineProvider{},
	}
}

// BoundsFor looks up the bounds provider for a type tag.
func (c *Capabilities) BoundsFor(t document.ElementType) (BoundsProvider, bool) {
	if c == nil || c.Bounds == nil {
		return nil, false
	}
	p, ok := c.Bounds[t]
	return p, ok
}

// AffineFor looks up the affine provider for a type tag.
func (c *Capabilities) AffineFor(t document.ElementType) (AffineProvider, bool) {
	if c == nil || c.Affine == nil {
		return nil, false
	}
	p, ok := c.Affine[t]
	return p, ok
}
