package gesture

import (
	"math"

	"github.com/sketchd/sketchd/backend-go/internal/document"
	"github.com/sketchd/sketchd/backend-go/internal/geom"
	"github.com/sketchd/sketchd/backend-go/internal/resolve"
)

// Quad is the distorted image of the original bounds, corner order
// top-left, top-right, bottom-right, bottom-left.
type Quad [4]geom.Point

// QuadFromBounds returns the undistorted quad of a box.
func QuadFromBounds(b geom.Bounds) Quad {
	return Quad{
		{X: b.MinX, Y: b.MinY},
		{X: b.MaxX, Y: b.MinY},
		{X: b.MaxX, Y: b.MaxY},
		{X: b.MinX, Y: b.MaxY},
	}
}

// MapPoint maps a point given in the source box through the quad by
// bilinear interpolation.
func (q Quad) MapPoint(src geom.Bounds, p geom.Point) geom.Point {
	w, h := src.Width(), src.Height()
	u, v := 0.0, 0.0
	if w != 0 {
		u = (p.X - src.MinX) / w
	}
	if h != 0 {
		v = (p.Y - src.MinY) / h
	}

	topX := q[0].X + u*(q[1].X-q[0].X)
	topY := q[0].Y + u*(q[1].Y-q[0].Y)
	botX := q[3].X + u*(q[2].X-q[3].X)
	botY := q[3].Y + u*(q[2].Y-q[3].Y)

	return geom.Point{
		X: topX + v*(botX-topX),
		Y: topY + v*(botY-topY),
	}
}

// Distort remaps the selection onto an interpolated quad. A general quad
// is not representable as one affine transform of the whole selection, so
// each affected element gets a best-fit affine derived from mapping its
// own bounding corners through the quad.
func (e *Engine) Distort(doc *document.Document, st *State, quad Quad) {
	for _, id := range st.ElementIDs {
		e.distortElement(doc, st, id, quad, 0)
	}
}

func (e *Engine) distortElement(doc *document.Document, st *State, id string, quad Quad, depth int) {
	if depth >= 100 {
		return
	}

	el, ok := st.base[id]
	if !ok {
		return
	}

	// Groups without their own transform distribute the distortion to the
	// descendants, each fitted against its own corners.
	if el.IsGroup() && el.Matrix == nil && el.Transform == nil {
		for _, childID := range el.Children {
			e.distortElement(doc, st, childID, quad, depth+1)
		}
		return
	}

	bounds := st.baseRes.GlobalBounds(id, resolve.ViewportNoStroke)
	if bounds == nil {
		return
	}

	src := QuadFromBounds(*bounds)
	var dst Quad
	for i, c := range src {
		dst[i] = quad.MapPoint(st.OriginalBounds, c)
	}

	affine, ok := bestFitAffine(src, dst)
	if !ok {
		return
	}
	e.applyToElement(doc, st, id, affine, depth)
}

// bestFitAffine solves the least-squares affine mapping the four source
// corners onto the four target corners. Returns false for degenerate
// (collinear) sources.
func bestFitAffine(src, dst Quad) (geom.Matrix, bool) {
	// Normal equations for [x y 1] * [p q r]^T per output coordinate.
	var sxx, sxy, syy, sx, sy float64
	var bx [3]float64
	var by [3]float64

	for i := range src {
		x, y := src[i].X, src[i].Y
		sxx += x * x
		sxy += x * y
		syy += y * y
		sx += x
		sy += y

		bx[0] += x * dst[i].X
		bx[1] += y * dst[i].X
		bx[2] += dst[i].X
		by[0] += x * dst[i].Y
		by[1] += y * dst[i].Y
		by[2] += dst[i].Y
	}

	n := float64(len(src))
	a := [3][3]float64{
		{sxx, sxy, sx},
		{sxy, syy, sy},
		{sx, sy, n},
	}

	colX, ok := solve3(a, bx)
	if !ok {
		return geom.Identity(), false
	}
	colY, ok := solve3(a, by)
	if !ok {
		return geom.Identity(), false
	}

	return geom.Matrix{colX[0], colY[0], colX[1], colY[1], colX[2], colY[2]}, true
}

// solve3 solves a 3x3 linear system by Gaussian elimination with partial
// pivoting.
func solve3(a [3][3]float64, b [3]float64) ([3]float64, bool) {
	for col := 0; col < 3; col++ {
		pivot := col
		for row := col + 1; row < 3; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return [3]float64{}, false
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for row := col + 1; row < 3; row++ {
			f := a[row][col] / a[col][col]
			for k := col; k < 3; k++ {
				a[row][k] -= f * a[col][k]
			}
			b[row] -= f * b[col]
		}
	}

	var x [3]float64
	for row := 2; row >= 0; row-- {
		x[row] = b[row]
		for k := row + 1; k < 3; k++ {
			x[row] -= a[row][k] * x[k]
		}
		x[row] /= a[row][row]
	}
	return x, true
}
