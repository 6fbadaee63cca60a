package gesture

import (
	"math"
	"testing"

	"github.com/sketchd/sketchd/backend-go/internal/document"
	"github.com/sketchd/sketchd/backend-go/internal/geom"
)

func TestDistortIdentityQuad(t *testing.T) {
	doc := pathDoc()
	eng := NewEngine(nil)
	original := anchors(doc, "p")

	st := Begin(doc, nil, []string{"p"}, HandleMove, vp)
	eng.Distort(doc, st, QuadFromBounds(st.OriginalBounds))

	got := anchors(doc, "p")
	for i, p := range got {
		if math.Abs(p.X-original[i].X) > 1e-9 || math.Abs(p.Y-original[i].Y) > 1e-9 {
			t.Errorf("anchor %d = %v, want %v", i, p, original[i])
		}
	}
}

func TestDistortAffineQuadMatchesScale(t *testing.T) {
	doc := pathDoc()
	eng := NewEngine(nil)

	// Box is {10, 10, 30, 30}; stretch it 2x to the right. The quad stays
	// a parallelogram, so the best-fit affine is exact.
	st := Begin(doc, nil, []string{"p"}, HandleMove, vp)
	b := st.OriginalBounds
	quad := Quad{
		{X: b.MinX, Y: b.MinY},
		{X: b.MinX + 2*b.Width(), Y: b.MinY},
		{X: b.MinX + 2*b.Width(), Y: b.MaxY},
		{X: b.MinX, Y: b.MaxY},
	}
	eng.Distort(doc, st, quad)

	got := anchors(doc, "p")
	want := []geom.Point{{X: 10, Y: 10}, {X: 50, Y: 10}, {X: 50, Y: 30}, {X: 10, Y: 30}}
	for i, p := range got {
		if math.Abs(p.X-want[i].X) > 1e-9 || math.Abs(p.Y-want[i].Y) > 1e-9 {
			t.Errorf("anchor %d = %v, want %v", i, p, want[i])
		}
	}
}

func TestDistortGroupDistributesToChildren(t *testing.T) {
	doc := document.NewEmptyDocument("doc_test")
	gid := "g"
	doc.Elements["g"] = document.Element{
		ID: "g", Type: document.ElementTypeGroup, Children: []string{"a", "b"},
	}
	doc.Elements["a"] = document.Element{
		ID: "a", Type: document.ElementTypePath, Parent: &gid,
		Geometry: document.RectPath(0, 0, 10, 10),
		Style:    document.Style{Opacity: 1},
	}
	doc.Elements["b"] = document.Element{
		ID: "b", Type: document.ElementTypePath, Parent: &gid,
		Geometry: document.RectPath(20, 0, 10, 10),
		Style:    document.Style{Opacity: 1},
	}
	doc.Roots = []string{"g"}

	eng := NewEngine(nil)
	st := Begin(doc, nil, []string{"g"}, HandleMove, vp)

	// Double the width of the whole selection box {0, 0, 30, 10}. Each
	// child is fitted against its own corners, so b lands twice as far
	// from the origin as before.
	quad := Quad{{X: 0, Y: 0}, {X: 60, Y: 0}, {X: 60, Y: 10}, {X: 0, Y: 10}}
	eng.Distort(doc, st, quad)

	if p := doc.Elements["a"].Geometry.Segments[0].Point; math.Abs(p.X) > 1e-9 {
		t.Errorf("a anchor x = %v, want 0", p.X)
	}
	if p := doc.Elements["b"].Geometry.Segments[0].Point; math.Abs(p.X-40) > 1e-9 {
		t.Errorf("b anchor x = %v, want 40", p.X)
	}
	if p := doc.Elements["b"].Geometry.Segments[1].Point; math.Abs(p.X-60) > 1e-9 {
		t.Errorf("b far anchor x = %v, want 60", p.X)
	}
}

func TestBestFitAffineExactForParallelogram(t *testing.T) {
	src := QuadFromBounds(geom.Bounds{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10})
	dst := Quad{{X: 5, Y: 5}, {X: 25, Y: 5}, {X: 25, Y: 15}, {X: 5, Y: 15}}

	m, ok := bestFitAffine(src, dst)
	if !ok {
		t.Fatal("fit failed")
	}
	for i, c := range src {
		x, y := m.TransformPoint(c.X, c.Y)
		if math.Abs(x-dst[i].X) > 1e-9 || math.Abs(y-dst[i].Y) > 1e-9 {
			t.Errorf("corner %d maps to (%v, %v), want %v", i, x, y, dst[i])
		}
	}
}

func TestBestFitAffineDegenerateSource(t *testing.T) {
	src := Quad{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 0}}
	if _, ok := bestFitAffine(src, src); ok {
		t.Error("collinear source corners should not fit")
	}
}

func TestQuadMapPointBilinear(t *testing.T) {
	src := geom.Bounds{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}
	q := Quad{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 20}, {X: 0, Y: 10}}

	// Center of the source maps to the bilinear blend of the corners.
	p := q.MapPoint(src, geom.Point{X: 5, Y: 5})
	if math.Abs(p.X-5) > 1e-9 || math.Abs(p.Y-7.5) > 1e-9 {
		t.Errorf("center maps to %v, want (5, 7.5)", p)
	}
}
