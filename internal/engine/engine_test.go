package engine

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/sketchd/sketchd/backend-go/internal/document"
	"github.com/sketchd/sketchd/backend-go/internal/gesture"
	"github.com/sketchd/sketchd/backend-go/internal/guides"
	"math"
)

// twoRectDoc is "a" fixed at (0, 0) and "mv" at (30, 20), both 10x10.
func twoRectDoc() *document.Document {
	doc := document.NewEmptyDocument("doc_test")
	add := func(id string, x, y float64) {
		doc.Elements[id] = document.Element{
			ID:       id,
			Type:     document.ElementTypePath,
			Geometry: document.RectPath(x, y, 10, 10),
			Style:    document.Style{Fill: "#000", Opacity: 1},
			Visible:  true,
		}
		doc.Roots = append(doc.Roots, id)
	}
	add("a", 0, 0)
	add("mv", 30, 20)
	return doc
}

func loadedEngine(t *testing.T, doc *document.Document) *Engine {
	t.Helper()
	e := NewEngine(Options{})
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.LoadDocument(string(data)); err != nil {
		t.Fatal(err)
	}
	return e
}

func TestHitTestTopmost(t *testing.T) {
	e := loadedEngine(t, twoRectDoc())

	if got := e.HitTest(5, 5); got != "a" {
		t.Errorf("hit = %q, want a", got)
	}
	if got := e.HitTest(35, 25); got != "mv" {
		t.Errorf("hit = %q, want mv", got)
	}
	if got := e.HitTest(500, 500); got != "" {
		t.Errorf("hit = %q, want none", got)
	}
}

func TestHitTestSkipsLockedAndHidden(t *testing.T) {
	doc := twoRectDoc()
	el := doc.Elements["a"]
	el.Locked = true
	doc.Elements["a"] = el
	e := loadedEngine(t, doc)

	if got := e.HitTest(5, 5); got != "" {
		t.Errorf("hit locked element %q", got)
	}
}

func TestPointerDownSelectsHit(t *testing.T) {
	e := loadedEngine(t, twoRectDoc())

	if !e.PointerDown(35, 25, gesture.HandleMove, false) {
		t.Fatal("gesture did not start")
	}
	if sel := e.Selection(); len(sel) != 1 || sel[0] != "mv" {
		t.Errorf("selection = %v, want [mv]", sel)
	}
	e.PointerUp()
}

func TestPointerDownAdditiveToggles(t *testing.T) {
	e := loadedEngine(t, twoRectDoc())
	e.SetSelection([]string{"a"})

	e.PointerDown(35, 25, gesture.HandleMove, true)
	sel := e.Selection()
	if len(sel) != 2 {
		t.Fatalf("selection = %v, want [a mv]", sel)
	}
	e.PointerUp()

	e.PointerDown(35, 25, gesture.HandleMove, true)
	if sel := e.Selection(); len(sel) != 1 || sel[0] != "a" {
		t.Errorf("selection after toggle = %v, want [a]", sel)
	}
}

func TestPointerDownOnEmptyClearsSelection(t *testing.T) {
	e := loadedEngine(t, twoRectDoc())
	e.SetSelection([]string{"a"})

	if e.PointerDown(500, 500, gesture.HandleMove, false) {
		t.Error("gesture started with nothing under the pointer")
	}
	if sel := e.Selection(); len(sel) != 0 {
		t.Errorf("selection = %v, want empty", sel)
	}
}

func TestMoveDragSnapsToAlignment(t *testing.T) {
	e := loadedEngine(t, twoRectDoc())

	// Drag mv up by 19.5: its top lands at 0.5, within threshold of a's
	// top at 0, so the committed delta snaps to -20.
	e.PointerDown(35, 25, gesture.HandleMove, false)
	e.PointerMove(35, 5.5)

	p := e.doc.Elements["mv"].Geometry.Segments[0].Point
	if math.Abs(p.Y) > 1e-9 {
		t.Errorf("snapped top = %v, want 0", p.Y)
	}
	if p.X != 30 {
		t.Errorf("x moved to %v during a pure vertical snap", p.X)
	}

	var ov Overlay
	if err := json.Unmarshal([]byte(e.GetOverlay()), &ov); err != nil {
		t.Fatal(err)
	}
	if len(ov.Lines) == 0 {
		t.Fatal("no overlay lines for an active snap")
	}
	if !ov.Sticky.StickyY {
		t.Error("y axis should be sticky")
	}
	if ov.Sticky.StickyX {
		t.Error("x axis should not be sticky")
	}
	e.PointerUp()
}

func TestViewportIsFallbackAlignmentFrame(t *testing.T) {
	e := loadedEngine(t, twoRectDoc())
	e.SetViewport(1, 1000, 800)

	// No bounded frame exists, so the viewport extent is the reference
	// frame: dragging mv's center near x=500 snaps to the viewport center.
	e.PointerDown(35, 25, gesture.HandleMove, false)
	e.PointerMove(500.5, 25)

	p := e.doc.Elements["mv"].Geometry.Segments[0].Point
	if math.Abs(p.X-495) > 1e-9 {
		t.Errorf("snapped left = %v, want 495", p.X)
	}

	var ov Overlay
	if err := json.Unmarshal([]byte(e.GetOverlay()), &ov); err != nil {
		t.Fatal(err)
	}
	if !ov.Sticky.StickyX || ov.Sticky.StickyY {
		t.Errorf("sticky = %+v, want x only", ov.Sticky)
	}
	found := false
	for _, l := range ov.Lines {
		if l.Role == guides.RoleCenterX && l.Position == 500 {
			found = true
			if len(l.ElementIDs) != 1 || l.ElementIDs[0] != guides.FrameContributor {
				t.Errorf("contributors = %v, want [%s]", l.ElementIDs, guides.FrameContributor)
			}
			// The line extent reaches the frame, not just the moving box.
			if l.Start > 0 || l.End < 800 {
				t.Errorf("line extent = [%v, %v], want to span the frame", l.Start, l.End)
			}
		}
	}
	if !found {
		t.Errorf("no center line at 500 in %+v", ov.Lines)
	}
	e.PointerUp()
}

func TestStickyReleasesOnPullAway(t *testing.T) {
	e := loadedEngine(t, twoRectDoc())

	e.PointerDown(35, 25, gesture.HandleMove, false)
	e.PointerMove(35, 5.5) // snapped to -20

	// Pull 9 units past the snapped position: beyond 2x the threshold of
	// 4, so the axis releases and raw movement resumes.
	e.PointerMove(35, 34)
	p := e.doc.Elements["mv"].Geometry.Segments[0].Point
	if math.Abs(p.Y-29) > 1e-9 {
		t.Errorf("released y = %v, want 29", p.Y)
	}
	e.PointerUp()
}

func TestPointerUpClearsOverlay(t *testing.T) {
	e := loadedEngine(t, twoRectDoc())

	e.PointerDown(35, 25, gesture.HandleMove, false)
	e.PointerMove(35, 5.5)
	e.PointerUp()

	var ov Overlay
	if err := json.Unmarshal([]byte(e.GetOverlay()), &ov); err != nil {
		t.Fatal(err)
	}
	if len(ov.Lines) != 0 || ov.Sticky.StickyY {
		t.Errorf("overlay not cleared: %+v", ov)
	}

	// The snapped position survives the gesture end.
	if p := e.doc.Elements["mv"].Geometry.Segments[0].Point; math.Abs(p.Y) > 1e-9 {
		t.Errorf("y = %v, want snapped 0 after release", p.Y)
	}
}

func TestCancelGestureRestores(t *testing.T) {
	e := loadedEngine(t, twoRectDoc())

	e.PointerDown(35, 25, gesture.HandleMove, false)
	e.PointerMove(100, 100)
	e.CancelGesture()

	if p := e.doc.Elements["mv"].Geometry.Segments[0].Point; p.X != 30 || p.Y != 20 {
		t.Errorf("anchor = %v, want (30, 20) after cancel", p)
	}
}

func TestScaleHandleDrag(t *testing.T) {
	e := loadedEngine(t, twoRectDoc())
	e.SetSelection([]string{"mv"})

	// Bottom-right handle drag by (+10, +10) doubles the 10x10 box about
	// its top-left corner.
	e.PointerDown(40, 30, gesture.HandleBottomRight, false)
	e.PointerMove(50, 40)
	e.PointerUp()

	p := e.doc.Elements["mv"].Geometry.Segments[2].Point
	if math.Abs(p.X-50) > 1e-9 || math.Abs(p.Y-40) > 1e-9 {
		t.Errorf("far corner = %v, want (50, 40)", p)
	}
}

func TestRotateHandleDrag(t *testing.T) {
	e := loadedEngine(t, twoRectDoc())
	e.SetSelection([]string{"mv"})

	// Center is (35, 25). Start at the right of the center, drag to
	// below it: a 90 degree rotation.
	e.PointerDown(45, 25, gesture.HandleRotate, false)
	e.PointerMove(35, 35)
	e.PointerUp()

	// Corner (30, 20) is (-5, -5) from the center; rotated 90 it lands
	// at (5, -5), so (40, 20).
	p := e.doc.Elements["mv"].Geometry.Segments[0].Point
	if math.Abs(p.X-40) > 1e-9 || math.Abs(p.Y-20) > 1e-9 {
		t.Errorf("rotated corner = %v, want (40, 20)", p)
	}
}

func TestSelectionBoundsMerged(t *testing.T) {
	e := loadedEngine(t, twoRectDoc())
	e.SetSelection([]string{"a", "mv"})

	b := e.SelectionBounds()
	if b == nil {
		t.Fatal("no bounds")
	}
	if b.MinX != 0 || b.MinY != 0 || b.MaxX != 40 || b.MaxY != 30 {
		t.Errorf("bounds = %+v", b)
	}
}

func TestUpdateDocumentKeepsSurvivingSelection(t *testing.T) {
	e := loadedEngine(t, twoRectDoc())
	e.SetSelection([]string{"a", "mv"})

	doc := twoRectDoc()
	delete(doc.Elements, "a")
	doc.Roots = []string{"mv"}
	data, _ := json.Marshal(doc)
	if err := e.UpdateDocument(string(data)); err != nil {
		t.Fatal(err)
	}

	if sel := e.Selection(); len(sel) != 1 || sel[0] != "mv" {
		t.Errorf("selection = %v, want [mv]", sel)
	}
}

func TestGuideManagement(t *testing.T) {
	e := loadedEngine(t, twoRectDoc())

	e.AddGuide("g1", document.GuideAxisX, 100)
	if !e.MoveGuide("g1", 120) {
		t.Error("move failed")
	}
	if e.doc.Guides[0].Position != 120 {
		t.Errorf("position = %v, want 120", e.doc.Guides[0].Position)
	}
	if !e.RemoveGuide("g1") || len(e.doc.Guides) != 0 {
		t.Error("remove failed")
	}
	if e.RemoveGuide("g1") {
		t.Error("double remove reported success")
	}
}

func TestGuideOpsWithoutDocument(t *testing.T) {
	e := NewEngine(Options{})

	if g := e.AddGuide("g1", document.GuideAxisX, 100); g.ID != "" {
		t.Errorf("guide created with no document: %+v", g)
	}
	if e.MoveGuide("g1", 120) {
		t.Error("move succeeded with no document")
	}
	if e.RemoveGuide("g1") {
		t.Error("remove succeeded with no document")
	}
}

func TestRenderSampleDocument(t *testing.T) {
	e := NewEngine(Options{})
	e.LoadSampleDocument("doc_sample")

	out := e.Render()
	var commands []DrawCommand
	if err := json.Unmarshal([]byte(out), &commands); err != nil {
		t.Fatal(err)
	}
	// Three root rects plus two group leaves.
	if len(commands) != 5 {
		t.Fatalf("got %d commands, want 5", len(commands))
	}
	for _, c := range commands {
		if c.Op != "path" || len(c.Transform) != 6 || len(c.Path) == 0 {
			t.Errorf("malformed command %+v", c)
		}
	}
	if !strings.Contains(out, "el_rect1") {
		t.Error("missing element id in render output")
	}
}

func TestRenderSkipsHidden(t *testing.T) {
	doc := twoRectDoc()
	el := doc.Elements["a"]
	el.Visible = false
	doc.Elements["a"] = el
	e := loadedEngine(t, doc)

	var commands []DrawCommand
	if err := json.Unmarshal([]byte(e.Render()), &commands); err != nil {
		t.Fatal(err)
	}
	if len(commands) != 1 || commands[0].ElementID != "mv" {
		t.Errorf("commands = %+v, want only mv", commands)
	}
}

type recordingSink struct {
	deltas []gesture.TransformDelta
}

func (r *recordingSink) ApplyTransformDeltas(d []gesture.TransformDelta) {
	r.deltas = append(r.deltas, d...)
}

func TestPointerUpReportsDeltas(t *testing.T) {
	sink := &recordingSink{}
	e := NewEngine(Options{DeltaSink: sink})

	doc := twoRectDoc()
	gid := "g"
	doc.Elements["g"] = document.Element{
		ID: "g", Type: document.ElementTypeGroup, Children: []string{"c"},
		Transform: &document.Transform{TX: 100, TY: 100, SX: 1, SY: 1},
		Visible:   true,
	}
	doc.Elements["c"] = document.Element{
		ID: "c", Type: document.ElementTypePath, Parent: &gid,
		Geometry: document.RectPath(0, 0, 10, 10),
		Style:    document.Style{Opacity: 1},
		Visible:  true,
	}
	doc.Roots = append(doc.Roots, "g")
	data, _ := json.Marshal(doc)
	if err := e.LoadDocument(string(data)); err != nil {
		t.Fatal(err)
	}

	e.SetSelection([]string{"g"})
	e.PointerDown(105, 105, gesture.HandleMove, false)
	e.PointerMove(205, 105)
	e.PointerUp()

	if len(sink.deltas) != 1 || sink.deltas[0].ElementID != "g" {
		t.Fatalf("deltas = %+v, want one for g", sink.deltas)
	}
	x, _ := sink.deltas[0].After.TransformPoint(0, 0)
	if math.Abs(x-200) > 1e-9 {
		t.Errorf("after tx = %v, want 200", x)
	}
}
