package guides

import (
	"math"
	"testing"

	"github.com/sketchd/sketchd/backend-go/internal/document"
	"github.com/sketchd/sketchd/backend-go/internal/geom"
)

var cfg = Config{Threshold: 3, Zoom: 1}

func box(minX, minY, maxX, maxY float64) geom.Bounds {
	return geom.Bounds{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
}

func TestCenterBeatsEdge(t *testing.T) {
	// Moving box center matches one element's center exactly while its left
	// edge also touches a third element's right edge within threshold: the
	// surfaced horizontal match must be the center alignment.
	moving := box(100, 100, 120, 120) // centerX = 110
	in := Input{
		MovingID: "mv",
		Moving:   moving,
		Candidates: []Candidate{
			{ID: "edge", Bounds: box(60, 100, 99, 120)},    // right edge at 99, 1 from moving left
			{ID: "center", Bounds: box(105, 200, 115, 220)}, // centerX = 110
		},
	}

	h, _ := DetectAlignments(cfg, in)
	if h == nil {
		t.Fatal("no horizontal match")
	}
	if h.Role != RoleCenterX || h.ElementIDs[0] != "center" {
		t.Errorf("got role %s from %v, want centerX from center", h.Role, h.ElementIDs)
	}
	if math.Abs(h.Offset) > 1e-9 {
		t.Errorf("exact center match offset = %v, want 0", h.Offset)
	}
}

func TestOppositeEdgeMatch(t *testing.T) {
	// A box "touching" another: moving left edge near the other's right edge.
	moving := box(101, 0, 121, 20)
	in := Input{
		Moving:     moving,
		Candidates: []Candidate{{ID: "a", Bounds: box(50, 50, 100, 70)}},
	}

	h, _ := DetectAlignments(cfg, in)
	if h == nil {
		t.Fatal("no horizontal match")
	}
	if h.Role != RoleLeft || h.Position != 100 {
		t.Errorf("got %s at %v, want left at 100", h.Role, h.Position)
	}
	if math.Abs(h.Offset+1) > 1e-9 {
		t.Errorf("offset = %v, want -1", h.Offset)
	}
}

func TestThresholdScalesWithZoom(t *testing.T) {
	moving := box(102, 0, 122, 20)
	in := Input{
		Moving:     moving,
		Candidates: []Candidate{{ID: "a", Bounds: box(100, 50, 120, 70)}},
	}

	// 2 canvas units off; at zoom 1 and threshold 3 it matches.
	if h, _ := DetectAlignments(Config{Threshold: 3, Zoom: 1}, in); h == nil {
		t.Error("expected match at zoom 1")
	}
	// At zoom 2 the canvas threshold shrinks to 1.5 and the match vanishes.
	if h, _ := DetectAlignments(Config{Threshold: 3, Zoom: 2}, in); h != nil {
		t.Errorf("unexpected match at zoom 2: %+v", h)
	}
}

func TestCollinearContributorsMerge(t *testing.T) {
	moving := box(99, 0, 119, 20)
	in := Input{
		Moving: moving,
		Candidates: []Candidate{
			{ID: "a", Bounds: box(100, 40, 126, 60)},
			{ID: "b", Bounds: box(100, 80, 130, 100)},
		},
	}

	h, _ := DetectAlignments(cfg, in)
	if h == nil {
		t.Fatal("no horizontal match")
	}
	if len(h.ElementIDs) != 2 {
		t.Errorf("contributors = %v, want both a and b", h.ElementIDs)
	}
}

func TestManualGuidePriority(t *testing.T) {
	moving := box(99, 0, 119, 20)
	in := Input{
		Moving:     moving,
		Candidates: []Candidate{{ID: "a", Bounds: box(98, 40, 130, 60)}},
		ManualGuides: []document.Guide{
			{ID: "guide1", Axis: document.GuideAxisX, Position: 101},
		},
	}

	h, _ := DetectAlignments(cfg, in)
	if h == nil {
		t.Fatal("no horizontal match")
	}
	if !h.Manual || h.Position != 101 {
		t.Errorf("got %+v, want manual guide at 101", h)
	}
}

func TestExclusionSet(t *testing.T) {
	moving := box(100, 0, 120, 20)
	in := Input{
		Moving:     moving,
		Exclude:    map[string]bool{"self": true, "sibling": true},
		Candidates: []Candidate{
			{ID: "self", Bounds: box(100, 0, 120, 20)},
			{ID: "sibling", Bounds: box(100, 30, 120, 50)},
		},
	}

	h, v := DetectAlignments(cfg, in)
	if h != nil || v != nil {
		t.Errorf("excluded elements produced matches: h=%+v v=%+v", h, v)
	}
}

func TestFrameCenterAlignment(t *testing.T) {
	frame := box(0, 0, 200, 100)
	moving := box(89, 39, 109, 59) // center (99, 49), frame center (100, 50)
	in := Input{
		Moving: moving,
		Frame:  &frame,
	}

	h, v := DetectAlignments(cfg, in)
	if h == nil || h.Role != RoleCenterX || h.ElementIDs[0] != FrameContributor {
		t.Errorf("horizontal = %+v, want frame centerX", h)
	}
	if v == nil || v.Role != RoleCenterY {
		t.Errorf("vertical = %+v, want frame centerY", v)
	}
}

func TestFirstDiscoveredWinsTie(t *testing.T) {
	// Two edge candidates, both within threshold at different positions:
	// the one discovered first is kept even though the second is closer.
	moving := box(100, 0, 120, 20)
	in := Input{
		Moving: moving,
		Candidates: []Candidate{
			{ID: "far", Bounds: box(102, 40, 130, 60)},
			{ID: "near", Bounds: box(101, 80, 130, 100)},
		},
	}

	h, _ := DetectAlignments(cfg, in)
	if h == nil {
		t.Fatal("no horizontal match")
	}
	if h.ElementIDs[0] != "far" {
		t.Errorf("winner = %v, want first-discovered 'far'", h.ElementIDs)
	}
}

func TestOneMatchPerAxisGroup(t *testing.T) {
	moving := box(100, 100, 120, 120)
	in := Input{
		Moving: moving,
		Candidates: []Candidate{
			{ID: "a", Bounds: box(101, 101, 121, 121)},
			{ID: "b", Bounds: box(99, 99, 119, 119)},
		},
	}

	h, v := DetectAlignments(cfg, in)
	if h == nil || v == nil {
		t.Fatal("expected one match on each axis")
	}
}
