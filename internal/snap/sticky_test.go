package snap

import (
	"math"
	"testing"

	"github.com/sketchd/sketchd/backend-go/internal/guides"
)

func alignAt(offset float64) AxisInput {
	return AxisInput{Align: &guides.Match{Role: guides.RoleLeft, Offset: offset}}
}

func TestSnapEngageAndClamp(t *testing.T) {
	m := New(Config{Threshold: 3})

	// Raw delta 10, guideline 2 further: reported movement lands on the
	// guideline.
	dx, dy := m.Apply(10, 0, alignAt(2), AxisInput{})
	if dx != 12 || dy != 0 {
		t.Errorf("snapped delta = (%v, %v), want (12, 0)", dx, dy)
	}

	s := m.State()
	if !s.StickyX || s.StickyY {
		t.Errorf("state = %+v, want sticky on X only", s)
	}
	if s.Offset.X != -2 {
		t.Errorf("residual = %v, want -2", s.Offset.X)
	}
}

func TestStickyRelease(t *testing.T) {
	// With threshold 3, an axis releases once the residual exceeds 6 and
	// the reported delta equals the raw input again.
	m := New(Config{Threshold: 3})

	m.Apply(10, 0, alignAt(1), AxisInput{}) // snapped at 11

	// Pulling away: no candidate anymore, residual 4 — still held.
	dx, _ := m.Apply(15, 0, AxisInput{}, AxisInput{})
	if dx != 11 {
		t.Errorf("held delta = %v, want 11", dx)
	}
	if !m.State().StickyX {
		t.Error("axis released inside hysteresis band")
	}

	// Residual 7 > 6: released, raw passes through.
	dx, _ = m.Apply(18, 0, AxisInput{}, AxisInput{})
	if dx != 18 {
		t.Errorf("released delta = %v, want raw 18", dx)
	}
	if m.State().StickyX {
		t.Error("axis still sticky after exceeding 2x threshold")
	}
}

func TestAxesIndependent(t *testing.T) {
	m := New(Config{Threshold: 3})

	dx, dy := m.Apply(5, 5, alignAt(1), AxisInput{})
	if dx != 6 || dy != 5 {
		t.Errorf("deltas = (%v, %v), want (6, 5)", dx, dy)
	}

	s := m.State()
	if !s.StickyX || s.StickyY {
		t.Errorf("state = %+v, want only X sticky", s)
	}
}

func TestBeyondThresholdNotEngaged(t *testing.T) {
	m := New(Config{Threshold: 3})

	dx, _ := m.Apply(10, 0, alignAt(5), AxisInput{})
	if dx != 10 {
		t.Errorf("delta = %v, want raw 10", dx)
	}
	if m.State().StickyX {
		t.Error("engaged beyond threshold")
	}
}

func TestNearestMultipleGapSnap(t *testing.T) {
	m := New(Config{Threshold: 3, DistanceUnit: 8})

	in := AxisInput{Gap: &NeighborGap{
		Axis: guides.AxisHorizontal, Gap: 17.5, Sign: 1,
		MovingID: "mv", NeighborID: "nb", MovingStart: 100, MovingEnd: 117.5,
	}}

	// Nearest multiple of 8 is 16: offset -1.5.
	dx, _ := m.Apply(0, 0, in, AxisInput{})
	if math.Abs(dx+1.5) > 1e-9 {
		t.Errorf("delta = %v, want -1.5", dx)
	}

	virtual := m.VirtualMatches()
	if len(virtual) != 1 || virtual[0].Gap != 16 {
		t.Errorf("virtual matches = %+v, want one with gap 16", virtual)
	}
	if virtual[0].ElementIDs != [2]string{"mv", "nb"} {
		t.Errorf("virtual ids = %v", virtual[0].ElementIDs)
	}
}

func TestAlignmentSuppressesMultiple(t *testing.T) {
	m := New(Config{Threshold: 3, DistanceUnit: 8})

	in := AxisInput{
		Align: &guides.Match{Role: guides.RoleLeft, Offset: 2},
		Gap:   &NeighborGap{Axis: guides.AxisHorizontal, Gap: 17.5, Sign: 1},
	}

	dx, _ := m.Apply(0, 0, in, AxisInput{})
	if dx != 2 {
		t.Errorf("delta = %v, want alignment offset 2", dx)
	}
	if len(m.VirtualMatches()) != 0 {
		t.Errorf("virtual matches emitted despite alignment: %v", m.VirtualMatches())
	}
}

func TestDistanceMatchOffsetUsed(t *testing.T) {
	m := New(Config{Threshold: 3})

	in := AxisInput{Distance: &guides.DistanceMatch{
		Axis: guides.AxisHorizontal, Gap: 20, Offset: 0.4,
	}}

	dx, _ := m.Apply(0, 0, in, AxisInput{})
	if math.Abs(dx-0.4) > 1e-9 {
		t.Errorf("delta = %v, want 0.4", dx)
	}
}

func TestResetIdempotent(t *testing.T) {
	m := New(Config{Threshold: 3})
	m.Apply(10, 0, alignAt(1), AxisInput{})

	m.Reset()
	m.Reset()

	s := m.State()
	if s.StickyX || s.StickyY || s.Offset.X != 0 || s.Offset.Y != 0 {
		t.Errorf("state after reset = %+v", s)
	}
}
