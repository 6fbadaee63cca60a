package geom

import (
	"math"
	"testing"
)

const eps = 1e-9

func TestMultiplyAssociative(t *testing.T) {
	a := RotateAround(30, 5, 5)
	b := ScaleAround(2, 0.5, -3, 10)
	c := Translate(7, -2)

	left := a.Multiply(b).Multiply(c)
	right := a.Multiply(b.Multiply(c))

	if !left.NearlyEqual(right, eps) {
		t.Errorf("(A*B)*C = %v, A*(B*C) = %v", left, right)
	}
}

func TestInvertRoundTrip(t *testing.T) {
	cases := []Matrix{
		Identity(),
		Translate(10, -4),
		RotateAround(45, 3, 3),
		ScaleAround(2, 3, 1, 1),
		FromRecord(5, 5, 17, 1.5, 0.75),
	}

	for _, m := range cases {
		inv, ok := m.Invert()
		if !ok {
			t.Fatalf("matrix %v unexpectedly singular", m)
		}
		if got := m.Multiply(inv); !got.IsIdentity() && !got.NearlyEqual(Identity(), eps) {
			t.Errorf("M * inv(M) = %v, want identity", got)
		}
	}
}

func TestInvertSingular(t *testing.T) {
	if _, ok := Scale(0, 5).Invert(); ok {
		t.Error("zero-scale matrix reported as invertible")
	}
	if inv, _ := Scale(0, 0).Invert(); !inv.IsIdentity() {
		t.Errorf("singular inverse fallback = %v, want identity", inv)
	}
}

func TestMultiplyOrderMatters(t *testing.T) {
	a := Translate(10, 0)
	b := RotateDegrees(90)

	ab := a.Multiply(b)
	ba := b.Multiply(a)

	if ab.NearlyEqual(ba, eps) {
		t.Error("translate*rotate equals rotate*translate; composition should not commute")
	}
}

func TestRotateAroundPivot(t *testing.T) {
	// Rotating the pivot itself is a no-op.
	m := RotateAround(137, 4, -2)
	x, y := m.TransformPoint(4, -2)
	if math.Abs(x-4) > eps || math.Abs(y+2) > eps {
		t.Errorf("pivot moved to (%v, %v)", x, y)
	}

	// 90 degrees about (5,5) carries (6,5) to (5,6).
	m = RotateAround(90, 5, 5)
	x, y = m.TransformPoint(6, 5)
	if math.Abs(x-5) > eps || math.Abs(y-6) > eps {
		t.Errorf("got (%v, %v), want (5, 6)", x, y)
	}
}

func TestScaleAroundPivot(t *testing.T) {
	m := ScaleAround(2, 2, 10, 10)

	x, y := m.TransformPoint(10, 10)
	if math.Abs(x-10) > eps || math.Abs(y-10) > eps {
		t.Errorf("pivot moved to (%v, %v)", x, y)
	}

	x, y = m.TransformPoint(15, 10)
	if math.Abs(x-20) > eps || math.Abs(y-10) > eps {
		t.Errorf("got (%v, %v), want (20, 10)", x, y)
	}
}

func TestRotatedBoundsGrowth(t *testing.T) {
	// A 10x10 box rotated 45 degrees about its center produces an AABB
	// with side 10*sqrt(2).
	box := Bounds{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}
	m := RotateAround(45, 5, 5)

	got := m.TransformBounds(box)
	want := 10 * math.Sqrt2

	if math.Abs(got.Width()-want) > 1e-6 || math.Abs(got.Height()-want) > 1e-6 {
		t.Errorf("rotated AABB is %vx%v, want %vx%v", got.Width(), got.Height(), want, want)
	}
	if got.Width() <= box.Width() {
		t.Error("rotated AABB did not grow")
	}
}

func TestFromRecordOrder(t *testing.T) {
	// Translate x Rotate x Scale: the composed matrix must match the
	// explicit product.
	got := FromRecord(3, 4, 30, 2, 0.5)
	want := Translate(3, 4).Multiply(RotateDegrees(30)).Multiply(Scale(2, 0.5))

	if !got.NearlyEqual(want, eps) {
		t.Errorf("FromRecord = %v, want %v", got, want)
	}
}
