package geom

import "math"

// Bounds represents an axis-aligned bounding box. Bounds are derived,
// never stored on elements; they must be recomputed after any mutation.
type Bounds struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

// Width returns the horizontal extent of the box.
func (b Bounds) Width() float64 {
	return b.MaxX - b.MinX
}

// Height returns the vertical extent of the box.
func (b Bounds) Height() float64 {
	return b.MaxY - b.MinY
}

// Center returns the center point of the box.
func (b Bounds) Center() (float64, float64) {
	return (b.MinX + b.MaxX) / 2, (b.MinY + b.MaxY) / 2
}

// Contains checks if a point is inside the box.
func (b Bounds) Contains(x, y float64) bool {
	return x >= b.MinX && x <= b.MaxX && y >= b.MinY && y <= b.MaxY
}

// IsFinite reports whether every side of the box is a finite number.
func (b Bounds) IsFinite() bool {
	return !math.IsNaN(b.MinX) && !math.IsInf(b.MinX, 0) &&
		!math.IsNaN(b.MinY) && !math.IsInf(b.MinY, 0) &&
		!math.IsNaN(b.MaxX) && !math.IsInf(b.MaxX, 0) &&
		!math.IsNaN(b.MaxY) && !math.IsInf(b.MaxY, 0)
}

// Union returns the smallest box containing both boxes.
func (b Bounds) Union(other Bounds) Bounds {
	return Bounds{
		MinX: min(b.MinX, other.MinX),
		MinY: min(b.MinY, other.MinY),
		MaxX: max(b.MaxX, other.MaxX),
		MaxY: max(b.MaxY, other.MaxY),
	}
}

// Translate returns the box shifted by (dx, dy).
func (b Bounds) Translate(dx, dy float64) Bounds {
	return Bounds{
		MinX: b.MinX + dx,
		MinY: b.MinY + dy,
		MaxX: b.MaxX + dx,
		MaxY: b.MaxY + dy,
	}
}

// Inflate returns the box grown by d on every side.
func (b Bounds) Inflate(d float64) Bounds {
	return Bounds{
		MinX: b.MinX - d,
		MinY: b.MinY - d,
		MaxX: b.MaxX + d,
		MaxY: b.MaxY + d,
	}
}

// MergeBounds merges a list of boxes via component-wise min/max.
// Returns nil for an empty list or when no box is finite; a nil result
// means "exclude from this computation", never a zero-size box.
func MergeBounds(list []Bounds) *Bounds {
	var merged *Bounds
	for _, b := range list {
		if !b.IsFinite() {
			continue
		}
		if merged == nil {
			box := b
			merged = &box
			continue
		}
		*merged = merged.Union(b)
	}
	return merged
}

// BoundsOfPoints accumulates min/max over a point list.
// Returns nil when the list is empty or contains no finite points.
func BoundsOfPoints(points []Point) *Bounds {
	var merged *Bounds
	for _, p := range points {
		if math.IsNaN(p.X) || math.IsInf(p.X, 0) || math.IsNaN(p.Y) || math.IsInf(p.Y, 0) {
			continue
		}
		if merged == nil {
			merged = &Bounds{MinX: p.X, MinY: p.Y, MaxX: p.X, MaxY: p.Y}
			continue
		}
		merged.MinX = min(merged.MinX, p.X)
		merged.MinY = min(merged.MinY, p.Y)
		merged.MaxX = max(merged.MaxX, p.X)
		merged.MaxY = max(merged.MaxY, p.Y)
	}
	return merged
}

// Point is a 2D point.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
