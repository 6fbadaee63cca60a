package guides

import (
	"math"
	"sort"

	"github.com/sketchd/sketchd/backend-go/internal/geom"
)

// gapEps is the tolerance for treating an existing pairwise gap as equal
// to a scanned integer distance.
const gapEps = 1e-6

// existingGap is a measured gap between two adjacent static elements.
type existingGap struct {
	gap        float64
	start, end float64
	ids        [2]string
}

// DetectDistances finds equal-gap relationships between the moving element
// and its neighborhood. Both strategies are gated by the distance feature
// flag and the per-gesture distance mode. Overlapping boxes never produce
// a match; only positive gaps count.
func DetectDistances(cfg Config, in Input, horizontal, vertical *Match) []DistanceMatch {
	if !cfg.EnableDistance || !in.DistanceMode {
		return nil
	}

	var out []DistanceMatch

	out = append(out, alignmentImplied(in, horizontal, AxisVertical)...)
	out = append(out, alignmentImplied(in, vertical, AxisHorizontal)...)

	threshold := cfg.canvasThreshold()
	out = append(out, equalGapChain(in, AxisHorizontal, threshold)...)
	out = append(out, equalGapChain(in, AxisVertical, threshold)...)

	return out
}

// alignmentImplied emits the perpendicular gap between the moving element
// and the single other element of an alignment match: an edge alignment on
// one axis implies a distance readout along the other.
func alignmentImplied(in Input, m *Match, gapAxis Axis) []DistanceMatch {
	if m == nil || m.Manual || len(m.ElementIDs) != 1 || m.ElementIDs[0] == FrameContributor {
		return nil
	}

	other, ok := findCandidate(in.Candidates, m.ElementIDs[0])
	if !ok {
		return nil
	}

	gap, start, end, positive := gapBetween(in.Moving, other.Bounds, gapAxis)
	if !positive {
		return nil
	}

	return []DistanceMatch{{
		Axis:        gapAxis,
		Gap:         gap,
		Start:       start,
		End:         end,
		ElementIDs:  [2]string{in.MovingID, other.ID},
		MovingStart: start,
		MovingEnd:   end,
	}}
}

// equalGapChain partitions candidates into the band whose cross-axis range
// overlaps the moving element, sorts the band along the axis, measures
// every existing adjacent gap, and then scans integer distances around the
// moving element's own gap to each neighbor. A match is emitted wherever
// an existing gap equals a scanned distance, letting the user snap their
// gap to any gap already present in the composition — including one
// between two other elements entirely.
func equalGapChain(in Input, axis Axis, threshold float64) []DistanceMatch {
	band := bandCandidates(in, axis)
	if len(band) == 0 {
		return nil
	}

	sort.Slice(band, func(i, j int) bool {
		return axisMin(band[i].Bounds, axis) < axisMin(band[j].Bounds, axis)
	})

	var existing []existingGap
	for i := 0; i+1 < len(band); i++ {
		start := axisMax(band[i].Bounds, axis)
		end := axisMin(band[i+1].Bounds, axis)
		if end-start <= 0 {
			continue
		}
		existing = append(existing, existingGap{
			gap:   end - start,
			start: start,
			end:   end,
			ids:   [2]string{band[i].ID, band[i+1].ID},
		})
	}
	if len(existing) == 0 {
		return nil
	}

	var out []DistanceMatch
	for _, neighbor := range band {
		gap, mvStart, mvEnd, sign, positive := movingGap(in.Moving, neighbor.Bounds, axis)
		if !positive {
			continue
		}

		lo := int(math.Ceil(gap - threshold))
		hi := int(math.Floor(gap + threshold))
		for d := lo; d <= hi; d++ {
			if d <= 0 {
				continue
			}
			for _, eg := range existing {
				if math.Abs(eg.gap-float64(d)) > gapEps {
					continue
				}
				out = append(out, DistanceMatch{
					Axis:        axis,
					Gap:         eg.gap,
					Start:       eg.start,
					End:         eg.end,
					ElementIDs:  eg.ids,
					MovingStart: mvStart,
					MovingEnd:   mvEnd,
					Offset:      (eg.gap - gap) * sign,
				})
			}
		}
	}
	return out
}

// bandCandidates keeps the candidates whose cross-axis range overlaps the
// moving element's range.
func bandCandidates(in Input, axis Axis) []Candidate {
	var band []Candidate
	for _, c := range in.Candidates {
		if in.Exclude[c.ID] {
			continue
		}
		if axis == AxisHorizontal {
			if c.Bounds.MinY < in.Moving.MaxY && c.Bounds.MaxY > in.Moving.MinY {
				band = append(band, c)
			}
		} else {
			if c.Bounds.MinX < in.Moving.MaxX && c.Bounds.MaxX > in.Moving.MinX {
				band = append(band, c)
			}
		}
	}
	return band
}

// movingGap measures the positive gap between the moving bounds and a
// neighbor along the axis. Sign is +1 when increasing the moving element's
// axis delta widens the gap.
func movingGap(moving, neighbor geom.Bounds, axis Axis) (gap, start, end, sign float64, ok bool) {
	mMin, mMax := axisMin(moving, axis), axisMax(moving, axis)
	nMin, nMax := axisMin(neighbor, axis), axisMax(neighbor, axis)

	switch {
	case mMin > nMax:
		return mMin - nMax, nMax, mMin, 1, true
	case nMin > mMax:
		return nMin - mMax, mMax, nMin, -1, true
	default:
		return 0, 0, 0, 0, false
	}
}

// gapBetween measures the positive gap between two boxes along an axis.
func gapBetween(a, b geom.Bounds, axis Axis) (gap, start, end float64, ok bool) {
	g, s, e, _, positive := movingGap(a, b, axis)
	return g, s, e, positive
}

func axisMin(b geom.Bounds, axis Axis) float64 {
	if axis == AxisHorizontal {
		return b.MinX
	}
	return b.MinY
}

func axisMax(b geom.Bounds, axis Axis) float64 {
	if axis == AxisHorizontal {
		return b.MaxX
	}
	return b.MaxY
}

func findCandidate(list []Candidate, id string) (Candidate, bool) {
	for _, c := range list {
		if c.ID == id {
			return c, true
		}
	}
	return Candidate{}, false
}
