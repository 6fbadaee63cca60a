package guides

import (
	"math"

	"github.com/sketchd/sketchd/backend-go/internal/document"
	"github.com/sketchd/sketchd/backend-go/internal/geom"
)

// mergeEps treats candidate positions this close together as collinear.
const mergeEps = 1e-6

// FrameContributor is the pseudo element id used for reference-frame
// alignments (active bounded frame, or the viewport when none is active).
const FrameContributor = "frame"

type edges struct {
	l, r, t, b, cx, cy float64
}

func boundsEdges(b geom.Bounds) edges {
	cx, cy := b.Center()
	return edges{l: b.MinX, r: b.MaxX, t: b.MinY, b: b.MaxY, cx: cx, cy: cy}
}

// value returns the moving-bounds coordinate for a role.
func (e edges) value(role Role) float64 {
	switch role {
	case RoleLeft:
		return e.l
	case RoleRight:
		return e.r
	case RoleTop:
		return e.t
	case RoleBottom:
		return e.b
	case RoleCenterX:
		return e.cx
	default:
		return e.cy
	}
}

// DetectAlignments finds the single best alignment per axis group: at most
// one horizontal (left/right/centerX) and one vertical (top/bottom/centerY)
// guideline is surfaced even when several candidates tie within threshold.
// Selection keeps the lowest priority number; ties go to the candidate
// discovered first.
func DetectAlignments(cfg Config, in Input) (horizontal, vertical *Match) {
	threshold := cfg.canvasThreshold()
	moving := boundsEdges(in.Moving)

	var hMatches, vMatches []Match

	consider := func(role Role, position float64, id string, priority int, manual bool) {
		delta := position - moving.value(role)
		if math.Abs(delta) > threshold {
			return
		}

		list := &vMatches
		if role.Horizontal() {
			list = &hMatches
		}

		// Collinear contributors merge into one match.
		for i := range *list {
			m := &(*list)[i]
			if m.Role == role && math.Abs(m.Position-position) < mergeEps {
				m.ElementIDs = append(m.ElementIDs, id)
				if priority < m.Priority {
					m.Priority = priority
				}
				return
			}
		}

		*list = append(*list, Match{
			Role:       role,
			Position:   position,
			ElementIDs: []string{id},
			Manual:     manual,
			Priority:   priority,
			Offset:     delta,
		})
	}

	considerBox := func(id string, b geom.Bounds) {
		c := boundsEdges(b)

		// Edges match the same-type edge of the other box or the opposite
		// edge (touching).
		consider(RoleLeft, c.l, id, PriorityEdge, false)
		consider(RoleLeft, c.r, id, PriorityEdge, false)
		consider(RoleRight, c.r, id, PriorityEdge, false)
		consider(RoleRight, c.l, id, PriorityEdge, false)
		consider(RoleCenterX, c.cx, id, PriorityCenter, false)

		consider(RoleTop, c.t, id, PriorityEdge, false)
		consider(RoleTop, c.b, id, PriorityEdge, false)
		consider(RoleBottom, c.b, id, PriorityEdge, false)
		consider(RoleBottom, c.t, id, PriorityEdge, false)
		consider(RoleCenterY, c.cy, id, PriorityCenter, false)
	}

	for _, cand := range in.Candidates {
		if in.Exclude[cand.ID] {
			continue
		}
		considerBox(cand.ID, cand.Bounds)
	}

	for _, g := range in.ManualGuides {
		switch g.Axis {
		case document.GuideAxisX:
			consider(RoleLeft, g.Position, g.ID, PriorityCenter, true)
			consider(RoleRight, g.Position, g.ID, PriorityCenter, true)
			consider(RoleCenterX, g.Position, g.ID, PriorityCenter, true)
		case document.GuideAxisY:
			consider(RoleTop, g.Position, g.ID, PriorityCenter, true)
			consider(RoleBottom, g.Position, g.ID, PriorityCenter, true)
			consider(RoleCenterY, g.Position, g.ID, PriorityCenter, true)
		}
	}

	if in.Frame != nil {
		f := boundsEdges(*in.Frame)

		consider(RoleLeft, f.l, FrameContributor, PriorityEdge, false)
		consider(RoleRight, f.r, FrameContributor, PriorityEdge, false)
		consider(RoleTop, f.t, FrameContributor, PriorityEdge, false)
		consider(RoleBottom, f.b, FrameContributor, PriorityEdge, false)
		consider(RoleCenterX, f.cx, FrameContributor, PriorityCenter, false)
		consider(RoleCenterY, f.cy, FrameContributor, PriorityCenter, false)
	}

	return pickBest(hMatches), pickBest(vMatches)
}

// pickBest keeps the lowest priority number in discovery order.
func pickBest(matches []Match) *Match {
	var best *Match
	for i := range matches {
		if best == nil || matches[i].Priority < best.Priority {
			best = &matches[i]
		}
	}
	return best
}
