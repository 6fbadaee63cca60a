package engine

import (
	"github.com/sketchd/sketchd/backend-go/internal/geom"
	"github.com/sketchd/sketchd/backend-go/internal/gesture"
	"github.com/sketchd/sketchd/backend-go/internal/guides"
	"github.com/sketchd/sketchd/backend-go/internal/snap"
)

// Overlay is the guideline state the frontend renders on top of the
// canvas each frame: the alignment lines, the distance badges, and the
// sticky snap state. Lines carry the world-space extent to draw so the
// frontend stays a dumb renderer.
type Overlay struct {
	Lines     []GuideLine            `json:"lines"`
	Distances []guides.DistanceMatch `json:"distances"`
	Sticky    snap.State             `json:"sticky"`
}

// GuideLine is one alignment line to draw, spanning every contributor.
type GuideLine struct {
	Role       guides.Role `json:"role"`
	Position   float64     `json:"position"`
	Start      float64     `json:"start"`
	End        float64     `json:"end"`
	ElementIDs []string    `json:"elementIds"`
	Manual     bool        `json:"manual"`
}

// compileOverlay builds the renderable overlay from this frame's matches.
// The line extent spans the snapped moving bounds plus every contributor's
// bounds along the perpendicular axis, so a line visually connects what it
// aligns.
func (e *Engine) compileOverlay(st *gesture.State, snapped geom.Bounds, alignments []guides.Match, distances []guides.DistanceMatch) Overlay {
	byID := map[string]geom.Bounds{}
	for _, c := range e.lastCandidates {
		byID[c.ID] = c.Bounds
	}

	var lines []GuideLine
	for _, m := range alignments {
		horizontal := m.Role.Horizontal()

		start, end := perpRange(snapped, horizontal)
		for _, id := range m.ElementIDs {
			b, ok := byID[id]
			if !ok {
				if id == guides.FrameContributor {
					if f := e.referenceFrame(); f != nil {
						b = *f
						ok = true
					}
				}
				if !ok {
					continue
				}
			}
			s, en := perpRange(b, horizontal)
			if s < start {
				start = s
			}
			if en > end {
				end = en
			}
		}

		lines = append(lines, GuideLine{
			Role:       m.Role,
			Position:   m.Position,
			Start:      start,
			End:        end,
			ElementIDs: m.ElementIDs,
			Manual:     m.Manual,
		})
	}

	shown := append([]guides.DistanceMatch(nil), distances...)
	shown = append(shown, e.machine.VirtualMatches()...)

	return Overlay{
		Lines:     lines,
		Distances: shown,
		Sticky:    e.machine.State(),
	}
}

// perpRange returns a box's extent along the axis perpendicular to the
// alignment line: a vertical line (horizontal role) spans Y.
func perpRange(b geom.Bounds, horizontalRole bool) (float64, float64) {
	if horizontalRole {
		return b.MinY, b.MaxY
	}
	return b.MinX, b.MaxX
}
