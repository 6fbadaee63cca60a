package snap

import (
	"math"

	"github.com/sketchd/sketchd/backend-go/internal/geom"
	"github.com/sketchd/sketchd/backend-go/internal/guides"
)

// Config tunes the snap machine. Threshold is in canvas units (the caller
// divides the configured pixel threshold by zoom). DistanceUnit is the
// grid for the nearest-multiple gap snap; zero disables it.
type Config struct {
	Threshold    float64
	DistanceUnit float64
}

// State is the externally visible sticky state: two independent boolean
// axes plus the residual pointer movement currently being absorbed.
type State struct {
	StickyX bool       `json:"stickyX"`
	StickyY bool       `json:"stickyY"`
	Offset  geom.Point `json:"accumulatedOffset"`
}

// NeighborGap describes the moving element's current gap to its nearest
// neighbor along one axis, for the nearest-multiple snap. Sign is +1 when
// a positive axis delta widens the gap.
type NeighborGap struct {
	Axis        guides.Axis
	Gap         float64
	Sign        float64
	MovingID    string
	NeighborID  string
	MovingStart float64
	MovingEnd   float64
}

// AxisInput is the per-axis candidate set for one pointer move: the best
// alignment match, the best detected distance match, and the nearest
// neighbor gap. Distance candidates are only considered when no direct
// alignment offset exists for the axis.
type AxisInput struct {
	Align    *guides.Match
	Distance *guides.DistanceMatch
	Gap      *NeighborGap
}

// Machine converts raw cumulative pointer deltas into possibly snapped
// deltas. While an axis is sticky the reported movement stays clamped to
// the guideline and the residual accumulates; once the residual exceeds
// twice the threshold the axis releases back to raw movement. The 2x band
// prevents oscillation at the threshold boundary and lets the user pull
// away from a snap deliberately.
type Machine struct {
	cfg Config

	stickyX, stickyY   bool
	snappedX, snappedY float64
	lastRawX, lastRawY float64

	virtual []guides.DistanceMatch
}

// New creates a snap machine for one gesture.
func New(cfg Config) *Machine {
	return &Machine{cfg: cfg}
}

// Apply processes one pointer move. rawDX/rawDY are the cumulative raw
// deltas since gesture start; the return values are the deltas to commit.
func (m *Machine) Apply(rawDX, rawDY float64, x, y AxisInput) (float64, float64) {
	m.virtual = m.virtual[:0]
	m.lastRawX, m.lastRawY = rawDX, rawDY

	outX := m.applyAxis(rawDX, x, &m.stickyX, &m.snappedX)
	outY := m.applyAxis(rawDY, y, &m.stickyY, &m.snappedY)
	return outX, outY
}

func (m *Machine) applyAxis(raw float64, in AxisInput, sticky *bool, snapped *float64) float64 {
	offset, ok := m.bestOffset(in)

	if ok && math.Abs(offset) <= m.cfg.Threshold {
		*sticky = true
		*snapped = raw + offset
		return *snapped
	}

	if *sticky {
		residual := raw - *snapped
		if math.Abs(residual) > 2*m.cfg.Threshold {
			*sticky = false
			return raw
		}
		return *snapped
	}

	return raw
}

// bestOffset picks the axis correction: the alignment offset when present,
// otherwise the smaller of the detected distance offset and the
// nearest-multiple gap offset. Choosing the multiple invents a virtual
// distance match so the overlay can render a gap no literal pair produced.
func (m *Machine) bestOffset(in AxisInput) (float64, bool) {
	if in.Align != nil {
		return in.Align.Offset, true
	}

	offset := 0.0
	found := false

	if in.Distance != nil {
		offset = in.Distance.Offset
		found = true
	}

	if in.Gap != nil && m.cfg.DistanceUnit > 0 && in.Gap.Gap > 0 {
		multiple := math.Round(in.Gap.Gap/m.cfg.DistanceUnit) * m.cfg.DistanceUnit
		if multiple > 0 {
			o := (multiple - in.Gap.Gap) * in.Gap.Sign
			if math.Abs(o) <= m.cfg.Threshold && (!found || math.Abs(o) < math.Abs(offset)) {
				offset = o
				found = true
				m.virtual = append(m.virtual, guides.DistanceMatch{
					Axis:        in.Gap.Axis,
					Gap:         multiple,
					Start:       in.Gap.MovingStart,
					End:         in.Gap.MovingEnd,
					ElementIDs:  [2]string{in.Gap.MovingID, in.Gap.NeighborID},
					MovingStart: in.Gap.MovingStart,
					MovingEnd:   in.Gap.MovingEnd,
					Offset:      o,
				})
			}
		}
	}

	return offset, found
}

// State reports the current sticky flags and accumulated residual.
func (m *Machine) State() State {
	s := State{StickyX: m.stickyX, StickyY: m.stickyY}
	if m.stickyX {
		s.Offset.X = m.lastRawX - m.snappedX
	}
	if m.stickyY {
		s.Offset.Y = m.lastRawY - m.snappedY
	}
	return s
}

// VirtualMatches returns the distance matches the machine invented for the
// nearest-multiple case on the last Apply, for overlay rendering.
func (m *Machine) VirtualMatches() []guides.DistanceMatch {
	return m.virtual
}

// Reset returns both axes to unsnapped. Safe to call repeatedly.
func (m *Machine) Reset() {
	m.stickyX, m.stickyY = false, false
	m.snappedX, m.snappedY = 0, 0
	m.lastRawX, m.lastRawY = 0, 0
	m.virtual = nil
}
