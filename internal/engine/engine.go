package engine

import (
	"encoding/json"
	"math"

	"github.com/sketchd/sketchd/backend-go/internal/document"
	"github.com/sketchd/sketchd/backend-go/internal/geom"
	"github.com/sketchd/sketchd/backend-go/internal/gesture"
	"github.com/sketchd/sketchd/backend-go/internal/guides"
	"github.com/sketchd/sketchd/backend-go/internal/resolve"
	"github.com/sketchd/sketchd/backend-go/internal/snap"
)

// Engine is the editor core: it owns the document, the selection, and the
// in-flight gesture, and runs the guideline and snap pipeline on every
// pointer move. It processes commands from the frontend and returns query
// results.
type Engine struct {
	doc  *document.Document
	caps *resolve.Capabilities

	viewport resolve.Viewport

	selection []string

	guideCfg guides.Config
	snapCfg  snap.Config
	machine  *snap.Machine
	commit   *gesture.Engine

	// Gesture state, nil when no pointer drag is in flight.
	gesture *gesture.State
	downX   float64
	downY   float64
	// Pointer angle at gesture start, for rotation handles.
	downAngle float64

	overlay Overlay
	// Candidate set from the last detection pass, for overlay extents.
	lastCandidates []guides.Candidate

	sink gesture.DeltaSink
}

// Options configures the engine at construction time.
type Options struct {
	Capabilities *resolve.Capabilities
	SnapConfig   snap.Config
	GuideConfig  guides.Config
	DeltaSink    gesture.DeltaSink
}

// NewEngine creates an engine with the given options. Zero-value thresholds
// fall back to the editor defaults.
func NewEngine(opts Options) *Engine {
	if opts.Capabilities == nil {
		opts.Capabilities = resolve.NewCapabilities()
	}
	if opts.SnapConfig.Threshold <= 0 {
		opts.SnapConfig.Threshold = 4
	}
	if opts.GuideConfig.Threshold <= 0 {
		opts.GuideConfig.Threshold = 4
	}
	if opts.GuideConfig.Zoom <= 0 {
		opts.GuideConfig.Zoom = 1
	}
	// Per-gesture DistanceMode is the user-facing switch; the config flag
	// only exists so tests can hard-disable the detector.
	opts.GuideConfig.EnableDistance = true

	return &Engine{
		caps:     opts.Capabilities,
		viewport: resolve.Viewport{Zoom: 1, IncludeStroke: true},
		guideCfg: opts.GuideConfig,
		snapCfg:  opts.SnapConfig,
		machine:  snap.New(opts.SnapConfig),
		commit:   gesture.NewEngine(opts.Capabilities),
		sink:     opts.DeltaSink,
	}
}

// --- Commands (frontend → backend) ---

// LoadDocument replaces the document from JSON and resets editor state.
func (e *Engine) LoadDocument(jsonData string) error {
	var doc document.Document
	if err := json.Unmarshal([]byte(jsonData), &doc); err != nil {
		return err
	}
	if doc.Elements == nil {
		doc.Elements = map[string]document.Element{}
	}

	e.doc = &doc
	e.selection = nil
	e.gesture = nil
	e.machine.Reset()
	e.overlay = Overlay{}
	return nil
}

// UpdateDocument reloads the document from JSON while preserving the
// selection where the elements still exist. Used when an external mutation
// lands during editing.
func (e *Engine) UpdateDocument(jsonData string) error {
	var doc document.Document
	if err := json.Unmarshal([]byte(jsonData), &doc); err != nil {
		return err
	}
	if doc.Elements == nil {
		doc.Elements = map[string]document.Element{}
	}

	e.doc = &doc

	var kept []string
	for _, id := range e.selection {
		if _, ok := doc.Elements[id]; ok {
			kept = append(kept, id)
		}
	}
	e.selection = kept

	// An in-flight gesture's snapshot no longer matches the document.
	e.gesture = nil
	e.machine.Reset()
	e.overlay = Overlay{}
	return nil
}

// UseDocument installs an already-decoded document, sharing the pointer
// with the caller. Editor state resets as for LoadDocument.
func (e *Engine) UseDocument(doc *document.Document) {
	if doc.Elements == nil {
		doc.Elements = map[string]document.Element{}
	}
	e.doc = doc
	e.selection = nil
	e.gesture = nil
	e.machine.Reset()
	e.overlay = Overlay{}
}

// LoadSampleDocument loads the built-in sample document.
func (e *Engine) LoadSampleDocument(docID string) {
	e.doc = document.NewSampleDocument(docID)
	e.selection = nil
	e.gesture = nil
	e.machine.Reset()
	e.overlay = Overlay{}
}

// Document returns the live document. Nil before the first load.
func (e *Engine) Document() *document.Document {
	return e.doc
}

// SetViewport updates the view context used for bounds and thresholds.
func (e *Engine) SetViewport(zoom, width, height float64) {
	if zoom <= 0 {
		zoom = 1
	}
	e.viewport = resolve.Viewport{Zoom: zoom, Width: width, Height: height, IncludeStroke: true}
	e.guideCfg.Zoom = zoom
}

// SetSelection replaces the selected element ids, dropping unknown ids.
func (e *Engine) SetSelection(ids []string) {
	var kept []string
	for _, id := range ids {
		if e.doc == nil {
			break
		}
		if _, ok := e.doc.Elements[id]; ok {
			kept = append(kept, id)
		}
	}
	e.selection = kept
}

// Selection returns the selected element ids.
func (e *Engine) Selection() []string {
	return append([]string(nil), e.selection...)
}

// AddGuide adds a manual guide and returns it.
func (e *Engine) AddGuide(id string, axis document.GuideAxis, position float64) document.Guide {
	if e.doc == nil {
		return document.Guide{}
	}
	g := document.Guide{ID: id, Axis: axis, Position: position}
	e.doc.Guides = append(e.doc.Guides, g)
	return g
}

// MoveGuide repositions a manual guide. Returns false for unknown ids.
func (e *Engine) MoveGuide(id string, position float64) bool {
	if e.doc == nil {
		return false
	}
	for i := range e.doc.Guides {
		if e.doc.Guides[i].ID == id {
			e.doc.Guides[i].Position = position
			return true
		}
	}
	return false
}

// RemoveGuide deletes a manual guide. Returns false for unknown ids.
func (e *Engine) RemoveGuide(id string) bool {
	if e.doc == nil {
		return false
	}
	for i := range e.doc.Guides {
		if e.doc.Guides[i].ID == id {
			e.doc.Guides = append(e.doc.Guides[:i], e.doc.Guides[i+1:]...)
			return true
		}
	}
	return false
}

// --- Pointer pipeline ---

// PointerDown starts a drag. With HandleMove and no additive modifier the
// hit element under the pointer becomes the selection unless it is already
// part of it; handle drags act on the current selection. Returns true when
// a gesture started.
func (e *Engine) PointerDown(x, y float64, handle gesture.Handle, additive bool) bool {
	if e.doc == nil {
		return false
	}

	if handle == gesture.HandleMove {
		hit := e.HitTest(x, y)
		switch {
		case hit == "" && !additive:
			e.selection = nil
		case hit != "" && additive:
			e.selection = toggleID(e.selection, hit)
		case hit != "" && !containsID(e.selection, hit):
			e.selection = []string{hit}
		}
	}
	if len(e.selection) == 0 {
		return false
	}

	st := gesture.Begin(e.doc, e.caps, e.selection, handle, e.viewport)
	if st == nil {
		return false
	}

	e.gesture = st
	e.downX, e.downY = x, y
	p := st.Pivot()
	e.downAngle = math.Atan2(y-p.Y, x-p.X)

	// The machine works in canvas units; the configured threshold is in
	// screen pixels.
	cfg := e.snapCfg
	cfg.Threshold /= e.viewport.EffectiveZoom()
	e.machine = snap.New(cfg)

	e.overlay = Overlay{}
	return true
}

// SetDistanceMode toggles equal-spacing detection for the current gesture.
func (e *Engine) SetDistanceMode(on bool) {
	if e.gesture != nil {
		e.gesture.DistanceMode = on
	}
}

// PointerMove advances the in-flight gesture to the pointer position,
// running guideline detection and sticky snapping for move drags. The
// resulting overlay state is retained for queries.
func (e *Engine) PointerMove(x, y float64) {
	st := e.gesture
	if st == nil {
		return
	}

	dx, dy := x-e.downX, y-e.downY

	switch st.Handle {
	case gesture.HandleMove:
		e.moveWithSnap(st, dx, dy)

	case gesture.HandleRotate:
		p := st.Pivot()
		angle := math.Atan2(y-p.Y, x-p.X)
		e.commit.Rotate(e.doc, st, (angle-e.downAngle)*180/math.Pi)

	default:
		sx, sy := st.Handle.ScaleFactors(st.OriginalBounds, dx, dy)
		e.commit.Scale(e.doc, st, sx, sy)
	}
}

// PointerUp ends the gesture, reporting local transform deltas to the
// registered sink.
func (e *Engine) PointerUp() {
	st := e.gesture
	if st == nil {
		return
	}
	e.gesture = nil

	if st.Finish() && e.sink != nil {
		if deltas := st.Deltas(e.doc, e.caps); len(deltas) > 0 {
			e.sink.ApplyTransformDeltas(deltas)
		}
	}
	e.machine.Reset()
	e.overlay = Overlay{}
}

// CancelGesture restores the pre-gesture document state.
func (e *Engine) CancelGesture() {
	if e.gesture == nil {
		return
	}
	e.gesture.Cancel(e.doc)
	e.gesture.Finish()
	e.gesture = nil
	e.machine.Reset()
	e.overlay = Overlay{}
}

// moveWithSnap runs the move-drag pipeline: detect alignment and distance
// matches at the raw position, fold their correction offsets through the
// sticky state machine, and commit the adjusted translation.
func (e *Engine) moveWithSnap(st *gesture.State, rawDX, rawDY float64) {
	moving := st.OriginalBounds.Translate(rawDX, rawDY)
	in := e.guideInput(st, moving)

	hMatch, vMatch := guides.DetectAlignments(e.guideCfg, in)
	distances := guides.DetectDistances(e.guideCfg, in, hMatch, vMatch)

	x := snap.AxisInput{Align: hMatch}
	yIn := snap.AxisInput{Align: vMatch}

	// Alignment-implied readouts carry no correction and list the moving
	// element first; feeding them to the machine would pin the axis in
	// place. Only equal-gap matches propose a snap.
	for i := range distances {
		d := &distances[i]
		if d.ElementIDs[0] == in.MovingID {
			continue
		}
		if d.Axis == guides.AxisHorizontal {
			if x.Distance == nil || math.Abs(d.Offset) < math.Abs(x.Distance.Offset) {
				x.Distance = d
			}
		} else if yIn.Distance == nil || math.Abs(d.Offset) < math.Abs(yIn.Distance.Offset) {
			yIn.Distance = d
		}
	}
	if e.snapCfg.DistanceUnit > 0 && st.DistanceMode {
		gx, gy := e.neighborGaps(st, moving, in)
		x.Gap, yIn.Gap = gx, gy
	}

	dx, dy := e.machine.Apply(rawDX, rawDY, x, yIn)
	e.commit.Translate(e.doc, st, dx, dy)

	var alignments []guides.Match
	if hMatch != nil {
		alignments = append(alignments, *hMatch)
	}
	if vMatch != nil {
		alignments = append(alignments, *vMatch)
	}
	snapped := st.OriginalBounds.Translate(dx, dy)
	e.overlay = e.compileOverlay(st, snapped, alignments, distances)
}

// guideInput assembles the detection input: every visible, unlocked
// top-level element outside the selection is a candidate, plus the manual
// guides and the reference frame.
func (e *Engine) guideInput(st *gesture.State, moving geom.Bounds) guides.Input {
	res := resolve.New(e.doc.Elements, e.caps)

	exclude := make(map[string]bool, len(st.Snapshot))
	for id := range st.Snapshot {
		exclude[id] = true
	}

	var candidates []guides.Candidate
	for _, id := range e.doc.Roots {
		if exclude[id] {
			continue
		}
		el, ok := e.doc.Elements[id]
		if !ok || !el.Visible || el.Locked {
			continue
		}
		if b := res.GlobalBounds(id, e.viewport); b != nil {
			candidates = append(candidates, guides.Candidate{ID: id, Bounds: *b})
		}
	}

	frame := e.referenceFrame()

	movingID := ""
	if len(st.ElementIDs) == 1 {
		movingID = st.ElementIDs[0]
	}

	e.lastCandidates = candidates

	return guides.Input{
		MovingID:     movingID,
		Moving:       moving,
		Exclude:      exclude,
		Candidates:   candidates,
		ManualGuides: e.doc.Guides,
		Frame:        frame,
		DistanceMode: st.DistanceMode,
	}
}

// referenceFrame returns the bounds acting as the alignment frame: the
// active frame when one exists, otherwise the viewport extent in canvas
// units, otherwise the canvas itself.
func (e *Engine) referenceFrame() *geom.Bounds {
	if e.doc == nil {
		return nil
	}
	if f := e.doc.ActiveFrame(); f != nil {
		b := f.Bounds
		return &b
	}
	if e.viewport.Width > 0 && e.viewport.Height > 0 {
		zoom := e.viewport.EffectiveZoom()
		return &geom.Bounds{MaxX: e.viewport.Width / zoom, MaxY: e.viewport.Height / zoom}
	}
	if e.doc.Canvas.Width > 0 && e.doc.Canvas.Height > 0 {
		return &geom.Bounds{MaxX: e.doc.Canvas.Width, MaxY: e.doc.Canvas.Height}
	}
	return nil
}

// neighborGaps finds, per axis, the nearest candidate gap for unit snapping:
// the closest non-overlapping candidate whose cross-axis range overlaps the
// moving box.
func (e *Engine) neighborGaps(st *gesture.State, moving geom.Bounds, in guides.Input) (*snap.NeighborGap, *snap.NeighborGap) {
	movingID := in.MovingID
	if movingID == "" && len(st.ElementIDs) > 0 {
		movingID = st.ElementIDs[0]
	}

	best := func(axis guides.Axis) *snap.NeighborGap {
		var out *snap.NeighborGap
		for _, c := range in.Candidates {
			var gap float64
			var sign float64
			var crossOverlap bool
			if axis == guides.AxisHorizontal {
				crossOverlap = c.Bounds.MinY < moving.MaxY && c.Bounds.MaxY > moving.MinY
				switch {
				case c.Bounds.MaxX <= moving.MinX:
					gap, sign = moving.MinX-c.Bounds.MaxX, 1
				case c.Bounds.MinX >= moving.MaxX:
					gap, sign = c.Bounds.MinX-moving.MaxX, -1
				default:
					continue
				}
			} else {
				crossOverlap = c.Bounds.MinX < moving.MaxX && c.Bounds.MaxX > moving.MinX
				switch {
				case c.Bounds.MaxY <= moving.MinY:
					gap, sign = moving.MinY-c.Bounds.MaxY, 1
				case c.Bounds.MinY >= moving.MaxY:
					gap, sign = c.Bounds.MinY-moving.MaxY, -1
				default:
					continue
				}
			}
			if !crossOverlap || gap <= 0 {
				continue
			}
			if out == nil || gap < out.Gap {
				ng := snap.NeighborGap{
					Axis:       axis,
					Gap:        gap,
					Sign:       sign,
					MovingID:   movingID,
					NeighborID: c.ID,
				}
				if axis == guides.AxisHorizontal {
					ng.MovingStart, ng.MovingEnd = moving.MinX, moving.MaxX
				} else {
					ng.MovingStart, ng.MovingEnd = moving.MinY, moving.MaxY
				}
				out = &ng
			}
		}
		return out
	}

	return best(guides.AxisHorizontal), best(guides.AxisVertical)
}

// --- Queries (frontend ← backend) ---

// HitTest returns the topmost visible, unlocked root element whose
// world-space bounds contain the point, or an empty string.
func (e *Engine) HitTest(x, y float64) string {
	if e.doc == nil {
		return ""
	}
	res := resolve.New(e.doc.Elements, e.caps)

	for i := len(e.doc.Roots) - 1; i >= 0; i-- {
		id := e.doc.Roots[i]
		el, ok := e.doc.Elements[id]
		if !ok || !el.Visible || el.Locked {
			continue
		}
		if b := res.GlobalBounds(id, e.viewport); b != nil && b.Contains(x, y) {
			return id
		}
	}
	return ""
}

// SelectionBounds returns the merged world-space bounds of the selection,
// or nil when nothing selected or nothing finite.
func (e *Engine) SelectionBounds() *geom.Bounds {
	if e.doc == nil || len(e.selection) == 0 {
		return nil
	}
	res := resolve.New(e.doc.Elements, e.caps)

	var boxes []geom.Bounds
	for _, id := range e.selection {
		if b := res.GlobalBounds(id, e.viewport); b != nil {
			boxes = append(boxes, *b)
		}
	}
	return geom.MergeBounds(boxes)
}

// GetDocument returns the full document as JSON.
func (e *Engine) GetDocument() string {
	if e.doc == nil {
		return "{}"
	}
	data, _ := json.Marshal(e.doc)
	return string(data)
}

// GetSelection returns the selection as JSON.
func (e *Engine) GetSelection() string {
	data, _ := json.Marshal(e.selection)
	return string(data)
}

// GetSelectionBounds returns the selection bounds as JSON, "null" when
// there are none.
func (e *Engine) GetSelectionBounds() string {
	data, _ := json.Marshal(e.SelectionBounds())
	return string(data)
}

// GetOverlay returns the current guideline overlay as JSON.
func (e *Engine) GetOverlay() string {
	data, _ := json.Marshal(e.overlay)
	return string(data)
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func toggleID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return append(ids, id)
}
