package gesture

import (
	"github.com/sketchd/sketchd/backend-go/internal/document"
	"github.com/sketchd/sketchd/backend-go/internal/geom"
	"github.com/sketchd/sketchd/backend-go/internal/resolve"
)

// TransformDelta records how one element's local transform changed over a
// gesture, for an external animation system to rewrite authored keyframes
// proportionally.
type TransformDelta struct {
	ElementID string      `json:"elementId"`
	Before    geom.Matrix `json:"beforeLocalMatrix"`
	After     geom.Matrix `json:"afterLocalMatrix"`
}

// DeltaSink receives local transform deltas at gesture end. The timeline
// subsystem registers an implementation; the core never evaluates
// keyframes itself.
type DeltaSink interface {
	ApplyTransformDeltas(deltas []TransformDelta)
}

// Deltas computes before/after local matrices for every snapshotted
// element whose transform changed. Both matrices are normalized into
// element-local space by dividing out the element's own accumulated
// parent matrix on each side, so a moved parent does not drag a child's
// authored animation center along.
func (st *State) Deltas(doc *document.Document, caps *resolve.Capabilities) []TransformDelta {
	liveRes := resolve.New(doc.Elements, caps)

	var out []TransformDelta
	for id := range st.Snapshot {
		baseEl, ok := st.base[id]
		if !ok {
			continue
		}
		liveEl, ok := doc.Elements[id]
		if !ok {
			continue
		}

		before := normalizedLocal(st.baseRes, &baseEl, id)
		after := normalizedLocal(liveRes, &liveEl, id)

		if before.NearlyEqual(after, 1e-9) {
			continue
		}
		out = append(out, TransformDelta{ElementID: id, Before: before, After: after})
	}
	return out
}

// normalizedLocal divides the accumulated parent matrix out of the
// element's global matrix: inv(parent) * global.
func normalizedLocal(r *resolve.Resolver, el *document.Element, id string) geom.Matrix {
	global := r.GlobalMatrix(id)
	inv, ok := r.ParentGlobalMatrix(el).Invert()
	if !ok {
		return resolve.LocalMatrix(el)
	}
	return inv.Multiply(global)
}
