package resolve

import (
	"github.com/sketchd/sketchd/backend-go/internal/document"
	"github.com/sketchd/sketchd/backend-go/internal/geom"
)

// maxDepth caps ownership-chain walks. A well-formed document is acyclic,
// but a corrupted parent graph must stop rather than loop; the walk then
// yields a partial, identity-padded result.
const maxDepth = 100

// Resolver computes local and globally-accumulated transforms and bounds
// for elements of a document.
type Resolver struct {
	elements map[string]document.Element
	caps     *Capabilities
}

// New creates a resolver over an element table.
func New(elements map[string]document.Element, caps *Capabilities) *Resolver {
	if caps == nil {
		caps = NewCapabilities()
	}
	return &Resolver{elements: elements, caps: caps}
}

// LocalMatrix returns the element's own transform matrix: the explicit
// matrix field when present, else the composed transform record, else
// identity for element types without a transform concept.
func LocalMatrix(el *document.Element) geom.Matrix {
	if el == nil {
		return geom.Identity()
	}
	if el.Matrix != nil {
		return *el.Matrix
	}
	if el.Transform != nil {
		t := el.Transform
		return geom.FromRecord(t.TX, t.TY, t.R, t.SX, t.SY)
	}
	return geom.Identity()
}

// GlobalMatrix walks from the element up through parent ids and multiplies
// the collected local matrices root-to-leaf:
//
//	global = root * … * parent * own
//
// Multiplying leaf-to-root instead silently breaks nesting, so the chain is
// collected first and folded from the root end.
func (r *Resolver) GlobalMatrix(elementID string) geom.Matrix {
	chain := r.localChain(elementID)

	global := geom.Identity()
	for i := len(chain) - 1; i >= 0; i-- {
		global = global.Multiply(chain[i])
	}
	return global
}

// ParentGlobalMatrix returns the accumulated matrix of the element's
// parent, or identity when the element has no parent. Needed to convert a
// global pivot into a descendant's local space before applying scale or
// rotation there.
func (r *Resolver) ParentGlobalMatrix(el *document.Element) geom.Matrix {
	if el == nil || el.Parent == nil {
		return geom.Identity()
	}
	return r.GlobalMatrix(*el.Parent)
}

// Element looks up an element by id.
func (r *Resolver) Element(id string) (document.Element, bool) {
	el, ok := r.elements[id]
	return el, ok
}

// localChain collects local matrices leaf-first, stopping at a missing
// parent, a repeated id or the depth cap.
func (r *Resolver) localChain(elementID string) []geom.Matrix {
	var chain []geom.Matrix
	seen := map[string]bool{}

	id := elementID
	for range maxDepth {
		if seen[id] {
			break
		}
		seen[id] = true

		el, ok := r.elements[id]
		if !ok {
			break
		}
		chain = append(chain, LocalMatrix(&el))

		if el.Parent == nil {
			break
		}
		id = *el.Parent
	}
	return chain
}
