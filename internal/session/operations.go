package session

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sketchd/sketchd/backend-go/internal/document"
	"github.com/sketchd/sketchd/backend-go/internal/geom"
)

// DocumentState holds the authoritative document for a session, applies
// structured mutations to it, and keeps the operation log for persistence.
type DocumentState struct {
	mu        sync.RWMutex
	doc       *document.Document
	serverSeq int64
	opLog     []Operation
}

// NewDocumentState wraps an initial document.
func NewDocumentState(doc *document.Document) *DocumentState {
	return &DocumentState{
		doc:   doc,
		opLog: make([]Operation, 0),
	}
}

// Document returns the current document. Callers must not mutate it
// outside ApplyOperation.
func (ds *DocumentState) Document() *document.Document {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.doc
}

// ServerSeq returns the sequence number of the last applied operation.
func (ds *DocumentState) ServerSeq() int64 {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.serverSeq
}

// Log returns a copy of the operation log since the last snapshot.
func (ds *DocumentState) Log() []Operation {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return append([]Operation(nil), ds.opLog...)
}

// ClearLog drops the operation log, after a snapshot has been persisted.
func (ds *DocumentState) ClearLog() {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.opLog = ds.opLog[:0]
}

// ApplyOperation applies one mutation and returns the new server sequence.
func (ds *DocumentState) ApplyOperation(op Operation) (int64, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if err := ds.apply(op); err != nil {
		return 0, err
	}

	ds.serverSeq++
	ds.doc.Version++
	ds.opLog = append(ds.opLog, op)
	return ds.serverSeq, nil
}

func (ds *DocumentState) apply(op Operation) error {
	switch op.Type {
	case "element.transform":
		return ds.applyTransform(op)
	case "element.style":
		return ds.applyStyle(op)
	case "element.create":
		return ds.applyCreate(op)
	case "element.delete":
		return ds.applyDelete(op)
	case "element.reparent":
		return ds.applyReparent(op)
	case "element.visibility":
		return ds.applyVisibility(op)
	case "element.locked":
		return ds.applyLockFlag(op)
	case "guide.add":
		return ds.applyGuideAdd(op)
	case "guide.move":
		return ds.applyGuideMove(op)
	case "guide.remove":
		return ds.applyGuideRemove(op)
	case "document.rename":
		ds.doc.Name = op.Name
		return nil
	default:
		return fmt.Errorf("unknown operation type: %s", op.Type)
	}
}

func (ds *DocumentState) applyTransform(op Operation) error {
	el, ok := ds.doc.Elements[op.ElementID]
	if !ok {
		return fmt.Errorf("element not found: %s", op.ElementID)
	}

	// A matrix payload replaces both forms; a record payload patches the
	// record form and clears any explicit matrix.
	switch {
	case len(op.Matrix) > 0:
		var m geom.Matrix
		if err := json.Unmarshal(op.Matrix, &m); err != nil {
			return fmt.Errorf("invalid matrix: %w", err)
		}
		el.Matrix = &m
		el.Transform = nil

	case len(op.Transform) > 0:
		var changes map[string]float64
		if err := json.Unmarshal(op.Transform, &changes); err != nil {
			return fmt.Errorf("invalid transform: %w", err)
		}
		tr := document.Transform{SX: 1, SY: 1}
		if el.Transform != nil {
			tr = *el.Transform
		}
		if v, ok := changes["tx"]; ok {
			tr.TX = v
		}
		if v, ok := changes["ty"]; ok {
			tr.TY = v
		}
		if v, ok := changes["r"]; ok {
			tr.R = v
		}
		if v, ok := changes["sx"]; ok {
			tr.SX = v
		}
		if v, ok := changes["sy"]; ok {
			tr.SY = v
		}
		el.Transform = &tr
		el.Matrix = nil

	default:
		return fmt.Errorf("transform operation carries no payload")
	}

	ds.doc.Elements[op.ElementID] = el
	return nil
}

func (ds *DocumentState) applyStyle(op Operation) error {
	el, ok := ds.doc.Elements[op.ElementID]
	if !ok {
		return fmt.Errorf("element not found: %s", op.ElementID)
	}

	var changes map[string]interface{}
	if err := json.Unmarshal(op.Style, &changes); err != nil {
		return fmt.Errorf("invalid style: %w", err)
	}

	if v, ok := changes["fill"].(string); ok {
		el.Style.Fill = v
	}
	if v, ok := changes["stroke"].(string); ok {
		el.Style.Stroke = v
	}
	if v, ok := changes["strokeWidth"].(float64); ok {
		el.Style.StrokeWidth = v
	}
	if v, ok := changes["opacity"].(float64); ok {
		el.Style.Opacity = v
	}

	ds.doc.Elements[op.ElementID] = el
	return nil
}

func (ds *DocumentState) applyCreate(op Operation) error {
	var el document.Element
	if err := json.Unmarshal(op.Element, &el); err != nil {
		return fmt.Errorf("invalid element: %w", err)
	}
	if el.ID == "" {
		return fmt.Errorf("element missing id")
	}
	if _, exists := ds.doc.Elements[el.ID]; exists {
		return fmt.Errorf("element already exists: %s", el.ID)
	}

	if op.ParentID != "" {
		parent, ok := ds.doc.Elements[op.ParentID]
		if !ok {
			return fmt.Errorf("parent not found: %s", op.ParentID)
		}
		pid := op.ParentID
		el.Parent = &pid
		parent.Children = insertAt(parent.Children, el.ID, op.Index)
		ds.doc.Elements[op.ParentID] = parent
	} else {
		el.Parent = nil
		ds.doc.Roots = insertAt(ds.doc.Roots, el.ID, op.Index)
	}

	ds.doc.Elements[el.ID] = el
	return nil
}

func (ds *DocumentState) applyDelete(op Operation) error {
	el, ok := ds.doc.Elements[op.ElementID]
	if !ok {
		return fmt.Errorf("element not found: %s", op.ElementID)
	}

	if el.Parent != nil {
		if parent, ok := ds.doc.Elements[*el.Parent]; ok {
			parent.Children = removeID(parent.Children, op.ElementID)
			ds.doc.Elements[*el.Parent] = parent
		}
	} else {
		ds.doc.Roots = removeID(ds.doc.Roots, op.ElementID)
	}

	ds.deleteSubtree(op.ElementID, 0)
	return nil
}

func (ds *DocumentState) deleteSubtree(id string, depth int) {
	if depth >= 100 {
		return
	}
	el, ok := ds.doc.Elements[id]
	if !ok {
		return
	}
	for _, childID := range el.Children {
		ds.deleteSubtree(childID, depth+1)
	}
	delete(ds.doc.Elements, id)
}

func (ds *DocumentState) applyReparent(op Operation) error {
	el, ok := ds.doc.Elements[op.ElementID]
	if !ok {
		return fmt.Errorf("element not found: %s", op.ElementID)
	}
	if op.NewParentID == op.ElementID {
		return fmt.Errorf("element cannot parent itself")
	}
	if op.NewParentID != "" && ds.isDescendant(op.NewParentID, op.ElementID) {
		return fmt.Errorf("cannot reparent into own subtree")
	}

	// Detach.
	if el.Parent != nil {
		if old, ok := ds.doc.Elements[*el.Parent]; ok {
			old.Children = removeID(old.Children, op.ElementID)
			ds.doc.Elements[*el.Parent] = old
		}
	} else {
		ds.doc.Roots = removeID(ds.doc.Roots, op.ElementID)
	}

	// Attach.
	if op.NewParentID != "" {
		parent, ok := ds.doc.Elements[op.NewParentID]
		if !ok {
			return fmt.Errorf("new parent not found: %s", op.NewParentID)
		}
		idx := op.NewIndex
		parent.Children = insertAt(parent.Children, op.ElementID, &idx)
		ds.doc.Elements[op.NewParentID] = parent
		pid := op.NewParentID
		el.Parent = &pid
	} else {
		idx := op.NewIndex
		ds.doc.Roots = insertAt(ds.doc.Roots, op.ElementID, &idx)
		el.Parent = nil
	}

	ds.doc.Elements[op.ElementID] = el
	return nil
}

// isDescendant reports whether candidate sits in ancestor's subtree.
func (ds *DocumentState) isDescendant(candidate, ancestor string) bool {
	id := candidate
	for depth := 0; depth < 100; depth++ {
		el, ok := ds.doc.Elements[id]
		if !ok || el.Parent == nil {
			return false
		}
		if *el.Parent == ancestor {
			return true
		}
		id = *el.Parent
	}
	return false
}

func (ds *DocumentState) applyVisibility(op Operation) error {
	el, ok := ds.doc.Elements[op.ElementID]
	if !ok {
		return fmt.Errorf("element not found: %s", op.ElementID)
	}
	if op.Visible != nil {
		el.Visible = *op.Visible
	}
	ds.doc.Elements[op.ElementID] = el
	return nil
}

func (ds *DocumentState) applyLockFlag(op Operation) error {
	el, ok := ds.doc.Elements[op.ElementID]
	if !ok {
		return fmt.Errorf("element not found: %s", op.ElementID)
	}
	if op.Locked != nil {
		el.Locked = *op.Locked
	}
	ds.doc.Elements[op.ElementID] = el
	return nil
}

func (ds *DocumentState) applyGuideAdd(op Operation) error {
	if op.GuideID == "" || op.Position == nil {
		return fmt.Errorf("guide.add missing id or position")
	}
	axis := document.GuideAxis(op.Axis)
	if axis != document.GuideAxisX && axis != document.GuideAxisY {
		return fmt.Errorf("invalid guide axis: %q", op.Axis)
	}
	for _, g := range ds.doc.Guides {
		if g.ID == op.GuideID {
			return fmt.Errorf("guide already exists: %s", op.GuideID)
		}
	}
	ds.doc.Guides = append(ds.doc.Guides, document.Guide{
		ID: op.GuideID, Axis: axis, Position: *op.Position,
	})
	return nil
}

func (ds *DocumentState) applyGuideMove(op Operation) error {
	if op.Position == nil {
		return fmt.Errorf("guide.move missing position")
	}
	for i := range ds.doc.Guides {
		if ds.doc.Guides[i].ID == op.GuideID {
			ds.doc.Guides[i].Position = *op.Position
			return nil
		}
	}
	return fmt.Errorf("guide not found: %s", op.GuideID)
}

func (ds *DocumentState) applyGuideRemove(op Operation) error {
	for i := range ds.doc.Guides {
		if ds.doc.Guides[i].ID == op.GuideID {
			ds.doc.Guides = append(ds.doc.Guides[:i], ds.doc.Guides[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("guide not found: %s", op.GuideID)
}

func insertAt(ids []string, id string, index *int) []string {
	if index != nil && *index >= 0 && *index <= len(ids) {
		out := make([]string, 0, len(ids)+1)
		out = append(out, ids[:*index]...)
		out = append(out, id)
		out = append(out, ids[*index:]...)
		return out
	}
	return append(ids, id)
}

func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// ServerTimestamp returns the current time in milliseconds.
func ServerTimestamp() int64 {
	return time.Now().UnixMilli()
}
