package document

import "encoding/json"

// Clone returns a deep copy of the element. Used to build the pre-gesture
// snapshot arena: the copy shares no mutable state with the live element,
// so transforming the live scene never corrupts the snapshot.
func (e Element) Clone() Element {
	out := e

	if e.Parent != nil {
		p := *e.Parent
		out.Parent = &p
	}
	if len(e.Children) > 0 {
		out.Children = append([]string(nil), e.Children...)
	}
	if e.Matrix != nil {
		m := *e.Matrix
		out.Matrix = &m
	}
	if e.Transform != nil {
		t := *e.Transform
		out.Transform = &t
	}
	if e.Geometry != nil {
		out.Geometry = e.Geometry.Clone()
	}
	if len(e.Data) > 0 {
		out.Data = append(json.RawMessage(nil), e.Data...)
	}

	return out
}

// Clone returns a deep copy of the geometry.
func (g *PathGeometry) Clone() *PathGeometry {
	out := &PathGeometry{
		Segments: make([]Segment, len(g.Segments)),
		Closed:   g.Closed,
	}
	for i, seg := range g.Segments {
		c := Segment{Point: seg.Point}
		if seg.HandleIn != nil {
			h := *seg.HandleIn
			c.HandleIn = &h
		}
		if seg.HandleOut != nil {
			h := *seg.HandleOut
			c.HandleOut = &h
		}
		out.Segments[i] = c
	}
	return out
}

// Clone returns a deep copy of the whole document.
func (d *Document) Clone() *Document {
	out := *d

	out.Roots = append([]string(nil), d.Roots...)
	out.Elements = make(map[string]Element, len(d.Elements))
	for id, el := range d.Elements {
		out.Elements[id] = el.Clone()
	}
	out.Guides = append([]Guide(nil), d.Guides...)
	out.Frames = append([]Frame(nil), d.Frames...)

	return &out
}
