package engine

import (
	"encoding/json"

	"github.com/sketchd/sketchd/backend-go/internal/document"
	"github.com/sketchd/sketchd/backend-go/internal/resolve"
)

// DrawCommand is a single drawing operation for the frontend to execute on
// a Canvas2D context. Commands are emitted in painter's order.
type DrawCommand struct {
	Op          string        `json:"op"`
	ElementID   string        `json:"elementId,omitempty"`
	Transform   []float64     `json:"transform,omitempty"`
	Path        []PathCommand `json:"path,omitempty"`
	Fill        string        `json:"fill,omitempty"`
	Stroke      string        `json:"stroke,omitempty"`
	StrokeWidth float64       `json:"strokeWidth,omitempty"`
	Opacity     float64       `json:"opacity,omitempty"`
}

// PathCommand is one Canvas2D path verb.
type PathCommand struct {
	Cmd  string    `json:"cmd"` // "M", "L", "C", "Z"
	Args []float64 `json:"args,omitempty"`
}

// Render compiles the document to a draw command buffer and returns it as
// JSON. Hidden elements and their subtrees are skipped.
func (e *Engine) Render() string {
	if e.doc == nil {
		return "[]"
	}

	res := resolve.New(e.doc.Elements, e.caps)

	var commands []DrawCommand
	for _, id := range e.doc.Roots {
		e.compileElement(res, id, &commands, 0)
	}

	data, err := json.Marshal(commands)
	if err != nil || commands == nil {
		return "[]"
	}
	return string(data)
}

func (e *Engine) compileElement(res *resolve.Resolver, id string, commands *[]DrawCommand, depth int) {
	if depth >= 100 {
		return
	}
	el, ok := e.doc.Elements[id]
	if !ok || !el.Visible {
		return
	}

	if el.IsGroup() {
		for _, childID := range el.Children {
			e.compileElement(res, childID, commands, depth+1)
		}
		return
	}

	if el.Type != document.ElementTypePath || el.Geometry == nil {
		return
	}

	path := compilePath(el.Geometry)
	if len(path) == 0 {
		return
	}

	opacity := el.Style.Opacity
	if opacity <= 0 {
		opacity = 1
	}

	*commands = append(*commands, DrawCommand{
		Op:          "path",
		ElementID:   id,
		Transform:   res.GlobalMatrix(id).ToSlice(),
		Path:        path,
		Fill:        el.Style.Fill,
		Stroke:      el.Style.Stroke,
		StrokeWidth: el.Style.StrokeWidth,
		Opacity:     opacity,
	})
}

// compilePath lowers segment geometry to Canvas2D verbs. A segment pair
// with handles becomes a cubic; without, a straight line.
func compilePath(g *document.PathGeometry) []PathCommand {
	if len(g.Segments) == 0 {
		return nil
	}

	out := []PathCommand{{
		Cmd:  "M",
		Args: []float64{g.Segments[0].Point.X, g.Segments[0].Point.Y},
	}}

	emit := func(from, to document.Segment) {
		c1 := from.Point
		if from.HandleOut != nil {
			c1 = *from.HandleOut
		}
		c2 := to.Point
		if to.HandleIn != nil {
			c2 = *to.HandleIn
		}
		if from.HandleOut == nil && to.HandleIn == nil {
			out = append(out, PathCommand{Cmd: "L", Args: []float64{to.Point.X, to.Point.Y}})
			return
		}
		out = append(out, PathCommand{
			Cmd:  "C",
			Args: []float64{c1.X, c1.Y, c2.X, c2.Y, to.Point.X, to.Point.Y},
		})
	}

	for i := 1; i < len(g.Segments); i++ {
		emit(g.Segments[i-1], g.Segments[i])
	}
	if g.Closed {
		emit(g.Segments[len(g.Segments)-1], g.Segments[0])
		out = append(out, PathCommand{Cmd: "Z"})
	}
	return out
}
