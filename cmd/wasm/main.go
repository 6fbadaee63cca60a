//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/sketchd/sketchd/backend-go/internal/document"
	"github.com/sketchd/sketchd/backend-go/internal/engine"
	"github.com/sketchd/sketchd/backend-go/internal/gesture"
	"github.com/sketchd/sketchd/backend-go/internal/guides"
	"github.com/sketchd/sketchd/backend-go/internal/snap"
)

var eng *engine.Engine

func main() {
	eng = engine.NewEngine(engine.Options{
		SnapConfig:  snap.Config{Threshold: 4, DistanceUnit: 8},
		GuideConfig: guides.Config{Threshold: 4},
	})

	// Create the engine API object
	sketchdEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → backend) ---
	sketchdEngine.Set("loadDocument", js.FuncOf(loadDocument))
	sketchdEngine.Set("updateDocument", js.FuncOf(updateDocument))
	sketchdEngine.Set("loadSampleDocument", js.FuncOf(loadSampleDocument))
	sketchdEngine.Set("setViewport", js.FuncOf(setViewport))
	sketchdEngine.Set("setSelection", js.FuncOf(setSelection))
	sketchdEngine.Set("setDistanceMode", js.FuncOf(setDistanceMode))
	sketchdEngine.Set("pointerDown", js.FuncOf(pointerDown))
	sketchdEngine.Set("pointerMove", js.FuncOf(pointerMove))
	sketchdEngine.Set("pointerUp", js.FuncOf(pointerUp))
	sketchdEngine.Set("pointerCancel", js.FuncOf(pointerCancel))
	sketchdEngine.Set("addGuide", js.FuncOf(addGuide))
	sketchdEngine.Set("moveGuide", js.FuncOf(moveGuide))
	sketchdEngine.Set("removeGuide", js.FuncOf(removeGuide))

	// --- Queries (frontend ← backend) ---
	sketchdEngine.Set("render", js.FuncOf(render))
	sketchdEngine.Set("hitTest", js.FuncOf(hitTest))
	sketchdEngine.Set("getOverlay", js.FuncOf(getOverlay))
	sketchdEngine.Set("getSelection", js.FuncOf(getSelection))
	sketchdEngine.Set("getSelectionBounds", js.FuncOf(getSelectionBounds))
	sketchdEngine.Set("getDocument", js.FuncOf(getDocument))

	// Register on global scope
	js.Global().Set("sketchdEngine", sketchdEngine)

	// Signal that WASM is ready
	js.Global().Set("sketchdWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

// --- Command Handlers ---

func loadDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing document JSON"})
	}

	jsonData := args[0].String()
	if err := eng.LoadDocument(jsonData); err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}

	return js.ValueOf(map[string]interface{}{"ok": true})
}

func updateDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing document JSON"})
	}

	jsonData := args[0].String()
	if err := eng.UpdateDocument(jsonData); err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}

	return js.ValueOf(map[string]interface{}{"ok": true})
}

func loadSampleDocument(this js.Value, args []js.Value) interface{} {
	docID := "doc_sample"
	if len(args) > 0 && args[0].Type() == js.TypeString {
		docID = args[0].String()
	}

	eng.LoadSampleDocument(docID)
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func setViewport(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return nil
	}
	eng.SetViewport(args[0].Float(), args[1].Float(), args[2].Float())
	return nil
}

func setSelection(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeObject {
		eng.SetSelection(nil)
		return nil
	}

	arr := args[0]
	length := arr.Length()
	ids := make([]string, length)
	for i := 0; i < length; i++ {
		ids[i] = arr.Index(i).String()
	}
	eng.SetSelection(ids)
	return nil
}

func setDistanceMode(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	eng.SetDistanceMode(args[0].Bool())
	return nil
}

func pointerDown(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf(false)
	}
	x := args[0].Float()
	y := args[1].Float()

	handle := gesture.HandleMove
	if len(args) > 2 && args[2].Type() == js.TypeString && args[2].String() != "" {
		handle = gesture.Handle(args[2].String())
	}
	additive := len(args) > 3 && args[3].Truthy()

	return js.ValueOf(eng.PointerDown(x, y, handle, additive))
}

func pointerMove(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.PointerMove(args[0].Float(), args[1].Float())
	return js.ValueOf(eng.GetOverlay())
}

func pointerUp(this js.Value, args []js.Value) interface{} {
	eng.PointerUp()
	return nil
}

func pointerCancel(this js.Value, args []js.Value) interface{} {
	eng.CancelGesture()
	return nil
}

func addGuide(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return nil
	}
	eng.AddGuide(args[0].String(), guideAxis(args[1].String()), args[2].Float())
	return nil
}

func moveGuide(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf(false)
	}
	return js.ValueOf(eng.MoveGuide(args[0].String(), args[1].Float()))
}

func removeGuide(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(false)
	}
	return js.ValueOf(eng.RemoveGuide(args[0].String()))
}

func guideAxis(s string) document.GuideAxis {
	if s == "y" {
		return document.GuideAxisY
	}
	return document.GuideAxisX
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Render())
}

func hitTest(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("")
	}
	return js.ValueOf(eng.HitTest(args[0].Float(), args[1].Float()))
}

func getOverlay(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetOverlay())
}

func getSelection(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetSelection())
}

func getSelectionBounds(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetSelectionBounds())
}

func getDocument(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetDocument())
}
