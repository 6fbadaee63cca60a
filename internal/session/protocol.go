package session

import "encoding/json"

type Message struct {
	Type       string          `json:"type"`
	DocumentID string          `json:"documentId,omitempty"`
	ClientID   string          `json:"clientId,omitempty"`
	Seq        int64           `json:"seq,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

const (
	// Connection
	TypeWelcome = "welcome"
	TypeError   = "error"

	// Document sync
	TypeDocSync = "doc.sync"

	// Pointer pipeline
	TypePointerDown   = "pointer.down"
	TypePointerMove   = "pointer.move"
	TypePointerUp     = "pointer.up"
	TypePointerCancel = "pointer.cancel"

	// Editor state
	TypeSelectionSet  = "selection.set"
	TypeViewportSet   = "viewport.set"
	TypeDistanceMode  = "distance.mode"
	TypeOverlayState  = "overlay.state"
	TypeSelectionInfo = "selection.info"

	// Structured mutations
	TypeOpSubmit = "op.submit"
	TypeOpAck    = "op.ack"
	TypeOpNack   = "op.nack"
)

// PointerPayload carries one pointer event. Handle is empty for plain
// canvas drags and names a selection-box handle otherwise.
type PointerPayload struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Handle   string  `json:"handle,omitempty"`
	Additive bool    `json:"additive,omitempty"`
}

type SelectionPayload struct {
	ElementIDs []string `json:"elementIds"`
}

type ViewportPayload struct {
	Zoom   float64 `json:"zoom"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type DistanceModePayload struct {
	Enabled bool `json:"enabled"`
}

// Operation is one structured document mutation.
type Operation struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Timestamp int64           `json:"timestamp"`
	ElementID string          `json:"elementId,omitempty"`

	// element.transform
	Matrix    json.RawMessage `json:"matrix,omitempty"`
	Transform json.RawMessage `json:"transform,omitempty"`

	// element.style
	Style json.RawMessage `json:"style,omitempty"`

	// element.create
	Element  json.RawMessage `json:"element,omitempty"`
	ParentID string          `json:"parentId,omitempty"`
	Index    *int            `json:"index,omitempty"`

	// element.reparent
	NewParentID string `json:"newParentId,omitempty"`
	NewIndex    int    `json:"newIndex,omitempty"`

	// element.visibility / element.locked
	Visible *bool `json:"visible,omitempty"`
	Locked  *bool `json:"locked,omitempty"`

	// guide.add / guide.move / guide.remove
	GuideID  string   `json:"guideId,omitempty"`
	Axis     string   `json:"axis,omitempty"`
	Position *float64 `json:"position,omitempty"`

	// document.rename
	Name string `json:"name,omitempty"`
}

type OperationSubmitPayload struct {
	Operation Operation `json:"operation"`
}

type OperationAckPayload struct {
	OperationID     string `json:"operationId"`
	ServerSeq       int64  `json:"serverSeq"`
	ServerTimestamp int64  `json:"serverTimestamp"`
}

type OperationNackPayload struct {
	OperationID string `json:"operationId"`
	Reason      string `json:"reason"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
