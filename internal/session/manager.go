package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/sketchd/sketchd/backend-go/internal/document"
	"github.com/sketchd/sketchd/backend-go/internal/engine"
	"github.com/sketchd/sketchd/backend-go/internal/gesture"
)

// PlaygroundDocumentID names the anonymous scratch document. It needs no
// token to join and no stored snapshot to exist: a fresh sample document
// backs it when the loader has none.
const PlaygroundDocumentID = "doc_playground"

// Loader fetches a document for a session to edit.
type Loader interface {
	LoadDocument(ctx context.Context, documentID string) (*document.Document, error)
}

// Saver persists a document snapshot.
type Saver interface {
	SaveDocument(ctx context.Context, doc *document.Document) error
}

// Session is one live editing session over a single document. The engine
// and the document state share the document; everything that touches them
// runs under the session mutex.
type Session struct {
	mu         sync.Mutex
	documentID string
	state      *DocumentState
	engine     *engine.Engine
	client     *Client
	dirty      bool
}

// Manager owns the live sessions, one per open document, each with at
// most one connected client. A second connection to the same document
// replaces the first.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	register   chan *Client
	unregister chan *Client

	loader Loader
	saver  Saver

	engineOpts engine.Options
}

// NewManager creates a session manager. loader and saver may be nil in
// tests; a nil loader falls back to the sample document.
func NewManager(loader Loader, saver Saver, opts engine.Options) *Manager {
	return &Manager{
		sessions:   make(map[string]*Session),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		loader:     loader,
		saver:      saver,
		engineOpts: opts,
	}
}

// Run processes connection lifecycle events until the context ends.
func (m *Manager) Run(ctx context.Context) {
	for {
		select {
		case client := <-m.register:
			m.addClient(ctx, client)
		case client := <-m.unregister:
			m.removeClient(ctx, client)
		case <-ctx.Done():
			return
		}
	}
}

// Register hands a new connection to the manager.
func (m *Manager) Register(client *Client) {
	m.register <- client
}

// Stop saves every dirty session. Called once during shutdown, after Run
// has exited.
func (m *Manager) Stop(ctx context.Context) {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, sess := range sessions {
		// Clone under the session mutex: read pumps may still apply
		// operations while the snapshot is being written out.
		sess.mu.Lock()
		dirty := sess.dirty
		sess.dirty = false
		var doc *document.Document
		if dirty {
			doc = sess.state.Document().Clone()
		}
		sess.mu.Unlock()

		if dirty && m.saver != nil {
			if err := m.saver.SaveDocument(ctx, doc); err != nil {
				slog.Error("save document on shutdown", "error", err, "document", sess.documentID)
			}
		}
	}
}

func (m *Manager) addClient(ctx context.Context, client *Client) {
	m.mu.Lock()
	sess, ok := m.sessions[client.DocumentID]
	if !ok {
		doc, err := m.loadDocument(ctx, client.DocumentID)
		if err != nil {
			m.mu.Unlock()
			slog.Error("load document", "error", err, "document", client.DocumentID)
			client.Send(errorMessage("document unavailable"))
			close(client.send)
			return
		}

		eng := engine.NewEngine(m.engineOpts)
		eng.UseDocument(doc)
		sess = &Session{
			documentID: client.DocumentID,
			state:      NewDocumentState(doc),
			engine:     eng,
		}
		m.sessions[client.DocumentID] = sess
	}
	m.mu.Unlock()

	sess.mu.Lock()
	if prev := sess.client; prev != nil {
		prev.Send(errorMessage("replaced by a new connection"))
		close(prev.send)
	}
	sess.client = client
	sess.mu.Unlock()

	client.Send(&Message{Type: TypeWelcome, DocumentID: client.DocumentID, ClientID: client.ClientID})
	client.Send(sess.docSyncMessage())

	slog.Info("client joined", "client", client.ClientID, "document", client.DocumentID)
}

func (m *Manager) removeClient(ctx context.Context, client *Client) {
	m.mu.Lock()
	sess, ok := m.sessions[client.DocumentID]
	m.mu.Unlock()
	if !ok {
		return
	}

	sess.mu.Lock()
	if sess.client != client {
		sess.mu.Unlock()
		return
	}
	sess.client = nil
	sess.engine.CancelGesture()
	dirty := sess.dirty
	sess.dirty = false
	var doc *document.Document
	if dirty {
		doc = sess.state.Document().Clone()
	}
	sess.mu.Unlock()

	close(client.send)

	if dirty && m.saver != nil {
		if err := m.saver.SaveDocument(ctx, doc); err != nil {
			slog.Error("save document", "error", err, "document", client.DocumentID)
		} else {
			sess.state.ClearLog()
		}
	}

	m.mu.Lock()
	if sess.client == nil {
		delete(m.sessions, client.DocumentID)
	}
	m.mu.Unlock()

	slog.Info("client left", "client", client.ClientID, "document", client.DocumentID)
}

func (m *Manager) loadDocument(ctx context.Context, documentID string) (*document.Document, error) {
	if m.loader == nil {
		return document.NewSampleDocument(documentID), nil
	}
	doc, err := m.loader.LoadDocument(ctx, documentID)
	if err != nil && documentID == PlaygroundDocumentID {
		return document.NewSampleDocument(documentID), nil
	}
	return doc, err
}

func (m *Manager) handleMessage(sender *Client, msg *Message) {
	m.mu.RLock()
	sess, ok := m.sessions[sender.DocumentID]
	m.mu.RUnlock()
	if !ok {
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.client != sender {
		return
	}

	switch msg.Type {
	case TypePointerDown:
		sess.handlePointerDown(msg)
	case TypePointerMove:
		sess.handlePointerMove(msg)
	case TypePointerUp:
		sess.handlePointerUp()
	case TypePointerCancel:
		sess.engine.CancelGesture()
		sess.sendOverlay()
	case TypeSelectionSet:
		sess.handleSelectionSet(msg)
	case TypeViewportSet:
		sess.handleViewportSet(msg)
	case TypeDistanceMode:
		sess.handleDistanceMode(msg)
	case TypeOpSubmit:
		sess.handleOpSubmit(msg)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "client", sender.ClientID)
	}
}

func (s *Session) handlePointerDown(msg *Message) {
	var p PointerPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		s.sendError("invalid pointer payload")
		return
	}

	handle := gesture.Handle(p.Handle)
	if handle == "" {
		handle = gesture.HandleMove
	}
	s.engine.PointerDown(p.X, p.Y, handle, p.Additive)
	s.sendSelectionInfo()
}

func (s *Session) handlePointerMove(msg *Message) {
	var p PointerPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		s.sendError("invalid pointer payload")
		return
	}
	s.engine.PointerMove(p.X, p.Y)
	s.dirty = true
	s.sendOverlay()
}

func (s *Session) handlePointerUp() {
	s.engine.PointerUp()
	s.sendOverlay()
	s.sendSelectionInfo()
}

func (s *Session) handleSelectionSet(msg *Message) {
	var p SelectionPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		s.sendError("invalid selection payload")
		return
	}
	s.engine.SetSelection(p.ElementIDs)
	s.sendSelectionInfo()
}

func (s *Session) handleViewportSet(msg *Message) {
	var p ViewportPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		s.sendError("invalid viewport payload")
		return
	}
	s.engine.SetViewport(p.Zoom, p.Width, p.Height)
}

func (s *Session) handleDistanceMode(msg *Message) {
	var p DistanceModePayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		s.sendError("invalid distance mode payload")
		return
	}
	s.engine.SetDistanceMode(p.Enabled)
}

func (s *Session) handleOpSubmit(msg *Message) {
	var p OperationSubmitPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		s.sendError("invalid operation payload")
		return
	}

	// A structured mutation invalidates an in-flight gesture snapshot.
	s.engine.CancelGesture()

	seq, err := s.state.ApplyOperation(p.Operation)
	if err != nil {
		payload, _ := json.Marshal(OperationNackPayload{
			OperationID: p.Operation.ID,
			Reason:      err.Error(),
		})
		s.send(&Message{Type: TypeOpNack, Payload: payload})
		return
	}
	s.dirty = true

	payload, _ := json.Marshal(OperationAckPayload{
		OperationID:     p.Operation.ID,
		ServerSeq:       seq,
		ServerTimestamp: ServerTimestamp(),
	})
	s.send(&Message{Type: TypeOpAck, Seq: seq, Payload: payload})
}

func (s *Session) docSyncMessage() *Message {
	data, _ := json.Marshal(s.state.Document())
	return &Message{
		Type:       TypeDocSync,
		DocumentID: s.documentID,
		Seq:        s.state.ServerSeq(),
		Payload:    data,
	}
}

func (s *Session) sendOverlay() {
	s.send(&Message{
		Type:    TypeOverlayState,
		Payload: json.RawMessage(s.engine.GetOverlay()),
	})
}

func (s *Session) sendSelectionInfo() {
	payload, _ := json.Marshal(map[string]json.RawMessage{
		"elementIds": json.RawMessage(s.engine.GetSelection()),
		"bounds":     json.RawMessage(s.engine.GetSelectionBounds()),
	})
	s.send(&Message{Type: TypeSelectionInfo, Payload: payload})
}

func (s *Session) sendError(text string) {
	s.send(errorMessage(text))
}

func (s *Session) send(msg *Message) {
	if s.client != nil {
		s.client.Send(msg)
	}
}

func errorMessage(text string) *Message {
	payload, _ := json.Marshal(ErrorPayload{Message: text})
	return &Message{Type: TypeError, Payload: payload}
}
