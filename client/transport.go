package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// EventKind transport event category
type EventKind string

const (
	EventOpen    EventKind = "open"
	EventClose   EventKind = "close"
	EventError   EventKind = "error"
	EventMessage EventKind = "message"
)

// Event transport-level notification
type Event struct {
	Kind EventKind
	// Data message payload, set for message events
	Data []byte
	// Binary marks the frame type of a message event
	Binary bool
	// Err channel-level failure, set for error events
	Err error
}

// Listener callback bound to a transport event
type Listener func(Event)

// EventCallback generic callback receiving every transport event
type EventCallback func(Event)

// ListenerID handle returned by On, used to detach the listener again
type ListenerID int

// Transport owns the single WebSocket connection of a client session and
// multiplexes its events to any number of bound listeners.
type Transport struct {
	baseURL  string
	clientID string
	token    string
	logger   *logrus.Logger

	mu        sync.RWMutex
	conn      *websocket.Conn
	onEvent   EventCallback
	nextID    ListenerID
	listeners map[EventKind]map[ListenerID]Listener
}

// newTransport creates a transport for the given session parameters
func newTransport(baseURL, clientID, token string, logger *logrus.Logger) *Transport {
	return &Transport{
		baseURL:   baseURL,
		clientID:  clientID,
		token:     token,
		logger:    logger,
		listeners: make(map[EventKind]map[ListenerID]Listener),
	}
}

// SetEventCallback sets the generic callback receiving all transport events
func (t *Transport) SetEventCallback(fn EventCallback) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onEvent = fn
}

// On binds a listener to an event kind and returns its detach handle.
// Binding appends; previously bound listeners are kept.
func (t *Transport) On(kind EventKind, fn Listener) ListenerID {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.nextID++
	id := t.nextID

	if t.listeners[kind] == nil {
		t.listeners[kind] = make(map[ListenerID]Listener)
	}
	t.listeners[kind][id] = fn

	return id
}

// Off removes the listener with the given handle. Removing an unknown
// handle is a no-op; other listeners bound to the same kind are kept.
func (t *Transport) Off(kind EventKind, id ListenerID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.listeners[kind], id)
}

// listenerCount reports the number of listeners bound to an event kind
func (t *Transport) listenerCount(kind EventKind) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.listeners[kind])
}

// IsConnected reports whether the WebSocket connection is open
func (t *Transport) IsConnected() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.conn != nil
}

// URL returns the WebSocket URL for this session
func (t *Transport) URL() string {
	wsBase := strings.Replace(t.baseURL, "http", "ws", 1)

	query := url.Values{"clientId": {t.clientID}}
	if t.token != "" {
		query.Set("token", t.token)
	}

	return fmt.Sprintf("%s/ws?%s", wsBase, query.Encode())
}

// Connect opens the WebSocket connection. Any previously open connection
// is closed first; Connect returns once the new connection reports open.
func (t *Transport) Connect(ctx context.Context) error {
	t.mu.Lock()
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}
	wsURL := t.URL()
	t.mu.Unlock()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		t.dispatch(Event{Kind: EventError, Err: err})
		return fmt.Errorf("failed to connect websocket: %w", err)
	}

	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()

	t.logger.WithField("url", wsURL).Debug("WebSocket connected")
	t.dispatch(Event{Kind: EventOpen})

	go t.readLoop(conn)
	return nil
}

// Disconnect closes the connection if one is open. Safe to call repeatedly.
func (t *Transport) Disconnect() {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

// readLoop reads frames until the connection fails or is closed
func (t *Transport) readLoop(conn *websocket.Conn) {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			// a deliberate Disconnect has already cleared the reference;
			// only an unexpected failure is surfaced as an error event
			if t.clearConn(conn) && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				t.logger.WithError(err).Warn("WebSocket read failed")
				t.dispatch(Event{Kind: EventError, Err: err})
			}
			t.dispatch(Event{Kind: EventClose})
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			// progress preview frames, out of scope
			t.logger.WithField("bytes", len(data)).Debug("Dropping binary frame")
		case websocket.TextMessage:
			t.dispatch(Event{Kind: EventMessage, Data: data, Binary: false})
		}
	}
}

// clearConn clears the connection reference if it is still current.
// Returns false when the connection was already replaced or disconnected.
func (t *Transport) clearConn(conn *websocket.Conn) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != conn {
		return false
	}
	t.conn = nil
	return true
}

// dispatch delivers an event to the generic callback and to all listeners
// bound to its kind. Listeners are copied before iteration so a listener
// may detach itself or others during delivery.
func (t *Transport) dispatch(ev Event) {
	t.mu.RLock()
	onEvent := t.onEvent
	bound := make([]Listener, 0, len(t.listeners[ev.Kind]))
	for _, fn := range t.listeners[ev.Kind] {
		bound = append(bound, fn)
	}
	t.mu.RUnlock()

	if onEvent != nil {
		onEvent(ev)
	}
	for _, fn := range bound {
		fn(ev)
	}
}
