package transport

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/adrianbrink/routing/internal/logger"
)

// WebSocketTransport implements Transport over github.com/gorilla/websocket:
// each dialed or accepted connection becomes a binary message pump that
// turns gorilla's read-loop and close events into Events on a shared
// channel, the way the teacher's websocket.WSTransport/WSServer pair
// turns JSON request/response frames into MessageTransport calls —
// generalized here from request/response RPC framing to the routing
// engine's fire-and-forget Send plus asynchronous Event delivery.
type WebSocketTransport struct {
	dialer   *websocket.Dialer
	upgrader websocket.Upgrader

	dialTimeout  time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration

	mu    sync.Mutex
	conns map[ConnID]*websocket.Conn
	next  atomic.Uint64

	externalMu  sync.RWMutex
	externalEPs []Endpoint

	events chan Event
	log    logger.Logger
}

// NewWebSocketTransport builds a WebSocketTransport with teacher-style
// default timeouts (30s dial/write, 60s read).
func NewWebSocketTransport(log logger.Logger) *WebSocketTransport {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	return &WebSocketTransport{
		dialer:       &websocket.Dialer{HandshakeTimeout: 30 * time.Second},
		upgrader:     websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096},
		dialTimeout:  30 * time.Second,
		readTimeout:  60 * time.Second,
		writeTimeout: 30 * time.Second,
		conns:        make(map[ConnID]*websocket.Conn),
		events:       make(chan Event, 256),
		log:          log,
	}
}

func (t *WebSocketTransport) Bootstrap(ctx context.Context, token string, beaconPort *int) error {
	// token is the host:port of a node already accepting WebSocket
	// connections; dialing it reports OnConnect exactly as Connect does,
	// and the routing engine's relocation protocol takes over from there.
	if err := t.Connect(ctx, token, []Endpoint{Endpoint(token)}); err != nil {
		t.log.Warn("bootstrap dial failed", logger.Error(err))
	}
	t.emit(Event{Kind: EventBootstrapFinished})
	return nil
}

func (t *WebSocketTransport) StopBootstrap() {}

func (t *WebSocketTransport) StartBeacon(port int) error {
	// UDP subnet discovery is out of scope for the WebSocket transport;
	// callers that need LAN bootstrap should pair this with a separate
	// beacon implementation. Accepted as a documented gap, not a silent one.
	return fmt.Errorf("transport: StartBeacon not supported over WebSocket")
}

func (t *WebSocketTransport) StartAccepting(port int) (Endpoint, error) {
	ep := Endpoint(fmt.Sprintf(":%d", port))
	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/", t.handleUpgrade)
		if err := http.ListenAndServe(string(ep), mux); err != nil {
			t.log.Error("websocket accept loop stopped", logger.Error(err))
		}
	}()
	return ep, nil
}

func (t *WebSocketTransport) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		t.log.Warn("websocket upgrade failed", logger.Error(err))
		return
	}
	id := t.registerConn(conn)
	t.emit(Event{Kind: EventOnAccept, Conn: id})
	go t.readLoop(id, conn)
}

func (t *WebSocketTransport) Connect(ctx context.Context, token string, endpoints []Endpoint) error {
	var lastErr error
	for _, ep := range endpoints {
		dialCtx, cancel := context.WithTimeout(ctx, t.dialTimeout)
		conn, _, err := t.dialer.DialContext(dialCtx, "ws://"+string(ep), nil)
		cancel()
		if err != nil {
			lastErr = err
			continue
		}
		id := t.registerConn(conn)
		go t.readLoop(id, conn)
		t.emit(Event{Kind: EventOnConnect, Result: true, Token: token, Conn: id})
		return nil
	}
	t.emit(Event{Kind: EventOnConnect, Result: false, Token: token})
	if lastErr != nil {
		return fmt.Errorf("transport: dialing endpoints: %w", lastErr)
	}
	return fmt.Errorf("transport: no endpoints supplied")
}

func (t *WebSocketTransport) registerConn(conn *websocket.Conn) ConnID {
	id := ConnID(t.next.Add(1))
	t.mu.Lock()
	t.conns[id] = conn
	t.mu.Unlock()
	return id
}

func (t *WebSocketTransport) Send(conn ConnID, b []byte) error {
	t.mu.Lock()
	c, ok := t.conns[conn]
	t.mu.Unlock()
	if !ok {
		return fmt.Errorf("transport: unknown connection %d", conn)
	}

	if err := c.SetWriteDeadline(time.Now().Add(t.writeTimeout)); err != nil {
		return fmt.Errorf("transport: set write deadline: %w", err)
	}
	if err := c.WriteMessage(websocket.BinaryMessage, b); err != nil {
		return fmt.Errorf("transport: write message: %w", err)
	}
	return nil
}

func (t *WebSocketTransport) DropNode(conn ConnID) error {
	t.mu.Lock()
	c, ok := t.conns[conn]
	delete(t.conns, conn)
	t.mu.Unlock()
	if !ok {
		return nil
	}
	_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.Close()
}

func (t *WebSocketTransport) readLoop(id ConnID, conn *websocket.Conn) {
	defer func() {
		t.mu.Lock()
		delete(t.conns, id)
		t.mu.Unlock()
		t.emit(Event{Kind: EventLostConnection, Conn: id})
	}()

	for {
		if err := conn.SetReadDeadline(time.Now().Add(t.readTimeout)); err != nil {
			return
		}
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				t.log.Warn("websocket read error", logger.Error(err))
			}
			return
		}
		if kind != websocket.BinaryMessage {
			continue
		}
		t.emit(Event{Kind: EventNewMessage, Conn: id, Payload: data})
	}
}

// RecordExternalEndpoint stores an endpoint a peer reported we are
// reachable on, and fans it out as an ExternalEndpoints event so
// relocate.go's sendEndpoints can include it in future Endpoints
// messages (§9 "External endpoints" — see SPEC_FULL.md §4).
func (t *WebSocketTransport) RecordExternalEndpoint(ep Endpoint) {
	t.externalMu.Lock()
	t.externalEPs = append(t.externalEPs, ep)
	eps := append([]Endpoint(nil), t.externalEPs...)
	t.externalMu.Unlock()
	t.emit(Event{Kind: EventExternalEndpoints, Endpoints: eps})
}

func (t *WebSocketTransport) GetExternalEndpoints() []Endpoint {
	t.externalMu.RLock()
	defer t.externalMu.RUnlock()
	return append([]Endpoint(nil), t.externalEPs...)
}

func (t *WebSocketTransport) Events() <-chan Event { return t.events }

func (t *WebSocketTransport) emit(e Event) {
	select {
	case t.events <- e:
	default:
		t.log.Warn("transport event channel full, dropping event", logger.String("kind", string(e.Kind)))
	}
}
