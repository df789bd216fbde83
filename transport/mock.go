package transport

import (
	"context"
	"sync"
)

// MockTransport is a scriptable in-memory Transport for tests, modeled
// directly on the teacher's transport.MockTransport: captured calls
// plus overridable hook functions, rather than a full fake network
// stack.
type MockTransport struct {
	ConnectFunc   func(ctx context.Context, token string, endpoints []Endpoint) error
	BootstrapFunc func(ctx context.Context, token string, beaconPort *int) error
	SendFunc      func(conn ConnID, b []byte) error

	SentMessages []sentMessage

	mu     sync.Mutex
	events chan Event
}

type sentMessage struct {
	Conn ConnID
	Data []byte
}

// NewMockTransport builds a MockTransport with a buffered event channel.
func NewMockTransport() *MockTransport {
	return &MockTransport{events: make(chan Event, 64)}
}

func (m *MockTransport) Bootstrap(ctx context.Context, token string, beaconPort *int) error {
	if m.BootstrapFunc != nil {
		return m.BootstrapFunc(ctx, token, beaconPort)
	}
	m.Emit(Event{Kind: EventBootstrapFinished})
	return nil
}

func (m *MockTransport) StopBootstrap() {}

func (m *MockTransport) StartBeacon(port int) error { return nil }

func (m *MockTransport) StartAccepting(port int) (Endpoint, error) {
	return Endpoint("mock:0"), nil
}

func (m *MockTransport) Connect(ctx context.Context, token string, endpoints []Endpoint) error {
	if m.ConnectFunc != nil {
		return m.ConnectFunc(ctx, token, endpoints)
	}
	m.Emit(Event{Kind: EventOnConnect, Result: true, Token: token})
	return nil
}

func (m *MockTransport) Send(conn ConnID, b []byte) error {
	m.mu.Lock()
	m.SentMessages = append(m.SentMessages, sentMessage{Conn: conn, Data: b})
	m.mu.Unlock()

	if m.SendFunc != nil {
		return m.SendFunc(conn, b)
	}
	return nil
}

func (m *MockTransport) DropNode(conn ConnID) error {
	m.Emit(Event{Kind: EventLostConnection, Conn: conn})
	return nil
}

func (m *MockTransport) GetExternalEndpoints() []Endpoint { return nil }

func (m *MockTransport) Events() <-chan Event { return m.events }

// Emit pushes an event as if the network produced it, letting tests
// drive the engine's dispatcher loop deterministically.
func (m *MockTransport) Emit(e Event) {
	m.events <- e
}

// Reset clears captured sent messages, mirroring the teacher's
// MockTransport.Reset.
func (m *MockTransport) Reset() {
	m.mu.Lock()
	m.SentMessages = nil
	m.mu.Unlock()
}

// SentCount reports how many messages have been sent so far.
func (m *MockTransport) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.SentMessages)
}
