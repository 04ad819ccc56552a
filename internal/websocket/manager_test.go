package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"notedev-server/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func testOptions(maxConnections int) Options {
	return Options{
		MaxConnections: maxConnections,
		MaxMessageSize: 1 << 16,
		WriteWait:      time.Second,
		PongWait:       time.Minute,
		PingPeriod:     50 * time.Second,
	}
}

func startManager(t *testing.T, m *Manager) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(stopped)
	}()
	return func() {
		cancel()
		<-stopped
	}
}

func readMessage(t *testing.T, c *Client) *Message {
	t.Helper()
	select {
	case data := <-c.Send:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return &msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, time.Second, 5*time.Millisecond)
}

func TestManager_RegisterAndLimit(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := NewManager(testOptions(1), zap.NewNop())
	stop := startManager(t, m)
	defer stop()

	first := NewClient("c1", "127.0.0.1", nil, m)
	second := NewClient("c2", "127.0.0.2", nil, m)

	require.True(t, m.Connect(first))
	waitFor(t, func() bool { return m.ConnectionCount() == 1 })
	assert.True(t, m.Full())

	require.True(t, m.Connect(second))
	waitFor(t, func() bool { return second.Context().Err() != nil })
	assert.Equal(t, 1, m.ConnectionCount())

	m.unregister(first)
	waitFor(t, func() bool { return m.ConnectionCount() == 0 })
	assert.Error(t, first.Context().Err())
}

func TestManager_DocumentCreatedBroadcast(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := NewManager(testOptions(10), zap.NewNop())
	stop := startManager(t, m)
	defer stop()

	a := NewClient("a", "", nil, m)
	b := NewClient("b", "", nil, m)
	m.Connect(a)
	m.Connect(b)
	waitFor(t, func() bool { return m.ConnectionCount() == 2 })

	m.DocumentCreated(&domain.Document{ID: "doc-1", NoteID: "n1", TemplateID: "t1", Title: "N - T"})

	for _, c := range []*Client{a, b} {
		msg := readMessage(t, c)
		assert.Equal(t, TypeDocumentCreated, msg.Type)

		var payload DocumentCreatedPayload
		require.NoError(t, msg.UnmarshalPayload(&payload))
		assert.Equal(t, "doc-1", payload.DocumentID)
		assert.Equal(t, "N - T", payload.Title)
	}
}

type recordingHandler struct {
	mu       sync.Mutex
	received []*Message
}

func (h *recordingHandler) HandleWebSocketMessage(client *Client, msg *Message) error {
	h.mu.Lock()
	h.received = append(h.received, msg)
	h.mu.Unlock()

	pong, err := NewMessage(TypePong, nil)
	if err != nil {
		return err
	}
	return client.SendMessage(pong)
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.received)
}

func TestManager_DispatchesMessages(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := NewManager(testOptions(10), zap.NewNop())
	handler := &recordingHandler{}
	m.SetMessageHandler(handler)
	stop := startManager(t, m)
	defer stop()

	c := NewClient("c", "", nil, m)
	m.Connect(c)

	m.HandleMessage <- &ClientMessage{Client: c, Message: []byte(`{"type":"ping"}`)}
	m.HandleMessage <- &ClientMessage{Client: c, Message: []byte(`not json`)}

	assert.Equal(t, TypePong, readMessage(t, c).Type)
	waitFor(t, func() bool { return handler.count() == 1 })
}

func TestManager_StopClosesClients(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := NewManager(testOptions(10), zap.NewNop())
	stop := startManager(t, m)

	c := NewClient("c", "", nil, m)
	m.Connect(c)
	waitFor(t, func() bool { return m.ConnectionCount() == 1 })

	stop()

	assert.Error(t, c.Context().Err())
	assert.ErrorIs(t, c.SendMessage(&Message{Type: TypePing}), ErrClientClosed)

	late := NewClient("late", "", nil, m)
	assert.False(t, m.Connect(late))
	assert.Error(t, late.Context().Err())
}

func TestClient_SendMessageWaitsForSpace(t *testing.T) {
	m := NewManager(testOptions(10), zap.NewNop())
	c := NewClient("c", "", nil, m)
	c.Send = make(chan []byte, 1)

	require.NoError(t, c.SendMessage(&Message{Type: TypeFragment}))

	result := make(chan error, 1)
	go func() { result <- c.SendMessage(&Message{Type: TypeDone}) }()

	select {
	case <-result:
		t.Fatal("SendMessage returned while buffer was full")
	case <-time.After(20 * time.Millisecond):
	}

	<-c.Send
	require.NoError(t, <-result)

	c.Close()
	assert.ErrorIs(t, c.SendMessage(&Message{Type: TypeDone}), ErrClientClosed)
}

func TestNewStreamMessage(t *testing.T) {
	msg, err := NewStreamMessage("req-1", domain.StreamEvent{Type: domain.StreamEventFragment, Chunk: "hello"})
	require.NoError(t, err)
	assert.Equal(t, TypeFragment, msg.Type)
	assert.JSONEq(t, `{"request_id":"req-1","type":"fragment","chunk":"hello"}`, string(msg.Payload))

	done, err := NewStreamMessage("req-1", domain.StreamEvent{Type: domain.StreamEventDone, DocumentID: "doc-9"})
	require.NoError(t, err)
	assert.Equal(t, TypeDone, done.Type)
	assert.JSONEq(t, `{"request_id":"req-1","type":"done","document_id":"doc-9"}`, string(done.Payload))
}
