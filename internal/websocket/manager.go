package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"notedev-server/internal/domain"

	"go.uber.org/zap"
)

type ClientMessage struct {
	Client  *Client
	Message []byte
}

type Manager struct {
	clients        map[string]*Client
	clientsMutex   sync.RWMutex
	Register       chan *Client
	Unregister     chan *Client
	HandleMessage  chan *ClientMessage
	done           chan struct{}
	handlers       sync.WaitGroup
	maxConnections int
	maxMessageSize int64
	writeWait      time.Duration
	pongWait       time.Duration
	pingPeriod     time.Duration
	messageHandler MessageHandler
	logger         *zap.Logger
}

// MessageHandler processes one inbound message. Each call runs on its own
// goroutine so a long transformation does not hold up other clients.
type MessageHandler interface {
	HandleWebSocketMessage(client *Client, msg *Message) error
}

type Options struct {
	MaxConnections int
	MaxMessageSize int64
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
}

func NewManager(opts Options, logger *zap.Logger) *Manager {
	return &Manager{
		clients:        make(map[string]*Client),
		Register:       make(chan *Client),
		Unregister:     make(chan *Client),
		HandleMessage:  make(chan *ClientMessage),
		done:           make(chan struct{}),
		maxConnections: opts.MaxConnections,
		maxMessageSize: opts.MaxMessageSize,
		writeWait:      opts.WriteWait,
		pongWait:       opts.PongWait,
		pingPeriod:     opts.PingPeriod,
		logger:         logger,
	}
}

func (m *Manager) SetMessageHandler(handler MessageHandler) {
	m.messageHandler = handler
}

// Run serves registrations and inbound messages until ctx is cancelled,
// then closes every client and waits for in-flight handlers.
func (m *Manager) Run(ctx context.Context) {
	defer func() {
		close(m.done)
		m.closeAll()
		m.handlers.Wait()
	}()

	for {
		select {
		case client := <-m.Register:
			m.registerClient(client)

		case client := <-m.Unregister:
			m.unregisterClient(client)

		case clientMsg := <-m.HandleMessage:
			m.processMessage(clientMsg)

		case <-ctx.Done():
			return
		}
	}
}

// Full reports whether another connection would exceed the limit.
func (m *Manager) Full() bool {
	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()
	return m.maxConnections > 0 && len(m.clients) >= m.maxConnections
}

// Connect registers client with the running manager. It returns false when
// the manager has stopped.
func (m *Manager) Connect(client *Client) bool {
	select {
	case m.Register <- client:
		return true
	case <-m.done:
		client.Close()
		return false
	}
}

func (m *Manager) unregister(client *Client) {
	select {
	case m.Unregister <- client:
	case <-m.done:
	}
}

func (m *Manager) registerClient(client *Client) {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	if m.maxConnections > 0 && len(m.clients) >= m.maxConnections {
		m.logger.Warn("Max WebSocket connections reached", zap.Int("max", m.maxConnections))
		client.Close()
		return
	}

	m.clients[client.ID] = client

	m.logger.Info("WebSocket client registered",
		zap.String("client_id", client.ID),
		zap.String("remote_addr", client.RemoteAddr),
	)
}

func (m *Manager) unregisterClient(client *Client) {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	if _, ok := m.clients[client.ID]; ok {
		delete(m.clients, client.ID)
		client.Close()
		m.logger.Info("WebSocket client unregistered", zap.String("client_id", client.ID))
	}
}

func (m *Manager) closeAll() {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	for id, client := range m.clients {
		client.Close()
		delete(m.clients, id)
	}
}

func (m *Manager) processMessage(clientMsg *ClientMessage) {
	var msg Message
	if err := json.Unmarshal(clientMsg.Message, &msg); err != nil {
		m.logger.Warn("Error unmarshaling WebSocket message", zap.String("client_id", clientMsg.Client.ID), zap.Error(err))
		return
	}

	if m.messageHandler == nil {
		return
	}

	m.handlers.Add(1)
	go func() {
		defer m.handlers.Done()
		if err := m.messageHandler.HandleWebSocketMessage(clientMsg.Client, &msg); err != nil {
			m.logger.Warn("Error handling WebSocket message",
				zap.String("client_id", clientMsg.Client.ID),
				zap.String("type", string(msg.Type)),
				zap.Error(err),
			)
		}
	}()
}

// BroadcastAll queues message for every connected client. Clients whose
// buffer is full miss it.
func (m *Manager) BroadcastAll(message *Message) error {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()

	for clientID, client := range m.clients {
		if !client.trySend(messageBytes) {
			m.logger.Warn("WebSocket client send buffer full, dropping broadcast", zap.String("client_id", clientID))
		}
	}

	return nil
}

func (m *Manager) SendToClient(clientID string, message *Message) error {
	m.clientsMutex.RLock()
	client, exists := m.clients[clientID]
	m.clientsMutex.RUnlock()

	if !exists {
		return ErrClientClosed
	}

	return client.SendMessage(message)
}

func (m *Manager) ConnectionCount() int {
	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()
	return len(m.clients)
}

// DocumentCreated announces a new document to every connected client.
func (m *Manager) DocumentCreated(doc *domain.Document) {
	msg, err := NewMessage(TypeDocumentCreated, &DocumentCreatedPayload{
		DocumentID: doc.ID,
		NoteID:     doc.NoteID,
		TemplateID: doc.TemplateID,
		Title:      doc.Title,
		CreatedAt:  doc.CreatedAt,
	})
	if err != nil {
		m.logger.Error("Failed to build document_created message", zap.Error(err))
		return
	}

	if err := m.BroadcastAll(msg); err != nil {
		m.logger.Error("Failed to broadcast document_created", zap.Error(err))
	}
}
