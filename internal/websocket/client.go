package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var ErrClientClosed = errors.New("websocket client closed")

type Client struct {
	ID         string
	RemoteAddr string
	Conn       *websocket.Conn
	Manager    *Manager
	Send       chan []byte

	ctx    context.Context
	cancel context.CancelFunc
}

func NewClient(id, remoteAddr string, conn *websocket.Conn, manager *Manager) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		ID:         id,
		RemoteAddr: remoteAddr,
		Conn:       conn,
		Manager:    manager,
		Send:       make(chan []byte, 256),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Context is cancelled once the connection is closed. Work started on
// behalf of the client should stop with it.
func (c *Client) Context() context.Context {
	return c.ctx
}

func (c *Client) Close() {
	c.cancel()
}

// SendMessage queues msg for delivery, waiting for buffer space. It fails
// only when the client has gone away.
func (c *Client) SendMessage(msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	select {
	case <-c.ctx.Done():
		return ErrClientClosed
	default:
	}

	select {
	case c.Send <- data:
		return nil
	case <-c.ctx.Done():
		return ErrClientClosed
	}
}

// trySend queues data without waiting and reports whether it was queued.
func (c *Client) trySend(data []byte) bool {
	if c.ctx.Err() != nil {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.Manager.unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Manager.logger.Warn("WebSocket read error", zap.String("client_id", c.ID), zap.Error(err))
			}
			break
		}

		select {
		case c.Manager.HandleMessage <- &ClientMessage{Client: c, Message: message}:
		case <-c.ctx.Done():
			return
		}
	}
}

// WritePump sends one frame per queued message so each frame is a single
// JSON document.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.Manager.pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.Close()
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}

		case <-c.ctx.Done():
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.writeWait))
			c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
