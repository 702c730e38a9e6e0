package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"mimoly/pkg/logger"
)

const (
	NotificationUnread          = "unread"
	NotificationPaymentReceived = "payment_received"
	NotificationPong            = "pong"

	writeWait = 10 * time.Second
)

// Notification is the only frame the server pushes to clients.
type Notification struct {
	Type      string `json:"type"`
	ChatID    string `json:"chat_id,omitempty"`
	PaymentID string `json:"payment_id,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Client represents a WebSocket connection client
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte
}

func NewClient(userID string, conn *websocket.Conn) *Client {
	return &Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
	}
}

// Manager keeps the latest connection of every online user.
type Manager struct {
	clients    map[string]*Client
	Register   chan *Client
	Unregister chan *Client
	mutex      sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Start runs the manager's main loop in a goroutine
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				if previous, ok := m.clients[client.UserID]; ok && previous != client {
					close(previous.Send)
				}
				m.clients[client.UserID] = client
				m.mutex.Unlock()
				logger.Debug("Client registered: %s", client.UserID)

			case client := <-m.Unregister:
				m.mutex.Lock()
				if current, ok := m.clients[client.UserID]; ok && current == client {
					delete(m.clients, client.UserID)
					close(client.Send)
				}
				m.mutex.Unlock()
				logger.Debug("Client unregistered: %s", client.UserID)

			case <-ctx.Done():
				return
			}
		}
	}()
}

func (m *Manager) IsOnline(userID string) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	_, ok := m.clients[userID]
	return ok
}

// SendToUser queues message for userID. It never blocks: offline users and
// full buffers drop the message.
func (m *Manager) SendToUser(userID string, message []byte) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	client, ok := m.clients[userID]
	if !ok {
		return false
	}
	select {
	case client.Send <- message:
		return true
	default:
		logger.Warn("Dropping notification for %s: send buffer full", userID)
		return false
	}
}

// Notify pushes n to userID if connected.
func (m *Manager) Notify(ctx context.Context, userID string, n Notification) error {
	if n.Timestamp == "" {
		n.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	m.SendToUser(userID, payload)
	return nil
}

// ReadPump answers pings and unregisters the client when the connection drops.
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.Unregister <- c
		c.Conn.Close()
	}()

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket read error for %s: %v", c.UserID, err)
			}
			break
		}

		var frame struct {
			Type string `json:"type"`
		}
		if json.Unmarshal(message, &frame) == nil && frame.Type == "ping" {
			pong, _ := json.Marshal(Notification{Type: NotificationPong, Timestamp: time.Now().UTC().Format(time.RFC3339)})
			m.SendToUser(c.UserID, pong)
		}
	}
}

// WritePump sends messages to the WebSocket connection
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for message := range c.Send {
		c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			logger.Warn("websocket write error for %s: %v", c.UserID, err)
			return
		}
	}
	c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}
