package ws

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Connection wraps one client's websocket, associated once it joins a
// game with a player id and game id. Grounded on the teacher's
// Connection (internal/delivery/websocket/connection.go): buffered Send
// channel, context-cancellable read/write pumps, best-effort delivery
// that closes the connection rather than blocking the hub.
type Connection struct {
	ID       string
	PlayerID string
	GameID   string
	Conn     *websocket.Conn
	Send     chan Message
	Hub      *Hub

	mu     sync.RWMutex
	logger *zap.Logger
}

func NewConnection(id string, conn *websocket.Conn, hub *Hub, log *zap.Logger) *Connection {
	return &Connection{
		ID:     id,
		Conn:   conn,
		Send:   make(chan Message, 256),
		Hub:    hub,
		logger: log,
	}
}

func (c *Connection) SetPlayer(playerID, gameID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.PlayerID = playerID
	c.GameID = gameID
}

func (c *Connection) GetPlayer() (playerID, gameID string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.PlayerID, c.GameID
}

// ReadPump forwards every inbound message to the hub for dispatch.
func (c *Connection) ReadPump(ctx context.Context) {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			var msg Message
			if err := c.Conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					c.logger.Warn("websocket read error", zap.Error(err), zap.String("connection_id", c.ID))
				}
				return
			}
			select {
			case c.Hub.Inbound <- HubMessage{Connection: c, Message: msg}:
			default:
				c.logger.Warn("hub inbound channel full, dropping connection", zap.String("connection_id", c.ID))
				return
			}
		}
	}
}

// WritePump drains Send to the socket until it is closed or ctx ends.
func (c *Connection) WritePump(ctx context.Context) {
	defer c.Conn.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.Send:
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteJSON(msg); err != nil {
				c.logger.Warn("websocket write error", zap.Error(err), zap.String("connection_id", c.ID))
				return
			}
		}
	}
}

// SendMessage queues a message for delivery, never blocking: a full
// buffer means the client isn't keeping up and the connection is torn
// down rather than stalling the whole hub.
func (c *Connection) SendMessage(msg Message) {
	select {
	case c.Send <- msg:
	default:
		close(c.Send)
	}
}
