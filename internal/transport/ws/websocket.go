package ws

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeHTTP upgrades the request to a websocket and registers the
// resulting Connection with the hub, grounded on the teacher's
// cmd/server wiring of http.HandleFunc("/ws", ...).
func ServeHTTP(hub *Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("websocket upgrade failed", zap.Error(err))
			return
		}
		c := NewConnection(uuid.NewString(), conn, hub, log)
		hub.Register <- c
		go c.WritePump(r.Context())
		c.ReadPump(r.Context())
	}
}
