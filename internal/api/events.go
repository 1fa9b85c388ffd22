// File: internal/api/events.go
package api

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/xkilldash9x/stylelens/internal/profile"
)

// MessageType defines the kind of message exchanged over the profile socket.
type MessageType string

const (
	// MsgTypeProfiles carries a profile.Event: the current names and active selection.
	MsgTypeProfiles MessageType = "Profiles"
	// MsgTypeSelectProfile asks the server to activate data.name.
	MsgTypeSelectProfile MessageType = "SelectProfile"
	// MsgTypeClearProfile asks the server to clear the selection.
	MsgTypeClearProfile MessageType = "ClearProfile"
	MsgTypeSystemError  MessageType = "SystemError"
)

// eventSnapshot is the Kind of the first message a client receives.
const eventSnapshot profile.EventKind = "snapshot"

// WSMessage is the envelope of every socket message.
type WSMessage struct {
	Type MessageType `json:"type"`
	// Data is a profile.Event when sent by the server and a plain object when received.
	Data interface{} `json:"data,omitempty"`
	// Timestamp formatted as RFC3339.
	Timestamp string `json:"timestamp"`
	RequestID string `json:"request_id,omitempty"`
}

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 8192
	sendChannelSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The panel is served from an extension or dev origin; CORS is open on the HTTP routes too.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsClient is one connected panel.
type wsClient struct {
	server *Server
	conn   *websocket.Conn
	logger *zap.Logger
	// Buffered channel of outgoing messages. The writePump reads from this.
	send      chan WSMessage
	done      chan struct{}
	closeOnce sync.Once
}

func (c *wsClient) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// handleProfileEvents streams profile store changes to the client and accepts selection
// requests from it. The first message is a snapshot of the current state.
func (s *Server) handleProfileEvents() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already answered with an HTTP error.
			s.logger.Warn("Failed to upgrade connection to WebSocket", zap.Error(err))
			return
		}

		c := &wsClient{
			server: s,
			conn:   conn,
			logger: s.logger.With(zap.String("remote_addr", r.RemoteAddr)),
			send:   make(chan WSMessage, sendChannelSize),
			done:   make(chan struct{}),
		}
		if !s.register(c) {
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			conn.Close()
			return
		}
		defer s.unregister(c)
		c.logger.Info("WebSocket connection established (/ws/v1/profiles).")

		events, unsubscribe := s.store.Subscribe()
		snapshot := s.store.Snapshot()
		snapshot.Kind = eventSnapshot
		c.sendMessage(MsgTypeProfiles, "", snapshot)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.writePump()
		}()
		go func() {
			defer wg.Done()
			for {
				select {
				case ev, ok := <-events:
					if !ok {
						return
					}
					c.sendMessage(MsgTypeProfiles, "", ev)
				case <-c.done:
					return
				}
			}
		}()

		c.readPump()
		c.close()
		unsubscribe()
		wg.Wait()
		conn.Close()
		c.logger.Debug("WebSocket handler finished.")
	}
}

// readPump processes client requests until the connection fails or closes.
func (c *wsClient) readPump() {
	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error("Failed to set initial read deadline", zap.Error(err))
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("WebSocket closed unexpectedly", zap.Error(err))
			} else {
				c.logger.Debug("WebSocket connection closed.")
			}
			return
		}
		c.processMessage(msg)
	}
}

// writePump centralizes all writes to the connection and keeps it alive with pings.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Debug("Error writing JSON message to WebSocket", zap.Error(err))
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("Error sending PING message to WebSocket", zap.Error(err))
				return
			}

		case <-c.done:
			return
		}
	}
}

func (c *wsClient) processMessage(msg WSMessage) {
	switch msg.Type {
	case MsgTypeSelectProfile:
		data, _ := msg.Data.(map[string]interface{})
		name, _ := data["name"].(string)
		if name == "" {
			c.sendError(msg.RequestID, "SelectProfile requires data.name.")
			return
		}
		// The resulting store event reaches every client, including this one.
		if err := c.server.store.Select(name); err != nil {
			c.sendError(msg.RequestID, err.Error())
		}
	case MsgTypeClearProfile:
		c.server.store.Clear()
	default:
		c.logger.Warn("Received unknown message type from client", zap.String("type", string(msg.Type)))
		c.sendError(msg.RequestID, fmt.Sprintf("Unknown or unsupported message type: %s", msg.Type))
	}
}

// sendMessage queues a message for the writePump. A full buffer drops the message.
func (c *wsClient) sendMessage(msgType MessageType, requestID string, data interface{}) {
	msg := WSMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: requestID,
	}
	select {
	case c.send <- msg:
	case <-c.done:
	default:
		c.logger.Error("WebSocket send buffer full, dropping message.", zap.String("type", string(msgType)))
	}
}

func (c *wsClient) sendError(requestID, message string) {
	c.sendMessage(MsgTypeSystemError, requestID, map[string]interface{}{"error": message})
}
