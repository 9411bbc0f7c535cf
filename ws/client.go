package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait = 10 * time.Second
	// pongWait is how long a client may stay silent. Clients heartbeat
	// every 30 seconds.
	pongWait       = 90 * time.Second
	maxMessageSize = 4096
	sendBufferSize = 256
	accessTimeout  = 5 * time.Second
)

// Client is one WebSocket connection.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	userID   string
	username string
	send     chan []byte
	// courses is guarded by hub.mu.
	courses map[string]bool
	log     logrus.FieldLogger

	mu sync.Mutex
}

func newClient(hub *Hub, conn *websocket.Conn, userID, username string) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		userID:   userID,
		username: username,
		send:     make(chan []byte, sendBufferSize),
		courses:  make(map[string]bool),
		log:      hub.log.WithField("user_id", userID),
	}
}

// ReadPump reads client frames until the connection fails or goes quiet.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.WithError(err).Warn("failed to set read deadline")
		return
	}

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.WithError(err).Info("unexpected close")
			}
			return
		}

		var msg inbound
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.log.WithError(err).Debug("invalid frame")
			continue
		}

		c.handle(msg)
	}
}

func (c *Client) handle(msg inbound) {
	switch msg.Op {
	case OpHeartbeat:
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.log.WithError(err).Warn("failed to set read deadline")
			return
		}
		c.sendEvent(Event{Op: OpHeartbeatAck})
	case OpSubscribe:
		if data, ok := c.decodeSubscribe(msg); ok {
			go c.handleSubscribe(data.CourseID)
		}
	case OpUnsubscribe:
		if data, ok := c.decodeSubscribe(msg); ok {
			c.hub.unsubscribe(c, data.CourseID)
			c.sendEvent(Event{Op: OpUnsubscribed, Data: data})
		}
	default:
		c.log.WithField("op", msg.Op).Debug("unknown op")
		c.sendError(msg.Op, "unknown op")
	}
}

func (c *Client) decodeSubscribe(msg inbound) (SubscribeData, bool) {
	var data SubscribeData
	if err := json.Unmarshal(msg.Data, &data); err != nil || data.CourseID == "" {
		c.sendError(msg.Op, "course_id is required")
		return data, false
	}
	return data, true
}

// handleSubscribe runs off the read loop because the access check hits
// the database.
func (c *Client) handleSubscribe(courseID string) {
	ctx, cancel := context.WithTimeout(context.Background(), accessTimeout)
	defer cancel()

	allowed, err := c.hub.canSubscribe(ctx, c.userID, courseID)
	if err != nil {
		c.log.WithError(err).WithField("course_id", courseID).Error("subscription check failed")
		c.sendError(OpSubscribe, "subscription failed")
		return
	}
	if !allowed {
		c.sendError(OpSubscribe, "not allowed to follow this course")
		return
	}

	if c.hub.subscribe(c, courseID) {
		c.sendEvent(Event{Op: OpSubscribed, Data: SubscribeData{CourseID: courseID}})
	}
}

func (c *Client) sendError(op, message string) {
	c.sendEvent(Event{Op: OpError, Data: ErrorData{Op: op, Message: message}})
}

func (c *Client) sendEvent(event Event) {
	if data, ok := c.hub.encode(event); ok {
		c.hub.sendTo(c, data)
	}
}

// WritePump drains the send queue onto the socket. A closed queue ends
// the connection with a close frame.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.writeMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	_ = c.writeMessage(websocket.CloseMessage, nil)
}

func (c *Client) writeMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}
