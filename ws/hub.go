package ws

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// EventPublisher is the slice of the hub services depend on.
type EventPublisher interface {
	BroadcastToCourse(courseID string, event Event)
	BroadcastToUser(userID string, event Event)
}

// AccessChecker decides whether userID may follow a course's events.
type AccessChecker func(ctx context.Context, userID, courseID string) (bool, error)

// Hub tracks connections per user and subscriptions per course.
//
// Removal goes through a channel drained by Run so slow-client evictions
// never block a broadcast. Everything else takes mu directly.
type Hub struct {
	clients map[string]map[*Client]bool
	courses map[string]map[*Client]bool
	mu      sync.RWMutex

	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once

	seq atomic.Int64

	canSubscribe AccessChecker
	log          logrus.FieldLogger
}

func NewHub(canSubscribe AccessChecker, logger logrus.FieldLogger) *Hub {
	return &Hub{
		clients:      make(map[string]map[*Client]bool),
		courses:      make(map[string]map[*Client]bool),
		unregister:   make(chan *Client),
		done:         make(chan struct{}),
		canSubscribe: canSubscribe,
		log:          logger.WithField("component", "ws"),
	}
}

// Run processes removals until Shutdown.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.done:
			return
		}
	}
}

// add registers client so it can receive events right away. It fails
// once the hub is shut down.
func (h *Hub) add(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	select {
	case <-h.done:
		return false
	default:
	}

	if _, ok := h.clients[client.userID]; !ok {
		h.clients[client.userID] = make(map[*Client]bool)
	}
	h.clients[client.userID][client] = true

	h.log.WithFields(logrus.Fields{
		"user_id":     client.userID,
		"connections": len(h.clients[client.userID]),
	}).Debug("client connected")
	return true
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.userID]
	if !ok || !clients[client] {
		return
	}

	for courseID := range client.courses {
		h.dropSubscriptionLocked(client, courseID)
	}

	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.userID)
	}

	h.log.WithField("user_id", client.userID).Debug("client disconnected")
}

// remove hands client to Run without blocking once the hub has stopped.
func (h *Hub) remove(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// subscribe adds client to courseID's audience. It fails when client was
// removed meanwhile.
func (h *Hub) subscribe(client *Client, courseID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[client.userID][client] {
		return false
	}

	if _, ok := h.courses[courseID]; !ok {
		h.courses[courseID] = make(map[*Client]bool)
	}
	h.courses[courseID][client] = true
	client.courses[courseID] = true
	return true
}

func (h *Hub) unsubscribe(client *Client, courseID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropSubscriptionLocked(client, courseID)
}

func (h *Hub) dropSubscriptionLocked(client *Client, courseID string) {
	delete(client.courses, courseID)
	if subs, ok := h.courses[courseID]; ok {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.courses, courseID)
		}
	}
}

func (h *Hub) encode(event Event) ([]byte, bool) {
	event.Seq = h.seq.Add(1)
	data, err := json.Marshal(event)
	if err != nil {
		h.log.WithError(err).WithField("op", event.Op).Error("failed to marshal event")
		return nil, false
	}
	return data, true
}

// deliver queues data to every client. Slow clients whose buffer is full
// are disconnected.
func (h *Hub) deliver(clients map[*Client]bool, data []byte) {
	for client := range clients {
		select {
		case client.send <- data:
		default:
			go h.remove(client)
		}
	}
}

// BroadcastToCourse sends event to everyone subscribed to courseID.
func (h *Hub) BroadcastToCourse(courseID string, event Event) {
	data, ok := h.encode(event)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	h.deliver(h.courses[courseID], data)
}

// BroadcastToUser sends event to all of userID's connections.
func (h *Hub) BroadcastToUser(userID string, event Event) {
	data, ok := h.encode(event)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	h.deliver(h.clients[userID], data)
}

// SubscriberCount reports how many connections follow courseID.
func (h *Hub) SubscriberCount(courseID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.courses[courseID])
}

// Shutdown stops Run and closes every connection's send queue.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.stopOnce.Do(func() { close(h.done) })

	for _, clients := range h.clients {
		for client := range clients {
			close(client.send)
		}
	}
	h.clients = make(map[string]map[*Client]bool)
	h.courses = make(map[string]map[*Client]bool)
	h.log.Info("hub shut down")
}

// sendTo queues data for one client if it is still registered. Membership
// is checked under mu because removal closes the send channel.
func (h *Hub) sendTo(client *Client, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.clients[client.userID][client] {
		return
	}
	h.deliver(map[*Client]bool{client: true}, data)
}
