package stream

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Navigation event types pushed to connected clients.
const (
	EventFix     = "fix"
	EventState   = "state"
	EventArrived = "arrived"
	EventError   = "error"
)

type Event struct {
	Type     string          `json:"type"`
	DeviceID string          `json:"device_id"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// Hub fans navigation events out to websocket clients per device. With a
// Redis client configured, events travel through pub/sub so every instance
// sees them; without one they are dispatched locally.
type Hub struct {
	redis   *redis.Client
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	DeviceID string
	Send     chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:   redisClient,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Register(deviceID string) *Client {
	client := &Client{
		DeviceID: deviceID,
		Send:     make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[deviceID] == nil {
		h.clients[deviceID] = map[*Client]struct{}{}
	}
	h.clients[deviceID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if deviceClients, ok := h.clients[client.DeviceID]; ok {
		delete(deviceClients, client)
		if len(deviceClients) == 0 {
			delete(h.clients, client.DeviceID)
		}
	}
	close(client.Send)
}

// Publish emits one navigation event for the device. The data payload is
// marshalled into the event envelope.
func (h *Hub) Publish(deviceID, eventType string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Printf("event marshal error: %v", err)
		return
	}
	raw, err := json.Marshal(Event{Type: eventType, DeviceID: deviceID, Data: payload})
	if err != nil {
		log.Printf("event marshal error: %v", err)
		return
	}

	if h.redis != nil {
		if err := h.redis.Publish(context.Background(), navChannel(deviceID), raw).Err(); err != nil {
			log.Printf("redis publish error: %v", err)
		}
		return
	}
	h.dispatch(deviceID, raw)
}

func (h *Hub) dispatch(deviceID string, payload []byte) {
	h.mu.RLock()
	clients := h.clients[deviceID]
	h.mu.RUnlock()

	for client := range clients {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis() {
	pubsub := h.redis.PSubscribe(context.Background(), "nav:*:events")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		h.dispatch(deviceFromChannel(msg.Channel), []byte(msg.Payload))
	}
}

func navChannel(deviceID string) string {
	return "nav:" + deviceID + ":events"
}

func deviceFromChannel(ch string) string {
	// nav:{device}:events
	const prefix = "nav:"
	const suffix = ":events"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
