package realtime

import (
	"encoding/json"
	"sync"

	"github.com/rideinzw/dispatch/pkg/logger"
)

// Hub maintains active client connections and routes messages by topic
type Hub struct {
	clients    map[*Client]bool
	topics     map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	publish    chan envelope
	mu         sync.RWMutex
	logger     *logger.Logger
}

type envelope struct {
	topic string
	data  []byte
}

// Message represents a WebSocket message
type Message struct {
	Type  string      `json:"type"`
	Topic string      `json:"topic,omitempty"`
	Data  interface{} `json:"data,omitempty"`
}

// NewHub creates a new WebSocket hub
func NewHub(logger *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		topics:     make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		publish:    make(chan envelope, 256),
		logger:     logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Info("Client registered",
				logger.String("client_id", client.ID),
				logger.String("user_id", client.UserID),
				logger.String("role", client.Role),
			)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				for _, topic := range client.topicList() {
					h.dropSubscriber(topic, client)
				}
				close(client.Send)
				h.logger.Info("Client unregistered",
					logger.String("client_id", client.ID),
				)
			}
			h.mu.Unlock()

		case env := <-h.publish:
			h.mu.RLock()
			for client := range h.topics[env.topic] {
				select {
				case client.Send <- env.data:
				default:
					h.logger.Warn("Client send buffer full, dropping message",
						logger.String("client_id", client.ID),
						logger.String("topic", env.topic),
					)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register registers a new client
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister unregisters a client
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Publish sends a message to every client subscribed to the topic
func (h *Hub) Publish(topic string, message Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal message",
			logger.Err(err),
			logger.String("topic", topic),
		)
		return
	}

	select {
	case h.publish <- envelope{topic: topic, data: data}:
	default:
		h.logger.Warn("Hub publish buffer full, dropping message",
			logger.String("topic", topic),
		)
	}
}

// subscribe adds a client to a topic
func (h *Hub) subscribe(client *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[*Client]bool)
		h.topics[topic] = subs
	}
	subs[client] = true
}

// unsubscribe removes a client from a topic
func (h *Hub) unsubscribe(client *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropSubscriber(topic, client)
}

// dropSubscriber removes the client from the topic index; caller holds mu
func (h *Hub) dropSubscriber(topic string, client *Client) {
	if subs, ok := h.topics[topic]; ok {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
}

// ActiveConnections returns the number of connected clients
func (h *Hub) ActiveConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// TopicSubscribers returns the number of clients subscribed to a topic
func (h *Hub) TopicSubscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}
