// file: internal/realtime/events.go
// version: 2.0.0
// guid: 9e8d7f6a-5c4b-3a21-0f9e-8d7c6b5a4392

package realtime

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
)

// EventType defines the type of real-time event
type EventType string

const (
	EventCollectionLoaded EventType = "collection.loaded"
	EventSearchCompleted  EventType = "search.completed"
	EventConnected        EventType = "connection.established"
)

// Event represents a real-time event to send to clients
type Event struct {
	Type      EventType              `json:"type"`
	ID        string                 `json:"id"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Client represents a connected SSE client
type Client struct {
	ID      string
	Channel chan *Event
	Types   map[EventType]bool // Event types this client wants; empty means all
	mu      sync.RWMutex
}

// NewClient creates a new SSE client
func NewClient(id string) *Client {
	return &Client{
		ID:      id,
		Channel: make(chan *Event, 100),
		Types:   make(map[EventType]bool),
	}
}

// Subscribe limits the client to the given event type (cumulative)
func (c *Client) Subscribe(t EventType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Types[t] = true
}

// Unsubscribe removes an event type from the client's filter
func (c *Client) Unsubscribe(t EventType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.Types, t)
}

// Wants reports whether the client should receive events of type t
func (c *Client) Wants(t EventType) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.Types) == 0 || c.Types[t]
}

// EventHub manages SSE connections and event distribution. Sticky events
// are remembered and replayed to clients that register later.
type EventHub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	sticky  map[EventType]*Event
}

// NewEventHub creates a new event hub
func NewEventHub() *EventHub {
	return &EventHub{
		clients: make(map[string]*Client),
		sticky:  make(map[EventType]*Event),
	}
}

// RegisterClient registers a new client and replays sticky events to it
func (h *EventHub) RegisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	for _, event := range h.sticky {
		if client.Wants(event.Type) {
			deliver(client, event)
		}
	}
	log.Printf("[DEBUG] SSE client %s registered, total clients: %d", client.ID, len(h.clients))
}

// UnregisterClient removes a client
func (h *EventHub) UnregisterClient(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client, exists := h.clients[clientID]; exists {
		close(client.Channel)
		delete(h.clients, clientID)
		log.Printf("[DEBUG] SSE client %s unregistered, remaining clients: %d", clientID, len(h.clients))
	}
}

// Broadcast sends an event to every client that wants its type
func (h *EventHub) Broadcast(event *Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.broadcastLocked(event)
}

// BroadcastSticky sends an event and keeps it as the latest of its type for
// clients that connect afterwards.
func (h *EventHub) BroadcastSticky(event *Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sticky[event.Type] = event
	h.broadcastLocked(event)
}

func (h *EventHub) broadcastLocked(event *Event) {
	count := 0
	for _, client := range h.clients {
		if client.Wants(event.Type) && deliver(client, event) {
			count++
		}
	}
	if count > 0 {
		log.Printf("[DEBUG] Broadcasted event %s to %d clients", event.Type, count)
	}
}

func deliver(client *Client, event *Event) bool {
	select {
	case client.Channel <- event:
		return true
	default:
		log.Printf("[WARN] SSE client %s channel full, dropping event", client.ID)
		return false
	}
}

// SendCollectionLoaded announces the outcome of the collection load. The
// event is sticky.
func (h *EventHub) SendCollectionLoaded(listings, categories, tags int, loadErr string) {
	data := map[string]interface{}{
		"listings":   listings,
		"categories": categories,
		"tags":       tags,
	}
	if loadErr != "" {
		data["error"] = loadErr
	}
	h.BroadcastSticky(&Event{
		Type:      EventCollectionLoaded,
		Timestamp: time.Now(),
		Data:      data,
	})
}

// SendSearchCompleted announces a finished search
func (h *EventHub) SendSearchCompleted(requestID string, data map[string]interface{}) {
	h.Broadcast(&Event{
		Type:      EventSearchCompleted,
		ID:        requestID,
		Timestamp: time.Now(),
		Data:      data,
	})
}

// GetClientCount returns the number of connected clients
func (h *EventHub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleSSE handles Server-Sent Events connection. The optional "types"
// query parameter is a comma separated list of event types to receive.
func (h *EventHub) HandleSSE(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache, no-transform")
	c.Header("Connection", "keep-alive")
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("X-Accel-Buffering", "no")

	clientID := ulid.Make().String()
	client := NewClient(clientID)
	for _, t := range strings.Split(c.Query("types"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			client.Subscribe(EventType(t))
		}
	}

	writeEvent(c, &Event{
		Type:      EventConnected,
		Timestamp: time.Now(),
		Data:      map[string]interface{}{"client_id": clientID},
	})

	h.RegisterClient(client)
	defer h.UnregisterClient(clientID)

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			log.Printf("[DEBUG] SSE client %s connection closed", clientID)
			return
		case event, ok := <-client.Channel:
			if !ok {
				return
			}
			if err := writeEvent(c, event); err != nil {
				log.Printf("[WARN] Error writing to SSE client %s: %v", clientID, err)
				return
			}
		case <-ticker.C:
			heartbeat := map[string]interface{}{
				"type":      "heartbeat",
				"timestamp": time.Now(),
			}
			if data, err := json.Marshal(heartbeat); err == nil {
				_, _ = c.Writer.Write([]byte(fmt.Sprintf("data: %s\n\n", data)))
				c.Writer.Flush()
			}
		}
	}
}

// writeEvent writes one SSE frame: data: {json}\n\n
func writeEvent(c *gin.Context, event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ERROR] Error marshaling event: %v", err)
		return nil
	}
	if _, err := c.Writer.Write([]byte(fmt.Sprintf("data: %s\n\n", data))); err != nil {
		return err
	}
	c.Writer.Flush()
	return nil
}

// Global event hub instance
var GlobalHub *EventHub

// InitializeEventHub initializes the global event hub
func InitializeEventHub() {
	if GlobalHub != nil {
		log.Println("[WARN] event hub already initialized")
		return
	}
	GlobalHub = NewEventHub()
	log.Println("[INFO] Event hub initialized")
}
