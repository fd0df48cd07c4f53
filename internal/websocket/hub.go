package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"

	"github.com/hireflow/api/internal/model"
)

// Client represents a WebSocket client subscribed to one application
type Client struct {
	ApplicationID string
	Conn          *websocket.Conn
	Send          chan []byte
}

// Hub maintains active WebSocket connections
type Hub struct {
	// Clients grouped by application ID
	clients map[string]map[*Client]bool

	// Register requests
	register chan *Client

	// Unregister requests
	unregister chan *Client

	// Broadcast messages to application subscribers
	broadcast chan *BroadcastMessage

	mu sync.RWMutex
}

// BroadcastMessage represents a message to broadcast
type BroadcastMessage struct {
	ApplicationID string
	Message       []byte
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage, 256),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.ApplicationID] == nil {
				h.clients[client.ApplicationID] = make(map[*Client]bool)
			}
			h.clients[client.ApplicationID][client] = true
			h.mu.Unlock()
			log.Printf("Client registered for application %s", client.ApplicationID)

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.ApplicationID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.Send)
					if len(clients) == 0 {
						delete(h.clients, client.ApplicationID)
					}
				}
			}
			h.mu.Unlock()
			log.Printf("Client unregistered from application %s", client.ApplicationID)

		case msg := <-h.broadcast:
			// Write lock: slow clients get dropped from the map here
			h.mu.Lock()
			if clients, ok := h.clients[msg.ApplicationID]; ok {
				for client := range clients {
					select {
					case client.Send <- msg.Message:
					default:
						close(client.Send)
						delete(clients, client)
					}
				}
				if len(clients) == 0 {
					delete(h.clients, msg.ApplicationID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Register adds a new client
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// BroadcastStage sends a stage transition to all application subscribers
func (h *Hub) BroadcastStage(applicationID string, stage model.StageRecord) {
	msg := model.WSStageMessage{
		Type:          model.WSMessageTypeStage,
		ApplicationID: applicationID,
		Stage:         stage,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal stage message: %v", err)
		return
	}

	h.broadcast <- &BroadcastMessage{
		ApplicationID: applicationID,
		Message:       data,
	}
}

// BroadcastComplete sends the final ledger to all application subscribers
func (h *Hub) BroadcastComplete(applicationID string, progress []model.StageRecord) {
	msg := model.WSCompleteMessage{
		Type:          model.WSMessageTypeComplete,
		ApplicationID: applicationID,
		Progress:      progress,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal complete message: %v", err)
		return
	}

	h.broadcast <- &BroadcastMessage{
		ApplicationID: applicationID,
		Message:       data,
	}
}

// BroadcastError sends an error message to all application subscribers
func (h *Hub) BroadcastError(applicationID string, code, message string) {
	msg := model.WSErrorMessage{
		Type:          model.WSMessageTypeError,
		ApplicationID: applicationID,
		Error: model.WSError{
			Code:    code,
			Message: message,
		},
	}

	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal error message: %v", err)
		return
	}

	h.broadcast <- &BroadcastMessage{
		ApplicationID: applicationID,
		Message:       data,
	}
}

// HandleConnection handles a WebSocket connection
func (h *Hub) HandleConnection(c *websocket.Conn, applicationID string) {
	client := &Client{
		ApplicationID: applicationID,
		Conn:          c,
		Send:          make(chan []byte, 256),
	}

	h.Register(client)
	defer h.Unregister(client)

	// Start writer goroutine
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case message, ok := <-client.Send:
				if !ok {
					c.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				if err := c.WriteMessage(websocket.TextMessage, message); err != nil {
					return
				}

			case <-ticker.C:
				// Send ping for keep-alive
				if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	// Reader loop
	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		// Handle client messages (ping/pong)
		var msg model.WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		if msg.Type == model.WSMessageTypePing {
			pong := model.WSMessage{Type: model.WSMessageTypePong}
			data, _ := json.Marshal(pong)
			client.Send <- data
		}
	}
}
