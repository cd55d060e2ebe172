package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
)

const (
	broadcastBuffer = 256

	// scopedEventPrefix marks events that are addressed to one supplier via data["supplier_id"].
	scopedEventPrefix = "notification."
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Dashboards are served from the CORS-allowed origins; the token check gates access.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is the envelope pushed to every subscriber.
type Message struct {
	Event     string                 `json:"event"`
	Data      map[string]interface{} `json:"data"`
	Timestamp string                 `json:"timestamp"`
}

// Client represents a single connected WebSocket client
type Client struct {
	Hub     *Hub
	Conn    *websocket.Conn
	Send    chan []byte
	Subject string
	Role    string
}

type outbound struct {
	event      string
	supplierID string
	payload    []byte
}

// Hub maintains the set of active clients and broadcasts lifecycle events to them.
// Clients holding a scoped role only receive notification events addressed to their subject.
type Hub struct {
	clients     map[*Client]bool
	broadcast   chan outbound
	register    chan *Client
	unregister  chan *Client
	scopedRoles map[string]bool
	mu          sync.Mutex
}

// NewHub initializes a new WS Hub instance
func NewHub(scopedRoles ...string) *Hub {
	scoped := make(map[string]bool, len(scopedRoles))
	for _, r := range scopedRoles {
		scoped[r] = true
	}
	return &Hub{
		broadcast:   make(chan outbound, broadcastBuffer),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		clients:     make(map[*Client]bool),
		scopedRoles: scoped,
	}
}

// Publish queues an event for broadcast. It never blocks the caller:
// when the queue is full the event is dropped and logged.
func (h *Hub) Publish(event string, data map[string]interface{}) {
	payload, err := json.Marshal(Message{
		Event:     event,
		Data:      data,
		Timestamp: time.Now().Format(time.RFC3339),
	})
	if err != nil {
		log.Printf("websocket: cannot encode %s event: %v", event, err)
		return
	}

	supplierID, _ := data["supplier_id"].(string)
	select {
	case h.broadcast <- outbound{event: event, supplierID: supplierID, payload: payload}:
	default:
		log.Printf("websocket: broadcast queue full, dropping %s event", event)
	}
}

// ClientCount reports the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Run starts the core dispatch loop for WebSocket events
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Println("New WebSocket client connected")
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				log.Println("WebSocket client disconnected")
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.dispatch(message)
		}
	}
}

func (h *Hub) dispatch(message outbound) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		if !h.receives(client, message) {
			continue
		}
		select {
		case client.Send <- message.payload:
		default:
			close(client.Send)
			delete(h.clients, client)
		}
	}
}

func (h *Hub) receives(client *Client, message outbound) bool {
	if !h.scopedRoles[client.Role] {
		return true
	}
	return strings.HasPrefix(message.event, scopedEventPrefix) &&
		message.supplierID != "" && message.supplierID == client.Subject
}

// writePump handles writing messages from the Hub to the WebSocket connection
func (c *Client) writePump() {
	defer func() {
		_ = c.Conn.Close()
	}()
	for message := range c.Send {
		w, err := c.Conn.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		_, _ = w.Write(message)

		n := len(c.Send)
		for i := 0; i < n; i++ {
			_, _ = w.Write([]byte{'\n'})
			_, _ = w.Write(<-c.Send)
		}

		if err := w.Close(); err != nil {
			return
		}
	}
	_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump drains client frames so close and ping frames are processed
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		_ = c.Conn.Close()
	}()
	for {
		_, _, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error: %v", err)
			}
			break
		}
	}
}

// ServeWs authenticates the token query param and subscribes the peer to lifecycle events.
// Only the listed roles may subscribe.
func ServeWs(hub *Hub, c *gin.Context, secret []byte, allowedRoles ...string) {
	tokenString := c.Query("token")
	if tokenString == "" {
		log.Println("WebSocket connection rejected: missing token")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})

	if err != nil || !token.Valid {
		log.Println("WebSocket connection rejected: invalid token:", err)
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		log.Println("WebSocket connection rejected: invalid claims")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	role, _ := claims["role"].(string)
	subject, _ := claims["sub"].(string)
	if !roleAllowed(role, allowedRoles) {
		log.Println("WebSocket connection rejected: inadequate permissions")
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("WebSocket upgrade failed:", err)
		return
	}
	client := &Client{Hub: hub, Conn: conn, Send: make(chan []byte, 256), Subject: subject, Role: role}
	client.Hub.register <- client

	go client.writePump()
	go client.readPump()
}

func roleAllowed(role string, allowed []string) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}
