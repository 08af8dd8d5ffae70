package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/chepyr/go-task-planner/internal/ratelimit"
	"github.com/chepyr/go-task-planner/shared"
	"github.com/chepyr/go-task-planner/shared/models"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// writeWait bounds each socket write so a stalled client cannot hold the hub.
var writeWait = 5 * time.Second

const (
	EventTaskCreated = "task_created"
	EventTaskUpdated = "task_updated"
	EventTaskDeleted = "task_deleted"
)

// WSHub fans task events out to every open socket of the task owner.
type WSHub struct {
	connections map[uuid.UUID]map[*websocket.Conn]bool
	mutex       sync.Mutex
}

func NewWSHub() *WSHub {
	return &WSHub{connections: make(map[uuid.UUID]map[*websocket.Conn]bool)}
}

type taskEvent struct {
	Event  string       `json:"event"`
	TaskID uuid.UUID    `json:"task_id"`
	Task   *models.Task `json:"task,omitempty"`
}

func (h *WSHub) register(userID uuid.UUID, conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.connections[userID] == nil {
		h.connections[userID] = make(map[*websocket.Conn]bool)
	}
	h.connections[userID][conn] = true
}

func (h *WSHub) unregister(userID uuid.UUID, conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	delete(h.connections[userID], conn)
	if len(h.connections[userID]) == 0 {
		delete(h.connections, userID)
	}
}

// subscribers reports how many sockets the user has open.
func (h *WSHub) subscribers(userID uuid.UUID) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.connections[userID])
}

// Broadcast sends one event to all of the user's sockets. A socket that
// fails to accept the write is dropped.
func (h *WSHub) Broadcast(userID uuid.UUID, event string, taskID uuid.UUID, task *models.Task) {
	if h == nil {
		return
	}
	message, err := json.Marshal(taskEvent{Event: event, TaskID: taskID, Task: task})
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", event, err)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	for conn := range h.connections[userID] {
		err := conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err == nil {
			err = conn.WriteMessage(websocket.TextMessage, message)
		}
		if err != nil {
			log.Printf("Failed to send WebSocket message: %v", err)
			delete(h.connections[userID], conn)
			conn.Close()
		}
	}
}

// GET /ws - subscribe to the caller's task events
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		shared.SendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	clientIP := ratelimit.ClientIP(r)
	if h.RateLimiter != nil && !h.RateLimiter.Allow(clientIP) {
		shared.SendError(w, "Too many WebSocket connection attempts", http.StatusTooManyRequests)
		return
	}

	upgrader := websocket.Upgrader{CheckOrigin: checkOrigin}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	h.WSHub.register(userID, conn)
	defer func() {
		h.WSHub.unregister(userID, conn)
		conn.Close()
	}()

	// incoming messages are ignored; reading detects the close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
	}
}

// checkOrigin allows every origin unless ALLOWED_ORIGINS lists some.
func checkOrigin(r *http.Request) bool {
	allowed := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS"))
	if allowed == "" {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, o := range strings.Split(allowed, ",") {
		if strings.TrimSpace(o) == origin {
			return true
		}
	}
	return false
}
