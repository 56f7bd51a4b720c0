package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/Baaaki/newsletter-app/internal/broker"
	"github.com/Baaaki/newsletter-app/internal/utils"
	"github.com/Baaaki/newsletter-app/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	maxSessionLifetime = 15 * time.Minute
	writeWait          = 10 * time.Second // Time allowed to write a message to the peer
	pongWait           = 60 * time.Second
	pingPeriod         = (pongWait * 9) / 10 // 54 seconds
	maxMessageSize     = 512                 // clients only send control frames
	clientBuffer       = 32
)

// WSEvent is one frame pushed to feed subscribers.
type WSEvent struct {
	Type      string `json:"type"` // post event type or "session_expired"
	PostID    string `json:"post_id,omitempty"`
	Slug      string `json:"slug,omitempty"`
	ActorID   string `json:"actor_id,omitempty"`
	Likes     int    `json:"likes"`
	Dislikes  int    `json:"dislikes"`
	Timestamp string `json:"timestamp,omitempty"`
	Error     string `json:"error,omitempty"`
}

// EventFeedHandler pushes post lifecycle events to connected websocket
// clients so open pages can refresh like counts and listings live.
type EventFeedHandler struct {
	upgrader websocket.Upgrader
	clients  map[*feedClient]struct{}
	mu       sync.RWMutex
}

type feedClient struct {
	conn        *websocket.Conn
	userID      string
	send        chan WSEvent
	connectedAt time.Time
}

func NewEventFeedHandler(allowedOrigins []string) *EventFeedHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}

	return &EventFeedHandler{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
		clients: make(map[*feedClient]struct{}),
	}
}

// Run fans events out to every client until ctx is done or events closes.
func (h *EventFeedHandler) Run(ctx context.Context, events <-chan broker.PostEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			h.broadcast(WSEvent{
				Type:      string(event.Type),
				PostID:    event.PostID,
				Slug:      event.Slug,
				ActorID:   event.ActorID,
				Likes:     event.Likes,
				Dislikes:  event.Dislikes,
				Timestamp: event.Timestamp.Format(time.RFC3339),
			})
		}
	}
}

func (h *EventFeedHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWebSocket upgrades an authenticated request into a feed subscription.
// GET /api/events
func (h *EventFeedHandler) HandleWebSocket(c *gin.Context) {
	// Get claims from context (set by AuthMiddleware)
	value, _ := c.Get("claims")
	claims, ok := value.(*utils.Claims)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "authentication required"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Log.Warn("Failed to upgrade connection", zap.Error(err))
		return
	}

	client := &feedClient{
		conn:        conn,
		userID:      claims.UserID,
		send:        make(chan WSEvent, clientBuffer),
		connectedAt: time.Now(),
	}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()

	logger.Log.Info("Feed client connected",
		zap.String("user_id", client.userID),
		zap.Int("total", total),
	)

	go h.writePump(client)
	h.readPump(client)
}

// readPump only watches for pongs and the close frame; it owns cleanup.
func (h *EventFeedHandler) readPump(client *feedClient) {
	defer h.removeClient(client)

	client.conn.SetReadLimit(maxMessageSize)
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Log.Debug("Feed client read error", zap.String("user_id", client.userID), zap.Error(err))
			}
			return
		}
	}
}

// writePump is the only goroutine writing to the connection.
func (h *EventFeedHandler) writePump(client *feedClient) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	sessionTimer := time.NewTimer(maxSessionLifetime)
	defer sessionTimer.Stop()

	for {
		select {
		case event, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteJSON(event); err != nil {
				logger.Log.Debug("Failed to send feed event", zap.String("user_id", client.userID), zap.Error(err))
				client.conn.Close()
				return
			}

		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				client.conn.Close()
				return
			}

		case <-sessionTimer.C:
			h.closeClientGracefully(client, "session expired after 15 minutes")
			return
		}
	}
}

func (h *EventFeedHandler) closeClientGracefully(client *feedClient, reason string) {
	client.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = client.conn.WriteJSON(WSEvent{Type: "session_expired", Error: reason})

	client.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = client.conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason),
	)
	client.conn.Close()

	logger.Log.Info("Closed feed connection", zap.String("user_id", client.userID), zap.String("reason", reason))
}

// broadcast never blocks: a client whose buffer is full misses the event.
func (h *EventFeedHandler) broadcast(event WSEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- event:
		default:
			logger.Log.Warn("Dropping event for slow feed client",
				zap.String("user_id", client.userID),
				zap.String("type", event.Type),
			)
		}
	}
}

func (h *EventFeedHandler) removeClient(client *feedClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.clients[client]; !exists {
		return
	}
	delete(h.clients, client)
	close(client.send)
	client.conn.Close()

	logger.Log.Info("Feed client disconnected",
		zap.String("user_id", client.userID),
		zap.Duration("session_duration", time.Since(client.connectedAt).Round(time.Second)),
		zap.Int("remaining", len(h.clients)),
	)
}
