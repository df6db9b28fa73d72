package handler

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/hynexus/hynexus-api/internal/broker"
	"github.com/hynexus/hynexus-api/internal/middleware"
	"github.com/hynexus/hynexus-api/pkg/apierror"
	"github.com/hynexus/hynexus-api/pkg/logger"
	"go.uber.org/zap"
)

const (
	// matches the access token lifetime; clients reconnect with a fresh token
	maxSessionLifetime = 15 * time.Minute
	writeWait          = 10 * time.Second
	pongWait           = 60 * time.Second
	pingPeriod         = (pongWait * 9) / 10
	maxMessageSize     = 4 * 1024
)

// EventsHandler streams server listing events to platform admins.
type EventsHandler struct {
	events   broker.Subscriber
	upgrader websocket.Upgrader
}

// NewEventsHandler accepts upgrades from allowedOrigins, or from any origin when empty.
func NewEventsHandler(events broker.Subscriber, allowedOrigins []string) *EventsHandler {
	return &EventsHandler{
		events: events,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || len(allowedOrigins) == 0 {
					return true
				}
				return slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// Stream upgrades the connection and forwards every event until the client
// goes away or the session expires.
// GET /api/v1/admin/events
func (h *EventsHandler) Stream(c *gin.Context) {
	principal := middleware.CurrentPrincipal(c)
	if principal == nil {
		respondError(c, apierror.Unauthorized("Authentication required"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), maxSessionLifetime)
	defer cancel()

	events, err := h.events.Subscribe(ctx)
	if err != nil {
		logger.Log.Error("Failed to subscribe to server events", zap.Error(err))
		respondError(c, apierror.Internal())
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader already wrote the HTTP error
		logger.Log.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	connectedAt := time.Now()
	logger.Log.Info("Events client connected", zap.String("user_id", principal.UserID.String()))
	defer func() {
		logger.Log.Info("Events client disconnected",
			zap.String("user_id", principal.UserID.String()),
			zap.Duration("session", time.Since(connectedAt).Round(time.Second)),
		)
	}()

	go readUntilClosed(conn, cancel)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			closeGracefully(conn, ctx.Err())
			return

		case event, ok := <-events:
			if !ok {
				closeGracefully(conn, ctx.Err())
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				logger.Log.Debug("Failed to write event", zap.Error(err))
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Log.Debug("Ping failed", zap.Error(err))
				return
			}
		}
	}
}

// readUntilClosed drains client frames so pongs and close frames are handled,
// and cancels the session once the peer is gone.
func readUntilClosed(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Log.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}
	}
}

func closeGracefully(conn *websocket.Conn, cause error) {
	reason := "stream closed"
	if cause == context.DeadlineExceeded {
		reason = "session expired"
	}

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason),
	)
}
