package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/matricula/matricula/internal/middleware"
	"github.com/matricula/matricula/internal/model"
	ws "github.com/matricula/matricula/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if allowed == "*" || strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// EventSubscriber opens a subscription on the enrollment channel.
// The returned closer releases it.
type EventSubscriber interface {
	Subscribe(ctx context.Context) (<-chan *redis.Message, io.Closer)
}

// WSHandler streams enrollment events to connected operators.
type WSHandler struct {
	base     context.Context
	events   EventSubscriber
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler. Open feeds are closed when base is
// cancelled, so pass a context that ends with the server.
func NewWSHandler(base context.Context, events EventSubscriber, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		base:     base,
		events:   events,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// EnrollmentStream godoc
// WS /ws/v1/enrollments?token=...
// Upgrades to WebSocket and relays enrollment and payment events as they are published.
func (h *WSHandler) EnrollmentStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Int("user_id", claims.UserID).Logger()
	wsLog.Info().Msg("Operator connected")

	ctx, cancel := context.WithCancel(h.base)
	defer cancel()

	msgs, sub := h.events.Subscribe(ctx)
	defer sub.Close()

	// gorilla/websocket allows one concurrent writer.
	var writeMu sync.Mutex
	write := func(v interface{}) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return ws.WriteTyped(conn, v)
	}

	go h.relay(ctx, cancel, conn, msgs, &writeMu, write, wsLog)

	ws.KeepAlive(conn)
	for {
		var msg ws.RequestEnvelope
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionPing:
			_ = write(ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			writeMu.Lock()
			_ = ws.WriteError(conn, "unknown action: "+string(msg.Action))
			writeMu.Unlock()
		}

		if ctx.Err() != nil {
			return
		}
	}
}

// relay forwards Pub/Sub messages and keep-alive pings until ctx ends.
func (h *WSHandler) relay(
	ctx context.Context,
	cancel context.CancelFunc,
	conn *websocket.Conn,
	msgs <-chan *redis.Message,
	writeMu *sync.Mutex,
	write func(interface{}) error,
	wsLog zerolog.Logger,
) {
	defer cancel()

	ticker := time.NewTicker(ws.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Server shutdown or reader exit; either way unblock the reader.
			writeMu.Lock()
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(ws.WriteWait))
			writeMu.Unlock()
			conn.Close()
			return
		case <-ticker.C:
			writeMu.Lock()
			err := ws.WritePing(conn)
			writeMu.Unlock()
			if err != nil {
				return
			}
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var e model.AuditEvent
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				wsLog.Error().Err(err).Msg("Unmarshal event error")
				continue
			}
			if !e.Kind.Broadcast() {
				continue
			}
			if err := write(ws.EnrollmentResponse{Event: ws.EventEnrollment, Data: e}); err != nil {
				wsLog.Debug().Err(err).Msg("Relay write failed")
				// Unblock the reader.
				conn.Close()
				return
			}
		}
	}
}
