package notify

import (
	"log/slog"
	"net/http"
	"slices"

	"taskhub/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Handler upgrades authenticated requests to push connections.
type Handler struct {
	hub      *Hub
	registry *Registry
	upgrader websocket.Upgrader
	log      *slog.Logger
}

// NewHandler returns a Handler. allowedOrigins may contain "*".
func NewHandler(hub *Hub, registry *Registry, allowedOrigins []string, log *slog.Logger) *Handler {
	return &Handler{
		hub:      hub,
		registry: registry,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// Connect godoc
// @Summary      Open the push channel
// @Description  Upgrades to WebSocket. Frames are {"event": "...", "payload": {...}}.
// @Tags         notifications
// @Security     BearerAuth
// @Param        token  query  string  false  "Token, for clients that cannot set headers"
// @Success      101
// @Failure      401  {object}  map[string]string
// @Router       /ws [get]
func (h *Handler) Connect(c *gin.Context) {
	principalID := auth.PrincipalFromContext(c)
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.log.Warn("ws upgrade failed", "principal_id", principalID, "err", err)
		return
	}
	session := Session{PrincipalID: principalID}
	if claims := auth.ClaimsFromContext(c); claims != nil {
		session.TokenID = claims.ID
		if claims.ExpiresAt != nil {
			session.ExpiresAt = claims.ExpiresAt.Time
		}
	}
	connID, err := h.hub.Attach(conn, session)
	if err != nil {
		_ = conn.Close()
		return
	}
	h.registry.Register(principalID, connID)
	h.hub.Serve(connID)
	h.registry.Release(principalID, connID)
}
