package ws

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/akinalp/lectern/models"
)

// TokenValidator is the one auth method the ws package needs. Depending on
// the whole auth service would import services from ws and back.
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
}

// Handler upgrades authenticated requests to course event streams.
type Handler struct {
	hub      *Hub
	tokens   TokenValidator
	upgrader websocket.Upgrader
}

// NewHandler accepts upgrades from the given browser origins. An empty list
// or a "*" entry accepts any origin; requests without an Origin header
// (non-browser clients) are always accepted.
func NewHandler(hub *Hub, tokens TokenValidator, origins []string) *Handler {
	anyOrigin := len(origins) == 0 || slices.Contains(origins, "*")
	return &Handler{
		hub:    hub,
		tokens: tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return anyOrigin || origin == "" || slices.Contains(origins, origin)
			},
		},
	}
}

// accessToken reads the token query parameter, which browsers need because
// they cannot set headers on a WebSocket handshake. Other clients may send a
// bearer Authorization header instead.
func accessToken(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	if t, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(t)
	}
	return ""
}

// HandleConnection serves GET /ws.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	token := accessToken(r)
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	claims, err := h.tokens.ValidateAccessToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the client.
		h.hub.log.WithError(err).WithField("user_id", claims.UserID).Warn("upgrade failed")
		return
	}

	c := newClient(h.hub, conn, claims.UserID, claims.Username)
	if !h.hub.add(c) {
		conn.Close()
		return
	}

	go c.WritePump()
	c.sendEvent(Event{Op: OpReady, Data: ReadyData{UserID: claims.UserID, Username: claims.Username}})
	c.ReadPump()
}
