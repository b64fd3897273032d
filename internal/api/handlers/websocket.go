package handlers

import (
	"net/http"

	"github.com/dom/shared-lists/internal/api/middleware"
	"github.com/dom/shared-lists/internal/websocket"
	ws "github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = ws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // access is gated by the token, not the origin
	},
}

type WebSocketHandler struct {
	hub        *websocket.Hub
	validator  middleware.TokenValidator
	sendBuffer int
	logger     *zap.Logger
}

func NewWebSocketHandler(hub *websocket.Hub, validator middleware.TokenValidator, sendBuffer int, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:        hub,
		validator:  validator,
		sendBuffer: sendBuffer,
		logger:     logger,
	}
}

// Handle authenticates the handshake before upgrading. Browsers cannot set
// headers on a websocket request, so the token query parameter is accepted
// alongside a bearer header.
func (h *WebSocketHandler) Handle(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token, _ = middleware.BearerToken(r)
	}
	if token == "" {
		writeError(w, http.StatusUnauthorized, "Token required")
		return
	}

	claims, err := h.validator.ValidateToken(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	userID, err := claims.UserID()
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid token claims")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := websocket.NewClient(h.hub, conn, userID, h.sendBuffer)
	if err := h.hub.Register(client); err != nil {
		h.logger.Warn("websocket register failed", zap.Error(err))
		conn.WriteMessage(ws.CloseMessage, ws.FormatCloseMessage(ws.CloseTryAgainLater, "server unavailable"))
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
