package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	wsAdapter "github.com/lorrc/ticket-insights/internal/adapters/primary/websocket"
	"github.com/lorrc/ticket-insights/internal/auth"
	"github.com/lorrc/ticket-insights/internal/config"
	apperrors "github.com/lorrc/ticket-insights/internal/core/errors"
)

// WebSocketHandler handles WebSocket connection upgrades
type WebSocketHandler struct {
	hub          *wsAdapter.Hub
	tm           *auth.TokenManager
	errorHandler *ErrorHandler
	upgrader     websocket.Upgrader
	timing       wsAdapter.Timing
	logger       *slog.Logger
}

// NewWebSocketHandler creates a new WebSocket handler. A nil TokenManager accepts
// anonymous connections.
func NewWebSocketHandler(
	hub *wsAdapter.Hub,
	tm *auth.TokenManager,
	errorHandler *ErrorHandler,
	cfg *config.Config,
	logger *slog.Logger,
) *WebSocketHandler {
	handler := &WebSocketHandler{
		hub:          hub,
		tm:           tm,
		errorHandler: errorHandler,
		timing: wsAdapter.Timing{
			PingInterval: cfg.WebSocket.PingInterval,
			PongWait:     cfg.WebSocket.PongWait,
		},
		logger: logger.With("handler", "websocket"),
	}

	handler.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: cfg.WebSocket.WriteBufferSize,
		CheckOrigin:     handler.makeOriginChecker(cfg),
	}

	return handler
}

// makeOriginChecker creates an origin checking function based on configuration
func (h *WebSocketHandler) makeOriginChecker(cfg *config.Config) func(r *http.Request) bool {
	allowedOrigins := cfg.WebSocket.AllowedOrigins

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		// No origin header (same-origin request or non-browser client)
		if origin == "" {
			return true
		}

		if cfg.IsDevelopment() && len(allowedOrigins) == 0 {
			h.logger.Warn("allowing websocket connection in development mode",
				"origin", origin,
				"remote_addr", r.RemoteAddr,
			)
			return true
		}

		parsedOrigin, err := url.Parse(origin)
		if err != nil {
			h.logger.Warn("failed to parse websocket origin", "origin", origin, "error", err)
			return false
		}

		if originAllowed(parsedOrigin.Host, allowedOrigins) {
			return true
		}

		h.logger.Warn("websocket connection rejected due to origin",
			"origin", origin,
			"remote_addr", r.RemoteAddr,
		)
		return false
	}
}

// originAllowed matches host against entries like "app.example.com" or "*.example.com".
func originAllowed(host string, allowed []string) bool {
	for _, entry := range allowed {
		if u, err := url.Parse(entry); err == nil && u.Host != "" {
			entry = u.Host
		}
		if strings.HasPrefix(entry, "*.") {
			if strings.HasSuffix(host, entry[1:]) || host == entry[2:] {
				return true
			}
		} else if host == entry {
			return true
		}
	}
	return false
}

// ServeHTTP handles WebSocket connection requests
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Browsers cannot set headers on websocket requests, so the token rides in the query.
	clientID := "anonymous-" + uuid.NewString()
	if h.tm != nil {
		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			h.errorHandler.Handle(w, r, apperrors.NewUnauthorizedError("Missing authentication token"))
			return
		}

		claims, err := h.tm.ValidateToken(tokenString)
		if err != nil {
			h.logger.DebugContext(ctx, "websocket token rejected", "error", err)
			h.errorHandler.Handle(w, r, apperrors.NewUnauthorizedError("Invalid or expired token"))
			return
		}
		clientID = claims.ClientID
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to upgrade websocket connection", "client_id", clientID, "error", err)
		return
	}

	h.logger.InfoContext(ctx, "websocket connection established",
		"client_id", clientID,
		"remote_addr", r.RemoteAddr,
	)

	client := wsAdapter.NewClient(h.hub, conn, clientID, h.timing, h.logger)
	if !client.Hub.Register(client) {
		h.logger.WarnContext(ctx, "websocket hub stopped, closing connection", "client_id", clientID)
		_ = conn.Close()
		return
	}

	// Clients may pre-subscribe with ?dataset=ID.
	if datasetID := r.URL.Query().Get("dataset"); datasetID != "" {
		client.Subscribe(datasetID)
	}

	go client.WritePump()
	go client.ReadPump()
}
