package relay

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/homelyhq/homely/internal/infrastructure/auth"
	"github.com/homelyhq/homely/internal/infrastructure/configs"
	"github.com/homelyhq/homely/internal/infrastructure/json"
	"github.com/homelyhq/homely/internal/infrastructure/logging"
	"github.com/homelyhq/homely/internal/infrastructure/ws"
)

type Handler struct {
	core     *ws.Core
	sessions *auth.Sessions
	upgrader websocket.Upgrader
	config   configs.RelayConfig
	logger   logging.Logger
}

func NewHandler(core *ws.Core, sessions *auth.Sessions, httpConfig configs.HTTPConfig, relayConfig configs.RelayConfig, logger logging.Logger) *Handler {
	return &Handler{
		core:     core,
		sessions: sessions,
		config:   relayConfig,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(httpConfig.AllowedOrigins),
		},
	}
}

// ConnectHandler godoc
// @Summary      Open a relay connection
// @Description  Upgrades to a WebSocket and attaches the connection to the relay. Requires a session token via the token query parameter or the Authorization header.
// @Tags         relay
// @Param        token query string false "Session token"
// @Success      101 "Switching Protocols"
// @Failure      401 {object} json.ErrorResponse "Missing or invalid session token"
// @Router       /ws [get]
func (h *Handler) ConnectHandler(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = auth.TokenFromRequestValue(r.Header.Get("Authorization"))
	}
	if token == "" {
		token = r.Header.Get("X-Session-Token")
	}

	userID, err := h.sessions.Verify(token)
	if err != nil {
		json.WriteUnauthorizedError(w, "Missing or invalid session token")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(logging.Relay, logging.Connect, "websocket upgrade failed", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
			logging.UserID:       userID,
		})
		return
	}

	client := ws.NewClient(conn, uuid.NewString(), userID, h.config.SendBuffer)

	h.core.Register() <- client

	go client.WritePump()
	go client.ReadPump(h.core, int64(h.config.MaxFrameBytes))

	h.logger.Info(logging.Relay, logging.Connect, "relay connection opened", map[logging.ExtraKey]any{
		logging.ConnectionID: client.ID,
		logging.UserID:       userID,
	})
}

func originChecker(allowed []string) func(r *http.Request) bool {
	allowAll := len(allowed) == 0
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			allowAll = true
		}
		set[origin] = struct{}{}
	}

	return func(r *http.Request) bool {
		if allowAll {
			return true
		}

		origin := r.Header.Get("Origin")
		if origin == "" {
			// Non-browser clients send no Origin header.
			return true
		}

		_, ok := set[origin]
		return ok
	}
}
