package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/tournament-betting/realtime"
	"github.com/Dosada05/tournament-betting/services"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	hub            *realtime.Hub
	bettingService services.BettingService
	upgrader       websocket.Upgrader
}

// NewWebSocketHandler принимает список разрешенных Origin; "*" разрешает любой.
func NewWebSocketHandler(hub *realtime.Hub, bettingService services.BettingService, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		hub:            hub,
		bettingService: bettingService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// ServeWs подписывает клиента на комнату турнира /ws/tournaments/{tournament}.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	tournament := chi.URLParam(r, "tournament")

	// Проверяем существование турнира до апгрейда, чтобы вернуть обычный 404.
	if _, err := h.bettingService.GetMatches(r.Context(), tournament); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отправляет HTTP-ошибку клиенту.
		slog.WarnContext(r.Context(), "Failed to upgrade websocket connection", slog.String("tournament", tournament), slog.Any("error", err))
		return
	}

	client := realtime.NewClient(h.hub, conn, realtime.TournamentRoom(tournament))
	if !h.hub.Register(client) {
		_ = conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
