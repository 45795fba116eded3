package routes

import (
	"net/http"
	"time"

	"github.com/Dosada05/tournament-betting/handlers"
	"github.com/Dosada05/tournament-betting/middleware"
	"github.com/Dosada05/tournament-betting/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
)

// Handlers собирает все HTTP-обработчики приложения.
type Handlers struct {
	Auth      *handlers.AuthHandler
	Betting   *handlers.BettingHandler
	Command   *handlers.CommandHandler
	WebSocket *handlers.WebSocketHandler
}

func SetupRoutes(router chi.Router, h Handlers, jwtSecret string, allowedOrigins []string) {
	secret := []byte(jwtSecret)

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Post("/auth/token", h.Auth.Login)

	router.Group(func(r chi.Router) {
		r.Use(middleware.OptionalAuthenticate(secret))
		r.Post("/commands", h.Command.Execute)
	})

	// Websocket живет дольше таймаута обычных запросов.
	router.Get("/ws/tournaments/{tournament}", h.WebSocket.ServeWs)

	router.Group(func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(30 * time.Second))

		r.Route("/tournaments", func(r chi.Router) {
			// Защищенные маршруты только для администратора
			r.With(middleware.Authenticate(secret), middleware.RequireRole(models.RoleAdmin)).
				Post("/", h.Betting.StartTournament)

			r.Route("/{tournament}", func(r chi.Router) {
				// Публичные маршруты
				r.Get("/matches", h.Betting.ListMatches)
				r.Get("/matches/{match}/players", h.Betting.ListPlayers)
				r.Get("/leaderboard", h.Betting.LeaderBoard)
				r.Get("/betters/{better}", h.Betting.GetBetter)
				r.Get("/betters/{better}/balance", h.Betting.GetBalance)
				r.Post("/bets", h.Betting.PlaceBet)

				r.Group(func(r chi.Router) {
					r.Use(middleware.Authenticate(secret))
					r.Use(middleware.RequireRole(models.RoleAdmin))

					r.Post("/matches", h.Betting.AddMatch)
					r.Post("/matches/{match}/start", h.Betting.StartMatch)
					r.Post("/matches/{match}/winner", h.Betting.DeclareMatchWinner)
					r.Delete("/matches/{match}", h.Betting.RemoveMatch)
					r.Post("/betters", h.Betting.AddBetter)
					r.Post("/leaderboard/export", h.Betting.ExportLeaderBoard)
				})
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Authenticate(secret))
			r.Use(middleware.RequireRole(models.RoleAdmin))
			r.Post("/truncate", h.Betting.Truncate)
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"the requested resource could not be found"}`))
	})
}
