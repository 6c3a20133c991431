package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/goalpool/prediction-pools/handlers"
	"github.com/goalpool/prediction-pools/middleware"
	"github.com/goalpool/prediction-pools/models"
	httpSwagger "github.com/swaggo/http-swagger"
)

// SetupRoutes собирает весь HTTP-роутинг приложения: публичные точки,
// точки под аутентификацией и административные.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret []byte,
	allowedOrigins []string,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	tournamentHandler *handlers.TournamentHandler,
	matchHandler *handlers.MatchHandler,
	poolHandler *handlers.PoolHandler,
	predictionHandler *handlers.PredictionHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(jwtSecret)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	router.Get("/swagger/*", httpSwagger.Handler())

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", tournamentHandler.ListTournaments)
		r.Get("/{tournamentID}", tournamentHandler.GetTournament)
		r.Get("/{tournamentID}/matches", tournamentHandler.ListTournamentMatches)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(adminOnly)
			r.Post("/", tournamentHandler.CreateTournament)
			r.Patch("/{tournamentID}", tournamentHandler.UpdateTournament)
			r.Post("/{tournamentID}/logo", tournamentHandler.UploadLogo)
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/{matchID}", matchHandler.GetMatch)

		// Результаты матчей вносят только администраторы; завершение матча
		// запускает пересчёт таблиц лидеров
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(adminOnly)
			r.Patch("/{matchID}", matchHandler.UpdateMatch)
		})
	})

	router.Route("/pools", func(r chi.Router) {
		r.Get("/", poolHandler.ListPublicPools)
		r.Get("/invite", poolHandler.ResolveInviteCode)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Post("/", poolHandler.CreatePool)
			r.Post("/join", poolHandler.JoinPool)

			r.Route("/{poolID}", func(r chi.Router) {
				r.Get("/", poolHandler.GetPool)
				r.Patch("/", poolHandler.UpdatePool)
				r.Delete("/leave", poolHandler.LeavePool)
				r.Get("/participants", poolHandler.ListParticipants)
				r.Delete("/participants/{userID}", poolHandler.RemoveParticipant)
				r.Get("/scoring-rule", poolHandler.GetScoringRule)
				r.Get("/standings", poolHandler.GetStandings)
				r.Get("/predictions", predictionHandler.ListPoolPredictions)
				r.Get("/predictions/mine", predictionHandler.ListOwnPredictions)
			})
		})
	})

	router.Group(func(r chi.Router) {
		r.Use(authenticate)

		r.Get("/me", userHandler.GetMe)
		r.Get("/users/{userID}", userHandler.GetUser)
		r.Patch("/users/{userID}", userHandler.UpdateUser)
		r.Post("/users/{userID}/avatar", userHandler.UploadAvatar)

		r.Post("/predictions", predictionHandler.SubmitPrediction)

		r.Get("/ws/pools/{poolID}", webSocketHandler.SubscribePoolStandings)
	})
}
