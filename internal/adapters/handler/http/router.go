package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vncsmyrnk/votapp/internal/core/ports"
)

func NewHandler(authService ports.AuthService, authHandler *AuthHandler, pollHandler *PollHandler, voteHandler *VoteHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(RequireSession(authService))

		r.Get("/me", authHandler.Me)
		r.Post("/sync", pollHandler.Sync)

		r.Route("/polls", func(r chi.Router) {
			r.Get("/", pollHandler.ListPolls)
			r.Post("/", pollHandler.CreatePoll)
			r.Get("/code/{code}", pollHandler.GetPollByCode)
			r.Get("/code/{code}/results", pollHandler.Results)
			r.Put("/{id}", pollHandler.UpdatePoll)
			r.Patch("/{id}/close", pollHandler.ClosePoll)
			r.Delete("/{id}", pollHandler.DeletePoll)
			r.Post("/{id}/votes", voteHandler.CastVote)
			r.Get("/{id}/has-voted", voteHandler.HasVoted)
		})
	})

	return r
}
