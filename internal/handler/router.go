/*
Package handler provides the HTTP handlers and routing setup for the local chat API server.

This file defines the main Router, applying necessary middleware like logging, CORS,
and IP-based rate limiting before delegating requests to the endpoint handlers.
The route table mirrors the hosted chat API one path per endpoint, with no prefix.
*/
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"monetchat/internal/app/apiclient"
	"monetchat/internal/pkg/limiter"
	"monetchat/internal/pkg/logx"
	"monetchat/internal/pkg/resp"
)

const (
	AuthRate  = 1
	AuthBurst = 10
	SendRate  = 2
	SendBurst = 20
)

// Router sets up the main HTTP routing table (chi.Router) for the local server.
// The rate limiters' cleanup goroutines run until ctx is done.
func Router(ctx context.Context, deps *AppDeps) http.Handler {
	authLimiter := limiter.NewIPRateLimiter(ctx, rate.Limit(AuthRate), AuthBurst)
	sendLimiter := limiter.NewIPRateLimiter(ctx, rate.Limit(SendRate), SendBurst)

	r := chi.NewRouter()

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins: corsAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", logx.RequestIDHeader},
		ExposedHeaders: []string{},
		MaxAge:         300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, map[string]string{
			"status":  "ok",
			"service": "monetchat local API",
		})
	})

	r.With(authLimiter.Middleware).Post(apiclient.PathLogin, HandleLogin(deps))
	r.With(authLimiter.Middleware).Post(apiclient.PathRegister, HandleRegister(deps))

	r.Get(apiclient.PathMessages, HandleMessages(deps))
	r.With(sendLimiter.Middleware).Post(apiclient.PathSend, HandleSend(deps))
	r.Post(apiclient.PathClearMessages, HandleClearMessages(deps))

	r.Get(apiclient.PathGetClearTime, HandleGetClearTime(deps))
	r.Post(apiclient.PathSetClearTime, HandleSetClearTime(deps))

	r.Get(apiclient.PathUserList, HandleUserList(deps))
	r.Get(apiclient.PathGetMuteList, HandleMuteList(deps))
	r.Post(apiclient.PathMute, HandleMute(deps))
	r.Post(apiclient.PathRemove, HandleRemove(deps))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		resp.RespondJSON(w, r, http.StatusNotFound, resp.ErrorResponse{Error: "Not Found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		resp.RespondJSON(w, r, http.StatusMethodNotAllowed, resp.ErrorResponse{Error: "Method Not Allowed"})
	})

	return r
}
