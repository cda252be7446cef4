package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xavierca1/ligue-callbridge/internal/infra/http/middleware"
)

type routes struct {
	ConversationEnd http.HandlerFunc
	IncomingCall    http.HandlerFunc
	Health          http.HandlerFunc
	RateLimit       func(http.Handler) http.Handler
}

func newRouter(rt routes) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "ElevenLabs-Signature"},
	}))

	r.Post("/conversation-end", rt.ConversationEnd)

	r.Group(func(r chi.Router) {
		if rt.RateLimit != nil {
			r.Use(rt.RateLimit)
		}
		r.Post("/incoming-call", rt.IncomingCall)
	})

	r.Get("/health", rt.Health)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
