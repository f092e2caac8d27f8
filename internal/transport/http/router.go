package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"exam-drill-service/internal/app"
	"exam-drill-service/internal/input"
)

// NewRouter mounts the REST API and the websocket endpoint.
func NewRouter(service *app.SessionService, gestures input.Config, corsOrigins []string) http.Handler {
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"http://localhost:3000"}
	}
	api := NewAPI(service)
	ws := NewWSHandler(service, gestures)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"Content-Length"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ws", ws.ServeWS)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Get("/exams", api.listExams)
		r.Get("/datasets", api.listDatasets)

		r.Post("/sessions", api.startSession)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", api.getSession)
			r.Delete("/", api.abandonSession)
			r.Post("/commands", api.dispatch)
			r.Get("/copy", api.copyText)
			r.Get("/result", api.result)
			r.Post("/retry", api.retryWrong)
		})

		r.Get("/history", api.listHistory)
		r.Delete("/history", api.clearHistory)
		r.Delete("/history/{recordID}", api.deleteHistory)
	})
	return r
}
