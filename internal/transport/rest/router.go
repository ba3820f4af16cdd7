package rest

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/samber/lo"

	"partyroom/internal/service"
	"partyroom/internal/transport/rest/handler"
	"partyroom/internal/transport/rest/middleware"
	"partyroom/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService    *service.AuthService
	Questions      *service.QuestionService
	Registry       *service.Registry
	Orchestrator   *service.Orchestrator
	WSHub          *ws.Hub
	AllowedOrigins []string
	Log            *slog.Logger
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	log := c.Log
	if log == nil {
		log = slog.Default()
	}

	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	questionHandler := handler.NewQuestionHandler(c.Questions)
	sessionHandler := handler.NewSessionHandler(c.Registry, log)
	wsHandler := ws.NewHandler(c.WSHub, c.Registry, c.Orchestrator, c.AllowedOrigins, log)

	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.AllowedOrigins))

	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	v1.HandleFunc("/ws", wsHandler.ServeWS).Methods("GET")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Admin routes
	admin := v1.NewRoute().Subrouter()
	admin.Use(authMW.RequireAdmin)

	admin.HandleFunc("/questions", questionHandler.List).Methods("GET", "OPTIONS")
	admin.HandleFunc("/questions", questionHandler.Create).Methods("POST", "OPTIONS")
	admin.HandleFunc("/questions/{id}", questionHandler.Update).Methods("PUT", "OPTIONS")
	admin.HandleFunc("/questions/{id}", questionHandler.Delete).Methods("DELETE", "OPTIONS")

	admin.HandleFunc("/sessions", sessionHandler.List).Methods("GET", "OPTIONS")
	admin.HandleFunc("/sessions", sessionHandler.DeleteAll).Methods("DELETE", "OPTIONS")
	admin.HandleFunc("/sessions/{code}", sessionHandler.Get).Methods("GET", "OPTIONS")
	admin.HandleFunc("/sessions/{code}", sessionHandler.Delete).Methods("DELETE", "OPTIONS")

	return r
}

func corsMiddleware(allowed []string) mux.MiddlewareFunc {
	anyOrigin := len(allowed) == 0 || lo.Contains(allowed, "*")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case anyOrigin:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "" && lo.Contains(allowed, origin):
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
