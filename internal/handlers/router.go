package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"vgp-backend/internal/database"
	"vgp-backend/internal/metrics"
	"vgp-backend/internal/middleware"
	"vgp-backend/internal/services"
	"vgp-backend/internal/websocket"
	"vgp-backend/pkg/utils"
)

// Deps are the collaborators the API routes need
type Deps struct {
	Store               *database.InspectionStore
	Auth                *services.AuthService
	Notifier            *services.ChangeNotifier
	Hub                 *websocket.Hub
	Metrics             *metrics.Metrics
	JWTSecret           string
	SyncPullConcurrency int
	// Now defaults to time.Now
	Now func() time.Time
	// RequestLogging enables chi's request logger
	RequestLogging bool
}

// NewRouter wires every route of the API server
func NewRouter(d Deps) http.Handler {
	now := d.Now
	if now == nil {
		now = time.Now
	}

	r := chi.NewRouter()

	// Middleware
	if d.RequestLogging {
		r.Use(chimiddleware.Logger)
	}
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(d.Metrics.Middleware)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", d.Metrics.Handler())

	// WebSocket endpoint (authentication handled in handler via query param)
	r.Get("/ws", websocket.HandleWebSocket(d.Hub, d.JWTSecret))

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			utils.Success(w, map[string]interface{}{"status": "ok", "timestamp": now().UTC()})
		})

		// Magic link authentication (no auth required)
		r.Post("/auth/request-link", RequestLink(d.Auth, d.Metrics))
		r.Get("/auth/verify", VerifyLink(d.Auth, d.Metrics))

		// Stateless checklist helpers
		r.Get("/profiles", GetProfiles())
		r.Post("/checklist/derive", Derive(now))
		r.Post("/checklist/answer", Answer(now))
		r.Post("/photos/compress", CompressPhoto(d.Metrics, now))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(d.JWTSecret))
			r.Use(middleware.RequireRole(services.RoleInspector))

			r.Get("/me", Me())

			r.Get("/inspections", ListInspections(d.Store))
			r.Post("/inspections", SaveInspection(d.Store, d.Notifier, d.Metrics))
			r.Get("/inspections/{id}", GetInspection(d.Store))
			r.Delete("/inspections/{id}", DeleteInspection(d.Store, d.Notifier, d.Metrics))
			r.Post("/inspections/{id}/report", CompileReport(d.Store, d.Metrics, now))

			r.Post("/sync", Sync(d.Store, d.Metrics))
			r.Post("/sync/pull", SyncPull(d.Store, d.SyncPullConcurrency))

			r.Post("/devices", RegisterDevice(d.Store))
			r.Delete("/devices", UnregisterDevice(d.Store))

			r.Post("/logs/diagnostic", ReceiveDiagnosticLog())
		})
	})

	return r
}
