package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"fieldroute-service/internal/api/handlers"
	"fieldroute-service/internal/auth"
	"fieldroute-service/internal/ports"
	"fieldroute-service/internal/services"
)

// RouterDeps collects everything the HTTP layer needs. Handlers stay unaware
// of concrete adapters; this is the API composition root.
type RouterDeps struct {
	Users       ports.UserRepository
	Companies   ports.CompanyDirectory
	SyncLogs    ports.SyncLogRepository
	Builder     *services.RouteBuilder
	Lifecycle   *services.RouteLifecycle
	Reconciler  *services.Reconciler
	CheckIns    *services.CheckIns
	Summaries   *services.Summaries
	Syncer      *services.CompanySyncer
	JWTSecret   string
	CORSOrigins []string
	Logger      *slog.Logger
}

func NewRouter(deps RouterDeps) http.Handler {
	authHandler := &handlers.AuthHandler{Users: deps.Users, JWTSecret: deps.JWTSecret}
	companyHandler := &handlers.CompanyHandler{Companies: deps.Companies, Users: deps.Users}
	syncHandler := &handlers.SyncHandler{Syncer: deps.Syncer, Logs: deps.SyncLogs}
	routeHandler := &handlers.RouteHandler{
		Builder:    deps.Builder,
		Lifecycle:  deps.Lifecycle,
		Reconciler: deps.Reconciler,
	}
	checkInHandler := &handlers.CheckInHandler{Service: deps.CheckIns}
	summaryHandler := &handlers.SummaryHandler{Service: deps.Summaries}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(NewSlogLogger(deps.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(NewCORSHandler(deps.CORSOrigins))

	r.Get("/health", handlers.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(deps.JWTSecret))

			r.Get("/auth/me", authHandler.Me)

			r.Get("/companies", companyHandler.List)
			r.Post("/sync", syncHandler.Trigger)
			r.Get("/sync/status", syncHandler.Status)

			r.Post("/route", routeHandler.Create)
			r.Get("/route/active", routeHandler.Active)
			r.Patch("/route/{routeID}", routeHandler.SetStatus)
			r.Delete("/route/{routeID}", routeHandler.Delete)
			r.Post("/route/{routeID}/stops", routeHandler.AddStop)
			r.Get("/routes/history", routeHandler.History)

			r.Post("/checkins", checkInHandler.Create)
			r.Patch("/checkins/{checkInID}", checkInHandler.UpdateNote)

			r.Get("/summary", summaryHandler.Day)
		})
	})

	return r
}
