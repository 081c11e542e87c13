package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/florahq/trellis/internal/activity"
	"github.com/florahq/trellis/internal/auth"
	"github.com/florahq/trellis/internal/garden"
	"github.com/florahq/trellis/internal/identify"
	"github.com/florahq/trellis/internal/metrics"
	"github.com/florahq/trellis/internal/plant"
	"github.com/florahq/trellis/internal/ratelimit"
	"github.com/florahq/trellis/internal/ui"
	"github.com/florahq/trellis/internal/user"
	"github.com/florahq/trellis/internal/weather"
)

// Pinger is the database health-check surface (satisfied by pgxpool.Pool).
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterDeps holds all dependencies for the API router. Weather, Identifier,
// Collector, Metrics and DB are optional; absent integrations disable the
// corresponding surface without affecting the rest.
type RouterDeps struct {
	Users          *user.Store
	Sessions       auth.SessionLookup
	Gardens        *garden.Service
	Plants         *plant.Service
	ActivityFeed   *activity.Store
	Collector      *activity.Collector
	Weather        *weather.Client
	Identifier     *identify.Client
	Limiter        *ratelimit.Limiter
	Metrics        *metrics.Metrics
	DB             Pinger
	AllowedOrigins []string
}

// NewRouter builds the chi router with all routes and middleware.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chimw.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(secureHeaders)
	r.Use(corsMiddleware(deps.AllowedOrigins))
	r.Use(slogRequestLogger)
	if deps.Metrics != nil {
		r.Use(metricsMiddleware(deps.Metrics))
	}

	// Nil-safe optional collaborators for the handlers.
	var recorder activityRecorder
	if deps.Collector != nil {
		recorder = deps.Collector
	}
	var authM authMetrics
	var integrationM integrationMetrics
	var reminderM reminderMetrics
	if deps.Metrics != nil {
		authM = deps.Metrics
		integrationM = deps.Metrics
		reminderM = deps.Metrics
	}

	// Handlers.
	authH := newAuthHandler(deps.Users, authM)
	gardensH := newGardensHandler(deps.Gardens, deps.ActivityFeed, recorder)
	membersH := newMembersHandler(deps.Gardens, recorder)
	plantsH := newPlantsHandler(deps.Plants, deps.Gardens, deps.Identifier, recorder, integrationM)
	schedulesH := newSchedulesHandler(deps.Plants, recorder, reminderM)
	weatherH := newWeatherHandler(deps.Weather, integrationM)

	// Health check.
	r.Get("/health", healthHandler(deps.DB))

	// Well-known manifest.
	r.Get("/.well-known/trellis.json", WellKnownHandler)

	// Metrics summary.
	if deps.Metrics != nil {
		r.Get("/metrics", deps.Metrics.Handler())
	}

	// Web UI.
	r.Handle("/", ui.Handler())

	sessionMW := sessionMiddleware(deps)

	r.Route("/api/v1", func(v1 chi.Router) {
		// Unauthenticated auth endpoints, rate limited per client IP.
		v1.Group(func(pub chi.Router) {
			if deps.Limiter != nil {
				onReject := func() {}
				if deps.Metrics != nil {
					onReject = func() { deps.Metrics.IncRateLimitRejection("auth") }
				}
				pub.Use(ratelimit.PerIPMiddleware(deps.Limiter, onReject))
			}
			pub.Post("/auth/register", authH.Register)
			pub.Post("/auth/login", authH.Login)
		})

		// Everything else requires a session.
		v1.Group(func(pr chi.Router) {
			pr.Use(sessionMW)

			pr.Post("/auth/logout", authH.Logout)
			pr.Get("/auth/me", authH.Me)
			pr.Put("/auth/me", authH.UpdateMe)

			// Gardens.
			pr.Post("/gardens", gardensH.CreateGarden)
			pr.Get("/gardens", gardensH.ListGardens)
			pr.Get("/gardens/{id}", gardensH.GetGarden)
			pr.Put("/gardens/{id}", gardensH.UpdateGarden)
			pr.Delete("/gardens/{id}", gardensH.DeleteGarden)
			pr.Get("/gardens/{id}/activity", gardensH.ListActivity)

			// Membership.
			pr.Get("/gardens/{id}/members", membersH.ListMembers)
			pr.Post("/gardens/{id}/members", membersH.InviteMember)
			pr.Delete("/gardens/{id}/members/{userID}", membersH.RemoveMember)
			pr.Post("/gardens/{id}/leave", membersH.Leave)

			// Garden plant association.
			pr.Get("/gardens/{id}/plants", plantsH.ListGardenPlants)
			pr.Post("/gardens/{id}/plants", plantsH.AddPlantToGarden)
			pr.Delete("/gardens/{id}/plants", plantsH.RemovePlantFromGarden)

			// Plants.
			pr.Post("/plants", plantsH.CreatePlant)
			pr.Get("/plants", plantsH.ListPlants)
			pr.Post("/plants/identify", plantsH.IdentifyPlant)
			pr.Get("/plants/{id}", plantsH.GetPlant)
			pr.Put("/plants/{id}", plantsH.UpdatePlant)
			pr.Delete("/plants/{id}", plantsH.DeletePlant)

			// Care logs and schedules.
			pr.Post("/plants/{id}/care-logs", schedulesH.CreateCareLog)
			pr.Get("/plants/{id}/care-logs", schedulesH.ListCareLogs)
			pr.Post("/plants/{id}/care-schedules", schedulesH.UpsertSchedule)
			pr.Get("/plants/{id}/care-schedules", schedulesH.ListSchedules)
			pr.Get("/care/upcoming", schedulesH.UpcomingCare)
			pr.Get("/care/types", schedulesH.CareTypes)

			// Weather.
			pr.Get("/weather/advisories", weatherH.Advisories)
		})
	})

	return r
}

// sessionMiddleware wires the auth middleware with an optional metrics hook.
func sessionMiddleware(deps RouterDeps) func(http.Handler) http.Handler {
	if deps.Metrics != nil {
		return auth.SessionMiddleware(deps.Sessions, func() {
			deps.Metrics.IncAuthFailure("session")
		})
	}
	return auth.SessionMiddleware(deps.Sessions)
}

// healthHandler reports process and database health.
func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		dbStatus := "connected"
		code := http.StatusOK

		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				status = "degraded"
				dbStatus = "unreachable"
				code = http.StatusServiceUnavailable
			}
		}

		writeJSON(w, code, map[string]string{
			"status":   status,
			"database": dbStatus,
		})
	}
}

// slogRequestLogger is a simple structured logging middleware using slog.
func slogRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"bytes", ww.BytesWritten(),
			"request_id", RequestIDFromContext(r.Context()),
		)
	})
}
