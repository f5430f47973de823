package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/quillboard/quillboard/internal/attendance"
	"github.com/quillboard/quillboard/internal/groups"
	"github.com/quillboard/quillboard/internal/ledger"
	"github.com/quillboard/quillboard/internal/observability"
	"github.com/quillboard/quillboard/internal/places"
	"github.com/quillboard/quillboard/internal/shared"
	"github.com/quillboard/quillboard/internal/threads"
	"github.com/quillboard/quillboard/internal/users"
	"github.com/quillboard/quillboard/internal/verify"
	"github.com/quillboard/quillboard/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	SessionManager    *shared.SessionManager
	CSRFManager       *shared.CSRFManager
	UsersHandler      *users.Handler
	GroupsHandler     *groups.Handler
	GroupsService     *groups.Service
	VerifyHandler     *verify.Handler
	ThreadsHandler    *threads.Handler
	LedgerHandler     *ledger.Handler
	AttendanceHandler *attendance.Handler
	PlacesHandler     *places.Handler
	JobHandler        *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with Quillboard defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/user", func(r chi.Router) {
			params.UsersHandler.MountRoutes(r)
			if params.AttendanceHandler != nil {
				params.AttendanceHandler.MountRoutes(r)
			}
		})
		if params.VerifyHandler != nil {
			r.Route("/secure", params.VerifyHandler.MountRoutes)
		}
		if params.ThreadsHandler != nil {
			r.Route("/thread", params.ThreadsHandler.MountRoutes)
		}
		if params.PlacesHandler != nil {
			r.Route("/view", params.PlacesHandler.MountRoutes)
		}
		r.Route("/admin", func(r chi.Router) {
			r.Use(users.RequireAdmin(params.Logger, params.GroupsService, params.Config.AdminGroupID))
			params.UsersHandler.MountAdminRoutes(r)
			params.GroupsHandler.MountAdminRoutes(r)
			if params.LedgerHandler != nil {
				params.LedgerHandler.MountAdminRoutes(r)
			}
			if params.ThreadsHandler != nil {
				params.ThreadsHandler.MountAdminRoutes(r)
			}
			if params.PlacesHandler != nil {
				params.PlacesHandler.MountAdminRoutes(r)
			}
		})
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
