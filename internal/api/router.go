package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/studentaffairs/portal/internal/api/handlers"
	"github.com/studentaffairs/portal/internal/api/middleware"
	"github.com/studentaffairs/portal/internal/audit"
	"github.com/studentaffairs/portal/internal/auth"
	"github.com/studentaffairs/portal/internal/clock"
	"github.com/studentaffairs/portal/internal/config"
	"github.com/studentaffairs/portal/internal/domain/events"
	"github.com/studentaffairs/portal/internal/domain/reminders"
	"github.com/studentaffairs/portal/internal/metrics"
)

// Deps are the long-lived services the router dispatches to. The caller
// builds them once at startup and owns their lifecycle.
type Deps struct {
	Config      config.Config
	Logger      zerolog.Logger
	Events      *events.Service
	Admin       *events.AdminService
	Audit       *audit.Logger
	Reminders   *reminders.Evaluator
	JWT         *auth.JWTManager
	Health      *handlers.HealthChecker
	RateLimiter *middleware.RateLimiter
	Clock       clock.Clock

	Version   string
	GitCommit string
	BuildDate string
}

func NewRouter(d Deps) http.Handler {
	env := d.Config.Environment

	eventsHandler := handlers.NewEventsHandler(d.Events, env)
	adminHandler := handlers.NewAdminHandler(d.Admin, d.Clock, d.Audit, env)
	remindersHandler := handlers.NewRemindersHandler(d.Events, d.Reminders, env)

	public := chain(d.RateLimiter.Limit(middleware.TierPublic), middleware.PublicRequestSize())
	admin := chain(
		middleware.AdminAuth(d.JWT, env),
		d.RateLimiter.Limit(middleware.TierAdmin),
		middleware.AdminRequestSize(),
	)
	reminder := chain(
		middleware.OptionalAuth(d.JWT, env),
		d.RateLimiter.Limit(middleware.TierReminder),
		middleware.PublicRequestSize(),
	)

	mux := http.NewServeMux()
	mux.Handle("/healthz", handlers.Healthz())
	mux.Handle("/readyz", d.Health.Readyz())
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/version", VersionHandler(d.Version, d.GitCommit, d.BuildDate))

	mux.Handle("/api/v1/events", methodMux(map[string]http.Handler{
		http.MethodGet: public(http.HandlerFunc(eventsHandler.List)),
	}))
	mux.Handle("/api/v1/events.ics", methodMux(map[string]http.Handler{
		http.MethodGet: public(http.HandlerFunc(eventsHandler.Feed)),
	}))
	mux.Handle("/api/v1/events/{id}", methodMux(map[string]http.Handler{
		http.MethodGet: public(http.HandlerFunc(eventsHandler.Get)),
	}))
	mux.Handle("/api/v1/events/{id}/calendar", methodMux(map[string]http.Handler{
		http.MethodGet: public(http.HandlerFunc(eventsHandler.Calendar)),
	}))
	mux.Handle("/api/v1/events/{id}/ics", methodMux(map[string]http.Handler{
		http.MethodGet: public(http.HandlerFunc(eventsHandler.ICS)),
	}))
	mux.Handle("/api/v1/reminders/test", methodMux(map[string]http.Handler{
		http.MethodPost: reminder(http.HandlerFunc(remindersHandler.Test)),
	}))

	mux.Handle("/api/v1/admin/events", methodMux(map[string]http.Handler{
		http.MethodGet:  admin(http.HandlerFunc(adminHandler.List)),
		http.MethodPost: admin(http.HandlerFunc(adminHandler.Create)),
	}))
	mux.Handle("/api/v1/admin/events/{id}", methodMux(map[string]http.Handler{
		http.MethodPut:    admin(http.HandlerFunc(adminHandler.Update)),
		http.MethodDelete: admin(http.HandlerFunc(adminHandler.Delete)),
	}))
	mux.Handle("/api/v1/admin/categories", methodMux(map[string]http.Handler{
		http.MethodGet: admin(http.HandlerFunc(adminHandler.Categories)),
	}))
	mux.Handle("/api/v1/admin/images", methodMux(map[string]http.Handler{
		http.MethodPost: admin(http.HandlerFunc(adminHandler.UploadImage)),
	}))

	// The metrics middleware reads r.Pattern after the mux sets it, so it
	// must see the same *http.Request the mux does.
	var handler http.Handler = metrics.HTTPMiddleware(mux)
	handler = middleware.SecurityHeaders(env == "production")(handler)
	handler = middleware.Tracing(handler)
	handler = middleware.RequestLogging(d.Logger)(handler)
	handler = middleware.CorrelationID(d.Logger)(handler)
	return handler
}

// chain applies middleware so the first argument runs first.
func chain(mws ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		for i := len(mws) - 1; i >= 0; i-- {
			h = mws[i](h)
		}
		return h
	}
}

func methodMux(handlers map[string]http.Handler) http.Handler {
	if get, ok := handlers[http.MethodGet]; ok {
		if _, hasHead := handlers[http.MethodHead]; !hasHead {
			handlers[http.MethodHead] = get
		}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allowedMethods(handlers))
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
