package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"shiftdesk/pkg/api/handlers"
	"shiftdesk/pkg/auth"
	"shiftdesk/pkg/notify"
	"shiftdesk/pkg/store"
	"shiftdesk/pkg/telemetry"
)

// Deps is everything the router needs. The store and notifier are injected;
// there are no package-level singletons behind the handlers.
type Deps struct {
	Store          *store.Store
	Notifier       *notify.Notifier
	JWTSecret      string
	TokenTTL       time.Duration
	LoginLimiter   *auth.LimiterPool
	AllowedOrigins []string
	BotWebhook     http.Handler // nil when the bot is disabled
}

// NewRouter builds the full HTTP surface: the JSON API under /api, the bot
// webhook, health probes, metrics and docs.
func NewRouter(d Deps) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !d.Store.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"not ready"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	h := handlers.New(d.Store, d.Notifier, d.JWTSecret, d.TokenTTL, d.LoginLimiter)

	apiR := r.PathPrefix("/api").Subrouter()
	apiR.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)

	// Any authenticated caller.
	authed := apiR.NewRoute().Subrouter()
	authed.Use(auth.RequireToken(d.JWTSecret))
	authed.HandleFunc("/auth/verify", h.Verify).Methods(http.MethodGet)
	authed.HandleFunc("/employees", h.ListEmployees).Methods(http.MethodGet)
	authed.HandleFunc("/shifts", h.ListShifts).Methods(http.MethodGet)
	authed.HandleFunc("/settings", h.GetSettings).Methods(http.MethodGet)

	// Admin-only mutations.
	admin := apiR.NewRoute().Subrouter()
	admin.Use(auth.RequireToken(d.JWTSecret), auth.RequireAdmin)
	admin.HandleFunc("/users", h.ListUsers).Methods(http.MethodGet)
	admin.HandleFunc("/users", h.CreateUser).Methods(http.MethodPost)
	admin.HandleFunc("/users/{id}", h.DeleteUser).Methods(http.MethodDelete)
	admin.HandleFunc("/employees", h.CreateEmployee).Methods(http.MethodPost)
	admin.HandleFunc("/employees/{id}", h.DeleteEmployee).Methods(http.MethodDelete)
	admin.HandleFunc("/shifts", h.SetShift).Methods(http.MethodPost)
	admin.HandleFunc("/settings", h.UpdateSettings).Methods(http.MethodPost)

	if d.BotWebhook != nil {
		r.Handle("/bot/webhook", d.BotWebhook).Methods(http.MethodPost)
	}

	r.Handle("/metrics", promhttp.Handler())
	r.PathPrefix("/docs/").Handler(httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))
	r.Handle("/openapi.yaml", http.FileServer(http.Dir("./docs")))

	return telemetry.Middleware(corsMiddleware(d.AllowedOrigins)(r))
}

// corsMiddleware is permissive when no origins are configured, otherwise
// echoes only whitelisted origins.
func corsMiddleware(allowed []string) func(http.Handler) http.Handler {
	allowedSet := map[string]struct{}{}
	for _, o := range allowed {
		allowedSet[o] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" {
				if len(allowedSet) == 0 {
					w.Header().Set("Access-Control-Allow-Origin", "*")
				} else if _, ok := allowedSet[origin]; ok {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Vary", "Origin")
				}
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
