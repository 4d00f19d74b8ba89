package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/invoicely/invoicely/internal/auth"
	"github.com/invoicely/invoicely/internal/i18n"
	"github.com/invoicely/invoicely/internal/invoice"
	"github.com/invoicely/invoicely/internal/observability"
	"github.com/invoicely/invoicely/internal/shared"
	"github.com/invoicely/invoicely/jobs"
	"github.com/invoicely/invoicely/report"
	"github.com/invoicely/invoicely/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Catalog        *i18n.Catalog
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	AuthHandler    *auth.Handler
	InvoiceHandler *invoice.Handler
	ReportHandler  *report.Handler
	JobHandler     *jobs.Handler
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router. Health, metrics and static assets sit
// outside the gate; every other route passes through it.
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
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	r.Group(func(r chi.Router) {
		r.Use(Gate(GateConfig{
			Catalog:      params.Catalog,
			SecureCookie: params.Config.IsProduction(),
		}))

		r.Route("/api", func(r chi.Router) {
			if params.InvoiceHandler != nil {
				r.Route("/invoices", params.InvoiceHandler.MountAPI)
			}
			if params.JobHandler != nil {
				r.Route("/jobs", params.JobHandler.MountRoutes)
			}
			if params.ReportHandler != nil {
				r.Route("/report", params.ReportHandler.MountRoutes)
			}
		})

		r.Route("/{locale}", func(r chi.Router) {
			r.Use(requireLocale)
			if params.AuthHandler != nil {
				params.AuthHandler.MountRoutes(r)
			}
			if params.InvoiceHandler != nil {
				params.InvoiceHandler.MountRoutes(r)
			}
		})

		// Unprefixed paths never reach a handler: the gate redirects them.
		r.NotFound(http.NotFound)
	})

	return r
}

// requireLocale answers 404 for a first path segment that is not a
// supported locale, such as a stray asset request.
func requireLocale(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "locale")
		if loc, ok := i18n.Parse(raw); !ok || string(loc) != raw {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
