package app

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/invoicely/invoicely/internal/auth"
	"github.com/invoicely/invoicely/internal/i18n"
)

var (
	staticAssetPattern = regexp.MustCompile(`\.(?:html?|css|json|js|jpe?g|webp|png|gif|svg|ttf|woff2?|ico|csv|docx?|xlsx?|zip|webmanifest)`)

	publicRoutes = []*regexp.Regexp{
		regexp.MustCompile(`^/sign-in.*`),
		regexp.MustCompile(`^/sign-up.*`),
		regexp.MustCompile(`^/(en|fr)/sign-in.*`),
		regexp.MustCompile(`^/(en|fr)/sign-up.*`),
	}
)

// IsAPIPath reports whether the path belongs to the JSON API surface. Any
// path starting with /api or /trpc counts, including /apiary.
func IsAPIPath(path string) bool {
	return strings.HasPrefix(path, "/api") || strings.HasPrefix(path, "/trpc")
}

// MatchesGate reports whether a request goes through the auth and locale
// middleware. Framework internals and static assets are skipped unless they
// live under the API prefixes. A ".json" path is not a static asset.
func MatchesGate(r *http.Request) bool {
	path := r.URL.Path
	if IsAPIPath(path) {
		return true
	}
	if strings.HasPrefix(path, "/_next") || strings.HasPrefix(path, "/static/") {
		return false
	}
	for _, m := range staticAssetPattern.FindAllString(path, -1) {
		if m != ".json" {
			return false
		}
	}
	return true
}

// IsPublicRoute reports whether the path is reachable without a session.
func IsPublicRoute(path string) bool {
	for _, re := range publicRoutes {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// GateConfig collects the pieces composed by Gate.
type GateConfig struct {
	Catalog      *i18n.Catalog
	SecureCookie bool
}

// Gate composes request matching, the session guard and locale resolution.
// Non-public requests without a session are rejected before any locale
// redirect happens; everything that passes reaches the locale middleware.
func Gate(cfg GateConfig) func(http.Handler) http.Handler {
	isAPI := func(r *http.Request) bool { return IsAPIPath(r.URL.Path) }
	protect := auth.Protect(isAPI)
	locale := i18n.Middleware(i18n.MiddlewareConfig{
		Catalog:      cfg.Catalog,
		Passthrough:  isAPI,
		SecureCookie: cfg.SecureCookie,
	})
	return func(next http.Handler) http.Handler {
		localized := locale(next)
		guarded := protect(localized)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case !MatchesGate(r):
				next.ServeHTTP(w, r)
			case IsPublicRoute(r.URL.Path):
				localized.ServeHTTP(w, r)
			default:
				guarded.ServeHTTP(w, r)
			}
		})
	}
}
