package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoicely/invoicely/internal/auth"
	"github.com/invoicely/invoicely/internal/i18n"
	"github.com/invoicely/invoicely/internal/observability"
	"github.com/invoicely/invoicely/internal/shared"
	"github.com/invoicely/invoicely/internal/view"
	"github.com/invoicely/invoicely/jobs"
)

func newTestRouter(t *testing.T) (http.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := shared.NewSessionManager(client, "test_session", time.Hour, false)
	csrf := shared.NewCSRFManager("csrf")
	templates, err := view.NewEngine()
	require.NoError(t, err)
	catalog, err := i18n.DefaultCatalog()
	require.NoError(t, err)

	return NewRouter(RouterParams{
		Logger:         logger,
		Config:         &Config{AppEnv: "test", RateLimitPerMin: 1000},
		Catalog:        catalog,
		SessionManager: sessions,
		CSRFManager:    csrf,
		AuthHandler:    auth.NewHandler(logger, auth.NewService(nil), templates, sessions, csrf),
		JobHandler:     jobs.NewHandler(nil, logger),
		Metrics:        observability.NewMetrics(),
	}), sessions
}

func TestRouterOperationalRoutesBypassGate(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, path := range []string{"/healthz", "/metrics", "/static/css/app.css"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rr.Code, path)
	}
}

func TestRouterStaticAssetsAreCached(t *testing.T) {
	router, _ := newTestRouter(t)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/static/js/app.js", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "public, max-age=3600", rr.Header().Get("Cache-Control"))
}

func TestRouterRootRequiresSession(t *testing.T) {
	router, _ := newTestRouter(t)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/en/sign-in?redirect_url=%2F", rr.Header().Get("Location"))
}

func TestRouterAPIRequiresSession(t *testing.T) {
	router, _ := newTestRouter(t)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/jobs/health", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
}

func TestRouterRendersLocalizedSignIn(t *testing.T) {
	router, sessions := newTestRouter(t)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/fr/sign-in", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `lang="fr"`)
	var names []string
	for _, c := range rr.Result().Cookies() {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, sessions.CookieName())
	assert.Contains(t, names, i18n.CookieName)
	assert.NotEmpty(t, rr.Header().Get("X-Frame-Options"))
}

func TestRouterUnprefixedSignInRedirectsToLocale(t *testing.T) {
	router, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/sign-up", nil)
	req.Header.Set("Accept-Language", "fr")
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusTemporaryRedirect, rr.Code)
	assert.Equal(t, "/fr/sign-up", rr.Header().Get("Location"))
}

func TestRouterRejectsPostWithoutCSRFToken(t *testing.T) {
	router, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/en/sign-in", strings.NewReader("email=a%40b.io&password=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}
