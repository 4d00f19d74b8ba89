package i18n

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMiddleware(t *testing.T) (http.Handler, *Locale, *Messages) {
	t.Helper()
	catalog, err := DefaultCatalog()
	require.NoError(t, err)
	var gotLocale Locale
	var gotMessages Messages
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLocale = LocaleFromContext(r.Context())
		gotMessages = MessagesFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	mw := Middleware(MiddlewareConfig{
		Catalog: catalog,
		Passthrough: func(r *http.Request) bool {
			return strings.HasPrefix(r.URL.Path, "/api/")
		},
	})
	return mw(next), &gotLocale, &gotMessages
}

func TestMiddlewareRedirectsUnprefixedPaths(t *testing.T) {
	handler, _, _ := newTestMiddleware(t)

	req := httptest.NewRequest(http.MethodGet, "/invoices?page=2", nil)
	req.Header.Set("Accept-Language", "fr")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusTemporaryRedirect, rr.Code)
	assert.Equal(t, "/fr/invoices?page=2", rr.Header().Get("Location"))
}

func TestMiddlewareRedirectsRootToDefault(t *testing.T) {
	handler, _, _ := newTestMiddleware(t)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTemporaryRedirect, rr.Code)
	assert.Equal(t, "/en", rr.Header().Get("Location"))
}

func TestMiddlewareAttachesPrefixedLocale(t *testing.T) {
	handler, gotLocale, gotMessages := newTestMiddleware(t)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/fr/invoices/abc", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, French, *gotLocale)
	assert.Equal(t, "Quantité", gotMessages.Get("Invoice.quantity"))
	assert.Contains(t, rr.Header().Get("Set-Cookie"), CookieName+"=fr")
}

func TestMiddlewareDoesNotRedirectPassthrough(t *testing.T) {
	handler, gotLocale, _ := newTestMiddleware(t)

	req := httptest.NewRequest(http.MethodGet, "/api/invoices", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "fr"})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, French, *gotLocale)
}
