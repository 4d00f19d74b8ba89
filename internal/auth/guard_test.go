package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/invoicely/invoicely/internal/shared"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func isAPI(r *http.Request) bool { return strings.HasPrefix(r.URL.Path, "/api") }

func TestProtectRedirectsPagesToLocalizedSignIn(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/fr/invoices/42?tab=lines", nil)
	rr := httptest.NewRecorder()

	Protect(isAPI)(okHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/fr/sign-in?redirect_url=%2Ffr%2Finvoices%2F42%3Ftab%3Dlines", rr.Header().Get("Location"))
}

func TestProtectNegotiatesLocaleForUnprefixedPaths(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/invoices", nil)
	req.Header.Set("Accept-Language", "fr-CA,fr;q=0.9")
	rr := httptest.NewRecorder()

	Protect(isAPI)(okHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Header().Get("Location"), "/fr/sign-in?"))
}

func TestProtectRejectsAPIWithProblem(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/invoices", nil)
	rr := httptest.NewRecorder()

	Protect(isAPI)(okHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
}

func TestProtectPassesAuthenticatedSessions(t *testing.T) {
	sess := &shared.Session{ID: "s"}
	sess.SetUser("7", "u@example.com")
	req := httptest.NewRequest(http.MethodGet, "/en/invoices", nil)
	req = req.WithContext(shared.ContextWithSession(context.Background(), sess))
	rr := httptest.NewRecorder()

	Protect(isAPI)(okHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestSafeRedirect(t *testing.T) {
	cases := map[string]string{
		"":                     "/en",
		"/fr/invoices/1":       "/fr/invoices/1",
		"//evil.example":       "/en",
		"/\\evil.example":      "/en",
		"https://evil.example": "/en",
		"invoices":             "/en",
	}
	for in, want := range cases {
		assert.Equal(t, want, SafeRedirect(in, "/en"), in)
	}
}
