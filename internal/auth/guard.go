package auth

import (
	"net/http"
	"net/url"

	"github.com/invoicely/invoicely/internal/i18n"
	"github.com/invoicely/invoicely/internal/platform/httpx"
	"github.com/invoicely/invoicely/internal/shared"
)

// SignInPath returns the localized sign-in page, remembering where to go next.
func SignInPath(loc i18n.Locale, redirect string) string {
	target := "/" + string(loc) + "/sign-in"
	if redirect != "" {
		target += "?" + url.Values{"redirect_url": {redirect}}.Encode()
	}
	return target
}

// Protect rejects requests without an authenticated session. API requests get
// a 401 problem; pages are sent to the sign-in form with a return path.
func Protect(isAPI func(*http.Request) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if shared.SessionFromContext(r.Context()).Authenticated() {
				next.ServeHTTP(w, r)
				return
			}
			if isAPI != nil && isAPI(r) {
				httpx.RespondError(w, shared.ErrUnauthorized)
				return
			}
			loc, _, ok := i18n.SplitPath(r.URL.Path)
			if !ok {
				loc = i18n.Negotiate(r)
			}
			http.Redirect(w, r, SignInPath(loc, r.URL.RequestURI()), http.StatusSeeOther)
		})
	}
}

// SafeRedirect accepts only local absolute paths, falling back otherwise.
func SafeRedirect(raw, fallback string) string {
	if raw == "" || raw[0] != '/' || len(raw) > 1 && (raw[1] == '/' || raw[1] == '\\') {
		return fallback
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return raw
}
