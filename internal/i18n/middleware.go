package i18n

import (
	"context"
	"net/http"
	"time"
)

type localeContextKey struct{}

type localeContext struct {
	locale   Locale
	messages Messages
}

// WithLocale attaches the resolved locale and its bundle to ctx.
func WithLocale(ctx context.Context, loc Locale, msgs Messages) context.Context {
	return context.WithValue(ctx, localeContextKey{}, localeContext{locale: loc, messages: msgs})
}

// LocaleFromContext returns the request locale, DefaultLocale when unset.
func LocaleFromContext(ctx context.Context) Locale {
	if v, ok := ctx.Value(localeContextKey{}).(localeContext); ok {
		return v.locale
	}
	return DefaultLocale
}

// MessagesFromContext returns the bundle attached by Middleware.
func MessagesFromContext(ctx context.Context) Messages {
	if v, ok := ctx.Value(localeContextKey{}).(localeContext); ok {
		return v.messages
	}
	return nil
}

// MiddlewareConfig configures locale negotiation.
type MiddlewareConfig struct {
	Catalog *Catalog
	// Passthrough marks requests that get a negotiated locale but are never
	// redirected to a locale-prefixed path (API routes).
	Passthrough func(*http.Request) bool
	// SecureCookie sets the Secure attribute on the locale cookie.
	SecureCookie bool
}

// Middleware resolves the locale for every request. Paths without a locale
// prefix are redirected to the negotiated locale; prefixed paths load the
// matching bundle and remember the choice in a cookie.
func Middleware(cfg MiddlewareConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Passthrough != nil && cfg.Passthrough(r) {
				loc, msgs := cfg.Catalog.Load(string(Negotiate(r)))
				next.ServeHTTP(w, r.WithContext(WithLocale(r.Context(), loc, msgs)))
				return
			}

			prefix, _, ok := SplitPath(r.URL.Path)
			if !ok {
				target := LocalizePath(r.URL.Path, Negotiate(r))
				if r.URL.RawQuery != "" {
					target += "?" + r.URL.RawQuery
				}
				http.Redirect(w, r, target, http.StatusTemporaryRedirect)
				return
			}

			loc, msgs := cfg.Catalog.Load(string(prefix))
			if cookie, err := r.Cookie(CookieName); err != nil || cookie.Value != string(loc) {
				http.SetCookie(w, &http.Cookie{
					Name:     CookieName,
					Value:    string(loc),
					Path:     "/",
					MaxAge:   int((365 * 24 * time.Hour).Seconds()),
					Secure:   cfg.SecureCookie,
					SameSite: http.SameSiteLaxMode,
				})
			}
			next.ServeHTTP(w, r.WithContext(WithLocale(r.Context(), loc, msgs)))
		})
	}
}
