package i18n

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const localeContextKey contextKey = "locale"

// LocaleFromContext returns the locale resolved for the request, or "" when
// the middleware did not run.
func LocaleFromContext(ctx context.Context) string {
	locale, _ := ctx.Value(localeContextKey).(string)
	return locale
}

// CredentialChecker reports whether a request carries valid credentials. The
// auth middleware implements this.
type CredentialChecker interface {
	HasValidCredentials(r *http.Request) bool
}

// Middleware handles locale prefixes on page navigations and guards the admin
// pages. JSON API requests pass through untouched; their protection lives on
// the routes themselves.
type Middleware struct {
	bundle *Bundle
	creds  CredentialChecker
}

func NewMiddleware(bundle *Bundle, creds CredentialChecker) *Middleware {
	return &Middleware{bundle: bundle, creds: creds}
}

// paths the locale prefix never applies to
var exemptPrefixes = []string{
	"/health",
	"/metrics",
	"/swagger",
	"/auth",
	"/api",
	"/static",
	"/favicon.ico",
}

// guardedPrefixes are page sections that require a signed-in user
var guardedPrefixes = []string{
	"/admin",
	"/dashboard",
}

func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !wantsHTML(r) || isExempt(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		locale, rest, hadPrefix := m.splitLocale(r.URL.Path)

		if isGuarded(rest) && !m.creds.HasValidCredentials(r) {
			http.Redirect(w, r, "/"+locale+"/login", http.StatusFound)
			return
		}

		if !hadPrefix {
			target := "/" + locale + r.URL.Path
			if r.URL.RawQuery != "" {
				target += "?" + r.URL.RawQuery
			}
			http.Redirect(w, r, target, http.StatusFound)
			return
		}

		// Routes are registered without locale prefixes, so strip the
		// matched one before handing off.
		r = r.WithContext(context.WithValue(r.Context(), localeContextKey, locale))
		r.URL.Path = rest
		next.ServeHTTP(w, r)
	})
}

// splitLocale returns the request locale and the path without the locale
// prefix. Unprefixed paths resolve to the default locale.
func (m *Middleware) splitLocale(path string) (locale, rest string, hadPrefix bool) {
	trimmed := strings.TrimPrefix(path, "/")
	segment, remainder, _ := strings.Cut(trimmed, "/")

	if m.bundle.Supported(segment) {
		return segment, "/" + remainder, true
	}
	return m.bundle.DefaultLocale(), path, false
}

func isExempt(path string) bool {
	for _, prefix := range exemptPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

func isGuarded(rest string) bool {
	for _, prefix := range guardedPrefixes {
		if rest == prefix || strings.HasPrefix(rest, prefix+"/") {
			return true
		}
	}
	return false
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
