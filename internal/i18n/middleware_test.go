package i18n

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubCreds bool

func (s stubCreds) HasValidCredentials(r *http.Request) bool { return bool(s) }

func newTestMiddleware(t *testing.T, authed bool) *Middleware {
	t.Helper()
	bundle, err := NewBundle("en")
	require.NoError(t, err)
	return NewMiddleware(bundle, stubCreds(authed))
}

func pageRequest(path string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, path, nil)
	r.Header.Set("Accept", "text/html")
	return r
}

func serve(m *Middleware, r *http.Request) (rec *httptest.ResponseRecorder, seenLocale, seenPath string) {
	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenLocale = LocaleFromContext(r.Context())
		seenPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, r)
	return rec, seenLocale, seenPath
}

func TestUnprefixedPageRedirectsToDefaultLocale(t *testing.T) {
	m := newTestMiddleware(t, false)

	rec, _, _ := serve(m, pageRequest("/about"))
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/en/about", rec.Header().Get("Location"))
}

func TestRedirectPreservesQuery(t *testing.T) {
	m := newTestMiddleware(t, false)

	rec, _, _ := serve(m, pageRequest("/search?q=bakery"))
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/en/search?q=bakery", rec.Header().Get("Location"))
}

func TestPrefixedPagePassesThroughWithLocale(t *testing.T) {
	m := newTestMiddleware(t, false)

	rec, locale, path := serve(m, pageRequest("/fil/about"))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "fil", locale)

	// The prefix is stripped so the page resolves against unprefixed routes
	require.Equal(t, "/about", path)

	_, _, path = serve(m, pageRequest("/en/businesses"))
	require.Equal(t, "/businesses", path)
}

func TestUnauthenticatedAdminPageRedirectsToLogin(t *testing.T) {
	m := newTestMiddleware(t, false)

	// Unprefixed admin path goes straight to the login page, not through a
	// locale redirect first
	rec, _, _ := serve(m, pageRequest("/admin/dashboard"))
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/en/login", rec.Header().Get("Location"))

	rec, _, _ = serve(m, pageRequest("/fil/admin/dashboard"))
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/fil/login", rec.Header().Get("Location"))

	rec, _, _ = serve(m, pageRequest("/en/dashboard"))
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/en/login", rec.Header().Get("Location"))
}

func TestAuthenticatedAdminPagePassesThrough(t *testing.T) {
	m := newTestMiddleware(t, true)

	rec, locale, path := serve(m, pageRequest("/en/admin/dashboard"))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "en", locale)
	require.Equal(t, "/admin/dashboard", path)
}

func TestAPIRequestsBypassLocaleHandling(t *testing.T) {
	m := newTestMiddleware(t, false)

	// JSON clients are never redirected
	r := httptest.NewRequest(http.MethodGet, "/businesses", nil)
	r.Header.Set("Accept", "application/json")
	rec, _, _ := serve(m, r)
	require.Equal(t, http.StatusOK, rec.Code)

	// Exempt paths are untouched even for browsers
	rec, _, _ = serve(m, pageRequest("/health"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _, _ = serve(m, pageRequest("/swagger/index.html"))
	require.Equal(t, http.StatusOK, rec.Code)
}
