package i18n

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBundleLoadsEmbeddedLocales(t *testing.T) {
	bundle, err := NewBundle("en")
	require.NoError(t, err)

	require.True(t, bundle.Supported("en"))
	require.True(t, bundle.Supported("fil"))
	require.False(t, bundle.Supported("es"))
	require.ElementsMatch(t, []string{"en", "fil"}, bundle.Locales())
}

func TestValidateLocales(t *testing.T) {
	bundle, err := NewBundle("en")
	require.NoError(t, err)

	require.NoError(t, bundle.ValidateLocales([]string{"en", "fil"}))

	err = bundle.ValidateLocales([]string{"en", "es"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "es")
}

func TestBundleRejectsUnknownDefault(t *testing.T) {
	_, err := NewBundle("xx")
	require.Error(t, err)
}

func TestTranslationLookup(t *testing.T) {
	bundle, err := NewBundle("en")
	require.NoError(t, err)

	require.Equal(t, "Mga Negosyo", bundle.T("fil", "nav.businesses"))
	require.Equal(t, "Businesses", bundle.T("en", "nav.businesses"))
}

func TestTranslationFallsBackToDefaultLocale(t *testing.T) {
	bundle, err := NewBundle("en")
	require.NoError(t, err)

	// Unknown locale falls back to English
	require.Equal(t, "Businesses", bundle.T("es", "nav.businesses"))

	// Unknown key falls back to the key itself
	require.Equal(t, "no.such.key", bundle.T("fil", "no.such.key"))
}
