package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwitcherOffersExactlyTwoLocales(t *testing.T) {
	s := NewSwitcher("/en/invoices/42", "")
	require.Len(t, s.Options, 2)
	assert.Equal(t, English, s.Options[0].Locale)
	assert.Equal(t, "English", s.Options[0].Label)
	assert.Equal(t, French, s.Options[1].Locale)
	assert.Equal(t, "Français", s.Options[1].Label)
	assert.Equal(t, "/en/invoices/42", s.Options[0].Href)
	assert.Equal(t, "/fr/invoices/42", s.Options[1].Href)
}

func TestSwitcherDefaultSelection(t *testing.T) {
	cases := map[string]Locale{
		"/fr":            French,
		"/fr/invoices/1": French,
		"/en/invoices/1": English,
		"/":              English,
		"/sign-in":       English,
	}
	for path, want := range cases {
		assert.Equal(t, want, NewSwitcher(path, "").Selected(), path)
	}
}

func TestSwitcherKeepsQuery(t *testing.T) {
	s := NewSwitcher("/fr/sign-in", "redirect_url=%2Ffr")
	assert.Equal(t, "/en/sign-in?redirect_url=%2Ffr", s.Options[0].Href)
}
