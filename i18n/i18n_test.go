package i18n_test

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/goSession/i18n"
)

var errorKeys = []string{
	"error.network",
	"error.timeout",
	"error.validation",
	"error.authentication",
	"error.authorization",
	"error.not_found",
	"error.server",
	"error.unknown",
	"session.expired",
	"session.not_authorized",
}

func TestEmbeddedCatalogsAreComplete(t *testing.T) {
	c, err := i18n.New()
	require.NoError(t, err)
	assert.Equal(t, []string{"en", "de", "es"}, c.Languages())

	for _, lang := range c.Languages() {
		for _, key := range errorKeys {
			msg := c.Translate(key, lang)
			assert.NotEqual(t, key, msg, "%s missing %s", lang, key)
		}
	}
}

func TestTranslateMatchesLanguage(t *testing.T) {
	c := i18n.MustNew()
	en := c.Translate("error.server", "en")

	tests := []struct {
		lang string
		same bool
	}{
		{"", true},
		{"en-GB", true},
		{"de", false},
		{"de-AT", false},
		{"fr-CA,de;q=0.7", false},
		{"ja", true},
		{"not a language!!", true},
	}
	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			got := c.Translate("error.server", tt.lang)
			if tt.same {
				assert.Equal(t, en, got)
			} else {
				assert.NotEqual(t, en, got)
			}
		})
	}
}

func TestTranslateFallsBack(t *testing.T) {
	c := i18n.MustNew()

	assert.Equal(t, c.Translate("retry.exhausted", "en"), c.Translate("retry.exhausted", "es"))
	assert.Equal(t, "no.such.key", c.Translate("no.such.key", "de"))

	var nilCatalog *i18n.Catalog
	assert.Equal(t, "error.server", nilCatalog.Translate("error.server", "en"))
}

func TestLoadRequiresDefaultLanguage(t *testing.T) {
	fsys := fstest.MapFS{
		"c/de.yaml": {Data: []byte("error:\n  server: kaputt\n")},
	}
	_, err := i18n.Load(fsys, "c")
	assert.Error(t, err)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	fsys := fstest.MapFS{
		"c/en.yaml": {Data: []byte("error: [unclosed\n")},
	}
	_, err := i18n.Load(fsys, "c")
	assert.Error(t, err)
}

func TestFuncAdapter(t *testing.T) {
	var tr i18n.Translator = i18n.Func(func(key, lang string) string {
		return lang + ":" + key
	})
	assert.Equal(t, "de:error.unknown", tr.Translate("error.unknown", "de"))
}

func TestLanguageContext(t *testing.T) {
	ctx := i18n.WithLanguage(context.Background(), "es")
	assert.Equal(t, "es", i18n.LanguageFrom(ctx))
	assert.Empty(t, i18n.LanguageFrom(context.Background()))
}
