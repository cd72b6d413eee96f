package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, LangPT, Normalize("pt"))
	assert.Equal(t, LangPT, Normalize("pt-BR"))
	assert.Equal(t, LangES, Normalize("es-MX"))
	assert.Equal(t, LangEN, Normalize("en-US"))
	assert.Equal(t, LangEN, Normalize(""))
	assert.Equal(t, LangEN, Normalize("fr"))
}

func TestTranslationFallback(t *testing.T) {
	assert.Equal(t, messages["slot_taken"][LangPT], T("pt", "slot_taken"))
	assert.Equal(t, messages["slot_taken"][LangEN], T("fr", "slot_taken"))
	assert.Equal(t, "no_such_key", T("en", "no_such_key"),
		"unknown keys surface themselves instead of crashing")
}

func TestEveryKeyHasAllLocales(t *testing.T) {
	for key, byLang := range messages {
		for _, lang := range []string{LangEN, LangPT, LangES} {
			assert.NotEmpty(t, byLang[lang], "key %s missing %s", key, lang)
		}
	}
}
