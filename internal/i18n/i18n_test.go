package i18n

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalogFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoadFromDirAndTranslate(t *testing.T) {
	dir := t.TempDir()
	writeCatalogFile(t, dir, "en.yaml", `
en:
  toasts:
    login_success: "Login successful!"
`)
	writeCatalogFile(t, dir, "es.yaml", `
es:
  toasts:
    login_success: "¡Inicio de sesión correcto!"
`)

	catalog, err := LoadFromDir(dir, "en")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"en", "es"}, catalog.Languages())

	assert.Equal(t, "Login successful!", catalog.Translator("en").T("toasts.login_success"))
	assert.Equal(t, "¡Inicio de sesión correcto!", catalog.Translator("es").T("toasts.login_success"))
}

func TestTranslatorFallsBackToDefaultLanguage(t *testing.T) {
	dir := t.TempDir()
	writeCatalogFile(t, dir, "en.yaml", `
en:
  toasts:
    logout_success: "Logged out"
es:
  toasts: {}
`)

	catalog, err := LoadFromDir(dir, "en")
	require.NoError(t, err)

	tr := catalog.Translator("es")
	assert.Equal(t, "es", tr.Lang())
	assert.Equal(t, "Logged out", tr.T("toasts.logout_success"))
}

func TestTranslatorUnknownLanguageUsesDefault(t *testing.T) {
	dir := t.TempDir()
	writeCatalogFile(t, dir, "en.yaml", "en:\n  greeting: hello\n")

	catalog, err := LoadFromDir(dir, "en")
	require.NoError(t, err)

	tr := catalog.Translator("fr")
	assert.Equal(t, "en", tr.Lang())
	assert.Equal(t, "hello", tr.T("greeting"))
}

func TestTranslatorMissingKeyReturnsKey(t *testing.T) {
	dir := t.TempDir()
	writeCatalogFile(t, dir, "en.yaml", "en:\n  greeting: hello\n")

	catalog, err := LoadFromDir(dir, "en")
	require.NoError(t, err)
	assert.Equal(t, "toasts.unknown", catalog.Translator("en").T("toasts.unknown"))
}

func TestLoadFromDirMissingDefaultLanguage(t *testing.T) {
	dir := t.TempDir()
	writeCatalogFile(t, dir, "es.yaml", "es:\n  greeting: hola\n")

	_, err := LoadFromDir(dir, "en")
	assert.Error(t, err)
}

func TestReloadSwapsMessages(t *testing.T) {
	dir := t.TempDir()
	writeCatalogFile(t, dir, "en.yaml", "en:\n  greeting: hello\n")

	catalog, err := LoadFromDir(dir, "en")
	require.NoError(t, err)

	writeCatalogFile(t, dir, "en.yaml", "en:\n  greeting: howdy\n")
	require.NoError(t, catalog.Reload())
	assert.Equal(t, "howdy", catalog.Translator("en").T("greeting"))
}

func TestReloadKeepsOldMessagesOnParseFailure(t *testing.T) {
	dir := t.TempDir()
	writeCatalogFile(t, dir, "en.yaml", "en:\n  greeting: hello\n")

	catalog, err := LoadFromDir(dir, "en")
	require.NoError(t, err)

	writeCatalogFile(t, dir, "en.yaml", "en: [broken\n")
	assert.Error(t, catalog.Reload())
	assert.Equal(t, "hello", catalog.Translator("en").T("greeting"))
}

func TestShippedCatalogCoversToastKeys(t *testing.T) {
	catalog, err := LoadFromDir("messages", "en")
	require.NoError(t, err)

	keys := []string{
		"toasts.login_success",
		"toasts.login_failed",
		"toasts.google_login_success",
		"toasts.google_unauthorized_origin",
		"toasts.google_cancelled",
		"toasts.google_duplicate_request",
		"toasts.google_unavailable",
		"toasts.signup_success",
		"toasts.signup_failed",
		"toasts.logout_success",
		"toasts.preferences_saved",
		"errors.generic",
	}

	for _, lang := range []string{"en", "es"} {
		tr := catalog.Translator(lang)
		for _, key := range keys {
			assert.NotEqualf(t, key, tr.T(key), "missing %s translation for %s", lang, key)
		}
	}
}
