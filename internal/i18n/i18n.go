// Package i18n loads the localized toast and error message catalogs.
package i18n

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Translator resolves localized strings using dot-separated keys.
type Translator interface {
	T(key string) string
	Lang() string
}

// Catalog stores all loaded message translations. It is safe for concurrent
// use; Reload swaps the whole table atomically.
type Catalog struct {
	mu           sync.RWMutex
	dir          string
	translations map[string]map[string]string
	defaultLang  string
}

// LoadFromDir loads message catalogs from a directory of YAML files. Each
// file maps language codes to nested message keys:
//
//	en:
//	  toasts:
//	    login_success: "Login successful! Welcome to CookAI."
func LoadFromDir(dir, defaultLang string) (*Catalog, error) {
	if defaultLang == "" {
		defaultLang = "en"
	}

	translations, err := parseDir(dir)
	if err != nil {
		return nil, err
	}

	if _, ok := translations[defaultLang]; !ok {
		return nil, fmt.Errorf("i18n: default language %q is missing", defaultLang)
	}

	return &Catalog{
		dir:          dir,
		translations: translations,
		defaultLang:  defaultLang,
	}, nil
}

// Reload re-reads the catalog directory and swaps the message table. A parse
// failure leaves the previous table in place.
func (c *Catalog) Reload() error {
	translations, err := parseDir(c.dir)
	if err != nil {
		return err
	}

	if _, ok := translations[c.defaultLang]; !ok {
		return fmt.Errorf("i18n: default language %q is missing after reload", c.defaultLang)
	}

	c.mu.Lock()
	c.translations = translations
	c.mu.Unlock()

	return nil
}

// Translator returns a translator for the requested language, falling back
// to the default language for unknown codes and missing keys.
func (c *Catalog) Translator(lang string) Translator {
	if c == nil {
		return translator{}
	}

	norm := strings.ToLower(strings.TrimSpace(lang))

	c.mu.RLock()
	defer c.mu.RUnlock()

	if norm == "" || c.translations[norm] == nil {
		norm = c.defaultLang
	}

	return translator{
		lang:     norm,
		fallback: c.defaultLang,
		catalog:  c,
	}
}

// Languages returns all loaded language codes.
func (c *Catalog) Languages() []string {
	if c == nil {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	languages := make([]string, 0, len(c.translations))
	for lang := range c.translations {
		languages = append(languages, lang)
	}
	return languages
}

func (c *Catalog) lookup(lang, key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if entries := c.translations[lang]; entries != nil {
		return entries[key]
	}

	return ""
}

type translator struct {
	lang     string
	fallback string
	catalog  *Catalog
}

// T resolves the key for the translator's language, then the fallback
// language, and finally returns the key itself so a missing message is
// still visible.
func (t translator) T(key string) string {
	if t.catalog == nil {
		return key
	}

	if value := t.catalog.lookup(t.lang, key); value != "" {
		return value
	}

	if value := t.catalog.lookup(t.fallback, key); value != "" {
		return value
	}

	return key
}

// Lang returns the resolved language code.
func (t translator) Lang() string {
	return t.lang
}

func parseDir(dir string) (map[string]map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("i18n: read dir %s: %w", dir, err)
	}

	catalog := make(map[string]map[string]string)
	var processed bool

	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry) {
			continue
		}

		processed = true

		fileCatalog, err := parseFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}

		for lang, messages := range fileCatalog {
			if _, ok := catalog[lang]; !ok {
				catalog[lang] = make(map[string]string)
			}
			for key, value := range messages {
				catalog[lang][key] = value
			}
		}
	}

	if !processed {
		return nil, fmt.Errorf("i18n: no yaml files found in %s", dir)
	}

	return catalog, nil
}

func isYAML(entry fs.DirEntry) bool {
	name := strings.ToLower(entry.Name())
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}

func parseFile(path string) (map[string]map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("i18n: read file %s: %w", path, err)
	}

	if strings.TrimSpace(string(data)) == "" {
		return map[string]map[string]string{}, nil
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("i18n: parse file %s: %w", path, err)
	}

	catalog := make(map[string]map[string]string)
	for lang, value := range raw {
		langKey := strings.ToLower(strings.TrimSpace(lang))
		if langKey == "" {
			continue
		}

		// a declared language registers even when empty; missing keys fall
		// back per lookup in translator.T
		flattened := make(map[string]string)
		flatten("", value, flattened)
		catalog[langKey] = flattened
	}

	return catalog, nil
}

func flatten(prefix string, value any, out map[string]string) {
	switch typed := value.(type) {
	case map[string]any:
		for key, nested := range typed {
			flatten(joinKey(prefix, key), nested, out)
		}
	case map[any]any:
		for key, nested := range typed {
			flatten(joinKey(prefix, fmt.Sprint(key)), nested, out)
		}
	case string:
		if prefix != "" {
			out[prefix] = typed
		}
	}
}

func joinKey(prefix, key string) string {
	key = strings.TrimSpace(key)
	if prefix == "" {
		return key
	}

	return prefix + "." + key
}
